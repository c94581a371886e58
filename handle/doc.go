// Package handle implements the opaque handle ownership protocol.
//
// Every engine object handed to the host is registered here and identified by
// a non-zero Handle. Each operation on a handle is one of:
//
//   - New: the engine creates a value and the host becomes its owner.
//   - Borrow: the value is read; the host keeps ownership.
//   - Consume: ownership moves back to the engine and the handle dies, whether
//     the operation that consumed it then succeeds or fails.
//   - Free: the host gives the value up; freeing the null handle is a no-op.
//
// Null, unknown, released and wrong-kind handles are reported as errors
// wrapping fault.ErrContract, never as crashes:
//
//	reg := handle.NewRegistry(nil)
//	h := reg.New(core.ExprKind, expr)
//	e, err := handle.Consume[*frame.Expr](reg, h, core.ExprKind)
//	_, err = handle.Borrow[*frame.Expr](reg, h, core.ExprKind) // ErrInvalidHandle
//
// Operations that consume several handles use ConsumeAll, which validates
// every claim before removing any of them.
package handle
