package FrameBridge

import (
	"github.com/nickyhof/FrameBridge/core"
	"github.com/nickyhof/FrameBridge/fault"
	"github.com/nickyhof/FrameBridge/frame"
	"github.com/nickyhof/FrameBridge/handle"
	"github.com/nickyhof/FrameBridge/udf"
)

// takeExprs consumes expression handles as one unit: either all of them
// die or, on a contract violation, none do.
func (inst *Instance) takeExprs(hs ...handle.Handle) ([]*frame.Expr, error) {
	claims := make([]handle.Claim, len(hs))
	for i, h := range hs {
		claims[i] = handle.Claim{Handle: h, Kind: core.ExprKind}
	}
	vals, err := inst.handles.ConsumeAll(claims...)
	if err != nil {
		return nil, err
	}
	exprs := make([]*frame.Expr, len(vals))
	for i, v := range vals {
		exprs[i] = v.(*frame.Expr)
	}
	return exprs, nil
}

func (inst *Instance) newExpr(op string, fn func() (*frame.Expr, error)) handle.Handle {
	return fault.Guard(inst.barrier, op, 0, func() (handle.Handle, error) {
		e, err := fn()
		if err != nil {
			return 0, err
		}
		return inst.put(core.ExprKind, e), nil
	})
}

func (inst *Instance) literal(op string, e *frame.Expr) handle.Handle {
	return inst.newExpr(op, func() (*frame.Expr, error) { return e, nil })
}

// unary consumes h and wraps it with fn.
func (inst *Instance) unary(op string, h handle.Handle, fn func(*frame.Expr) *frame.Expr) handle.Handle {
	return inst.newExpr(op, func() (*frame.Expr, error) {
		es, err := inst.takeExprs(h)
		if err != nil {
			return nil, err
		}
		return fn(es[0]), nil
	})
}

func (inst *Instance) ExprCol(name string) handle.Handle {
	return inst.literal("expr_col", frame.Col(name))
}

func (inst *Instance) ExprLitInt32(v int32) handle.Handle {
	return inst.literal("expr_lit_i32", frame.Lit(v))
}

func (inst *Instance) ExprLitInt64(v int64) handle.Handle {
	return inst.literal("expr_lit_i64", frame.Lit(v))
}

func (inst *Instance) ExprLitFloat64(v float64) handle.Handle {
	return inst.literal("expr_lit_f64", frame.Lit(v))
}

func (inst *Instance) ExprLitBool(v bool) handle.Handle {
	return inst.literal("expr_lit_bool", frame.Lit(v))
}

func (inst *Instance) ExprLitString(v string) handle.Handle {
	return inst.literal("expr_lit_str", frame.Lit(v))
}

func (inst *Instance) ExprLitNull() handle.Handle {
	return inst.literal("expr_lit_null", frame.LitNull())
}

// ExprLitDatetime is a timestamp literal in microseconds since the epoch.
func (inst *Instance) ExprLitDatetime(micros int64) handle.Handle {
	return inst.literal("expr_lit_datetime", frame.LitDatetime(micros))
}

// ExprBinary consumes both operands.
func (inst *Instance) ExprBinary(op frame.BinaryOp, left, right handle.Handle) handle.Handle {
	return inst.newExpr("expr_"+op.String(), func() (*frame.Expr, error) {
		es, err := inst.takeExprs(left, right)
		if err != nil {
			return nil, err
		}
		return frame.Binary(op, es[0], es[1]), nil
	})
}

func (inst *Instance) ExprNot(h handle.Handle) handle.Handle {
	return inst.unary("expr_not", h, (*frame.Expr).Not)
}

func (inst *Instance) ExprIsNull(h handle.Handle) handle.Handle {
	return inst.unary("expr_is_null", h, (*frame.Expr).IsNull)
}

func (inst *Instance) ExprIsNotNull(h handle.Handle) handle.Handle {
	return inst.unary("expr_is_not_null", h, (*frame.Expr).IsNotNull)
}

// ExprAgg wraps h in a whole-column reduction.
func (inst *Instance) ExprAgg(kind frame.AggKind, h handle.Handle) handle.Handle {
	return inst.unary("expr_"+kind.String(), h, func(e *frame.Expr) *frame.Expr { return e.Agg(kind) })
}

func (inst *Instance) ExprFillNull(h, fill handle.Handle) handle.Handle {
	return inst.newExpr("expr_fill_null", func() (*frame.Expr, error) {
		es, err := inst.takeExprs(h, fill)
		if err != nil {
			return nil, err
		}
		return es[0].FillNull(es[1]), nil
	})
}

func (inst *Instance) ExprIsBetween(h, lower, upper handle.Handle) handle.Handle {
	return inst.newExpr("expr_is_between", func() (*frame.Expr, error) {
		es, err := inst.takeExprs(h, lower, upper)
		if err != nil {
			return nil, err
		}
		return es[0].IsBetween(es[1], es[2]), nil
	})
}

func (inst *Instance) ExprAlias(h handle.Handle, name string) handle.Handle {
	return inst.unary("expr_alias", h, func(e *frame.Expr) *frame.Expr { return e.Alias(name) })
}

// ExprCast consumes h and borrows dtype.
func (inst *Instance) ExprCast(h, dtype handle.Handle) handle.Handle {
	return inst.newExpr("expr_cast", func() (*frame.Expr, error) {
		dt, err := inst.concreteType(dtype)
		if err != nil {
			return nil, err
		}
		es, err := inst.takeExprs(h)
		if err != nil {
			return nil, err
		}
		return es[0].Cast(dt), nil
	})
}

func (inst *Instance) ExprStrContains(h handle.Handle, pattern string) handle.Handle {
	return inst.unary("expr_str_contains", h, func(e *frame.Expr) *frame.Expr { return e.StrContains(pattern) })
}

func (inst *Instance) ExprStrToUpper(h handle.Handle) handle.Handle {
	return inst.unary("expr_str_to_upper", h, (*frame.Expr).StrToUpper)
}

func (inst *Instance) ExprStrToLower(h handle.Handle) handle.Handle {
	return inst.unary("expr_str_to_lower", h, (*frame.Expr).StrToLower)
}

func (inst *Instance) ExprStrLenBytes(h handle.Handle) handle.Handle {
	return inst.unary("expr_str_len_bytes", h, (*frame.Expr).StrLenBytes)
}

func (inst *Instance) ExprDtYear(h handle.Handle) handle.Handle {
	return inst.unary("expr_dt_year", h, (*frame.Expr).DtYear)
}

func (inst *Instance) ExprDtMonth(h handle.Handle) handle.Handle {
	return inst.unary("expr_dt_month", h, (*frame.Expr).DtMonth)
}

func (inst *Instance) CloneExpr(h handle.Handle) handle.Handle {
	return cloneHandle[*frame.Expr](inst, "expr_clone", h, core.ExprKind)
}

func (inst *Instance) FreeExpr(h handle.Handle) {
	inst.free("expr_free", h, core.ExprKind)
}

// ExprString describes the expression tree.
func (inst *Instance) ExprString(h handle.Handle) string {
	return fault.Guard(inst.barrier, "expr_to_string", "", func() (string, error) {
		e, err := borrow[*frame.Expr](inst, h, core.ExprKind)
		if err != nil {
			return "", err
		}
		return e.String(), nil
	})
}

// ExprMap consumes h and passes its values through host. outType may be the
// null handle or a same_as_input type to keep the input type; it is borrowed.
//
// The instance owns host from the moment of the call: if the map expression
// cannot be built, host.Cleanup runs before ExprMap returns. Otherwise it runs
// once the last expression or plan referencing the callback is released.
func (inst *Instance) ExprMap(h handle.Handle, host udf.Host, outType handle.Handle) handle.Handle {
	binding := udf.Bind(host, inst.logger, inst.metrics)
	return inst.newExpr("expr_map", func() (e *frame.Expr, err error) {
		defer func() {
			if r := recover(); r != nil {
				binding.Release()
				panic(r)
			}
			if err != nil {
				binding.Release()
			}
		}()
		var dt *DataType
		if outType != 0 {
			if dt, err = borrow[*DataType](inst, outType, core.DataTypeKind); err != nil {
				return nil, err
			}
		}
		es, err := inst.takeExprs(h)
		if err != nil {
			return nil, err
		}
		if dt == nil {
			return es[0].Map(binding, nil), nil
		}
		return es[0].Map(binding, dt.Type), nil
	})
}
