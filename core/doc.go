// Package core provides the shared enumerations used throughout FrameBridge.
//
// The package defines the handle kinds, the numeric type codes hosts use to
// describe column types, and the join and concatenation strategies.
//
// # Handle Kinds
//
// Every opaque handle is tagged with a Kind so that a handle of the wrong
// kind is reported as a caller error instead of being misinterpreted:
//   - DataFrameKind: an immutable table
//   - SeriesKind: a single named column
//   - ExprKind: an expression tree
//   - LazyFrameKind: an unexecuted plan
//   - ArrowArrayKind: a bare Arrow array awaiting export
//   - DataTypeKind: a type descriptor
//   - SelectorKind: a column selector
//   - SQLContextKind: a SQL context with registered tables
//
// # Type Codes
//
// Hosts pass type codes as plain integers:
//
//	dt, err := core.Int64Type.ArrowType()
//	// dt == arrow.PrimitiveTypes.Int64
//
// SameAsInput (0) maps to a nil type and means "keep the input type", which is
// how callers leave the output type of a host callback unspecified.
//
// Decimals carry precision and scale and are built with DecimalType:
//
//	dt, err := core.DecimalType(18, 3)
package core
