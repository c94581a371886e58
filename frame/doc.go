// Package frame is the columnar engine behind FrameBridge.
//
// A DataFrame is a list of Arrow record batches sharing one schema. Series,
// DataFrame and LazyFrame values are immutable; every transformation returns
// a new value and leaves its input untouched.
//
// # Expressions
//
// Expressions are trees built with Col, Lit and the methods on *Expr:
//
//	pred := frame.Col("age").Gt(frame.Lit(int64(30)))
//	out, err := frame.Filter(env, df, pred)
//
// Expressions that do not aggregate are evaluated batch by batch on up to
// Env.Workers goroutines. Expressions that aggregate see the whole frame.
// A literal or aggregate result is broadcast to the frame height, except in a
// select where every result is a single value, which yields one row.
//
// # Plans
//
// A LazyFrame records steps against a Source and runs them on Collect.
// Builder methods take ownership of the plan and of the expressions passed in.
// Collect consumes the plan on success and on failure, so host callbacks held
// by its expressions are released exactly when the plan is.
//
// Grouping and joins are delegated to the Relational backend in Env.
package frame
