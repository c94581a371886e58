// Package FrameBridge exposes an Arrow-based columnar engine through a flat,
// handle-based surface meant to be called across a C ABI.
//
// Every engine object (series, frame, expression, plan, data type, selector,
// SQL context) lives behind an opaque handle. Calls never panic and never
// return Go errors: a failed call records a message for the calling OS thread
// and returns a sentinel (a null handle, false, zero or ""). LastError reads
// and clears that message.
//
// # Quick Start
//
// Build a frame, filter it and read a value back:
//
//	inst := FrameBridge.Open(nil)
//	defer inst.Close()
//
//	runtime.LockOSThread()
//	defer runtime.UnlockOSThread()
//
//	ids := inst.NewSeriesInt64("id", []int64{1, 2, 3}, nil)
//	df := inst.NewDataFrame([]handle.Handle{ids})
//	inst.FreeSeries(ids)
//
//	pred := inst.ExprBinary(frame.OpGt, inst.ExprCol("id"), inst.ExprLitInt64(1))
//	out := inst.Filter(df, pred)
//	if out == 0 {
//		msg, _ := inst.LastError()
//		log.Fatal(msg)
//	}
//	v, ok := inst.GetInt64(out, "id", 0) // 2, true
//
// # Ownership
//
// Methods either borrow a handle (it stays valid) or consume it (it is dead
// after the call, whether the call succeeds or fails). Expression
// constructors, plan builders, Collect, RenameSeries, Concat and SQLRegister
// consume; everything else borrows. Each handle produced by a call must be
// released with the matching Free method.
//
// # Host callbacks
//
// ExprMap attaches a udf.Host to an expression. The host function runs once
// per batch, possibly from several goroutines at once. Its cleanup runs
// exactly once, when the last expression or plan that references it is
// released, including when it was never executed.
//
// # C ABI
//
// The bindings directory builds this package as a shared library
// (go build -buildmode=c-shared) exporting fb_* functions.
package FrameBridge
