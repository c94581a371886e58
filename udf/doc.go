// Package udf runs host-supplied column functions inside query execution.
//
// A Binding wraps a Host with a reference count. The expression that maps a
// column through the host function owns one reference; cloning the
// expression retains, freeing it or finishing the plan that consumed it
// releases. When the count reaches zero the host's Cleanup runs, exactly
// once, whether the function was invoked zero, one or many times.
//
// Each invocation exports the input column through the Arrow C Data
// Interface, hands the host empty output structs and a MessageSize-byte
// error buffer, and imports the result:
//
//	b := udf.Bind(host, logger, nil)
//	out, err := b.Apply(ctx, column, arrow.PrimitiveTypes.Int64)
//	b.Release() // runs host.Cleanup()
//
// A non-zero status becomes a *CallbackError carrying the host's message.
package udf
