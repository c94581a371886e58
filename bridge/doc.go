// Package bridge moves columnar data across the host boundary using the Arrow
// C Data Interface.
//
// A table crosses as one struct array whose children are its columns:
//
//	var arr cdata.CArrowArray
//	var schema cdata.CArrowSchema
//	bridge.ExportRecord(rec, &arr, &schema)
//	cols, err := bridge.Import(&arr, &schema, "")
//	defer bridge.ReleaseColumns(cols)
//
// Export hands ownership of the buffers to the receiver, who must call the
// release callback exactly once. Import takes ownership of what it is given
// and validates the pointers before touching them.
//
// The scalar helpers (Int64At, Float64At, BoolAt, StringAt) extract single
// values with exact-fit semantics: a value that cannot be represented in the
// requested type is reported as absent rather than truncated.
package bridge
