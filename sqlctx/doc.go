// Package sqlctx runs SQL over frames with an embedded DuckDB database.
//
// Frames are copied into DuckDB tables with the appender. Built with the
// duckdb_arrow tag, query results come back through DuckDB's Arrow interface
// as record batches. Without it they are scanned row by row and typed from
// the DuckDB column type: HUGEINT values are narrowed to int64 only when they
// fit, and DECIMAL(p,s) keeps its digits as decimal128.
//
// Engine implements frame.Relational: grouping and joins load their inputs
// into uniquely named scratch tables and drop them afterwards. Context is the
// user-facing SQL session, with tables registered by name.
package sqlctx
