// Package fileio reads and writes frames as CSV, Parquet and Arrow IPC.
//
// Paths may be local (optionally prefixed with file://), http(s):// for
// reading, or s3://bucket/key. Local paths go through a go-billy filesystem,
// the host filesystem by default. S3 access uses the AWS default credential
// chain unless static keys are configured; a custom endpoint switches the
// client to path-style addressing for S3-compatible services.
//
// Files are read fully into memory before decoding. Writes to S3 are buffered
// and uploaded when the writer is closed.
package fileio
