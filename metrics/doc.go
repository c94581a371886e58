// Package metrics exposes Prometheus collectors for the boundary layer:
// live handles per kind, barrier failures per class, host callback
// invocations and cleanups, and plan execution time.
package metrics
