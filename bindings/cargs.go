package main

/*
#include <stdlib.h>
#include <string.h>
#include "framebridge.h"

int fb_cleanups = 0;
int fb_fail_fill = 0;

void fb_count_cleanup(void* token) {
	fb_cleanups++;
}

// Fails after filling fb_fail_fill bytes of msg with 'x' and no terminator.
int32_t fb_fill_udf(struct ArrowArray* in, struct ArrowSchema* in_schema,
                           struct ArrowArray* out, struct ArrowSchema* out_schema, char* msg) {
	memset(msg, 'x', fb_fail_fill);
	return 3;
}

// Fails with a message that carries bytes after its terminator.
int32_t fb_nul_udf(struct ArrowArray* in, struct ArrowSchema* in_schema,
                          struct ArrowArray* out, struct ArrowSchema* out_schema, char* msg) {
	memcpy(msg, "bad\0tail", 9);
	return 1;
}
*/
import "C"
import (
	"unsafe"
)

// cArgs allocates C memory for arguments passed to the exports from Go and
// frees all of it at once.
type cArgs struct {
	allocs []unsafe.Pointer
}

func (a *cArgs) track(p unsafe.Pointer) unsafe.Pointer {
	a.allocs = append(a.allocs, p)
	return p
}

func (a *cArgs) str(s string) *C.char {
	return (*C.char)(a.track(unsafe.Pointer(C.CString(s))))
}

// strs builds a char* array; entries may be nil.
func (a *cArgs) strs(vals ...*C.char) **C.char {
	p := a.track(C.calloc(C.size_t(len(vals)+1), C.size_t(unsafe.Sizeof((*C.char)(nil)))))
	copy(unsafe.Slice((**C.char)(p), len(vals)), vals)
	return (**C.char)(p)
}

func (a *cArgs) int64s(vals ...int64) *C.int64_t {
	p := a.track(C.calloc(C.size_t(len(vals)+1), C.size_t(unsafe.Sizeof(C.int64_t(0)))))
	out := unsafe.Slice((*C.int64_t)(p), len(vals))
	for i, v := range vals {
		out[i] = C.int64_t(v)
	}
	return (*C.int64_t)(p)
}

func (a *cArgs) handles(vals ...C.fb_handle) *C.fb_handle {
	p := a.track(C.calloc(C.size_t(len(vals)+1), C.size_t(unsafe.Sizeof(C.fb_handle(0)))))
	copy(unsafe.Slice((*C.fb_handle)(p), len(vals)), vals)
	return (*C.fb_handle)(p)
}

func (a *cArgs) free() {
	for _, p := range a.allocs {
		C.free(p)
	}
	a.allocs = nil
}

func sizeT(n uint64) C.size_t {
	return C.size_t(n)
}

// takeLastError reads and frees the calling thread's pending message.
func takeLastError() (string, bool) {
	p := fb_last_error()
	if p == nil {
		return "", false
	}
	defer fb_free_string(p)
	return C.GoString(p), true
}

func countingCleanup() C.fb_cleanup_fn {
	return C.fb_cleanup_fn(C.fb_count_cleanup)
}

func cleanupCount() int {
	return int(C.fb_cleanups)
}

// fillingUDF fails after writing n unterminated bytes into its message.
func fillingUDF(n int) C.fb_udf_fn {
	C.fb_fail_fill = C.int(n)
	return C.fb_udf_fn(C.fb_fill_udf)
}

func embeddedNulUDF() C.fb_udf_fn {
	return C.fb_udf_fn(C.fb_nul_udf)
}
