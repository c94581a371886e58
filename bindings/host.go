package main

/*
#include <stdlib.h>
#include <string.h>
#include "framebridge.h"

static inline int32_t fb_call_udf(fb_udf_fn fn, void* in, void* in_schema, void* out, void* out_schema, char* msg) {
	return fn((struct ArrowArray*)in, (struct ArrowSchema*)in_schema,
	          (struct ArrowArray*)out, (struct ArrowSchema*)out_schema, msg);
}

static inline void fb_call_cleanup(fb_cleanup_fn fn, void* token) {
	if (fn != NULL) {
		fn(token);
	}
}
*/
import "C"
import (
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/cdata"
	"github.com/nickyhof/FrameBridge/udf"
)

// cHost calls a host function pointer. token is opaque to us and only ever
// handed back to cleanup.
type cHost struct {
	fn      C.fb_udf_fn
	cleanup C.fb_cleanup_fn
	token   unsafe.Pointer
}

var _ udf.Host = (*cHost)(nil)

func (h *cHost) Call(in *cdata.CArrowArray, inSchema *cdata.CArrowSchema, out *cdata.CArrowArray, outSchema *cdata.CArrowSchema, msg []byte) int32 {
	buf := (*C.char)(C.calloc(C.size_t(len(msg)), 1))
	defer C.free(unsafe.Pointer(buf))

	status := C.fb_call_udf(h.fn,
		unsafe.Pointer(in), unsafe.Pointer(inSchema),
		unsafe.Pointer(out), unsafe.Pointer(outSchema),
		buf)
	if status != 0 {
		// keep the final byte as a terminator whatever the host wrote
		n := C.strnlen(buf, C.size_t(len(msg)-1))
		copy(msg, C.GoBytes(unsafe.Pointer(buf), C.int(n)))
	}
	return int32(status)
}

func (h *cHost) Cleanup() {
	C.fb_call_cleanup(h.cleanup, h.token)
}
