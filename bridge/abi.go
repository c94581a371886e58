package bridge

import (
	"errors"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/cdata"
)

// ErrReleased is returned for a struct whose release callback is null, which
// covers zero-initialized structs the producer never filled.
var ErrReleased = errors.New("empty or released Arrow C Data Interface struct")

// abiSchema and abiArray mirror struct ArrowSchema and struct ArrowArray as
// laid out by the C Data Interface ABI.
type abiSchema struct {
	format      *byte
	name        *byte
	metadata    *byte
	flags       int64
	nChildren   int64
	children    unsafe.Pointer
	dictionary  unsafe.Pointer
	release     unsafe.Pointer
	privateData unsafe.Pointer
}

type abiArray struct {
	length      int64
	nullCount   int64
	offset      int64
	nBuffers    int64
	nChildren   int64
	buffers     unsafe.Pointer
	children    unsafe.Pointer
	dictionary  unsafe.Pointer
	release     unsafe.Pointer
	privateData unsafe.Pointer
}

// checkFilled reports ErrReleased unless both structs are live and the
// schema has a format string.
func checkFilled(arr *cdata.CArrowArray, schema *cdata.CArrowSchema) error {
	s := (*abiSchema)(unsafe.Pointer(schema))
	a := (*abiArray)(unsafe.Pointer(arr))
	if s.release == nil || s.format == nil || a.release == nil {
		return ErrReleased
	}
	return nil
}
