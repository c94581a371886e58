package udf

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/cdata"
	"github.com/nickyhof/FrameBridge/bridge"
)

// Func adapts a Go function to Host. The function sees imported Arrow
// arrays instead of C structs; returning an error reports a failure status
// with the error text as the message.
type Func struct {
	Fn        func(in arrow.Array) (arrow.Array, error)
	OnCleanup func()
}

func (f *Func) Call(in *cdata.CArrowArray, inSchema *cdata.CArrowSchema, out *cdata.CArrowArray, outSchema *cdata.CArrowSchema, msg []byte) int32 {
	_, arr, err := bridge.ImportArray(in, inSchema)
	if err != nil {
		copy(msg[:len(msg)-1], err.Error())
		return 1
	}
	defer arr.Release()

	res, err := f.Fn(arr)
	if err != nil {
		copy(msg[:len(msg)-1], err.Error())
		return 1
	}
	defer res.Release()

	if err := bridge.ExportColumn(res, out, outSchema); err != nil {
		copy(msg[:len(msg)-1], err.Error())
		return 1
	}
	return 0
}

func (f *Func) Cleanup() {
	if f.OnCleanup != nil {
		f.OnCleanup()
	}
}
