package udf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/cdata"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/nickyhof/FrameBridge/bridge"
	"github.com/nickyhof/FrameBridge/metrics"
)

// MessageSize is the size of the error buffer handed to the host callback.
const MessageSize = 1024

// Host is a function supplied by the host process.
//
// Call receives one input column and must fill out and outSchema with a
// result of the same length, returning 0. Any other status is a failure and
// msg (MessageSize bytes, NUL-terminated) may carry a description.
// Call may be invoked concurrently from several goroutines.
//
// Cleanup disposes of whatever the host attached to the function. It is run
// exactly once, when the last expression that references the function is
// released.
type Host interface {
	Call(in *cdata.CArrowArray, inSchema *cdata.CArrowSchema, out *cdata.CArrowArray, outSchema *cdata.CArrowSchema, msg []byte) int32
	Cleanup()
}

// Binding ties a Host to the expressions that use it.
type Binding struct {
	host    Host
	refs    atomic.Int64
	once    sync.Once
	calls   atomic.Int64
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Bind wraps host with a single reference owned by the caller.
func Bind(host Host, logger *slog.Logger, m *metrics.Metrics) *Binding {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	b := &Binding{host: host, logger: logger, metrics: m}
	b.refs.Store(1)
	return b
}

// Retain adds a reference.
func (b *Binding) Retain() {
	if b.refs.Add(1) <= 1 {
		b.refs.Add(-1)
		panic("udf: retain of a released binding")
	}
}

// Release drops a reference and runs the host cleanup when none remain.
func (b *Binding) Release() {
	n := b.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic("udf: binding released more times than retained")
	}
	b.once.Do(func() {
		b.logger.Debug("running host cleanup", "calls", b.calls.Load())
		b.metrics.UDFCleanup()
		b.host.Cleanup()
	})
}

// Refs returns the current reference count.
func (b *Binding) Refs() int64 {
	return b.refs.Load()
}

// Calls returns how many times the host function has been invoked.
func (b *Binding) Calls() int64 {
	return b.calls.Load()
}

// CallbackError is returned when the host reports a non-zero status.
type CallbackError struct {
	Status  int32
	Message string
}

func (e *CallbackError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("host callback failed with status %d", e.Status)
	}
	return "host callback failed: " + e.Message
}

// Apply runs the host function over one column and returns the result
// column. outType, when non-nil, is the declared result type; a result of a
// different type is cast to it.
func (b *Binding) Apply(ctx context.Context, in arrow.Array, outType arrow.DataType) (arrow.Array, error) {
	var (
		inArr     cdata.CArrowArray
		inSchema  cdata.CArrowSchema
		outArr    cdata.CArrowArray
		outSchema cdata.CArrowSchema
		msg       = make([]byte, MessageSize)
	)
	if err := bridge.ExportColumn(in, &inArr, &inSchema); err != nil {
		return nil, err
	}

	b.calls.Add(1)
	status := b.host.Call(&inArr, &inSchema, &outArr, &outSchema, msg)

	// the host may have moved the input; release whatever is left
	cdata.ReleaseCArrowArray(&inArr)
	cdata.ReleaseCArrowSchema(&inSchema)

	if status != 0 {
		cdata.ReleaseCArrowArray(&outArr)
		cdata.ReleaseCArrowSchema(&outSchema)
		b.metrics.UDFCall(false)
		return nil, &CallbackError{Status: status, Message: cString(msg)}
	}
	b.metrics.UDFCall(true)

	_, out, err := bridge.ImportArray(&outArr, &outSchema)
	if errors.Is(err, bridge.ErrReleased) {
		return nil, errors.New("host callback reported success but produced no array")
	}
	if err != nil {
		return nil, fmt.Errorf("host callback returned an invalid array: %w", err)
	}
	if out.Len() != in.Len() {
		n := out.Len()
		out.Release()
		return nil, fmt.Errorf("host callback returned %d rows for an input of %d", n, in.Len())
	}
	if outType != nil && !arrow.TypeEqual(outType, out.DataType()) {
		cast, err := compute.CastArray(ctx, out, compute.SafeCastOptions(outType))
		out.Release()
		if err != nil {
			return nil, fmt.Errorf("host callback result does not match declared type %s: %w", outType, err)
		}
		out = cast
	}
	return out, nil
}

func cString(buf []byte) string {
	for i, c := range buf {
		if c == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}
