package fault

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/nickyhof/FrameBridge/metrics"
)

// ErrContract marks caller contract violations: null or unknown handles,
// handles of the wrong kind, null pointers where a value is required.
var ErrContract = errors.New("contract violation")

// PanicError is an internal fault recovered by the barrier or by Catch.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return panicMessage(e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func panicMessage(v any) string {
	var msg string
	switch x := v.(type) {
	case error:
		msg = x.Error()
	case string:
		msg = x
	default:
		msg = fmt.Sprint(x)
	}
	if msg == "" {
		return "unknown internal panic"
	}
	return msg
}

// Catch runs fn and converts a panic into a *PanicError. Worker goroutines
// use it so that faults surface on the thread that made the boundary call.
func Catch(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// Class buckets an error for logging and metrics.
func Class(err error) string {
	var pe *PanicError
	switch {
	case errors.As(err, &pe):
		return metrics.ClassFault
	case errors.Is(err, ErrContract):
		return metrics.ClassContract
	default:
		return metrics.ClassDomain
	}
}

// Barrier wraps exported entry points. No error or panic escapes it: the
// message goes to the calling thread's Slot and the caller gets a sentinel.
type Barrier struct {
	slot    *Slot
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewBarrier(slot *Slot, logger *slog.Logger, m *metrics.Metrics) *Barrier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Barrier{slot: slot, logger: logger, metrics: m}
}

func (b *Barrier) Slot() *Slot {
	return b.slot
}

// Fail records err for the calling thread.
func (b *Barrier) Fail(op string, err error) {
	class := Class(err)
	b.metrics.Failure(class)

	var pe *PanicError
	if errors.As(err, &pe) {
		b.logger.Error("internal fault recovered", "op", op, "error", pe.Error(), "stack", string(pe.Stack))
	} else {
		b.logger.Debug("call failed", "op", op, "class", class, "error", err)
	}
	b.slot.Set(err.Error())
}

// Guard runs fn behind the barrier and returns sentinel on error or panic.
func Guard[T any](b *Barrier, op string, sentinel T, fn func() (T, error)) (result T) {
	defer func() {
		if r := recover(); r != nil {
			b.Fail(op, &PanicError{Value: r, Stack: debug.Stack()})
			result = sentinel
		}
	}()

	out, err := fn()
	if err != nil {
		b.Fail(op, err)
		return sentinel
	}
	return out
}

// GuardVoid is Guard for operations without a result.
func (b *Barrier) GuardVoid(op string, fn func() error) {
	Guard(b, op, struct{}{}, func() (struct{}, error) {
		return struct{}{}, fn()
	})
}
