package handle

import (
	"fmt"
	"sync"

	"github.com/nickyhof/FrameBridge/core"
	"github.com/nickyhof/FrameBridge/fault"
	"github.com/nickyhof/FrameBridge/metrics"
)

// Handle is the opaque token handed to the host. Zero is the null handle.
type Handle uintptr

var (
	ErrNullHandle    = fmt.Errorf("%w: null handle", fault.ErrContract)
	ErrInvalidHandle = fmt.Errorf("%w: invalid or released handle", fault.ErrContract)
	ErrKindMismatch  = fmt.Errorf("%w: handle kind mismatch", fault.ErrContract)
	ErrDuplicate     = fmt.Errorf("%w: handle passed more than once", fault.ErrContract)
)

// Releaser is implemented by values that hold reference-counted resources.
type Releaser interface {
	Release()
}

type entry struct {
	kind  core.Kind
	value any
}

// Registry issues handles and tracks which are live. Handle values are never
// reused, so a released handle stays invalid for the life of the process.
type Registry struct {
	mu      sync.Mutex
	entries map[Handle]entry
	next    Handle
	metrics *metrics.Metrics
}

func NewRegistry(m *metrics.Metrics) *Registry {
	return &Registry{
		entries: make(map[Handle]entry),
		metrics: m,
	}
}

// New registers v and returns its handle. Ownership of v passes to the host.
func (r *Registry) New(kind core.Kind, v any) Handle {
	r.mu.Lock()
	r.next++
	h := r.next
	r.entries[h] = entry{kind: kind, value: v}
	r.mu.Unlock()

	r.metrics.HandleOpened(kind.String())
	return h
}

func (r *Registry) lookup(h Handle, kind core.Kind) (entry, error) {
	if h == 0 {
		return entry{}, fmt.Errorf("%w (expected %s)", ErrNullHandle, kind)
	}
	e, ok := r.entries[h]
	if !ok {
		return entry{}, fmt.Errorf("%w (%s %#x)", ErrInvalidHandle, kind, uintptr(h))
	}
	if e.kind != kind {
		return entry{}, fmt.Errorf("%w: expected %s, got %s", ErrKindMismatch, kind, e.kind)
	}
	return e, nil
}

// Kind reports the kind of a live handle.
func (r *Registry) Kind(h Handle) (core.Kind, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[h]
	return e.kind, ok
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Borrow returns the value behind h without affecting its validity.
func Borrow[T any](r *Registry, h Handle, kind core.Kind) (T, error) {
	var zero T
	r.mu.Lock()
	e, err := r.lookup(h, kind)
	r.mu.Unlock()
	if err != nil {
		return zero, err
	}
	v, ok := e.value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s handle holds %T", ErrKindMismatch, kind, e.value)
	}
	return v, nil
}

// Consume removes h from the registry and returns its value. The handle is
// dead afterwards whether or not the caller's operation succeeds.
func Consume[T any](r *Registry, h Handle, kind core.Kind) (T, error) {
	vals, err := r.ConsumeAll(Claim{Handle: h, Kind: kind})
	if err != nil {
		var zero T
		return zero, err
	}
	v, ok := vals[0].(T)
	if !ok {
		// registered under kind with an unexpected type; put nothing back
		var zero T
		return zero, fmt.Errorf("%w: %s handle holds %T", ErrKindMismatch, kind, vals[0])
	}
	return v, nil
}

// Claim names one handle a consuming operation takes ownership of.
type Claim struct {
	Handle Handle
	Kind   core.Kind
}

// ConsumeAll validates every claim first and then removes all of them, so a
// contract violation leaves every handle untouched.
func (r *Registry) ConsumeAll(claims ...Claim) ([]any, error) {
	r.mu.Lock()
	seen := make(map[Handle]struct{}, len(claims))
	for _, c := range claims {
		if _, err := r.lookup(c.Handle, c.Kind); err != nil {
			r.mu.Unlock()
			return nil, err
		}
		if _, dup := seen[c.Handle]; dup {
			r.mu.Unlock()
			return nil, fmt.Errorf("%w (%s %#x)", ErrDuplicate, c.Kind, uintptr(c.Handle))
		}
		seen[c.Handle] = struct{}{}
	}
	vals := make([]any, len(claims))
	for i, c := range claims {
		vals[i] = r.entries[c.Handle].value
		delete(r.entries, c.Handle)
	}
	r.mu.Unlock()

	for _, c := range claims {
		r.metrics.HandleClosed(c.Kind.String())
	}
	return vals, nil
}

// Free releases the value behind h. Freeing the null handle is a no-op.
func (r *Registry) Free(h Handle, kind core.Kind) error {
	if h == 0 {
		return nil
	}
	vals, err := r.ConsumeAll(Claim{Handle: h, Kind: kind})
	if err != nil {
		return err
	}
	if rel, ok := vals[0].(Releaser); ok {
		rel.Release()
	}
	return nil
}

// Close releases every live handle. Used when an instance shuts down.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[Handle]entry)
	r.mu.Unlock()

	for _, e := range entries {
		r.metrics.HandleClosed(e.kind.String())
		if rel, ok := e.value.(Releaser); ok {
			rel.Release()
		}
	}
}
