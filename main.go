package FrameBridge

import (
	"context"
	"log/slog"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/go-git/go-billy/v6"
	"github.com/nickyhof/FrameBridge/config"
	"github.com/nickyhof/FrameBridge/core"
	"github.com/nickyhof/FrameBridge/fault"
	"github.com/nickyhof/FrameBridge/fileio"
	"github.com/nickyhof/FrameBridge/frame"
	"github.com/nickyhof/FrameBridge/handle"
	"github.com/nickyhof/FrameBridge/metrics"
)

// Instance is the flat boundary surface. Every exported method runs behind
// the fault barrier: failures are recorded for the calling thread and the
// method returns its sentinel (a null handle, false, zero or "").
type Instance struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	handles *handle.Registry
	barrier *fault.Barrier
	env     *frame.Env
	engine  *relational
	files   *fileio.Store
}

// Option customizes Open.
type Option func(*options)

type options struct {
	logger *slog.Logger
	fs     billy.Filesystem
	mem    memory.Allocator
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithFilesystem serves local paths from fs instead of the host filesystem.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(o *options) { o.fs = fs }
}

// WithAllocator sets the Arrow allocator used by the engine.
func WithAllocator(mem memory.Allocator) Option {
	return func(o *options) { o.mem = mem }
}

// Open creates an instance. A nil cfg means config.Default(). The relational
// engine starts on first use.
func Open(cfg *config.Config, opts ...Option) *Instance {
	if cfg == nil {
		cfg = config.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = cfg.NewLogger(os.Stderr)
	}
	mem := o.mem
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	m := metrics.New()
	engine := &relational{dsn: cfg.DuckDB.DSN, logger: logger}

	inst := &Instance{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		handles: handle.NewRegistry(m),
		barrier: fault.NewBarrier(&fault.Slot{}, logger, m),
		env: &frame.Env{
			Mem:        mem,
			Workers:    cfg.Workers,
			ChunkSize:  cfg.ChunkSize,
			Logger:     logger,
			Metrics:    m,
			Relational: engine,
		},
		engine: engine,
		files:  fileio.NewStore(cfg, o.fs, logger),
	}
	logger.Debug("instance opened", "workers", cfg.Workers, "chunk_size", cfg.ChunkSize)
	return inst
}

// Close releases every live handle and shuts down the relational engine.
func (inst *Instance) Close() error {
	inst.handles.Close()
	return inst.engine.Close()
}

// LastError returns and clears the message left by the last failed call on
// the calling OS thread. Go callers must hold runtime.LockOSThread between
// the failing call and LastError.
func (inst *Instance) LastError() (string, bool) {
	return inst.barrier.Slot().Take()
}

// Boundary runs fn behind the instance's barrier and returns sentinel if fn
// fails or panics. Callers that convert foreign arguments before reaching a
// method, such as the C bindings, run that conversion inside it.
func Boundary[T any](inst *Instance, op string, sentinel T, fn func() (T, error)) T {
	return fault.Guard(inst.barrier, op, sentinel, fn)
}

// LiveHandles returns the number of handles not yet freed or consumed.
func (inst *Instance) LiveHandles() int {
	return inst.handles.Len()
}

// HandleKind reports what a live handle refers to.
func (inst *Instance) HandleKind(h handle.Handle) core.Kind {
	kind, ok := inst.handles.Kind(h)
	if !ok {
		return core.InvalidKind
	}
	return kind
}

// MetricsText renders the instance's collectors in the Prometheus text format.
func (inst *Instance) MetricsText() string {
	return fault.Guard(inst.barrier, "metrics_text", "", inst.metrics.Text)
}

func (inst *Instance) Config() *config.Config {
	return inst.cfg
}

// Logger is the instance's structured logger.
func (inst *Instance) Logger() *slog.Logger {
	return inst.logger
}

func (inst *Instance) ctx() context.Context {
	return context.Background()
}

// borrow and consume are the typed registry accessors used by every method.

func borrow[T any](inst *Instance, h handle.Handle, kind core.Kind) (T, error) {
	return handle.Borrow[T](inst.handles, h, kind)
}

func consume[T any](inst *Instance, h handle.Handle, kind core.Kind) (T, error) {
	return handle.Consume[T](inst.handles, h, kind)
}

func (inst *Instance) put(kind core.Kind, v any) handle.Handle {
	return inst.handles.New(kind, v)
}

func (inst *Instance) free(op string, h handle.Handle, kind core.Kind) {
	inst.barrier.GuardVoid(op, func() error {
		return inst.handles.Free(h, kind)
	})
}

type cloner[T any] interface {
	Clone() T
}

// cloneHandle registers a shared copy of the value behind h.
func cloneHandle[T cloner[T]](inst *Instance, op string, h handle.Handle, kind core.Kind) handle.Handle {
	return fault.Guard(inst.barrier, op, 0, func() (handle.Handle, error) {
		v, err := borrow[T](inst, h, kind)
		if err != nil {
			return 0, err
		}
		return inst.put(kind, v.Clone()), nil
	})
}
