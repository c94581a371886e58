package frame

import (
	"context"
	"errors"
	"log/slog"
	"runtime"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/nickyhof/FrameBridge/core"
	"github.com/nickyhof/FrameBridge/fault"
	"github.com/nickyhof/FrameBridge/metrics"
	"golang.org/x/sync/errgroup"
)

var (
	ErrColumnNotFound  = errors.New("column not found")
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrSchemaMismatch  = errors.New("schema mismatch")
	ErrUnsupported     = errors.New("unsupported operation")
)

// DefaultChunkSize is the number of rows per batch when a frame is built
// from whole columns.
const DefaultChunkSize = 65536

// Relational runs the operations the engine delegates to a SQL backend.
type Relational interface {
	GroupBy(env *Env, df *DataFrame, keys, aggs []*Expr) (*DataFrame, error)
	Join(env *Env, left, right *DataFrame, leftOn, rightOn []*Expr, how core.JoinType) (*DataFrame, error)
}

// Env carries the resources shared by every engine operation.
type Env struct {
	Mem        memory.Allocator
	Workers    int
	ChunkSize  int
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Relational Relational
}

func NewEnv() *Env {
	return &Env{
		Mem:       memory.DefaultAllocator,
		Workers:   runtime.GOMAXPROCS(0),
		ChunkSize: DefaultChunkSize,
		Logger:    slog.New(slog.DiscardHandler),
	}
}

func (env *Env) context() context.Context {
	return compute.WithAllocator(context.Background(), env.Mem)
}

func (env *Env) chunkSize() int {
	if env.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return env.ChunkSize
}

// mapBatches runs fn over every batch on up to env.Workers goroutines and
// returns the results in batch order. Panics inside fn come back as errors.
// After the first failure no further batch is started.
func (env *Env) mapBatches(batches []arrow.Record, fn func(rec arrow.Record) (arrow.Record, error)) ([]arrow.Record, error) {
	out := make([]arrow.Record, len(batches))
	if len(batches) == 1 {
		err := fault.Catch(func() error {
			rec, err := fn(batches[0])
			out[0] = rec
			return err
		})
		if err != nil {
			releaseRecords(out)
			return nil, err
		}
		return out, nil
	}

	// the first failure cancels ctx; batches not yet started are skipped
	g, ctx := errgroup.WithContext(context.Background())
	if env.Workers > 0 {
		g.SetLimit(env.Workers)
	}
	for i, batch := range batches {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fault.Catch(func() error {
				rec, err := fn(batch)
				out[i] = rec
				return err
			})
		})
	}
	if err := g.Wait(); err != nil {
		releaseRecords(out)
		return nil, err
	}
	return out, nil
}

func releaseRecords(recs []arrow.Record) {
	for _, r := range recs {
		if r != nil {
			r.Release()
		}
	}
}
