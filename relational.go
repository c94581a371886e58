package FrameBridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nickyhof/FrameBridge/core"
	"github.com/nickyhof/FrameBridge/frame"
	"github.com/nickyhof/FrameBridge/sqlctx"
)

var errEngineClosed = errors.New("relational engine is closed")

// relational opens the DuckDB engine the first time a group-by or join
// needs it. A failed start is reported by every later call.
type relational struct {
	dsn    string
	logger *slog.Logger

	once   sync.Once
	mu     sync.Mutex
	engine *sqlctx.Engine
	err    error
}

func (r *relational) get() (*sqlctx.Engine, error) {
	r.once.Do(func() {
		engine, err := sqlctx.NewEngine(context.Background(), r.dsn, r.logger)
		r.mu.Lock()
		defer r.mu.Unlock()
		if err != nil {
			r.err = fmt.Errorf("failed to start relational engine: %w", err)
			return
		}
		r.engine = engine
	})
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine, r.err
}

func (r *relational) GroupBy(env *frame.Env, df *frame.DataFrame, keys, aggs []*frame.Expr) (*frame.DataFrame, error) {
	e, err := r.get()
	if err != nil {
		return nil, err
	}
	return e.GroupBy(env, df, keys, aggs)
}

func (r *relational) Join(env *frame.Env, left, right *frame.DataFrame, leftOn, rightOn []*frame.Expr, how core.JoinType) (*frame.DataFrame, error) {
	e, err := r.get()
	if err != nil {
		return nil, err
	}
	return e.Join(env, left, right, leftOn, rightOn, how)
}

// Close shuts the engine down if it was started.
func (r *relational) Close() error {
	r.once.Do(func() {})
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = errEngineClosed
	if r.engine == nil {
		return nil
	}
	err := r.engine.Close()
	r.engine = nil
	return err
}
