package frame

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nickyhof/FrameBridge/core"
)

// Source produces the input frame of a plan.
type Source interface {
	Load(env *Env) (*DataFrame, error)
	Describe() string
	Clone() Source
	Release()
}

type frameSource struct {
	df *DataFrame
}

func (s *frameSource) Load(*Env) (*DataFrame, error) { return s.df.Clone(), nil }
func (s *frameSource) Clone() Source                 { return &frameSource{df: s.df.Clone()} }
func (s *frameSource) Release()                      { s.df.Release() }

func (s *frameSource) Describe() string {
	return fmt.Sprintf("DF %v; %d rows", s.df.ColumnNames(), s.df.Height())
}

type stepKind int

const (
	stepFilter stepKind = iota
	stepSelect
	stepWithColumns
	stepSort
	stepLimit
	stepGroupBy
)

type step struct {
	kind       stepKind
	exprs      []*Expr
	keys       []*Expr
	descending []bool
	limit      int
}

func (s step) clone() step {
	c := s
	c.exprs = cloneExprs(s.exprs)
	c.keys = cloneExprs(s.keys)
	c.descending = slices.Clone(s.descending)
	return c
}

func (s step) release() {
	releaseExprs(s.exprs)
	releaseExprs(s.keys)
}

func cloneExprs(exprs []*Expr) []*Expr {
	if exprs == nil {
		return nil
	}
	out := make([]*Expr, len(exprs))
	for i, e := range exprs {
		out[i] = e.Clone()
	}
	return out
}

func releaseExprs(exprs []*Expr) {
	for _, e := range exprs {
		e.Release()
	}
}

// LazyFrame is a deferred plan: a source and the steps to apply to it. The
// builder methods take ownership of the receiver and the expressions passed
// in and return the extended plan.
type LazyFrame struct {
	source Source
	steps  []step
}

func NewLazy(src Source) *LazyFrame {
	return &LazyFrame{source: src}
}

func (lf *LazyFrame) then(s step) *LazyFrame {
	return &LazyFrame{source: lf.source, steps: append(slices.Clip(lf.steps), s)}
}

func (lf *LazyFrame) Filter(predicate *Expr) *LazyFrame {
	return lf.then(step{kind: stepFilter, exprs: []*Expr{predicate}})
}

func (lf *LazyFrame) Select(exprs ...*Expr) *LazyFrame {
	return lf.then(step{kind: stepSelect, exprs: exprs})
}

func (lf *LazyFrame) WithColumns(exprs ...*Expr) *LazyFrame {
	return lf.then(step{kind: stepWithColumns, exprs: exprs})
}

// Sort orders rows by the keys. descending holds one flag per key, or one
// flag for all keys.
func (lf *LazyFrame) Sort(by []*Expr, descending []bool) *LazyFrame {
	return lf.then(step{kind: stepSort, keys: by, descending: slices.Clone(descending)})
}

func (lf *LazyFrame) Limit(n int) *LazyFrame {
	return lf.then(step{kind: stepLimit, limit: max(n, 0)})
}

// GroupByAgg groups rows by keys and computes aggs per group.
func (lf *LazyFrame) GroupByAgg(keys, aggs []*Expr) *LazyFrame {
	return lf.then(step{kind: stepGroupBy, keys: keys, exprs: aggs})
}

func (lf *LazyFrame) Clone() *LazyFrame {
	steps := make([]step, len(lf.steps))
	for i, s := range lf.steps {
		steps[i] = s.clone()
	}
	return &LazyFrame{source: lf.source.Clone(), steps: steps}
}

// Release drops the plan's source and expressions, and with them its
// references to host callbacks.
func (lf *LazyFrame) Release() {
	if lf.source != nil {
		lf.source.Release()
		lf.source = nil
	}
	for _, s := range lf.steps {
		s.release()
	}
	lf.steps = nil
}

// Explain describes the plan, last step first.
func (lf *LazyFrame) Explain() string {
	var lines []string
	for i := len(lf.steps) - 1; i >= 0; i-- {
		s := lf.steps[i]
		switch s.kind {
		case stepFilter:
			lines = append(lines, "FILTER "+s.exprs[0].String())
		case stepSelect:
			lines = append(lines, "SELECT "+joinExprs(s.exprs))
		case stepWithColumns:
			lines = append(lines, "WITH_COLUMNS "+joinExprs(s.exprs))
		case stepSort:
			lines = append(lines, fmt.Sprintf("SORT BY %s %v", joinExprs(s.keys), s.descending))
		case stepLimit:
			lines = append(lines, fmt.Sprintf("SLICE %d", s.limit))
		case stepGroupBy:
			lines = append(lines, fmt.Sprintf("AGGREGATE %s BY %s", joinExprs(s.exprs), joinExprs(s.keys)))
		}
	}
	lines = append(lines, lf.source.Describe())
	for i := range lines {
		lines[i] = strings.Repeat("  ", i) + lines[i]
	}
	return strings.Join(lines, "\n")
}

func joinExprs(exprs []*Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Collect runs the plan. It consumes lf: the plan is released whether or not
// execution succeeds.
func (lf *LazyFrame) Collect(env *Env) (*DataFrame, error) {
	defer lf.Release()
	start := time.Now()
	env.Logger.Debug("collect started", "steps", len(lf.steps), "source", lf.source.Describe())

	df, err := lf.source.Load(env)
	if err != nil {
		return nil, err
	}
	for _, s := range lf.steps {
		next, err := s.apply(env, df)
		df.Release()
		if err != nil {
			return nil, err
		}
		df = next
	}

	elapsed := time.Since(start)
	env.Metrics.ObserveCollect(elapsed.Seconds())
	env.Logger.Debug("collect finished", "height", df.Height(), "width", df.Width(), "elapsed", elapsed)
	return df, nil
}

func (s step) apply(env *Env, df *DataFrame) (*DataFrame, error) {
	switch s.kind {
	case stepFilter:
		return filterFrame(env, df, s.exprs[0])
	case stepSelect:
		return project(env, df, s.exprs, false)
	case stepWithColumns:
		return project(env, df, s.exprs, true)
	case stepSort:
		return sortFrame(env, df, s.keys, s.descending)
	case stepLimit:
		return df.Head(s.limit), nil
	case stepGroupBy:
		if env.Relational == nil {
			return nil, fmt.Errorf("%w: group_by needs a relational backend", ErrUnsupported)
		}
		return env.Relational.GroupBy(env, df, s.keys, s.exprs)
	}
	return nil, fmt.Errorf("%w: plan step %d", ErrUnsupported, s.kind)
}

// The eager operations below leave df untouched and consume the expressions.

func Filter(env *Env, df *DataFrame, predicate *Expr) (*DataFrame, error) {
	return df.Lazy().Filter(predicate).Collect(env)
}

func Select(env *Env, df *DataFrame, exprs ...*Expr) (*DataFrame, error) {
	return df.Lazy().Select(exprs...).Collect(env)
}

func WithColumns(env *Env, df *DataFrame, exprs ...*Expr) (*DataFrame, error) {
	return df.Lazy().WithColumns(exprs...).Collect(env)
}

func Sort(env *Env, df *DataFrame, by []*Expr, descending []bool) (*DataFrame, error) {
	return df.Lazy().Sort(by, descending).Collect(env)
}

func GroupByAgg(env *Env, df *DataFrame, keys, aggs []*Expr) (*DataFrame, error) {
	return df.Lazy().GroupByAgg(keys, aggs).Collect(env)
}

// Join combines left and right on equal key values. Both frames are left
// untouched; the key expressions are consumed.
func Join(env *Env, left, right *DataFrame, leftOn, rightOn []*Expr, how core.JoinType) (*DataFrame, error) {
	defer releaseExprs(leftOn)
	defer releaseExprs(rightOn)
	if !how.Valid() {
		return nil, fmt.Errorf("%w: join type %d", ErrUnsupported, how)
	}
	if how != core.CrossJoin && (len(leftOn) == 0 || len(leftOn) != len(rightOn)) {
		return nil, fmt.Errorf("%w: %d left keys and %d right keys", ErrShapeMismatch, len(leftOn), len(rightOn))
	}
	if env.Relational == nil {
		return nil, fmt.Errorf("%w: join needs a relational backend", ErrUnsupported)
	}
	return env.Relational.Join(env, left, right, leftOn, rightOn, how)
}
