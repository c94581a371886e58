package frame

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/nickyhof/FrameBridge/core"
	"github.com/nickyhof/FrameBridge/udf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doubling(cleanups *atomic.Int32, calls *atomic.Int32) *udf.Func {
	return &udf.Func{
		Fn: func(in arrow.Array) (arrow.Array, error) {
			calls.Add(1)
			a, ok := in.(*array.Int64)
			if !ok {
				return nil, errors.New("bad type")
			}
			b := array.NewInt64Builder(memory.DefaultAllocator)
			defer b.Release()
			for i := 0; i < a.Len(); i++ {
				b.Append(a.Value(i) * 2)
			}
			return b.NewArray(), nil
		},
		OnCleanup: func() { cleanups.Add(1) },
	}
}

func TestLazyChain(t *testing.T) {
	env := newTestEnv(t)
	df := numbers(t, env, 5, 3, 1, 4, 2, 6)
	defer df.Release()

	lf := df.Lazy().
		Filter(Col("a").Gt(Lit(int64(1)))).
		WithColumns(Col("a").Mul(Lit(int64(2))).Alias("b")).
		Sort([]*Expr{Col("b")}, []bool{true}).
		Limit(3).
		Select(Col("b"))

	plan := lf.Explain()
	assert.True(t, strings.HasPrefix(plan, "SELECT"))
	assert.Contains(t, plan, "FILTER")

	out, err := lf.Collect(env)
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, []any{int64(12), int64(10), int64(8)}, values(t, env, out, "b"))
}

func TestMapRunsPerBatchAndCleansUpOnce(t *testing.T) {
	env := newTestEnv(t)
	df := numbers(t, env, 1, 2, 3, 4, 5)
	defer df.Release()

	var cleanups, calls atomic.Int32
	b := udf.Bind(doubling(&cleanups, &calls), env.Logger, nil)

	out, err := df.Lazy().Select(Col("a").Map(b, nil).Alias("doubled")).Collect(env)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []any{int64(2), int64(4), int64(6), int64(8), int64(10)}, values(t, env, out, "doubled"))
	assert.Equal(t, int32(3), calls.Load(), "one call per batch")
	assert.Equal(t, int32(1), cleanups.Load())
}

func TestMapFailureReleasesPlan(t *testing.T) {
	env := newTestEnv(t)
	s, err := Strings(memory.DefaultAllocator, "s", []string{"x"}, nil)
	require.NoError(t, err)
	defer s.Release()
	df, err := New(env, []*Series{s})
	require.NoError(t, err)
	defer df.Release()

	var cleanups, calls atomic.Int32
	b := udf.Bind(doubling(&cleanups, &calls), env.Logger, nil)

	_, err = df.Lazy().Select(Col("s").Map(b, nil)).Collect(env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad type")

	var cbErr *udf.CallbackError
	assert.ErrorAs(t, err, &cbErr)
	assert.Equal(t, int32(1), cleanups.Load())
}

func TestUnexecutedMapCleansUpOnce(t *testing.T) {
	var cleanups, calls atomic.Int32
	b := udf.Bind(doubling(&cleanups, &calls), nil, nil)

	e := Col("a").Map(b, nil)
	clone := e.Clone()
	e.Release()
	assert.Equal(t, int32(0), cleanups.Load())
	clone.Release()
	assert.Equal(t, int32(1), cleanups.Load())
	assert.Equal(t, int32(0), calls.Load())
}

func TestLazyClone(t *testing.T) {
	env := newTestEnv(t)
	df := numbers(t, env, 1, 2, 3)
	defer df.Release()

	var cleanups, calls atomic.Int32
	b := udf.Bind(doubling(&cleanups, &calls), env.Logger, nil)
	lf := df.Lazy().WithColumns(Col("a").Map(b, nil).Alias("m"))
	cp := lf.Clone()

	first, err := lf.Collect(env)
	require.NoError(t, err)
	defer first.Release()
	assert.Equal(t, int32(0), cleanups.Load(), "clone still holds the callback")

	second, err := cp.Collect(env)
	require.NoError(t, err)
	defer second.Release()
	assert.Equal(t, int32(1), cleanups.Load())
	assert.Equal(t, values(t, env, first, "m"), values(t, env, second, "m"))
}

type fakeRelational struct {
	groupBys, joins int
}

func (f *fakeRelational) GroupBy(env *Env, df *DataFrame, keys, aggs []*Expr) (*DataFrame, error) {
	f.groupBys++
	return df.Head(1), nil
}

func (f *fakeRelational) Join(env *Env, left, right *DataFrame, leftOn, rightOn []*Expr, how core.JoinType) (*DataFrame, error) {
	f.joins++
	return left.Clone(), nil
}

func TestRelationalDelegation(t *testing.T) {
	env := newTestEnv(t)
	df := numbers(t, env, 1, 2)
	defer df.Release()

	_, err := GroupByAgg(env, df, []*Expr{Col("a")}, []*Expr{Col("a").Count()})
	assert.ErrorIs(t, err, ErrUnsupported)

	rel := &fakeRelational{}
	env.Relational = rel

	g, err := GroupByAgg(env, df, []*Expr{Col("a")}, []*Expr{Col("a").Count()})
	require.NoError(t, err)
	g.Release()
	assert.Equal(t, 1, rel.groupBys)

	j, err := Join(env, df, df, []*Expr{Col("a")}, []*Expr{Col("a")}, core.InnerJoin)
	require.NoError(t, err)
	j.Release()
	assert.Equal(t, 1, rel.joins)

	_, err = Join(env, df, df, []*Expr{Col("a")}, nil, core.LeftJoin)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = Join(env, df, df, nil, nil, core.JoinType(42))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestSQLRendering(t *testing.T) {
	cases := []struct {
		expr *Expr
		want string
	}{
		{Col("a").Gt(Lit(int64(1))), `("a" > 1)`},
		{Col("x").FillNull(Lit("n/a")), `COALESCE("x", 'n/a')`},
		{Col("a").IsBetween(Lit(int32(1)), Lit(int32(3))), `("a" BETWEEN 1 AND 3)`},
		{Col("a").Sum().Alias("total"), `SUM("a")`},
		{Col("a").Len(), `COUNT(*)`},
		{Col(`we"ird`).IsNull(), `("we""ird" IS NULL)`},
		{Col("a").Cast(arrow.PrimitiveTypes.Int16), `CAST("a" AS SMALLINT)`},
		{Col("s").StrContains("it's"), `regexp_matches("s", 'it''s')`},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			got, err := tc.expr.SQL()
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	b := udf.Bind(&udf.Func{}, nil, nil)
	e := Col("a").Map(b, nil)
	defer e.Release()
	_, err := e.SQL()
	assert.ErrorIs(t, err, ErrUnsupported)
}
