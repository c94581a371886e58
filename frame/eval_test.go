package frame

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	env := newTestEnv(t)
	df := numbers(t, env, 1, 2, 3, 4, 5, 6)
	defer df.Release()

	out, err := Filter(env, df, Col("a").Gt(Lit(int64(2))).And(Col("a").NotEq(Lit(int64(5)))))
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, []any{int64(3), int64(4), int64(6)}, values(t, env, out, "a"))
	assert.Equal(t, 6, df.Height(), "input is untouched")
}

func TestFilterNullIsFalse(t *testing.T) {
	env := newTestEnv(t)
	df := sampleFrame(t, env)
	defer df.Release()

	out, err := Filter(env, df, Col("ints").GtEq(Lit(int64(1))))
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, []any{"a", nil}, values(t, env, out, "text"))
}

func TestFilterRejectsNonBoolean(t *testing.T) {
	env := newTestEnv(t)
	df := numbers(t, env, 1, 2)
	defer df.Release()

	_, err := Filter(env, df, Col("a"))
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestSelectAggregates(t *testing.T) {
	env := newTestEnv(t)
	df := numbers(t, env, 1, 2, 3, 4, 5, 6)
	defer df.Release()

	out, err := Select(env, df,
		Col("a").Sum().Alias("sum"),
		Col("a").Mean().Alias("mean"),
		Col("a").Min().Alias("min"),
		Col("a").Max().Alias("max"),
		Col("a").Count().Alias("count"),
		Col("a").First().Alias("first"),
		Col("a").Last().Alias("last"),
	)
	require.NoError(t, err)
	defer out.Release()

	require.Equal(t, 1, out.Height())
	assert.Equal(t, []any{int64(21)}, values(t, env, out, "sum"))
	assert.Equal(t, []any{3.5}, values(t, env, out, "mean"))
	assert.Equal(t, []any{int64(1)}, values(t, env, out, "min"))
	assert.Equal(t, []any{int64(6)}, values(t, env, out, "max"))
	assert.Equal(t, []any{int64(6)}, values(t, env, out, "count"))
	assert.Equal(t, []any{int64(1)}, values(t, env, out, "first"))
	assert.Equal(t, []any{int64(6)}, values(t, env, out, "last"))
}

func TestSelectBroadcastsAggregate(t *testing.T) {
	env := newTestEnv(t)
	df := numbers(t, env, 1, 2, 3)
	defer df.Release()

	out, err := Select(env, df, Col("a"), Col("a").Sum().Alias("total"))
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, []any{int64(6), int64(6), int64(6)}, values(t, env, out, "total"))
}

func TestSelectRejectsDuplicateNames(t *testing.T) {
	env := newTestEnv(t)
	df := numbers(t, env, 1)
	defer df.Release()

	_, err := Select(env, df, Col("a"), Col("a").Add(Lit(int64(1))))
	assert.ErrorIs(t, err, ErrDuplicateColumn)
}

func TestSelectMissingColumn(t *testing.T) {
	env := newTestEnv(t)
	df := numbers(t, env, 1)
	defer df.Release()

	_, err := Select(env, df, Col("nope"))
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestSelectors(t *testing.T) {
	env := newTestEnv(t)
	df := sampleFrame(t, env)
	defer df.Release()

	out, err := Select(env, df, All().Exclude("ints").IntoExpr())
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, []string{"text"}, out.ColumnNames())

	out2, err := Select(env, df, Cols("text", "ints").IntoExpr())
	require.NoError(t, err)
	defer out2.Release()
	assert.Equal(t, []string{"text", "ints"}, out2.ColumnNames())

	_, err = Select(env, df, Cols("missing").IntoExpr())
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestWithColumns(t *testing.T) {
	env := newTestEnv(t)
	df := numbers(t, env, 1, 2, 3)
	defer df.Release()

	out, err := WithColumns(env, df,
		Col("a").Mul(Lit(int64(10))).Alias("b"),
		Col("a").Add(Lit(int64(1))),
		Lit("x").Alias("tag"),
	)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []string{"a", "b", "tag"}, out.ColumnNames())
	assert.Equal(t, []any{int64(2), int64(3), int64(4)}, values(t, env, out, "a"))
	assert.Equal(t, []any{int64(10), int64(20), int64(30)}, values(t, env, out, "b"))
	assert.Equal(t, []any{"x", "x", "x"}, values(t, env, out, "tag"))
}

func TestArithmetic(t *testing.T) {
	env := newTestEnv(t)
	df := numbers(t, env, 1, 2, 3)
	defer df.Release()

	out, err := Select(env, df,
		Col("a").Div(Lit(int64(2))).Alias("div"),
		Col("a").Sub(Lit(int64(1))).Alias("sub"),
		Col("a").Cast(arrow.PrimitiveTypes.Float64).Alias("f"),
	)
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, []any{0.5, 1.0, 1.5}, values(t, env, out, "div"))
	assert.Equal(t, []any{int64(0), int64(1), int64(2)}, values(t, env, out, "sub"))
	assert.Equal(t, []any{1.0, 2.0, 3.0}, values(t, env, out, "f"))
}

func TestNullHandling(t *testing.T) {
	env := newTestEnv(t)
	df := sampleFrame(t, env)
	defer df.Release()

	out, err := Select(env, df,
		Col("ints").FillNull(Lit(int64(0))).Alias("filled"),
		Col("ints").IsNull().Alias("is_null"),
		Col("text").IsNotNull().Alias("has_text"),
		Col("ints").IsNull().Not().Alias("not_null"),
		Col("ints").Eq(LitNull()).Alias("eq_null"),
	)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []any{int64(1), int64(2), int64(0)}, values(t, env, out, "filled"))
	assert.Equal(t, []any{false, false, true}, values(t, env, out, "is_null"))
	assert.Equal(t, []any{true, false, true}, values(t, env, out, "has_text"))
	assert.Equal(t, []any{true, true, false}, values(t, env, out, "not_null"))
	assert.Equal(t, []any{nil, nil, nil}, values(t, env, out, "eq_null"))
}

func TestIsBetween(t *testing.T) {
	env := newTestEnv(t)
	df := numbers(t, env, 1, 2, 3, 4, 5)
	defer df.Release()

	out, err := Filter(env, df, Col("a").IsBetween(Lit(int64(2)), Lit(int64(4))))
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, []any{int64(2), int64(3), int64(4)}, values(t, env, out, "a"))
}

func TestStringOps(t *testing.T) {
	env := newTestEnv(t)
	s, err := Strings(memory.DefaultAllocator, "s", []string{"apple", "Banana", ""}, []bool{true, true, false})
	require.NoError(t, err)
	defer s.Release()
	df, err := New(env, []*Series{s})
	require.NoError(t, err)
	defer df.Release()

	out, err := Select(env, df,
		Col("s").StrToUpper().Alias("upper"),
		Col("s").StrToLower().Alias("lower"),
		Col("s").StrLenBytes().Alias("len"),
		Col("s").StrContains("^[aA]").Alias("starts_a"),
	)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []any{"APPLE", "BANANA", nil}, values(t, env, out, "upper"))
	assert.Equal(t, []any{"apple", "banana", nil}, values(t, env, out, "lower"))
	assert.Equal(t, []any{uint32(5), uint32(6), nil}, values(t, env, out, "len"))
	assert.Equal(t, []any{true, false, nil}, values(t, env, out, "starts_a"))

	_, err = Select(env, df, Col("s").StrContains("("))
	assert.Error(t, err)
}

func TestTemporalOps(t *testing.T) {
	env := newTestEnv(t)
	df := numbers(t, env, 1, 2)
	defer df.Release()

	ts := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	withTS, err := WithColumns(env, df, LitTime(ts).Alias("ts"))
	require.NoError(t, err)
	defer withTS.Release()

	out, err := Select(env, withTS, Col("ts").DtYear().Alias("year"), Col("ts").DtMonth().Alias("month"))
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, []any{int32(2024), int32(2024)}, values(t, env, out, "year"))
	assert.Equal(t, []any{int8(3), int8(3)}, values(t, env, out, "month"))
}

func TestSort(t *testing.T) {
	env := newTestEnv(t)
	df := sampleFrame(t, env)
	defer df.Release()

	asc, err := Sort(env, df, []*Expr{Col("text")}, nil)
	require.NoError(t, err)
	defer asc.Release()
	assert.Equal(t, []any{"a", "c", nil}, values(t, env, asc, "text"))
	assert.Equal(t, []any{int64(1), nil, int64(2)}, values(t, env, asc, "ints"))

	desc, err := Sort(env, df, []*Expr{Col("ints")}, []bool{true})
	require.NoError(t, err)
	defer desc.Release()
	assert.Equal(t, []any{int64(2), int64(1), nil}, values(t, env, desc, "ints"))

	_, err = Sort(env, df, []*Expr{Col("ints"), Col("text")}, []bool{true, false, true})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestAggregateEdgeCases(t *testing.T) {
	mem := memory.DefaultAllocator
	s, err := Int32s(mem, "x", []int32{0, 0}, []bool{false, false})
	require.NoError(t, err)
	defer s.Release()
	arr := s.Chunks()[0]

	sum, err := aggregate(AggSum, arr)
	require.NoError(t, err)
	assert.Equal(t, "0", sum.String())

	mean, err := aggregate(AggMean, arr)
	require.NoError(t, err)
	assert.False(t, mean.IsValid())

	mx, err := aggregate(AggMax, arr)
	require.NoError(t, err)
	assert.False(t, mx.IsValid())

	n, err := aggregate(AggLen, arr)
	require.NoError(t, err)
	assert.Equal(t, "2", n.String())

	b, err := Bools(mem, "b", []bool{true}, nil)
	require.NoError(t, err)
	defer b.Release()
	_, err = aggregate(AggMean, b.Chunks()[0])
	require.NoError(t, err)
}
