package frame

import (
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/nickyhof/FrameBridge/core"
	"github.com/nickyhof/FrameBridge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnv(t *testing.T) *Env {
	t.Helper()
	env := NewEnv()
	env.ChunkSize = 2
	env.Workers = 4
	env.Logger = testutil.NewTestLogger(t)
	return env
}

// values reads a column back as Go values with nil for nulls.
func values(t *testing.T, env *Env, df *DataFrame, name string) []any {
	t.Helper()
	s, err := df.Column(name)
	require.NoError(t, err)
	defer s.Release()
	arr, err := s.Contiguous(env)
	require.NoError(t, err)
	defer arr.Release()

	out := make([]any, arr.Len())
	for i := range out {
		if arr.IsValid(i) {
			out[i] = arr.GetOneForMarshal(i)
		}
	}
	return out
}

func sampleFrame(t *testing.T, env *Env) *DataFrame {
	t.Helper()
	ints, err := Int64s(memory.DefaultAllocator, "ints", []int64{1, 2, 0}, []bool{true, true, false})
	require.NoError(t, err)
	defer ints.Release()
	text, err := Strings(memory.DefaultAllocator, "text", []string{"a", "", "c"}, []bool{true, false, true})
	require.NoError(t, err)
	defer text.Release()

	df, err := New(env, []*Series{ints, text})
	require.NoError(t, err)
	return df
}

func numbers(t *testing.T, env *Env, vals ...int64) *DataFrame {
	t.Helper()
	s, err := Int64s(memory.DefaultAllocator, "a", vals, nil)
	require.NoError(t, err)
	defer s.Release()
	df, err := New(env, []*Series{s})
	require.NoError(t, err)
	return df
}

func TestNewDataFrame(t *testing.T) {
	env := newTestEnv(t)
	df := sampleFrame(t, env)
	defer df.Release()

	assert.Equal(t, 3, df.Height())
	assert.Equal(t, 2, df.Width())
	assert.Equal(t, []string{"ints", "text"}, df.ColumnNames())
	assert.Len(t, df.Batches(), 2)
	assert.Equal(t, []any{int64(1), int64(2), nil}, values(t, env, df, "ints"))
	assert.Equal(t, []any{"a", nil, "c"}, values(t, env, df, "text"))
}

func TestNewDataFrameValidation(t *testing.T) {
	env := newTestEnv(t)
	a, err := Int64s(memory.DefaultAllocator, "a", []int64{1, 2}, nil)
	require.NoError(t, err)
	defer a.Release()
	b, err := Int64s(memory.DefaultAllocator, "b", []int64{1}, nil)
	require.NoError(t, err)
	defer b.Release()

	_, err = New(env, []*Series{a, b})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = New(env, []*Series{a, a})
	assert.ErrorIs(t, err, ErrDuplicateColumn)

	_, err = Int64s(memory.DefaultAllocator, "c", []int64{1, 2}, []bool{true})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestHeadTailSlice(t *testing.T) {
	env := newTestEnv(t)
	df := numbers(t, env, 1, 2, 3, 4, 5)
	defer df.Release()

	head := df.Head(3)
	defer head.Release()
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, values(t, env, head, "a"))

	tail := df.Tail(2)
	defer tail.Release()
	assert.Equal(t, []any{int64(4), int64(5)}, values(t, env, tail, "a"))

	all := df.Head(100)
	defer all.Release()
	assert.Equal(t, 5, all.Height())

	none := df.Slice(10, 3)
	defer none.Release()
	assert.Equal(t, 0, none.Height())
	assert.Equal(t, 1, none.Width())
}

func TestCell(t *testing.T) {
	env := newTestEnv(t)
	df := numbers(t, env, 10, 20, 30)
	defer df.Release()

	arr, i, err := df.Cell("a", 2)
	require.NoError(t, err)
	assert.Equal(t, "30", arr.ValueStr(i))

	_, _, err = df.Cell("a", 3)
	assert.Error(t, err)
	_, _, err = df.Cell("missing", 0)
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestSeriesCast(t *testing.T) {
	env := newTestEnv(t)
	s, err := Int32s(memory.DefaultAllocator, "x", []int32{1, 2}, []bool{true, false})
	require.NoError(t, err)
	defer s.Release()

	f, err := s.Cast(env, arrow.PrimitiveTypes.Float64)
	require.NoError(t, err)
	defer f.Release()
	assert.Equal(t, arrow.PrimitiveTypes.Float64, f.DataType())
	assert.Equal(t, 1, f.NullCount())

	renamed := f.Rename("y")
	defer renamed.Release()
	assert.Equal(t, "y", renamed.Name())
	assert.Equal(t, "x", f.Name())
}

func TestConcat(t *testing.T) {
	env := newTestEnv(t)
	one := numbers(t, env, 1, 2)
	defer one.Release()
	two := numbers(t, env, 3)
	defer two.Release()

	t.Run("vertical", func(t *testing.T) {
		out, err := Concat(env, []*DataFrame{one, two}, core.ConcatVertical)
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, []any{int64(1), int64(2), int64(3)}, values(t, env, out, "a"))
	})

	t.Run("horizontal needs equal heights", func(t *testing.T) {
		_, err := Concat(env, []*DataFrame{one, two}, core.ConcatHorizontal)
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("horizontal", func(t *testing.T) {
		s, err := Strings(memory.DefaultAllocator, "b", []string{"x", "y"}, nil)
		require.NoError(t, err)
		defer s.Release()
		other, err := New(env, []*Series{s})
		require.NoError(t, err)
		defer other.Release()

		out, err := Concat(env, []*DataFrame{one, other}, core.ConcatHorizontal)
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, []string{"a", "b"}, out.ColumnNames())
		assert.Equal(t, []any{"x", "y"}, values(t, env, out, "b"))
	})

	t.Run("diagonal", func(t *testing.T) {
		s, err := Strings(memory.DefaultAllocator, "b", []string{"z"}, nil)
		require.NoError(t, err)
		defer s.Release()
		other, err := New(env, []*Series{s})
		require.NoError(t, err)
		defer other.Release()

		out, err := Concat(env, []*DataFrame{one, other}, core.ConcatDiagonal)
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, []any{int64(1), int64(2), nil}, values(t, env, out, "a"))
		assert.Equal(t, []any{nil, nil, "z"}, values(t, env, out, "b"))
	})

	t.Run("vertical rejects different columns", func(t *testing.T) {
		df := sampleFrame(t, env)
		defer df.Release()
		_, err := Concat(env, []*DataFrame{one, df}, core.ConcatVertical)
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})
}

func TestDataFrameString(t *testing.T) {
	env := newTestEnv(t)
	df := sampleFrame(t, env)
	defer df.Release()

	out := df.String()
	assert.True(t, strings.HasPrefix(out, "shape: (3, 2)"))
	assert.Contains(t, out, "ints")
	assert.Contains(t, out, "null")
	assert.Contains(t, out, "c")
}

func TestDataFrameStringElidesMiddle(t *testing.T) {
	env := newTestEnv(t)
	vals := make([]int64, 20)
	for i := range vals {
		vals[i] = int64(i * 100)
	}
	df := numbers(t, env, vals...)
	defer df.Release()

	out := df.String()
	assert.Contains(t, out, "…")
	assert.Contains(t, out, "1900")
	assert.NotContains(t, out, "1000")
}
