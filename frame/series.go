package frame

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Series is an immutable named column.
type Series struct {
	name string
	data *arrow.Chunked
}

// NewSeries wraps arr under name. The series holds its own reference.
func NewSeries(name string, arr arrow.Array) *Series {
	return &Series{name: name, data: arrow.NewChunked(arr.DataType(), []arrow.Array{arr})}
}

// NewChunkedSeries wraps chunks under name. The series holds its own reference.
func NewChunkedSeries(name string, chunks *arrow.Chunked) *Series {
	chunks.Retain()
	return &Series{name: name, data: chunks}
}

type appender[T any] interface {
	array.Builder
	AppendValues(v []T, valid []bool)
}

func build[T any, B appender[T]](name string, b B, vals []T, valid []bool) (*Series, error) {
	defer b.Release()
	if valid != nil && len(valid) != len(vals) {
		return nil, fmt.Errorf("%w: %d values but %d validity flags", ErrShapeMismatch, len(vals), len(valid))
	}
	b.AppendValues(vals, valid)
	arr := b.NewArray()
	defer arr.Release()
	return NewSeries(name, arr), nil
}

// Int32s builds an int32 series. A nil valid slice means no nulls.
func Int32s(mem memory.Allocator, name string, vals []int32, valid []bool) (*Series, error) {
	return build(name, array.NewInt32Builder(mem), vals, valid)
}

func Int64s(mem memory.Allocator, name string, vals []int64, valid []bool) (*Series, error) {
	return build(name, array.NewInt64Builder(mem), vals, valid)
}

func Float64s(mem memory.Allocator, name string, vals []float64, valid []bool) (*Series, error) {
	return build(name, array.NewFloat64Builder(mem), vals, valid)
}

func Bools(mem memory.Allocator, name string, vals []bool, valid []bool) (*Series, error) {
	return build(name, array.NewBooleanBuilder(mem), vals, valid)
}

func Strings(mem memory.Allocator, name string, vals []string, valid []bool) (*Series, error) {
	return build(name, array.NewStringBuilder(mem), vals, valid)
}

func (s *Series) Name() string { return s.name }
func (s *Series) Len() int { return s.data.Len() }
func (s *Series) NullCount() int { return s.data.NullN() }
func (s *Series) DataType() arrow.DataType { return s.data.DataType() }
func (s *Series) Chunks() []arrow.Array { return s.data.Chunks() }
func (s *Series) Chunked() *arrow.Chunked { return s.data }
func (s *Series) Field() arrow.Field { return arrow.Field{Name: s.name, Type: s.DataType(), Nullable: true} }

// Rename returns a series sharing the same data under a new name.
func (s *Series) Rename(name string) *Series {
	return NewChunkedSeries(name, s.data)
}

func (s *Series) Clone() *Series {
	return NewChunkedSeries(s.name, s.data)
}

func (s *Series) Release() {
	if s.data != nil {
		s.data.Release()
		s.data = nil
	}
}

// Contiguous returns the series as a single array owned by the caller.
func (s *Series) Contiguous(env *Env) (arrow.Array, error) {
	return contiguous(env.Mem, s.data)
}

func contiguous(mem memory.Allocator, data *arrow.Chunked) (arrow.Array, error) {
	chunks := data.Chunks()
	switch len(chunks) {
	case 0:
		return array.MakeArrayOfNull(mem, data.DataType(), 0), nil
	case 1:
		chunks[0].Retain()
		return chunks[0], nil
	}
	arr, err := array.Concatenate(chunks, mem)
	if err != nil {
		return nil, fmt.Errorf("failed to concatenate chunks: %w", err)
	}
	return arr, nil
}

// Cast converts the series to dt. Values that cannot be represented fail.
func (s *Series) Cast(env *Env, dt arrow.DataType) (*Series, error) {
	if arrow.TypeEqual(dt, s.DataType()) {
		return s.Clone(), nil
	}
	ctx := env.context()
	chunks := make([]arrow.Array, 0, len(s.Chunks()))
	defer func() {
		for _, c := range chunks {
			c.Release()
		}
	}()
	for _, c := range s.Chunks() {
		out, err := compute.CastArray(ctx, c, compute.SafeCastOptions(dt))
		if err != nil {
			return nil, fmt.Errorf("cannot cast %q from %s to %s: %w", s.name, s.DataType(), dt, err)
		}
		chunks = append(chunks, out)
	}
	data := arrow.NewChunked(dt, chunks)
	defer data.Release()
	return NewChunkedSeries(s.name, data), nil
}

// At locates row i: the chunk holding it and the index within that chunk.
func (s *Series) At(i int) (arrow.Array, int, bool) {
	if i < 0 {
		return nil, 0, false
	}
	for _, c := range s.Chunks() {
		if i < c.Len() {
			return c, i, true
		}
		i -= c.Len()
	}
	return nil, 0, false
}
