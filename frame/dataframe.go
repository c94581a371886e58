package frame

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// DataFrame is an immutable table stored as record batches sharing one
// schema. There is always at least one batch, possibly empty.
type DataFrame struct {
	schema  *arrow.Schema
	batches []arrow.Record
}

// New builds a frame from columns of equal length with unique names. The
// frame holds its own references; the caller keeps ownership of cols.
func New(env *Env, cols []*Series) (*DataFrame, error) {
	fields := make([]arrow.Field, len(cols))
	arrays := make([]arrow.Array, 0, len(cols))
	defer func() {
		for _, a := range arrays {
			a.Release()
		}
	}()

	seen := make(map[string]struct{}, len(cols))
	height := -1
	for i, s := range cols {
		if _, dup := seen[s.Name()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, s.Name())
		}
		seen[s.Name()] = struct{}{}
		if height >= 0 && s.Len() != height {
			return nil, fmt.Errorf("%w: column %q has %d rows, expected %d", ErrShapeMismatch, s.Name(), s.Len(), height)
		}
		height = s.Len()
		fields[i] = s.Field()

		arr, err := s.Contiguous(env)
		if err != nil {
			return nil, err
		}
		arrays = append(arrays, arr)
	}
	if height < 0 {
		height = 0
	}
	return fromArrays(env, arrow.NewSchema(fields, nil), arrays, height), nil
}

// fromArrays slices whole columns into batches of env.ChunkSize rows.
func fromArrays(env *Env, schema *arrow.Schema, arrays []arrow.Array, height int) *DataFrame {
	size := env.chunkSize()
	df := &DataFrame{schema: schema}
	for off := 0; off < height; off += size {
		df.batches = append(df.batches, sliceArrays(schema, arrays, off, min(off+size, height)))
	}
	if len(df.batches) == 0 {
		df.batches = []arrow.Record{sliceArrays(schema, arrays, 0, 0)}
	}
	return df
}

func sliceArrays(schema *arrow.Schema, arrays []arrow.Array, start, end int) arrow.Record {
	cols := make([]arrow.Array, len(arrays))
	for i, a := range arrays {
		cols[i] = array.NewSlice(a, int64(start), int64(end))
	}
	rec := array.NewRecord(schema, cols, int64(end-start))
	for _, c := range cols {
		c.Release()
	}
	return rec
}

// FromRecords builds a frame that takes ownership of recs. All records must
// share schema.
func FromRecords(schema *arrow.Schema, recs []arrow.Record) (*DataFrame, error) {
	for _, r := range recs {
		if !r.Schema().Equal(schema) {
			return nil, fmt.Errorf("%w: batch schema %s does not match %s", ErrSchemaMismatch, r.Schema(), schema)
		}
	}
	if len(recs) == 0 {
		recs = []arrow.Record{emptyRecord(schema)}
	}
	return &DataFrame{schema: schema, batches: recs}, nil
}

// FromRecord builds a frame holding its own reference to rec.
func FromRecord(rec arrow.Record) *DataFrame {
	rec.Retain()
	return &DataFrame{schema: rec.Schema(), batches: []arrow.Record{rec}}
}

func emptyRecord(schema *arrow.Schema) arrow.Record {
	cols := make([]arrow.Array, schema.NumFields())
	for i, f := range schema.Fields() {
		cols[i] = array.MakeArrayOfNull(memory.DefaultAllocator, f.Type, 0)
	}
	rec := array.NewRecord(schema, cols, 0)
	for _, c := range cols {
		c.Release()
	}
	return rec
}

func (df *DataFrame) Schema() *arrow.Schema   { return df.schema }
func (df *DataFrame) Batches() []arrow.Record { return df.batches }
func (df *DataFrame) Width() int              { return df.schema.NumFields() }

func (df *DataFrame) Height() int {
	var n int64
	for _, b := range df.batches {
		n += b.NumRows()
	}
	return int(n)
}

func (df *DataFrame) ColumnNames() []string {
	names := make([]string, df.Width())
	for i, f := range df.schema.Fields() {
		names[i] = f.Name
	}
	return names
}

func (df *DataFrame) columnIndex(name string) (int, error) {
	idx := df.schema.FieldIndices(name)
	if len(idx) == 0 {
		return -1, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return idx[0], nil
}

// Column returns the named column as a new series.
func (df *DataFrame) Column(name string) (*Series, error) {
	i, err := df.columnIndex(name)
	if err != nil {
		return nil, err
	}
	return df.ColumnAt(i)
}

// ColumnAt returns column i as a new series.
func (df *DataFrame) ColumnAt(i int) (*Series, error) {
	if i < 0 || i >= df.Width() {
		return nil, fmt.Errorf("%w: index %d out of range for %d columns", ErrColumnNotFound, i, df.Width())
	}
	chunks := make([]arrow.Array, len(df.batches))
	for b, rec := range df.batches {
		chunks[b] = rec.Column(i)
	}
	field := df.schema.Field(i)
	data := arrow.NewChunked(field.Type, chunks)
	defer data.Release()
	return NewChunkedSeries(field.Name, data), nil
}

// Record returns the whole frame as one record owned by the caller.
func (df *DataFrame) Record(env *Env) (arrow.Record, error) {
	if len(df.batches) == 1 {
		df.batches[0].Retain()
		return df.batches[0], nil
	}
	cols := make([]arrow.Array, df.Width())
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()
	for i := range cols {
		chunks := make([]arrow.Array, len(df.batches))
		for b, rec := range df.batches {
			chunks[b] = rec.Column(i)
		}
		arr, err := array.Concatenate(chunks, env.Mem)
		if err != nil {
			return nil, fmt.Errorf("failed to combine batches: %w", err)
		}
		cols[i] = arr
	}
	return array.NewRecord(df.schema, cols, int64(df.Height())), nil
}

// Rechunk returns a frame with a single batch.
func (df *DataFrame) Rechunk(env *Env) (*DataFrame, error) {
	rec, err := df.Record(env)
	if err != nil {
		return nil, err
	}
	return &DataFrame{schema: df.schema, batches: []arrow.Record{rec}}, nil
}

// Slice returns rows [offset, offset+length) clamped to the frame.
func (df *DataFrame) Slice(offset, length int) *DataFrame {
	if offset < 0 {
		offset = 0
	}
	if length < 0 {
		length = 0
	}
	out := &DataFrame{schema: df.schema}
	start := int64(offset)
	remaining := int64(length)
	for _, rec := range df.batches {
		n := rec.NumRows()
		if start >= n {
			start -= n
			continue
		}
		if remaining == 0 {
			break
		}
		end := min(start+remaining, n)
		out.batches = append(out.batches, rec.NewSlice(start, end))
		remaining -= end - start
		start = 0
	}
	if len(out.batches) == 0 {
		out.batches = []arrow.Record{df.batches[0].NewSlice(0, 0)}
	}
	return out
}

// Head returns the first n rows.
func (df *DataFrame) Head(n int) *DataFrame {
	return df.Slice(0, n)
}

// Tail returns the last n rows.
func (df *DataFrame) Tail(n int) *DataFrame {
	h := df.Height()
	if n > h {
		n = h
	}
	return df.Slice(h-n, n)
}

// Cell locates a value: the array holding row of the named column and the
// index within it.
func (df *DataFrame) Cell(name string, row int) (arrow.Array, int, error) {
	col, err := df.columnIndex(name)
	if err != nil {
		return nil, 0, err
	}
	if row < 0 {
		return nil, 0, fmt.Errorf("row %d out of range", row)
	}
	r := int64(row)
	for _, rec := range df.batches {
		if r < rec.NumRows() {
			return rec.Column(col), int(r), nil
		}
		r -= rec.NumRows()
	}
	return nil, 0, fmt.Errorf("row %d out of range for height %d", row, df.Height())
}

// Clone returns a frame sharing the same buffers.
func (df *DataFrame) Clone() *DataFrame {
	for _, b := range df.batches {
		b.Retain()
	}
	batches := make([]arrow.Record, len(df.batches))
	copy(batches, df.batches)
	return &DataFrame{schema: df.schema, batches: batches}
}

func (df *DataFrame) Release() {
	releaseRecords(df.batches)
	df.batches = nil
}

// Lazy starts a plan over a clone of the frame.
func (df *DataFrame) Lazy() *LazyFrame {
	return NewLazy(&frameSource{df: df.Clone()})
}
