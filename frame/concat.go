package frame

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/nickyhof/FrameBridge/core"
)

// Concat combines frames. Vertical stacks rows of frames with the same
// columns, horizontal places columns of frames with the same height side by
// side, and diagonal stacks rows over the union of all columns, filling the
// gaps with nulls. The inputs are left untouched.
func Concat(env *Env, frames []*DataFrame, how core.ConcatHow) (*DataFrame, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: concat needs at least one frame", ErrShapeMismatch)
	}
	switch how {
	case core.ConcatVertical:
		return concatVertical(frames)
	case core.ConcatHorizontal:
		return concatHorizontal(env, frames)
	case core.ConcatDiagonal:
		return concatDiagonal(env, frames)
	}
	return nil, fmt.Errorf("%w: concat strategy %d", ErrUnsupported, how)
}

func concatVertical(frames []*DataFrame) (*DataFrame, error) {
	schema := frames[0].Schema()
	var recs []arrow.Record
	for _, df := range frames {
		if !sameColumns(schema, df.Schema()) {
			return nil, fmt.Errorf("%w: cannot stack %s onto %s", ErrSchemaMismatch, df.Schema(), schema)
		}
		for _, b := range df.batches {
			if b.NumRows() == 0 {
				continue
			}
			recs = append(recs, array.NewRecord(schema, b.Columns(), b.NumRows()))
		}
	}
	return FromRecords(schema, recs)
}

// sameColumns compares names and types, ignoring nullability and metadata.
func sameColumns(a, b *arrow.Schema) bool {
	if a.NumFields() != b.NumFields() {
		return false
	}
	for i := range a.Fields() {
		fa, fb := a.Field(i), b.Field(i)
		if fa.Name != fb.Name || !arrow.TypeEqual(fa.Type, fb.Type) {
			return false
		}
	}
	return true
}

func concatHorizontal(env *Env, frames []*DataFrame) (*DataFrame, error) {
	height := frames[0].Height()
	var (
		fields []arrow.Field
		cols   []arrow.Array
	)
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()
	seen := make(map[string]struct{})
	for _, df := range frames {
		if df.Height() != height {
			return nil, fmt.Errorf("%w: frames have %d and %d rows", ErrShapeMismatch, height, df.Height())
		}
		rec, err := df.Record(env)
		if err != nil {
			return nil, err
		}
		for i, f := range rec.Schema().Fields() {
			if _, dup := seen[f.Name]; dup {
				rec.Release()
				return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, f.Name)
			}
			seen[f.Name] = struct{}{}
			c := rec.Column(i)
			c.Retain()
			fields = append(fields, f)
			cols = append(cols, c)
		}
		rec.Release()
	}
	return fromArrays(env, arrow.NewSchema(fields, nil), cols, height), nil
}

func concatDiagonal(env *Env, frames []*DataFrame) (*DataFrame, error) {
	var fields []arrow.Field
	index := make(map[string]int)
	for _, df := range frames {
		for _, f := range df.Schema().Fields() {
			i, ok := index[f.Name]
			if !ok {
				index[f.Name] = len(fields)
				fields = append(fields, arrow.Field{Name: f.Name, Type: f.Type, Nullable: true})
				continue
			}
			if !arrow.TypeEqual(fields[i].Type, f.Type) {
				return nil, fmt.Errorf("%w: column %q is %s and %s", ErrSchemaMismatch, f.Name, fields[i].Type, f.Type)
			}
		}
	}
	schema := arrow.NewSchema(fields, nil)

	var recs []arrow.Record
	for _, df := range frames {
		for _, b := range df.batches {
			if b.NumRows() == 0 {
				continue
			}
			cols := make([]arrow.Array, len(fields))
			for i, f := range fields {
				if idx := b.Schema().FieldIndices(f.Name); len(idx) > 0 {
					cols[i] = b.Column(idx[0])
					cols[i].Retain()
				} else {
					cols[i] = array.MakeArrayOfNull(env.Mem, f.Type, int(b.NumRows()))
				}
			}
			recs = append(recs, array.NewRecord(schema, cols, b.NumRows()))
			for _, c := range cols {
				c.Release()
			}
		}
	}
	return FromRecords(schema, recs)
}
