package frame

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
)

// refsColumns reports whether e reads any column of its input.
func (e *Expr) refsColumns() bool {
	found := false
	e.walk(func(x *Expr) {
		if x.op == opColumn || x.op == opSelect {
			found = true
		}
	})
	return found
}

// wholeFrame reports whether exprs must see every row at once.
func wholeFrame(exprs []*Expr) bool {
	refs := false
	for _, e := range exprs {
		if e.HasAgg() {
			return true
		}
		refs = refs || e.refsColumns()
	}
	return !refs
}

// project evaluates exprs against df. With keep set the results are added to
// the existing columns (with_columns); otherwise they replace them (select).
func project(env *Env, df *DataFrame, exprs []*Expr, keep bool) (*DataFrame, error) {
	exprs, err := expandExprs(df.Schema(), exprs)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(exprs))
	for _, e := range exprs {
		name := e.OutputName()
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %q produced more than once", ErrDuplicateColumn, name)
		}
		seen[name] = struct{}{}
	}

	fn := func(rec arrow.Record) (arrow.Record, error) {
		return projectRecord(env, rec, exprs, keep)
	}
	if wholeFrame(exprs) {
		whole, err := df.Rechunk(env)
		if err != nil {
			return nil, err
		}
		defer whole.Release()
		rec, err := fn(whole.batches[0])
		if err != nil {
			return nil, err
		}
		return FromRecords(rec.Schema(), []arrow.Record{rec})
	}

	recs, err := env.mapBatches(df.batches, fn)
	if err != nil {
		return nil, err
	}
	return collectBatches(recs)
}

func collectBatches(recs []arrow.Record) (*DataFrame, error) {
	out, err := FromRecords(recs[0].Schema(), recs)
	if err != nil {
		releaseRecords(recs)
		return nil, err
	}
	return out, nil
}

func projectRecord(env *Env, rec arrow.Record, exprs []*Expr, keep bool) (arrow.Record, error) {
	ev := newEvaluator(env, rec)
	datums := make([]compute.Datum, 0, len(exprs))
	defer func() {
		for _, d := range datums {
			releaseDatum(d)
		}
	}()
	allScalar := true
	for _, e := range exprs {
		d, err := ev.eval(e)
		if err != nil {
			return nil, err
		}
		datums = append(datums, d)
		if _, ok := d.(*compute.ScalarDatum); !ok {
			allScalar = false
		}
	}

	n := ev.rows()
	if !keep && allScalar && len(exprs) > 0 {
		n = 1
	}

	var (
		fields []arrow.Field
		cols   []arrow.Array
	)
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()
	if keep {
		for i, f := range rec.Schema().Fields() {
			c := rec.Column(i)
			c.Retain()
			fields = append(fields, f)
			cols = append(cols, c)
		}
	}

	for i, d := range datums {
		arr, err := ev.materialize(d, n)
		if err != nil {
			return nil, err
		}
		name := exprs[i].OutputName()
		if arr.Len() != n {
			arr.Release()
			return nil, fmt.Errorf("%w: %q has %d rows, expected %d", ErrShapeMismatch, name, arr.Len(), n)
		}
		field := arrow.Field{Name: name, Type: arr.DataType(), Nullable: true}

		replaced := false
		for j := range fields {
			if fields[j].Name == name {
				cols[j].Release()
				fields[j], cols[j] = field, arr
				replaced = true
				break
			}
		}
		if !replaced {
			fields = append(fields, field)
			cols = append(cols, arr)
		}
	}
	return array.NewRecord(arrow.NewSchema(fields, nil), cols, int64(n)), nil
}

// filterFrame keeps the rows where predicate is true. Null counts as false.
func filterFrame(env *Env, df *DataFrame, predicate *Expr) (*DataFrame, error) {
	fn := func(rec arrow.Record) (arrow.Record, error) {
		ev := newEvaluator(env, rec)
		mask, err := ev.array(predicate)
		if err != nil {
			return nil, err
		}
		defer mask.Release()
		if mask.DataType().ID() != arrow.BOOL {
			return nil, fmt.Errorf("%w: filter predicate %s yields %s, not bool", ErrSchemaMismatch, predicate, mask.DataType())
		}
		return compute.FilterRecordBatch(ev.ctx, rec, mask, compute.DefaultFilterOptions())
	}

	if predicate.HasAgg() {
		whole, err := df.Rechunk(env)
		if err != nil {
			return nil, err
		}
		defer whole.Release()
		rec, err := fn(whole.batches[0])
		if err != nil {
			return nil, err
		}
		return FromRecords(rec.Schema(), []arrow.Record{rec})
	}

	recs, err := env.mapBatches(df.batches, fn)
	if err != nil {
		return nil, err
	}
	return collectBatches(recs)
}
