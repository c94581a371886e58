package frame

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
)

type ordered[T cmp.Ordered] interface {
	arrow.Array
	Value(int) T
}

func compareValues[T cmp.Ordered](a ordered[T]) func(i, j int) int {
	return func(i, j int) int { return cmp.Compare(a.Value(i), a.Value(j)) }
}

// comparator orders two valid rows of arr.
func comparator(arr arrow.Array) (func(i, j int) int, error) {
	switch a := arr.(type) {
	case *array.Int8:
		return compareValues[int8](a), nil
	case *array.Int16:
		return compareValues[int16](a), nil
	case *array.Int32:
		return compareValues[int32](a), nil
	case *array.Int64:
		return compareValues[int64](a), nil
	case *array.Uint8:
		return compareValues[uint8](a), nil
	case *array.Uint16:
		return compareValues[uint16](a), nil
	case *array.Uint32:
		return compareValues[uint32](a), nil
	case *array.Uint64:
		return compareValues[uint64](a), nil
	case *array.Float32:
		return compareValues[float32](a), nil
	case *array.Float64:
		return compareValues[float64](a), nil
	case *array.String:
		return compareValues[string](a), nil
	case *array.LargeString:
		return compareValues[string](a), nil
	case *array.Date32:
		return compareValues[arrow.Date32](a), nil
	case *array.Date64:
		return compareValues[arrow.Date64](a), nil
	case *array.Timestamp:
		return compareValues[arrow.Timestamp](a), nil
	case *array.Time64:
		return compareValues[arrow.Time64](a), nil
	case *array.Duration:
		return compareValues[arrow.Duration](a), nil
	case *array.Boolean:
		return func(i, j int) int {
			x, y := a.Value(i), a.Value(j)
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}, nil
	case *array.Binary:
		return func(i, j int) int { return bytes.Compare(a.Value(i), a.Value(j)) }, nil
	}
	return nil, fmt.Errorf("%w: cannot order %s", ErrUnsupported, arr.DataType())
}

// sortIndices returns a stable permutation of rows ordered by keys. Nulls go
// last regardless of direction.
func sortIndices(keys []arrow.Array, descending []bool) ([]int64, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: sort needs at least one key", ErrUnsupported)
	}
	cmps := make([]func(i, j int) int, len(keys))
	for k, arr := range keys {
		c, err := comparator(arr)
		if err != nil {
			return nil, err
		}
		cmps[k] = c
	}

	idx := make([]int64, keys[0].Len())
	for i := range idx {
		idx[i] = int64(i)
	}
	slices.SortStableFunc(idx, func(x, y int64) int {
		i, j := int(x), int(y)
		for k, arr := range keys {
			xn, yn := arr.IsNull(i), arr.IsNull(j)
			switch {
			case xn && yn:
				continue
			case xn:
				return 1
			case yn:
				return -1
			}
			c := cmps[k](i, j)
			if descending[k] {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return idx, nil
}

// sortFrame orders df by the values of by. descending has one flag per key
// or a single flag for all of them.
func sortFrame(env *Env, df *DataFrame, by []*Expr, descending []bool) (*DataFrame, error) {
	flags, err := expandFlags(descending, len(by))
	if err != nil {
		return nil, err
	}
	rec, err := df.Record(env)
	if err != nil {
		return nil, err
	}
	defer rec.Release()

	ev := newEvaluator(env, rec)
	keys := make([]arrow.Array, 0, len(by))
	defer func() {
		for _, k := range keys {
			k.Release()
		}
	}()
	for _, e := range by {
		arr, err := ev.array(e)
		if err != nil {
			return nil, err
		}
		keys = append(keys, arr)
	}

	perm, err := sortIndices(keys, flags)
	if err != nil {
		return nil, err
	}
	return takeRows(env, rec, perm)
}

func expandFlags(flags []bool, n int) ([]bool, error) {
	switch len(flags) {
	case n:
		return flags, nil
	case 0:
		return make([]bool, n), nil
	case 1:
		out := make([]bool, n)
		for i := range out {
			out[i] = flags[0]
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %d sort keys but %d direction flags", ErrShapeMismatch, n, len(flags))
}

func takeRows(env *Env, rec arrow.Record, rows []int64) (*DataFrame, error) {
	ib := array.NewInt64Builder(env.Mem)
	defer ib.Release()
	ib.AppendValues(rows, nil)
	idx := ib.NewArray()
	defer idx.Release()

	ctx := env.context()
	cols := make([]arrow.Array, 0, rec.NumCols())
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()
	for _, c := range rec.Columns() {
		out, err := compute.TakeArray(ctx, c, idx)
		if err != nil {
			return nil, fmt.Errorf("failed to reorder rows: %w", err)
		}
		cols = append(cols, out)
	}
	return fromArrays(env, rec.Schema(), cols, len(rows)), nil
}
