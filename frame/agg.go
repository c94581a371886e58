package frame

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/scalar"
	"golang.org/x/exp/constraints"
)

type number interface {
	constraints.Integer | constraints.Float
}

type sums struct {
	i int64
	u uint64
	f float64
	n int
}

func accumulate[T number](arr arrow.Array, at func(int) T) sums {
	var s sums
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		v := at(i)
		s.i += int64(v)
		s.u += uint64(v)
		s.f += float64(v)
		s.n++
	}
	return s
}

func numericSums(arr arrow.Array) (sums, error) {
	switch a := arr.(type) {
	case *array.Int8:
		return accumulate(a, a.Value), nil
	case *array.Int16:
		return accumulate(a, a.Value), nil
	case *array.Int32:
		return accumulate(a, a.Value), nil
	case *array.Int64:
		return accumulate(a, a.Value), nil
	case *array.Uint8:
		return accumulate(a, a.Value), nil
	case *array.Uint16:
		return accumulate(a, a.Value), nil
	case *array.Uint32:
		return accumulate(a, a.Value), nil
	case *array.Uint64:
		return accumulate(a, a.Value), nil
	case *array.Float32:
		return accumulate(a, a.Value), nil
	case *array.Float64:
		return accumulate(a, a.Value), nil
	case *array.Boolean:
		return accumulate(a, func(i int) uint8 {
			if a.Value(i) {
				return 1
			}
			return 0
		}), nil
	}
	return sums{}, fmt.Errorf("%w: numeric aggregation on %s", ErrUnsupported, arr.DataType())
}

// aggregate reduces arr to one value. Nulls are skipped; an empty or all-null
// input gives a null for mean, min, max, first and last, and zero for sum.
func aggregate(kind AggKind, arr arrow.Array) (scalar.Scalar, error) {
	switch kind {
	case AggLen:
		return scalar.NewInt64Scalar(int64(arr.Len())), nil
	case AggCount:
		return scalar.NewInt64Scalar(int64(arr.Len() - arr.NullN())), nil
	case AggFirst, AggLast:
		if arr.Len() == 0 {
			return scalar.MakeNullScalar(arr.DataType()), nil
		}
		i := 0
		if kind == AggLast {
			i = arr.Len() - 1
		}
		return scalar.GetScalar(arr, i)
	case AggMin, AggMax:
		return extreme(arr, kind == AggMax)
	case AggSum, AggMean:
		s, err := numericSums(arr)
		if err != nil {
			return nil, err
		}
		if kind == AggMean {
			if s.n == 0 {
				return scalar.MakeNullScalar(arrow.PrimitiveTypes.Float64), nil
			}
			return scalar.NewFloat64Scalar(s.f / float64(s.n)), nil
		}
		id := arr.DataType().ID()
		switch {
		case arrow.IsFloating(id):
			return scalar.NewFloat64Scalar(s.f), nil
		case arrow.IsUnsignedInteger(id), id == arrow.BOOL:
			return scalar.NewUint64Scalar(s.u), nil
		}
		return scalar.NewInt64Scalar(s.i), nil
	}
	return nil, fmt.Errorf("%w: aggregation %s", ErrUnsupported, kind)
}

func extreme(arr arrow.Array, largest bool) (scalar.Scalar, error) {
	if arr.Len() == arr.NullN() {
		return scalar.MakeNullScalar(arr.DataType()), nil
	}
	compare, err := comparator(arr)
	if err != nil {
		return nil, err
	}
	best := -1
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		c := compare(i, best)
		if (largest && c > 0) || (!largest && c < 0) {
			best = i
		}
	}
	return scalar.GetScalar(arr, best)
}
