package bridge

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Int64At returns the value at row i as an int64 when it is a non-null
// integer that fits exactly. A uint64 above math.MaxInt64 has no value.
func Int64At(arr arrow.Array, i int) (int64, bool) {
	if i < 0 || i >= arr.Len() || arr.IsNull(i) {
		return 0, false
	}
	switch a := arr.(type) {
	case *array.Int8:
		return int64(a.Value(i)), true
	case *array.Int16:
		return int64(a.Value(i)), true
	case *array.Int32:
		return int64(a.Value(i)), true
	case *array.Int64:
		return a.Value(i), true
	case *array.Uint8:
		return int64(a.Value(i)), true
	case *array.Uint16:
		return int64(a.Value(i)), true
	case *array.Uint32:
		return int64(a.Value(i)), true
	case *array.Uint64:
		v := a.Value(i)
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	}
	return 0, false
}

// Float64At returns the value at row i as a float64 for float columns and
// for 32 and 64 bit signed integer columns.
func Float64At(arr arrow.Array, i int) (float64, bool) {
	if i < 0 || i >= arr.Len() || arr.IsNull(i) {
		return 0, false
	}
	switch a := arr.(type) {
	case *array.Float32:
		return float64(a.Value(i)), true
	case *array.Float64:
		return a.Value(i), true
	case *array.Int32:
		return float64(a.Value(i)), true
	case *array.Int64:
		return float64(a.Value(i)), true
	}
	return 0, false
}

// BoolAt returns the value at row i of a boolean column.
func BoolAt(arr arrow.Array, i int) (bool, bool) {
	if i < 0 || i >= arr.Len() || arr.IsNull(i) {
		return false, false
	}
	if a, ok := arr.(*array.Boolean); ok {
		return a.Value(i), true
	}
	return false, false
}

// StringAt returns the value at row i as text. String columns return their
// value; other types return their display form. Nulls have no value.
func StringAt(arr arrow.Array, i int) (string, bool) {
	if i < 0 || i >= arr.Len() || arr.IsNull(i) {
		return "", false
	}
	switch a := arr.(type) {
	case *array.String:
		return a.Value(i), true
	case *array.LargeString:
		return a.Value(i), true
	}
	return arr.ValueStr(i), true
}
