package frame

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

func boolKernel(mem memory.Allocator, op exprOp, arr arrow.Array) (arrow.Array, error) {
	b := array.NewBooleanBuilder(mem)
	defer b.Release()
	b.Reserve(arr.Len())

	switch op {
	case opIsNull, opIsNotNull:
		want := op == opIsNull
		for i := 0; i < arr.Len(); i++ {
			b.UnsafeAppend(arr.IsNull(i) == want)
		}
	case opNot:
		ba, ok := arr.(*array.Boolean)
		if !ok {
			return nil, fmt.Errorf("%w: not() on %s", ErrUnsupported, arr.DataType())
		}
		for i := 0; i < ba.Len(); i++ {
			if ba.IsNull(i) {
				b.UnsafeAppendBoolToBitmap(false)
				continue
			}
			b.UnsafeAppend(!ba.Value(i))
		}
	default:
		return nil, fmt.Errorf("%w: boolean kernel for op %d", ErrUnsupported, op)
	}
	return b.NewArray(), nil
}

// stringValues adapts both string layouts to one accessor.
type stringValues interface {
	arrow.Array
	Value(int) string
}

func stringKernel(mem memory.Allocator, op stringOp, pattern string, arr arrow.Array) (arrow.Array, error) {
	sa, ok := arr.(stringValues)
	if !ok || (arr.DataType().ID() != arrow.STRING && arr.DataType().ID() != arrow.LARGE_STRING) {
		return nil, fmt.Errorf("%w: string operation on %s", ErrUnsupported, arr.DataType())
	}

	switch op {
	case strContains:
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		for i := 0; i < sa.Len(); i++ {
			if sa.IsNull(i) {
				b.AppendNull()
				continue
			}
			b.Append(re.MatchString(sa.Value(i)))
		}
		return b.NewArray(), nil

	case strToUpper, strToLower:
		conv := strings.ToUpper
		if op == strToLower {
			conv = strings.ToLower
		}
		b := array.NewStringBuilder(mem)
		defer b.Release()
		for i := 0; i < sa.Len(); i++ {
			if sa.IsNull(i) {
				b.AppendNull()
				continue
			}
			b.Append(conv(sa.Value(i)))
		}
		return b.NewArray(), nil

	case strLenBytes:
		b := array.NewUint32Builder(mem)
		defer b.Release()
		for i := 0; i < sa.Len(); i++ {
			if sa.IsNull(i) {
				b.AppendNull()
				continue
			}
			b.Append(uint32(len(sa.Value(i))))
		}
		return b.NewArray(), nil
	}
	return nil, fmt.Errorf("%w: string op %d", ErrUnsupported, op)
}

func temporalKernel(mem memory.Allocator, op temporalOp, arr arrow.Array) (arrow.Array, error) {
	var at func(i int) (year int, month int)
	switch a := arr.(type) {
	case *array.Date32:
		at = func(i int) (int, int) {
			t := a.Value(i).ToTime()
			return t.Year(), int(t.Month())
		}
	case *array.Date64:
		at = func(i int) (int, int) {
			t := a.Value(i).ToTime()
			return t.Year(), int(t.Month())
		}
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		at = func(i int) (int, int) {
			t := a.Value(i).ToTime(unit)
			return t.Year(), int(t.Month())
		}
	default:
		return nil, fmt.Errorf("%w: temporal operation on %s", ErrUnsupported, arr.DataType())
	}

	if op == dtYear {
		b := array.NewInt32Builder(mem)
		defer b.Release()
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				b.AppendNull()
				continue
			}
			y, _ := at(i)
			b.Append(int32(y))
		}
		return b.NewArray(), nil
	}
	b := array.NewInt8Builder(mem)
	defer b.Release()
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			b.AppendNull()
			continue
		}
		_, m := at(i)
		b.Append(int8(m))
	}
	return b.NewArray(), nil
}
