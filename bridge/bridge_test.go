package bridge

import (
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/cdata"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/nickyhof/FrameBridge/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRecord(t *testing.T, mem memory.Allocator) arrow.Record {
	t.Helper()
	pointType := arrow.StructOf(
		arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		arrow.Field{Name: "y", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	)
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "ints", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "text", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "point", Type: pointType, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2, 0}, []bool{true, true, false})
	b.Field(1).(*array.StringBuilder).AppendValues([]string{"a", "", "c"}, []bool{true, false, true})
	sb := b.Field(2).(*array.StructBuilder)
	xb := sb.FieldBuilder(0).(*array.Int64Builder)
	yb := sb.FieldBuilder(1).(*array.Float64Builder)
	for i := 0; i < 3; i++ {
		sb.Append(true)
		xb.Append(int64(i * 10))
		if i == 1 {
			yb.AppendNull()
		} else {
			yb.Append(float64(i) + 0.5)
		}
	}
	return b.NewRecord()
}

func TestRecordRoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec := buildRecord(t, mem)
	var arr cdata.CArrowArray
	var schema cdata.CArrowSchema
	require.NoError(t, ExportRecord(rec, &arr, &schema))

	cols, err := Import(&arr, &schema, "")
	require.NoError(t, err)
	require.Len(t, cols, 3)

	for i, col := range cols {
		assert.Equal(t, rec.ColumnName(i), col.Name)
		assert.True(t, arrow.TypeEqual(rec.Column(i).DataType(), col.Array.DataType()))
		assert.True(t, array.Equal(rec.Column(i), col.Array), "column %s differs", col.Name)
	}
	assert.True(t, cols[0].Array.IsNull(2))
	assert.True(t, cols[1].Array.IsNull(1))

	ReleaseColumns(cols)
	rec.Release()
}

func TestColumnRoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewFloat64Builder(mem)
	b.AppendValues([]float64{1.5, 0, 3}, []bool{true, false, true})
	src := b.NewArray()
	b.Release()

	var arr cdata.CArrowArray
	var schema cdata.CArrowSchema
	require.NoError(t, ExportColumn(src, &arr, &schema))

	cols, err := Import(&arr, &schema, "fallback")
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "fallback", cols[0].Name, "unnamed schema node takes the default name")
	assert.True(t, array.Equal(src, cols[0].Array))

	ReleaseColumns(cols)
	src.Release()
}

func TestImportRejectsNullPointers(t *testing.T) {
	var schema cdata.CArrowSchema
	_, err := Import(nil, &schema, "")
	assert.ErrorIs(t, err, ErrNullPointer)
	assert.ErrorIs(t, err, fault.ErrContract)

	var arr cdata.CArrowArray
	_, err = Import(&arr, nil, "")
	assert.ErrorIs(t, err, ErrNullPointer)

	assert.ErrorIs(t, ExportRecord(nil, nil, nil), ErrNullPointer)
}

func TestImportRejectsEmptyStructs(t *testing.T) {
	var arr cdata.CArrowArray
	var schema cdata.CArrowSchema
	_, err := Import(&arr, &schema, "col")
	assert.ErrorIs(t, err, ErrReleased)
	assert.NotErrorIs(t, err, fault.ErrContract)
	assert.Equal(t, "domain", fault.Class(err))

	_, _, err = ImportArray(&arr, &schema)
	assert.ErrorIs(t, err, ErrReleased)
}

func TestImportRejectsSchemaWithoutArray(t *testing.T) {
	b := array.NewInt32Builder(memory.DefaultAllocator)
	b.Append(1)
	src := b.NewArray()
	b.Release()
	defer src.Release()

	var arr cdata.CArrowArray
	var schema cdata.CArrowSchema
	require.NoError(t, ExportType(src, &schema))

	_, _, err := ImportArray(&arr, &schema)
	assert.ErrorIs(t, err, ErrReleased)
	// the live schema was released on the way out
	assert.ErrorIs(t, checkFilled(&arr, &schema), ErrReleased)
}

func TestExportTypeOnly(t *testing.T) {
	b := array.NewInt32Builder(memory.DefaultAllocator)
	b.Append(1)
	src := b.NewArray()
	b.Release()
	defer src.Release()

	var schema cdata.CArrowSchema
	require.NoError(t, ExportType(src, &schema))
	field, err := cdata.ImportCArrowField(&schema)
	require.NoError(t, err)
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int32, field.Type))
}

func TestInt64AtExactFit(t *testing.T) {
	b := array.NewUint64Builder(memory.DefaultAllocator)
	b.AppendValues([]uint64{math.MaxInt64, math.MaxInt64 + 1, 7}, []bool{true, true, false})
	arr := b.NewArray()
	b.Release()
	defer arr.Release()

	v, ok := Int64At(arr, 0)
	require.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), v)

	_, ok = Int64At(arr, 1)
	assert.False(t, ok, "uint64 above MaxInt64 has no int64 value")
	_, ok = Int64At(arr, 2)
	assert.False(t, ok, "null")
	_, ok = Int64At(arr, 3)
	assert.False(t, ok, "out of range")
}

func TestScalarHelpers(t *testing.T) {
	mem := memory.DefaultAllocator

	ib := array.NewInt32Builder(mem)
	ib.AppendValues([]int32{-4}, nil)
	ints := ib.NewArray()
	ib.Release()
	defer ints.Release()

	v, ok := Int64At(ints, 0)
	assert.True(t, ok)
	assert.Equal(t, int64(-4), v)
	f, ok := Float64At(ints, 0)
	assert.True(t, ok)
	assert.Equal(t, -4.0, f)
	s, ok := StringAt(ints, 0)
	assert.True(t, ok)
	assert.Equal(t, "-4", s)
	_, ok = BoolAt(ints, 0)
	assert.False(t, ok)

	bb := array.NewBooleanBuilder(mem)
	bb.AppendValues([]bool{true, false}, []bool{true, false})
	bools := bb.NewArray()
	bb.Release()
	defer bools.Release()

	bv, ok := BoolAt(bools, 0)
	assert.True(t, ok)
	assert.True(t, bv)
	_, ok = StringAt(bools, 1)
	assert.False(t, ok, "null string has no value")

	sb := array.NewStringBuilder(mem)
	sb.Append("hello")
	strs := sb.NewArray()
	sb.Release()
	defer strs.Release()

	s, ok = StringAt(strs, 0)
	assert.True(t, ok)
	assert.Equal(t, "hello", s)
	_, ok = Float64At(strs, 0)
	assert.False(t, ok)
}
