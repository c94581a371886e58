package bridge

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/cdata"
	"github.com/nickyhof/FrameBridge/fault"
)

// ErrNullPointer is returned when the host passes a null array or schema struct.
var ErrNullPointer = fmt.Errorf("%w: null Arrow C Data Interface pointer", fault.ErrContract)

// Column is one named array produced by Import.
type Column struct {
	Name  string
	Array arrow.Array
}

// ExportRecord fills the host-allocated structs with a struct array whose
// children are the record's columns, in order and with their names.
func ExportRecord(rec arrow.Record, outArr *cdata.CArrowArray, outSchema *cdata.CArrowSchema) error {
	if outArr == nil || outSchema == nil {
		return ErrNullPointer
	}
	cdata.ExportArrowRecordBatch(rec, outArr, outSchema)
	return nil
}

// ExportColumn fills the host-allocated structs with a single array. The
// schema node carries no name.
func ExportColumn(arr arrow.Array, outArr *cdata.CArrowArray, outSchema *cdata.CArrowSchema) error {
	if outArr == nil || outSchema == nil {
		return ErrNullPointer
	}
	cdata.ExportArrowArray(arr, outArr, outSchema)
	return nil
}

// ExportArray exports only the data of arr.
func ExportArray(arr arrow.Array, outArr *cdata.CArrowArray) error {
	if outArr == nil {
		return ErrNullPointer
	}
	cdata.ExportArrowArray(arr, outArr, nil)
	return nil
}

// ExportType exports only the schema node describing arr's type.
func ExportType(arr arrow.Array, outSchema *cdata.CArrowSchema) error {
	if outSchema == nil {
		return ErrNullPointer
	}
	var scratch cdata.CArrowArray
	cdata.ExportArrowArray(arr, &scratch, outSchema)
	cdata.ReleaseCArrowArray(&scratch)
	return nil
}

// Import takes ownership of a host-provided array and schema and returns the
// columns they describe. A struct array is split into its named children
// (parent-level nulls are not carried over); any other array becomes a single
// column named after the schema node, or defaultName when that is empty.
//
// Both structs are released before Import returns, on success and on failure.
// The caller owns the returned arrays.
func Import(arr *cdata.CArrowArray, schema *cdata.CArrowSchema, defaultName string) ([]Column, error) {
	if arr == nil || schema == nil {
		return nil, ErrNullPointer
	}
	if err := checkFilled(arr, schema); err != nil {
		cdata.ReleaseCArrowArray(arr)
		cdata.ReleaseCArrowSchema(schema)
		return nil, err
	}

	field, imported, err := cdata.ImportCArray(arr, schema)
	// import moves the array; releasing is a no-op for whatever it already took
	cdata.ReleaseCArrowArray(arr)
	cdata.ReleaseCArrowSchema(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to import Arrow array: %w", err)
	}
	defer imported.Release()

	if st, ok := imported.(*array.Struct); ok {
		stype := st.DataType().(*arrow.StructType)
		cols := make([]Column, st.NumField())
		for i := range cols {
			child := st.Field(i)
			child.Retain()
			cols[i] = Column{Name: stype.Field(i).Name, Array: child}
		}
		return cols, nil
	}

	name := field.Name
	if name == "" {
		name = defaultName
	}
	imported.Retain()
	return []Column{{Name: name, Array: imported}}, nil
}

// ImportArray is Import for callers that expect exactly one non-struct column.
func ImportArray(arr *cdata.CArrowArray, schema *cdata.CArrowSchema) (arrow.Field, arrow.Array, error) {
	if arr == nil || schema == nil {
		return arrow.Field{}, nil, ErrNullPointer
	}
	if err := checkFilled(arr, schema); err != nil {
		cdata.ReleaseCArrowArray(arr)
		cdata.ReleaseCArrowSchema(schema)
		return arrow.Field{}, nil, err
	}
	field, imported, err := cdata.ImportCArray(arr, schema)
	cdata.ReleaseCArrowArray(arr)
	cdata.ReleaseCArrowSchema(schema)
	if err != nil {
		return arrow.Field{}, nil, fmt.Errorf("failed to import Arrow array: %w", err)
	}
	return field, imported, nil
}

// ReleaseColumns releases every array in cols.
func ReleaseColumns(cols []Column) {
	for _, c := range cols {
		if c.Array != nil {
			c.Array.Release()
		}
	}
}
