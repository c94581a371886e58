package core

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// TypeCode is the numeric column type code hosts use to describe a data type.
type TypeCode int32

const (
	SameAsInput TypeCode = iota
	BoolType
	Int8Type
	Int16Type
	Int32Type
	Int64Type
	UInt8Type
	UInt16Type
	UInt32Type
	UInt64Type
	Float32Type
	Float64Type
	StringType
	DateType
	TimestampType
	TimeType
	DurationType
	BinaryType
)

var typeNames = map[TypeCode]string{
	SameAsInput:   "same_as_input",
	BoolType:      "bool",
	Int8Type:      "int8",
	Int16Type:     "int16",
	Int32Type:     "int32",
	Int64Type:     "int64",
	UInt8Type:     "uint8",
	UInt16Type:    "uint16",
	UInt32Type:    "uint32",
	UInt64Type:    "uint64",
	Float32Type:   "float32",
	Float64Type:   "float64",
	StringType:    "string",
	DateType:      "date",
	TimestampType: "timestamp[us]",
	TimeType:      "time[us]",
	DurationType:  "duration[us]",
	BinaryType:    "binary",
}

func (code TypeCode) String() string {
	if name, ok := typeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("TypeCode(%d)", int32(code))
}

// ArrowType maps a code to its Arrow data type. SameAsInput maps to nil.
func (code TypeCode) ArrowType() (arrow.DataType, error) {
	switch code {
	case SameAsInput:
		return nil, nil
	case BoolType:
		return arrow.FixedWidthTypes.Boolean, nil
	case Int8Type:
		return arrow.PrimitiveTypes.Int8, nil
	case Int16Type:
		return arrow.PrimitiveTypes.Int16, nil
	case Int32Type:
		return arrow.PrimitiveTypes.Int32, nil
	case Int64Type:
		return arrow.PrimitiveTypes.Int64, nil
	case UInt8Type:
		return arrow.PrimitiveTypes.Uint8, nil
	case UInt16Type:
		return arrow.PrimitiveTypes.Uint16, nil
	case UInt32Type:
		return arrow.PrimitiveTypes.Uint32, nil
	case UInt64Type:
		return arrow.PrimitiveTypes.Uint64, nil
	case Float32Type:
		return arrow.PrimitiveTypes.Float32, nil
	case Float64Type:
		return arrow.PrimitiveTypes.Float64, nil
	case StringType:
		return arrow.BinaryTypes.String, nil
	case DateType:
		return arrow.FixedWidthTypes.Date32, nil
	case TimestampType:
		return arrow.FixedWidthTypes.Timestamp_us, nil
	case TimeType:
		return arrow.FixedWidthTypes.Time64us, nil
	case DurationType:
		return arrow.FixedWidthTypes.Duration_us, nil
	case BinaryType:
		return arrow.BinaryTypes.Binary, nil
	default:
		return nil, fmt.Errorf("unknown type code %d", int32(code))
	}
}

// DecimalType builds a 128-bit decimal type, validating precision and scale.
func DecimalType(precision, scale int32) (arrow.DataType, error) {
	if precision < 1 || precision > 38 {
		return nil, fmt.Errorf("decimal precision %d out of range [1, 38]", precision)
	}
	if scale < 0 || scale > precision {
		return nil, fmt.Errorf("decimal scale %d out of range [0, %d]", scale, precision)
	}
	return &arrow.Decimal128Type{Precision: precision, Scale: scale}, nil
}
