package FrameBridge

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/cdata"
	"github.com/nickyhof/FrameBridge/bridge"
	"github.com/nickyhof/FrameBridge/core"
	"github.com/nickyhof/FrameBridge/fault"
	"github.com/nickyhof/FrameBridge/frame"
	"github.com/nickyhof/FrameBridge/handle"
)

// DataType is the value behind a data type handle. A nil Type stands for
// "same as input" when used as a map output type.
type DataType struct {
	Type arrow.DataType
}

func (d *DataType) Clone() *DataType {
	return &DataType{Type: d.Type}
}

func (inst *Instance) NewPrimitiveType(code core.TypeCode) handle.Handle {
	return fault.Guard(inst.barrier, "datatype_new_primitive", 0, func() (handle.Handle, error) {
		dt, err := code.ArrowType()
		if err != nil {
			return 0, err
		}
		return inst.put(core.DataTypeKind, &DataType{Type: dt}), nil
	})
}

func (inst *Instance) NewDecimalType(precision, scale int32) handle.Handle {
	return fault.Guard(inst.barrier, "datatype_new_decimal", 0, func() (handle.Handle, error) {
		dt, err := core.DecimalType(precision, scale)
		if err != nil {
			return 0, err
		}
		return inst.put(core.DataTypeKind, &DataType{Type: dt}), nil
	})
}

func (inst *Instance) CloneDataType(h handle.Handle) handle.Handle {
	return cloneHandle[*DataType](inst, "datatype_clone", h, core.DataTypeKind)
}

func (inst *Instance) FreeDataType(h handle.Handle) {
	inst.free("datatype_free", h, core.DataTypeKind)
}

// concreteType resolves a data type handle that must name an actual type.
func (inst *Instance) concreteType(h handle.Handle) (arrow.DataType, error) {
	d, err := borrow[*DataType](inst, h, core.DataTypeKind)
	if err != nil {
		return nil, err
	}
	if d.Type == nil {
		return nil, fmt.Errorf("%w: same_as_input is not a concrete type", fault.ErrContract)
	}
	return d.Type, nil
}

func (inst *Instance) newSeries(op string, build func() (*frame.Series, error)) handle.Handle {
	return fault.Guard(inst.barrier, op, 0, func() (handle.Handle, error) {
		s, err := build()
		if err != nil {
			return 0, err
		}
		return inst.put(core.SeriesKind, s), nil
	})
}

// NewSeriesInt32 builds a series from values and an optional validity mask
// (nil means no nulls).
func (inst *Instance) NewSeriesInt32(name string, vals []int32, valid []bool) handle.Handle {
	return inst.newSeries("series_new_i32", func() (*frame.Series, error) {
		return frame.Int32s(inst.env.Mem, name, vals, valid)
	})
}

func (inst *Instance) NewSeriesInt64(name string, vals []int64, valid []bool) handle.Handle {
	return inst.newSeries("series_new_i64", func() (*frame.Series, error) {
		return frame.Int64s(inst.env.Mem, name, vals, valid)
	})
}

func (inst *Instance) NewSeriesFloat64(name string, vals []float64, valid []bool) handle.Handle {
	return inst.newSeries("series_new_f64", func() (*frame.Series, error) {
		return frame.Float64s(inst.env.Mem, name, vals, valid)
	})
}

func (inst *Instance) NewSeriesBool(name string, vals []bool, valid []bool) handle.Handle {
	return inst.newSeries("series_new_bool", func() (*frame.Series, error) {
		return frame.Bools(inst.env.Mem, name, vals, valid)
	})
}

func (inst *Instance) NewSeriesString(name string, vals []string, valid []bool) handle.Handle {
	return inst.newSeries("series_new_str", func() (*frame.Series, error) {
		return frame.Strings(inst.env.Mem, name, vals, valid)
	})
}

func (inst *Instance) FreeSeries(h handle.Handle) {
	inst.free("series_free", h, core.SeriesKind)
}

func (inst *Instance) CloneSeries(h handle.Handle) handle.Handle {
	return cloneHandle[*frame.Series](inst, "series_clone", h, core.SeriesKind)
}

func (inst *Instance) SeriesLen(h handle.Handle) int {
	return fault.Guard(inst.barrier, "series_len", 0, func() (int, error) {
		s, err := borrow[*frame.Series](inst, h, core.SeriesKind)
		if err != nil {
			return 0, err
		}
		return s.Len(), nil
	})
}

func (inst *Instance) SeriesNullCount(h handle.Handle) int {
	return fault.Guard(inst.barrier, "series_null_count", 0, func() (int, error) {
		s, err := borrow[*frame.Series](inst, h, core.SeriesKind)
		if err != nil {
			return 0, err
		}
		return s.NullCount(), nil
	})
}

func (inst *Instance) SeriesName(h handle.Handle) (string, bool) {
	var ok bool
	name := fault.Guard(inst.barrier, "series_name", "", func() (string, error) {
		s, err := borrow[*frame.Series](inst, h, core.SeriesKind)
		if err != nil {
			return "", err
		}
		ok = true
		return s.Name(), nil
	})
	return name, ok
}

// RenameSeries consumes h and returns the renamed series.
func (inst *Instance) RenameSeries(h handle.Handle, name string) handle.Handle {
	return fault.Guard(inst.barrier, "series_rename", 0, func() (handle.Handle, error) {
		s, err := consume[*frame.Series](inst, h, core.SeriesKind)
		if err != nil {
			return 0, err
		}
		defer s.Release()
		return inst.put(core.SeriesKind, s.Rename(name)), nil
	})
}

// CastSeries borrows both handles and returns a converted copy.
func (inst *Instance) CastSeries(h, dtype handle.Handle) handle.Handle {
	return fault.Guard(inst.barrier, "series_cast", 0, func() (handle.Handle, error) {
		s, err := borrow[*frame.Series](inst, h, core.SeriesKind)
		if err != nil {
			return 0, err
		}
		dt, err := inst.concreteType(dtype)
		if err != nil {
			return 0, err
		}
		out, err := s.Cast(inst.env, dt)
		if err != nil {
			return 0, err
		}
		return inst.put(core.SeriesKind, out), nil
	})
}

// SeriesToArrow returns the series as one contiguous Arrow array handle.
func (inst *Instance) SeriesToArrow(h handle.Handle) handle.Handle {
	return fault.Guard(inst.barrier, "series_to_arrow", 0, func() (handle.Handle, error) {
		s, err := borrow[*frame.Series](inst, h, core.SeriesKind)
		if err != nil {
			return 0, err
		}
		arr, err := s.Contiguous(inst.env)
		if err != nil {
			return 0, err
		}
		return inst.put(core.ArrowArrayKind, arr), nil
	})
}

// ExportSeries fills the host-allocated structs with the series data.
func (inst *Instance) ExportSeries(h handle.Handle, outArr *cdata.CArrowArray, outSchema *cdata.CArrowSchema) bool {
	return fault.Guard(inst.barrier, "series_export", false, func() (bool, error) {
		s, err := borrow[*frame.Series](inst, h, core.SeriesKind)
		if err != nil {
			return false, err
		}
		arr, err := s.Contiguous(inst.env)
		if err != nil {
			return false, err
		}
		defer arr.Release()
		return true, bridge.ExportColumn(arr, outArr, outSchema)
	})
}

// SeriesFromArrow imports one column. Both structs are released by the
// call. A non-empty name replaces the schema node's name.
func (inst *Instance) SeriesFromArrow(name string, arr *cdata.CArrowArray, schema *cdata.CArrowSchema) handle.Handle {
	return fault.Guard(inst.barrier, "series_from_arrow", 0, func() (handle.Handle, error) {
		field, imported, err := bridge.ImportArray(arr, schema)
		if err != nil {
			return 0, err
		}
		defer imported.Release()
		if name == "" {
			name = field.Name
		}
		return inst.put(core.SeriesKind, frame.NewSeries(name, imported)), nil
	})
}

// SeriesToFrame wraps a borrowed series in a one-column frame.
func (inst *Instance) SeriesToFrame(h handle.Handle) handle.Handle {
	return fault.Guard(inst.barrier, "series_to_frame", 0, func() (handle.Handle, error) {
		s, err := borrow[*frame.Series](inst, h, core.SeriesKind)
		if err != nil {
			return 0, err
		}
		df, err := frame.New(inst.env, []*frame.Series{s})
		if err != nil {
			return 0, err
		}
		return inst.put(core.DataFrameKind, df), nil
	})
}

// ExportArrowArray exports the data of an array handle.
func (inst *Instance) ExportArrowArray(h handle.Handle, out *cdata.CArrowArray) bool {
	return fault.Guard(inst.barrier, "arrow_array_export", false, func() (bool, error) {
		arr, err := borrow[arrow.Array](inst, h, core.ArrowArrayKind)
		if err != nil {
			return false, err
		}
		return true, bridge.ExportArray(arr, out)
	})
}

// ExportArrowSchema exports the schema node of an array handle.
func (inst *Instance) ExportArrowSchema(h handle.Handle, out *cdata.CArrowSchema) bool {
	return fault.Guard(inst.barrier, "arrow_schema_export", false, func() (bool, error) {
		arr, err := borrow[arrow.Array](inst, h, core.ArrowArrayKind)
		if err != nil {
			return false, err
		}
		return true, bridge.ExportType(arr, out)
	})
}

func (inst *Instance) FreeArrowArray(h handle.Handle) {
	inst.free("arrow_array_free", h, core.ArrowArrayKind)
}
