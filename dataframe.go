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

func (inst *Instance) frameOp(op string, fn func() (*frame.DataFrame, error)) handle.Handle {
	return fault.Guard(inst.barrier, op, 0, func() (handle.Handle, error) {
		df, err := fn()
		if err != nil {
			return 0, err
		}
		return inst.put(core.DataFrameKind, df), nil
	})
}

func (inst *Instance) borrowFrame(h handle.Handle) (*frame.DataFrame, error) {
	return borrow[*frame.DataFrame](inst, h, core.DataFrameKind)
}

// NewDataFrame builds a frame from borrowed series handles.
func (inst *Instance) NewDataFrame(columns []handle.Handle) handle.Handle {
	return inst.frameOp("dataframe_new", func() (*frame.DataFrame, error) {
		cols := make([]*frame.Series, len(columns))
		for i, h := range columns {
			s, err := borrow[*frame.Series](inst, h, core.SeriesKind)
			if err != nil {
				return nil, fmt.Errorf("column %d: %w", i, err)
			}
			cols[i] = s
		}
		return frame.New(inst.env, cols)
	})
}

func (inst *Instance) FreeDataFrame(h handle.Handle) {
	inst.free("dataframe_free", h, core.DataFrameKind)
}

func (inst *Instance) CloneDataFrame(h handle.Handle) handle.Handle {
	return cloneHandle[*frame.DataFrame](inst, "dataframe_clone", h, core.DataFrameKind)
}

func (inst *Instance) Height(h handle.Handle) int {
	return fault.Guard(inst.barrier, "dataframe_height", 0, func() (int, error) {
		df, err := inst.borrowFrame(h)
		if err != nil {
			return 0, err
		}
		return df.Height(), nil
	})
}

func (inst *Instance) Width(h handle.Handle) int {
	return fault.Guard(inst.barrier, "dataframe_width", 0, func() (int, error) {
		df, err := inst.borrowFrame(h)
		if err != nil {
			return 0, err
		}
		return df.Width(), nil
	})
}

func (inst *Instance) ColumnName(h handle.Handle, i int) (string, bool) {
	var ok bool
	name := fault.Guard(inst.barrier, "dataframe_column_name", "", func() (string, error) {
		df, err := inst.borrowFrame(h)
		if err != nil {
			return "", err
		}
		if i < 0 || i >= df.Width() {
			return "", fmt.Errorf("%w: index %d out of range for %d columns", frame.ErrColumnNotFound, i, df.Width())
		}
		ok = true
		return df.Schema().Field(i).Name, nil
	})
	return name, ok
}

func (inst *Instance) Column(h handle.Handle, name string) handle.Handle {
	return fault.Guard(inst.barrier, "dataframe_column", 0, func() (handle.Handle, error) {
		df, err := inst.borrowFrame(h)
		if err != nil {
			return 0, err
		}
		s, err := df.Column(name)
		if err != nil {
			return 0, err
		}
		return inst.put(core.SeriesKind, s), nil
	})
}

func (inst *Instance) ColumnAt(h handle.Handle, i int) handle.Handle {
	return fault.Guard(inst.barrier, "dataframe_column_at", 0, func() (handle.Handle, error) {
		df, err := inst.borrowFrame(h)
		if err != nil {
			return 0, err
		}
		s, err := df.ColumnAt(i)
		if err != nil {
			return 0, err
		}
		return inst.put(core.SeriesKind, s), nil
	})
}

// cellValue reads one cell with an exact-fit extractor. A missing column or
// row is an error; a null or a value that does not fit is simply absent.
func cellValue[T any](inst *Instance, op string, h handle.Handle, name string, row int, at func(arrow.Array, int) (T, bool)) (T, bool) {
	var ok bool
	var zero T
	v := fault.Guard(inst.barrier, op, zero, func() (T, error) {
		df, err := inst.borrowFrame(h)
		if err != nil {
			return zero, err
		}
		arr, i, err := df.Cell(name, row)
		if err != nil {
			return zero, err
		}
		var v T
		v, ok = at(arr, i)
		return v, nil
	})
	return v, ok
}

// GetInt64 reads an integer cell. Values that do not fit in int64 are absent.
func (inst *Instance) GetInt64(h handle.Handle, name string, row int) (int64, bool) {
	return cellValue(inst, "dataframe_get_i64", h, name, row, bridge.Int64At)
}

func (inst *Instance) GetFloat64(h handle.Handle, name string, row int) (float64, bool) {
	return cellValue(inst, "dataframe_get_f64", h, name, row, bridge.Float64At)
}

func (inst *Instance) GetBool(h handle.Handle, name string, row int) (bool, bool) {
	return cellValue(inst, "dataframe_get_bool", h, name, row, bridge.BoolAt)
}

func (inst *Instance) GetString(h handle.Handle, name string, row int) (string, bool) {
	return cellValue(inst, "dataframe_get_string", h, name, row, bridge.StringAt)
}

// ExportDataFrame fills the host-allocated structs with a struct array whose
// children are the frame's columns.
func (inst *Instance) ExportDataFrame(h handle.Handle, outArr *cdata.CArrowArray, outSchema *cdata.CArrowSchema) bool {
	return fault.Guard(inst.barrier, "dataframe_to_arrow", false, func() (bool, error) {
		df, err := inst.borrowFrame(h)
		if err != nil {
			return false, err
		}
		rec, err := df.Record(inst.env)
		if err != nil {
			return false, err
		}
		defer rec.Release()
		return true, bridge.ExportRecord(rec, outArr, outSchema)
	})
}

// ImportDataFrame builds a frame from a host struct array. Both structs are
// released by the call. A non-struct array becomes a single column.
func (inst *Instance) ImportDataFrame(arr *cdata.CArrowArray, schema *cdata.CArrowSchema) handle.Handle {
	return inst.frameOp("dataframe_from_arrow", func() (*frame.DataFrame, error) {
		cols, err := bridge.Import(arr, schema, "column_0")
		if err != nil {
			return nil, err
		}
		defer bridge.ReleaseColumns(cols)

		series := make([]*frame.Series, len(cols))
		for i, c := range cols {
			series[i] = frame.NewSeries(c.Name, c.Array)
		}
		defer func() {
			for _, s := range series {
				s.Release()
			}
		}()
		return frame.New(inst.env, series)
	})
}

// DataFrameString renders the frame as a table.
func (inst *Instance) DataFrameString(h handle.Handle) (string, bool) {
	var ok bool
	s := fault.Guard(inst.barrier, "dataframe_to_string", "", func() (string, error) {
		df, err := inst.borrowFrame(h)
		if err != nil {
			return "", err
		}
		ok = true
		return df.String(), nil
	})
	return s, ok
}

// Lazy starts a plan over a borrowed frame.
func (inst *Instance) Lazy(h handle.Handle) handle.Handle {
	return fault.Guard(inst.barrier, "dataframe_lazy", 0, func() (handle.Handle, error) {
		df, err := inst.borrowFrame(h)
		if err != nil {
			return 0, err
		}
		return inst.put(core.LazyFrameKind, df.Lazy()), nil
	})
}

func (inst *Instance) Head(h handle.Handle, n int) handle.Handle {
	return inst.frameOp("head", func() (*frame.DataFrame, error) {
		df, err := inst.borrowFrame(h)
		if err != nil {
			return nil, err
		}
		return df.Head(n), nil
	})
}

func (inst *Instance) Tail(h handle.Handle, n int) handle.Handle {
	return inst.frameOp("tail", func() (*frame.DataFrame, error) {
		df, err := inst.borrowFrame(h)
		if err != nil {
			return nil, err
		}
		return df.Tail(n), nil
	})
}

// The eager transforms borrow the frame and consume the expression handles.
// A frame handle that fails to resolve leaves the expressions untouched.

func (inst *Instance) Filter(h, predicate handle.Handle) handle.Handle {
	return inst.frameOp("filter", func() (*frame.DataFrame, error) {
		df, err := inst.borrowFrame(h)
		if err != nil {
			return nil, err
		}
		exprs, err := inst.takeExprs(predicate)
		if err != nil {
			return nil, err
		}
		return frame.Filter(inst.env, df, exprs[0])
	})
}

func (inst *Instance) Select(h handle.Handle, exprs []handle.Handle) handle.Handle {
	return inst.frameOp("select", func() (*frame.DataFrame, error) {
		df, err := inst.borrowFrame(h)
		if err != nil {
			return nil, err
		}
		es, err := inst.takeExprs(exprs...)
		if err != nil {
			return nil, err
		}
		return frame.Select(inst.env, df, es...)
	})
}

func (inst *Instance) WithColumns(h handle.Handle, exprs []handle.Handle) handle.Handle {
	return inst.frameOp("with_columns", func() (*frame.DataFrame, error) {
		df, err := inst.borrowFrame(h)
		if err != nil {
			return nil, err
		}
		es, err := inst.takeExprs(exprs...)
		if err != nil {
			return nil, err
		}
		return frame.WithColumns(inst.env, df, es...)
	})
}

// Sort orders rows by the key expressions. descending holds one flag per
// key or a single flag for all keys.
func (inst *Instance) Sort(h handle.Handle, by []handle.Handle, descending []bool) handle.Handle {
	return inst.frameOp("sort", func() (*frame.DataFrame, error) {
		df, err := inst.borrowFrame(h)
		if err != nil {
			return nil, err
		}
		keys, err := inst.takeExprs(by...)
		if err != nil {
			return nil, err
		}
		return frame.Sort(inst.env, df, keys, descending)
	})
}

func (inst *Instance) GroupByAgg(h handle.Handle, keys, aggs []handle.Handle) handle.Handle {
	return inst.frameOp("groupby_agg", func() (*frame.DataFrame, error) {
		df, err := inst.borrowFrame(h)
		if err != nil {
			return nil, err
		}
		es, err := inst.takeExprs(append(append([]handle.Handle(nil), keys...), aggs...)...)
		if err != nil {
			return nil, err
		}
		return frame.GroupByAgg(inst.env, df, es[:len(keys)], es[len(keys):])
	})
}

// Join borrows both frames and consumes the key expressions.
func (inst *Instance) Join(left, right handle.Handle, leftOn, rightOn []handle.Handle, how core.JoinType) handle.Handle {
	return inst.frameOp("join", func() (*frame.DataFrame, error) {
		l, err := inst.borrowFrame(left)
		if err != nil {
			return nil, err
		}
		r, err := inst.borrowFrame(right)
		if err != nil {
			return nil, err
		}
		es, err := inst.takeExprs(append(append([]handle.Handle(nil), leftOn...), rightOn...)...)
		if err != nil {
			return nil, err
		}
		return frame.Join(inst.env, l, r, es[:len(leftOn)], es[len(leftOn):], how)
	})
}

// Concat consumes every frame handle.
func (inst *Instance) Concat(frames []handle.Handle, how core.ConcatHow) handle.Handle {
	return inst.frameOp("concat", func() (*frame.DataFrame, error) {
		claims := make([]handle.Claim, len(frames))
		for i, h := range frames {
			claims[i] = handle.Claim{Handle: h, Kind: core.DataFrameKind}
		}
		vals, err := inst.handles.ConsumeAll(claims...)
		if err != nil {
			return nil, err
		}
		dfs := make([]*frame.DataFrame, len(vals))
		for i, v := range vals {
			dfs[i] = v.(*frame.DataFrame)
		}
		defer func() {
			for _, df := range dfs {
				df.Release()
			}
		}()
		return frame.Concat(inst.env, dfs, how)
	})
}
