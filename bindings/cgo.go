package main

/*
#include <stdlib.h>
#include "framebridge.h"
*/
import "C"
import (
	"fmt"
	"os"
	"slices"
	"sync"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/cdata"
	"github.com/nickyhof/FrameBridge"
	"github.com/nickyhof/FrameBridge/config"
	"github.com/nickyhof/FrameBridge/core"
	"github.com/nickyhof/FrameBridge/fault"
	"github.com/nickyhof/FrameBridge/frame"
	"github.com/nickyhof/FrameBridge/handle"
)

// lib is the process-wide instance, configured from FRAMEBRIDGE_* variables
// and the optional FRAMEBRIDGE_CONFIG file on first use.
var lib = sync.OnceValue(func() *FrameBridge.Instance {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "framebridge: %v, using defaults\n", err)
		cfg = config.Default()
	}
	return FrameBridge.Open(cfg)
})

// guardExport runs an export's argument conversion and its engine call
// behind the barrier, so a bad pointer or length from the host is reported
// through the error slot instead of unwinding into C.
func guardExport[T any](op string, sentinel T, fn func() (T, error)) T {
	return FrameBridge.Boundary(lib(), op, sentinel, fn)
}

// maxArrayBytes bounds the size of a host array; unsafe.Slice panics on
// lengths well below math.MaxInt.
const maxArrayBytes = 1 << 40

func contract(what string) error {
	return fmt.Errorf("%w: %s", fault.ErrContract, what)
}

func h(v C.fb_handle) handle.Handle { return handle.Handle(v) }
func ch(v handle.Handle) C.fb_handle { return C.fb_handle(v) }

func goString(s *C.char) (string, error) {
	if s == nil {
		return "", contract("null string")
	}
	return C.GoString(s), nil
}

// cString copies s for the host, which frees it with fb_free_string.
func cString(s string, ok bool) *C.char {
	if !ok {
		return nil
	}
	return C.CString(s)
}

// cSlice copies n values of T starting at p.
func cSlice[T any](p unsafe.Pointer, n C.size_t) ([]T, error) {
	if n == 0 {
		return nil, nil
	}
	if p == nil {
		return nil, contract("null array with non-zero length")
	}
	var zero T
	if uint64(n) > maxArrayBytes/uint64(unsafe.Sizeof(zero)) {
		return nil, contract(fmt.Sprintf("array length %d out of range", uint64(n)))
	}
	return slices.Clone(unsafe.Slice((*T)(p), int(n))), nil
}

func handles(p *C.fb_handle, n C.size_t) ([]handle.Handle, error) {
	return cSlice[handle.Handle](unsafe.Pointer(p), n)
}

// validity reads an optional mask; NULL means every value is valid.
func validity(p *C.bool, n C.size_t) ([]bool, error) {
	if p == nil {
		return nil, nil
	}
	return cSlice[bool](unsafe.Pointer(p), n)
}

// stringColumn reads n C strings; a NULL entry is a null value.
func stringColumn(p **C.char, n C.size_t) ([]string, []bool, error) {
	ptrs, err := cSlice[*C.char](unsafe.Pointer(p), n)
	if err != nil {
		return nil, nil, err
	}
	vals := make([]string, len(ptrs))
	valid := make([]bool, len(ptrs))
	for i, s := range ptrs {
		if s != nil {
			vals[i], valid[i] = C.GoString(s), true
		}
	}
	return vals, valid, nil
}

// names reads n C strings, none of which may be NULL.
func names(p **C.char, n C.size_t) ([]string, error) {
	vals, valid, err := stringColumn(p, n)
	if err != nil {
		return nil, err
	}
	if slices.Contains(valid, false) {
		return nil, contract("null string in name list")
	}
	return vals, nil
}

func arrowArray(p *C.struct_ArrowArray) *cdata.CArrowArray {
	return (*cdata.CArrowArray)(unsafe.Pointer(p))
}

func arrowSchema(p *C.struct_ArrowSchema) *cdata.CArrowSchema {
	return (*cdata.CArrowSchema)(unsafe.Pointer(p))
}

// Errors

//export fb_last_error
func fb_last_error() *C.char {
	return cString(lib().LastError())
}

//export fb_free_string
func fb_free_string(s *C.char) {
	C.free(unsafe.Pointer(s))
}

//export fb_metrics_text
func fb_metrics_text() *C.char {
	return C.CString(lib().MetricsText())
}

//export fb_live_handles
func fb_live_handles() C.size_t {
	return C.size_t(lib().LiveHandles())
}

// Data types

//export fb_datatype_new_primitive
func fb_datatype_new_primitive(code C.int32_t) C.fb_handle {
	return ch(lib().NewPrimitiveType(core.TypeCode(code)))
}

//export fb_datatype_new_decimal
func fb_datatype_new_decimal(precision, scale C.int32_t) C.fb_handle {
	return ch(lib().NewDecimalType(int32(precision), int32(scale)))
}

//export fb_datatype_clone
func fb_datatype_clone(dt C.fb_handle) C.fb_handle {
	return ch(lib().CloneDataType(h(dt)))
}

//export fb_datatype_free
func fb_datatype_free(dt C.fb_handle) {
	lib().FreeDataType(h(dt))
}

// Series

func newSeries[T any](op string, name *C.char, values unsafe.Pointer, valid *C.bool, n C.size_t,
	build func(string, []T, []bool) handle.Handle) C.fb_handle {
	return guardExport(op, 0, func() (C.fb_handle, error) {
		goName, err := goString(name)
		if err != nil {
			return 0, err
		}
		vals, err := cSlice[T](values, n)
		if err != nil {
			return 0, err
		}
		mask, err := validity(valid, n)
		if err != nil {
			return 0, err
		}
		return ch(build(goName, vals, mask)), nil
	})
}

//export fb_series_new_i32
func fb_series_new_i32(name *C.char, values *C.int32_t, valid *C.bool, n C.size_t) C.fb_handle {
	return newSeries("series_new_i32", name, unsafe.Pointer(values), valid, n, lib().NewSeriesInt32)
}

//export fb_series_new_i64
func fb_series_new_i64(name *C.char, values *C.int64_t, valid *C.bool, n C.size_t) C.fb_handle {
	return newSeries("series_new_i64", name, unsafe.Pointer(values), valid, n, lib().NewSeriesInt64)
}

//export fb_series_new_f64
func fb_series_new_f64(name *C.char, values *C.double, valid *C.bool, n C.size_t) C.fb_handle {
	return newSeries("series_new_f64", name, unsafe.Pointer(values), valid, n, lib().NewSeriesFloat64)
}

//export fb_series_new_bool
func fb_series_new_bool(name *C.char, values *C.bool, valid *C.bool, n C.size_t) C.fb_handle {
	return newSeries("series_new_bool", name, unsafe.Pointer(values), valid, n, lib().NewSeriesBool)
}

//export fb_series_new_str
func fb_series_new_str(name *C.char, values **C.char, n C.size_t) C.fb_handle {
	return guardExport("series_new_str", 0, func() (C.fb_handle, error) {
		goName, err := goString(name)
		if err != nil {
			return 0, err
		}
		vals, valid, err := stringColumn(values, n)
		if err != nil {
			return 0, err
		}
		return ch(lib().NewSeriesString(goName, vals, valid)), nil
	})
}

//export fb_series_free
func fb_series_free(s C.fb_handle) {
	lib().FreeSeries(h(s))
}

//export fb_series_clone
func fb_series_clone(s C.fb_handle) C.fb_handle {
	return ch(lib().CloneSeries(h(s)))
}

//export fb_series_len
func fb_series_len(s C.fb_handle) C.size_t {
	return C.size_t(lib().SeriesLen(h(s)))
}

//export fb_series_null_count
func fb_series_null_count(s C.fb_handle) C.size_t {
	return C.size_t(lib().SeriesNullCount(h(s)))
}

//export fb_series_name
func fb_series_name(s C.fb_handle) *C.char {
	return cString(lib().SeriesName(h(s)))
}

//export fb_series_rename
func fb_series_rename(s C.fb_handle, name *C.char) C.fb_handle {
	return guardExport("series_rename", 0, func() (C.fb_handle, error) {
		goName, err := goString(name)
		if err != nil {
			return 0, err
		}
		return ch(lib().RenameSeries(h(s), goName)), nil
	})
}

//export fb_series_cast
func fb_series_cast(s, dt C.fb_handle) C.fb_handle {
	return ch(lib().CastSeries(h(s), h(dt)))
}

//export fb_series_to_arrow
func fb_series_to_arrow(s C.fb_handle) C.fb_handle {
	return ch(lib().SeriesToArrow(h(s)))
}

//export fb_series_export
func fb_series_export(s C.fb_handle, out *C.struct_ArrowArray, outSchema *C.struct_ArrowSchema) C.bool {
	return C.bool(lib().ExportSeries(h(s), arrowArray(out), arrowSchema(outSchema)))
}

// fb_series_from_arrow takes ownership of both structs. name may be NULL to
// keep the schema's name.
//
//export fb_series_from_arrow
func fb_series_from_arrow(name *C.char, arr *C.struct_ArrowArray, schema *C.struct_ArrowSchema) C.fb_handle {
	return guardExport("series_from_arrow", 0, func() (C.fb_handle, error) {
		var goName string
		if name != nil {
			goName = C.GoString(name)
		}
		return ch(lib().SeriesFromArrow(goName, arrowArray(arr), arrowSchema(schema))), nil
	})
}

//export fb_series_to_frame
func fb_series_to_frame(s C.fb_handle) C.fb_handle {
	return ch(lib().SeriesToFrame(h(s)))
}

// Arrow arrays

//export fb_arrow_array_export
func fb_arrow_array_export(a C.fb_handle, out *C.struct_ArrowArray) C.bool {
	return C.bool(lib().ExportArrowArray(h(a), arrowArray(out)))
}

//export fb_arrow_schema_export
func fb_arrow_schema_export(a C.fb_handle, out *C.struct_ArrowSchema) C.bool {
	return C.bool(lib().ExportArrowSchema(h(a), arrowSchema(out)))
}

//export fb_arrow_array_free
func fb_arrow_array_free(a C.fb_handle) {
	lib().FreeArrowArray(h(a))
}

// DataFrame

//export fb_dataframe_new
func fb_dataframe_new(columns *C.fb_handle, n C.size_t) C.fb_handle {
	return guardExport("dataframe_new", 0, func() (C.fb_handle, error) {
		cols, err := handles(columns, n)
		if err != nil {
			return 0, err
		}
		return ch(lib().NewDataFrame(cols)), nil
	})
}

//export fb_dataframe_free
func fb_dataframe_free(df C.fb_handle) {
	lib().FreeDataFrame(h(df))
}

//export fb_dataframe_clone
func fb_dataframe_clone(df C.fb_handle) C.fb_handle {
	return ch(lib().CloneDataFrame(h(df)))
}

//export fb_dataframe_height
func fb_dataframe_height(df C.fb_handle) C.size_t {
	return C.size_t(lib().Height(h(df)))
}

//export fb_dataframe_width
func fb_dataframe_width(df C.fb_handle) C.size_t {
	return C.size_t(lib().Width(h(df)))
}

//export fb_dataframe_column_name
func fb_dataframe_column_name(df C.fb_handle, i C.size_t) *C.char {
	return cString(lib().ColumnName(h(df), int(i)))
}

//export fb_dataframe_column
func fb_dataframe_column(df C.fb_handle, name *C.char) C.fb_handle {
	return guardExport("dataframe_column", 0, func() (C.fb_handle, error) {
		goName, err := goString(name)
		if err != nil {
			return 0, err
		}
		return ch(lib().Column(h(df), goName)), nil
	})
}

//export fb_dataframe_column_at
func fb_dataframe_column_at(df C.fb_handle, i C.size_t) C.fb_handle {
	return ch(lib().ColumnAt(h(df), int(i)))
}

// getCell stores a cell in *out and reports whether it had a value.
func getCell[T, O any](op string, df C.fb_handle, column *C.char, row C.size_t, out *O,
	get func(handle.Handle, string, int) (T, bool), conv func(T) O) C.bool {
	return guardExport(op, false, func() (C.bool, error) {
		name, err := goString(column)
		if err != nil {
			return false, err
		}
		if out == nil {
			return false, contract("null output pointer")
		}
		v, ok := get(h(df), name, int(row))
		if ok {
			*out = conv(v)
		}
		return C.bool(ok), nil
	})
}

//export fb_dataframe_get_i64
func fb_dataframe_get_i64(df C.fb_handle, column *C.char, row C.size_t, out *C.int64_t) C.bool {
	return getCell("dataframe_get_i64", df, column, row, out, lib().GetInt64, func(v int64) C.int64_t { return C.int64_t(v) })
}

//export fb_dataframe_get_f64
func fb_dataframe_get_f64(df C.fb_handle, column *C.char, row C.size_t, out *C.double) C.bool {
	return getCell("dataframe_get_f64", df, column, row, out, lib().GetFloat64, func(v float64) C.double { return C.double(v) })
}

//export fb_dataframe_get_bool
func fb_dataframe_get_bool(df C.fb_handle, column *C.char, row C.size_t, out *C.bool) C.bool {
	return getCell("dataframe_get_bool", df, column, row, out, lib().GetBool, func(v bool) C.bool { return C.bool(v) })
}

// fb_dataframe_get_string returns NULL for a null cell or on failure.
//
//export fb_dataframe_get_string
func fb_dataframe_get_string(df C.fb_handle, column *C.char, row C.size_t) *C.char {
	return guardExport("dataframe_get_string", nil, func() (*C.char, error) {
		name, err := goString(column)
		if err != nil {
			return nil, err
		}
		return cString(lib().GetString(h(df), name, int(row))), nil
	})
}

//export fb_dataframe_to_arrow
func fb_dataframe_to_arrow(df C.fb_handle, out *C.struct_ArrowArray, outSchema *C.struct_ArrowSchema) C.bool {
	return C.bool(lib().ExportDataFrame(h(df), arrowArray(out), arrowSchema(outSchema)))
}

// fb_dataframe_from_arrow takes ownership of both structs.
//
//export fb_dataframe_from_arrow
func fb_dataframe_from_arrow(arr *C.struct_ArrowArray, schema *C.struct_ArrowSchema) C.fb_handle {
	return ch(lib().ImportDataFrame(arrowArray(arr), arrowSchema(schema)))
}

//export fb_dataframe_to_string
func fb_dataframe_to_string(df C.fb_handle) *C.char {
	return cString(lib().DataFrameString(h(df)))
}

//export fb_dataframe_lazy
func fb_dataframe_lazy(df C.fb_handle) C.fb_handle {
	return ch(lib().Lazy(h(df)))
}

//export fb_head
func fb_head(df C.fb_handle, n C.size_t) C.fb_handle {
	return ch(lib().Head(h(df), int(n)))
}

//export fb_tail
func fb_tail(df C.fb_handle, n C.size_t) C.fb_handle {
	return ch(lib().Tail(h(df), int(n)))
}

//export fb_filter
func fb_filter(df, predicate C.fb_handle) C.fb_handle {
	return ch(lib().Filter(h(df), h(predicate)))
}

//export fb_select
func fb_select(df C.fb_handle, exprs *C.fb_handle, n C.size_t) C.fb_handle {
	return guardExport("select", 0, func() (C.fb_handle, error) {
		es, err := handles(exprs, n)
		if err != nil {
			return 0, err
		}
		return ch(lib().Select(h(df), es)), nil
	})
}

//export fb_with_columns
func fb_with_columns(df C.fb_handle, exprs *C.fb_handle, n C.size_t) C.fb_handle {
	return guardExport("with_columns", 0, func() (C.fb_handle, error) {
		es, err := handles(exprs, n)
		if err != nil {
			return 0, err
		}
		return ch(lib().WithColumns(h(df), es)), nil
	})
}

//export fb_sort
func fb_sort(df C.fb_handle, by *C.fb_handle, n C.size_t, descending *C.bool, nDesc C.size_t) C.fb_handle {
	return guardExport("sort", 0, func() (C.fb_handle, error) {
		keys, err := handles(by, n)
		if err != nil {
			return 0, err
		}
		desc, err := cSlice[bool](unsafe.Pointer(descending), nDesc)
		if err != nil {
			return 0, err
		}
		return ch(lib().Sort(h(df), keys, desc)), nil
	})
}

//export fb_concat
func fb_concat(frames *C.fb_handle, n C.size_t, how C.int32_t) C.fb_handle {
	return guardExport("concat", 0, func() (C.fb_handle, error) {
		dfs, err := handles(frames, n)
		if err != nil {
			return 0, err
		}
		return ch(lib().Concat(dfs, core.ConcatHow(how))), nil
	})
}

//export fb_groupby_agg
func fb_groupby_agg(df C.fb_handle, keys *C.fb_handle, nKeys C.size_t, aggs *C.fb_handle, nAggs C.size_t) C.fb_handle {
	return guardExport("groupby_agg", 0, func() (C.fb_handle, error) {
		ks, err := handles(keys, nKeys)
		if err != nil {
			return 0, err
		}
		as, err := handles(aggs, nAggs)
		if err != nil {
			return 0, err
		}
		return ch(lib().GroupByAgg(h(df), ks, as)), nil
	})
}

//export fb_join
func fb_join(left, right C.fb_handle, leftOn *C.fb_handle, nLeft C.size_t, rightOn *C.fb_handle, nRight C.size_t, how C.int32_t) C.fb_handle {
	return guardExport("join", 0, func() (C.fb_handle, error) {
		lo, err := handles(leftOn, nLeft)
		if err != nil {
			return 0, err
		}
		ro, err := handles(rightOn, nRight)
		if err != nil {
			return 0, err
		}
		return ch(lib().Join(h(left), h(right), lo, ro, core.JoinType(how))), nil
	})
}

// Expressions

//export fb_expr_col
func fb_expr_col(name *C.char) C.fb_handle {
	return guardExport("expr_col", 0, func() (C.fb_handle, error) {
		goName, err := goString(name)
		if err != nil {
			return 0, err
		}
		return ch(lib().ExprCol(goName)), nil
	})
}

//export fb_expr_lit_i32
func fb_expr_lit_i32(v C.int32_t) C.fb_handle { return ch(lib().ExprLitInt32(int32(v))) }

//export fb_expr_lit_i64
func fb_expr_lit_i64(v C.int64_t) C.fb_handle { return ch(lib().ExprLitInt64(int64(v))) }

//export fb_expr_lit_f64
func fb_expr_lit_f64(v C.double) C.fb_handle { return ch(lib().ExprLitFloat64(float64(v))) }

//export fb_expr_lit_bool
func fb_expr_lit_bool(v C.bool) C.fb_handle { return ch(lib().ExprLitBool(bool(v))) }

//export fb_expr_lit_null
func fb_expr_lit_null() C.fb_handle { return ch(lib().ExprLitNull()) }

//export fb_expr_lit_datetime
func fb_expr_lit_datetime(micros C.int64_t) C.fb_handle {
	return ch(lib().ExprLitDatetime(int64(micros)))
}

//export fb_expr_lit_str
func fb_expr_lit_str(v *C.char) C.fb_handle {
	return guardExport("expr_lit_str", 0, func() (C.fb_handle, error) {
		s, err := goString(v)
		if err != nil {
			return 0, err
		}
		return ch(lib().ExprLitString(s)), nil
	})
}

func binary(op frame.BinaryOp, l, r C.fb_handle) C.fb_handle {
	return ch(lib().ExprBinary(op, h(l), h(r)))
}

//export fb_expr_eq
func fb_expr_eq(l, r C.fb_handle) C.fb_handle { return binary(frame.OpEq, l, r) }

//export fb_expr_neq
func fb_expr_neq(l, r C.fb_handle) C.fb_handle { return binary(frame.OpNotEq, l, r) }

//export fb_expr_gt
func fb_expr_gt(l, r C.fb_handle) C.fb_handle { return binary(frame.OpGt, l, r) }

//export fb_expr_gt_eq
func fb_expr_gt_eq(l, r C.fb_handle) C.fb_handle { return binary(frame.OpGtEq, l, r) }

//export fb_expr_lt
func fb_expr_lt(l, r C.fb_handle) C.fb_handle { return binary(frame.OpLt, l, r) }

//export fb_expr_lt_eq
func fb_expr_lt_eq(l, r C.fb_handle) C.fb_handle { return binary(frame.OpLtEq, l, r) }

//export fb_expr_add
func fb_expr_add(l, r C.fb_handle) C.fb_handle { return binary(frame.OpAdd, l, r) }

//export fb_expr_sub
func fb_expr_sub(l, r C.fb_handle) C.fb_handle { return binary(frame.OpSub, l, r) }

//export fb_expr_mul
func fb_expr_mul(l, r C.fb_handle) C.fb_handle { return binary(frame.OpMul, l, r) }

//export fb_expr_div
func fb_expr_div(l, r C.fb_handle) C.fb_handle { return binary(frame.OpDiv, l, r) }

//export fb_expr_and
func fb_expr_and(l, r C.fb_handle) C.fb_handle { return binary(frame.OpAnd, l, r) }

//export fb_expr_or
func fb_expr_or(l, r C.fb_handle) C.fb_handle { return binary(frame.OpOr, l, r) }

//export fb_expr_xor
func fb_expr_xor(l, r C.fb_handle) C.fb_handle { return binary(frame.OpXor, l, r) }

//export fb_expr_not
func fb_expr_not(e C.fb_handle) C.fb_handle { return ch(lib().ExprNot(h(e))) }

//export fb_expr_is_null
func fb_expr_is_null(e C.fb_handle) C.fb_handle { return ch(lib().ExprIsNull(h(e))) }

//export fb_expr_is_not_null
func fb_expr_is_not_null(e C.fb_handle) C.fb_handle { return ch(lib().ExprIsNotNull(h(e))) }

//export fb_expr_sum
func fb_expr_sum(e C.fb_handle) C.fb_handle { return ch(lib().ExprAgg(frame.AggSum, h(e))) }

//export fb_expr_mean
func fb_expr_mean(e C.fb_handle) C.fb_handle { return ch(lib().ExprAgg(frame.AggMean, h(e))) }

//export fb_expr_min
func fb_expr_min(e C.fb_handle) C.fb_handle { return ch(lib().ExprAgg(frame.AggMin, h(e))) }

//export fb_expr_max
func fb_expr_max(e C.fb_handle) C.fb_handle { return ch(lib().ExprAgg(frame.AggMax, h(e))) }

//export fb_expr_count
func fb_expr_count(e C.fb_handle) C.fb_handle { return ch(lib().ExprAgg(frame.AggCount, h(e))) }

//export fb_expr_len
func fb_expr_len(e C.fb_handle) C.fb_handle { return ch(lib().ExprAgg(frame.AggLen, h(e))) }

//export fb_expr_first
func fb_expr_first(e C.fb_handle) C.fb_handle { return ch(lib().ExprAgg(frame.AggFirst, h(e))) }

//export fb_expr_last
func fb_expr_last(e C.fb_handle) C.fb_handle { return ch(lib().ExprAgg(frame.AggLast, h(e))) }

//export fb_expr_fill_null
func fb_expr_fill_null(e, fill C.fb_handle) C.fb_handle {
	return ch(lib().ExprFillNull(h(e), h(fill)))
}

//export fb_expr_is_between
func fb_expr_is_between(e, lower, upper C.fb_handle) C.fb_handle {
	return ch(lib().ExprIsBetween(h(e), h(lower), h(upper)))
}

//export fb_expr_alias
func fb_expr_alias(e C.fb_handle, name *C.char) C.fb_handle {
	return guardExport("expr_alias", 0, func() (C.fb_handle, error) {
		goName, err := goString(name)
		if err != nil {
			return 0, err
		}
		return ch(lib().ExprAlias(h(e), goName)), nil
	})
}

//export fb_expr_cast
func fb_expr_cast(e, dt C.fb_handle) C.fb_handle {
	return ch(lib().ExprCast(h(e), h(dt)))
}

//export fb_expr_str_contains
func fb_expr_str_contains(e C.fb_handle, pattern *C.char) C.fb_handle {
	return guardExport("expr_str_contains", 0, func() (C.fb_handle, error) {
		p, err := goString(pattern)
		if err != nil {
			return 0, err
		}
		return ch(lib().ExprStrContains(h(e), p)), nil
	})
}

//export fb_expr_str_to_upper
func fb_expr_str_to_upper(e C.fb_handle) C.fb_handle { return ch(lib().ExprStrToUpper(h(e))) }

//export fb_expr_str_to_lower
func fb_expr_str_to_lower(e C.fb_handle) C.fb_handle { return ch(lib().ExprStrToLower(h(e))) }

//export fb_expr_str_len_bytes
func fb_expr_str_len_bytes(e C.fb_handle) C.fb_handle { return ch(lib().ExprStrLenBytes(h(e))) }

//export fb_expr_dt_year
func fb_expr_dt_year(e C.fb_handle) C.fb_handle { return ch(lib().ExprDtYear(h(e))) }

//export fb_expr_dt_month
func fb_expr_dt_month(e C.fb_handle) C.fb_handle { return ch(lib().ExprDtMonth(h(e))) }

//export fb_expr_clone
func fb_expr_clone(e C.fb_handle) C.fb_handle { return ch(lib().CloneExpr(h(e))) }

//export fb_expr_free
func fb_expr_free(e C.fb_handle) { lib().FreeExpr(h(e)) }

//export fb_expr_to_string
func fb_expr_to_string(e C.fb_handle) *C.char {
	return C.CString(lib().ExprString(h(e)))
}

// fb_expr_map consumes e, also when fn is NULL. The library owns fn's
// cleanup from this call on: cleanup(token) runs exactly once, immediately if
// the call fails, otherwise when the last expression or plan using fn is
// released. out_type may be 0.
//
//export fb_expr_map
func fb_expr_map(e C.fb_handle, fn C.fb_udf_fn, cleanup C.fb_cleanup_fn, token unsafe.Pointer, outType C.fb_handle) C.fb_handle {
	host := &cHost{fn: fn, cleanup: cleanup, token: token}
	return guardExport("expr_map", 0, func() (C.fb_handle, error) {
		if fn == nil {
			host.Cleanup()
			lib().FreeExpr(h(e))
			return 0, contract("null function pointer")
		}
		return ch(lib().ExprMap(h(e), host, h(outType))), nil
	})
}

// Selectors

//export fb_selector_all
func fb_selector_all() C.fb_handle { return ch(lib().SelectorAll()) }

//export fb_selector_cols
func fb_selector_cols(cols **C.char, n C.size_t) C.fb_handle {
	return guardExport("selector_cols", 0, func() (C.fb_handle, error) {
		ns, err := names(cols, n)
		if err != nil {
			return 0, err
		}
		return ch(lib().SelectorCols(ns)), nil
	})
}

//export fb_selector_exclude
func fb_selector_exclude(s C.fb_handle, cols **C.char, n C.size_t) C.fb_handle {
	return guardExport("selector_exclude", 0, func() (C.fb_handle, error) {
		ns, err := names(cols, n)
		if err != nil {
			return 0, err
		}
		return ch(lib().SelectorExclude(h(s), ns)), nil
	})
}

//export fb_selector_into_expr
func fb_selector_into_expr(s C.fb_handle) C.fb_handle { return ch(lib().SelectorIntoExpr(h(s))) }

//export fb_selector_clone
func fb_selector_clone(s C.fb_handle) C.fb_handle { return ch(lib().CloneSelector(h(s))) }

//export fb_selector_free
func fb_selector_free(s C.fb_handle) { lib().FreeSelector(h(s)) }

// Lazy plans

//export fb_lazy_filter
func fb_lazy_filter(lf, predicate C.fb_handle) C.fb_handle {
	return ch(lib().LazyFilter(h(lf), h(predicate)))
}

//export fb_lazy_select
func fb_lazy_select(lf C.fb_handle, exprs *C.fb_handle, n C.size_t) C.fb_handle {
	return guardExport("lazy_select", 0, func() (C.fb_handle, error) {
		es, err := handles(exprs, n)
		if err != nil {
			return 0, err
		}
		return ch(lib().LazySelect(h(lf), es)), nil
	})
}

//export fb_lazy_with_columns
func fb_lazy_with_columns(lf C.fb_handle, exprs *C.fb_handle, n C.size_t) C.fb_handle {
	return guardExport("lazy_with_columns", 0, func() (C.fb_handle, error) {
		es, err := handles(exprs, n)
		if err != nil {
			return 0, err
		}
		return ch(lib().LazyWithColumns(h(lf), es)), nil
	})
}

//export fb_lazy_sort
func fb_lazy_sort(lf C.fb_handle, by *C.fb_handle, n C.size_t, descending *C.bool, nDesc C.size_t) C.fb_handle {
	return guardExport("lazy_sort", 0, func() (C.fb_handle, error) {
		keys, err := handles(by, n)
		if err != nil {
			return 0, err
		}
		desc, err := cSlice[bool](unsafe.Pointer(descending), nDesc)
		if err != nil {
			return 0, err
		}
		return ch(lib().LazySort(h(lf), keys, desc)), nil
	})
}

//export fb_lazy_limit
func fb_lazy_limit(lf C.fb_handle, n C.size_t) C.fb_handle {
	return ch(lib().LazyLimit(h(lf), int(n)))
}

//export fb_lazy_groupby_agg
func fb_lazy_groupby_agg(lf C.fb_handle, keys *C.fb_handle, nKeys C.size_t, aggs *C.fb_handle, nAggs C.size_t) C.fb_handle {
	return guardExport("lazy_groupby_agg", 0, func() (C.fb_handle, error) {
		ks, err := handles(keys, nKeys)
		if err != nil {
			return 0, err
		}
		as, err := handles(aggs, nAggs)
		if err != nil {
			return 0, err
		}
		return ch(lib().LazyGroupByAgg(h(lf), ks, as)), nil
	})
}

//export fb_lazy_collect
func fb_lazy_collect(lf C.fb_handle) C.fb_handle { return ch(lib().Collect(h(lf))) }

//export fb_lazy_clone
func fb_lazy_clone(lf C.fb_handle) C.fb_handle { return ch(lib().CloneLazy(h(lf))) }

//export fb_lazy_free
func fb_lazy_free(lf C.fb_handle) { lib().FreeLazy(h(lf)) }

//export fb_lazy_explain
func fb_lazy_explain(lf C.fb_handle) *C.char {
	return C.CString(lib().Explain(h(lf)))
}

// IO

func withPath(op string, path *C.char, fn func(string) C.fb_handle) C.fb_handle {
	return guardExport(op, 0, func() (C.fb_handle, error) {
		p, err := goString(path)
		if err != nil {
			return 0, err
		}
		return fn(p), nil
	})
}

//export fb_read_csv
func fb_read_csv(path *C.char, tryParseDates C.bool) C.fb_handle {
	return withPath("read_csv", path, func(p string) C.fb_handle { return ch(lib().ReadCSV(p, bool(tryParseDates))) })
}

//export fb_scan_csv
func fb_scan_csv(path *C.char, tryParseDates C.bool) C.fb_handle {
	return withPath("scan_csv", path, func(p string) C.fb_handle { return ch(lib().ScanCSV(p, bool(tryParseDates))) })
}

//export fb_read_parquet
func fb_read_parquet(path *C.char) C.fb_handle {
	return withPath("read_parquet", path, func(p string) C.fb_handle { return ch(lib().ReadParquet(p)) })
}

//export fb_scan_parquet
func fb_scan_parquet(path *C.char) C.fb_handle {
	return withPath("scan_parquet", path, func(p string) C.fb_handle { return ch(lib().ScanParquet(p)) })
}

//export fb_read_ipc
func fb_read_ipc(path *C.char) C.fb_handle {
	return withPath("read_ipc", path, func(p string) C.fb_handle { return ch(lib().ReadIPC(p)) })
}

//export fb_scan_ipc
func fb_scan_ipc(path *C.char) C.fb_handle {
	return withPath("scan_ipc", path, func(p string) C.fb_handle { return ch(lib().ScanIPC(p)) })
}

func writeTo(op string, df C.fb_handle, path *C.char, fn func(handle.Handle, string) bool) C.bool {
	return guardExport(op, false, func() (C.bool, error) {
		p, err := goString(path)
		if err != nil {
			return false, err
		}
		return C.bool(fn(h(df), p)), nil
	})
}

//export fb_write_csv
func fb_write_csv(df C.fb_handle, path *C.char) C.bool {
	return writeTo("write_csv", df, path, lib().WriteCSV)
}

//export fb_write_parquet
func fb_write_parquet(df C.fb_handle, path *C.char) C.bool {
	return writeTo("write_parquet", df, path, lib().WriteParquet)
}

//export fb_write_ipc
func fb_write_ipc(df C.fb_handle, path *C.char) C.bool {
	return writeTo("write_ipc", df, path, lib().WriteIPC)
}

// SQL

//export fb_sql_context_new
func fb_sql_context_new() C.fb_handle { return ch(lib().NewSQLContext()) }

// fb_sql_register consumes lf.
//
//export fb_sql_register
func fb_sql_register(ctx C.fb_handle, name *C.char, lf C.fb_handle) C.bool {
	return guardExport("sql_register", false, func() (C.bool, error) {
		table, err := goString(name)
		if err != nil {
			return false, err
		}
		return C.bool(lib().SQLRegister(h(ctx), table, h(lf))), nil
	})
}

//export fb_sql_execute
func fb_sql_execute(ctx C.fb_handle, query *C.char) C.fb_handle {
	return guardExport("sql_execute", 0, func() (C.fb_handle, error) {
		q, err := goString(query)
		if err != nil {
			return 0, err
		}
		return ch(lib().SQLExecute(h(ctx), q)), nil
	})
}

//export fb_sql_context_free
func fb_sql_context_free(ctx C.fb_handle) { lib().FreeSQLContext(h(ctx)) }

func main() {}
