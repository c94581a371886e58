//go:build !duckdb_arrow

package sqlctx

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/duckdb/duckdb-go/v2"
	"github.com/nickyhof/FrameBridge/frame"
)

// query runs q and reads the whole result into a frame, scanning it row by
// row through database/sql. Builds with the duckdb_arrow tag read the result
// as Arrow batches instead.
func (s *store) query(ctx context.Context, env *frame.Env, q string) (*frame.DataFrame, error) {
	s.logger.Debug("executing sql", "query", q)
	rows, err := s.conn.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sql failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	sinks := make([]*sink, len(types))
	defer func() {
		for _, sk := range sinks {
			if sk != nil {
				sk.b.Release()
			}
		}
	}()
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if err := checkColumns(names); err != nil {
		return nil, err
	}
	fields := make([]arrow.Field, len(types))
	for i, ct := range types {
		sk, err := newSink(env, ct.DatabaseTypeName())
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", ct.Name(), err)
		}
		sinks[i] = sk
		fields[i] = arrow.Field{Name: ct.Name(), Type: sk.dtype, Nullable: true}
	}

	vals := make([]any, len(types))
	ptrs := make([]any, len(types))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	n := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range vals {
			if err := sinks[i].append(v); err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", fields[i].Name, n, err)
			}
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cols := make([]arrow.Array, len(sinks))
	for i, sk := range sinks {
		cols[i] = sk.b.NewArray()
	}
	rec := array.NewRecord(arrow.NewSchema(fields, nil), cols, int64(n))
	for _, c := range cols {
		c.Release()
	}
	df := frame.FromRecord(rec)
	rec.Release()
	return df, nil
}

// sink appends scanned values of one result column to an Arrow builder.
type sink struct {
	dtype  arrow.DataType
	b      array.Builder
	append func(v any) error
}

type typedBuilder[T any] interface {
	array.Builder
	Append(T)
}

func appendAs[T any, B typedBuilder[T]](b B) func(any) error {
	return func(v any) error {
		if v == nil {
			b.AppendNull()
			return nil
		}
		x, ok := v.(T)
		if !ok {
			return fmt.Errorf("unexpected value %T", v)
		}
		b.Append(x)
		return nil
	}
}

func appendConverted[T, U any, B typedBuilder[U]](b B, conv func(T) (U, error)) func(any) error {
	return func(v any) error {
		if v == nil {
			b.AppendNull()
			return nil
		}
		x, ok := v.(T)
		if !ok {
			return fmt.Errorf("unexpected value %T", v)
		}
		u, err := conv(x)
		if err != nil {
			return err
		}
		b.Append(u)
		return nil
	}
}

func newSink(env *frame.Env, dbType string) (*sink, error) {
	mem := env.Mem
	switch dbType {
	case "BOOLEAN":
		b := array.NewBooleanBuilder(mem)
		return &sink{arrow.FixedWidthTypes.Boolean, b, appendAs[bool](b)}, nil
	case "TINYINT":
		b := array.NewInt8Builder(mem)
		return &sink{arrow.PrimitiveTypes.Int8, b, appendAs[int8](b)}, nil
	case "SMALLINT":
		b := array.NewInt16Builder(mem)
		return &sink{arrow.PrimitiveTypes.Int16, b, appendAs[int16](b)}, nil
	case "INTEGER":
		b := array.NewInt32Builder(mem)
		return &sink{arrow.PrimitiveTypes.Int32, b, appendAs[int32](b)}, nil
	case "BIGINT":
		b := array.NewInt64Builder(mem)
		return &sink{arrow.PrimitiveTypes.Int64, b, appendAs[int64](b)}, nil
	case "UTINYINT":
		b := array.NewUint8Builder(mem)
		return &sink{arrow.PrimitiveTypes.Uint8, b, appendAs[uint8](b)}, nil
	case "USMALLINT":
		b := array.NewUint16Builder(mem)
		return &sink{arrow.PrimitiveTypes.Uint16, b, appendAs[uint16](b)}, nil
	case "UINTEGER":
		b := array.NewUint32Builder(mem)
		return &sink{arrow.PrimitiveTypes.Uint32, b, appendAs[uint32](b)}, nil
	case "UBIGINT":
		b := array.NewUint64Builder(mem)
		return &sink{arrow.PrimitiveTypes.Uint64, b, appendAs[uint64](b)}, nil
	case "FLOAT":
		b := array.NewFloat32Builder(mem)
		return &sink{arrow.PrimitiveTypes.Float32, b, appendAs[float32](b)}, nil
	case "DOUBLE":
		b := array.NewFloat64Builder(mem)
		return &sink{arrow.PrimitiveTypes.Float64, b, appendAs[float64](b)}, nil
	case "VARCHAR":
		b := array.NewStringBuilder(mem)
		return &sink{arrow.BinaryTypes.String, b, appendAs[string](b)}, nil
	case "BLOB":
		b := array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
		return &sink{arrow.BinaryTypes.Binary, b, appendAs[[]byte](b)}, nil
	case "DATE":
		b := array.NewDate32Builder(mem)
		return &sink{arrow.FixedWidthTypes.Date32, b, appendConverted(b, func(t time.Time) (arrow.Date32, error) {
			return arrow.Date32FromTime(t), nil
		})}, nil
	case "TIMESTAMP", "TIMESTAMPTZ", "TIMESTAMP WITH TIME ZONE":
		dt := arrow.FixedWidthTypes.Timestamp_us.(*arrow.TimestampType)
		b := array.NewTimestampBuilder(mem, dt)
		return &sink{dt, b, appendConverted(b, func(t time.Time) (arrow.Timestamp, error) {
			return arrow.Timestamp(t.UnixMicro()), nil
		})}, nil
	case "TIME":
		dt := arrow.FixedWidthTypes.Time64us.(*arrow.Time64Type)
		b := array.NewTime64Builder(mem, dt)
		return &sink{dt, b, appendConverted(b, func(t time.Time) (arrow.Time64, error) {
			midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
			return arrow.Time64(t.Sub(midnight).Microseconds()), nil
		})}, nil
	case "INTERVAL":
		dt := arrow.FixedWidthTypes.Duration_us.(*arrow.DurationType)
		b := array.NewDurationBuilder(mem, dt)
		return &sink{dt, b, appendConverted(b, func(iv duckdb.Interval) (arrow.Duration, error) {
			if iv.Months != 0 {
				return 0, fmt.Errorf("%w: interval with months", ErrUnsupportedType)
			}
			return arrow.Duration(int64(iv.Days)*24*int64(time.Hour/time.Microsecond) + iv.Micros), nil
		})}, nil
	case "HUGEINT", "UHUGEINT":
		b := array.NewInt64Builder(mem)
		return &sink{arrow.PrimitiveTypes.Int64, b, appendConverted(b, func(v *big.Int) (int64, error) {
			if !v.IsInt64() {
				return 0, fmt.Errorf("value %s does not fit in int64", v)
			}
			return v.Int64(), nil
		})}, nil
	}
	var width, scale int32
	if _, err := fmt.Sscanf(dbType, "DECIMAL(%d,%d)", &width, &scale); err == nil {
		dt := &arrow.Decimal128Type{Precision: width, Scale: scale}
		b := array.NewDecimal128Builder(mem, dt)
		return &sink{dt, b, appendConverted(b, func(d duckdb.Decimal) (decimal128.Num, error) {
			return decimal128.FromBigInt(d.Value), nil
		})}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, dbType)
}
