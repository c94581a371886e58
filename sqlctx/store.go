package sqlctx

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"
	"github.com/nickyhof/FrameBridge/frame"
)

var ErrUnsupportedType = errors.New("unsupported column type")

// store is one DuckDB database reached through a single pinned connection.
type store struct {
	mu     sync.Mutex
	db     *sql.DB
	conn   *sql.Conn
	logger *slog.Logger
}

func openStore(ctx context.Context, dsn string, logger *slog.Logger) (*store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	connector, err := duckdb.NewConnector(dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	db := sql.OpenDB(connector)
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to duckdb: %w", err)
	}
	return &store{db: db, conn: conn, logger: logger}, nil
}

func (s *store) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := errors.Join(s.conn.Close(), s.db.Close())
	s.db, s.conn = nil, nil
	return err
}

func (s *store) exec(ctx context.Context, query string) error {
	s.logger.Debug("executing sql", "query", query)
	if _, err := s.conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("sql failed: %w", err)
	}
	return nil
}

func tempName() string {
	return "fb_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// load creates table name (replacing any existing one) and appends every
// row of df to it.
func (s *store) load(ctx context.Context, name string, df *frame.DataFrame) error {
	defs := make([]string, df.Width())
	for i, f := range df.Schema().Fields() {
		t, err := frame.SQLType(f.Type)
		if err != nil {
			return fmt.Errorf("column %q: %w", f.Name, err)
		}
		defs[i] = frame.QuoteIdent(f.Name) + " " + t
	}
	ddl := fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)", frame.QuoteIdent(name), strings.Join(defs, ", "))
	if err := s.exec(ctx, ddl); err != nil {
		return err
	}

	return s.conn.Raw(func(dc any) error {
		app, err := duckdb.NewAppenderFromConn(dc.(driver.Conn), "", name)
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		row := make([]driver.Value, df.Width())
		for _, rec := range df.Batches() {
			for r := 0; r < int(rec.NumRows()); r++ {
				for c := range row {
					v, err := cellValue(rec.Column(c), r)
					if err != nil {
						_ = app.Close()
						return err
					}
					row[c] = v
				}
				if err := app.AppendRow(row...); err != nil {
					_ = app.Close()
					return fmt.Errorf("failed to append row: %w", err)
				}
			}
		}
		if err := app.Close(); err != nil {
			return fmt.Errorf("failed to flush appender: %w", err)
		}
		return nil
	})
}

func (s *store) drop(ctx context.Context, name string) {
	if err := s.exec(ctx, "DROP TABLE IF EXISTS "+frame.QuoteIdent(name)); err != nil {
		s.logger.Warn("failed to drop table", "table", name, "error", err)
	}
}

// cellValue converts one Arrow value to what the appender accepts.
func cellValue(arr arrow.Array, i int) (driver.Value, error) {
	if arr.IsNull(i) {
		return nil, nil
	}
	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(i), nil
	case *array.Int8:
		return a.Value(i), nil
	case *array.Int16:
		return a.Value(i), nil
	case *array.Int32:
		return a.Value(i), nil
	case *array.Int64:
		return a.Value(i), nil
	case *array.Uint8:
		return a.Value(i), nil
	case *array.Uint16:
		return a.Value(i), nil
	case *array.Uint32:
		return a.Value(i), nil
	case *array.Uint64:
		return a.Value(i), nil
	case *array.Float32:
		return a.Value(i), nil
	case *array.Float64:
		return a.Value(i), nil
	case *array.String:
		return a.Value(i), nil
	case *array.LargeString:
		return a.Value(i), nil
	case *array.Binary:
		return a.Value(i), nil
	case *array.Date32:
		return a.Value(i).ToTime(), nil
	case *array.Date64:
		return a.Value(i).ToTime(), nil
	case *array.Timestamp:
		return a.Value(i).ToTime(a.DataType().(*arrow.TimestampType).Unit), nil
	case *array.Time64:
		return a.Value(i).ToTime(a.DataType().(*arrow.Time64Type).Unit), nil
	case *array.Duration:
		d := time.Duration(a.Value(i)) * a.DataType().(*arrow.DurationType).Unit.Multiplier()
		return duckdb.Interval{Micros: d.Microseconds()}, nil
	case *array.Decimal128:
		dt := a.DataType().(*arrow.Decimal128Type)
		return duckdb.Decimal{Width: uint8(dt.Precision), Scale: uint8(dt.Scale), Value: a.Value(i).BigInt()}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, arr.DataType())
}

// checkColumns rejects a query result that repeats a column name.
func checkColumns(names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			return fmt.Errorf("%w: %q in query result", frame.ErrDuplicateColumn, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}
