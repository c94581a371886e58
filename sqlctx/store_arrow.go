//go:build duckdb_arrow

package sqlctx

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/duckdb/duckdb-go/v2"
	"github.com/nickyhof/FrameBridge/frame"
)

// query runs q through DuckDB's Arrow interface and keeps the result batches
// as DuckDB produced them.
func (s *store) query(ctx context.Context, _ *frame.Env, q string) (*frame.DataFrame, error) {
	s.logger.Debug("executing sql", "query", q)
	var df *frame.DataFrame
	err := s.conn.Raw(func(dc any) error {
		a, err := duckdb.NewArrowFromConn(dc.(driver.Conn))
		if err != nil {
			return err
		}
		rdr, err := a.QueryContext(ctx, q)
		if err != nil {
			return fmt.Errorf("sql failed: %w", err)
		}
		defer rdr.Release()

		schema := rdr.Schema()
		names := make([]string, schema.NumFields())
		for i, f := range schema.Fields() {
			names[i] = f.Name
		}
		if err := checkColumns(names); err != nil {
			return err
		}

		var recs []arrow.RecordBatch
		for rdr.Next() {
			rec := rdr.RecordBatch()
			rec.Retain()
			recs = append(recs, rec)
		}
		if err := rdr.Err(); err != nil {
			releaseAll(recs)
			return fmt.Errorf("failed to read result: %w", err)
		}
		df, err = frame.FromRecords(schema, recs)
		if err != nil {
			releaseAll(recs)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return df, nil
}

func releaseAll(recs []arrow.RecordBatch) {
	for _, r := range recs {
		r.Release()
	}
}
