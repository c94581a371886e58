package fileio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/nickyhof/FrameBridge/config"
	"github.com/nickyhof/FrameBridge/frame"
)

// Store reads and writes frames on local, HTTP(S) and S3 paths.
type Store struct {
	fs     billy.Filesystem
	s3     config.S3Config
	client *http.Client
	logger *slog.Logger
}

// NewStore builds a store from cfg. A nil fs means the host filesystem.
func NewStore(cfg *config.Config, fs billy.Filesystem, logger *slog.Logger) *Store {
	if fs == nil {
		fs = osfs.New("/")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		fs:     fs,
		s3:     cfg.S3,
		client: &http.Client{Timeout: cfg.HTTP.Timeout},
		logger: logger,
	}
}

func batchRows(env *frame.Env) int {
	if env.ChunkSize > 0 {
		return env.ChunkSize
	}
	return frame.DefaultChunkSize
}

func (s *Store) readAll(ctx context.Context, path string) ([]byte, error) {
	r, err := s.openReader(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	s.logger.Debug("read file", "path", path, "bytes", len(data))
	return data, nil
}

func (s *Store) write(ctx context.Context, path string, fn func(w io.Writer) error) error {
	w, err := s.openWriter(ctx, path)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if err := w.Abort(); err != nil {
			s.logger.Warn("failed to discard partial output", "path", path, "error", err)
		}
	}()

	if err := fn(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	committed = true
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish %s: %w", path, err)
	}
	s.logger.Debug("wrote file", "path", path)
	return nil
}

type recordReader interface {
	Schema() *arrow.Schema
	Next() bool
	Record() arrow.Record
	Err() error
}

func drain(rdr recordReader) (*frame.DataFrame, error) {
	var recs []arrow.Record
	for rdr.Next() {
		rec := rdr.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := rdr.Err(); err != nil && !errors.Is(err, io.EOF) {
		for _, r := range recs {
			r.Release()
		}
		return nil, err
	}
	schema := rdr.Schema()
	if schema == nil && len(recs) > 0 {
		schema = recs[0].Schema()
	}
	if schema == nil {
		return nil, fmt.Errorf("no columns found")
	}
	return frame.FromRecords(schema, recs)
}

// ReadCSV reads a CSV file with a header row, inferring column types. Empty
// fields are nulls. Date and timestamp columns are recognized only when
// tryParseDates is set; otherwise they stay strings.
func (s *Store) ReadCSV(ctx context.Context, env *frame.Env, path string, tryParseDates bool) (*frame.DataFrame, error) {
	data, err := s.readAll(ctx, path)
	if err != nil {
		return nil, err
	}
	opts := []csv.Option{
		csv.WithHeader(true),
		csv.WithNullReader(true, ""),
		csv.WithChunk(batchRows(env)),
		csv.WithAllocator(env.Mem),
	}

	df, err := readCSV(data, opts)
	if err != nil || tryParseDates {
		return df, wrapRead(path, err)
	}

	overrides := make(map[string]arrow.DataType)
	for _, f := range df.Schema().Fields() {
		switch f.Type.ID() {
		case arrow.DATE32, arrow.DATE64, arrow.TIMESTAMP, arrow.TIME32, arrow.TIME64:
			overrides[f.Name] = arrow.BinaryTypes.String
		}
	}
	if len(overrides) == 0 {
		return df, nil
	}
	df.Release()
	df, err = readCSV(data, append(opts, csv.WithColumnTypes(overrides)))
	return df, wrapRead(path, err)
}

func wrapRead(path string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to read %s: %w", path, err)
}

func readCSV(data []byte, opts []csv.Option) (*frame.DataFrame, error) {
	rdr := csv.NewInferringReader(bytes.NewReader(data), opts...)
	defer rdr.Release()
	return drain(rdr)
}

// WriteCSV writes df with a header row. Nulls are written as empty fields.
func (s *Store) WriteCSV(ctx context.Context, df *frame.DataFrame, path string) error {
	return s.write(ctx, path, func(w io.Writer) error {
		cw := csv.NewWriter(w, df.Schema(), csv.WithHeader(true), csv.WithNullWriter(""))
		for _, rec := range df.Batches() {
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// ReadParquet reads a Parquet file.
func (s *Store) ReadParquet(ctx context.Context, env *frame.Env, path string) (*frame.DataFrame, error) {
	data, err := s.readAll(ctx, path)
	if err != nil {
		return nil, err
	}
	tbl, err := pqarrow.ReadTable(ctx, bytes.NewReader(data), parquet.NewReaderProperties(env.Mem),
		pqarrow.ArrowReadProperties{Parallel: env.Workers > 1, BatchSize: int64(batchRows(env))}, env.Mem)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer tbl.Release()

	tr := array.NewTableReader(tbl, int64(batchRows(env)))
	defer tr.Release()
	df, err := drain(tr)
	return df, wrapRead(path, err)
}

// WriteParquet writes df as a snappy-compressed Parquet file.
func (s *Store) WriteParquet(ctx context.Context, env *frame.Env, df *frame.DataFrame, path string) error {
	return s.write(ctx, path, func(w io.Writer) error {
		tbl := array.NewTableFromRecords(df.Schema(), df.Batches())
		defer tbl.Release()
		props := parquet.NewWriterProperties(
			parquet.WithCompression(compress.Codecs.Snappy),
			parquet.WithAllocator(env.Mem),
		)
		return pqarrow.WriteTable(tbl, w, int64(batchRows(env)), props, pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	})
}

// ReadIPC reads an Arrow IPC stream.
func (s *Store) ReadIPC(ctx context.Context, env *frame.Env, path string) (*frame.DataFrame, error) {
	data, err := s.readAll(ctx, path)
	if err != nil {
		return nil, err
	}
	rdr, err := ipc.NewReader(bytes.NewReader(data), ipc.WithAllocator(env.Mem))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer rdr.Release()
	df, err := drain(rdr)
	return df, wrapRead(path, err)
}

// WriteIPC writes df as an Arrow IPC stream.
func (s *Store) WriteIPC(ctx context.Context, env *frame.Env, df *frame.DataFrame, path string) error {
	return s.write(ctx, path, func(w io.Writer) error {
		iw := ipc.NewWriter(w, ipc.WithSchema(df.Schema()), ipc.WithAllocator(env.Mem))
		for _, rec := range df.Batches() {
			if err := iw.Write(rec); err != nil {
				_ = iw.Close()
				return err
			}
		}
		return iw.Close()
	})
}
