package fileio

import (
	"context"
	"fmt"

	"github.com/nickyhof/FrameBridge/frame"
)

type format int

const (
	formatCSV format = iota
	formatParquet
	formatIPC
)

func (f format) String() string {
	return [...]string{"CSV", "PARQUET", "IPC"}[f]
}

// scanSource reads a file when the plan that holds it is collected.
type scanSource struct {
	store         *Store
	path          string
	format        format
	tryParseDates bool
}

var _ frame.Source = (*scanSource)(nil)

func (s *scanSource) Load(env *frame.Env) (*frame.DataFrame, error) {
	ctx := context.Background()
	switch s.format {
	case formatCSV:
		return s.store.ReadCSV(ctx, env, s.path, s.tryParseDates)
	case formatParquet:
		return s.store.ReadParquet(ctx, env, s.path)
	case formatIPC:
		return s.store.ReadIPC(ctx, env, s.path)
	}
	return nil, fmt.Errorf("unknown file format %d", s.format)
}

func (s *scanSource) Describe() string {
	return fmt.Sprintf("%s SCAN %s", s.format, s.path)
}

func (s *scanSource) Clone() frame.Source {
	c := *s
	return &c
}

func (s *scanSource) Release() {}

// ScanCSV starts a plan that reads path when collected.
func (s *Store) ScanCSV(path string, tryParseDates bool) *frame.LazyFrame {
	return frame.NewLazy(&scanSource{store: s, path: path, format: formatCSV, tryParseDates: tryParseDates})
}

// ScanParquet starts a plan that reads path when collected.
func (s *Store) ScanParquet(path string) *frame.LazyFrame {
	return frame.NewLazy(&scanSource{store: s, path: path, format: formatParquet})
}

// ScanIPC starts a plan that reads path when collected.
func (s *Store) ScanIPC(path string) *frame.LazyFrame {
	return frame.NewLazy(&scanSource{store: s, path: path, format: formatIPC})
}
