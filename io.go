package FrameBridge

import (
	"github.com/nickyhof/FrameBridge/core"
	"github.com/nickyhof/FrameBridge/fault"
	"github.com/nickyhof/FrameBridge/frame"
	"github.com/nickyhof/FrameBridge/handle"
)

// Paths may be local, file://, http(s):// (read only) or s3://bucket/key.

func (inst *Instance) ReadCSV(path string, tryParseDates bool) handle.Handle {
	return inst.frameOp("read_csv", func() (*frame.DataFrame, error) {
		return inst.files.ReadCSV(inst.ctx(), inst.env, path, tryParseDates)
	})
}

func (inst *Instance) ReadParquet(path string) handle.Handle {
	return inst.frameOp("read_parquet", func() (*frame.DataFrame, error) {
		return inst.files.ReadParquet(inst.ctx(), inst.env, path)
	})
}

func (inst *Instance) ReadIPC(path string) handle.Handle {
	return inst.frameOp("read_ipc", func() (*frame.DataFrame, error) {
		return inst.files.ReadIPC(inst.ctx(), inst.env, path)
	})
}

func (inst *Instance) scan(lf *frame.LazyFrame) handle.Handle {
	return inst.put(core.LazyFrameKind, lf)
}

// ScanCSV returns a plan that reads the file when collected.
func (inst *Instance) ScanCSV(path string, tryParseDates bool) handle.Handle {
	return inst.scan(inst.files.ScanCSV(path, tryParseDates))
}

func (inst *Instance) ScanParquet(path string) handle.Handle {
	return inst.scan(inst.files.ScanParquet(path))
}

func (inst *Instance) ScanIPC(path string) handle.Handle {
	return inst.scan(inst.files.ScanIPC(path))
}

func (inst *Instance) write(op string, h handle.Handle, fn func(*frame.DataFrame) error) bool {
	return fault.Guard(inst.barrier, op, false, func() (bool, error) {
		df, err := inst.borrowFrame(h)
		if err != nil {
			return false, err
		}
		if err := fn(df); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (inst *Instance) WriteCSV(h handle.Handle, path string) bool {
	return inst.write("write_csv", h, func(df *frame.DataFrame) error {
		return inst.files.WriteCSV(inst.ctx(), df, path)
	})
}

func (inst *Instance) WriteParquet(h handle.Handle, path string) bool {
	return inst.write("write_parquet", h, func(df *frame.DataFrame) error {
		return inst.files.WriteParquet(inst.ctx(), inst.env, df, path)
	})
}

func (inst *Instance) WriteIPC(h handle.Handle, path string) bool {
	return inst.write("write_ipc", h, func(df *frame.DataFrame) error {
		return inst.files.WriteIPC(inst.ctx(), inst.env, df, path)
	})
}
