package FrameBridge

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/cdata"
	"github.com/nickyhof/FrameBridge/config"
	"github.com/nickyhof/FrameBridge/frame"
	"github.com/nickyhof/FrameBridge/handle"
)

// setupBenchmarkFrame builds a 10k row frame of users.
func setupBenchmarkFrame(b *testing.B) (*Instance, handle.Handle) {
	b.Helper()
	runtime.LockOSThread()
	b.Cleanup(runtime.UnlockOSThread)

	inst := Open(config.Default())
	b.Cleanup(func() { _ = inst.Close() })

	const rows = 10000
	ids := make([]int64, rows)
	ages := make([]int64, rows)
	cities := make([]string, rows)
	for i := range rows {
		ids[i] = int64(i)
		ages[i] = int64(20 + i%50)
		cities[i] = fmt.Sprintf("City%d", i%10)
	}
	cols := []handle.Handle{
		inst.NewSeriesInt64("id", ids, nil),
		inst.NewSeriesInt64("age", ages, nil),
		inst.NewSeriesString("city", cities, nil),
	}
	df := inst.NewDataFrame(cols)
	for _, c := range cols {
		inst.FreeSeries(c)
	}
	if df == 0 {
		msg, _ := inst.LastError()
		b.Fatalf("Failed to build frame: %s", msg)
	}
	return inst, df
}

func BenchmarkEager(b *testing.B) {
	inst, df := setupBenchmarkFrame(b)

	ops := []struct {
		name string
		run  func() handle.Handle
	}{
		{"Filter", func() handle.Handle {
			return inst.Filter(df, inst.ExprBinary(frame.OpGt, inst.ExprCol("age"), inst.ExprLitInt64(40)))
		}},
		{"Sort", func() handle.Handle {
			return inst.Sort(df, []handle.Handle{inst.ExprCol("age")}, []bool{true})
		}},
		{"WithColumns", func() handle.Handle {
			double := inst.ExprAlias(inst.ExprBinary(frame.OpMul, inst.ExprCol("age"), inst.ExprLitInt64(2)), "double")
			return inst.WithColumns(df, []handle.Handle{double})
		}},
		{"GroupBy", func() handle.Handle {
			return inst.GroupByAgg(df,
				[]handle.Handle{inst.ExprCol("city")},
				[]handle.Handle{inst.ExprAgg(frame.AggMean, inst.ExprCol("age"))})
		}},
	}

	for _, op := range ops {
		b.Run(op.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				out := op.run()
				if out == 0 {
					msg, _ := inst.LastError()
					b.Fatalf("%s failed: %s", op.name, msg)
				}
				inst.FreeDataFrame(out)
			}
		})
	}
}

func BenchmarkLazyCollect(b *testing.B) {
	inst, df := setupBenchmarkFrame(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lf := inst.Lazy(df)
		lf = inst.LazyFilter(lf, inst.ExprBinary(frame.OpLt, inst.ExprCol("age"), inst.ExprLitInt64(30)))
		lf = inst.LazySelect(lf, []handle.Handle{inst.ExprCol("id"), inst.ExprCol("city")})
		lf = inst.LazyLimit(lf, 100)
		out := inst.Collect(lf)
		if out == 0 {
			msg, _ := inst.LastError()
			b.Fatalf("Collect failed: %s", msg)
		}
		inst.FreeDataFrame(out)
	}
}

func BenchmarkArrowRoundTrip(b *testing.B) {
	inst, df := setupBenchmarkFrame(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var arr cdata.CArrowArray
		var schema cdata.CArrowSchema
		if !inst.ExportDataFrame(df, &arr, &schema) {
			msg, _ := inst.LastError()
			b.Fatalf("Export failed: %s", msg)
		}
		back := inst.ImportDataFrame(&arr, &schema)
		if back == 0 {
			msg, _ := inst.LastError()
			b.Fatalf("Import failed: %s", msg)
		}
		inst.FreeDataFrame(back)
	}
}

func BenchmarkHandleChurn(b *testing.B) {
	inst := Open(config.Default())
	b.Cleanup(func() { _ = inst.Close() })

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e := inst.ExprCol("x")
		c := inst.CloneExpr(e)
		inst.FreeExpr(e)
		inst.FreeExpr(c)
	}
}
