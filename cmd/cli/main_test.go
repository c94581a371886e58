package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/nickyhof/FrameBridge"
	"github.com/nickyhof/FrameBridge/config"
	"github.com/nickyhof/FrameBridge/handle"
	"github.com/nickyhof/FrameBridge/internal/testutil"
)

func setupTestCLI(t *testing.T) (*CLI, *bytes.Buffer) {
	t.Helper()
	runtime.LockOSThread()
	t.Cleanup(runtime.UnlockOSThread)

	inst := FrameBridge.Open(config.Default(),
		FrameBridge.WithLogger(testutil.NewTestLogger(t)),
		FrameBridge.WithFilesystem(memfs.New()))
	t.Cleanup(func() { _ = inst.Close() })

	var out bytes.Buffer
	cli, err := newCLI(inst, &out)
	if err != nil {
		t.Fatalf("Failed to create CLI: %v", err)
	}
	return cli, &out
}

// writeSales stores a three row sales table at path.
func writeSales(t *testing.T, cli *CLI, path string) {
	t.Helper()
	inst := cli.inst
	region := inst.NewSeriesString("region", []string{"east", "west", "east"}, nil)
	amount := inst.NewSeriesInt64("amount", []int64{5, 1, 7}, nil)
	df := inst.NewDataFrame([]handle.Handle{region, amount})
	inst.FreeSeries(region)
	inst.FreeSeries(amount)
	if df == 0 {
		t.Fatalf("Failed to build frame: %v", cli.lastError())
	}
	defer inst.FreeDataFrame(df)

	var ok bool
	switch filepath.Ext(path) {
	case ".csv":
		ok = inst.WriteCSV(df, path)
	default:
		ok = inst.WriteParquet(df, path)
	}
	if !ok {
		t.Fatalf("Failed to write %s: %v", path, cli.lastError())
	}
}

func TestCLILoadAndQuery(t *testing.T) {
	cli, out := setupTestCLI(t)
	writeSales(t, cli, "/data/sales.parquet")

	if err := cli.loadTable("sales", "/data/sales.parquet"); err != nil {
		t.Fatalf("loadTable failed: %v", err)
	}

	df, err := cli.execute("SELECT region, sum(amount) AS total FROM sales GROUP BY region ORDER BY region")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	defer cli.inst.FreeDataFrame(df)

	if h := cli.inst.Height(df); h != 2 {
		t.Errorf("Expected 2 groups, got %d", h)
	}
	if region, _ := cli.inst.GetString(df, "region", 0); region != "east" {
		t.Errorf("Expected east first, got %q", region)
	}

	if err := cli.query("SELECT * FROM sales"); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !strings.Contains(out.String(), "(3 rows)") {
		t.Errorf("Expected row count in output, got %q", out.String())
	}
}

func TestCLILoadCSV(t *testing.T) {
	cli, _ := setupTestCLI(t)
	writeSales(t, cli, "/data/sales.csv")

	if err := cli.loadTable("sales", "/data/sales.csv"); err != nil {
		t.Fatalf("loadTable failed: %v", err)
	}
	tables := cli.inst.SQLTables(cli.sql)
	if len(tables) != 1 || tables[0] != "sales" {
		t.Errorf("Expected [sales], got %v", tables)
	}
}

func TestCLILoadErrors(t *testing.T) {
	cli, _ := setupTestCLI(t)

	if err := cli.loadTable("t", "/data/table.xlsx"); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("Expected unsupported file error, got %v", err)
	}
	if err := cli.loadTable("t", "/data/missing.parquet"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestCLIQueryError(t *testing.T) {
	cli, _ := setupTestCLI(t)

	if _, err := cli.execute("SELECT * FROM nowhere"); err == nil {
		t.Error("Expected error for unknown table")
	}
	// the error slot is drained by the failed call
	if _, ok := cli.inst.LastError(); ok {
		t.Error("Expected no pending error")
	}
}

func TestCLISaveResult(t *testing.T) {
	cli, _ := setupTestCLI(t)
	writeSales(t, cli, "/data/sales.parquet")
	if err := cli.loadTable("sales", "/data/sales.parquet"); err != nil {
		t.Fatalf("loadTable failed: %v", err)
	}

	if err := cli.saveResult("/out/big.parquet", "SELECT * FROM sales WHERE amount > 1"); err != nil {
		t.Fatalf("saveResult failed: %v", err)
	}

	df := cli.inst.ReadParquet("/out/big.parquet")
	if df == 0 {
		t.Fatalf("ReadParquet failed: %v", cli.lastError())
	}
	defer cli.inst.FreeDataFrame(df)
	if h := cli.inst.Height(df); h != 2 {
		t.Errorf("Expected 2 rows, got %d", h)
	}
}

func TestCLIShowTables(t *testing.T) {
	cli, out := setupTestCLI(t)

	cli.showTables()
	if !strings.Contains(out.String(), "No tables loaded") {
		t.Errorf("Expected empty table list, got %q", out.String())
	}

	writeSales(t, cli, "/data/sales.parquet")
	cli.handleCommand(".load sales /data/sales.parquet")
	out.Reset()
	cli.handleCommand(".tables")
	if !strings.Contains(out.String(), "sales") {
		t.Errorf("Expected sales in table list, got %q", out.String())
	}
}

func TestCLIAddToHistory(t *testing.T) {
	cli, _ := setupTestCLI(t)

	cli.addToHistory("SELECT 1;")
	cli.addToHistory("SELECT 1;")
	cli.addToHistory("SELECT 2;")

	if len(cli.history) != 2 {
		t.Errorf("Expected 2 history entries, got %d", len(cli.history))
	}
}

func TestCLIHistoryLimit(t *testing.T) {
	cli, _ := setupTestCLI(t)

	for i := 0; i < 1100; i++ {
		cli.addToHistory(strings.Repeat("x", i+1))
	}
	if len(cli.history) != 1000 {
		t.Errorf("Expected history capped at 1000, got %d", len(cli.history))
	}
}

func TestCLIGetPrompt(t *testing.T) {
	cli, _ := setupTestCLI(t)

	if !strings.Contains(cli.getPrompt(false), "framebridge>") {
		t.Errorf("Unexpected prompt %q", cli.getPrompt(false))
	}
	if !strings.Contains(cli.getPrompt(true), "...>") {
		t.Errorf("Unexpected continuation prompt %q", cli.getPrompt(true))
	}
}

func TestCLIHandleCommand(t *testing.T) {
	cli, out := setupTestCLI(t)

	for _, cmd := range []string{".help", ".tables", ".history", ".version", ".metrics", ".load", ".save", ".import"} {
		if !cli.handleCommand(cmd) {
			t.Errorf("Expected %s to be handled", cmd)
		}
	}
	if !strings.Contains(out.String(), "Usage: .load") {
		t.Errorf("Expected usage message, got %q", out.String())
	}

	out.Reset()
	cli.handleCommand(".bogus")
	if !strings.Contains(out.String(), "Unknown command") {
		t.Errorf("Expected unknown command message, got %q", out.String())
	}
}

func TestCLIRun(t *testing.T) {
	cli, out := setupTestCLI(t)
	writeSales(t, cli, "/data/sales.parquet")

	in := strings.NewReader(".load sales /data/sales.parquet\nSELECT *\nFROM sales\nWHERE amount > 4;\n")
	cli.run(in)

	if !strings.Contains(out.String(), "(2 rows)") {
		t.Errorf("Expected multi-line query result, got %q", out.String())
	}
	if len(cli.history) != 1 {
		t.Errorf("Expected one history entry, got %v", cli.history)
	}
}

func TestVersionVariable(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"single statement", "SELECT * FROM test", 1},
		{"two statements", "SELECT * FROM a; SELECT * FROM b", 2},
		{"trailing semicolons", "SELECT 1; SELECT 2;", 2},
		{"with comments", "-- comment\nSELECT * FROM test", 1},
		{"multiline", "SELECT a,\n  b\nFROM t\n;", 1},
		{"empty", "", 0},
		{"only semicolons", ";;;", 0},
		{"string with semicolon", "SELECT * FROM t WHERE s = 'a;b'", 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := splitStatements(test.input)
			if len(result) != test.expected {
				t.Errorf("splitStatements(%q) = %d statements, expected %d", test.input, len(result), test.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		max      int
		expected string
	}{
		{"short", 10, "short"},
		{"this is a long string", 10, "this is..."},
		{"exact", 5, "exact"},
		{"ab", 10, "ab"},
	}

	for _, test := range tests {
		result := truncate(test.input, test.max)
		if result != test.expected {
			t.Errorf("truncate(%q, %d) = %q, expected %q", test.input, test.max, result, test.expected)
		}
	}
}

func TestImportFile(t *testing.T) {
	cli, out := setupTestCLI(t)
	writeSales(t, cli, "/data/sales.parquet")
	if err := cli.loadTable("sales", "/data/sales.parquet"); err != nil {
		t.Fatalf("loadTable failed: %v", err)
	}

	script := filepath.Join(t.TempDir(), "report.sql")
	content := "-- totals\nSELECT sum(amount) FROM sales;\nSELECT * FROM missing;\n"
	if err := os.WriteFile(script, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := cli.importFile(script); err != nil {
		t.Fatalf("importFile failed: %v", err)
	}
	if !strings.Contains(out.String(), "1 succeeded, 1 failed") {
		t.Errorf("Unexpected import summary: %q", out.String())
	}
}

func TestImportFileNotFound(t *testing.T) {
	cli, _ := setupTestCLI(t)

	if err := cli.importFile("nonexistent.sql"); err == nil {
		t.Error("Expected error for non-existent file")
	}
}
