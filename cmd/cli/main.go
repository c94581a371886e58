package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/nickyhof/FrameBridge"
	"github.com/nickyhof/FrameBridge/config"
	"github.com/nickyhof/FrameBridge/handle"
)

const (
	PromptColor  = "\033[36m" // Cyan
	ErrorColor   = "\033[31m" // Red
	SuccessColor = "\033[32m" // Green
	ResetColor   = "\033[0m"
	BoldColor    = "\033[1m"
)

// Version is set at build time via -ldflags
var Version = "dev"

// CLI holds the console state
type CLI struct {
	inst        *FrameBridge.Instance
	sql         handle.Handle
	out         io.Writer
	history     []string
	historyFile string
}

// tableFlags collects repeated -load name=path arguments.
type tableFlags []string

func (f *tableFlags) String() string { return strings.Join(*f, ",") }

func (f *tableFlags) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	// the error slot is per OS thread
	runtime.LockOSThread()

	cfgFile := flag.String("config", "", "YAML configuration file")
	sqlFile := flag.String("sqlFile", "", "SQL file to execute (non-interactive)")
	var tables tableFlags
	flag.Var(&tables, "load", "Register a file as a table: name=path (repeatable)")
	flag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
		os.Exit(1)
	}

	inst := FrameBridge.Open(cfg)
	defer inst.Close()

	cli, err := newCLI(inst, os.Stdout)
	if err != nil {
		fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
		os.Exit(1)
	}
	cli.historyFile = getHistoryPath()
	cli.loadHistory()

	for _, t := range tables {
		name, path, ok := strings.Cut(t, "=")
		if !ok {
			fmt.Printf("%sError: -load expects name=path, got %q%s\n", ErrorColor, t, ResetColor)
			os.Exit(1)
		}
		if err := cli.loadTable(name, path); err != nil {
			fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
			os.Exit(1)
		}
	}

	if *sqlFile != "" {
		if err := cli.importFile(*sqlFile); err != nil {
			fmt.Printf("%sError importing file: %v%s\n", ErrorColor, err, ResetColor)
			os.Exit(1)
		}
		return
	}

	printBanner()
	cli.run(os.Stdin)
}

func newCLI(inst *FrameBridge.Instance, out io.Writer) (*CLI, error) {
	cli := &CLI{
		inst:    inst,
		out:     out,
		history: make([]string, 0),
	}
	cli.sql = inst.NewSQLContext()
	if cli.sql == 0 {
		return nil, cli.lastError()
	}
	return cli, nil
}

// lastError turns the message left by a failed call into an error.
func (cli *CLI) lastError() error {
	msg, ok := cli.inst.LastError()
	if !ok {
		msg = "unknown failure"
	}
	return errors.New(msg)
}

func printBanner() {
	fmt.Println()
	bannerWidth := 39 // inner width of the banner box
	versionLine := fmt.Sprintf("FrameBridge v%s", Version)
	padding := bannerWidth - len(versionLine) - 2 // -2 for "  " margins
	if padding < 0 {
		padding = 0
	}
	leftPad := padding / 2
	rightPad := padding - leftPad

	fmt.Printf("%s%s╔═══════════════════════════════════════╗%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Printf("%s%s║ %*s%s%*s ║%s\n", BoldColor, PromptColor, leftPad, "", versionLine, rightPad, "", ResetColor)
	fmt.Printf("%s%s║   SQL over Arrow files                ║%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Printf("%s%s╚═══════════════════════════════════════╝%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println()
	fmt.Println("Type .help for commands, .quit to exit")
	fmt.Println()
}

func (cli *CLI) run(in io.Reader) {
	reader := bufio.NewReader(in)
	var multiLineBuffer strings.Builder

	for {
		fmt.Fprint(cli.out, cli.getPrompt(multiLineBuffer.Len() > 0))

		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(cli.out, "\n%sGoodbye!%s\n", SuccessColor, ResetColor)
			cli.saveHistory()
			return
		}

		input = strings.TrimSuffix(input, "\n")
		input = strings.TrimSuffix(input, "\r")

		if strings.TrimSpace(input) == "" {
			continue
		}

		if multiLineBuffer.Len() == 0 && strings.HasPrefix(input, ".") {
			if cli.handleCommand(input) {
				continue
			}
		}

		// Multi-line support: accumulate until we see a semicolon
		multiLineBuffer.WriteString(input)

		trimmed := strings.TrimSpace(multiLineBuffer.String())
		if !strings.HasSuffix(trimmed, ";") {
			multiLineBuffer.WriteString(" ")
			continue
		}

		sql := strings.TrimSuffix(trimmed, ";")
		multiLineBuffer.Reset()

		if strings.TrimSpace(sql) == "" {
			continue
		}

		cli.addToHistory(sql + ";")

		if err := cli.query(sql); err != nil {
			fmt.Fprintf(cli.out, "%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		}
	}
}

func (cli *CLI) getPrompt(multiLine bool) string {
	if multiLine {
		return fmt.Sprintf("%s      ...>%s ", PromptColor, ResetColor)
	}
	return fmt.Sprintf("%sframebridge>%s ", PromptColor, ResetColor)
}

// execute runs one statement and returns the result frame handle.
func (cli *CLI) execute(sql string) (handle.Handle, error) {
	df := cli.inst.SQLExecute(cli.sql, sql)
	if df == 0 {
		return 0, cli.lastError()
	}
	return df, nil
}

// query runs one statement and prints its result.
func (cli *CLI) query(sql string) error {
	df, err := cli.execute(sql)
	if err != nil {
		return err
	}
	defer cli.inst.FreeDataFrame(df)

	text, ok := cli.inst.DataFrameString(df)
	if !ok {
		return cli.lastError()
	}
	fmt.Fprintln(cli.out, text)
	fmt.Fprintf(cli.out, "%s(%d rows)%s\n", SuccessColor, cli.inst.Height(df), ResetColor)
	return nil
}

// loadTable scans path, choosing the reader by extension, and registers the
// result as table name.
func (cli *CLI) loadTable(name, path string) error {
	var lf handle.Handle
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		lf = cli.inst.ScanCSV(path, true)
	case ".parquet", ".pq":
		lf = cli.inst.ScanParquet(path)
	case ".arrow", ".ipc", ".feather":
		lf = cli.inst.ScanIPC(path)
	default:
		return fmt.Errorf("unsupported file type: %s", path)
	}
	if lf == 0 {
		return cli.lastError()
	}
	if !cli.inst.SQLRegister(cli.sql, name, lf) {
		return cli.lastError()
	}
	fmt.Fprintf(cli.out, "%s✓ Loaded %s from %s%s\n", SuccessColor, name, path, ResetColor)
	return nil
}

// saveResult runs sql and writes its result to path, choosing the writer by
// extension.
func (cli *CLI) saveResult(path, sql string) error {
	df, err := cli.execute(sql)
	if err != nil {
		return err
	}
	defer cli.inst.FreeDataFrame(df)

	var ok bool
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		ok = cli.inst.WriteCSV(df, path)
	case ".parquet", ".pq":
		ok = cli.inst.WriteParquet(df, path)
	case ".arrow", ".ipc", ".feather":
		ok = cli.inst.WriteIPC(df, path)
	default:
		return fmt.Errorf("unsupported file type: %s", path)
	}
	if !ok {
		return cli.lastError()
	}
	fmt.Fprintf(cli.out, "%s✓ Wrote %d rows to %s%s\n", SuccessColor, cli.inst.Height(df), path, ResetColor)
	return nil
}

func (cli *CLI) handleCommand(input string) bool {
	parts := strings.Fields(strings.TrimSpace(input))

	if len(parts) == 0 {
		return true
	}

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit", ".q":
		fmt.Fprintf(cli.out, "%sGoodbye!%s\n", SuccessColor, ResetColor)
		cli.saveHistory()
		os.Exit(0)

	case ".help", ".h", ".?":
		cli.printHelp()

	case ".tables":
		cli.showTables()

	case ".load":
		if len(parts) == 3 {
			if err := cli.loadTable(parts[1], parts[2]); err != nil {
				fmt.Fprintf(cli.out, "%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
			}
		} else {
			fmt.Fprintf(cli.out, "%s✗ Usage: .load <table> <file>%s\n", ErrorColor, ResetColor)
		}

	case ".save":
		if len(parts) > 2 {
			sql := strings.TrimSuffix(strings.Join(parts[2:], " "), ";")
			if err := cli.saveResult(parts[1], sql); err != nil {
				fmt.Fprintf(cli.out, "%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
			}
		} else {
			fmt.Fprintf(cli.out, "%s✗ Usage: .save <file> <query>%s\n", ErrorColor, ResetColor)
		}

	case ".metrics":
		fmt.Fprint(cli.out, cli.inst.MetricsText())

	case ".clear", ".cls":
		fmt.Fprint(cli.out, "\033[H\033[2J")

	case ".history":
		cli.printHistory()

	case ".version":
		fmt.Fprintf(cli.out, "FrameBridge version %s\n", Version)

	case ".import":
		if len(parts) > 1 {
			if err := cli.importFile(parts[1]); err != nil {
				fmt.Fprintf(cli.out, "%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
			}
		} else {
			fmt.Fprintf(cli.out, "%s✗ Usage: .import <file.sql>%s\n", ErrorColor, ResetColor)
		}

	default:
		fmt.Fprintf(cli.out, "%s✗ Unknown command: %s (type .help for commands)%s\n", ErrorColor, parts[0], ResetColor)
	}

	return true
}

func (cli *CLI) printHelp() {
	fmt.Fprintln(cli.out)
	fmt.Fprintf(cli.out, "%s%sSpecial Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(cli.out, "  .help, .h             Show this help message")
	fmt.Fprintln(cli.out, "  .quit, .exit          Exit the console")
	fmt.Fprintln(cli.out, "  .load <table> <file>  Register a CSV, Parquet or Arrow IPC file")
	fmt.Fprintln(cli.out, "  .tables               List registered tables")
	fmt.Fprintln(cli.out, "  .save <file> <query>  Write a query result to a file")
	fmt.Fprintln(cli.out, "  .import <file>        Execute SQL statements from a file")
	fmt.Fprintln(cli.out, "  .metrics              Show engine metrics")
	fmt.Fprintln(cli.out, "  .history              Show command history")
	fmt.Fprintln(cli.out, "  .clear                Clear the screen")
	fmt.Fprintln(cli.out, "  .version              Show version info")
	fmt.Fprintln(cli.out)
	fmt.Fprintln(cli.out, "Files may be local paths, s3:// URLs or http(s):// URLs.")
	fmt.Fprintln(cli.out, "Statements end with ';' and may span several lines.")
	fmt.Fprintln(cli.out)
}

func (cli *CLI) showTables() {
	tables := cli.inst.SQLTables(cli.sql)
	if len(tables) == 0 {
		fmt.Fprintln(cli.out, "No tables loaded")
		return
	}
	for _, name := range tables {
		fmt.Fprintf(cli.out, "  %s\n", name)
	}
}

func (cli *CLI) addToHistory(cmd string) {
	// Don't add duplicates of the last command
	if len(cli.history) > 0 && cli.history[len(cli.history)-1] == cmd {
		return
	}
	cli.history = append(cli.history, cmd)

	if len(cli.history) > 1000 {
		cli.history = cli.history[len(cli.history)-1000:]
	}
}

func (cli *CLI) printHistory() {
	if len(cli.history) == 0 {
		fmt.Fprintln(cli.out, "No command history")
		return
	}

	start := 0
	if len(cli.history) > 20 {
		start = len(cli.history) - 20
	}

	for i := start; i < len(cli.history); i++ {
		fmt.Fprintf(cli.out, "  %3d  %s\n", i+1, cli.history[i])
	}
}

func getHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".framebridge_history")
}

func (cli *CLI) loadHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Open(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		cli.history = append(cli.history, scanner.Text())
	}
}

func (cli *CLI) saveHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Create(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	start := 0
	if len(cli.history) > 1000 {
		start = len(cli.history) - 1000
	}

	for i := start; i < len(cli.history); i++ {
		_, _ = file.WriteString(cli.history[i] + "\n")
	}
}

// importFile reads and executes SQL statements from a file
func (cli *CLI) importFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	successCount := 0
	errorCount := 0

	for i, stmt := range splitStatements(string(data)) {
		df, err := cli.execute(stmt)
		if err != nil {
			fmt.Fprintf(cli.out, "%s[%d] ✗ %s%s\n", ErrorColor, i+1, truncate(stmt, 50), ResetColor)
			fmt.Fprintf(cli.out, "      Error: %v\n", err)
			errorCount++
			continue
		}
		successCount++
		fmt.Fprintf(cli.out, "%s[%d] ✓ %s (%d rows)%s\n", SuccessColor, i+1, truncate(stmt, 50), cli.inst.Height(df), ResetColor)
		cli.inst.FreeDataFrame(df)
	}

	fmt.Fprintf(cli.out, "\n%s✓ Import complete: %d succeeded, %d failed%s\n",
		SuccessColor, successCount, errorCount, ResetColor)

	return nil
}

// splitStatements splits SQL content into individual statements
func splitStatements(content string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	stringChar := byte(0)

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if (ch == '\'' || ch == '"') && (i == 0 || content[i-1] != '\\') {
			if !inString {
				inString = true
				stringChar = ch
			} else if ch == stringChar {
				inString = false
			}
		}

		// Skip line comments
		if !inString && ch == '-' && i+1 < len(content) && content[i+1] == '-' {
			for i < len(content) && content[i] != '\n' {
				i++
			}
			continue
		}

		if !inString && ch == ';' {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
			continue
		}

		current.WriteByte(ch)
	}

	// Handle last statement without semicolon
	stmt := strings.TrimSpace(current.String())
	if stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}

// truncate shortens a string to max length with ellipsis
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
