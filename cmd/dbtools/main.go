package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/eatonphil/dbtools"
)

// CLI defines the command-line interface for dbtools.
var CLI struct {
	DB        string `name:"db" short:"d" env:"DBTOOLS_DB" help:"SQLite database file" type:"path"`
	Verbose   bool   `short:"v" help:"Log every SQL statement"`
	LogFormat string `name:"log-format" enum:"text,json" default:"text" help:"Log output format (text, json)"`

	Tables   TablesCmd   `cmd:"" help:"List tables"`
	Describe DescribeCmd `cmd:"" help:"Show the columns of a table"`
	Show     ShowCmd     `cmd:"" help:"Print rows selected by a subscript like Foo[1:3]"`
	Create   CreateCmd   `cmd:"" help:"Create a table from a JSON array of records"`
	Drop     DropCmd     `cmd:"" help:"Drop a table"`
	Repl     ReplCmd     `cmd:"" help:"Start an interactive session"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

const version = "0.1.0"

func backend() (dbtools.Backend, error) {
	if CLI.DB == "" {
		return nil, fmt.Errorf("no database given: use --db or set DBTOOLS_DB")
	}
	return dbtools.NewSQLiteBackend(CLI.DB), nil
}

// TablesCmd lists the tables in the database.
type TablesCmd struct{}

func (c *TablesCmd) Run(ctx *kong.Context) error {
	b, err := backend()
	if err != nil {
		return err
	}

	names, err := dbtools.ListTables(b)
	if err != nil {
		return err
	}

	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

// DescribeCmd prints a table's definition.
type DescribeCmd struct {
	Table string `arg:"" help:"Table name"`
}

func (c *DescribeCmd) Run(ctx *kong.Context) error {
	b, err := backend()
	if err != nil {
		return err
	}

	t, err := dbtools.Open(b, c.Table, CLI.Verbose)
	if err != nil {
		return err
	}

	fmt.Println(t)
	return nil
}

// ShowCmd selects rows by subscript, optionally filtered.
type ShowCmd struct {
	Expr  string   `arg:"" help:"Table subscript, e.g. Foo, Foo[2], Foo[1:5], Foo['name','age']"`
	Where string   `short:"w" help:"SQL condition, with ? placeholders"`
	Arg   []string `short:"a" sep:"none" help:"Value bound to the next ? in --where"`
}

func (c *ShowCmd) Run(ctx *kong.Context) error {
	name, key, err := dbtools.ParseSubscript(c.Expr)
	if err != nil {
		return err
	}

	b, err := backend()
	if err != nil {
		return err
	}

	t, err := dbtools.Open(b, name, CLI.Verbose)
	if err != nil {
		return err
	}

	var frame *dbtools.Frame
	if c.Where == "" {
		frame, err = t.Index(key)
	} else {
		args := make([]interface{}, 0, len(c.Arg))
		for _, a := range c.Arg {
			args = append(args, a)
		}
		frame, err = t.IndexWhere(key, dbtools.NewWhere(c.Where, args...))
	}
	if err != nil {
		return err
	}

	fmt.Print(frame)
	return nil
}

// CreateCmd creates a table from a file of JSON records.
type CreateCmd struct {
	Table         string `arg:"" help:"Table name"`
	File          string `arg:"" help:"JSON file holding an array of objects" type:"existingfile"`
	PrimaryKey    string `name:"primary-key" short:"k" help:"Integer primary key column, added if missing"`
	Autoincrement bool   `help:"Let SQLite assign primary keys"`
}

func (c *CreateCmd) Run(ctx *kong.Context) error {
	b, err := backend()
	if err != nil {
		return err
	}

	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	var raw []map[string]interface{}
	dec := json.NewDecoder(f)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("failed to read %s: %w", c.File, err)
	}

	records := make([]dbtools.Record, 0, len(raw))
	for _, r := range raw {
		record := dbtools.Record{}
		for k, v := range r {
			record[k] = jsonValue(v)
		}
		records = append(records, record)
	}

	t, err := dbtools.Create(b, c.Table, records, dbtools.CreateOptions{
		PrimaryKey:    c.PrimaryKey,
		Autoincrement: c.Autoincrement,
		Verbose:       CLI.Verbose,
	})
	if err != nil {
		return err
	}

	fmt.Println(t)
	return nil
}

// jsonValue narrows decoded JSON numbers to int64 where they are whole.
func jsonValue(v interface{}) interface{} {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// DropCmd drops a table.
type DropCmd struct {
	Table string `arg:"" help:"Table name"`
}

func (c *DropCmd) Run(ctx *kong.Context) error {
	b, err := backend()
	if err != nil {
		return err
	}

	t, err := dbtools.Open(b, c.Table, CLI.Verbose)
	if err != nil {
		return err
	}

	return t.Drop()
}

// ReplCmd starts the interactive session.
type ReplCmd struct{}

func (c *ReplCmd) Run(ctx *kong.Context) error {
	b, err := backend()
	if err != nil {
		return err
	}

	return dbtools.RunRepl(b)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(ctx *kong.Context) error {
	fmt.Printf("dbtools version %s (%s)\n", version, dbtools.DriverPackage())
	return nil
}

func initLogger() {
	level := slog.LevelWarn
	if CLI.Verbose {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if CLI.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	dbtools.SetLogger(slog.New(handler))
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("dbtools"),
		kong.Description("Frame-like access to SQLite tables"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	initLogger()
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
