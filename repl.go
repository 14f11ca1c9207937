package dbtools

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/olekukonko/tablewriter"
)

func doIndex(b Backend, out io.Writer, source string) error {
	name, key, err := ParseSubscript(source)
	if err != nil {
		return err
	}

	t, err := Open(b, name, false)
	if err != nil {
		return err
	}

	frame, err := t.Index(key)
	if err != nil {
		return err
	}

	if frame.Len() == 0 {
		fmt.Fprintln(out, "(no results)")
		return nil
	}

	fmt.Fprint(out, frame.String())
	if frame.Len() == 1 {
		fmt.Fprintln(out, "(1 result)")
	} else {
		fmt.Fprintf(out, "(%d results)\n", frame.Len())
	}

	return nil
}

// explainIndex prints the statement a subscript runs without running it.
func explainIndex(b Backend, out io.Writer, source string) error {
	name, key, err := ParseSubscript(source)
	if err != nil {
		return err
	}

	t, err := Open(b, name, false)
	if err != nil {
		return err
	}

	columns, where, err := keyToQuery(t.Schema, key)
	if err != nil {
		return err
	}

	stmt, err := buildSelect(t.Name, t.Schema, columns, where)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, stmt.GenerateCode())
	if args := stmt.Args(); len(args) > 0 {
		fmt.Fprintln(out, "args:", args)
	}

	return nil
}

func describeTable(b Backend, out io.Writer, name string) {
	// psql behavior is to display all if no name is specified.
	if name == "" {
		describeTables(b, out)
		return
	}

	t, err := Open(b, name, false)
	if err != nil {
		fmt.Fprintf(out, "Did not find any relation named \"%s\".\n", name)
		return
	}

	fmt.Fprintf(out, "Table \"%s\"\n", name)

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Column", "Type", "Modifiers"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	rows := [][]string{}
	for _, c := range t.Schema.Columns {
		typeString, err := c.Type.SQLType()
		if err != nil {
			typeString = c.Type.String()
		}

		modifiers := []string{}
		if c.PrimaryKey {
			modifiers = append(modifiers, "primary key")
		}
		if c.Autoincrement {
			modifiers = append(modifiers, "autoincrement")
		}
		rows = append(rows, []string{c.Name, strings.ToLower(typeString), strings.Join(modifiers, ", ")})
	}

	table.AppendBulk(rows)
	table.Render()

	fmt.Fprintln(out, "")
}

func describeTables(b Backend, out io.Writer) {
	tables, err := ListTables(b)
	if err != nil || len(tables) == 0 {
		fmt.Fprintln(out, "Did not find any relations.")
		return
	}

	fmt.Fprintln(out, "List of relations")

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Name", "Type"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	rows := [][]string{}
	for _, name := range tables {
		rows = append(rows, []string{name, "table"})
	}

	table.AppendBulk(rows)
	table.Render()

	fmt.Fprintln(out, "")
}

// evalLine runs one line of REPL input and reports whether the session
// should end.
func evalLine(b Backend, out io.Writer, line string) bool {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return false
	case trimmed == "quit" || trimmed == "exit" || trimmed == "\\q":
		return true
	case trimmed == "\\dt":
		describeTables(b, out)
		return false
	case strings.HasPrefix(trimmed, "\\d"):
		describeTable(b, out, strings.TrimSpace(trimmed[len("\\d"):]))
		return false
	case strings.HasPrefix(trimmed, "\\p"):
		if err := explainIndex(b, out, strings.TrimSpace(trimmed[len("\\p"):])); err != nil {
			fmt.Fprintln(out, "Error while parsing:", err)
		}
		return false
	}

	if err := doIndex(b, out, trimmed); err != nil {
		fmt.Fprintln(out, "Error selecting values:", err)
	}

	return false
}

// RunRepl reads table subscripts like Foo[1:3] from the terminal and
// prints the selected rows until the user quits.
func RunRepl(b Backend) error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "# ",
		HistoryFile:     filepath.Join(os.TempDir(), "dbtools_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer l.Close()

	fmt.Println("Welcome to dbtools.")
	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if err == io.EOF {
			return nil
		}
		if err != nil {
			fmt.Println("Error while reading line:", err)
			continue
		}

		if evalLine(b, l.Stdout(), line) {
			return nil
		}
	}
}
