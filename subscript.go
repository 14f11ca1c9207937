package dbtools

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	plexer "github.com/alecthomas/participle/v2/lexer"
)

// subscriptExpr is a table subscript as typed at the REPL or on the
// command line, like Foo[2:5] or Foo['name','age'].
type subscriptExpr struct {
	Table string   `@Ident`
	Key   *keyExpr `( "[" @@ "]" )?`
}

type keyExpr struct {
	Columns []string  `  @String ( "," @String )*`
	Rows    *rowsExpr `| @@`
}

// rowsExpr is a row key or a slice. Each branch starts with a token so an
// empty or malformed key fails to parse.
type rowsExpr struct {
	Start *int64     `  ( @Int`
	Slice *sliceExpr `    @@?`
	Bare  *sliceExpr `  | @@ )`
}

type sliceExpr struct {
	Colon bool   `@":"`
	Stop  *int64 `@Int?`
	Step  *int64 `( ":" @Int? )?`
}

var subscriptLexer = plexer.MustSimple([]plexer.SimpleRule{
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*|"(?:[^"]|"")*"`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Int", Pattern: `-?\d+`},
	{Name: "Punct", Pattern: `[\[\]:,]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var subscriptParser = participle.MustBuild[subscriptExpr](
	participle.Lexer(subscriptLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// ParseSubscript splits an expression like Foo[1:3] into the table name
// and the key Table.Index takes. Supported forms:
//
//	Foo               every row
//	Foo[2]            the row whose primary key is 2
//	Foo[2:5]          primary keys 2 through 4; either bound may be left out
//	Foo[::1]          a slice with a step
//	Foo['name']       one column
//	Foo['name','age'] several columns
//
// Table names may be double-quoted and strings single-quoted, with the
// quote doubled to escape it.
func ParseSubscript(source string) (string, interface{}, error) {
	expr, err := subscriptParser.ParseString("", source)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %q: %s", ErrParse, source, err)
	}

	table := unquote(expr.Table, '"')
	if expr.Key == nil {
		return table, All(), nil
	}

	if len(expr.Key.Columns) > 0 {
		cols := make([]string, 0, len(expr.Key.Columns))
		for _, c := range expr.Key.Columns {
			cols = append(cols, unquote(c, '\''))
		}
		if len(cols) == 1 {
			return table, cols[0], nil
		}
		return table, cols, nil
	}

	rows := expr.Key.Rows
	slice := rows.Slice
	if rows.Bare != nil {
		slice = rows.Bare
	}
	if slice == nil {
		return table, *rows.Start, nil
	}

	return table, Slice{Start: rows.Start, Stop: slice.Stop, Step: slice.Step}, nil
}

func unquote(s string, quote byte) string {
	if len(s) >= 2 && s[0] == quote && s[len(s)-1] == quote {
		q := string(quote)
		return strings.ReplaceAll(s[1:len(s)-1], q+q, q)
	}

	return s
}
