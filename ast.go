package dbtools

import (
	"fmt"
	"strings"
)

// Statement is a SQL statement ready to run: its text plus the values
// bound to its ? placeholders, in order.
type Statement interface {
	GenerateCode() string
	Args() []interface{}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdents(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		quoted = append(quoted, quoteIdent(n))
	}

	return strings.Join(quoted, ", ")
}

type columnDefinition struct {
	name          string
	datatype      string
	primaryKey    bool
	autoincrement bool
}

type CreateTableStatement struct {
	name string
	cols []*columnDefinition
}

func (cts CreateTableStatement) GenerateCode() string {
	cols := []string{}
	for _, col := range cts.cols {
		modifiers := ""
		if col.primaryKey {
			modifiers += " PRIMARY KEY"
		}
		if col.autoincrement {
			modifiers += " AUTOINCREMENT"
		}
		spec := fmt.Sprintf("%s %s%s", quoteIdent(col.name), strings.ToUpper(col.datatype), modifiers)
		cols = append(cols, spec)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(cts.name), strings.Join(cols, ", "))
}

func (cts CreateTableStatement) Args() []interface{} {
	return nil
}

type DropTableStatement struct {
	name string
}

func (dts DropTableStatement) GenerateCode() string {
	return fmt.Sprintf("DROP TABLE %s", quoteIdent(dts.name))
}

func (dts DropTableStatement) Args() []interface{} {
	return nil
}

type InsertStatement struct {
	table  string
	cols   []string
	values []interface{}
}

func (is InsertStatement) GenerateCode() string {
	if len(is.cols) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", quoteIdent(is.table))
	}

	qm := strings.Repeat("?, ", len(is.cols))
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(is.table), quoteIdents(is.cols), qm[:len(qm)-2])
}

func (is InsertStatement) Args() []interface{} {
	return is.values
}

type SelectStatement struct {
	table string
	cols  []string
	where *Where
}

func (ss SelectStatement) GenerateCode() string {
	return fmt.Sprintf("SELECT %s FROM %s%s", quoteIdents(ss.cols), quoteIdent(ss.table), ss.where.generateCode())
}

func (ss SelectStatement) Args() []interface{} {
	return ss.where.bindings()
}

type UpdateStatement struct {
	table  string
	cols   []string
	values []interface{}
	where  *Where
}

func (us UpdateStatement) GenerateCode() string {
	set := []string{}
	for _, col := range us.cols {
		set = append(set, quoteIdent(col)+"=?")
	}
	return fmt.Sprintf("UPDATE %s SET %s%s", quoteIdent(us.table), strings.Join(set, ", "), us.where.generateCode())
}

func (us UpdateStatement) Args() []interface{} {
	args := append([]interface{}{}, us.values...)
	return append(args, us.where.bindings()...)
}

type DeleteStatement struct {
	table string
	where *Where
}

func (ds DeleteStatement) GenerateCode() string {
	return fmt.Sprintf("DELETE FROM %s%s", quoteIdent(ds.table), ds.where.generateCode())
}

func (ds DeleteStatement) Args() []interface{} {
	return ds.where.bindings()
}
