package dbtools

import (
	"fmt"
	"strings"
)

func tokenFromKeyword(k keyword) token {
	return token{
		kind:  keywordKind,
		value: string(k),
	}
}

func tokenFromSymbol(s symbol) token {
	return token{
		kind:  symbolKind,
		value: string(s),
	}
}

// parser reads a CREATE TABLE statement as stored in sqlite_master. Only
// the outermost column list is understood: column names, their declared
// types and the PRIMARY KEY / AUTOINCREMENT markers.
type parser struct {
	tokens []*token
	// help is the first message recorded while parsing
	help string
}

func (p *parser) expectToken(cursor uint, t token) bool {
	if cursor >= uint(len(p.tokens)) {
		return false
	}

	return t.equals(p.tokens[cursor])
}

func (p *parser) helpMessage(cursor uint, msg string) {
	if p.help != "" {
		return
	}

	if len(p.tokens) == 0 {
		p.help = msg
		return
	}

	var c *token
	if cursor < uint(len(p.tokens)) {
		c = p.tokens[cursor]
	} else {
		c = p.tokens[len(p.tokens)-1]
	}

	p.help = fmt.Sprintf("[%d,%d]: %s, got: %s", c.loc.line, c.loc.col, msg, c.value)
}

func (p *parser) parseToken(initialCursor uint, kind tokenKind) (*token, uint, bool) {
	cursor := initialCursor

	if cursor >= uint(len(p.tokens)) {
		return nil, initialCursor, false
	}

	current := p.tokens[cursor]
	if current.kind == kind {
		return current, cursor + 1, true
	}

	return nil, initialCursor, false
}

// name [type ...] [constraint ...]
func (p *parser) parseColumnDefinition(initialCursor uint) (*columnDefinition, uint, bool) {
	cursor := initialCursor

	id, newCursor, ok := p.parseToken(cursor, identifierKind)
	if !ok {
		if cursor < uint(len(p.tokens)) && p.tokens[cursor].kind == keywordKind {
			p.helpMessage(cursor, "Table constraints are not supported")
		} else {
			p.helpMessage(cursor, "Expected column name")
		}
		return nil, initialCursor, false
	}
	cursor = newCursor

	cd := columnDefinition{name: id.value}

	typeWords := []string{}
	for {
		ty, newCursor, ok := p.parseToken(cursor, identifierKind)
		if !ok {
			break
		}
		typeWords = append(typeWords, ty.value)
		cursor = newCursor
	}
	cd.datatype = strings.Join(typeWords, " ")

	for {
		if cursor >= uint(len(p.tokens)) {
			p.helpMessage(cursor, "Expected right parenthesis")
			return nil, initialCursor, false
		}

		current := p.tokens[cursor]
		if current.equals(&token{kind: symbolKind, value: string(commaSymbol)}) ||
			current.equals(&token{kind: symbolKind, value: string(rightParenSymbol)}) {
			break
		}

		if current.equals(&token{kind: symbolKind, value: string(leftParenSymbol)}) {
			p.helpMessage(cursor, "Nested parentheses are not supported")
			return nil, initialCursor, false
		}

		if p.expectToken(cursor, tokenFromKeyword(primaryKeyword)) {
			if !p.expectToken(cursor+1, tokenFromKeyword(keyKeyword)) {
				p.helpMessage(cursor+1, "Expected KEY after PRIMARY")
				return nil, initialCursor, false
			}
			cd.primaryKey = true
			cursor += 2
			continue
		}

		if p.expectToken(cursor, tokenFromKeyword(autoincrementKeyword)) {
			cd.autoincrement = true
		}

		cursor++
	}

	return &cd, cursor, true
}

func (p *parser) parseColumnDefinitions(initialCursor uint, delimiter token) ([]*columnDefinition, uint, bool) {
	cursor := initialCursor

	cds := []*columnDefinition{}
	for {
		if cursor >= uint(len(p.tokens)) {
			p.helpMessage(cursor, "Expected right parenthesis")
			return nil, initialCursor, false
		}

		current := p.tokens[cursor]
		if delimiter.equals(current) {
			break
		}

		if len(cds) > 0 {
			if !p.expectToken(cursor, tokenFromSymbol(commaSymbol)) {
				p.helpMessage(cursor, "Expected comma")
				return nil, initialCursor, false
			}

			cursor++
		}

		cd, newCursor, ok := p.parseColumnDefinition(cursor)
		if !ok {
			return nil, initialCursor, false
		}
		cursor = newCursor

		cds = append(cds, cd)
	}

	if len(cds) == 0 {
		p.helpMessage(cursor, "Expected column definition")
		return nil, initialCursor, false
	}

	return cds, cursor, true
}

// CREATE [TEMP] TABLE [IF NOT EXISTS] [schema.]name (coldef [, ...])
func (p *parser) parseCreateTableStatement(initialCursor uint) (*CreateTableStatement, uint, bool) {
	cursor := initialCursor

	if !p.expectToken(cursor, tokenFromKeyword(createKeyword)) {
		p.helpMessage(cursor, "Expected CREATE")
		return nil, initialCursor, false
	}
	cursor++

	if p.expectToken(cursor, tokenFromKeyword(tempKeyword)) || p.expectToken(cursor, tokenFromKeyword(temporaryKeyword)) {
		cursor++
	}

	if !p.expectToken(cursor, tokenFromKeyword(tableKeyword)) {
		p.helpMessage(cursor, "Expected TABLE")
		return nil, initialCursor, false
	}
	cursor++

	if p.expectToken(cursor, tokenFromKeyword(ifKeyword)) {
		if !p.expectToken(cursor+1, tokenFromKeyword(notKeyword)) || !p.expectToken(cursor+2, tokenFromKeyword(existsKeyword)) {
			p.helpMessage(cursor, "Expected IF NOT EXISTS")
			return nil, initialCursor, false
		}
		cursor += 3
	}

	name, newCursor, ok := p.parseToken(cursor, identifierKind)
	if !ok {
		p.helpMessage(cursor, "Expected table name")
		return nil, initialCursor, false
	}
	cursor = newCursor

	if p.expectToken(cursor, tokenFromSymbol(periodSymbol)) {
		cursor++
		name, newCursor, ok = p.parseToken(cursor, identifierKind)
		if !ok {
			p.helpMessage(cursor, "Expected table name after schema")
			return nil, initialCursor, false
		}
		cursor = newCursor
	}

	if !p.expectToken(cursor, tokenFromSymbol(leftParenSymbol)) {
		p.helpMessage(cursor, "Expected left parenthesis")
		return nil, initialCursor, false
	}
	cursor++

	cols, newCursor, ok := p.parseColumnDefinitions(cursor, tokenFromSymbol(rightParenSymbol))
	if !ok {
		return nil, initialCursor, false
	}
	cursor = newCursor

	if !p.expectToken(cursor, tokenFromSymbol(rightParenSymbol)) {
		p.helpMessage(cursor, "Expected right parenthesis")
		return nil, initialCursor, false
	}
	cursor++

	// WITHOUT ROWID and any other table options are skipped
	for cursor < uint(len(p.tokens)) && !p.expectToken(cursor, tokenFromSymbol(semicolonSymbol)) {
		cursor++
	}

	return &CreateTableStatement{
		name: name.value,
		cols: cols,
	}, cursor, true
}

// ParseCreateTable parses the text of a CREATE TABLE statement.
func ParseCreateTable(source string) (*CreateTableStatement, error) {
	tokens, err := lex(source)
	if err != nil {
		return nil, err
	}

	p := parser{tokens: tokens}
	stmt, _, ok := p.parseCreateTableStatement(0)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrParse, p.help)
	}

	return stmt, nil
}
