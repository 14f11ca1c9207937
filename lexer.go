package dbtools

import (
	"fmt"
	"strings"
)

// location of the token in source code
type location struct {
	line uint
	col  uint
}

// for storing SQL reserved keywords
type keyword string

const (
	createKeyword        keyword = "create"
	tableKeyword         keyword = "table"
	temporaryKeyword     keyword = "temporary"
	tempKeyword          keyword = "temp"
	ifKeyword            keyword = "if"
	notKeyword           keyword = "not"
	existsKeyword        keyword = "exists"
	primaryKeyword       keyword = "primary"
	keyKeyword           keyword = "key"
	autoincrementKeyword keyword = "autoincrement"
	nullKeyword          keyword = "null"
	uniqueKeyword        keyword = "unique"
	defaultKeyword       keyword = "default"
	constraintKeyword    keyword = "constraint"
	collateKeyword       keyword = "collate"
	ascKeyword           keyword = "asc"
	descKeyword          keyword = "desc"
	withoutKeyword       keyword = "without"
)

// for storing SQL syntax
type symbol string

const (
	semicolonSymbol  symbol = ";"
	commaSymbol      symbol = ","
	leftParenSymbol  symbol = "("
	rightParenSymbol symbol = ")"
	periodSymbol     symbol = "."
	plusSymbol       symbol = "+"
	minusSymbol      symbol = "-"
)

type tokenKind uint

const (
	keywordKind tokenKind = iota
	symbolKind
	identifierKind
	stringKind
	numericKind
)

type token struct {
	value string
	kind  tokenKind
	loc   location
}

func (t *token) equals(other *token) bool {
	return t.value == other.value && t.kind == other.kind
}

// cursor indicates the current position of the lexer
type cursor struct {
	pointer uint
	loc     location
}

func isIdentifierChar(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '$' || c == '_'
}

// longestMatch iterates through a source string starting at the given
// cursor to find the longest matching substring among the provided
// options
func longestMatch(source string, ic cursor, options []string) string {
	var value []byte
	var skipList []int
	var match string

	cur := ic

	for cur.pointer < uint(len(source)) {

		value = append(value, strings.ToLower(string(source[cur.pointer]))...)
		cur.pointer++

	match:
		for i, option := range options {
			for _, skip := range skipList {
				if i == skip {
					continue match
				}
			}

			// Deal with cases like TEMP vs TEMPORARY
			if option == string(value) {
				skipList = append(skipList, i)
				if len(option) > len(match) {
					match = option
				}

				continue
			}

			sharesPrefix := string(value) == option[:cur.pointer-ic.pointer]
			tooLong := len(value) > len(option)
			if tooLong || !sharesPrefix {
				skipList = append(skipList, i)
			}
		}

		if len(skipList) == len(options) {
			break
		}
	}

	return match
}

func lexSymbol(source string, ic cursor) (*token, cursor, bool) {
	c := source[ic.pointer]
	cur := ic
	// Will get overwritten later if not an ignored syntax
	cur.pointer++
	cur.loc.col++

	switch c {
	// Syntax that should be thrown away
	case '\n':
		cur.loc.line++
		cur.loc.col = 0
		fallthrough
	case '\r', '\t', ' ':
		return nil, cur, true
	}

	// Syntax that should be kept
	symbols := []symbol{
		semicolonSymbol,
		commaSymbol,
		leftParenSymbol,
		rightParenSymbol,
		periodSymbol,
		plusSymbol,
		minusSymbol,
	}

	var options []string
	for _, s := range symbols {
		options = append(options, string(s))
	}

	// Use `ic`, not `cur`
	match := longestMatch(source, ic, options)
	// Unknown character
	if match == "" {
		return nil, ic, false
	}

	cur.pointer = ic.pointer + uint(len(match))
	cur.loc.col = ic.loc.col + uint(len(match))

	return &token{
		value: match,
		loc:   ic.loc,
		kind:  symbolKind,
	}, cur, true
}

func lexKeyword(source string, ic cursor) (*token, cursor, bool) {
	cur := ic
	keywords := []keyword{
		createKeyword,
		tableKeyword,
		temporaryKeyword,
		tempKeyword,
		ifKeyword,
		notKeyword,
		existsKeyword,
		primaryKeyword,
		keyKeyword,
		autoincrementKeyword,
		nullKeyword,
		uniqueKeyword,
		defaultKeyword,
		constraintKeyword,
		collateKeyword,
		ascKeyword,
		descKeyword,
		withoutKeyword,
	}

	var options []string
	for _, k := range keywords {
		options = append(options, string(k))
	}

	match := longestMatch(source, ic, options)
	if match == "" {
		return nil, ic, false
	}

	// A keyword followed by more identifier characters is an identifier
	// that happens to start with a keyword, like keyname or nullable.
	end := ic.pointer + uint(len(match))
	if end < uint(len(source)) && isIdentifierChar(source[end]) {
		return nil, ic, false
	}

	cur.pointer = end
	cur.loc.col = ic.loc.col + uint(len(match))

	return &token{
		value: match,
		kind:  keywordKind,
		loc:   ic.loc,
	}, cur, true
}

func lexNumeric(source string, ic cursor) (*token, cursor, bool) {
	cur := ic

	periodFound := false
	expMarkerFound := false

	for ; cur.pointer < uint(len(source)); cur.pointer++ {
		c := source[cur.pointer]
		cur.loc.col++

		isDigit := c >= '0' && c <= '9'
		isPeriod := c == '.'
		isExpMarker := c == 'e'

		// Must start with a digit or period
		if cur.pointer == ic.pointer {
			if !isDigit && !isPeriod {
				return nil, ic, false
			}

			periodFound = isPeriod
			continue
		}

		if isPeriod {
			if periodFound {
				return nil, ic, false
			}

			periodFound = true
			continue
		}

		if isExpMarker {
			if expMarkerFound {
				return nil, ic, false
			}

			// No periods allowed after expMarker
			periodFound = true
			expMarkerFound = true

			// expMarker must be followed by digits
			if cur.pointer == uint(len(source)-1) {
				return nil, ic, false
			}

			cNext := source[cur.pointer+1]
			if cNext == '-' || cNext == '+' {
				cur.pointer++
				cur.loc.col++
			}
			continue
		}

		if !isDigit {
			break
		}
	}

	// No characters accumulated
	if cur.pointer == ic.pointer {
		return nil, ic, false
	}

	// A lone period is a symbol, not a number
	if source[ic.pointer:cur.pointer] == "." {
		return nil, ic, false
	}

	return &token{
		value: source[ic.pointer:cur.pointer],
		loc:   ic.loc,
		kind:  numericKind,
	}, cur, true
}

// lexCharacterDelimited looks through a source string starting at the
// given cursor to find a start- and end- delimiter. The delimiter can
// be escaped be preceeding the delimiter with itself.
func lexCharacterDelimited(source string, ic cursor, delimiter byte, kind tokenKind) (*token, cursor, bool) {
	cur := ic

	if len(source[cur.pointer:]) == 0 {
		return nil, ic, false
	}

	if source[cur.pointer] != delimiter {
		return nil, ic, false
	}

	cur.loc.col++
	cur.pointer++

	var value []byte
	for ; cur.pointer < uint(len(source)); cur.pointer++ {
		c := source[cur.pointer]

		if c == delimiter {
			// SQL escapes are via double characters, not backslash.
			if cur.pointer+1 >= uint(len(source)) || source[cur.pointer+1] != delimiter {
				cur.pointer++
				cur.loc.col++
				return &token{
					value: string(value),
					loc:   ic.loc,
					kind:  kind,
				}, cur, true
			}
			cur.pointer++
			cur.loc.col++
		}

		value = append(value, c)
		cur.loc.col++
	}

	return nil, ic, false
}

// lexBracketed handles [identifier], which SQLite accepts for
// compatibility with other engines.
func lexBracketed(source string, ic cursor) (*token, cursor, bool) {
	if source[ic.pointer] != '[' {
		return nil, ic, false
	}

	end := strings.IndexByte(source[ic.pointer:], ']')
	if end < 0 {
		return nil, ic, false
	}

	cur := ic
	cur.pointer += uint(end) + 1
	cur.loc.col += uint(end) + 1

	return &token{
		value: source[ic.pointer+1 : ic.pointer+uint(end)],
		loc:   ic.loc,
		kind:  identifierKind,
	}, cur, true
}

func lexIdentifier(source string, ic cursor) (*token, cursor, bool) {
	// Handle separately if is a quoted identifier
	for _, delimiter := range []byte{'"', '`'} {
		if token, newCursor, ok := lexCharacterDelimited(source, ic, delimiter, identifierKind); ok {
			return token, newCursor, true
		}
	}
	if token, newCursor, ok := lexBracketed(source, ic); ok {
		return token, newCursor, true
	}

	cur := ic

	c := source[cur.pointer]
	// Other characters count too, big ignoring non-ascii for now
	isAlphabetical := (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '_'
	if !isAlphabetical {
		return nil, ic, false
	}
	cur.pointer++
	cur.loc.col++

	value := []byte{c}
	for ; cur.pointer < uint(len(source)); cur.pointer++ {
		c = source[cur.pointer]
		if isIdentifierChar(c) {
			value = append(value, c)
			cur.loc.col++
			continue
		}

		break
	}

	// Column names keep their case: SQLite reports them as declared.
	return &token{
		value: string(value),
		loc:   ic.loc,
		kind:  identifierKind,
	}, cur, true
}

func lexString(source string, ic cursor) (*token, cursor, bool) {
	return lexCharacterDelimited(source, ic, '\'', stringKind)
}

type lexer func(string, cursor) (*token, cursor, bool)

// lex splits an input string into a list of tokens. This process
// can be divided into following tasks:
//
// 1. Instantiating a cursor with pointing to the start of the string
//
// 2. Execute all the lexers in series.
//
// 3. If any of the lexer generate a token then add the token to the
// token slice, update the cursor and restart the process from the new
// cursor location.
func lex(source string) ([]*token, error) {
	var tokens []*token
	cur := cursor{}

lex:
	for cur.pointer < uint(len(source)) {
		lexers := []lexer{lexKeyword, lexSymbol, lexString, lexNumeric, lexIdentifier}
		for _, l := range lexers {
			if token, newCursor, ok := l(source, cur); ok {
				cur = newCursor

				// Omit nil tokens for valid, but empty syntax like newlines
				if token != nil {
					tokens = append(tokens, token)
				}

				continue lex
			}
		}

		hint := ""
		if len(tokens) > 0 {
			hint = " after " + tokens[len(tokens)-1].value
		}
		return nil, fmt.Errorf("%w: unable to lex token%s, at %d:%d", ErrParse, hint, cur.loc.line, cur.loc.col)
	}

	return tokens, nil
}
