// Package lexer turns Python-3 source text into a token stream with
// significant-indentation handling, modeled on hand-rolled
// scanner (TokenType-iota-plus-String(), explicit bracket-depth tracking to
// suppress newlines, and a SourcePosition-carrying Token).
package lexer

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ivarvong/pyex-sub003/pkgs/token"
)

// Error is a lexical error with source-line context.
type Error struct {
	Message string
	Line    int
	Col     int
}

func (e *Error) Error() string {
	return fmt.Sprintf("SyntaxError: %s (line %d, col %d)", e.Message, e.Line, e.Col)
}

// Lexer scans normalised Python source into tokens.
type Lexer struct {
	src         []rune
	pos         int
	line, col   int
	bracketDepth int
	indentStack []int
	tokens      []token.Token
	log         *slog.Logger
}

// Lex runs the lexer end to end over source and returns the token stream,
// or a *Error describing the first failure.
func Lex(source string) (tokens []token.Token, err error) {
	defer func() {
		if r := recover(); r != nil {
			if lexErr, ok := r.(*Error); ok {
				err = lexErr
				return
			}
			panic(r)
		}
	}()

	clean, rejErr := preprocess(source)
	if rejErr != nil {
		return nil, rejErr
	}

	l := &Lexer{
		src:         []rune(clean),
		line:        1,
		col:         1,
		indentStack: []int{0},
		log:         slog.Default().With("component", "lexer"),
	}
	l.run()
	return l.tokens, nil
}

// preprocess normalises line endings, strips comments (string-aware), joins
// backslash-continued physical lines, and rewrites top-level `;` separators
// into a newline plus the enclosing line's indentation — all while skipping
// over string and f-string literal bodies so none of these transformations
// corrupt literal text.
func preprocess(source string) (string, error) {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	source = strings.ReplaceAll(source, "\r", "\n")

	var out strings.Builder
	runes := []rune(source)
	i, n := 0, len(runes)
	line := 1

	currentIndent := func() string {
		// Walk back in `out` to the last newline to recover the current
		// line's leading whitespace, used to re-indent `;`-split statements.
		s := out.String()
		idx := strings.LastIndexByte(s, '\n')
		rest := s[idx+1:]
		indent := strings.Builder{}
		for _, r := range rest {
			if r == ' ' || r == '\t' {
				indent.WriteRune(r)
			} else {
				break
			}
		}
		return indent.String()
	}

	for i < n {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < n && runes[i+1] == '\n':
			// Explicit line continuation: drop both characters.
			i += 2
			line++
		case r == '#':
			for i < n && runes[i] != '\n' {
				i++
			}
		case r == ';':
			indent := currentIndent()
			out.WriteByte('\n')
			out.WriteString(indent)
			i++
			for i < n && (runes[i] == ' ' || runes[i] == '\t') {
				i++
			}
		case r == '"' || r == '\'':
			consumed, text, ln, perr := scanStringLiteral(runes, i, line)
			if perr != nil {
				return "", perr
			}
			out.WriteString(text)
			i += consumed
			line = ln
		case isIdentStart(r) && hasStringPrefix(runes, i):
			consumed, text, ln, perr := scanPrefixedStringLiteral(runes, i, line)
			if perr != nil {
				return "", perr
			}
			out.WriteString(text)
			i += consumed
			line = ln
		default:
			if r == '\n' {
				line++
			}
			out.WriteRune(r)
			i++
		}
	}
	return out.String(), nil
}

// hasStringPrefix reports whether runes[i:] begins with a string-literal
// prefix (r, R, f, F, rb, Rb, ...) immediately followed by a quote.
func hasStringPrefix(runes []rune, i int) bool {
	j := i
	for j < len(runes) && (runes[j] == 'r' || runes[j] == 'R' || runes[j] == 'f' || runes[j] == 'F' ||
		runes[j] == 'b' || runes[j] == 'B') {
		j++
		if j-i > 2 {
			return false
		}
	}
	return j > i && j < len(runes) && (runes[j] == '"' || runes[j] == '\'')
}

func scanPrefixedStringLiteral(runes []rune, i, line int) (int, string, int, *Error) {
	j := i
	for runes[j] != '"' && runes[j] != '\'' {
		j++
	}
	consumed, text, ln, err := scanStringLiteral(runes, j, line)
	if err != nil {
		return 0, "", 0, err
	}
	prefix := string(runes[i:j])
	if strings.ContainsAny(prefix, "bB") {
		return 0, "", 0, &Error{Message: "bytes literals are not supported", Line: line}
	}
	return (j - i) + consumed, prefix + text, ln, nil
}

// scanStringLiteral consumes a (possibly triple-quoted) string literal
// starting at runes[i] (which must be a quote character) and returns how
// many runes were consumed, the literal text including its quotes, and the
// updated physical line number.
func scanStringLiteral(runes []rune, i, line int) (int, string, int, *Error) {
	quote := runes[i]
	n := len(runes)
	triple := i+2 < n && runes[i+1] == quote && runes[i+2] == quote
	var b strings.Builder
	start := i
	if triple {
		b.WriteRune(quote)
		b.WriteRune(quote)
		b.WriteRune(quote)
		i += 3
		for {
			if i >= n {
				return 0, "", 0, &Error{Message: "unterminated triple-quoted string", Line: line}
			}
			if runes[i] == '\n' {
				line++
			}
			if runes[i] == quote && i+2 < n && runes[i+1] == quote && runes[i+2] == quote {
				b.WriteRune(quote)
				b.WriteRune(quote)
				b.WriteRune(quote)
				i += 3
				break
			}
			if runes[i] == '\\' && i+1 < n {
				b.WriteRune(runes[i])
				b.WriteRune(runes[i+1])
				if runes[i+1] == '\n' {
					line++
				}
				i += 2
				continue
			}
			b.WriteRune(runes[i])
			i++
		}
		return i - start, b.String(), line, nil
	}

	b.WriteRune(quote)
	i++
	for {
		if i >= n || runes[i] == '\n' {
			return 0, "", 0, &Error{Message: "unterminated string literal", Line: line}
		}
		if runes[i] == quote {
			b.WriteRune(quote)
			i++
			break
		}
		if runes[i] == '\\' && i+1 < n {
			b.WriteRune(runes[i])
			b.WriteRune(runes[i+1])
			i += 2
			continue
		}
		b.WriteRune(runes[i])
		i++
	}
	return i - start, b.String(), line, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r >= utf8.RuneSelf
}

func isIdentCont(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// --- main token scan ---

func (l *Lexer) run() {
	atLineStart := true
	for l.pos < len(l.src) {
		if atLineStart && l.bracketDepth == 0 {
			if l.handleIndentation() {
				atLineStart = false
				continue
			}
			atLineStart = false
		}
		if l.pos >= len(l.src) {
			break
		}
		r := l.peek()
		switch {
		case r == '\n':
			l.advance()
			if l.bracketDepth == 0 {
				l.emit(token.NEWLINE, "")
				atLineStart = true
			}
		case r == ' ' || r == '\t':
			l.advance()
		case r == '"' || r == '\'':
			l.scanString("")
		case isIdentStart(r):
			l.scanNameOrStringPrefix()
		case isDigit(r):
			l.scanNumber()
		default:
			l.scanOperator()
		}
	}
	// flush remaining dedents
	for len(l.indentStack) > 1 {
		l.indentStack = l.indentStack[:len(l.indentStack)-1]
		l.emit(token.DEDENT, "")
	}
	l.emit(token.EOF, "")
}

// handleIndentation measures leading whitespace on a fresh logical line and
// emits INDENT/DEDENT tokens. Returns true if the line was blank/comment-only
// (nothing left to lex) so the caller should restart at the next line.
func (l *Lexer) handleIndentation() bool {
	col := 0
	start := l.pos
	for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t') {
		col++
		l.pos++
		l.col++
	}
	if l.pos >= len(l.src) || l.src[l.pos] == '\n' {
		// blank line: consume it without affecting indentation
		if l.pos < len(l.src) {
			l.pos++
			l.line++
			l.col = 1
		}
		return l.pos < len(l.src) || start != l.pos
	}
	top := l.indentStack[len(l.indentStack)-1]
	switch {
	case col > top:
		l.indentStack = append(l.indentStack, col)
		l.emit(token.INDENT, "")
	case col < top:
		for len(l.indentStack) > 1 && l.indentStack[len(l.indentStack)-1] > col {
			l.indentStack = l.indentStack[:len(l.indentStack)-1]
			l.emit(token.DEDENT, "")
		}
		if l.indentStack[len(l.indentStack)-1] != col {
			l.fail("unindent does not match any outer indentation level")
		}
	}
	return false
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) rune {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) emit(t token.Type, v string) {
	l.tokens = append(l.tokens, token.Token{Type: t, Value: v, Line: l.line, Col: l.col})
}

func (l *Lexer) fail(msg string) {
	panic(&Error{Message: msg, Line: l.line, Col: l.col})
}

func (l *Lexer) scanNameOrStringPrefix() {
	startLine, startCol := l.line, l.col
	start := l.pos
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
		l.col++
	}
	name := string(l.src[start:l.pos])

	if (name == "r" || name == "R" || name == "f" || name == "F") &&
		l.pos < len(l.src) && (l.src[l.pos] == '"' || l.src[l.pos] == '\'') {
		l.scanString(name)
		return
	}

	if kw, ok := token.Keywords[name]; ok {
		l.tokens = append(l.tokens, token.Token{Type: kw, Value: name, Line: startLine, Col: startCol})
		return
	}
	l.tokens = append(l.tokens, token.Token{Type: token.NAME, Value: name, Line: startLine, Col: startCol})
}

func (l *Lexer) scanString(prefix string) {
	startLine, startCol := l.line, l.col
	quote := l.advance()
	raw := strings.ContainsAny(prefix, "rR")
	isF := strings.ContainsAny(prefix, "fF")

	triple := l.peek() == quote && l.peekAt(1) == quote
	if triple {
		l.advance()
		l.advance()
	}

	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			l.fail("unterminated string literal")
		}
		r := l.peek()
		if r == quote {
			if triple {
				if l.peekAt(1) == quote && l.peekAt(2) == quote {
					l.advance()
					l.advance()
					l.advance()
					break
				}
				b.WriteRune(l.advance())
				continue
			}
			l.advance()
			break
		}
		if r == '\n' && !triple {
			l.fail("unterminated string literal")
		}
		if r == '\\' && !raw && l.pos+1 < len(l.src) {
			l.advance()
			b.WriteRune(decodeEscape(l))
			continue
		}
		if r == '\\' && raw {
			b.WriteRune(l.advance())
			if l.pos < len(l.src) {
				b.WriteRune(l.advance())
			}
			continue
		}
		b.WriteRune(l.advance())
	}

	typ := token.STRING
	if isF {
		typ = token.FSTRING_START
	}
	l.tokens = append(l.tokens, token.Token{Type: typ, Value: b.String(), Line: startLine, Col: startCol})
}

func decodeEscape(l *Lexer) rune {
	e := l.advance()
	switch e {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	case 'a':
		return '\a'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	case 'v':
		return '\v'
	case '\\':
		return '\\'
	case '\'':
		return '\''
	case '"':
		return '"'
	case '\n':
		return -1 // escaped newline inside string: line continuation, produces nothing
	case 'x':
		return l.decodeHexEscape(2)
	case 'u':
		return l.decodeHexEscape(4)
	case 'U':
		return l.decodeHexEscape(8)
	default:
		return e
	}
}

func (l *Lexer) decodeHexEscape(digits int) rune {
	var v rune
	for i := 0; i < digits && l.pos < len(l.src); i++ {
		d := l.advance()
		v = v*16 + rune(hexVal(d))
	}
	return v
}

func hexVal(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10
	}
	return 0
}

func (l *Lexer) scanNumber() {
	startLine, startCol := l.line, l.col
	start := l.pos
	isFloat := false

	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X' ||
		l.peekAt(1) == 'o' || l.peekAt(1) == 'O' || l.peekAt(1) == 'b' || l.peekAt(1) == 'B') {
		l.advance()
		l.advance()
		for l.pos < len(l.src) && (isIdentCont(l.peek()) || l.peek() == '_') {
			l.advance()
		}
		text := strings.ReplaceAll(string(l.src[start:l.pos]), "_", "")
		l.tokens = append(l.tokens, token.Token{Type: token.INT, Value: text, Line: startLine, Col: startCol})
		return
	}

	for l.pos < len(l.src) && (isDigit(l.peek()) || l.peek() == '_') {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		isFloat = true
		l.advance()
		for l.pos < len(l.src) && (isDigit(l.peek()) || l.peek() == '_') {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		save := l.pos
		saveLine, saveCol := l.line, l.col
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		if isDigit(l.peek()) {
			isFloat = true
			for l.pos < len(l.src) && isDigit(l.peek()) {
				l.advance()
			}
		} else {
			l.pos, l.line, l.col = save, saveLine, saveCol
		}
	}
	if l.peek() == 'j' || l.peek() == 'J' {
		l.fail("complex number literals are not supported")
	}
	text := strings.ReplaceAll(string(l.src[start:l.pos]), "_", "")
	typ := token.INT
	if isFloat {
		typ = token.FLOAT
	}
	l.tokens = append(l.tokens, token.Token{Type: typ, Value: text, Line: startLine, Col: startCol})
}

type opEntry struct {
	text string
	typ  token.Type
}

// ordered longest-match-first so e.g. "**=" is tried before "**" before "*".
var operators = []opEntry{
	{"**=", token.DOUBLESTAREQ}, {"//=", token.DOUBLESLASHEQ},
	{"<<=", token.LSHIFTEQ}, {">>=", token.RSHIFTEQ},
	{"->", token.ARROW}, {":=", token.WALRUS},
	{"**", token.DOUBLESTAR}, {"//", token.DOUBLESLASH},
	{"<<", token.LSHIFT}, {">>", token.RSHIFT},
	{"<=", token.LE}, {">=", token.GE}, {"==", token.EQ}, {"!=", token.NE},
	{"+=", token.PLUSEQ}, {"-=", token.MINUSEQ}, {"*=", token.STAREQ}, {"/=", token.SLASHEQ},
	{"%=", token.PERCENTEQ}, {"&=", token.AMPEQ}, {"|=", token.PIPEEQ}, {"^=", token.CARETEQ},
	{"+", token.PLUS}, {"-", token.MINUS}, {"*", token.STAR}, {"/", token.SLASH},
	{"%", token.PERCENT}, {"@", token.AT}, {"&", token.AMP}, {"|", token.PIPE},
	{"^", token.CARET}, {"~", token.TILDE},
	{"<", token.LT}, {">", token.GT}, {"=", token.ASSIGN},
	{"(", token.LPAREN}, {")", token.RPAREN},
	{"[", token.LBRACKET}, {"]", token.RBRACKET},
	{"{", token.LBRACE}, {"}", token.RBRACE},
	{",", token.COMMA}, {":", token.COLON}, {".", token.DOT},
}

func (l *Lexer) scanOperator() {
	startLine, startCol := l.line, l.col
	for _, op := range operators {
		if l.hasPrefix(op.text) {
			for range op.text {
				l.advance()
			}
			switch op.typ {
			case token.LPAREN, token.LBRACKET, token.LBRACE:
				l.bracketDepth++
			case token.RPAREN, token.RBRACKET, token.RBRACE:
				if l.bracketDepth > 0 {
					l.bracketDepth--
				}
			}
			l.tokens = append(l.tokens, token.Token{Type: op.typ, Value: op.text, Line: startLine, Col: startCol})
			return
		}
	}
	l.fail(fmt.Sprintf("unexpected character %q", l.peek()))
}

func (l *Lexer) hasPrefix(s string) bool {
	for i, r := range []rune(s) {
		if l.peekAt(i) != r {
			return false
		}
	}
	return true
}
