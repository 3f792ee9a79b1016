package parser

import "fmt"

// Error is a syntax error produced by the parser: the offending token's line
// plus an expected-token description. There is no error recovery — the
// first error aborts the parse.
type Error struct {
	Message string
	Line    int
	Col     int
}

func (e *Error) Error() string {
	return fmt.Sprintf("SyntaxError: %s (line %d, col %d)", e.Message, e.Line, e.Col)
}
