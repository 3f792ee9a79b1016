package lexer

import (
	"testing"

	"github.com/ivarvong/pyex-sub003/pkgs/token"
)

func typesOf(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func assertTypes(t *testing.T, got []token.Token, want []token.Type) {
	t.Helper()
	gotTypes := typesOf(got)
	if len(gotTypes) != len(want) {
		t.Fatalf("token count = %d, want %d\ngot:  %v\nwant: %v", len(gotTypes), len(want), got, want)
	}
	for i := range want {
		if gotTypes[i] != want[i] {
			t.Fatalf("token[%d] = %s, want %s\ngot: %v", i, gotTypes[i], want[i], got)
		}
	}
}

func TestLexSimpleAssignment(t *testing.T) {
	t.Parallel()
	toks, err := Lex("x = 1\n")
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	assertTypes(t, toks, []token.Type{
		token.NAME, token.ASSIGN, token.INT, token.NEWLINE, token.EOF,
	})
	if toks[0].Value != "x" {
		t.Errorf("toks[0].Value = %q, want x", toks[0].Value)
	}
	if toks[2].Value != "1" {
		t.Errorf("toks[2].Value = %q, want 1", toks[2].Value)
	}
}

func TestLexIndentDedent(t *testing.T) {
	t.Parallel()
	src := "if x:\n    y = 1\nz = 2\n"
	toks, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	assertTypes(t, toks, []token.Type{
		token.IF, token.NAME, token.COLON, token.NEWLINE,
		token.INDENT, token.NAME, token.ASSIGN, token.INT, token.NEWLINE,
		token.DEDENT, token.NAME, token.ASSIGN, token.INT, token.NEWLINE,
		token.EOF,
	})
}

func TestLexBracketsSuppressNewlines(t *testing.T) {
	t.Parallel()
	src := "x = [1,\n2,\n3]\n"
	toks, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	// Inside brackets, physical newlines are not significant: only the final
	// one after the closing bracket should surface as a NEWLINE token.
	count := 0
	for _, tok := range toks {
		if tok.Type == token.NEWLINE {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("NEWLINE count = %d, want 1 (newlines inside [] must be suppressed)", count)
	}
}

func TestLexKeywordsAreNotNames(t *testing.T) {
	t.Parallel()
	toks, err := Lex("for x in y:\n    pass\n")
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	assertTypes(t, toks, []token.Type{
		token.FOR, token.NAME, token.IN, token.NAME, token.COLON, token.NEWLINE,
		token.INDENT, token.PASS, token.NEWLINE, token.DEDENT, token.EOF,
	})
}

func TestLexCommentsAreStripped(t *testing.T) {
	t.Parallel()
	toks, err := Lex("x = 1 # trailing comment\n")
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	assertTypes(t, toks, []token.Type{
		token.NAME, token.ASSIGN, token.INT, token.NEWLINE, token.EOF,
	})
}

func TestLexStringLiteralDecodesEscapes(t *testing.T) {
	t.Parallel()
	toks, err := Lex(`s = "a\nb"` + "\n")
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	var str token.Token
	for _, tok := range toks {
		if tok.Type == token.STRING {
			str = tok
		}
	}
	if str.Value != "a\nb" {
		t.Errorf("STRING value = %q, want %q", str.Value, "a\nb")
	}
}

func TestLexSemicolonSplitsStatements(t *testing.T) {
	t.Parallel()
	toks, err := Lex("x = 1; y = 2\n")
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	assertTypes(t, toks, []token.Type{
		token.NAME, token.ASSIGN, token.INT, token.NEWLINE,
		token.NAME, token.ASSIGN, token.INT, token.NEWLINE,
		token.EOF,
	})
}

func TestLexCompoundOperators(t *testing.T) {
	t.Parallel()
	toks, err := Lex("x += 1\nx **= 2\nx //= 3\n")
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	var ops []token.Type
	for _, tok := range toks {
		switch tok.Type {
		case token.PLUSEQ, token.DOUBLESTAREQ, token.DOUBLESLASHEQ:
			ops = append(ops, tok.Type)
		}
	}
	want := []token.Type{token.PLUSEQ, token.DOUBLESTAREQ, token.DOUBLESLASHEQ}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("ops[%d] = %s, want %s", i, ops[i], want[i])
		}
	}
}
