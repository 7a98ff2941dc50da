package lexer

import (
	"testing"

	"github.com/si0005hp/lox/internal/token"
)

func typesOf(toks []token.Token) []token.Type {
	types := make([]token.Type, len(toks))
	for i, t := range toks {
		types[i] = t.Type
	}
	return types
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks, errs := New("(){};,+-*!===<=>=!=").Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []token.Type{
		token.LEFT_PAREN, token.RIGHT_PAREN, token.LEFT_BRACE, token.RIGHT_BRACE,
		token.SEMICOLON, token.COMMA, token.PLUS, token.MINUS, token.STAR,
		token.BANG_EQUAL, token.EQUAL_EQUAL, token.LESS_EQUAL, token.GREATER_EQUAL,
		token.BANG_EQUAL, token.EOF,
	}
	got := typesOf(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i, ty := range want {
		if got[i] != ty {
			t.Errorf("token %d: got %s, want %s", i, got[i], ty)
		}
	}
}

func TestScanKeywordsVsIdentifiers(t *testing.T) {
	toks, _ := New("class fun orange or").Scan()
	want := []token.Type{token.CLASS, token.FUN, token.IDENTIFIER, token.OR, token.EOF}
	got := typesOf(toks)
	for i, ty := range want {
		if got[i] != ty {
			t.Errorf("token %d: got %s, want %s", i, got[i], ty)
		}
	}
}

func TestScanStringLiteral(t *testing.T) {
	toks, errs := New(`"hello world"`).Scan()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if toks[0].Type != token.STRING {
		t.Fatalf("got %s, want STRING", toks[0].Type)
	}
	if got := StringValue(toks[0]); got != "hello world" {
		t.Errorf("StringValue = %q, want %q", got, "hello world")
	}
}

func TestScanUnterminatedString(t *testing.T) {
	toks, errs := New(`"unterminated`).Scan()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	if toks[0].Type != token.ERROR {
		t.Fatalf("got %s, want ERROR", toks[0].Type)
	}
}

func TestScanNumber(t *testing.T) {
	toks, _ := New("123 45.67").Scan()
	if got := NumberValue(toks[0]); got != 123 {
		t.Errorf("got %v, want 123", got)
	}
	if got := NumberValue(toks[1]); got != 45.67 {
		t.Errorf("got %v, want 45.67", got)
	}
}

func TestScanSkipsLineComments(t *testing.T) {
	toks, _ := New("1 // a comment\n2").Scan()
	if len(toks) != 3 { // NUMBER, NUMBER, EOF
		t.Fatalf("got %d tokens, want 3: %v", len(toks), typesOf(toks))
	}
	if toks[1].Line != 2 {
		t.Errorf("second number line = %d, want 2", toks[1].Line)
	}
}

func TestScanUnexpectedCharacterContinues(t *testing.T) {
	toks, errs := New("1 @ 2").Scan()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	want := []token.Type{token.NUMBER, token.ERROR, token.NUMBER, token.EOF}
	got := typesOf(toks)
	for i, ty := range want {
		if got[i] != ty {
			t.Errorf("token %d: got %s, want %s", i, got[i], ty)
		}
	}
}
