package parser

import (
	"testing"

	"github.com/si0005hp/lox/internal/ast"
	"github.com/si0005hp/lox/internal/lexer"
)

func parse(t *testing.T, src string) (*ast.Program, int) {
	t.Helper()
	toks, lexErrs := lexer.New(src).Scan()
	if len(lexErrs) != 0 {
		t.Fatalf("unexpected lex errors: %v", lexErrs)
	}
	prog, errs := New(toks).Parse()
	return prog, len(errs)
}

func TestParseExpressionStatementPrecedence(t *testing.T) {
	prog, n := parse(t, "1 + 2 * 3;")
	if n != 0 {
		t.Fatalf("got %d parse errors, want 0", n)
	}
	if len(prog.Statements) != 1 {
		t.Fatalf("got %d statements, want 1", len(prog.Statements))
	}
	stmt, ok := prog.Statements[0].(*ast.ExpressionStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.ExpressionStmt", prog.Statements[0])
	}
	bin, ok := stmt.Expression.(*ast.Binary)
	if !ok {
		t.Fatalf("got %T, want *ast.Binary at top level (plus should bind loosest)", stmt.Expression)
	}
	if _, ok := bin.Right.(*ast.Binary); !ok {
		t.Errorf("right operand should be the multiplication, got %T", bin.Right)
	}
}

func TestParseVarAndPrint(t *testing.T) {
	prog, n := parse(t, `var a = "x"; print a;`)
	if n != 0 {
		t.Fatalf("got %d parse errors, want 0", n)
	}
	if len(prog.Statements) != 2 {
		t.Fatalf("got %d statements, want 2", len(prog.Statements))
	}
	v, ok := prog.Statements[0].(*ast.VarStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.VarStmt", prog.Statements[0])
	}
	if v.Name.Lexeme != "a" {
		t.Errorf("var name = %q, want a", v.Name.Lexeme)
	}
	if _, ok := prog.Statements[1].(*ast.PrintStmt); !ok {
		t.Fatalf("got %T, want *ast.PrintStmt", prog.Statements[1])
	}
}

func TestParseClassWithSuperclassAndMethods(t *testing.T) {
	prog, n := parse(t, `class B < A { init(x) { this.x = x; } greet() { print "hi"; } }`)
	if n != 0 {
		t.Fatalf("got %d parse errors, want 0", n)
	}
	cls, ok := prog.Statements[0].(*ast.ClassStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.ClassStmt", prog.Statements[0])
	}
	if cls.Superclass == nil || cls.Superclass.Name.Lexeme != "A" {
		t.Fatalf("expected superclass A, got %v", cls.Superclass)
	}
	if len(cls.Methods) != 2 {
		t.Fatalf("got %d methods, want 2", len(cls.Methods))
	}
}

func TestParseForDesugarsToWhile(t *testing.T) {
	prog, n := parse(t, `for (var i = 0; i < 3; i = i + 1) print i;`)
	if n != 0 {
		t.Fatalf("got %d parse errors, want 0", n)
	}
	block, ok := prog.Statements[0].(*ast.BlockStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.BlockStmt wrapping the initializer", prog.Statements[0])
	}
	if len(block.Statements) != 2 {
		t.Fatalf("got %d statements in desugared block, want 2 (init + while)", len(block.Statements))
	}
	if _, ok := block.Statements[0].(*ast.VarStmt); !ok {
		t.Errorf("first desugared statement should be the initializer, got %T", block.Statements[0])
	}
	whileStmt, ok := block.Statements[1].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("second desugared statement should be *ast.WhileStmt, got %T", block.Statements[1])
	}
	bodyBlock, ok := whileStmt.Body.(*ast.BlockStmt)
	if !ok {
		t.Fatalf("while body should be wrapped in a block carrying the increment, got %T", whileStmt.Body)
	}
	if len(bodyBlock.Statements) != 2 {
		t.Errorf("got %d statements in while body, want 2 (original body + increment)", len(bodyBlock.Statements))
	}
}

func TestParseSyntaxErrorResynchronizes(t *testing.T) {
	// Two separate mistakes in two separate statements: a missing
	// semicolon should not swallow the later `print` statement's own
	// missing-expression error.
	_, n := parse(t, `var a = 1
	print(;`)
	if n < 2 {
		t.Fatalf("got %d parse errors, want at least 2 (one per statement)", n)
	}
}

func TestParseInvalidAssignmentTarget(t *testing.T) {
	_, n := parse(t, `1 + 2 = 3;`)
	if n == 0 {
		t.Fatalf("expected an 'Invalid assignment target' error, got none")
	}
}
