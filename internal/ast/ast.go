// Package ast defines the syntax tree the compiler consumes. Nodes are
// plain structs rather than a classic visitor hierarchy: the compiler
// dispatches on concrete type with a single type switch per node kind,
// which is both less ceremony and easier to extend than an open
// Accept/Visit pair for a closed, rarely-changing node set.
package ast

import "github.com/si0005hp/lox/internal/token"

// Expr is implemented by every expression node. The unexported method
// seals the interface to this package.
type Expr interface {
	exprNode()
	// Line returns the source line to blame for a compile error rooted
	// at this node.
	Line() int
}

// Stmt is implemented by every statement node.
type Stmt interface {
	stmtNode()
	Line() int
}

// Program is the root of every tree the parser produces.
type Program struct {
	Statements []Stmt
}

// --- Expressions ---

type NumberLiteral struct {
	Token token.Token
	Value float64
}

type StringLiteral struct {
	Token token.Token
	Value string
}

type BoolLiteral struct {
	Token token.Token
	Value bool
}

type NilLiteral struct {
	Token token.Token
}

// Grouping is a parenthesized expression. It exists only to let the
// parser enforce precedence; the compiler emits nothing for the
// parentheses themselves.
type Grouping struct {
	Token      token.Token
	Expression Expr
}

type Unary struct {
	Op    token.Token
	Right Expr
}

type Binary struct {
	Left  Expr
	Op    token.Token
	Right Expr
}

// Logical is `and`/`or`. Kept distinct from Binary because it compiles
// to short-circuiting jumps instead of an arithmetic/comparison opcode.
type Logical struct {
	Left  Expr
	Op    token.Token
	Right Expr
}

type Variable struct {
	Name token.Token
}

type Assign struct {
	Name  token.Token
	Value Expr
}

// Call is `callee(args...)`. Paren is the token of the closing `)`,
// carried solely so runtime errors during argument evaluation or the
// call itself can blame a line even when Callee spans several lines.
type Call struct {
	Callee Expr
	Paren  token.Token
	Args   []Expr
}

type Get struct {
	Object Expr
	Name   token.Token
}

type Set struct {
	Object Expr
	Name   token.Token
	Value  Expr
}

type This struct {
	Keyword token.Token
}

type Super struct {
	Keyword token.Token
	Method  token.Token
}

func (*NumberLiteral) exprNode() {}
func (*StringLiteral) exprNode() {}
func (*BoolLiteral) exprNode()   {}
func (*NilLiteral) exprNode()    {}
func (*Grouping) exprNode()      {}
func (*Unary) exprNode()         {}
func (*Binary) exprNode()        {}
func (*Logical) exprNode()       {}
func (*Variable) exprNode()      {}
func (*Assign) exprNode()        {}
func (*Call) exprNode()          {}
func (*Get) exprNode()           {}
func (*Set) exprNode()           {}
func (*This) exprNode()          {}
func (*Super) exprNode()         {}

func (e *NumberLiteral) Line() int { return e.Token.Line }
func (e *StringLiteral) Line() int { return e.Token.Line }
func (e *BoolLiteral) Line() int   { return e.Token.Line }
func (e *NilLiteral) Line() int    { return e.Token.Line }
func (e *Grouping) Line() int      { return e.Token.Line }
func (e *Unary) Line() int         { return e.Op.Line }
func (e *Binary) Line() int        { return e.Op.Line }
func (e *Logical) Line() int       { return e.Op.Line }
func (e *Variable) Line() int      { return e.Name.Line }
func (e *Assign) Line() int        { return e.Name.Line }
func (e *Call) Line() int          { return e.Paren.Line }
func (e *Get) Line() int           { return e.Name.Line }
func (e *Set) Line() int           { return e.Name.Line }
func (e *This) Line() int          { return e.Keyword.Line }
func (e *Super) Line() int         { return e.Keyword.Line }

// --- Statements ---

type ExpressionStmt struct {
	Expression Expr
}

type PrintStmt struct {
	Keyword    token.Token
	Expression Expr
}

type VarStmt struct {
	Name        token.Token
	Initializer Expr // nil if uninitialized
}

type BlockStmt struct {
	LeftBrace  token.Token
	Statements []Stmt
}

type IfStmt struct {
	Keyword   token.Token
	Condition Expr
	Then      Stmt
	Else      Stmt // nil if absent
}

type WhileStmt struct {
	Keyword   token.Token
	Condition Expr
	Body      Stmt
}

// FunctionStmt is both a top-level function declaration and a class
// method; the compiler tells them apart from the enclosing context,
// not the node shape.
type FunctionStmt struct {
	Name   token.Token
	Params []token.Token
	Body   []Stmt
}

type ReturnStmt struct {
	Keyword token.Token
	Value   Expr // nil if bare `return;`
}

type ClassStmt struct {
	Name       token.Token
	Superclass *Variable // nil if no `< Super`
	Methods    []*FunctionStmt
}

func (*ExpressionStmt) stmtNode() {}
func (*PrintStmt) stmtNode()      {}
func (*VarStmt) stmtNode()        {}
func (*BlockStmt) stmtNode()      {}
func (*IfStmt) stmtNode()         {}
func (*WhileStmt) stmtNode()      {}
func (*FunctionStmt) stmtNode()   {}
func (*ReturnStmt) stmtNode()     {}
func (*ClassStmt) stmtNode()      {}

func (s *ExpressionStmt) Line() int { return s.Expression.Line() }
func (s *PrintStmt) Line() int      { return s.Keyword.Line }
func (s *VarStmt) Line() int        { return s.Name.Line }
func (s *BlockStmt) Line() int      { return s.LeftBrace.Line }
func (s *IfStmt) Line() int         { return s.Keyword.Line }
func (s *WhileStmt) Line() int      { return s.Keyword.Line }
func (s *FunctionStmt) Line() int   { return s.Name.Line }
func (s *ReturnStmt) Line() int     { return s.Keyword.Line }
func (s *ClassStmt) Line() int      { return s.Name.Line }
