package vm

import (
	"github.com/si0005hp/lox/internal/ast"
	"github.com/si0005hp/lox/internal/token"
)

// expression compiles e so that exactly one value is left on the
// operand stack when it returns.
func (c *Compiler) expression(e ast.Expr) {
	switch n := e.(type) {
	case *ast.NumberLiteral:
		c.emitConstant(NumberValue(n.Value), n.Line())
	case *ast.StringLiteral:
		c.emitConstant(ObjValue(&c.heap.InternString(n.Value).Obj), n.Line())
	case *ast.BoolLiteral:
		if n.Value {
			c.emitOp(OpTrue, n.Line())
		} else {
			c.emitOp(OpFalse, n.Line())
		}
	case *ast.NilLiteral:
		c.emitOp(OpNil, n.Line())
	case *ast.Grouping:
		c.expression(n.Expression)
	case *ast.Unary:
		c.unary(n)
	case *ast.Binary:
		c.binary(n)
	case *ast.Logical:
		c.logical(n)
	case *ast.Variable:
		c.namedVariable(n.Name)
	case *ast.Assign:
		c.expression(n.Value)
		_, setOp, operand := c.resolveVariable(n.Name)
		c.emitOpByte(setOp, operand, n.Line())
	case *ast.Call:
		c.call(n)
	case *ast.Get:
		c.expression(n.Object)
		c.emitOpByte(OpGetProperty, c.identifierConstant(n.Name), n.Line())
	case *ast.Set:
		c.expression(n.Object)
		c.expression(n.Value)
		c.emitOpByte(OpSetProperty, c.identifierConstant(n.Name), n.Line())
	case *ast.This:
		if c.class == nil {
			c.errorAt(n.Keyword, "Can't use 'this' outside of a class.")
			return
		}
		c.namedVariable(n.Keyword)
	case *ast.Super:
		c.super(n)
	default:
		c.errorAt(token.Token{Line: e.Line()}, "Unsupported expression.")
	}
}

func (c *Compiler) namedVariable(name token.Token) {
	getOp, _, operand := c.resolveVariable(name)
	c.emitOpByte(getOp, operand, name.Line)
}

func (c *Compiler) unary(n *ast.Unary) {
	c.expression(n.Right)
	switch n.Op.Type {
	case token.MINUS:
		c.emitOp(OpNegate, n.Op.Line)
	case token.BANG:
		c.emitOp(OpNot, n.Op.Line)
	}
}

func (c *Compiler) binary(n *ast.Binary) {
	c.expression(n.Left)
	c.expression(n.Right)
	line := n.Op.Line
	switch n.Op.Type {
	case token.PLUS:
		c.emitOp(OpAdd, line)
	case token.MINUS:
		c.emitOp(OpSubtract, line)
	case token.STAR:
		c.emitOp(OpMultiply, line)
	case token.SLASH:
		c.emitOp(OpDivide, line)
	case token.EQUAL_EQUAL:
		c.emitOp(OpEqual, line)
	case token.BANG_EQUAL:
		c.emitOp(OpEqual, line)
		c.emitOp(OpNot, line)
	case token.GREATER:
		c.emitOp(OpGreater, line)
	case token.GREATER_EQUAL:
		c.emitOp(OpLess, line)
		c.emitOp(OpNot, line)
	case token.LESS:
		c.emitOp(OpLess, line)
	case token.LESS_EQUAL:
		c.emitOp(OpGreater, line)
		c.emitOp(OpNot, line)
	}
}

// logical compiles `and`/`or` using the dedicated short-circuiting
// opcodes: the left operand stays on the stack as the overall result
// whenever it alone decides the outcome, so neither branch pops before
// deciding whether to jump.
func (c *Compiler) logical(n *ast.Logical) {
	line := n.Op.Line
	c.expression(n.Left)

	switch n.Op.Type {
	case token.AND:
		endJump := c.emitJump(OpAnd, line)
		c.emitOp(OpPop, line)
		c.expression(n.Right)
		c.patchJump(endJump, line)
	case token.OR:
		endJump := c.emitJump(OpOr, line)
		c.emitOp(OpPop, line)
		c.expression(n.Right)
		c.patchJump(endJump, line)
	}
}

func (c *Compiler) call(n *ast.Call) {
	line := n.Line()

	if get, ok := n.Callee.(*ast.Get); ok {
		c.expression(get.Object)
		argc := c.argumentList(n.Args)
		c.emitOpByte(OpInvoke, c.identifierConstant(get.Name), line)
		c.emitByte(argc, line)
		return
	}

	if sup, ok := n.Callee.(*ast.Super); ok {
		c.namedVariable(token.Token{Type: token.THIS, Lexeme: "this", Line: line})
		argc := c.argumentList(n.Args)
		c.namedVariable(token.Token{Type: token.SUPER, Lexeme: "super", Line: line})
		c.emitOpByte(OpSuperInvoke, c.identifierConstant(sup.Method), line)
		c.emitByte(argc, line)
		return
	}

	c.expression(n.Callee)
	argc := c.argumentList(n.Args)
	c.emitOpByte(OpCall, argc, line)
}

func (c *Compiler) argumentList(args []ast.Expr) byte {
	if len(args) > 255 {
		line := 0
		if len(args) > 0 {
			line = args[0].Line()
		}
		c.errorAt(token.Token{Line: line}, "Can't have more than 255 arguments.")
	}
	for _, a := range args {
		c.expression(a)
	}
	return byte(len(args))
}

func (c *Compiler) super(n *ast.Super) {
	if c.class == nil {
		c.errorAt(n.Keyword, "Can't use 'super' outside of a class.")
		return
	}
	if !c.class.hasSuperclass {
		c.errorAt(n.Keyword, "Can't use 'super' in a class with no superclass.")
		return
	}
	c.namedVariable(token.Token{Type: token.THIS, Lexeme: "this", Line: n.Keyword.Line})
	c.namedVariable(token.Token{Type: token.SUPER, Lexeme: "super", Line: n.Keyword.Line})
	c.emitOpByte(OpGetSuper, c.identifierConstant(n.Method), n.Keyword.Line)
}
