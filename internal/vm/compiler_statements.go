package vm

import (
	"github.com/si0005hp/lox/internal/ast"
	"github.com/si0005hp/lox/internal/token"
)

func (c *Compiler) statement(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.ExpressionStmt:
		c.expression(n.Expression)
		c.emitOp(OpPop, n.Line())
	case *ast.PrintStmt:
		c.expression(n.Expression)
		c.emitOp(OpPrint, n.Line())
	case *ast.VarStmt:
		c.varDeclaration(n)
	case *ast.BlockStmt:
		c.beginScope()
		for _, stmt := range n.Statements {
			c.statement(stmt)
		}
		c.endScope(n.Line())
	case *ast.IfStmt:
		c.ifStatement(n)
	case *ast.WhileStmt:
		c.whileStatement(n)
	case *ast.FunctionStmt:
		c.declareLocal(n.Name)
		if c.scopeDepth > 0 {
			c.markInitialized()
		}
		c.functionDeclaration(n, typeFunction)
	case *ast.ReturnStmt:
		c.returnStatement(n)
	case *ast.ClassStmt:
		c.classDeclaration(n)
	default:
		c.errorAt(token.Token{Line: s.Line()}, "Unsupported statement.")
	}
}

func (c *Compiler) varDeclaration(n *ast.VarStmt) {
	c.declareLocal(n.Name)

	if n.Initializer != nil {
		c.expression(n.Initializer)
	} else {
		c.emitOp(OpNil, n.Line())
	}

	if c.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(OpDefineGlobal, c.identifierConstant(n.Name), n.Line())
}

func (c *Compiler) ifStatement(n *ast.IfStmt) {
	line := n.Line()
	c.expression(n.Condition)

	thenJump := c.emitJump(OpJumpIfFalse, line)
	c.emitOp(OpPop, line)
	c.statement(n.Then)

	elseJump := c.emitJump(OpJump, line)
	c.patchJump(thenJump, line)
	c.emitOp(OpPop, line)

	if n.Else != nil {
		c.statement(n.Else)
	}
	c.patchJump(elseJump, line)
}

func (c *Compiler) whileStatement(n *ast.WhileStmt) {
	line := n.Line()
	loopStart := len(c.function.Chunk.Code)
	c.expression(n.Condition)

	exitJump := c.emitJump(OpJumpIfFalse, line)
	c.emitOp(OpPop, line)
	c.statement(n.Body)
	c.emitLoop(loopStart, line)

	c.patchJump(exitJump, line)
	c.emitOp(OpPop, line)
}

func (c *Compiler) returnStatement(n *ast.ReturnStmt) {
	line := n.Line()
	if c.funType == typeScript {
		c.errorAt(n.Keyword, "Can't return from top-level code.")
	}
	if n.Value == nil {
		c.emitReturn(line)
		return
	}
	if c.funType == typeInitializer {
		c.errorAt(n.Keyword, "Can't return a value from an initializer.")
	}
	c.expression(n.Value)
	c.emitOp(OpReturn, line)
}

// functionDeclaration compiles the function's body in its own nested
// Compiler, then emits OP_CLOSURE (plus one is-local/index byte pair
// per captured upvalue) in the *enclosing* function to build the
// closure at the point of declaration.
func (c *Compiler) functionDeclaration(n *ast.FunctionStmt, funType functionType) {
	fnCompiler := newCompiler(c.heap, funType, n.Name.Lexeme, c)
	fnCompiler.function.Arity = len(n.Params)

	for _, p := range n.Params {
		fnCompiler.declareLocal(p)
		fnCompiler.markInitialized()
	}
	for _, stmt := range n.Body {
		fnCompiler.statement(stmt)
	}

	fn := fnCompiler.finish(n.Line())
	fn.UpvalueCount = len(fnCompiler.upvalues)

	line := n.Line()
	c.emitOpByte(OpClosure, c.makeConstant(ObjValue(&fn.Obj), line), line)
	for _, uv := range fnCompiler.upvalues {
		if uv.isLocal {
			c.emitByte(1, line)
		} else {
			c.emitByte(0, line)
		}
		c.emitByte(byte(uv.index), line)
	}

	if c.scopeDepth == 0 && funType == typeFunction {
		c.emitOpByte(OpDefineGlobal, c.identifierConstant(n.Name), line)
	}
}

func (c *Compiler) classDeclaration(n *ast.ClassStmt) {
	line := n.Line()
	c.declareLocal(n.Name)
	nameConst := c.identifierConstant(n.Name)
	c.emitOpByte(OpClass, nameConst, line)

	if c.scopeDepth == 0 {
		c.emitOpByte(OpDefineGlobal, nameConst, line)
	} else {
		c.markInitialized()
	}

	cc := &classCompiler{enclosing: c.class}
	c.class = cc

	if n.Superclass != nil {
		if n.Superclass.Name.Lexeme == n.Name.Lexeme {
			c.errorAt(n.Superclass.Name, "A class can't inherit from itself.")
		}
		c.namedVariable(n.Superclass.Name)

		c.beginScope()
		c.addLocal(token.Token{Lexeme: "super", Line: line})
		c.markInitialized()

		c.namedVariable(n.Name)
		c.emitOp(OpInherit, line)
		cc.hasSuperclass = true
	}

	c.namedVariable(n.Name)
	for _, method := range n.Methods {
		c.methodDeclaration(method)
	}
	c.emitOp(OpPop, line)

	if cc.hasSuperclass {
		c.endScope(line)
	}

	c.class = cc.enclosing
}

func (c *Compiler) methodDeclaration(n *ast.FunctionStmt) {
	funType := typeMethod
	if n.Name.Lexeme == "init" {
		funType = typeInitializer
	}

	fnCompiler := newCompiler(c.heap, funType, n.Name.Lexeme, c)
	fnCompiler.function.Arity = len(n.Params)

	for _, p := range n.Params {
		fnCompiler.declareLocal(p)
		fnCompiler.markInitialized()
	}
	for _, stmt := range n.Body {
		fnCompiler.statement(stmt)
	}

	fn := fnCompiler.finish(n.Line())
	fn.UpvalueCount = len(fnCompiler.upvalues)

	line := n.Line()
	c.emitOpByte(OpClosure, c.makeConstant(ObjValue(&fn.Obj), line), line)
	for _, uv := range fnCompiler.upvalues {
		if uv.isLocal {
			c.emitByte(1, line)
		} else {
			c.emitByte(0, line)
		}
		c.emitByte(byte(uv.index), line)
	}

	c.emitOpByte(OpMethod, c.identifierConstant(n.Name), line)
}
