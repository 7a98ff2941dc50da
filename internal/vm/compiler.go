// Compiler turns an ast.Program into bytecode in a single pass: there
// is no separate lowering IR, no optimization pass, and no backward
// patching beyond the forward-jump placeholders used for control flow.
// Each AST node is visited exactly once and emits its bytecode
// directly, matching the reference VM's single-pass design.
package vm

import (
	"github.com/si0005hp/lox/internal/ast"
	"github.com/si0005hp/lox/internal/diagnostics"
	"github.com/si0005hp/lox/internal/token"
)

type functionType int

const (
	typeFunction functionType = iota
	typeMethod
	typeInitializer
	typeScript
)

// classCompiler tracks compile-time facts about the class body
// currently being compiled, needed to resolve `this` and `super`
// correctly and to reject `super` outside any subclass.
type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

// Compiler compiles one function body (the top-level script counts as
// one). Compiling a nested function or method pushes a new Compiler
// with enclosing set to the current one, mirroring the call stack of
// compile-time scopes onto an explicit Go-level stack instead of
// recursing through a single shared mutable frame.
type Compiler struct {
	enclosing *Compiler
	function  *FunctionObj
	funType   functionType

	locals     []local
	scopeDepth int
	upvalues   []upvalueRef

	heap   *Heap
	class  *classCompiler
	errors []*diagnostics.Error
}

// Compile compiles a full program into a top-level FunctionObj (an
// implicit `fun script()` with no parameters) ready to be wrapped in a
// closure and run by the VM.
func Compile(prog *ast.Program, heap *Heap) (*FunctionObj, []*diagnostics.Error) {
	c := newCompiler(heap, typeScript, "", nil)
	for _, stmt := range prog.Statements {
		c.statement(stmt)
	}
	c.emitReturn(0)
	return c.function, c.errors
}

func newCompiler(heap *Heap, funType functionType, name string, enclosing *Compiler) *Compiler {
	fn := heap.NewFunction(nil)
	if name != "" {
		fn.Name = heap.InternString(name)
	}
	c := &Compiler{function: fn, funType: funType, heap: heap, enclosing: enclosing}
	if enclosing != nil {
		c.class = enclosing.class
		c.errors = enclosing.errors
	}

	// Slot 0 is reserved: for methods and initializers it holds the
	// receiver bound by OP_CALL/OP_INVOKE; for plain functions and the
	// top-level script it is an unnamed placeholder never referenced.
	recv := local{depth: 0}
	if funType != typeFunction && funType != typeScript {
		recv.name = token.Token{Lexeme: "this"}
	}
	c.locals = append(c.locals, recv)
	return c
}

// finish closes out the function compiler, returning the compiled
// function and propagating accumulated errors back to the enclosing
// compiler so the caller only has to look at the outermost one.
func (c *Compiler) finish(line int) *FunctionObj {
	c.emitReturn(line)
	if c.enclosing != nil {
		c.enclosing.errors = c.errors
	}
	return c.function
}

// errorAt appends unconditionally rather than suppressing cascades
// after the first error: unlike the parser, the compiler walks a
// clean, already-parsed AST with no token stream to resynchronize, so
// there is no garbage to skip between one statement's error and the
// next statement's own, independent one.
func (c *Compiler) errorAt(tok token.Token, format string, args ...interface{}) {
	c.errors = append(c.errors, diagnostics.New(tok.Line, format, args...))
}

func (c *Compiler) identifierConstant(name token.Token) byte {
	return c.makeConstant(ObjValue(&c.heap.InternString(name.Lexeme).Obj), name.Line)
}

// resolveVariable implements the name-resolution order every variable
// reference follows: innermost local scope first, then the enclosing
// functions' captured upvalues, and only once both have missed does
// the name fall through to a runtime global lookup by name.
func (c *Compiler) resolveVariable(name token.Token) (getOp, setOp OpCode, operand byte) {
	if idx, ok := c.resolveLocal(name); ok {
		return OpGetLocal, OpSetLocal, byte(idx)
	}
	if idx, ok := c.resolveUpvalue(name); ok {
		return OpGetUpvalue, OpSetUpvalue, byte(idx)
	}
	return OpGetGlobal, OpSetGlobal, c.identifierConstant(name)
}

