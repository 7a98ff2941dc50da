// Package pipeline wires the lex/parse stages together behind a
// small Processor interface, so the driver (cmd/lox) and tests can run
// the same stage sequence without each stage knowing about its
// neighbours.
package pipeline

import (
	"github.com/si0005hp/lox/internal/ast"
	"github.com/si0005hp/lox/internal/diagnostics"
	"github.com/si0005hp/lox/internal/token"
)

// Context threads the artifacts of one compilation through the
// pipeline's stages. A later stage reads what an earlier one produced
// and appends to Errors rather than aborting, so a single run can
// report every lexical, syntactic, and compile-time error it finds.
type Context struct {
	FilePath string
	Source   string

	Tokens  []token.Token
	AstRoot *ast.Program

	// Chunk is declared as interface{} here to keep this package free of
	// an import cycle with internal/vm (which itself depends on ast and
	// token). No stage in this repository sets it: the lexer and parser
	// stages leave it nil, and compilation happens outside the pipeline.
	Chunk interface{}

	Errors []*diagnostics.Error
}

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *Context) *Context
}

// Pipeline runs a fixed sequence of stages over a Context.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes every stage in order, even after a stage reports
// errors, so later stages that can still make partial progress (or
// that simply no-op on a nil input) get the chance to.
func (p *Pipeline) Run(initial *Context) *Context {
	ctx := initial
	for _, proc := range p.processors {
		ctx = proc.Process(ctx)
	}
	return ctx
}
