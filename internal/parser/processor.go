package parser

import "github.com/si0005hp/lox/internal/pipeline"

// Processor runs the parser as a pipeline.Processor stage, turning
// ctx.Tokens into ctx.AstRoot.
type Processor struct{}

func (Processor) Process(ctx *pipeline.Context) *pipeline.Context {
	if len(ctx.Tokens) == 0 {
		return ctx
	}

	p := New(ctx.Tokens)
	prog, errs := p.Parse()
	ctx.AstRoot = prog
	ctx.Errors = append(ctx.Errors, errs...)
	return ctx
}
