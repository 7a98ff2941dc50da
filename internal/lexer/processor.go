package lexer

import "github.com/si0005hp/lox/internal/pipeline"

// Processor runs the lexer as a pipeline.Processor stage, turning
// ctx.Source into ctx.Tokens.
type Processor struct{}

func (Processor) Process(ctx *pipeline.Context) *pipeline.Context {
	l := New(ctx.Source)
	tokens, errs := l.Scan()
	ctx.Tokens = tokens
	ctx.Errors = append(ctx.Errors, errs...)
	return ctx
}
