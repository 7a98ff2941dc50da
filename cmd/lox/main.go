// Command lox runs a Lox source file: lex, parse, compile to
// bytecode, and execute. Exit code follows the reference
// implementation's convention: 0 on success, 65 on a compile-time
// (syntax or semantic) error, 70 on an uncaught runtime error.
package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/si0005hp/lox/internal/ast"
	"github.com/si0005hp/lox/internal/config"
	"github.com/si0005hp/lox/internal/diagnostics"
	"github.com/si0005hp/lox/internal/lexer"
	"github.com/si0005hp/lox/internal/parser"
	"github.com/si0005hp/lox/internal/pipeline"
	"github.com/si0005hp/lox/internal/vm"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: lox [script]")
		return 64
	}
	if !config.HasSourceExt(args[0]) {
		fmt.Fprintf(os.Stderr, "lox: %q is not a %s file.\n", args[0], config.SourceFileExt)
		return 64
	}

	cfgPath := os.Getenv("LOX_CONFIG")
	cfgFile, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lox: %v\n", err)
		return 74
	}

	path := args[0]
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lox: could not read file %q.\n", path)
		return 74
	}

	machine := vm.New(vm.ConfigFromFile(cfgFile))
	machine.Stdout = os.Stdout
	machine.Stderr = os.Stderr

	useColor := cfgFile.Output.Color == nil && isatty.IsTerminal(os.Stderr.Fd())
	if cfgFile.Output.Color != nil {
		useColor = *cfgFile.Output.Color
	}

	prog, errs := compile(string(source), path)
	if len(errs) == 0 {
		// Compile-time errors get the same file-prefixed report as lexer
		// and parser errors, rather than Run's unprefixed one.
		_, errs = vm.Compile(prog, vm.NewHeap())
		for _, e := range errs {
			e.File = path
		}
	}
	if len(errs) > 0 {
		reportAll(path, errs, useColor)
		return 65
	}

	if err := machine.Run(prog); err != nil {
		if err == vm.ErrCompile {
			return 65
		}
		return 70
	}
	return 0
}

// compile runs the source → tokens → AST stages through the shared
// pipeline rather than calling the lexer and parser ad hoc.
func compile(source, path string) (*ast.Program, []*diagnostics.Error) {
	p := pipeline.New(lexer.Processor{}, parser.Processor{})
	ctx := p.Run(&pipeline.Context{FilePath: path, Source: source})

	for _, e := range ctx.Errors {
		e.File = path
	}
	return ctx.AstRoot, ctx.Errors
}

func reportAll(path string, errs []*diagnostics.Error, color bool) {
	for _, e := range errs {
		if color {
			fmt.Fprintf(os.Stderr, "\x1b[31m%s\x1b[0m\n", e.Error())
		} else {
			fmt.Fprintln(os.Stderr, e.Error())
		}
	}
}
