// Package diagnostics defines the error type shared by the lexer,
// parser, and compiler so that all three phases can accumulate
// user-facing errors in one list and keep going instead of aborting
// after the first mistake (panic-mode resynchronisation happens in the
// parser; this package only carries the result).
package diagnostics

import "fmt"

// Error is a single reported problem, tied to the source line it came
// from. File is filled in by the driver once the source path is known;
// the lexer/parser/compiler never see it.
type Error struct {
	File    string
	Line    int
	Message string
}

func New(line int, format string, args ...interface{}) *Error {
	return &Error{Line: line, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Message)
}
