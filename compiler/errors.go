package compiler

import (
	"fmt"
	"strings"
)

// SyntaxError is a single parse-time or semantic-time diagnostic, reported
// at a specific source line. The compiler keeps collecting these (subject
// to panic-mode suppression) rather than aborting on the first one, so a
// user sees every independent mistake in one compile.
type SyntaxError struct {
	Line    int
	Message string
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("💥 SyntaxError: line %d: %s", e.Line, e.Message)
}

// CompileError aggregates every SyntaxError a single Compile call
// collected. Compile returns one of these (rather than the first
// SyntaxError alone) so the CLI and REPL can print every diagnostic.
type CompileError struct {
	Errors []SyntaxError
}

func (e *CompileError) Error() string {
	var b strings.Builder
	for i, err := range e.Errors {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(err.Error())
	}
	return b.String()
}
