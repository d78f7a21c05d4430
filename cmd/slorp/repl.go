package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"slorp/scanner"
	"slorp/token"
	"slorp/vm"
)

type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "start an interactive Slorp session" }
func (*replCmd) Usage() string {
	return "repl\n  Read one line at a time and interpret it, persisting globals between lines.\n"
}
func (*replCmd) SetFlags(*flag.FlagSet) {}

func (*replCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "slorp> ",
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to start REPL: %v\n", err)
		return exitIOError
	}
	defer rl.Close()

	machine := vm.New()
	defer machine.Free()

	var buffer strings.Builder
	for {
		if buffer.Len() == 0 {
			rl.SetPrompt("slorp> ")
		} else {
			rl.SetPrompt("   ... ")
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buffer.Reset()
			continue
		}
		if err == io.EOF {
			return exitOK
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 %v\n", err)
			return exitIOError
		}

		if buffer.Len() > 0 {
			buffer.WriteByte('\n')
		}
		buffer.WriteString(line)

		if !isInputReady(buffer.String()) {
			continue
		}

		source := buffer.String()
		buffer.Reset()
		if strings.TrimSpace(source) == "" {
			continue
		}

		// Interpret's own result already reported any error to stderr; the
		// REPL just keeps the session alive rather than exiting on it.
		machine.Interpret(source)
	}
}

// isInputReady reports whether source has balanced braces, i.e. whether
// the REPL should try to compile it now rather than keep buffering more
// lines. Slorp's grammar has only one multi-line construct (`{ … }`
// blocks), so brace balance is the only signal needed.
func isInputReady(source string) bool {
	s := scanner.New(source)
	depth := 0
	for {
		tok := s.ScanToken()
		switch tok.Kind {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
		case token.EOF:
			return depth <= 0
		}
	}
}
