package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"slorp/compiler"
	"slorp/heap"
)

type disasmCmd struct{}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "compile a file and print its bytecode listing" }
func (*disasmCmd) Usage() string {
	return "disasm PATH\n  Compile PATH and print a human-readable instruction listing, without running it.\n"
}
func (*disasmCmd) SetFlags(*flag.FlagSet) {}

func (*disasmCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "💥 expected exactly one file argument")
		return exitUsage
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read file: %v\n", err)
		return exitIOError
	}

	c, err := compiler.Compile(string(source), heap.New())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCompileError
	}

	fmt.Print(c.Disassemble(args[0]))
	return exitOK
}
