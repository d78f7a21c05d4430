package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"slorp/vm"
)

// Exit codes per the CLI collaborator contract: 0 ok, 65 compile error, 70
// runtime error, 64 usage, 74 file I/O error. subcommands.ExitStatus is
// just an int, so these are defined directly rather than reusing its
// generic Success/Failure/UsageError trio.
const (
	exitOK           subcommands.ExitStatus = 0
	exitUsage        subcommands.ExitStatus = 64
	exitCompileError subcommands.ExitStatus = 65
	exitRuntimeError subcommands.ExitStatus = 70
	exitIOError      subcommands.ExitStatus = 74
)

type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run a Slorp source file" }
func (*runCmd) Usage() string {
	return "run PATH\n  Read PATH and interpret its contents.\n"
}
func (*runCmd) SetFlags(*flag.FlagSet) {}

func (*runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	machine := vm.New()
	defer machine.Free()

	switch machine.Interpret(string(source)) {
	case vm.OK:
		return exitOK
	case vm.CompileError:
		return exitCompileError
	default:
		return exitRuntimeError
	}
}
