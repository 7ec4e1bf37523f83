package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/valang/valang/asm"
	"github.com/valang/valang/vm"
)

// assembleCmd implements the assemble command: assembly to bytecode
type assembleCmd struct {
	std int
}

func (*assembleCmd) Name() string     { return "assemble" }
func (*assembleCmd) Synopsis() string { return "Assemble textual assembly to bytecode" }
func (*assembleCmd) Usage() string {
	return `assemble --std=2 <src> <dest>:
  Assemble the assembly file into a bytecode program.
`
}

func (a *assembleCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&a.std, "std", int(vm.StandardNumber), "instruction-set standard to target")
}

func (a *assembleCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprint(os.Stderr, a.Usage())
		return subcommands.ExitUsageError
	}
	if a.std != int(vm.StandardNumber) {
		return fail(fmt.Errorf("unknown standard %d (only --std=%d is supported)", a.std, vm.StandardNumber))
	}
	src, dest := f.Arg(0), f.Arg(1)

	input, err := os.ReadFile(src) // #nosec G304 -- user-specified source path
	if err != nil {
		return fail(fmt.Errorf("unable to read assembly file: %w", err))
	}

	program, err := asm.Assemble(string(input), src)
	if err != nil {
		return fail(fmt.Errorf("unable to assemble %s: %w", src, err))
	}

	if err := os.WriteFile(dest, program, 0644); err != nil { // #nosec G306 -- bytecode output is not sensitive
		return fail(fmt.Errorf("unable to write bytecode file: %w", err))
	}

	return subcommands.ExitSuccess
}
