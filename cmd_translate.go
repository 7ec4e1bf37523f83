package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/valang/valang/codegen"
	"github.com/valang/valang/parser"
)

// translateCmd implements the translate command: source to assembly
type translateCmd struct {
	dumpAST bool
}

func (*translateCmd) Name() string     { return "translate" }
func (*translateCmd) Synopsis() string { return "Translate source to textual assembly" }
func (*translateCmd) Usage() string {
	return `translate [-dump-ast] <src> <dest>:
  Parse the source file and write stack-machine assembly to dest.
`
}

func (t *translateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&t.dumpAST, "dump-ast", false, "print the parsed program to stdout")
}

func (t *translateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprint(os.Stderr, t.Usage())
		return subcommands.ExitUsageError
	}
	src, dest := f.Arg(0), f.Arg(1)

	input, err := os.ReadFile(src) // #nosec G304 -- user-specified source path
	if err != nil {
		return fail(fmt.Errorf("unable to read source file: %w", err))
	}

	program, err := parser.ParseSource(string(input), src)
	if err != nil {
		return fail(fmt.Errorf("unable to parse %s: %w", src, err))
	}

	if t.dumpAST {
		if err := parser.Fprint(os.Stdout, program); err != nil {
			return fail(err)
		}
	}

	out, err := os.Create(dest) // #nosec G304 -- user-specified output path
	if err != nil {
		return fail(fmt.Errorf("unable to create output file: %w", err))
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close %s: %v\n", dest, closeErr)
		}
	}()

	if err := codegen.Translate(out, program); err != nil {
		return fail(fmt.Errorf("unable to translate %s: %w", src, err))
	}

	return subcommands.ExitSuccess
}
