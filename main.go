// Command valang is the toolchain driver: it translates source to
// assembly, assembles it to bytecode, and executes bytecode on the
// virtual machine.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&translateCmd{}, "toolchain")
	subcommands.Register(&assembleCmd{}, "toolchain")
	subcommands.Register(&executeCmd{}, "toolchain")

	flag.Parse()

	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

// fail reports a fatal error with its cause chain and returns the
// failing exit status
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return subcommands.ExitFailure
}
