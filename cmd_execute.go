package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/valang/valang/config"
	"github.com/valang/valang/debugger"
	"github.com/valang/valang/loader"
	"github.com/valang/valang/vm"
)

// executeCmd implements the execute command: run a bytecode program
type executeCmd struct {
	debug      bool
	tui        bool
	maxSteps   uint64
	configPath string
}

func (*executeCmd) Name() string     { return "execute" }
func (*executeCmd) Synopsis() string { return "Execute a bytecode program" }
func (*executeCmd) Usage() string {
	return `execute [-debug|-tui] [-max-steps N] <src>:
  Load a bytecode file and run it on the virtual machine.
`
}

func (e *executeCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&e.debug, "debug", false, "start the command-line debugger instead of running")
	f.BoolVar(&e.tui, "tui", false, "start the TUI debugger instead of running")
	f.Uint64Var(&e.maxSteps, "max-steps", 0, "step limit override (0 uses the configured limit)")
	f.StringVar(&e.configPath, "config", "", "config file path (default: the per-user config)")
}

func (e *executeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, e.Usage())
		return subcommands.ExitUsageError
	}
	src := f.Arg(0)

	cfg, err := e.loadConfig()
	if err != nil {
		return fail(err)
	}

	data, err := os.ReadFile(src) // #nosec G304 -- user-specified bytecode path
	if err != nil {
		return fail(fmt.Errorf("unable to read bytecode file: %w", err))
	}

	program, err := loader.Load(data)
	if err != nil {
		return fail(fmt.Errorf("unable to load %s: %w", src, err))
	}

	machine := vm.NewMachineWithCapacity(program.Code,
		cfg.Execution.OperandStackSize, cfg.Execution.CallStackSize)
	machine.SetEntry(program.Entry)
	machine.StepLimit = cfg.Execution.MaxSteps
	if e.maxSteps > 0 {
		machine.StepLimit = e.maxSteps
	}

	if e.debug || e.tui {
		dbg := debugger.NewDebugger(machine)
		if e.tui {
			if err := debugger.RunTUI(dbg); err != nil {
				return fail(fmt.Errorf("TUI error: %w", err))
			}
			return subcommands.ExitSuccess
		}
		if err := debugger.RunCLI(dbg); err != nil {
			return fail(fmt.Errorf("debugger error: %w", err))
		}
		return subcommands.ExitSuccess
	}

	if err := machine.Run(); err != nil {
		return fail(fmt.Errorf("runtime error in %s: %w", src, err))
	}

	return subcommands.ExitSuccess
}

func (e *executeCmd) loadConfig() (*config.Config, error) {
	if e.configPath != "" {
		cfg, err := config.LoadFrom(e.configPath)
		if err != nil {
			return nil, fmt.Errorf("unable to load config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}
	return cfg, nil
}
