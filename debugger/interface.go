package debugger

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
)

// RunCLI runs the interactive command-line debugger until the user quits
// or input ends.
func RunCLI(dbg *Debugger) error {
	rl, err := readline.New("(valang-dbg) ")
	if err != nil {
		return fmt.Errorf("failed to open the debugger prompt: %w", err)
	}
	defer func() {
		_ = rl.Close()
	}()

	fmt.Println("valang debugger - type 'help' for commands")

	for {
		line, err := rl.Readline()
		if err != nil {
			// Ctrl-C clears the line, Ctrl-D / EOF ends the session
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		quit, err := dbg.ExecuteCommand(line, os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "debugger error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}
