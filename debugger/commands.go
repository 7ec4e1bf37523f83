package debugger

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/valang/valang/vm"
)

// ExecuteCommand processes one debugger command line, writing any output
// to w. It returns true when the session should end.
func (d *Debugger) ExecuteCommand(cmdLine string, w io.Writer) (quit bool, err error) {
	cmdLine = strings.TrimSpace(cmdLine)

	// Empty input repeats the last command, mirroring gdb
	if cmdLine == "" {
		cmdLine = d.LastCommand
	}
	if cmdLine == "" {
		return false, nil
	}

	d.History.Add(cmdLine)
	d.LastCommand = cmdLine

	parts := strings.Fields(cmdLine)
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "quit", "q", "exit":
		return true, nil

	case "help", "h":
		printHelp(w)

	case "step", "s":
		if err := d.Step(); err != nil {
			fmt.Fprintf(w, "runtime error: %v\n", err)
			return false, nil
		}
		d.reportStop(w)

	case "continue", "c", "run", "r":
		bp, err := d.Continue()
		if err != nil {
			fmt.Fprintf(w, "runtime error: %v\n", err)
			return false, nil
		}
		if bp != nil {
			fmt.Fprintf(w, "breakpoint %d hit at command %d\n", bp.ID, bp.Cmd)
		}
		d.reportStop(w)

	case "break", "b":
		if len(args) != 1 {
			fmt.Fprintln(w, "usage: break <command-index|label>")
			break
		}
		cmdIdx, err := d.ResolveCmd(args[0])
		if err != nil {
			fmt.Fprintf(w, "%v\n", err)
			break
		}
		bp := d.Breakpoints.Add(cmdIdx)
		fmt.Fprintf(w, "breakpoint %d set at command %d\n", bp.ID, bp.Cmd)

	case "delete", "d":
		if len(args) != 1 {
			fmt.Fprintln(w, "usage: delete <breakpoint-id>")
			break
		}
		id, convErr := strconv.Atoi(args[0])
		if convErr != nil {
			fmt.Fprintf(w, "invalid breakpoint id: %s\n", args[0])
			break
		}
		if err := d.Breakpoints.Remove(id); err != nil {
			fmt.Fprintf(w, "%v\n", err)
			break
		}
		fmt.Fprintf(w, "breakpoint %d deleted\n", id)

	case "breakpoints", "bl":
		list := d.Breakpoints.List()
		if len(list) == 0 {
			fmt.Fprintln(w, "no breakpoints set")
			break
		}
		for _, bp := range list {
			state := "enabled"
			if !bp.Enabled {
				state = "disabled"
			}
			fmt.Fprintf(w, "%d: command %d (%s, hit %d times)\n", bp.ID, bp.Cmd, state, bp.HitCount)
		}

	case "registers", "regs":
		fmt.Fprint(w, d.FormatRegisters())

	case "stack", "st":
		fmt.Fprint(w, d.FormatStacks())

	case "list", "l":
		context := 5
		if len(args) == 1 {
			if n, convErr := strconv.Atoi(args[0]); convErr == nil {
				context = n
			}
		}
		fmt.Fprint(w, d.Disassemble(context))

	default:
		fmt.Fprintf(w, "unknown command: %s (try help)\n", cmd)
	}

	return false, nil
}

// reportStop prints where execution stopped
func (d *Debugger) reportStop(w io.Writer) {
	m := d.Machine

	switch m.State {
	case vm.StateHalted:
		fmt.Fprintln(w, "program halted")
	case vm.StateFailed:
		fmt.Fprintf(w, "program failed: %v\n", m.LastError)
	default:
		if m.CPU.PC < len(m.Code) {
			fmt.Fprintf(w, "%4d  %s\n", m.CPU.PC, m.Code[m.CPU.PC])
		}
	}
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `Debugger commands:
  step, s            Execute a single instruction
  continue, c        Run until breakpoint, halt or error
  break N, b N       Set breakpoint at command index or label
  delete ID, d ID    Delete a breakpoint
  breakpoints, bl    List breakpoints
  registers, regs    Show registers
  stack, st          Show operand and call stacks
  list [N], l [N]    Disassemble around the current command
  help, h            Show this help
  quit, q            Exit the debugger
`)
}
