// Package debugger provides an interactive debugger over the virtual
// machine, with a readline command-line interface and a tview TUI.
package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/valang/valang/vm"
)

// Debugger wraps a machine with breakpoints, history and stepping
type Debugger struct {
	Machine *vm.Machine

	Breakpoints *BreakpointManager
	History     *CommandHistory

	// Labels maps label names to command indices when the caller has
	// them (e.g. when the debugger is started from assembly text)
	Labels map[string]int

	// LastCommand repeats on empty input
	LastCommand string
}

// NewDebugger creates a debugger over the machine
func NewDebugger(machine *vm.Machine) *Debugger {
	return &Debugger{
		Machine:     machine,
		Breakpoints: NewBreakpointManager(),
		History:     NewCommandHistory(0),
		Labels:      make(map[string]int),
	}
}

// LoadLabels installs a label table for breakpoint targets
func (d *Debugger) LoadLabels(labels map[string]int) {
	d.Labels = labels
}

// ResolveCmd resolves a breakpoint target: a label name or a numeric
// command index.
func (d *Debugger) ResolveCmd(target string) (int, error) {
	if cmd, exists := d.Labels[target]; exists {
		return cmd, nil
	}

	cmd, err := strconv.Atoi(target)
	if err != nil {
		return 0, fmt.Errorf("invalid command index or unknown label: %s", target)
	}
	if cmd < 0 || cmd >= len(d.Machine.Code) {
		return 0, fmt.Errorf("command index %d outside the program (0..%d)", cmd, len(d.Machine.Code)-1)
	}

	return cmd, nil
}

// Step executes a single instruction
func (d *Debugger) Step() error {
	if d.Machine.State == vm.StateHalted {
		d.Machine.State = vm.StateRunning
	}
	return d.Machine.Step()
}

// Continue runs until a breakpoint, a halt or an error. Returns the
// breakpoint hit, if any.
func (d *Debugger) Continue() (*Breakpoint, error) {
	if d.Machine.State == vm.StateHalted {
		d.Machine.State = vm.StateRunning
	}

	for d.Machine.State == vm.StateRunning {
		if err := d.Machine.Step(); err != nil {
			return nil, err
		}

		if bp, hit := d.Breakpoints.At(d.Machine.CPU.PC); hit {
			bp.HitCount++
			return bp, nil
		}
	}

	return nil, nil
}

// Disassemble renders the instructions around the current command, with
// context lines before and after.
func (d *Debugger) Disassemble(context int) string {
	var sb strings.Builder

	start := d.Machine.CPU.PC - context
	if start < 0 {
		start = 0
	}
	end := d.Machine.CPU.PC + context + 1
	if end > len(d.Machine.Code) {
		end = len(d.Machine.Code)
	}

	for i := start; i < end; i++ {
		marker := "   "
		if i == d.Machine.CPU.PC {
			marker = "=> "
		}
		if _, hit := d.Breakpoints.At(i); hit {
			marker = "*" + marker[1:]
		}
		fmt.Fprintf(&sb, "%s%4d  %s\n", marker, i, d.Machine.Code[i])
	}

	return sb.String()
}

// FormatRegisters renders the register file
func (d *Debugger) FormatRegisters() string {
	var sb strings.Builder
	for i, name := range vm.RegisterNames {
		fmt.Fprintf(&sb, "%s: %.3f\n", name, d.Machine.CPU.Regs[i])
	}
	fmt.Fprintf(&sb, "PC: %d\n", d.Machine.CPU.PC)
	return sb.String()
}

// FormatStacks renders the operand and call stacks from the top down
func (d *Debugger) FormatStacks() string {
	var sb strings.Builder

	sb.WriteString("operand stack (top first):\n")
	operands := d.Machine.CPU.Operands()
	if len(operands) == 0 {
		sb.WriteString("  <empty>\n")
	}
	for i := len(operands) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "  [%d] %.3f\n", i, operands[i])
	}

	sb.WriteString("call stack (top first):\n")
	calls := d.Machine.CPU.Calls()
	if len(calls) == 0 {
		sb.WriteString("  <empty>\n")
	}
	for i := len(calls) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "  [%d] command %d\n", i, calls[i])
	}

	return sb.String()
}
