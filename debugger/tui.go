package debugger

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/valang/valang/vm"
)

// TUI is the text user interface for the debugger
type TUI struct {
	Debugger *Debugger
	App      *tview.Application

	MainLayout *tview.Flex

	CodeView     *tview.TextView
	RegisterView *tview.TextView
	StackView    *tview.TextView
	OutputView   *tview.TextView
	CommandInput *tview.InputField
}

// NewTUI creates a text user interface over the debugger
func NewTUI(debugger *Debugger) *TUI {
	tui := &TUI{
		Debugger: debugger,
		App:      tview.NewApplication(),
	}

	tui.initializeViews()
	tui.buildLayout()
	tui.setupKeyBindings()

	// Program output goes to the output panel instead of stdout
	debugger.Machine.Output = tview.ANSIWriter(tui.OutputView)

	return tui
}

// RunTUI starts the TUI debugger and blocks until the user exits
func RunTUI(dbg *Debugger) error {
	tui := NewTUI(dbg)
	tui.refreshAll()
	return tui.App.SetRoot(tui.MainLayout, true).SetFocus(tui.CommandInput).Run()
}

func (t *TUI) initializeViews() {
	t.CodeView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.CodeView.SetBorder(true).SetTitle(" Code ")

	t.RegisterView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.StackView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.StackView.SetBorder(true).SetTitle(" Stacks ")

	t.OutputView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().
		SetLabel("(valang-dbg) ").
		SetFieldBackgroundColor(tcell.ColorDefault)
	t.CommandInput.SetBorder(true)

	t.CommandInput.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		line := t.CommandInput.GetText()
		t.CommandInput.SetText("")
		t.runCommand(line)
	})
}

func (t *TUI) buildLayout() {
	rightPanel := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, vm.RegisterCount+4, 0, false).
		AddItem(t.StackView, 0, 1, false)

	topRow := tview.NewFlex().
		AddItem(t.CodeView, 0, 2, false).
		AddItem(rightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(topRow, 0, 3, false).
		AddItem(t.OutputView, 0, 1, false).
		AddItem(t.CommandInput, 3, 0, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF10:
			t.runCommand("step")
			return nil
		case tcell.KeyF5:
			t.runCommand("continue")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		}
		return event
	})
}

// runCommand feeds a command line to the debugger and refreshes the views
func (t *TUI) runCommand(line string) {
	quit, err := t.Debugger.ExecuteCommand(line, t.OutputView)
	if err != nil {
		fmt.Fprintf(t.OutputView, "debugger error: %v\n", err)
	}
	if quit {
		t.App.Stop()
		return
	}
	t.refreshAll()
}

// refreshAll redraws every panel from the machine state
func (t *TUI) refreshAll() {
	t.refreshCode()
	t.refreshRegisters()
	t.refreshStacks()
}

func (t *TUI) refreshCode() {
	t.CodeView.Clear()

	m := t.Debugger.Machine
	for i, in := range m.Code {
		marker := "   "
		if i == m.CPU.PC {
			marker = "[yellow]=> "
		}
		if _, hit := t.Debugger.Breakpoints.At(i); hit {
			marker = "[red]*[-]" + marker[1:]
		}
		fmt.Fprintf(t.CodeView, "%s%4d  %s[-]\n", marker, i, in)
	}

	t.CodeView.ScrollTo(m.CPU.PC, 0)
}

func (t *TUI) refreshRegisters() {
	t.RegisterView.Clear()

	m := t.Debugger.Machine
	for i, name := range vm.RegisterNames {
		fmt.Fprintf(t.RegisterView, "[green]%s[-]: %.3f\n", name, m.CPU.Regs[i])
	}
	fmt.Fprintf(t.RegisterView, "[green]PC[-]: %d\n", m.CPU.PC)
}

func (t *TUI) refreshStacks() {
	t.StackView.Clear()
	fmt.Fprint(tview.ANSIWriter(t.StackView), t.Debugger.FormatStacks())
}
