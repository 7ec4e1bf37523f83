package debugger

// CommandHistory keeps the most recent debugger commands, oldest first
type CommandHistory struct {
	entries []string
	maxSize int
}

// NewCommandHistory creates a history bounded to maxSize entries; zero or
// negative means the default of 1000.
func NewCommandHistory(maxSize int) *CommandHistory {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &CommandHistory{maxSize: maxSize}
}

// Add appends a command, dropping the oldest entry once full. Immediate
// repeats are collapsed.
func (h *CommandHistory) Add(cmd string) {
	if cmd == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == cmd {
		return
	}

	h.entries = append(h.entries, cmd)
	if len(h.entries) > h.maxSize {
		h.entries = h.entries[1:]
	}
}

// Len returns the number of stored commands
func (h *CommandHistory) Len() int {
	return len(h.entries)
}

// Get returns the i-th command, oldest first
func (h *CommandHistory) Get(i int) (string, bool) {
	if i < 0 || i >= len(h.entries) {
		return "", false
	}
	return h.entries[i], true
}

// All returns a copy of the history, oldest first
func (h *CommandHistory) All() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}
