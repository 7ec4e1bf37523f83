package vm

// Default stack capacities, overridable through config
const (
	DefaultOperandStackSize = 1024
	DefaultCallStackSize    = 1024
)

// CPU holds the processor state: the operand stack of doubles, the call
// stack of return command indices, the register file and the command
// counter. Capacity checks are performed by the instruction dispatcher;
// the raw push/pop methods assume the checks already happened.
type CPU struct {
	// PC is the index of the command being executed
	PC int

	// Regs is the register file, indexed by RegAX..RegSP
	Regs [RegisterCount]float64

	operands []float64
	calls    []int

	operandCap int
	callCap    int
}

// NewCPU creates a CPU with the given stack capacities. Zero or negative
// capacities fall back to the defaults.
func NewCPU(operandCap, callCap int) *CPU {
	if operandCap <= 0 {
		operandCap = DefaultOperandStackSize
	}
	if callCap <= 0 {
		callCap = DefaultCallStackSize
	}
	return &CPU{
		operands:   make([]float64, 0, operandCap),
		calls:      make([]int, 0, callCap),
		operandCap: operandCap,
		callCap:    callCap,
	}
}

// Reset clears all CPU state
func (c *CPU) Reset() {
	c.PC = 0
	c.Regs = [RegisterCount]float64{}
	c.operands = c.operands[:0]
	c.calls = c.calls[:0]
}

// UpdateSP mirrors the operand stack depth into the SP register. The
// dispatcher calls this after every instruction.
func (c *CPU) UpdateSP() {
	c.Regs[RegSP] = float64(len(c.operands))
}

// Operand stack ------------------------------------------------------------

// OperandDepth returns the number of values on the operand stack
func (c *CPU) OperandDepth() int {
	return len(c.operands)
}

// OperandsFull reports whether a push would exceed capacity
func (c *CPU) OperandsFull() bool {
	return len(c.operands) >= c.operandCap
}

// OperandsEmpty reports whether the operand stack is empty
func (c *CPU) OperandsEmpty() bool {
	return len(c.operands) == 0
}

// PushOperand pushes a value; the caller must have checked OperandsFull
func (c *CPU) PushOperand(v float64) {
	c.operands = append(c.operands, v)
}

// PopOperand pops the top value; the caller must have checked OperandsEmpty
func (c *CPU) PopOperand() float64 {
	v := c.operands[len(c.operands)-1]
	c.operands = c.operands[:len(c.operands)-1]
	return v
}

// OperandAt returns the stack slot at depth index i (0 is the bottom)
func (c *CPU) OperandAt(i int) float64 {
	return c.operands[i]
}

// SetOperandAt overwrites the stack slot at depth index i
func (c *CPU) SetOperandAt(i int, v float64) {
	c.operands[i] = v
}

// Operands returns the live operand stack, bottom first. The slice is
// shared with the CPU; callers must treat it as read-only.
func (c *CPU) Operands() []float64 {
	return c.operands
}

// Call stack ---------------------------------------------------------------

// CallDepth returns the number of return addresses on the call stack
func (c *CPU) CallDepth() int {
	return len(c.calls)
}

// CallsFull reports whether a push would exceed capacity
func (c *CPU) CallsFull() bool {
	return len(c.calls) >= c.callCap
}

// CallsEmpty reports whether the call stack is empty
func (c *CPU) CallsEmpty() bool {
	return len(c.calls) == 0
}

// PushCall pushes a return command index; caller checks CallsFull
func (c *CPU) PushCall(cmd int) {
	c.calls = append(c.calls, cmd)
}

// PopCall pops the most recent return command index; caller checks CallsEmpty
func (c *CPU) PopCall() int {
	cmd := c.calls[len(c.calls)-1]
	c.calls = c.calls[:len(c.calls)-1]
	return cmd
}

// Calls returns the live call stack, bottom first; read-only for callers
func (c *CPU) Calls() []int {
	return c.calls
}
