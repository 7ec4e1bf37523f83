package vm

import (
	"fmt"
	"math"
)

// machineEpsilon is the double-precision machine epsilon, used by the
// div guard and the je/jne tolerance.
var machineEpsilon = math.Nextafter(1, 2) - 1

// execute dispatches one instruction against the CPU. Stack capacity and
// register bounds are checked here; CPU push/pop primitives assume them.
func (m *Machine) execute(in Instruction) error {
	cpu := m.CPU

	switch in.Op {
	case OpBeg:
		// entry marker, no effect at runtime

	case OpEnd:
		fmt.Fprintf(m.Output, OutputFormat, cpu.Regs[RegRT])
		cpu.PC = len(m.Code) - 1
		m.State = StateHalted

	case OpPush:
		if cpu.OperandsFull() {
			return m.errFull(in.Op)
		}
		cpu.PushOperand(in.Value)

	case OpPushR:
		if cpu.OperandsFull() {
			return m.errFull(in.Op)
		}
		if int(in.Reg) >= RegisterCount {
			return m.errBadRegister(in.Op, in.Reg)
		}
		cpu.PushOperand(cpu.Regs[in.Reg])

	case OpPop:
		if cpu.OperandsEmpty() {
			return m.errEmpty(in.Op)
		}
		cpu.PopOperand()

	case OpPopR:
		if cpu.OperandsEmpty() {
			return m.errEmpty(in.Op)
		}
		if int(in.Reg) >= RegisterCount {
			return m.errBadRegister(in.Op, in.Reg)
		}
		cpu.Regs[in.Reg] = cpu.PopOperand()

	case OpAdd:
		return m.binary(in.Op, func(l, r float64) float64 { return l + r })
	case OpSub:
		return m.binary(in.Op, func(l, r float64) float64 { return l - r })
	case OpMul:
		return m.binary(in.Op, func(l, r float64) float64 { return l * r })

	case OpDiv:
		if cpu.OperandsEmpty() {
			return m.errEmpty(in.Op)
		}
		divisor := cpu.PopOperand()
		if math.Abs(divisor) <= 5*machineEpsilon {
			return newRuntimeError(ErrDivisionByZero, in.Op, cpu.PC, "division by zero")
		}
		if cpu.OperandsEmpty() {
			return m.errEmpty(in.Op)
		}
		cpu.PushOperand(cpu.PopOperand() / divisor)

	case OpSqrt:
		if cpu.OperandsEmpty() {
			return m.errEmpty(in.Op)
		}
		x := cpu.PopOperand()
		if x < 0 {
			return newRuntimeError(ErrNegativeSqrt, in.Op, cpu.PC, "root of a negative number")
		}
		cpu.PushOperand(math.Sqrt(x))

	case OpOut, OpPrint:
		if cpu.OperandsEmpty() {
			return m.errEmpty(in.Op)
		}
		fmt.Fprintf(m.Output, OutputFormat, cpu.PopOperand())

	case OpIn:
		var v float64
		if _, err := fmt.Fscan(m.input, &v); err != nil {
			v = 0
		}
		if cpu.OperandsFull() {
			return m.errFull(in.Op)
		}
		cpu.PushOperand(v)

	case OpJmp:
		m.jump(in.Target)

	case OpJe:
		return m.condJump(in, func(l, r float64) bool {
			return math.Abs(l-r) <= 5*math.Abs(l+r)*machineEpsilon
		})
	case OpJne:
		return m.condJump(in, func(l, r float64) bool {
			return math.Abs(l-r) > 5*math.Abs(l+r)*machineEpsilon
		})
	case OpJa:
		return m.condJump(in, func(l, r float64) bool { return l > r })
	case OpJae:
		return m.condJump(in, func(l, r float64) bool { return l >= r })
	case OpJb:
		return m.condJump(in, func(l, r float64) bool { return l < r })
	case OpJbe:
		return m.condJump(in, func(l, r float64) bool { return l <= r })

	case OpCall:
		if cpu.CallsFull() {
			return newRuntimeError(ErrStackOverflow, in.Op, cpu.PC, "call stack is full")
		}
		cpu.PushCall(cpu.PC)
		m.jump(in.Target)

	case OpRet:
		if cpu.CallsEmpty() {
			return newRuntimeError(ErrStackUnderflow, in.Op, cpu.PC, "call stack is empty")
		}
		cpu.PC = cpu.PopCall()

	case OpDump:
		m.dump()

	case OpIsL:
		return m.compare(in.Op, func(l, r float64) bool { return l < r })
	case OpIsLE:
		return m.compare(in.Op, func(l, r float64) bool { return l <= r })
	case OpIsM:
		return m.compare(in.Op, func(l, r float64) bool { return l > r })
	case OpIsME:
		return m.compare(in.Op, func(l, r float64) bool { return l >= r })
	case OpIsE:
		return m.compare(in.Op, func(l, r float64) bool { return l == r })
	case OpIsNE:
		return m.compare(in.Op, func(l, r float64) bool { return l != r })

	case OpAnd:
		return m.compare(in.Op, func(l, r float64) bool { return l > 0 && r > 0 })
	case OpOr:
		return m.compare(in.Op, func(l, r float64) bool { return l > 0 || r > 0 })

	case OpPushM:
		if cpu.OperandsFull() {
			return m.errFull(in.Op)
		}
		slot, err := m.frameSlot(in, in.Mem)
		if err != nil {
			return err
		}
		cpu.PushOperand(cpu.OperandAt(slot))

	case OpPopM:
		if cpu.OperandsEmpty() {
			return m.errEmpty(in.Op)
		}
		slot, err := m.frameSlot(in, in.Mem)
		if err != nil {
			return err
		}
		// When the addressed slot is the stack top itself the store is
		// skipped and the value stays in place: this is how a push
		// followed by popm allocates a new frame slot.
		if slot < cpu.OperandDepth()-1 {
			cpu.SetOperandAt(slot, cpu.PopOperand())
		}

	default:
		return newRuntimeError(ErrOutOfBoundsMemory, in.Op, cpu.PC,
			fmt.Sprintf("unknown opcode %d", int(in.Op)))
	}

	return nil
}

// jump steers the post-step increment onto the target command
func (m *Machine) jump(target int) {
	m.CPU.PC = target - 1
}

// binary pops r then l and pushes op(l, r)
func (m *Machine) binary(op Opcode, f func(l, r float64) float64) error {
	l, r, err := m.popPair(op)
	if err != nil {
		return err
	}
	m.CPU.PushOperand(f(l, r))
	return nil
}

// compare pops r then l and pushes 1.0 when the predicate holds, -1.0
// otherwise
func (m *Machine) compare(op Opcode, pred func(l, r float64) bool) error {
	l, r, err := m.popPair(op)
	if err != nil {
		return err
	}
	if pred(l, r) {
		m.CPU.PushOperand(1)
	} else {
		m.CPU.PushOperand(-1)
	}
	return nil
}

// condJump pops r then l and jumps when the predicate holds
func (m *Machine) condJump(in Instruction, pred func(l, r float64) bool) error {
	l, r, err := m.popPair(in.Op)
	if err != nil {
		return err
	}
	if pred(l, r) {
		m.jump(in.Target)
	}
	return nil
}

// popPair pops the top two operands: r comes off first, then l
func (m *Machine) popPair(op Opcode) (l, r float64, err error) {
	if m.CPU.OperandsEmpty() {
		return 0, 0, m.errEmpty(op)
	}
	r = m.CPU.PopOperand()

	if m.CPU.OperandsEmpty() {
		return 0, 0, m.errEmpty(op)
	}
	l = m.CPU.PopOperand()

	return l, r, nil
}

// frameSlot resolves BP+offset to an operand stack index, rejecting
// accesses outside the live stack
func (m *Machine) frameSlot(in Instruction, offset int) (int, error) {
	slot := int(m.CPU.Regs[RegBP]) + offset
	if slot < 0 || slot >= m.CPU.OperandDepth() {
		return 0, newRuntimeError(ErrOutOfBoundsMemory, in.Op, m.CPU.PC,
			fmt.Sprintf("frame slot %d outside the operand stack (depth %d)", slot, m.CPU.OperandDepth()))
	}
	return slot, nil
}

func (m *Machine) errFull(op Opcode) error {
	return newRuntimeError(ErrStackOverflow, op, m.CPU.PC, "operand stack is full")
}

func (m *Machine) errBadRegister(op Opcode, reg byte) error {
	return newRuntimeError(ErrUnknownRegister, op, m.CPU.PC,
		fmt.Sprintf("register index %d out of range", reg))
}

func (m *Machine) errEmpty(op Opcode) error {
	return newRuntimeError(ErrStackUnderflow, op, m.CPU.PC, "operand stack is empty")
}

// dump prints the full machine state: operand stack and call stack from
// the top down, then every register.
func (m *Machine) dump() {
	fmt.Fprintln(m.Output, "--------------STACK----------------")
	operands := m.CPU.Operands()
	for i := len(operands) - 1; i >= 0; i-- {
		fmt.Fprintf(m.Output, OutputFormat, operands[i])
	}

	fmt.Fprintln(m.Output, "------------CALL-STACK-------------")
	calls := m.CPU.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		fmt.Fprintf(m.Output, "%d\n", calls[i])
	}

	fmt.Fprintln(m.Output, "------------REGISTERS--------------")
	for i, name := range RegisterNames {
		fmt.Fprintf(m.Output, "%s: %f\n", name, m.CPU.Regs[i])
	}
	fmt.Fprintln(m.Output, "-----------------------------------")
}
