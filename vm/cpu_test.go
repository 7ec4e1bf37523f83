package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCPU_OperandStack(t *testing.T) {
	cpu := NewCPU(4, 4)

	assert.True(t, cpu.OperandsEmpty())
	assert.False(t, cpu.OperandsFull())

	cpu.PushOperand(1.5)
	cpu.PushOperand(2.5)
	assert.Equal(t, 2, cpu.OperandDepth())

	assert.Equal(t, 2.5, cpu.PopOperand())
	assert.Equal(t, 1.5, cpu.PopOperand())
	assert.True(t, cpu.OperandsEmpty())
}

func TestCPU_OperandStackCapacity(t *testing.T) {
	cpu := NewCPU(2, 2)

	cpu.PushOperand(1)
	cpu.PushOperand(2)
	assert.True(t, cpu.OperandsFull())
}

func TestCPU_CallStack(t *testing.T) {
	cpu := NewCPU(4, 2)

	cpu.PushCall(10)
	cpu.PushCall(20)
	assert.True(t, cpu.CallsFull())

	assert.Equal(t, 20, cpu.PopCall())
	assert.Equal(t, 10, cpu.PopCall())
	assert.True(t, cpu.CallsEmpty())
}

func TestCPU_UpdateSP(t *testing.T) {
	cpu := NewCPU(8, 8)

	cpu.PushOperand(1)
	cpu.PushOperand(2)
	cpu.PushOperand(3)
	cpu.UpdateSP()
	assert.Equal(t, 3.0, cpu.Regs[RegSP])

	cpu.PopOperand()
	cpu.UpdateSP()
	assert.Equal(t, 2.0, cpu.Regs[RegSP])
}

func TestCPU_DefaultCapacities(t *testing.T) {
	cpu := NewCPU(0, -1)
	assert.Equal(t, DefaultOperandStackSize, cpu.operandCap)
	assert.Equal(t, DefaultCallStackSize, cpu.callCap)
}

func TestCPU_Reset(t *testing.T) {
	cpu := NewCPU(8, 8)
	cpu.PushOperand(1)
	cpu.PushCall(5)
	cpu.Regs[RegAX] = 9
	cpu.PC = 7

	cpu.Reset()

	assert.Equal(t, 0, cpu.PC)
	assert.True(t, cpu.OperandsEmpty())
	assert.True(t, cpu.CallsEmpty())
	assert.Equal(t, 0.0, cpu.Regs[RegAX])
}

func TestRegisterIndex(t *testing.T) {
	tests := []struct {
		name  string
		index byte
		ok    bool
	}{
		{"AX", RegAX, true},
		{"ax", RegAX, true},
		{"Sp", RegSP, true},
		{"RT", RegRT, true},
		{"bp", RegBP, true},
		{"XY", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, ok := RegisterIndex(tt.name)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.index, index)
			}
		})
	}
}

func TestLookupCommand(t *testing.T) {
	op, ok := LookupCommand("PUSH")
	assert.True(t, ok)
	assert.Equal(t, OpPush, op)

	op, ok = LookupCommand("is_ne")
	assert.True(t, ok)
	assert.Equal(t, OpIsNE, op)

	op, ok = LookupCommand("@")
	assert.True(t, ok)
	assert.Equal(t, OpDump, op)

	_, ok = LookupCommand("nop")
	assert.False(t, ok)
}

func TestOpcodeTablePositions(t *testing.T) {
	// Opcode numbering is part of the bytecode format
	assert.Equal(t, Opcode(0), OpBeg)
	assert.Equal(t, Opcode(1), OpEnd)
	assert.Equal(t, Opcode(2), OpPush)
	assert.Equal(t, Opcode(13), OpJmp)
	assert.Equal(t, Opcode(20), OpCall)
	assert.Equal(t, Opcode(22), OpDump)
	assert.Equal(t, Opcode(23), OpPrint)
	assert.Equal(t, Opcode(31), OpOr)
	assert.Equal(t, Opcode(33), OpPopM)
	assert.Equal(t, Opcode(34), OpcodeCount)
}
