// Package loader decodes a bytecode image into an executable program.
package loader

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/valang/valang/vm"
)

// ErrorKind categorizes loader failures
type ErrorKind int

const (
	ErrorBadMagic ErrorKind = iota
	ErrorUnsupportedStandard
	ErrorTruncatedFile
	ErrorUnknownOpcode
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorBadMagic:
		return "BadMagic"
	case ErrorUnsupportedStandard:
		return "UnsupportedStandard"
	case ErrorTruncatedFile:
		return "TruncatedFile"
	case ErrorUnknownOpcode:
		return "UnknownOpcode"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a bytecode decoding error at a byte offset
type Error struct {
	Kind    ErrorKind
	Offset  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at byte %d: %s", e.Kind, e.Offset, e.Message)
}

// Program is a decoded bytecode file: the instruction list and the entry
// command index. Entry is the index just after the first BEG, or 0 when
// the program has none.
type Program struct {
	Code  []vm.Instruction
	Entry int
}

// Load validates the header and decodes every instruction record
func Load(data []byte) (*Program, error) {
	if len(data) < 2 {
		return nil, &Error{Kind: ErrorTruncatedFile, Offset: len(data), Message: "missing file header"}
	}
	if data[0] != vm.MagicNumber {
		return nil, &Error{Kind: ErrorBadMagic, Offset: 0,
			Message: fmt.Sprintf("magic byte 0x%02X, want 0x%02X", data[0], vm.MagicNumber)}
	}
	if data[1] != vm.StandardNumber {
		return nil, &Error{Kind: ErrorUnsupportedStandard, Offset: 1,
			Message: fmt.Sprintf("standard %d, want %d", data[1], vm.StandardNumber)}
	}

	program := &Program{}
	entrySet := false

	pos := 2
	for pos < len(data) {
		in, next, err := decodeRecord(data, pos)
		if err != nil {
			return nil, err
		}
		pos = next

		program.Code = append(program.Code, in)

		if in.Op == vm.OpBeg && !entrySet {
			program.Entry = len(program.Code)
			entrySet = true
		}
	}

	return program, nil
}

// decodeRecord decodes one instruction record starting at pos
func decodeRecord(data []byte, pos int) (vm.Instruction, int, error) {
	op := vm.Opcode(data[pos])
	if !op.Valid() {
		return vm.Instruction{}, 0, &Error{Kind: ErrorUnknownOpcode, Offset: pos,
			Message: fmt.Sprintf("unknown opcode %d", data[pos])}
	}
	pos++

	in := vm.Instruction{Op: op}
	for _, argType := range vm.Commands[op].Args {
		size := operandSize(argType)
		if pos+size > len(data) {
			return vm.Instruction{}, 0, &Error{Kind: ErrorTruncatedFile, Offset: pos,
				Message: fmt.Sprintf("%s operand cut short", op)}
		}

		switch argType {
		case vm.ArgRegister:
			in.Reg = data[pos]
		case vm.ArgValue:
			in.Value = math.Float64frombits(binary.LittleEndian.Uint64(data[pos : pos+size]))
		case vm.ArgNameTag:
			in.Target = int(binary.LittleEndian.Uint16(data[pos : pos+size]))
		case vm.ArgMemory:
			in.Mem = int(int16(binary.LittleEndian.Uint16(data[pos : pos+size])))
		}
		pos += size
	}

	return in, pos, nil
}

func operandSize(argType vm.ArgType) int {
	switch argType {
	case vm.ArgRegister:
		return vm.RegisterOperandSize
	case vm.ArgValue:
		return vm.ValueOperandSize
	case vm.ArgNameTag:
		return vm.CommandOperandSize
	case vm.ArgMemory:
		return vm.MemoryOperandSize
	}
	return 0
}
