package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valang/valang/asm"
	"github.com/valang/valang/vm"
)

// assemble builds a bytecode image from assembly text
func assemble(t *testing.T, src string) []byte {
	t.Helper()

	data, err := asm.Assemble(src, "test.vas")
	require.NoError(t, err)
	return data
}

func TestLoad_HeaderValidation(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		kind ErrorKind
	}{
		{"empty file", []byte{}, ErrorTruncatedFile},
		{"one byte", []byte{vm.MagicNumber}, ErrorTruncatedFile},
		{"wrong magic", []byte{0x00, vm.StandardNumber}, ErrorBadMagic},
		{"wrong standard", []byte{vm.MagicNumber, 0x01}, ErrorUnsupportedStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.data)
			require.Error(t, err)

			var loadErr *Error
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tt.kind, loadErr.Kind)
		})
	}
}

func TestLoad_HeaderOnly(t *testing.T) {
	program, err := Load([]byte{vm.MagicNumber, vm.StandardNumber})
	require.NoError(t, err)
	assert.Empty(t, program.Code)
	assert.Equal(t, 0, program.Entry)
}

func TestLoad_DecodesAssembledProgram(t *testing.T) {
	data := assemble(t, `
push 2.5
pushr BP
popm 3
jmp done
done:
`)
	program, err := Load(data)
	require.NoError(t, err)

	require.Len(t, program.Code, 5) // 4 commands + implicit end

	assert.Equal(t, vm.OpPush, program.Code[0].Op)
	assert.Equal(t, 2.5, program.Code[0].Value)

	assert.Equal(t, vm.OpPushR, program.Code[1].Op)
	assert.Equal(t, byte(vm.RegBP), program.Code[1].Reg)

	assert.Equal(t, vm.OpPopM, program.Code[2].Op)
	assert.Equal(t, 3, program.Code[2].Mem)

	assert.Equal(t, vm.OpJmp, program.Code[3].Op)
	assert.Equal(t, 4, program.Code[3].Target)

	assert.Equal(t, vm.OpEnd, program.Code[4].Op)
}

func TestLoad_EntryAfterFirstBeg(t *testing.T) {
	data := assemble(t, `
push 1
beg
push 2
beg
`)
	program, err := Load(data)
	require.NoError(t, err)

	// Only the first beg sets the entry point
	assert.Equal(t, 2, program.Entry)
}

func TestLoad_MissingBegRunsFromZero(t *testing.T) {
	data := assemble(t, "push 1\npush 2")
	program, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, 0, program.Entry)
}

func TestLoad_TruncatedOperand(t *testing.T) {
	// A push opcode followed by only four of its eight value bytes
	data := []byte{vm.MagicNumber, vm.StandardNumber, byte(vm.OpPush), 1, 2, 3, 4}

	_, err := Load(data)
	require.Error(t, err)

	var loadErr *Error
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrorTruncatedFile, loadErr.Kind)
}

func TestLoad_UnknownOpcode(t *testing.T) {
	data := []byte{vm.MagicNumber, vm.StandardNumber, 0xEE}

	_, err := Load(data)
	require.Error(t, err)

	var loadErr *Error
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrorUnknownOpcode, loadErr.Kind)
}

func TestLoad_NegativeMemoryOffset(t *testing.T) {
	data := assemble(t, "pushm -1")
	program, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, -1, program.Code[0].Mem)
}
