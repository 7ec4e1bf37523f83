package integration

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valang/valang/asm"
	"github.com/valang/valang/codegen"
	"github.com/valang/valang/loader"
	"github.com/valang/valang/parser"
	"github.com/valang/valang/vm"
)

// compile drives the full pipeline: source -> AST -> assembly -> bytecode
func compile(t *testing.T, src string) []byte {
	t.Helper()

	program, err := parser.ParseSource(src, "test.vl")
	require.NoError(t, err)

	var assembly strings.Builder
	require.NoError(t, codegen.Translate(&assembly, program))

	bytecode, err := asm.Assemble(assembly.String(), "test.vas")
	require.NoError(t, err)

	return bytecode
}

// run compiles and executes source, returning the captured output
func run(t *testing.T, src string) string {
	t.Helper()

	output, err := runWithError(t, src)
	require.NoError(t, err)
	return output
}

// runWithError compiles source and executes it, returning output and the
// runtime error, if any
func runWithError(t *testing.T, src string) (string, error) {
	t.Helper()

	program, err := loader.Load(compile(t, src))
	require.NoError(t, err)

	machine := vm.NewMachine(program.Code)
	machine.SetEntry(program.Entry)
	machine.StepLimit = 10_000_000

	out := &bytes.Buffer{}
	machine.Output = out

	err = machine.Run()
	return out.String(), err
}

func TestPipeline_ReturnLiteral(t *testing.T) {
	output := run(t, "def main() { return 42; }")
	assert.Equal(t, "42.000\n", output)
}

func TestPipeline_LocalVariables(t *testing.T) {
	output := run(t, "def main() { var x = 3; var y = 4; return x*x + y*y; }")
	assert.Equal(t, "25.000\n", output)
}

func TestPipeline_RecursiveFibonacci(t *testing.T) {
	src := `
def f(n) {
	if (n < 2) return n;
	return f(n-1) + f(n-2);
}

def main() {
	return f(10);
}
`
	output := run(t, src)
	assert.Equal(t, "55.000\n", output)
}

func TestPipeline_WhileLoop(t *testing.T) {
	src := `
def main() {
	var i = 0;
	var s = 0;
	while (i < 5) {
		s = s + i;
		i = i + 1;
	}
	return s;
}
`
	output := run(t, src)
	assert.Equal(t, "10.000\n", output)
}

func TestPipeline_PrintComparisons(t *testing.T) {
	output := run(t, "def main() { print(1 < 2); print(2 < 1); return 0; }")
	assert.Equal(t, "1.000\n-1.000\n0.000\n", output)
}

func TestPipeline_DivisionByZero(t *testing.T) {
	output, err := runWithError(t, "def main() { return 1/0; }")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DivisionByZero")
	assert.NotContains(t, output, "0.000")
}

func TestPipeline_LeftAssociativity(t *testing.T) {
	output := run(t, "def main() { var a = 10; var b = 3; var c = 2; return a - b - c; }")
	assert.Equal(t, "5.000\n", output)
}

func TestPipeline_UnaryMinusLaw(t *testing.T) {
	// -x == 0 - x for ordinary doubles
	for _, value := range []string{"7", "0.5", "1234.25"} {
		output := run(t, "def main() { var x = "+value+"; return -x - (0 - x); }")
		assert.Equal(t, "0.000\n", output, "for x = %s", value)
	}
}

func TestPipeline_OperatorPrecedence(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"2 + 3 * 4", "14.000\n"},
		{"(2 + 3) * 4", "20.000\n"},
		{"10 / 2 / 5", "1.000\n"},
		{"-2 * 3", "-6.000\n"},
		{"1 < 2 && 3 < 4", "1.000\n"},
		{"1 < 2 && 4 < 3", "-1.000\n"},
		{"1 > 2 || 3 > 4", "-1.000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			output := run(t, "def main() { return "+tt.expr+"; }")
			assert.Equal(t, tt.want, output)
		})
	}
}

func TestPipeline_IfElse(t *testing.T) {
	src := `
def classify(n) {
	if (n < 0) return -1;
	if (n == 0) return 0;
	return 1;
}

def main() {
	print(classify(0 - 5));
	print(classify(0));
	print(classify(9));
	return 0;
}
`
	output := run(t, src)
	assert.Equal(t, "-1.000\n0.000\n1.000\n0.000\n", output)
}

func TestPipeline_NestedCallsAndArguments(t *testing.T) {
	src := `
def add(a, b) { return a + b; }
def mul(a, b) { return a * b; }

def main() {
	return add(mul(2, 3), add(1, 4));
}
`
	output := run(t, src)
	assert.Equal(t, "11.000\n", output)
}

func TestPipeline_ShadowingInBranch(t *testing.T) {
	src := `
def main() {
	var x = 1;
	if (x == 1) {
		var y = 10;
		x = y + x;
	}
	var z = 100;
	return x + z;
}
`
	output := run(t, src)
	assert.Equal(t, "111.000\n", output)
}

func TestPipeline_CommentsAreIgnored(t *testing.T) {
	src := `
#main returns a constant
def main() {
	return 8; #print(9999);
}
`
	output := run(t, src)
	assert.Equal(t, "8.000\n", output)
}

func TestPipeline_MissingBegRunsFromZero(t *testing.T) {
	// Hand-written assembly without beg: execution starts at command 0
	bytecode, err := asm.Assemble("push 3\npopr RT\nend", "test.vas")
	require.NoError(t, err)

	program, err := loader.Load(bytecode)
	require.NoError(t, err)
	assert.Equal(t, 0, program.Entry)

	machine := vm.NewMachine(program.Code)
	machine.SetEntry(program.Entry)
	out := &bytes.Buffer{}
	machine.Output = out

	require.NoError(t, machine.Run())
	assert.Equal(t, "3.000\n", out.String())
}

func TestPipeline_ForwardLabelOnLastLine(t *testing.T) {
	// A label on the last line resolves through the implicit terminal
	// END, which prints RT when reached
	src := `
push 1
push 2
jb skip
print
skip:
`
	bytecode, err := asm.Assemble(src, "test.vas")
	require.NoError(t, err)

	program, err := loader.Load(bytecode)
	require.NoError(t, err)

	machine := vm.NewMachine(program.Code)
	out := &bytes.Buffer{}
	machine.Output = out

	require.NoError(t, machine.Run())
	// jb pops 2 then 1: 1 < 2, so the jump skips print and lands on
	// the implicit END, which prints RT (still zero)
	assert.Equal(t, "0.000\n", out.String())
}

func TestPipeline_BPRestoredAfterCall(t *testing.T) {
	// Two sequential calls rely on BP coming back to the caller's value
	src := `
def one() { return 1; }

def main() {
	var a = one();
	var b = one();
	return a + b;
}
`
	output := run(t, src)
	assert.Equal(t, "2.000\n", output)
}

func TestPipeline_DeepRecursionOverflowsCallStack(t *testing.T) {
	src := `
def loop(n) { return loop(n + 1); }
def main() { return loop(0); }
`
	program, err := loader.Load(compile(t, src))
	require.NoError(t, err)

	machine := vm.NewMachine(program.Code)
	machine.SetEntry(program.Entry)
	machine.Output = &bytes.Buffer{}

	err = machine.Run()
	require.Error(t, err)

	var rtErr *vm.RuntimeError
	require.ErrorAs(t, err, &rtErr)
	// Each frame leaves values on the operand stack too; whichever
	// stack fills first, the failure is an overflow, not a crash
	assert.Equal(t, vm.ErrStackOverflow, rtErr.Kind)
}

func TestPipeline_AssemblyIsDeterministic(t *testing.T) {
	src := "def main() { if (1 < 2) return 1; else return 2; }"

	program1, err := parser.ParseSource(src, "test.vl")
	require.NoError(t, err)
	program2, err := parser.ParseSource(src, "test.vl")
	require.NoError(t, err)

	var asm1, asm2 strings.Builder
	require.NoError(t, codegen.Translate(&asm1, program1))
	require.NoError(t, codegen.Translate(&asm2, program2))

	assert.Equal(t, asm1.String(), asm2.String())
}
