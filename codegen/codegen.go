// Package codegen lowers the AST to textual stack-machine assembly.
package codegen

import (
	"fmt"
	"io"
	"strconv"

	"github.com/valang/valang/parser"
)

// EntryFunction is the function the generated program starts from
const EntryFunction = "main"

// operatorAsm maps a (class, symbol) operator to the assembly it lowers
// to after its operands. Multi-instruction expansions are newline
// separated; the empty string expands to nothing.
var operatorAsm = map[parser.Operator]string{
	{Class: parser.UnaryPrefix, Symbol: "+"}:      "",
	{Class: parser.UnaryPrefix, Symbol: "-"}:      "push -1\nmul",
	{Class: parser.BinaryInfixLeft, Symbol: "*"}:  "mul",
	{Class: parser.BinaryInfixLeft, Symbol: "/"}:  "div",
	{Class: parser.BinaryInfixLeft, Symbol: "+"}:  "add",
	{Class: parser.BinaryInfixLeft, Symbol: "-"}:  "sub",
	{Class: parser.BinaryInfix, Symbol: "<"}:      "is_l",
	{Class: parser.BinaryInfix, Symbol: "<="}:     "is_le",
	{Class: parser.BinaryInfix, Symbol: ">"}:      "is_m",
	{Class: parser.BinaryInfix, Symbol: ">="}:     "is_me",
	{Class: parser.BinaryInfix, Symbol: "=="}:     "is_e",
	{Class: parser.BinaryInfix, Symbol: "!="}:     "is_ne",
	{Class: parser.BinaryInfixLeft, Symbol: "&&"}: "and",
	{Class: parser.BinaryInfixLeft, Symbol: "||"}: "or",
}

// Translator walks the AST and writes assembly. It owns the scope table
// and the label counter for one compilation.
type Translator struct {
	w       io.Writer
	scopes  *ScopeTable
	curFunc string
	nextLbl int
	werr    error
}

// NewTranslator creates a translator writing to w
func NewTranslator(w io.Writer) *Translator {
	return &Translator{
		w:      w,
		scopes: NewScopeTable(),
	}
}

// Translate lowers a whole program node to assembly text on w
func Translate(w io.Writer, program *parser.Node) error {
	return NewTranslator(w).Lower(program)
}

// Lower emits the assembly for a node and its children
func (t *Translator) Lower(node *parser.Node) error {
	if node == nil {
		return nil
	}

	switch node.Kind {
	case parser.KindProgram, parser.KindSequence:
		for _, child := range node.List {
			if err := t.Lower(child); err != nil {
				return err
			}
		}

	case parser.KindNumber:
		t.emit("push " + formatValue(node.Value))

	case parser.KindVariable:
		slot, err := t.scopes.Address(node.Name, node.Pos)
		if err != nil {
			return err
		}
		t.emit("pushm " + strconv.Itoa(slot))

	case parser.KindOperation:
		for _, operand := range node.List {
			if err := t.Lower(operand); err != nil {
				return err
			}
		}
		asm, ok := operatorAsm[node.Op]
		if !ok {
			return NewError(node.Pos, ErrorUnknownOperator,
				fmt.Sprintf("no assembly mapping for operator %s", node.Op.Name()))
		}
		if asm != "" {
			t.emit(asm)
		}

	case parser.KindCall:
		return t.lowerCall(node)

	case parser.KindAssign:
		if err := t.Lower(node.X); err != nil {
			return err
		}
		slot, err := t.scopes.Address(node.Name, node.Pos)
		if err != nil {
			return err
		}
		t.emit("popm " + strconv.Itoa(slot))
		t.emit("")

	case parser.KindVarDef:
		if err := t.Lower(node.X); err != nil {
			return err
		}
		slot, err := t.scopes.AddVar(node.Name, node.Pos)
		if err != nil {
			return err
		}
		t.emit("popm " + strconv.Itoa(slot))
		t.emit("")

	case parser.KindIf:
		return t.lowerIf(node)

	case parser.KindWhile:
		return t.lowerWhile(node)

	case parser.KindPrint:
		if err := t.Lower(node.X); err != nil {
			return err
		}
		t.emit("print")

	case parser.KindReturn:
		return t.lowerReturn(node)

	case parser.KindFuncDef:
		return t.lowerFuncDef(node)
	}

	return t.werr
}

// lowerCall establishes the callee frame before the arguments: the
// caller's BP is saved on the operand stack and BP is set to the stack
// depth just above it (the SP value), so the arguments pushed next occupy
// frame slots 0..n-1 of the callee.
func (t *Translator) lowerCall(node *parser.Node) error {
	t.emit("pushr BP")
	t.emit("pushr SP")
	t.emit("popr BP")

	for _, arg := range node.List {
		if err := t.Lower(arg); err != nil {
			return err
		}
	}

	t.emit("call " + node.Name)
	return t.werr
}

func (t *Translator) lowerIf(node *parser.Node) error {
	if node.Cond != nil {
		if err := t.Lower(node.Cond); err != nil {
			return err
		}
	} else {
		t.emit("push -1")
	}

	t.emit("push 0")

	thenLbl := t.newLabel()
	elseLbl := t.newLabel()

	t.emit("ja " + thenLbl)
	t.emit("jmp " + elseLbl)
	t.emit("")

	t.scopes.NewScope(node.Pos)
	t.emit(thenLbl + ":")
	if node.Then != nil {
		if err := t.Lower(node.Then); err != nil {
			return err
		}
	}
	t.emit("")
	t.scopes.ClearScope()

	t.scopes.NewScope(node.Pos)
	t.emit(elseLbl + ":")
	if node.Else != nil {
		if err := t.Lower(node.Else); err != nil {
			return err
		}
	}
	t.emit("")
	t.scopes.ClearScope()

	return t.werr
}

func (t *Translator) lowerWhile(node *parser.Node) error {
	condLbl := t.newLabel()
	endLbl := t.newLabel()

	t.emit(condLbl + ":")

	if node.Cond != nil {
		if err := t.Lower(node.Cond); err != nil {
			return err
		}
	} else {
		t.emit("push -1")
	}

	t.emit("push 0")
	t.emit("jb " + endLbl)
	t.emit("")

	t.scopes.NewScope(node.Pos)
	if node.Body != nil {
		if err := t.Lower(node.Body); err != nil {
			return err
		}
	}
	t.scopes.ClearScope()

	t.emit("jmp " + condLbl)
	t.emit(endLbl + ":")
	t.emit("")

	return t.werr
}

// lowerReturn stores the value in RT and, outside main, unwinds the
// callee frame: pop until SP is back at BP, restore the caller's BP and
// leave RT on top for the caller. In main it terminates the program.
func (t *Translator) lowerReturn(node *parser.Node) error {
	loopLbl := t.newLabel()
	leaveLbl := t.newLabel()

	if err := t.Lower(node.X); err != nil {
		return err
	}
	t.emit("popr RT")

	if t.curFunc == EntryFunction {
		t.emit("end")
		return t.werr
	}

	t.emit(loopLbl + ":")
	t.emit("pushr SP")
	t.emit("pushr BP")
	t.emit("jbe " + leaveLbl)
	t.emit("pop")
	t.emit("jmp " + loopLbl)
	t.emit(leaveLbl + ":")
	t.emit("popr BP")

	t.emit("pushr RT")
	t.emit("ret")

	return t.werr
}

func (t *Translator) lowerFuncDef(node *parser.Node) error {
	t.scopes.NewScope(node.Pos)
	t.curFunc = node.Name

	if node.Name == EntryFunction {
		t.emit("beg")
	}

	t.emit(node.Name + ":")

	for _, param := range node.Params {
		if _, err := t.scopes.AddVar(param, node.Pos); err != nil {
			return err
		}
	}
	t.emit("")

	if node.Body != nil {
		if err := t.Lower(node.Body); err != nil {
			return err
		}
	}

	t.scopes.ClearScope()
	t.curFunc = ""
	t.emit("")
	t.emit("")

	return t.werr
}

// newLabel mints a fresh jump label. User identifiers cannot start with
// an underscore, so the prefix cannot collide with a function name.
func (t *Translator) newLabel() string {
	label := "__L" + strconv.Itoa(t.nextLbl)
	t.nextLbl++
	return label
}

// emit writes one assembly line, retaining the first writer error
func (t *Translator) emit(line string) {
	if t.werr != nil {
		return
	}
	_, t.werr = fmt.Fprintln(t.w, line)
}

// formatValue renders a literal the shortest way that round-trips
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
