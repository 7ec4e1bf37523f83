package parser

import "fmt"

// OpClass classifies how an operator binds to its operands
type OpClass int

const (
	UnaryPrefix OpClass = iota
	UnaryPostfix
	BinaryInfix      // single non-associative pair
	BinaryInfixRight // a + (b + c)
	BinaryInfixLeft  // (a + b) + c
)

var opClassPrefixes = map[OpClass]string{
	UnaryPrefix:      "unpr",
	UnaryPostfix:     "unpt",
	BinaryInfix:      "binf",
	BinaryInfixRight: "binr",
	BinaryInfixLeft:  "binl",
}

func (c OpClass) String() string {
	if prefix, ok := opClassPrefixes[c]; ok {
		return prefix
	}
	return fmt.Sprintf("OpClass(%d)", int(c))
}

// Arity returns the operand count for the class
func (c OpClass) Arity() int {
	switch c {
	case UnaryPrefix, UnaryPostfix:
		return 1
	default:
		return 2
	}
}

// Operator identifies an operator as a (class, symbol) pair. The class
// distinguishes, e.g., unary minus from binary minus after parsing.
type Operator struct {
	Class  OpClass
	Symbol string
}

// Name returns the namespaced debug name, e.g. "binl_+" or "unpr_-"
func (o Operator) Name() string {
	return o.Class.String() + "_" + o.Symbol
}

// NodeKind tags the variant held by an AST node
type NodeKind int

const (
	KindOperation NodeKind = iota
	KindNumber
	KindVariable
	KindCall
	KindAssign
	KindVarDef
	KindIf
	KindWhile
	KindPrint
	KindReturn
	KindFuncDef
	KindSequence
	KindProgram
)

var nodeKindNames = map[NodeKind]string{
	KindOperation: "operation",
	KindNumber:    "number",
	KindVariable:  "variable",
	KindCall:      "call",
	KindAssign:    "assign",
	KindVarDef:    "var-def",
	KindIf:        "if",
	KindWhile:     "while",
	KindPrint:     "print",
	KindReturn:    "return",
	KindFuncDef:   "func-def",
	KindSequence:  "sequence",
	KindProgram:   "program",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is a tagged-variant AST node. Which fields are meaningful depends
// on Kind; unused fields stay zero. The tree has single ownership from
// parent to children and no back-pointers.
type Node struct {
	Kind NodeKind
	Pos  Position

	Op     Operator // KindOperation
	Value  float64  // KindNumber
	Name   string   // KindVariable, KindCall, KindAssign, KindVarDef, KindFuncDef
	Params []string // KindFuncDef parameter names, in declaration order

	X    *Node   // assign/var-def initializer, print/return value
	Cond *Node   // if/while condition
	Then *Node   // if then-branch
	Else *Node   // if else-branch, nil when absent
	Body *Node   // while/func-def body
	List []*Node // operation operands, call arguments, sequence statements, program functions
}

// NewOperation builds an operation node over the given operands
func NewOperation(op Operator, operands []*Node, pos Position) *Node {
	return &Node{Kind: KindOperation, Op: op, List: operands, Pos: pos}
}

// NewNumber builds a literal number node
func NewNumber(value float64, pos Position) *Node {
	return &Node{Kind: KindNumber, Value: value, Pos: pos}
}

// NewVariable builds a variable reference node
func NewVariable(name string, pos Position) *Node {
	return &Node{Kind: KindVariable, Name: name, Pos: pos}
}

// NewCall builds a call node with arguments in source order
func NewCall(name string, args []*Node, pos Position) *Node {
	return &Node{Kind: KindCall, Name: name, List: args, Pos: pos}
}
