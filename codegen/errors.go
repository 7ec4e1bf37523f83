package codegen

import (
	"fmt"

	"github.com/valang/valang/parser"
)

// ErrorKind categorizes code generation failures
type ErrorKind int

const (
	ErrorUndefinedSymbol ErrorKind = iota // variable read before any declaration in scope
	ErrorDuplicateSymbol                  // variable re-declared within the same scope
	ErrorUnknownOperator                  // operator with no assembly mapping
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorUndefinedSymbol:
		return "UndefinedSymbol"
	case ErrorDuplicateSymbol:
		return "DuplicateSymbol"
	case ErrorUnknownOperator:
		return "UnknownOperator"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a code generation error: a symbol or operator problem at a
// source position.
type Error struct {
	Pos     parser.Position
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Message)
}

// NewError creates a code generation error
func NewError(pos parser.Position, kind ErrorKind, message string) *Error {
	return &Error{Pos: pos, Kind: kind, Message: message}
}
