package asm

import (
	"fmt"

	"github.com/valang/valang/parser"
)

// ErrorKind categorizes assembly failures
type ErrorKind int

const (
	ErrorUnknownMnemonic ErrorKind = iota
	ErrorUnknownRegister
	ErrorBadOperand
	ErrorArgumentMissing
	ErrorDuplicateLabel
	ErrorUnresolvedLabel
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorUnknownMnemonic:
		return "UnknownMnemonic"
	case ErrorUnknownRegister:
		return "UnknownRegister"
	case ErrorBadOperand:
		return "BadOperand"
	case ErrorArgumentMissing:
		return "ArgumentMissing"
	case ErrorDuplicateLabel:
		return "DuplicateLabel"
	case ErrorUnresolvedLabel:
		return "UnresolvedLabel"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is an assembly error at a source line
type Error struct {
	Pos     parser.Position
	Kind    ErrorKind
	Message string
	Word    string // the offending word, if any
}

func (e *Error) Error() string {
	if e.Word != "" {
		return fmt.Sprintf("%s: %s: %s (near %q)", e.Pos, e.Kind, e.Message, e.Word)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Message)
}

// NewError creates an assembly error
func NewError(pos parser.Position, kind ErrorKind, message, word string) *Error {
	return &Error{Pos: pos, Kind: kind, Message: message, Word: word}
}
