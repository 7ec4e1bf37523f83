// Package asm converts textual stack-machine assembly to bytecode.
//
// Assembly runs as one forward encoding pass plus a patch step: labels
// bind to the index of the next instruction, nametag operands are
// written as placeholders and patched once every label is known. An
// implicit END is appended so labels on the last line resolve.
package asm

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/valang/valang/parser"
	"github.com/valang/valang/vm"
)

// CommentPrefix starts a comment running to the end of the line
const CommentPrefix = "//"

// word is one whitespace-separated item of the assembly text
type word struct {
	text string
	pos  parser.Position
}

// patch records a nametag placeholder awaiting a label's command index
type patch struct {
	label  string
	offset int // byte offset of the placeholder in the program body
	pos    parser.Position
}

// Assembler holds the state of a single assembly run
type Assembler struct {
	filename string

	body    []byte
	labels  map[string]uint16
	patches []patch
	curCmd  uint16
}

// NewAssembler creates an assembler; filename is used in errors only
func NewAssembler(filename string) *Assembler {
	return &Assembler{
		filename: filename,
		labels:   make(map[string]uint16),
	}
}

// Assemble converts assembly text to a complete bytecode image including
// the two header bytes.
func Assemble(src, filename string) ([]byte, error) {
	return NewAssembler(filename).Run(src)
}

// Run assembles the given source text
func (a *Assembler) Run(src string) ([]byte, error) {
	words := splitWords(src, a.filename)

	for i := 0; i < len(words); i++ {
		w := words[i]

		if name, ok := labelName(w.text); ok {
			if _, exists := a.labels[name]; exists {
				return nil, NewError(w.pos, ErrorDuplicateLabel, "two equivalent labels found", name)
			}
			a.labels[name] = a.curCmd
			continue
		}

		consumed, err := a.encodeCommand(words, i)
		if err != nil {
			return nil, err
		}
		i += consumed
		a.curCmd++
	}

	// Implicit terminal END lets labels at the end of the program
	// resolve to a real command index.
	a.body = append(a.body, byte(vm.OpEnd))

	if err := a.applyPatches(); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(a.body)+2)
	out = append(out, vm.MagicNumber, vm.StandardNumber)
	out = append(out, a.body...)

	return out, nil
}

// encodeCommand writes the opcode and operands of the command starting at
// words[i]; returns how many extra words were consumed.
func (a *Assembler) encodeCommand(words []word, i int) (int, error) {
	w := words[i]

	op, ok := vm.LookupCommand(w.text)
	if !ok {
		return 0, NewError(w.pos, ErrorUnknownMnemonic, "unable to recognize command name", w.text)
	}

	a.body = append(a.body, byte(op))

	consumed := 0
	for _, argType := range vm.Commands[op].Args {
		consumed++
		if i+consumed >= len(words) {
			return 0, NewError(w.pos, ErrorArgumentMissing, "argument mismatch for "+vm.Commands[op].Name, w.text)
		}

		arg := words[i+consumed]
		if err := a.encodeArg(argType, arg); err != nil {
			return 0, err
		}
	}

	return consumed, nil
}

func (a *Assembler) encodeArg(argType vm.ArgType, arg word) error {
	switch argType {
	case vm.ArgRegister:
		index, ok := vm.RegisterIndex(arg.text)
		if !ok {
			return NewError(arg.pos, ErrorUnknownRegister, "unable to recognize register", arg.text)
		}
		a.body = append(a.body, index)

	case vm.ArgValue:
		value, err := strconv.ParseFloat(arg.text, 64)
		if err != nil {
			return NewError(arg.pos, ErrorBadOperand, "unable to recognize value", arg.text)
		}
		var buf [vm.ValueOperandSize]byte
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(value))
		a.body = append(a.body, buf[:]...)

	case vm.ArgNameTag:
		a.patches = append(a.patches, patch{label: arg.text, offset: len(a.body), pos: arg.pos})
		a.body = append(a.body, 0, 0)

	case vm.ArgMemory:
		offset, err := strconv.ParseInt(arg.text, 10, 16)
		if err != nil {
			return NewError(arg.pos, ErrorBadOperand, "unable to recognize memory address", arg.text)
		}
		var buf [vm.MemoryOperandSize]byte
		binary.LittleEndian.PutUint16(buf[:], uint16(int16(offset)))
		a.body = append(a.body, buf[:]...)
	}

	return nil
}

// applyPatches writes the command index of every referenced label into
// its placeholder bytes
func (a *Assembler) applyPatches() error {
	for _, p := range a.patches {
		target, ok := a.labels[p.label]
		if !ok {
			return NewError(p.pos, ErrorUnresolvedLabel, "unable to find corresponding label", p.label)
		}
		binary.LittleEndian.PutUint16(a.body[p.offset:p.offset+2], target)
	}
	return nil
}

// labelName reports whether the word defines a label and strips the colon
func labelName(text string) (string, bool) {
	if strings.HasSuffix(text, ":") && len(text) > 1 {
		return text[:len(text)-1], true
	}
	return "", false
}

// splitWords tokenizes the source into words, dropping // comments to the
// end of their line and tracking line numbers for error reporting.
func splitWords(src, filename string) []word {
	var words []word

	for lineNo, line := range strings.Split(src, "\n") {
		if idx := strings.Index(line, CommentPrefix); idx >= 0 {
			line = line[:idx]
		}

		for _, text := range strings.Fields(line) {
			words = append(words, word{
				text: text,
				pos:  parser.Position{Filename: filename, Line: lineNo + 1, Column: 1},
			})
		}
	}

	return words
}
