package codegen

import (
	"fmt"

	"github.com/valang/valang/parser"
)

type entryKind int

const (
	entryVariable entryKind = iota
	entryScopeMarker
)

// entry is one record in the scope table: a variable with its frame slot,
// or a marker delimiting a lexical scope.
type entry struct {
	kind entryKind
	name string
	slot int
	pos  parser.Position
}

// ScopeTable assigns frame slots to variables in declaration order and
// tracks lexical scopes. Slots start at 0 within each function; within a
// function the parameters occupy the lowest slots in declaration order.
type ScopeTable struct {
	entries  []entry // the newest entry is at the end
	nextSlot int
}

// NewScopeTable creates an empty scope table
func NewScopeTable() *ScopeTable {
	return &ScopeTable{}
}

// AddVar declares a variable in the current scope and assigns it the next
// slot. Declaring a name that already exists above the nearest scope
// marker is a DuplicateSymbol error.
func (t *ScopeTable) AddVar(name string, pos parser.Position) (int, error) {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].kind == entryScopeMarker {
			break
		}
		if t.entries[i].name == name {
			return 0, NewError(pos, ErrorDuplicateSymbol,
				fmt.Sprintf("conflicting declarations of %q (first at %s)", name, t.entries[i].pos))
		}
	}

	slot := t.nextSlot
	t.entries = append(t.entries, entry{kind: entryVariable, name: name, slot: slot, pos: pos})
	t.nextSlot++

	return slot, nil
}

// NewScope pushes a scope marker
func (t *ScopeTable) NewScope(pos parser.Position) {
	t.entries = append(t.entries, entry{kind: entryScopeMarker, pos: pos})
}

// ClearScope pops entries down to and including the nearest scope marker,
// releasing the slot of every popped variable.
func (t *ScopeTable) ClearScope() {
	for len(t.entries) > 0 {
		top := t.entries[len(t.entries)-1]
		t.entries = t.entries[:len(t.entries)-1]

		if top.kind == entryScopeMarker {
			break
		}
		t.nextSlot--
	}
}

// Address looks a variable up through the whole scope chain, newest
// declaration first. A missing name is an UndefinedSymbol error.
func (t *ScopeTable) Address(name string, pos parser.Position) (int, error) {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].kind == entryVariable && t.entries[i].name == name {
			return t.entries[i].slot, nil
		}
	}

	return 0, NewError(pos, ErrorUndefinedSymbol, fmt.Sprintf("variable not found: %s", name))
}
