package runtime

import "github.com/vertexdlt/wasmvm/internal/wasmerr"

// FunctionTable is an indexed array of callable references. Every slot
// starts out holding the package-level trapElement sentinel; instantiation
// overwrites slots named by element segments, and any slot invoked while
// still a sentinel raises "uninitialized element".
type FunctionTable struct {
	elements []*FunctionDefinition
}

// trapElement is the sentinel every table slot holds until an element
// segment (or a later table.set, once that's supported) assigns it.
var trapElement = &FunctionDefinition{}

// NewFunctionTable allocates a table of the given element count, every
// slot initialized to the uninitialized-element sentinel.
func NewFunctionTable(count uint32) *FunctionTable {
	elements := make([]*FunctionDefinition, count)
	for i := range elements {
		elements[i] = trapElement
	}
	return &FunctionTable{elements: elements}
}

// Count returns the number of slots in the table.
func (t *FunctionTable) Count() uint32 { return uint32(len(t.elements)) }

// Set installs fn at index, trapping UndefinedElement if index is out of
// bounds. Used to apply element segments during instantiation.
func (t *FunctionTable) Set(index uint32, fn *FunctionDefinition) error {
	if index >= uint32(len(t.elements)) {
		return wasmerr.NewTrap(wasmerr.TrapUndefinedElement, "element index %d out of bounds (table has %d slots)", index, len(t.elements))
	}
	t.elements[index] = fn
	return nil
}

// Get returns the function at index for an indirect call, trapping
// UndefinedElement if out of bounds or UninitializedElement if the slot
// was never assigned.
func (t *FunctionTable) Get(index uint32) (*FunctionDefinition, error) {
	if index >= uint32(len(t.elements)) {
		return nil, wasmerr.NewTrap(wasmerr.TrapUndefinedElement, "table index %d out of bounds (table has %d slots)", index, len(t.elements))
	}
	fn := t.elements[index]
	if fn == trapElement {
		return nil, wasmerr.NewTrap(wasmerr.TrapUninitializedElement, "table index %d was never assigned", index)
	}
	return fn, nil
}
