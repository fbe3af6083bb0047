package runtime

import (
	"github.com/vertexdlt/wasmvm/internal/wasmerr"
	"github.com/vertexdlt/wasmvm/wasm"
)

// Variable holds one value plus its declared type and mutability. Globals,
// function parameters, and function locals are all represented as
// Variables so reads/writes go through the same type/mutability checks.
type Variable struct {
	value      Value
	valueType  wasm.ValueType
	mutability wasm.Mutability
}

// NewVariable constructs a Variable already holding v, with the given
// declared type and mutability. v's type must match vt.
func NewVariable(vt wasm.ValueType, mutability wasm.Mutability, v Value) *Variable {
	return &Variable{value: v, valueType: vt, mutability: mutability}
}

// NewZeroVariable constructs a mutable Variable default-initialized to the
// zero value of vt — used for declared function locals, which the spec
// requires to start at 0/0.0.
func NewZeroVariable(vt wasm.ValueType) *Variable {
	return &Variable{value: Zero(vt), valueType: vt, mutability: wasm.Mutable}
}

// Get returns the variable's current value.
func (v *Variable) Get() Value { return v.value }

// Type returns the variable's declared value type.
func (v *Variable) Type() wasm.ValueType { return v.valueType }

// Mutable reports whether Set is permitted.
func (v *Variable) Mutable() bool { return v.mutability == wasm.Mutable }

// Set stores newValue, after checking mutability and type. Both checks are
// execution traps per spec, not structural errors, since they can only be
// observed by instructions actually executing (global.set, local.set/tee).
func (v *Variable) Set(newValue Value) error {
	if v.mutability != wasm.Mutable {
		return wasmerr.NewTrap(wasmerr.TrapImmutableAssignment, "variable is immutable")
	}
	if newValue.Type != v.valueType {
		return wasmerr.NewTrap(wasmerr.TrapTypeMismatch, "variable is %s, value is %s", v.valueType, newValue.Type)
	}
	v.value = newValue
	return nil
}
