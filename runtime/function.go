package runtime

import "github.com/vertexdlt/wasmvm/wasm"

// HostFunction is a Go callback backing a delegate FunctionDefinition. It
// receives the definition's own instance field, which is nil for
// definitions built by NewDelegateFunction (mirroring the teacher's
// `func(vm *VM, args ...uint64) uint64` host-function shape, generalized to
// typed, multi-value args and results), plus the call arguments, and
// returns the call's results.
type HostFunction func(inst *ModuleInstance, args []Value) ([]Value, error)

type functionKind int

const (
	functionInterpreted functionKind = iota
	functionDelegate
	functionThrow
)

// FunctionDefinition is one of three variants: an interpreted function
// backed by a decoded module's code-section body, a delegate backed by a
// host Go callback, or a throw stub that raises a stored error on every
// invocation.
type FunctionDefinition struct {
	Signature wasm.FuncType
	kind      functionKind

	body     []byte
	locals   []wasm.LocalEntry
	instance *ModuleInstance

	delegate HostFunction

	thrown error
}

// NewInterpretedFunction builds a FunctionDefinition backed by body, to be
// executed by inst's interpreter whenever it is called. locals are the
// function's declared-local groups (count + type), which the interpreter
// expands into the local index space after the signature's parameters.
func NewInterpretedFunction(sig wasm.FuncType, locals []wasm.LocalEntry, body []byte, inst *ModuleInstance) *FunctionDefinition {
	return &FunctionDefinition{Signature: sig, kind: functionInterpreted, locals: locals, body: body, instance: inst}
}

// NewDelegateFunction builds a FunctionDefinition backed by a host callback.
func NewDelegateFunction(sig wasm.FuncType, fn HostFunction) *FunctionDefinition {
	return &FunctionDefinition{Signature: sig, kind: functionDelegate, delegate: fn}
}

// NewThrowFunction builds a FunctionDefinition that raises err whenever
// invoked.
func NewThrowFunction(sig wasm.FuncType, err error) *FunctionDefinition {
	return &FunctionDefinition{Signature: sig, kind: functionThrow, thrown: err}
}

// Invoke calls fn with args, dispatching on its variant. For an
// interpreted function, this runs the owning instance's interpreter.
func (fn *FunctionDefinition) Invoke(callerDepth int, args []Value) ([]Value, error) {
	switch fn.kind {
	case functionInterpreted:
		return fn.instance.interp.RunFunction(fn.instance, fn, args, callerDepth)
	case functionDelegate:
		return fn.delegate(fn.instance, args)
	case functionThrow:
		return nil, fn.thrown
	}
	panic("runtime: invalid function definition kind")
}

// Body returns the raw instruction stream of an interpreted function.
func (fn *FunctionDefinition) Body() []byte { return fn.body }

// Locals returns the function's declared-local groups (count + type),
// empty for non-interpreted variants.
func (fn *FunctionDefinition) Locals() []wasm.LocalEntry { return fn.locals }
