// Package vm is the top-level entry point gluing the codec (wasm), the
// instantiation pipeline (runtime), and the interpreter (interp) together,
// mirroring the teacher's own vm.VM: one call to build a module from bytes,
// another to invoke an exported function by name.
package vm

import (
	"fmt"

	"github.com/vertexdlt/wasmvm/interp"
	"github.com/vertexdlt/wasmvm/runtime"
	"github.com/vertexdlt/wasmvm/wasm"
)

// VM owns one instantiated module plus the decoded module it came from
// (kept around for introspection: export names, function count).
type VM struct {
	module   *wasm.Module
	instance *runtime.ModuleInstance
}

// HostFunction is a host-provided import, called with its arguments'
// 64-bit storage and returning its single result's 64-bit storage (0 if
// the signature declares no result). This mirrors the teacher's
// `func(vm *VM, args ...uint64) uint64` host-function shape; the
// resolverImporter below handles the typed Value <-> uint64 boundary so
// host code never has to know which Wasm value kind it received beyond
// what it already agreed on via the import signature.
type HostFunction func(vm *VM, args ...uint64) (uint64, error)

// Resolver supplies host functions for a module's imports by module/field
// name, generalizing the teacher's main.go Resolver (hardcoded to the
// "env" module) to arbitrary namespaces.
type Resolver interface {
	GetFunction(module, field string) HostFunction
}

// Option configures the execution policy NewVM instantiates with.
type Option func(*runtime.ExecutionPolicy)

// WithMaxCallStackDepth overrides the default 512-deep call stack cap.
func WithMaxCallStackDepth(depth int) Option {
	return func(p *runtime.ExecutionPolicy) { p.MaxCallStackDepth = depth }
}

// WithMaxMemoryPages caps how far any memory in the module may Grow.
func WithMaxMemoryPages(pages uint32) Option {
	return func(p *runtime.ExecutionPolicy) { p.MaxMemorySize = pages }
}

// WithAlignmentEnforced turns load/store alignment hints into hard traps.
func WithAlignmentEnforced() Option {
	return func(p *runtime.ExecutionPolicy) { p.EnforceAlignment = true }
}

// WithTrace enables per-function-entry execution logging via tracelog.
func WithTrace() Option {
	return func(p *runtime.ExecutionPolicy) { p.Trace = true }
}

// NewVM decodes code as a Wasm module and instantiates it, resolving its
// imports through resolver (may be nil for modules with no imports).
func NewVM(code []byte, resolver Resolver, opts ...Option) (*VM, error) {
	module, err := wasm.ReadModule(code)
	if err != nil {
		return nil, err
	}

	var policy runtime.ExecutionPolicy
	for _, opt := range opts {
		opt(&policy)
	}

	v := &VM{module: module}
	importer := &resolverImporter{vm: v, resolver: resolver}
	instance, err := runtime.Instantiate(module, importer, interp.NewEngine(), policy)
	if err != nil {
		return nil, err
	}
	v.instance = instance
	return v, nil
}

// Invoke calls the exported function name with args, converting each
// argument to the declared parameter type's bit pattern and converting the
// single result (if any) back to uint64 for the caller.
func (v *VM) Invoke(name string, args ...uint64) (uint64, error) {
	sig, ok := v.exportSignature(name)
	if !ok {
		return 0, fmt.Errorf("vm: %w %q", ErrFuncNotFound, name)
	}
	if len(args) != len(sig.Params) {
		return 0, fmt.Errorf("vm: %w: %q expects %d, got %d", ErrWrongNumberOfArgs, name, len(sig.Params), len(args))
	}
	values := make([]runtime.Value, len(args))
	for i, a := range args {
		values[i] = runtime.ValueFromBits(sig.Params[i], a)
	}
	results, err := v.instance.Invoke(name, values)
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Bits(), nil
}

// exportSignature looks up an exported function's declared signature
// without invoking it, used by Invoke to validate arity/types up front.
func (v *VM) exportSignature(name string) (wasm.FuncType, bool) {
	es := v.module.ExportSection()
	if es == nil {
		return wasm.FuncType{}, false
	}
	for _, entry := range es.Entries {
		if entry.Kind == wasm.ExternalFunction && entry.Name == name {
			sig, err := v.module.FuncType(funcTypeIndex(v.module, entry.Index))
			if err != nil {
				return wasm.FuncType{}, false
			}
			return sig, true
		}
	}
	return wasm.FuncType{}, false
}

// funcTypeIndex resolves a function index (imports first, then defined
// functions) to its type-section index, mirroring the index-space
// convention Instantiate itself follows.
func funcTypeIndex(m *wasm.Module, funcIndex uint32) uint32 {
	importedFuncs := uint32(0)
	if is := m.ImportSection(); is != nil {
		for _, entry := range is.Entries {
			if entry.Kind == wasm.ExternalFunction {
				if importedFuncs == funcIndex {
					return entry.FuncTypeIndex
				}
				importedFuncs++
			}
		}
	}
	if fs := m.FunctionSection(); fs != nil {
		definedIndex := funcIndex - importedFuncs
		if int(definedIndex) < len(fs.TypeIndices) {
			return fs.TypeIndices[definedIndex]
		}
	}
	return 0
}

// GetMemory returns a slice aliasing the instance's first memory (not a
// copy), or nil if it declares none.
func (v *VM) GetMemory() []byte {
	mem := v.instance.Memory()
	if mem == nil {
		return nil
	}
	b, _ := mem.Slice(0, mem.Size())
	return b
}

// ExtendMemory grows the instance's first memory by the given number of
// pages, returning the previous page count or -1 if the growth would
// exceed the memory's maximum.
func (v *VM) ExtendMemory(pages uint32) int32 {
	mem := v.instance.Memory()
	if mem == nil {
		return -1
	}
	return mem.Grow(pages)
}

// GetFunctionIndex reports whether name is exported as a function and, if
// so, its index in the function index space.
func (v *VM) GetFunctionIndex(name string) (uint32, bool) {
	es := v.module.ExportSection()
	if es == nil {
		return 0, false
	}
	for _, entry := range es.Entries {
		if entry.Kind == wasm.ExternalFunction && entry.Name == name {
			return entry.Index, true
		}
	}
	return 0, false
}

// Instance exposes the underlying runtime.ModuleInstance for callers that
// need lower-level access (globals, tables, re-entrant invocation from a
// host function).
func (v *VM) Instance() *runtime.ModuleInstance { return v.instance }

// resolverImporter adapts a Resolver's module/field-named HostFunctions
// into runtime.Importer, the boundary the instantiation pipeline expects.
// It only satisfies function imports: a module importing a global, memory,
// or table has nothing to link against in this facade, just as the
// teacher's Resolver only ever supplied host functions.
type resolverImporter struct {
	vm       *VM
	resolver Resolver
}

func (r *resolverImporter) ImportFunction(desc runtime.ImportFunctionDesc) *runtime.FunctionDefinition {
	if r.resolver == nil {
		return nil
	}
	hostFn := r.resolver.GetFunction(desc.Module, desc.Field)
	if hostFn == nil {
		return nil
	}
	sig := desc.Signature
	return runtime.NewDelegateFunction(sig, func(inst *runtime.ModuleInstance, args []runtime.Value) ([]runtime.Value, error) {
		raw := make([]uint64, len(args))
		for i, a := range args {
			raw[i] = a.Bits()
		}
		result, err := hostFn(r.vm, raw...)
		if err != nil {
			return nil, err
		}
		if len(sig.Results) == 0 {
			return nil, nil
		}
		return []runtime.Value{runtime.ValueFromBits(sig.Results[0], result)}, nil
	})
}

func (r *resolverImporter) ImportGlobal(desc runtime.ImportGlobalDesc) *runtime.Variable { return nil }

func (r *resolverImporter) ImportMemory(desc runtime.ImportMemoryDesc) *runtime.LinearMemory {
	return nil
}

func (r *resolverImporter) ImportTable(desc runtime.ImportTableDesc) *runtime.FunctionTable {
	return nil
}
