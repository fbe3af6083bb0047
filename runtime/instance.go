package runtime

import (
	"fmt"

	"github.com/vertexdlt/wasmvm/internal/wasmerr"
	"github.com/vertexdlt/wasmvm/wasm"
)

// ModuleInstance owns every live object a module instantiates into: its
// memories, tables, globals, and function definitions (each index space
// holding imports first, then the module's own defined entities, matching
// Wasm's index-space convention), plus the name-indexed export maps and a
// reference to the interpreter and policy used to run it.
type ModuleInstance struct {
	types []wasm.FuncType

	functions []*FunctionDefinition
	globals   []*Variable
	memories  []*LinearMemory
	tables    []*FunctionTable

	exportedFunctions map[string]*FunctionDefinition
	exportedGlobals   map[string]*Variable
	exportedMemories  map[string]*LinearMemory
	exportedTables    map[string]*FunctionTable

	interp Interpreter
	policy ExecutionPolicy
}

// Memory returns the instance's first memory (the MVP allows at most
// one), or nil if it has none.
func (mi *ModuleInstance) Memory() *LinearMemory {
	if len(mi.memories) == 0 {
		return nil
	}
	return mi.memories[0]
}

// Table returns the instance's first table, or nil if it has none.
func (mi *ModuleInstance) Table() *FunctionTable {
	if len(mi.tables) == 0 {
		return nil
	}
	return mi.tables[0]
}

// Global returns the instance's index-th global.
func (mi *ModuleInstance) Global(index uint32) *Variable { return mi.globals[index] }

// Function returns the instance's index-th function (imports first, then
// defined functions, per the index-space convention).
func (mi *ModuleInstance) Function(index uint32) *FunctionDefinition { return mi.functions[index] }

// FuncType looks up a declared signature by type index.
func (mi *ModuleInstance) FuncType(index uint32) wasm.FuncType { return mi.types[index] }

// Policy returns the instance's execution policy.
func (mi *ModuleInstance) Policy() ExecutionPolicy { return mi.policy }

// Invoke looks up an exported function by name and invokes it with args,
// starting a fresh top-level call (callerDepth 0).
func (mi *ModuleInstance) Invoke(name string, args []Value) ([]Value, error) {
	fn, ok := mi.exportedFunctions[name]
	if !ok {
		return nil, fmt.Errorf("runtime: no exported function %q", name)
	}
	return fn.Invoke(0, args)
}

// ExportedGlobal looks up an exported global by name.
func (mi *ModuleInstance) ExportedGlobal(name string) (*Variable, bool) {
	g, ok := mi.exportedGlobals[name]
	return g, ok
}

// ExportedMemory looks up an exported memory by name.
func (mi *ModuleInstance) ExportedMemory(name string) (*LinearMemory, bool) {
	m, ok := mi.exportedMemories[name]
	return m, ok
}

// Instantiate builds a ModuleInstance from module, resolving its imports
// through importer and wiring interp/policy for later execution. It
// follows spec.md §4.5's eight ordered steps exactly.
func Instantiate(module *wasm.Module, importer Importer, interp Interpreter, policy ExecutionPolicy) (*ModuleInstance, error) {
	mi := &ModuleInstance{
		interp:            interp,
		policy:            policy,
		exportedFunctions: make(map[string]*FunctionDefinition),
		exportedGlobals:   make(map[string]*Variable),
		exportedMemories:  make(map[string]*LinearMemory),
		exportedTables:    make(map[string]*FunctionTable),
	}

	// Step 1: concatenated function-signature table from all Type sections.
	for _, sec := range module.Sections {
		if ts, ok := sec.(*wasm.TypeSection); ok {
			mi.types = append(mi.types, ts.Types...)
		}
	}

	// Step 2: resolve imports in declaration order, prepending each kind's
	// resolved entity to its index space.
	if is := module.ImportSection(); is != nil {
		for _, entry := range is.Entries {
			if err := resolveImport(mi, importer, entry); err != nil {
				return nil, err
			}
		}
	}

	// Step 3: defined globals, evaluated against the partial instance (only
	// imports and prior-defined globals are visible).
	if gs := module.GlobalSection(); gs != nil {
		for _, g := range gs.Globals {
			v, err := evalConstExpr(mi, g.Init, g.Type.ValueType)
			if err != nil {
				return nil, err
			}
			mi.globals = append(mi.globals, NewVariable(g.Type.ValueType, g.Type.Mutability, v))
		}
	}

	// Step 4: defined linear memories, then apply data segments.
	if ms := module.MemorySection(); ms != nil {
		for _, mt := range ms.Memories {
			mem, err := NewLinearMemory(mt.Limits.Initial, mt.Limits.Maximum, mt.Limits.HasMax, policy.MaxMemorySize)
			if err != nil {
				return nil, err
			}
			mi.memories = append(mi.memories, mem)
		}
	}
	if ds := module.DataSection(); ds != nil {
		for _, seg := range ds.Segments {
			if int(seg.MemIndex) >= len(mi.memories) {
				return nil, fmt.Errorf("runtime: data segment references undefined memory %d", seg.MemIndex)
			}
			offsetVal, err := evalConstExpr(mi, seg.Offset, wasm.ValueTypeI32)
			if err != nil {
				return nil, err
			}
			offset := uint64(uint32(offsetVal.I32()))
			if err := mi.memories[seg.MemIndex].CopyIn(offset, seg.Init); err != nil {
				return nil, err
			}
		}
	}

	// Step 5: defined functions, pairing Function-section type indices with
	// Code-section bodies.
	fs := module.FunctionSection()
	cs := module.CodeSection()
	if fs != nil {
		bodyCount := 0
		if cs != nil {
			bodyCount = len(cs.Bodies)
		}
		if len(fs.TypeIndices) != bodyCount {
			return nil, fmt.Errorf("runtime: function section has %d entries but code section has %d bodies", len(fs.TypeIndices), bodyCount)
		}
		for i, typeIdx := range fs.TypeIndices {
			if int(typeIdx) >= len(mi.types) {
				return nil, fmt.Errorf("runtime: function %d references undefined type %d", i, typeIdx)
			}
			mi.functions = append(mi.functions, NewInterpretedFunction(mi.types[typeIdx], cs.Bodies[i].Locals, cs.Bodies[i].Body, mi))
		}
	}

	// Step 6: defined tables, then apply element segments.
	if ts := module.TableSection(); ts != nil {
		for _, tt := range ts.Tables {
			mi.tables = append(mi.tables, NewFunctionTable(tt.Limits.Initial))
		}
	}
	if es := module.ElementSection(); es != nil {
		for _, seg := range es.Segments {
			if int(seg.TableIndex) >= len(mi.tables) {
				return nil, fmt.Errorf("runtime: element segment references undefined table %d", seg.TableIndex)
			}
			offsetVal, err := evalConstExpr(mi, seg.Offset, wasm.ValueTypeI32)
			if err != nil {
				return nil, err
			}
			base := uint32(offsetVal.I32())
			table := mi.tables[seg.TableIndex]
			for i, funcIdx := range seg.FuncIndices {
				if int(funcIdx) >= len(mi.functions) {
					return nil, fmt.Errorf("runtime: element segment references undefined function %d", funcIdx)
				}
				if err := table.Set(base+uint32(i), mi.functions[funcIdx]); err != nil {
					return nil, err
				}
			}
		}
	}

	// Step 7: register exports by kind.
	if es := module.ExportSection(); es != nil {
		for _, entry := range es.Entries {
			switch entry.Kind {
			case wasm.ExternalFunction:
				mi.exportedFunctions[entry.Name] = mi.functions[entry.Index]
			case wasm.ExternalGlobal:
				mi.exportedGlobals[entry.Name] = mi.globals[entry.Index]
			case wasm.ExternalMemory:
				mi.exportedMemories[entry.Name] = mi.memories[entry.Index]
			case wasm.ExternalTable:
				mi.exportedTables[entry.Name] = mi.tables[entry.Index]
			}
		}
	}

	// Step 8: invoke the start function, if any, before returning control.
	if ss := module.StartSection(); ss != nil {
		if int(ss.FuncIndex) >= len(mi.functions) {
			return nil, fmt.Errorf("runtime: start section references undefined function %d", ss.FuncIndex)
		}
		if _, err := mi.functions[ss.FuncIndex].Invoke(0, nil); err != nil {
			return nil, err
		}
	}

	return mi, nil
}

func resolveImport(mi *ModuleInstance, importer Importer, entry wasm.ImportEntry) error {
	switch entry.Kind {
	case wasm.ExternalFunction:
		if int(entry.FuncTypeIndex) >= len(mi.types) {
			return fmt.Errorf("runtime: import %s.%s references undefined type %d", entry.Module, entry.Field, entry.FuncTypeIndex)
		}
		sig := mi.types[entry.FuncTypeIndex]
		fn := importer.ImportFunction(ImportFunctionDesc{Module: entry.Module, Field: entry.Field, Signature: sig})
		if fn == nil {
			return &wasmerr.LinkError{Module: entry.Module, Field: entry.Field, Kind: byte(entry.Kind), Reason: "function import not satisfied"}
		}
		mi.functions = append(mi.functions, fn)
	case wasm.ExternalGlobal:
		g := importer.ImportGlobal(ImportGlobalDesc{Module: entry.Module, Field: entry.Field, Type: entry.Global})
		if g == nil {
			return &wasmerr.LinkError{Module: entry.Module, Field: entry.Field, Kind: byte(entry.Kind), Reason: "global import not satisfied"}
		}
		mi.globals = append(mi.globals, g)
	case wasm.ExternalMemory:
		m := importer.ImportMemory(ImportMemoryDesc{Module: entry.Module, Field: entry.Field, Type: entry.Memory})
		if m == nil {
			return &wasmerr.LinkError{Module: entry.Module, Field: entry.Field, Kind: byte(entry.Kind), Reason: "memory import not satisfied"}
		}
		mi.memories = append(mi.memories, m)
	case wasm.ExternalTable:
		t := importer.ImportTable(ImportTableDesc{Module: entry.Module, Field: entry.Field, Type: entry.Table})
		if t == nil {
			return &wasmerr.LinkError{Module: entry.Module, Field: entry.Field, Kind: byte(entry.Kind), Reason: "table import not satisfied"}
		}
		mi.tables = append(mi.tables, t)
	default:
		return fmt.Errorf("runtime: unknown import kind %d", entry.Kind)
	}
	return nil
}

// evalConstExpr evaluates a constant initializer expression (a single
// *.const instruction or a global.get of an already-resolved global,
// terminated by end) against the partially-built instance. MVP constant
// expressions never branch or call, so this does not need the full
// interpreter.
func evalConstExpr(mi *ModuleInstance, body []byte, expect wasm.ValueType) (Value, error) {
	instrs, err := wasm.DecodeInstrs(body)
	if err != nil {
		return Value{}, fmt.Errorf("runtime: malformed initializer expression: %w", err)
	}
	if len(instrs) == 0 || instrs[0].Op == wasm.OpEnd {
		return Value{}, fmt.Errorf("runtime: empty initializer expression")
	}
	in := instrs[0]
	var v Value
	switch in.Op {
	case wasm.OpI32Const:
		v = I32(in.I32)
	case wasm.OpI64Const:
		v = I64(in.I64)
	case wasm.OpF32Const:
		v = F32(in.F32)
	case wasm.OpF64Const:
		v = F64(in.F64)
	case wasm.OpGlobalGet:
		if int(in.U32) >= len(mi.globals) {
			return Value{}, fmt.Errorf("runtime: initializer expression references undefined global %d", in.U32)
		}
		v = mi.globals[in.U32].Get()
	default:
		return Value{}, fmt.Errorf("runtime: unsupported initializer expression opcode 0x%02x", in.Op)
	}
	if v.Type != expect {
		return Value{}, fmt.Errorf("runtime: initializer expression type %s does not match expected %s", v.Type, expect)
	}
	return v, nil
}
