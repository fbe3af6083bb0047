package runtime

import "github.com/vertexdlt/wasmvm/wasm"

// ImportFunctionDesc identifies a function import and the signature the
// importing module expects it to have.
type ImportFunctionDesc struct {
	Module, Field string
	Signature     wasm.FuncType
}

// ImportGlobalDesc identifies a global import and its expected type.
type ImportGlobalDesc struct {
	Module, Field string
	Type          wasm.GlobalType
}

// ImportMemoryDesc identifies a memory import and its expected (requested)
// limits.
type ImportMemoryDesc struct {
	Module, Field string
	Type          wasm.MemoryType
}

// ImportTableDesc identifies a table import and its expected (requested)
// limits.
type ImportTableDesc struct {
	Module, Field string
	Type          wasm.TableType
}

// Importer resolves a module's imports to live runtime objects. Each
// method returns nil to mean "not found", which Instantiate turns into a
// LinkError naming the unresolved (module, field, kind).
type Importer interface {
	ImportFunction(desc ImportFunctionDesc) *FunctionDefinition
	ImportGlobal(desc ImportGlobalDesc) *Variable
	ImportMemory(desc ImportMemoryDesc) *LinearMemory
	ImportTable(desc ImportTableDesc) *FunctionTable
}

// NamespaceImporter dispatches by module name to a per-namespace
// sub-importer, generalizing the teacher's main.go Resolver (which
// switched on `module == "env"` as its single case) to arbitrarily many
// namespaces.
type NamespaceImporter struct {
	namespaces map[string]Importer
}

// NewNamespaceImporter builds a NamespaceImporter from a module-name to
// sub-importer map.
func NewNamespaceImporter(namespaces map[string]Importer) *NamespaceImporter {
	return &NamespaceImporter{namespaces: namespaces}
}

func (n *NamespaceImporter) ImportFunction(desc ImportFunctionDesc) *FunctionDefinition {
	if ns, ok := n.namespaces[desc.Module]; ok {
		return ns.ImportFunction(desc)
	}
	return nil
}

func (n *NamespaceImporter) ImportGlobal(desc ImportGlobalDesc) *Variable {
	if ns, ok := n.namespaces[desc.Module]; ok {
		return ns.ImportGlobal(desc)
	}
	return nil
}

func (n *NamespaceImporter) ImportMemory(desc ImportMemoryDesc) *LinearMemory {
	if ns, ok := n.namespaces[desc.Module]; ok {
		return ns.ImportMemory(desc)
	}
	return nil
}

func (n *NamespaceImporter) ImportTable(desc ImportTableDesc) *FunctionTable {
	if ns, ok := n.namespaces[desc.Module]; ok {
		return ns.ImportTable(desc)
	}
	return nil
}

// ExportsImporter exposes one ModuleInstance's exports as another
// module's imports, applying the compatibility checks spec.md §4.6
// requires: memory/table imports only need initial >= requested; globals
// must match type and mutability exactly; functions must match signature
// exactly, value by value.
type ExportsImporter struct {
	instance *ModuleInstance
}

// NewExportsImporter wraps inst for use as another module's importer.
func NewExportsImporter(inst *ModuleInstance) *ExportsImporter {
	return &ExportsImporter{instance: inst}
}

func (e *ExportsImporter) ImportFunction(desc ImportFunctionDesc) *FunctionDefinition {
	fn, ok := e.instance.exportedFunctions[desc.Field]
	if !ok || !fn.Signature.Equal(desc.Signature) {
		return nil
	}
	return fn
}

func (e *ExportsImporter) ImportGlobal(desc ImportGlobalDesc) *Variable {
	g, ok := e.instance.exportedGlobals[desc.Field]
	if !ok || g.Type() != desc.Type.ValueType || g.Mutable() != (desc.Type.Mutability == wasm.Mutable) {
		return nil
	}
	return g
}

func (e *ExportsImporter) ImportMemory(desc ImportMemoryDesc) *LinearMemory {
	m, ok := e.instance.exportedMemories[desc.Field]
	if !ok || m.CurrentMemory() < desc.Type.Limits.Initial {
		return nil
	}
	return m
}

func (e *ExportsImporter) ImportTable(desc ImportTableDesc) *FunctionTable {
	t, ok := e.instance.exportedTables[desc.Field]
	if !ok || t.Count() < desc.Type.Limits.Initial {
		return nil
	}
	return t
}
