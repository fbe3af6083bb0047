package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertexdlt/wasmvm/leb128"
	"github.com/vertexdlt/wasmvm/wasm"
)

// buildModule assembles a minimal module from a signature list, one
// function body per signature (in order), and an export name per
// function. Tests build modules by hand, writing raw instruction bytes
// directly, the way the interpreter itself walks a function body: no
// wat2wasm toolchain dependency, matching the teacher's preference for
// self-contained Go test fixtures over external tooling wherever the test
// doesn't specifically need to exercise the text format.
func buildModule(types []wasm.FuncType, bodies []wasm.FunctionBody, exports map[string]int) *wasm.Module {
	m := wasm.NewModule()
	m.SetTypeSection(&wasm.TypeSection{Types: types})

	typeIndices := make([]uint32, len(bodies))
	for i := range bodies {
		typeIndices[i] = uint32(i)
	}
	m.SetFunctionSection(&wasm.FunctionSection{TypeIndices: typeIndices})
	m.SetCodeSection(&wasm.CodeSection{Bodies: bodies})

	if len(exports) > 0 {
		es := &wasm.ExportSection{}
		for name, idx := range exports {
			es.Entries = append(es.Entries, wasm.ExportEntry{Name: name, Kind: wasm.ExternalFunction, Index: uint32(idx)})
		}
		m.SetExportSection(es)
	}
	return m
}

func i32i32ToI32() wasm.FuncType {
	return wasm.FuncType{Params: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}}
}

func i32ToI32() wasm.FuncType {
	return wasm.FuncType{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}}
}

func TestVMAdd(t *testing.T) {
	body := []byte{
		byte(wasm.OpLocalGet), 0x00,
		byte(wasm.OpLocalGet), 0x01,
		byte(wasm.OpI32Add),
		byte(wasm.OpEnd),
	}
	module := buildModule(
		[]wasm.FuncType{i32i32ToI32()},
		[]wasm.FunctionBody{{Body: body}},
		map[string]int{"add": 0},
	)

	v, err := NewVM(wasm.WriteModule(module), nil)
	require.NoError(t, err)

	result, err := v.Invoke("add", 17, 25)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), result)
}

// TestVMFactorial computes n! with an explicit loop/br_if, exercising the
// interpreter's break-depth propagation through a nested loop-inside-block
// and the loop-restart path in handleBlockEnd.
func TestVMFactorial(t *testing.T) {
	body := []byte{
		byte(wasm.OpI32Const), 0x01,
		byte(wasm.OpLocalSet), 0x01, // result = 1
		byte(wasm.OpI32Const), 0x01,
		byte(wasm.OpLocalSet), 0x02, // i = 1

		byte(wasm.OpBlock), 0x40, // block (empty), label depth 1
		byte(wasm.OpLoop), 0x40, // loop (empty), label depth 0

		byte(wasm.OpLocalGet), 0x02,
		byte(wasm.OpLocalGet), 0x00,
		byte(wasm.OpI32GtS),
		byte(wasm.OpBrIf), 0x01, // i > n: exit the block

		byte(wasm.OpLocalGet), 0x01,
		byte(wasm.OpLocalGet), 0x02,
		byte(wasm.OpI32Mul),
		byte(wasm.OpLocalSet), 0x01, // result *= i

		byte(wasm.OpLocalGet), 0x02,
		byte(wasm.OpI32Const), 0x01,
		byte(wasm.OpI32Add),
		byte(wasm.OpLocalSet), 0x02, // i += 1

		byte(wasm.OpBr), 0x00, // continue loop
		byte(wasm.OpEnd),      // end loop
		byte(wasm.OpEnd),      // end block

		byte(wasm.OpLocalGet), 0x01,
		byte(wasm.OpEnd),
	}
	fnBody := wasm.FunctionBody{
		Locals: []wasm.LocalEntry{{Count: 2, Type: wasm.ValueTypeI32}},
		Body:   body,
	}
	module := buildModule(
		[]wasm.FuncType{i32ToI32()},
		[]wasm.FunctionBody{fnBody},
		map[string]int{"factorial": 0},
	)

	v, err := NewVM(wasm.WriteModule(module), nil)
	require.NoError(t, err)

	result, err := v.Invoke("factorial", 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(120), result)

	result, err = v.Invoke("factorial", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result)
}

// TestVMDivideByZeroTraps exercises the trap path: division by zero must
// surface as an error, not a Go-level panic.
func TestVMDivideByZeroTraps(t *testing.T) {
	body := []byte{
		byte(wasm.OpLocalGet), 0x00,
		byte(wasm.OpLocalGet), 0x01,
		byte(wasm.OpI32DivS),
		byte(wasm.OpEnd),
	}
	module := buildModule(
		[]wasm.FuncType{i32i32ToI32()},
		[]wasm.FunctionBody{{Body: body}},
		map[string]int{"div": 0},
	)

	v, err := NewVM(wasm.WriteModule(module), nil)
	require.NoError(t, err)

	_, err = v.Invoke("div", 10, 0)
	require.Error(t, err)
}

// TestVMHostImport exercises a function import resolved through Resolver,
// mirroring the teacher's main.go Resolver pattern.
func TestVMHostImport(t *testing.T) {
	m := wasm.NewModule()
	m.SetTypeSection(&wasm.TypeSection{Types: []wasm.FuncType{i32i32ToI32()}})
	m.SetImportSection(&wasm.ImportSection{Entries: []wasm.ImportEntry{
		{Module: "env", Field: "add", Kind: wasm.ExternalFunction, FuncTypeIndex: 0},
	}})
	m.SetFunctionSection(&wasm.FunctionSection{TypeIndices: []uint32{0}})
	body := []byte{
		byte(wasm.OpLocalGet), 0x00,
		byte(wasm.OpLocalGet), 0x01,
		byte(wasm.OpCall), 0x00, // call imported "env.add" (index 0)
		byte(wasm.OpEnd),
	}
	m.SetCodeSection(&wasm.CodeSection{Bodies: []wasm.FunctionBody{{Body: body}}})
	m.SetExportSection(&wasm.ExportSection{Entries: []wasm.ExportEntry{
		{Name: "callAdd", Kind: wasm.ExternalFunction, Index: 1},
	}})

	resolver := stubResolver{"env": {"add": func(v *VM, args ...uint64) (uint64, error) {
		return uint64(int32(args[0]) + int32(args[1])), nil
	}}}

	v, err := NewVM(wasm.WriteModule(m), resolver)
	require.NoError(t, err)

	result, err := v.Invoke("callAdd", 3, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), result)
}

func TestVMInvokeUnknownExport(t *testing.T) {
	module := buildModule(nil, nil, nil)
	v, err := NewVM(wasm.WriteModule(module), nil)
	require.NoError(t, err)

	_, err = v.Invoke("nope")
	assert.ErrorIs(t, err, ErrFuncNotFound)
}

func TestVMInvokeWrongArity(t *testing.T) {
	body := []byte{byte(wasm.OpLocalGet), 0x00, byte(wasm.OpEnd)}
	module := buildModule(
		[]wasm.FuncType{i32ToI32()},
		[]wasm.FunctionBody{{Body: body}},
		map[string]int{"id": 0},
	)
	v, err := NewVM(wasm.WriteModule(module), nil)
	require.NoError(t, err)

	_, err = v.Invoke("id", 1, 2)
	assert.ErrorIs(t, err, ErrWrongNumberOfArgs)
}

type stubResolver map[string]map[string]HostFunction

func (s stubResolver) GetFunction(module, field string) HostFunction {
	return s[module][field]
}

// TestVMCallIndirectTypeMismatch builds a table whose sole element is a
// function of type (i32)->i32 and calls it through call_indirect declaring
// type ()->i32, exercising the trap precedence rule: the bounds check (the
// index is in range) passes, so the signature mismatch is what traps.
func TestVMCallIndirectTypeMismatch(t *testing.T) {
	m := wasm.NewModule()
	m.SetTypeSection(&wasm.TypeSection{Types: []wasm.FuncType{
		i32ToI32(), // type 0: callee's real signature
		{Results: []wasm.ValueType{wasm.ValueTypeI32}}, // type 1: what the call site declares
	}})
	m.SetFunctionSection(&wasm.FunctionSection{TypeIndices: []uint32{0, 1}})
	m.SetTableSection(&wasm.TableSection{Tables: []wasm.TableType{{Limits: wasm.Limits{Initial: 1}}}})
	m.SetElementSection(&wasm.ElementSection{Segments: []wasm.ElementSegment{
		{TableIndex: 0, Offset: constI32(0), FuncIndices: []uint32{0}},
	}})
	calleeBody := []byte{byte(wasm.OpLocalGet), 0x00, byte(wasm.OpEnd)}
	callerBody := []byte{
		byte(wasm.OpI32Const), 0x00, // table index 0
		byte(wasm.OpCallIndir), 0x01, 0x00, // declared type 1, reserved byte
		byte(wasm.OpEnd),
	}
	m.SetCodeSection(&wasm.CodeSection{Bodies: []wasm.FunctionBody{
		{Body: calleeBody},
		{Body: callerBody},
	}})
	m.SetExportSection(&wasm.ExportSection{Entries: []wasm.ExportEntry{
		{Name: "caller", Kind: wasm.ExternalFunction, Index: 1},
	}})

	v, err := NewVM(wasm.WriteModule(m), nil)
	require.NoError(t, err)

	_, err = v.Invoke("caller")
	require.Error(t, err)
}

// TestVMMemoryGrowCap exercises memory.grow's declared maximum: growing
// within the cap succeeds and returns the previous page count, growing
// past it returns -1 without trapping or mutating state.
func TestVMMemoryGrowCap(t *testing.T) {
	m := wasm.NewModule()
	m.SetMemorySection(&wasm.MemorySection{Memories: []wasm.MemoryType{
		{Limits: wasm.Limits{Initial: 1, Maximum: 2, HasMax: true}},
	}})
	m.SetTypeSection(&wasm.TypeSection{Types: []wasm.FuncType{i32ToI32()}})
	body := []byte{byte(wasm.OpLocalGet), 0x00, byte(wasm.OpMemoryGrow), 0x00, byte(wasm.OpEnd)}
	m.SetFunctionSection(&wasm.FunctionSection{TypeIndices: []uint32{0}})
	m.SetCodeSection(&wasm.CodeSection{Bodies: []wasm.FunctionBody{{Body: body}}})
	m.SetExportSection(&wasm.ExportSection{Entries: []wasm.ExportEntry{
		{Name: "grow", Kind: wasm.ExternalFunction, Index: 0},
	}})

	v, err := NewVM(wasm.WriteModule(m), nil)
	require.NoError(t, err)

	result, err := v.Invoke("grow", 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result, "growing within the cap returns the previous page count")

	result, err = v.Invoke("grow", 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xFFFFFFFF), result, "growing past the declared maximum returns -1, not a trap")
}

// TestVMDataSegmentOutOfBounds exercises instantiation failure when a data
// segment's offset plus length overruns the declared memory.
func TestVMDataSegmentOutOfBounds(t *testing.T) {
	m := wasm.NewModule()
	m.SetMemorySection(&wasm.MemorySection{Memories: []wasm.MemoryType{
		{Limits: wasm.Limits{Initial: 1}},
	}})
	m.SetDataSection(&wasm.DataSection{Segments: []wasm.DataSegment{
		{MemIndex: 0, Offset: constI32(65530), Init: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
	}})

	_, err := NewVM(wasm.WriteModule(m), nil)
	require.Error(t, err)
}

// constI32 encodes a constant i32 initializer expression (i32.const <v>
// end), the raw-bytes form GlobalEntry.Init/ElementSegment.Offset/
// DataSegment.Offset all expect.
func constI32(v int32) []byte {
	out := append([]byte{byte(wasm.OpI32Const)}, leb128.WriteVarInt32(v)...)
	return append(out, byte(wasm.OpEnd))
}
