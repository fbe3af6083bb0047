package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildAddModule hand-assembles the binary for a module exporting a single
// function `add(i32, i32) -> i32` that returns the sum of its two
// parameters, the same function vm_test.go's TestVMAdd builds.
func buildAddModule(t *testing.T) []byte {
	t.Helper()
	m := NewModule()
	m.SetTypeSection(&TypeSection{Types: []FuncType{
		{Params: []ValueType{ValueTypeI32, ValueTypeI32}, Results: []ValueType{ValueTypeI32}},
	}})
	m.SetFunctionSection(&FunctionSection{TypeIndices: []uint32{0}})
	body := EncodeInstrs([]Instr{
		{Op: OpLocalGet, U32: 0},
		{Op: OpLocalGet, U32: 1},
		{Op: OpI32Add},
		{Op: OpEnd},
	})
	m.SetCodeSection(&CodeSection{Bodies: []FunctionBody{{Body: body}}})
	m.SetExportSection(&ExportSection{Entries: []ExportEntry{
		{Name: "add", Kind: ExternalFunction, Index: 0},
	}})
	return WriteModule(m)
}

func TestReadModuleRoundTrip(t *testing.T) {
	raw := buildAddModule(t)
	m, err := ReadModule(raw)
	require.NoError(t, err)
	require.Equal(t, Version, m.Version)

	ts := m.TypeSection()
	require.NotNil(t, ts)
	require.Len(t, ts.Types, 1)
	require.Equal(t, []ValueType{ValueTypeI32, ValueTypeI32}, ts.Types[0].Params)
	require.Equal(t, []ValueType{ValueTypeI32}, ts.Types[0].Results)

	fs := m.FunctionSection()
	require.Equal(t, []uint32{0}, fs.TypeIndices)

	cs := m.CodeSection()
	require.Len(t, cs.Bodies, 1)
	instrs, err := DecodeInstrs(cs.Bodies[0].Body)
	require.NoError(t, err)
	require.Len(t, instrs, 4)
	require.Equal(t, OpI32Add, instrs[2].Op)

	es := m.ExportSection()
	require.Equal(t, "add", es.Entries[0].Name)
	require.Equal(t, ExternalFunction, es.Entries[0].Kind)

	// Re-encoding a freshly decoded module must reproduce the same bytes.
	require.Equal(t, raw, WriteModule(m))
}

func TestReadModuleRejectsBadMagic(t *testing.T) {
	_, err := ReadModule([]byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00})
	require.Error(t, err)
}

func TestReadModuleRejectsBadVersion(t *testing.T) {
	raw := []byte{0x00, 0x61, 0x73, 0x6d, 0x02, 0x00, 0x00, 0x00}
	_, err := ReadModule(raw)
	require.Error(t, err)
}

func TestReadModuleRejectsOutOfOrderSections(t *testing.T) {
	m := NewModule()
	m.Sections = []Section{
		&FunctionSection{TypeIndices: []uint32{0}},
		&TypeSection{Types: []FuncType{{}}},
	}
	raw := WriteModule(m)
	_, err := ReadModule(raw)
	require.Error(t, err)
}

func TestCustomSectionsRoundTripAndAreIgnoredForOrdering(t *testing.T) {
	m := NewModule()
	m.AddCustomSection("producers", []byte("hello"))
	m.SetTypeSection(&TypeSection{Types: []FuncType{{}}})
	m.AddCustomSection("name", []byte("world"))

	raw := WriteModule(m)
	decoded, err := ReadModule(raw)
	require.NoError(t, err)

	custom := decoded.CustomSections()
	require.Len(t, custom, 2)
	require.Equal(t, "producers", custom[0].Name)
	require.Equal(t, []byte("hello"), custom[0].Payload)
	require.Equal(t, "name", custom[1].Name)
	require.Equal(t, []byte("world"), custom[1].Payload)
}

func TestEmptyModuleRoundTrip(t *testing.T) {
	m := NewModule()
	raw := WriteModule(m)
	decoded, err := ReadModule(raw)
	require.NoError(t, err)
	require.Empty(t, decoded.Sections)
	require.Equal(t, raw, WriteModule(decoded))
}

func TestExtraPayloadRoundTrips(t *testing.T) {
	m := NewModule()
	m.SetTypeSection(&TypeSection{Types: []FuncType{{}}, Extra: []byte{0xAA, 0xBB}})

	raw := WriteModule(m)
	decoded, err := ReadModule(raw)
	require.NoError(t, err)
	require.Equal(t, []byte{0xAA, 0xBB}, decoded.TypeSection().Extra)
	require.Equal(t, raw, WriteModule(decoded))
}

func TestDataAndElementSegmentsDecode(t *testing.T) {
	m := NewModule()
	m.SetMemorySection(&MemorySection{Memories: []MemoryType{{Limits: Limits{Initial: 1}}}})
	offsetExpr := EncodeInstrs([]Instr{{Op: OpI32Const, I32: 4}, {Op: OpEnd}})
	m.SetDataSection(&DataSection{Segments: []DataSegment{
		{MemIndex: 0, Offset: offsetExpr, Init: []byte("hi")},
	}})
	m.SetTableSection(&TableSection{Tables: []TableType{{ElemType: ElemTypeFuncRef, Limits: Limits{Initial: 2}}}})
	m.SetElementSection(&ElementSection{Segments: []ElementSegment{
		{TableIndex: 0, Offset: offsetExpr, FuncIndices: []uint32{0, 1}},
	}})

	raw := WriteModule(m)
	decoded, err := ReadModule(raw)
	require.NoError(t, err)

	ds := decoded.DataSection()
	require.Equal(t, []byte("hi"), ds.Segments[0].Init)
	es := decoded.ElementSection()
	require.Equal(t, []uint32{0, 1}, es.Segments[0].FuncIndices)
}

func TestReadModuleAcceptsPreMVPVersion(t *testing.T) {
	raw := []byte{0x00, 0x61, 0x73, 0x6d, 0x0D, 0x00, 0x00, 0x00}
	m, err := ReadModule(raw)
	require.NoError(t, err)
	require.Equal(t, PreMVPVersion, m.Version)
	require.Equal(t, raw, WriteModule(m))
}

func TestUnknownSectionRoundTrips(t *testing.T) {
	m := NewModule()
	m.SetTypeSection(&TypeSection{Types: []FuncType{{}}})
	m.Sections = append(m.Sections, &UnknownSection{Code: 15, Payload: []byte{1, 2, 3}})

	raw := WriteModule(m)
	decoded, err := ReadModule(raw)
	require.NoError(t, err)

	unknown := decoded.UnknownSections()
	require.Len(t, unknown, 1)
	require.Equal(t, SectionID(15), unknown[0].Code)
	require.Equal(t, []byte{1, 2, 3}, unknown[0].Payload)
	require.Equal(t, raw, WriteModule(decoded))
}
