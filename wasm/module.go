// Package wasm implements a bidirectional codec for the WebAssembly MVP
// binary module format: decoding a byte stream into a Module and encoding a
// Module back into bytes that match byte-for-byte when the source was
// already in canonical form.
//
// https://webassembly.github.io/spec/core/binary/modules.html
package wasm

import (
	"errors"
	"fmt"

	"github.com/vertexdlt/wasmvm/util"
)

// Magic is the 4-byte Wasm header ('\0asm').
const Magic uint32 = 0x6d736100

// Version is the MVP binary format version.
const Version uint32 = 0x1

// PreMVPVersion is the pre-MVP binary format version some older tooling
// still emits; ReadModule accepts it alongside Version, and WriteModule
// preserves whichever one a decoded module carries.
const PreMVPVersion uint32 = 0x0D

// Module is a decoded Wasm module: its version plus every section in wire
// order. Sections are kept in a single ordered slice, rather than one named
// field per kind, so that custom sections interleaved between non-custom
// ones round-trip in their original position and so repeated custom
// sections (legal on the wire) are never silently dropped.
type Module struct {
	Version  uint32
	Sections []Section
}

// NewModule returns an empty module at the current binary format version.
func NewModule() *Module {
	return &Module{Version: Version}
}

// ReadModule decodes a complete Wasm binary module from b.
func ReadModule(b []byte) (*Module, error) {
	r := util.NewByteReader(b)
	magicBytes, err := r.Read(4)
	if err != nil {
		return nil, fmt.Errorf("wasm: %w", err)
	}
	magic := uint32(magicBytes[0]) | uint32(magicBytes[1])<<8 | uint32(magicBytes[2])<<16 | uint32(magicBytes[3])<<24
	if magic != Magic {
		return nil, errors.New("wasm: invalid magic number")
	}

	versionBytes, err := r.Read(4)
	if err != nil {
		return nil, fmt.Errorf("wasm: %w", err)
	}
	version := uint32(versionBytes[0]) | uint32(versionBytes[1])<<8 | uint32(versionBytes[2])<<16 | uint32(versionBytes[3])<<24
	if version != Version && version != PreMVPVersion {
		return nil, fmt.Errorf("wasm: unsupported version %d", version)
	}

	m := &Module{Version: version}
	var lastNonCustom SectionID = SectionCustom
	for r.Remaining() > 0 {
		idByte, err := r.PeekOne()
		if err != nil {
			return nil, fmt.Errorf("wasm: %w", err)
		}
		id := SectionID(idByte)
		if id != SectionCustom {
			if id <= lastNonCustom {
				return nil, fmt.Errorf("wasm: section id %d out of order (must be strictly ascending, excluding custom sections)", id)
			}
			lastNonCustom = id
		}
		sec, err := decodeSection(r)
		if err != nil {
			return nil, err
		}
		m.Sections = append(m.Sections, sec)
	}
	return m, nil
}

// WriteModule encodes m back into a complete Wasm binary module, in
// whatever section order Sections currently holds.
func WriteModule(m *Module) []byte {
	out := make([]byte, 0, 64)
	out = append(out, byte(Magic), byte(Magic>>8), byte(Magic>>16), byte(Magic>>24))
	out = append(out, byte(m.Version), byte(m.Version>>8), byte(m.Version>>16), byte(m.Version>>24))
	for _, sec := range m.Sections {
		out = append(out, encodeSection(sec)...)
	}
	return out
}

// section returns the first section of the given id, or nil if absent.
func (m *Module) section(id SectionID) Section {
	for _, s := range m.Sections {
		if s.ID() == id {
			return s
		}
	}
	return nil
}

// TypeSection returns the module's type section, or nil if it has none.
func (m *Module) TypeSection() *TypeSection {
	if s, ok := m.section(SectionType).(*TypeSection); ok {
		return s
	}
	return nil
}

// ImportSection returns the module's import section, or nil if it has none.
func (m *Module) ImportSection() *ImportSection {
	if s, ok := m.section(SectionImport).(*ImportSection); ok {
		return s
	}
	return nil
}

// FunctionSection returns the module's function section, or nil if it has
// none.
func (m *Module) FunctionSection() *FunctionSection {
	if s, ok := m.section(SectionFunction).(*FunctionSection); ok {
		return s
	}
	return nil
}

// TableSection returns the module's table section, or nil if it has none.
func (m *Module) TableSection() *TableSection {
	if s, ok := m.section(SectionTable).(*TableSection); ok {
		return s
	}
	return nil
}

// MemorySection returns the module's memory section, or nil if it has none.
func (m *Module) MemorySection() *MemorySection {
	if s, ok := m.section(SectionMemory).(*MemorySection); ok {
		return s
	}
	return nil
}

// GlobalSection returns the module's global section, or nil if it has none.
func (m *Module) GlobalSection() *GlobalSection {
	if s, ok := m.section(SectionGlobal).(*GlobalSection); ok {
		return s
	}
	return nil
}

// ExportSection returns the module's export section, or nil if it has none.
func (m *Module) ExportSection() *ExportSection {
	if s, ok := m.section(SectionExport).(*ExportSection); ok {
		return s
	}
	return nil
}

// StartSection returns the module's start section, or nil if it has none.
func (m *Module) StartSection() *StartSection {
	if s, ok := m.section(SectionStart).(*StartSection); ok {
		return s
	}
	return nil
}

// ElementSection returns the module's element section, or nil if it has
// none.
func (m *Module) ElementSection() *ElementSection {
	if s, ok := m.section(SectionElement).(*ElementSection); ok {
		return s
	}
	return nil
}

// CodeSection returns the module's code section, or nil if it has none.
func (m *Module) CodeSection() *CodeSection {
	if s, ok := m.section(SectionCode).(*CodeSection); ok {
		return s
	}
	return nil
}

// DataSection returns the module's data section, or nil if it has none.
func (m *Module) DataSection() *DataSection {
	if s, ok := m.section(SectionData).(*DataSection); ok {
		return s
	}
	return nil
}

// CustomSections returns every custom section, in their original wire
// order (there may be more than one, and the format permits the same name
// to repeat).
func (m *Module) CustomSections() []*CustomSection {
	var out []*CustomSection
	for _, s := range m.Sections {
		if cs, ok := s.(*CustomSection); ok {
			out = append(out, cs)
		}
	}
	return out
}

// UnknownSections returns every section whose id this codec doesn't
// recognize, in their original wire order.
func (m *Module) UnknownSections() []*UnknownSection {
	var out []*UnknownSection
	for _, s := range m.Sections {
		if us, ok := s.(*UnknownSection); ok {
			out = append(out, us)
		}
	}
	return out
}

// insertionIndex returns the position in Sections at which a non-custom
// section of id id should be inserted to keep the non-custom sections in
// ascending id order, appending after any custom sections that already sit
// at that point.
func (m *Module) insertionIndex(id SectionID) int {
	for i, s := range m.Sections {
		if s.ID() != SectionCustom && s.ID() > id {
			return i
		}
	}
	return len(m.Sections)
}

// setSection replaces the first existing section of sec's id, or inserts
// sec in ascending-id order if the module has none yet.
func (m *Module) setSection(sec Section) {
	for i, s := range m.Sections {
		if s.ID() == sec.ID() {
			m.Sections[i] = sec
			return
		}
	}
	idx := m.insertionIndex(sec.ID())
	m.Sections = append(m.Sections, nil)
	copy(m.Sections[idx+1:], m.Sections[idx:])
	m.Sections[idx] = sec
}

// AddCustomSection appends a custom section at the end of the module (the
// binary format allows custom sections anywhere, and appending at the end
// is always legal).
func (m *Module) AddCustomSection(name string, payload []byte) {
	m.Sections = append(m.Sections, &CustomSection{Name: name, Payload: payload})
}

// SetTypeSection installs or replaces the module's type section.
func (m *Module) SetTypeSection(s *TypeSection) { m.setSection(s) }

// SetImportSection installs or replaces the module's import section.
func (m *Module) SetImportSection(s *ImportSection) { m.setSection(s) }

// SetFunctionSection installs or replaces the module's function section.
func (m *Module) SetFunctionSection(s *FunctionSection) { m.setSection(s) }

// SetTableSection installs or replaces the module's table section.
func (m *Module) SetTableSection(s *TableSection) { m.setSection(s) }

// SetMemorySection installs or replaces the module's memory section.
func (m *Module) SetMemorySection(s *MemorySection) { m.setSection(s) }

// SetGlobalSection installs or replaces the module's global section.
func (m *Module) SetGlobalSection(s *GlobalSection) { m.setSection(s) }

// SetExportSection installs or replaces the module's export section.
func (m *Module) SetExportSection(s *ExportSection) { m.setSection(s) }

// SetStartSection installs or replaces the module's start section.
func (m *Module) SetStartSection(s *StartSection) { m.setSection(s) }

// SetElementSection installs or replaces the module's element section.
func (m *Module) SetElementSection(s *ElementSection) { m.setSection(s) }

// SetCodeSection installs or replaces the module's code section.
func (m *Module) SetCodeSection(s *CodeSection) { m.setSection(s) }

// SetDataSection installs or replaces the module's data section.
func (m *Module) SetDataSection(s *DataSection) { m.setSection(s) }

// FunctionCount returns the number of functions the module defines itself
// (excluding imported functions), derived from the function section.
func (m *Module) FunctionCount() int {
	if fs := m.FunctionSection(); fs != nil {
		return len(fs.TypeIndices)
	}
	return 0
}

// FuncType looks up the signature of the typeIndex-th entry in the type
// section.
func (m *Module) FuncType(typeIndex uint32) (FuncType, error) {
	ts := m.TypeSection()
	if ts == nil || typeIndex >= uint32(len(ts.Types)) {
		return FuncType{}, fmt.Errorf("wasm: type index %d out of range", typeIndex)
	}
	return ts.Types[typeIndex], nil
}

// DecodeInstrs parses a raw function body or init-expr byte stream into a
// structured instruction tree, for disassembly or static inspection. The
// interpreter never calls this: it executes Body directly.
func DecodeInstrs(body []byte) ([]Instr, error) {
	return decodeInstrs(util.NewByteReader(body))
}

// EncodeInstrs is the inverse of DecodeInstrs.
func EncodeInstrs(instrs []Instr) []byte {
	var out []byte
	for _, in := range instrs {
		out = encodeInstr(out, in)
	}
	return out
}
