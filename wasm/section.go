package wasm

import (
	"fmt"
	"unicode/utf8"

	"github.com/vertexdlt/wasmvm/leb128"
	"github.com/vertexdlt/wasmvm/util"
)

// SectionID identifies one of the twelve binary-format section kinds.
type SectionID byte

const (
	SectionCustom   SectionID = 0
	SectionType     SectionID = 1
	SectionImport   SectionID = 2
	SectionFunction SectionID = 3
	SectionTable    SectionID = 4
	SectionMemory   SectionID = 5
	SectionGlobal   SectionID = 6
	SectionExport   SectionID = 7
	SectionStart    SectionID = 8
	SectionElement  SectionID = 9
	SectionCode     SectionID = 10
	SectionData     SectionID = 11
)

// Section is any of the twelve module sections, or an UnknownSection. The
// interface only reports the section id; decodeSection and encodePayload
// convert each concrete section type's payload, and encodeSection adds the
// (id, payload_length) framing.
type Section interface {
	ID() SectionID
}

// ExternalKind tags which of the four importable/exportable entities an
// import or export entry refers to.
type ExternalKind byte

const (
	ExternalFunction ExternalKind = 0x00
	ExternalTable    ExternalKind = 0x01
	ExternalMemory   ExternalKind = 0x02
	ExternalGlobal   ExternalKind = 0x03
)

func (k ExternalKind) String() string {
	switch k {
	case ExternalFunction:
		return "func"
	case ExternalTable:
		return "table"
	case ExternalMemory:
		return "memory"
	case ExternalGlobal:
		return "global"
	default:
		return fmt.Sprintf("external(%d)", byte(k))
	}
}

// CustomSection carries a name and an opaque payload. The codec does not
// interpret the payload of any custom section, including a "name" section;
// every payload is preserved byte-exact.
type CustomSection struct {
	Name    string
	Payload []byte
}

func (*CustomSection) ID() SectionID { return SectionCustom }

// TypeSection lists every distinct function signature used by the module.
type TypeSection struct {
	Types []FuncType
	Extra []byte
}

func (*TypeSection) ID() SectionID { return SectionType }

// ImportEntry is one imported function, table, memory, or global.
type ImportEntry struct {
	Module string
	Field  string
	Kind   ExternalKind

	FuncTypeIndex uint32
	Table         TableType
	Memory        MemoryType
	Global        GlobalType
}

// ImportSection lists every entity the module expects its host to provide.
type ImportSection struct {
	Entries []ImportEntry
	Extra   []byte
}

func (*ImportSection) ID() SectionID { return SectionImport }

// FunctionSection maps each module-defined function (in declaration order)
// to its signature in the type section.
type FunctionSection struct {
	TypeIndices []uint32
	Extra       []byte
}

func (*FunctionSection) ID() SectionID { return SectionFunction }

// TableSection declares the module's own tables (MVP: at most one).
type TableSection struct {
	Tables []TableType
	Extra  []byte
}

func (*TableSection) ID() SectionID { return SectionTable }

// MemorySection declares the module's own linear memories (MVP: at most
// one).
type MemorySection struct {
	Memories []MemoryType
	Extra    []byte
}

func (*MemorySection) ID() SectionID { return SectionMemory }

// GlobalEntry is one module-defined global: its type and a constant
// initializer expression (raw bytes, terminated by `end`).
type GlobalEntry struct {
	Type GlobalType
	Init []byte
}

// GlobalSection declares the module's own globals.
type GlobalSection struct {
	Globals []GlobalEntry
	Extra   []byte
}

func (*GlobalSection) ID() SectionID { return SectionGlobal }

// ExportEntry makes one function, table, memory, or global reachable by
// name from outside the module.
type ExportEntry struct {
	Name  string
	Kind  ExternalKind
	Index uint32
}

// ExportSection lists the module's exports, in declaration order (the
// order is preserved because two exports may legitimately share a name
// prefix and dump/inspection tools should show them as written).
type ExportSection struct {
	Entries []ExportEntry
	Extra   []byte
}

func (*ExportSection) ID() SectionID { return SectionExport }

// StartSection names the function index invoked automatically once
// instantiation completes.
type StartSection struct {
	FuncIndex uint32
	Extra     []byte
}

func (*StartSection) ID() SectionID { return SectionStart }

// ElementSegment initializes a slice of a table with function indices
// computed from a constant offset expression.
type ElementSegment struct {
	TableIndex uint32
	Offset     []byte
	FuncIndices []uint32
}

// ElementSection lists the module's table initializers.
type ElementSection struct {
	Segments []ElementSegment
	Extra    []byte
}

func (*ElementSection) ID() SectionID { return SectionElement }

// LocalEntry groups Count consecutive locals sharing Type, the function
// body's compact local-declaration encoding.
type LocalEntry struct {
	Count uint32
	Type  ValueType
}

// FunctionBody is one module-defined function's locals and instruction
// stream. Body is kept as raw bytes (not pre-decoded into []Instr) so a
// codec round-trip never has to reconstruct byte-identical output from a
// parsed form; the interpreter walks Body directly by instruction pointer.
type FunctionBody struct {
	Locals []LocalEntry
	Body   []byte
}

// CodeSection holds the function bodies, one per entry in the function
// section's TypeIndices, in the same order.
type CodeSection struct {
	Bodies []FunctionBody
	Extra  []byte
}

func (*CodeSection) ID() SectionID { return SectionCode }

// DataSegment initializes a slice of linear memory with raw bytes at a
// constant offset.
type DataSegment struct {
	MemIndex uint32
	Offset   []byte
	Init     []byte
}

// DataSection holds the module's memory initializers.
type DataSection struct {
	Segments []DataSegment
	Extra    []byte
}

func (*DataSection) ID() SectionID { return SectionData }

// UnknownSection preserves a non-custom section whose id the codec doesn't
// recognize (a future format extension, or a code this decoder simply
// doesn't implement yet). Code and Payload round-trip byte-exact; nothing
// in the payload is interpreted.
type UnknownSection struct {
	Code    SectionID
	Payload []byte
}

func (s *UnknownSection) ID() SectionID { return s.Code }

// decodeSection reads one section's (id, payload_length, payload) framing
// and dispatches to the matching payload decoder. ReadModule appends the
// returned Section to Module.Sections.
func decodeSection(r *util.ByteReader) (Section, error) {
	idByte, err := r.ReadOne()
	if err != nil {
		return nil, err
	}
	id := SectionID(idByte)

	length, err := leb128.ReadVarUint32(r)
	if err != nil {
		return nil, fmt.Errorf("wasm: section %d: %w", id, err)
	}
	payload, err := r.Read(length)
	if err != nil {
		return nil, fmt.Errorf("wasm: section %d: %w", id, err)
	}
	pr := util.NewByteReader(payload)

	var sec Section
	switch id {
	case SectionCustom:
		sec, err = decodeCustomSection(pr)
	case SectionType:
		sec, err = decodeTypeSection(pr)
	case SectionImport:
		sec, err = decodeImportSection(pr)
	case SectionFunction:
		sec, err = decodeFunctionSection(pr)
	case SectionTable:
		sec, err = decodeTableSection(pr)
	case SectionMemory:
		sec, err = decodeMemorySection(pr)
	case SectionGlobal:
		sec, err = decodeGlobalSection(pr)
	case SectionExport:
		sec, err = decodeExportSection(pr)
	case SectionStart:
		sec, err = decodeStartSection(pr)
	case SectionElement:
		sec, err = decodeElementSection(pr)
	case SectionCode:
		sec, err = decodeCodeSection(pr)
	case SectionData:
		sec, err = decodeDataSection(pr)
	default:
		// An unrecognized non-custom section code: preserve it opaquely
		// rather than rejecting the module outright, the same tolerance
		// a custom section already gets.
		sec = &UnknownSection{Code: id, Payload: append([]byte(nil), payload...)}
		pr.SetPos(pr.Len())
	}
	if err != nil {
		return nil, fmt.Errorf("wasm: section %d: %w", id, err)
	}
	// Bytes left over within the declared payload_length after the typed
	// decoder consumed its logical fields are preserved verbatim (extra
	// payload), not rejected, so round-tripping a file with trailing
	// padding or encoder quirks stays byte-exact.
	if extra := pr.CopyAll(); len(extra) != 0 {
		setExtra(sec, append([]byte(nil), extra...))
	}
	return sec, nil
}

// setExtra stashes trailing in-payload bytes on sec's Extra field. Custom
// sections have no such field: a custom section's entire payload past its
// name is already opaque. A function body's own trailing bytes live inside
// FunctionBody.Body; bytes after the last body land on CodeSection.Extra.
func setExtra(sec Section, extra []byte) {
	switch s := sec.(type) {
	case *TypeSection:
		s.Extra = extra
	case *ImportSection:
		s.Extra = extra
	case *FunctionSection:
		s.Extra = extra
	case *TableSection:
		s.Extra = extra
	case *MemorySection:
		s.Extra = extra
	case *GlobalSection:
		s.Extra = extra
	case *ExportSection:
		s.Extra = extra
	case *StartSection:
		s.Extra = extra
	case *ElementSection:
		s.Extra = extra
	case *CodeSection:
		s.Extra = extra
	case *DataSection:
		s.Extra = extra
	}
}

func decodeCustomSection(r *util.ByteReader) (*CustomSection, error) {
	name, err := leb128.ReadString(r)
	if err != nil {
		return nil, err
	}
	return &CustomSection{Name: name, Payload: append([]byte(nil), r.CopyAll()...)}, nil
}

func decodeName(r *util.ByteReader) (string, error) {
	b, err := leb128.ReadBytes(r)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("wasm: invalid utf-8 name")
	}
	return string(b), nil
}

func decodeLimits(r *util.ByteReader) (Limits, error) {
	flag, err := r.ReadOne()
	if err != nil {
		return Limits{}, err
	}
	initial, err := leb128.ReadVarUint32(r)
	if err != nil {
		return Limits{}, err
	}
	switch flag {
	case 0x00:
		return Limits{Initial: initial}, nil
	case 0x01:
		max, err := leb128.ReadVarUint32(r)
		if err != nil {
			return Limits{}, err
		}
		return Limits{Initial: initial, Maximum: max, HasMax: true}, nil
	default:
		return Limits{}, fmt.Errorf("wasm: invalid limits flag 0x%02x", flag)
	}
}

func encodeLimits(out []byte, l Limits) []byte {
	if l.HasMax {
		out = append(out, 0x01)
		out = append(out, leb128.WriteVarUint32(l.Initial)...)
		out = append(out, leb128.WriteVarUint32(l.Maximum)...)
		return out
	}
	out = append(out, 0x00)
	return append(out, leb128.WriteVarUint32(l.Initial)...)
}

func decodeTableType(r *util.ByteReader) (TableType, error) {
	elemType, err := r.ReadOne()
	if err != nil {
		return TableType{}, err
	}
	if elemType != ElemTypeFuncRef {
		return TableType{}, fmt.Errorf("wasm: invalid table element type 0x%02x", elemType)
	}
	limits, err := decodeLimits(r)
	if err != nil {
		return TableType{}, err
	}
	return TableType{ElemType: elemType, Limits: limits}, nil
}

func decodeGlobalType(r *util.ByteReader) (GlobalType, error) {
	vtByte, err := r.ReadOne()
	if err != nil {
		return GlobalType{}, err
	}
	vt, err := decodeValueType(vtByte)
	if err != nil {
		return GlobalType{}, err
	}
	mutByte, err := r.ReadOne()
	if err != nil {
		return GlobalType{}, err
	}
	if mutByte != byte(Immutable) && mutByte != byte(Mutable) {
		return GlobalType{}, fmt.Errorf("wasm: invalid mutability flag 0x%02x", mutByte)
	}
	return GlobalType{ValueType: vt, Mutability: Mutability(mutByte)}, nil
}

// decodeInitExpr reads a constant-expression byte stream up to and
// including its terminating `end` (0x0B), without interpreting it. Module
// instantiation evaluates it later, once globals are available to resolve
// global.get references.
func decodeInitExpr(r *util.ByteReader) ([]byte, error) {
	var out []byte
	for {
		b, err := r.ReadOne()
		if err != nil {
			return nil, fmt.Errorf("wasm: unterminated init expression: %w", err)
		}
		out = append(out, b)
		if b == byte(OpEnd) {
			return out, nil
		}
	}
}

func decodeTypeSection(r *util.ByteReader) (*TypeSection, error) {
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return nil, err
	}
	sec := &TypeSection{Types: make([]FuncType, count)}
	for i := range sec.Types {
		form, err := r.ReadOne()
		if err != nil {
			return nil, err
		}
		if form != FuncTypeForm {
			return nil, fmt.Errorf("wasm: invalid functype form byte 0x%02x", form)
		}
		paramCount, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		params := make([]ValueType, paramCount)
		for j := range params {
			b, err := r.ReadOne()
			if err != nil {
				return nil, err
			}
			if params[j], err = decodeValueType(b); err != nil {
				return nil, err
			}
		}
		resultCount, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		results := make([]ValueType, resultCount)
		for j := range results {
			b, err := r.ReadOne()
			if err != nil {
				return nil, err
			}
			if results[j], err = decodeValueType(b); err != nil {
				return nil, err
			}
		}
		sec.Types[i] = FuncType{Params: params, Results: results}
	}
	return sec, nil
}

func decodeImportSection(r *util.ByteReader) (*ImportSection, error) {
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return nil, err
	}
	sec := &ImportSection{Entries: make([]ImportEntry, count)}
	for i := range sec.Entries {
		mod, err := decodeName(r)
		if err != nil {
			return nil, err
		}
		field, err := decodeName(r)
		if err != nil {
			return nil, err
		}
		kindByte, err := r.ReadOne()
		if err != nil {
			return nil, err
		}
		entry := ImportEntry{Module: mod, Field: field, Kind: ExternalKind(kindByte)}
		switch entry.Kind {
		case ExternalFunction:
			entry.FuncTypeIndex, err = leb128.ReadVarUint32(r)
		case ExternalTable:
			entry.Table, err = decodeTableType(r)
		case ExternalMemory:
			entry.Memory.Limits, err = decodeLimits(r)
		case ExternalGlobal:
			entry.Global, err = decodeGlobalType(r)
		default:
			return nil, fmt.Errorf("wasm: invalid import kind 0x%02x", kindByte)
		}
		if err != nil {
			return nil, err
		}
		sec.Entries[i] = entry
	}
	return sec, nil
}

func decodeFunctionSection(r *util.ByteReader) (*FunctionSection, error) {
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return nil, err
	}
	sec := &FunctionSection{TypeIndices: make([]uint32, count)}
	for i := range sec.TypeIndices {
		if sec.TypeIndices[i], err = leb128.ReadVarUint32(r); err != nil {
			return nil, err
		}
	}
	return sec, nil
}

func decodeTableSection(r *util.ByteReader) (*TableSection, error) {
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return nil, err
	}
	sec := &TableSection{Tables: make([]TableType, count)}
	for i := range sec.Tables {
		if sec.Tables[i], err = decodeTableType(r); err != nil {
			return nil, err
		}
	}
	return sec, nil
}

func decodeMemorySection(r *util.ByteReader) (*MemorySection, error) {
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return nil, err
	}
	sec := &MemorySection{Memories: make([]MemoryType, count)}
	for i := range sec.Memories {
		limits, err := decodeLimits(r)
		if err != nil {
			return nil, err
		}
		sec.Memories[i] = MemoryType{Limits: limits}
	}
	return sec, nil
}

func decodeGlobalSection(r *util.ByteReader) (*GlobalSection, error) {
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return nil, err
	}
	sec := &GlobalSection{Globals: make([]GlobalEntry, count)}
	for i := range sec.Globals {
		gt, err := decodeGlobalType(r)
		if err != nil {
			return nil, err
		}
		init, err := decodeInitExpr(r)
		if err != nil {
			return nil, err
		}
		sec.Globals[i] = GlobalEntry{Type: gt, Init: init}
	}
	return sec, nil
}

func decodeExportSection(r *util.ByteReader) (*ExportSection, error) {
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return nil, err
	}
	sec := &ExportSection{Entries: make([]ExportEntry, count)}
	for i := range sec.Entries {
		name, err := decodeName(r)
		if err != nil {
			return nil, err
		}
		kindByte, err := r.ReadOne()
		if err != nil {
			return nil, err
		}
		if kindByte > byte(ExternalGlobal) {
			return nil, fmt.Errorf("wasm: invalid export kind 0x%02x", kindByte)
		}
		idx, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		sec.Entries[i] = ExportEntry{Name: name, Kind: ExternalKind(kindByte), Index: idx}
	}
	return sec, nil
}

func decodeStartSection(r *util.ByteReader) (*StartSection, error) {
	idx, err := leb128.ReadVarUint32(r)
	if err != nil {
		return nil, err
	}
	return &StartSection{FuncIndex: idx}, nil
}

func decodeElementSection(r *util.ByteReader) (*ElementSection, error) {
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return nil, err
	}
	sec := &ElementSection{Segments: make([]ElementSegment, count)}
	for i := range sec.Segments {
		tableIdx, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		offset, err := decodeInitExpr(r)
		if err != nil {
			return nil, err
		}
		fnCount, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		fns := make([]uint32, fnCount)
		for j := range fns {
			if fns[j], err = leb128.ReadVarUint32(r); err != nil {
				return nil, err
			}
		}
		sec.Segments[i] = ElementSegment{TableIndex: tableIdx, Offset: offset, FuncIndices: fns}
	}
	return sec, nil
}

func decodeCodeSection(r *util.ByteReader) (*CodeSection, error) {
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return nil, err
	}
	sec := &CodeSection{Bodies: make([]FunctionBody, count)}
	for i := range sec.Bodies {
		size, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		raw, err := r.Read(size)
		if err != nil {
			return nil, err
		}
		br := util.NewByteReader(raw)
		localCount, err := leb128.ReadVarUint32(br)
		if err != nil {
			return nil, err
		}
		locals := make([]LocalEntry, localCount)
		for j := range locals {
			cnt, err := leb128.ReadVarUint32(br)
			if err != nil {
				return nil, err
			}
			vtByte, err := br.ReadOne()
			if err != nil {
				return nil, err
			}
			vt, err := decodeValueType(vtByte)
			if err != nil {
				return nil, err
			}
			locals[j] = LocalEntry{Count: cnt, Type: vt}
		}
		sec.Bodies[i] = FunctionBody{Locals: locals, Body: append([]byte(nil), br.CopyAll()...)}
	}
	return sec, nil
}

func decodeDataSection(r *util.ByteReader) (*DataSection, error) {
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return nil, err
	}
	sec := &DataSection{Segments: make([]DataSegment, count)}
	for i := range sec.Segments {
		memIdx, err := leb128.ReadVarUint32(r)
		if err != nil {
			return nil, err
		}
		offset, err := decodeInitExpr(r)
		if err != nil {
			return nil, err
		}
		init, err := leb128.ReadBytes(r)
		if err != nil {
			return nil, err
		}
		sec.Segments[i] = DataSegment{MemIndex: memIdx, Offset: offset, Init: init}
	}
	return sec, nil
}

// encodeSection renders sec's (id, payload_length, payload) wire framing.
func encodeSection(sec Section) []byte {
	payload := encodePayload(sec)
	out := []byte{byte(sec.ID())}
	out = append(out, leb128.WriteVarUint32(uint32(len(payload)))...)
	return append(out, payload...)
}

func encodePayload(sec Section) []byte {
	var out []byte
	switch s := sec.(type) {
	case *CustomSection:
		out = append(out, leb128.WriteString(s.Name)...)
		out = append(out, s.Payload...)
	case *UnknownSection:
		out = append(out, s.Payload...)
	case *TypeSection:
		out = append(out, leb128.WriteVarUint32(uint32(len(s.Types)))...)
		for _, ft := range s.Types {
			out = append(out, FuncTypeForm)
			out = append(out, leb128.WriteVarUint32(uint32(len(ft.Params)))...)
			for _, p := range ft.Params {
				out = append(out, p.encode())
			}
			out = append(out, leb128.WriteVarUint32(uint32(len(ft.Results)))...)
			for _, rt := range ft.Results {
				out = append(out, rt.encode())
			}
		}
		out = append(out, s.Extra...)
	case *ImportSection:
		out = append(out, leb128.WriteVarUint32(uint32(len(s.Entries)))...)
		for _, e := range s.Entries {
			out = append(out, leb128.WriteString(e.Module)...)
			out = append(out, leb128.WriteString(e.Field)...)
			out = append(out, byte(e.Kind))
			switch e.Kind {
			case ExternalFunction:
				out = append(out, leb128.WriteVarUint32(e.FuncTypeIndex)...)
			case ExternalTable:
				out = append(out, e.Table.ElemType)
				out = encodeLimits(out, e.Table.Limits)
			case ExternalMemory:
				out = encodeLimits(out, e.Memory.Limits)
			case ExternalGlobal:
				out = append(out, e.Global.ValueType.encode(), byte(e.Global.Mutability))
			}
		}
		out = append(out, s.Extra...)
	case *FunctionSection:
		out = append(out, leb128.WriteVarUint32(uint32(len(s.TypeIndices)))...)
		for _, t := range s.TypeIndices {
			out = append(out, leb128.WriteVarUint32(t)...)
		}
		out = append(out, s.Extra...)
	case *TableSection:
		out = append(out, leb128.WriteVarUint32(uint32(len(s.Tables)))...)
		for _, t := range s.Tables {
			out = append(out, t.ElemType)
			out = encodeLimits(out, t.Limits)
		}
		out = append(out, s.Extra...)
	case *MemorySection:
		out = append(out, leb128.WriteVarUint32(uint32(len(s.Memories)))...)
		for _, m := range s.Memories {
			out = encodeLimits(out, m.Limits)
		}
		out = append(out, s.Extra...)
	case *GlobalSection:
		out = append(out, leb128.WriteVarUint32(uint32(len(s.Globals)))...)
		for _, g := range s.Globals {
			out = append(out, g.Type.ValueType.encode(), byte(g.Type.Mutability))
			out = append(out, g.Init...)
		}
		out = append(out, s.Extra...)
	case *ExportSection:
		out = append(out, leb128.WriteVarUint32(uint32(len(s.Entries)))...)
		for _, e := range s.Entries {
			out = append(out, leb128.WriteString(e.Name)...)
			out = append(out, byte(e.Kind))
			out = append(out, leb128.WriteVarUint32(e.Index)...)
		}
		out = append(out, s.Extra...)
	case *StartSection:
		out = append(out, leb128.WriteVarUint32(s.FuncIndex)...)
		out = append(out, s.Extra...)
	case *ElementSection:
		out = append(out, leb128.WriteVarUint32(uint32(len(s.Segments)))...)
		for _, seg := range s.Segments {
			out = append(out, leb128.WriteVarUint32(seg.TableIndex)...)
			out = append(out, seg.Offset...)
			out = append(out, leb128.WriteVarUint32(uint32(len(seg.FuncIndices)))...)
			for _, fi := range seg.FuncIndices {
				out = append(out, leb128.WriteVarUint32(fi)...)
			}
		}
		out = append(out, s.Extra...)
	case *CodeSection:
		out = append(out, leb128.WriteVarUint32(uint32(len(s.Bodies)))...)
		for _, body := range s.Bodies {
			var b []byte
			b = append(b, leb128.WriteVarUint32(uint32(len(body.Locals)))...)
			for _, l := range body.Locals {
				b = append(b, leb128.WriteVarUint32(l.Count)...)
				b = append(b, l.Type.encode())
			}
			b = append(b, body.Body...)
			out = append(out, leb128.WriteVarUint32(uint32(len(b)))...)
			out = append(out, b...)
		}
		out = append(out, s.Extra...)
	case *DataSection:
		out = append(out, leb128.WriteVarUint32(uint32(len(s.Segments)))...)
		for _, seg := range s.Segments {
			out = append(out, leb128.WriteVarUint32(seg.MemIndex)...)
			out = append(out, seg.Offset...)
			out = append(out, leb128.WriteBytes(seg.Init)...)
		}
		out = append(out, s.Extra...)
	default:
		panic(fmt.Sprintf("wasm: unknown section type %T", sec))
	}
	return out
}
