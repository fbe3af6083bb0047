package runtime

import (
	"encoding/binary"
	"math"

	"github.com/edsrzf/mmap-go"

	"github.com/vertexdlt/wasmvm/internal/tracelog"
	"github.com/vertexdlt/wasmvm/internal/wasmerr"
)

// PageSize is the fixed linear-memory page size, in bytes.
const PageSize = 65536

// defaultMaxPages caps memory growth when neither the module nor the
// policy declares a maximum, so an unbounded mmap reservation is never
// attempted. 4GiB / PageSize is the absolute Wasm32 ceiling; this default
// is deliberately far below it (4GiB worth of address space per memory
// would make every instantiation expensive even though mmap never commits
// pages it doesn't touch).
const defaultMaxPages = 256 // 16MiB

// LinearMemory is a paginated, byte-addressable buffer. Its backing region
// is reserved once, at instantiation, for the memory's effective maximum
// page count; Grow only advances a logical watermark inside that
// reservation and never reallocates.
type LinearMemory struct {
	region    mmap.MMap // present when mmap succeeded; nil on fallback
	fallback  []byte    // present when mmap failed
	pageCount uint32
	maxPages  uint32
}

// NewLinearMemory reserves a region sized for effective maximum
// min(declaredMax, policyMax) pages (or defaultMaxPages if neither bounds
// it) and commits initialPages of it as the current size.
func NewLinearMemory(initialPages uint32, declaredMax uint32, hasDeclaredMax bool, policyMaxPages uint32) (*LinearMemory, error) {
	maxPages := defaultMaxPages
	if hasDeclaredMax {
		maxPages = int(declaredMax)
	}
	if policyMaxPages != 0 && (!hasDeclaredMax || policyMaxPages < declaredMax) {
		maxPages = int(policyMaxPages)
	}
	if maxPages < int(initialPages) {
		maxPages = int(initialPages)
	}

	lm := &LinearMemory{pageCount: initialPages, maxPages: uint32(maxPages)}
	region, err := mmap.MapRegion(nil, maxPages*PageSize, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		tracelog.Log.WithError(err).Warn("linear memory: mmap reservation failed, falling back to a plain slice")
		lm.fallback = make([]byte, initialPages*PageSize)
		return lm, nil
	}
	lm.region = region
	return lm, nil
}

// bytes returns the full backing slice, whichever storage is active.
func (m *LinearMemory) bytes() []byte {
	if m.region != nil {
		return m.region
	}
	return m.fallback
}

// Size returns the memory's current size in bytes (pageCount * PageSize).
func (m *LinearMemory) Size() uint32 { return m.pageCount * PageSize }

// CurrentMemory returns the current page count.
func (m *LinearMemory) CurrentMemory() uint32 { return m.pageCount }

// Grow attempts to add deltaPages pages, returning the previous page count
// on success or -1 on failure.
func (m *LinearMemory) Grow(deltaPages uint32) int32 {
	newCount := m.pageCount + deltaPages
	if newCount < m.pageCount || newCount > m.maxPages {
		return -1
	}
	prev := m.pageCount
	if m.fallback != nil {
		grown := make([]byte, newCount*PageSize)
		copy(grown, m.fallback)
		m.fallback = grown
	}
	m.pageCount = newCount
	return int32(prev)
}

// checkBounds traps OutOfBoundsMemoryAccess if [offset, offset+size) falls
// outside the memory's current committed size. offset is the already
// effective-address-computed, 64-bit-safe sum the interpreter passes in.
func (m *LinearMemory) checkBounds(offset uint64, size uint32) error {
	if offset+uint64(size) > uint64(m.Size()) {
		return wasmerr.NewTrap(wasmerr.TrapOutOfBoundsMemoryAccess, "access [%d, %d) exceeds memory size %d", offset, offset+uint64(size), m.Size())
	}
	return nil
}

// checkAlignment enforces a load/store's alignment hint, opt-in via
// enforce since the MVP never requires it for correctness (a misaligned
// access is merely slower, not unsafe, on every architecture this targets).
// align is the wire immediate itself: log2 of the byte alignment (0 means
// 1-byte, 1 means 2-byte, 2 means 4-byte, 3 means 8-byte), not a byte count.
func checkAlignment(offset uint64, align uint32, enforce bool) error {
	if !enforce {
		return nil
	}
	alignBytes := uint64(1) << align
	if offset%alignBytes != 0 {
		return wasmerr.NewTrap(wasmerr.TrapMisalignedMemoryAccess, "address %d is not aligned to %d bytes", offset, alignBytes)
	}
	return nil
}

// LoadI32 reads a little-endian 4-byte integer at offset.
func (m *LinearMemory) LoadI32(offset uint64, align uint32, enforceAlign bool) (int32, error) {
	if err := checkAlignment(offset, align, enforceAlign); err != nil {
		return 0, err
	}
	if err := m.checkBounds(offset, 4); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(m.bytes()[offset:])), nil
}

// StoreI32 writes a little-endian 4-byte integer at offset.
func (m *LinearMemory) StoreI32(offset uint64, align uint32, enforceAlign bool, v int32) error {
	if err := checkAlignment(offset, align, enforceAlign); err != nil {
		return err
	}
	if err := m.checkBounds(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.bytes()[offset:], uint32(v))
	return nil
}

// LoadI64 reads a little-endian 8-byte integer at offset.
func (m *LinearMemory) LoadI64(offset uint64, align uint32, enforceAlign bool) (int64, error) {
	if err := checkAlignment(offset, align, enforceAlign); err != nil {
		return 0, err
	}
	if err := m.checkBounds(offset, 8); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(m.bytes()[offset:])), nil
}

// StoreI64 writes a little-endian 8-byte integer at offset.
func (m *LinearMemory) StoreI64(offset uint64, align uint32, enforceAlign bool, v int64) error {
	if err := checkAlignment(offset, align, enforceAlign); err != nil {
		return err
	}
	if err := m.checkBounds(offset, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m.bytes()[offset:], uint64(v))
	return nil
}

// LoadF32 reads a little-endian IEEE-754 binary32 at offset.
func (m *LinearMemory) LoadF32(offset uint64, align uint32, enforceAlign bool) (float32, error) {
	v, err := m.LoadI32(offset, align, enforceAlign)
	return math.Float32frombits(uint32(v)), err
}

// StoreF32 writes a little-endian IEEE-754 binary32 at offset.
func (m *LinearMemory) StoreF32(offset uint64, align uint32, enforceAlign bool, v float32) error {
	return m.StoreI32(offset, align, enforceAlign, int32(math.Float32bits(v)))
}

// LoadF64 reads a little-endian IEEE-754 binary64 at offset.
func (m *LinearMemory) LoadF64(offset uint64, align uint32, enforceAlign bool) (float64, error) {
	v, err := m.LoadI64(offset, align, enforceAlign)
	return math.Float64frombits(uint64(v)), err
}

// StoreF64 writes a little-endian IEEE-754 binary64 at offset.
func (m *LinearMemory) StoreF64(offset uint64, align uint32, enforceAlign bool, v float64) error {
	return m.StoreI64(offset, align, enforceAlign, int64(math.Float64bits(v)))
}

// Load8 / Load16 support the sign/zero-extending narrow loads
// (i32.load8_s, i64.load16_u, ...); the interpreter does the extension.
func (m *LinearMemory) Load8(offset uint64) (byte, error) {
	if err := m.checkBounds(offset, 1); err != nil {
		return 0, err
	}
	return m.bytes()[offset], nil
}

func (m *LinearMemory) Store8(offset uint64, v byte) error {
	if err := m.checkBounds(offset, 1); err != nil {
		return err
	}
	m.bytes()[offset] = v
	return nil
}

func (m *LinearMemory) Load16(offset uint64, align uint32, enforceAlign bool) (uint16, error) {
	if err := checkAlignment(offset, align, enforceAlign); err != nil {
		return 0, err
	}
	if err := m.checkBounds(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.bytes()[offset:]), nil
}

func (m *LinearMemory) Store16(offset uint64, align uint32, enforceAlign bool, v uint16) error {
	if err := checkAlignment(offset, align, enforceAlign); err != nil {
		return err
	}
	if err := m.checkBounds(offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.bytes()[offset:], v)
	return nil
}

func (m *LinearMemory) Load32Raw(offset uint64, align uint32, enforceAlign bool) (uint32, error) {
	v, err := m.LoadI32(offset, align, enforceAlign)
	return uint32(v), err
}

// CopyIn writes data verbatim at offset, without bounds-checking against a
// fixed element size — used by data-segment application at instantiation.
func (m *LinearMemory) CopyIn(offset uint64, data []byte) error {
	if err := m.checkBounds(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(m.bytes()[offset:], data)
	return nil
}

// Slice returns a read-only view of length bytes starting at offset, for
// host functions that need raw access (string/array-like imports).
func (m *LinearMemory) Slice(offset uint64, length uint32) ([]byte, error) {
	if err := m.checkBounds(offset, length); err != nil {
		return nil, err
	}
	return m.bytes()[offset : offset+uint64(length)], nil
}
