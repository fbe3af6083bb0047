// Package util provides low-level byte-slice reading primitives shared by
// the leb128 and wasm packages.
package util

import "io"

// ByteReader is a cursor over an in-memory byte slice; SetPos can move it
// to any earlier offset. It never copies the backing array; slices returned
// by Read and CopyAll alias it.
type ByteReader struct {
	b      []byte
	curPos uint32
}

// NewByteReader wraps b for sequential reading starting at offset 0.
func NewByteReader(b []byte) *ByteReader {
	return &ByteReader{b: b}
}

// Read returns the next n bytes and advances the cursor past them.
func (r *ByteReader) Read(n uint32) ([]byte, error) {
	if uint64(r.curPos)+uint64(n) > uint64(len(r.b)) {
		return nil, io.EOF
	}
	b := r.b[r.curPos : r.curPos+n]
	r.curPos += n
	return b, nil
}

// ReadOne returns the next byte and advances the cursor by one.
func (r *ByteReader) ReadOne() (byte, error) {
	if r.curPos >= uint32(len(r.b)) {
		return 0, io.EOF
	}
	b := r.b[r.curPos]
	r.curPos++
	return b, nil
}

// PeekOne returns the next byte without advancing the cursor.
func (r *ByteReader) PeekOne() (byte, error) {
	if r.curPos >= uint32(len(r.b)) {
		return 0, io.EOF
	}
	return r.b[r.curPos], nil
}

// CopyAll returns every unread byte without advancing the cursor.
func (r *ByteReader) CopyAll() []byte {
	return r.b[r.curPos:]
}

// Pos returns the current cursor offset.
func (r *ByteReader) Pos() uint32 {
	return r.curPos
}

// SetPos moves the cursor to an offset previously obtained from Pos. Used
// by the interpreter to restart a loop body without re-allocating a reader.
func (r *ByteReader) SetPos(pos uint32) {
	r.curPos = pos
}

// Len returns the total number of bytes wrapped by the reader.
func (r *ByteReader) Len() uint32 {
	return uint32(len(r.b))
}

// Remaining reports how many unread bytes are left.
func (r *ByteReader) Remaining() uint32 {
	return r.Len() - r.curPos
}
