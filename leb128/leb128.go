// Package leb128 reads and writes the LEB128 integer encodings, IEEE-754
// floats, and length-prefixed strings used by the Wasm binary format.
//
// https://webassembly.github.io/spec/core/binary/values.html
//
// The teacher package had two independent copies of the same shift-and-mask
// loop (one reading from an io.Reader, one from a util.ByteReader); this
// keeps a single core loop parameterized by bit width and shares it between
// the unsigned and signed, 32- and 64-bit entry points.
package leb128

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/vertexdlt/wasmvm/util"
)

// ErrOverlong is returned when a LEB128 encoding uses more bits than its
// declared width allows.
var ErrOverlong = errors.New("leb128: overlong encoding exceeds declared bit width")

// maxBytes is the largest number of continuation bytes a width-n varuint can
// legally occupy: ceil(n/7).
func maxBytes(n uint32) uint32 {
	return (n + 6) / 7
}

// read decodes an at-most-n-bit LEB128 integer, sign-extending when hasSign
// is set. It rejects encodings that run past maxBytes(n) continuation bytes.
func read(r *util.ByteReader, n uint32, hasSign bool) (int64, error) {
	if n > 64 {
		panic("leb128: n must be <= 64")
	}
	var (
		shift  uint32
		cnt    uint32
		result int64
		cur    byte
		err    error
	)
	limit := maxBytes(n)
	for {
		cur, err = r.ReadOne()
		if err != nil {
			return 0, fmt.Errorf("leb128: %w", err)
		}
		cnt++
		if cnt > limit {
			return 0, ErrOverlong
		}
		result |= int64(cur&0x7f) << shift
		shift += 7
		if cur&0x80 == 0 {
			break
		}
	}
	if hasSign && shift < 64 && cur&0x40 != 0 {
		result |= -1 << shift
	}
	if n < 64 {
		if hasSign {
			// result must be representable in n bits: truncating to n bits
			// and sign-extending back must reproduce it exactly.
			free := uint(64 - n)
			if (result<<free)>>free != result {
				return 0, ErrOverlong
			}
		} else if uint64(result)>>n != 0 {
			return 0, ErrOverlong
		}
	}
	return result, nil
}

// ReadVarUint1 reads a 1-bit LEB128 unsigned integer (0 or 1).
func ReadVarUint1(r *util.ByteReader) (uint32, error) {
	v, err := read(r, 1, false)
	return uint32(v), err
}

// ReadVarUint7 reads a 7-bit LEB128 unsigned integer.
func ReadVarUint7(r *util.ByteReader) (uint32, error) {
	v, err := read(r, 7, false)
	return uint32(v), err
}

// ReadVarUint32 reads an unsigned 32-bit LEB128 integer.
func ReadVarUint32(r *util.ByteReader) (uint32, error) {
	v, err := read(r, 32, false)
	return uint32(v), err
}

// ReadVarInt32 reads a signed 32-bit LEB128 integer.
func ReadVarInt32(r *util.ByteReader) (int32, error) {
	v, err := read(r, 32, true)
	return int32(v), err
}

// ReadVarUint64 reads an unsigned 64-bit LEB128 integer.
func ReadVarUint64(r *util.ByteReader) (uint64, error) {
	v, err := read(r, 64, false)
	return uint64(v), err
}

// ReadVarInt64 reads a signed 64-bit LEB128 integer.
func ReadVarInt64(r *util.ByteReader) (int64, error) {
	return read(r, 64, true)
}

// ReadF32 reads 4 raw little-endian bytes and reinterprets them as an
// IEEE-754 binary32 value.
func ReadF32(r *util.ByteReader) (float32, error) {
	b, err := r.Read(4)
	if err != nil {
		return 0, fmt.Errorf("leb128: %w", err)
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// ReadF64 reads 8 raw little-endian bytes and reinterprets them as an
// IEEE-754 binary64 value.
func ReadF64(r *util.ByteReader) (float64, error) {
	b, err := r.Read(8)
	if err != nil {
		return 0, fmt.Errorf("leb128: %w", err)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// ReadString reads a varuint32 byte length followed by that many raw bytes.
// It does not validate UTF-8; the caller decides whether to enforce it.
func ReadString(r *util.ByteReader) (string, error) {
	n, err := ReadVarUint32(r)
	if err != nil {
		return "", err
	}
	b, err := r.Read(n)
	if err != nil {
		return "", fmt.Errorf("leb128: %w", err)
	}
	return string(b), nil
}

// ReadBytes reads a varuint32 byte length followed by that many raw bytes.
func ReadBytes(r *util.ByteReader) ([]byte, error) {
	n, err := ReadVarUint32(r)
	if err != nil {
		return nil, err
	}
	b, err := r.Read(n)
	if err != nil {
		return nil, fmt.Errorf("leb128: %w", err)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// writeUnsigned encodes v as unsigned LEB128.
func writeUnsigned(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			break
		}
	}
	return out
}

// writeSigned encodes v as signed LEB128.
func writeSigned(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0)
		if !done {
			b |= 0x80
		}
		out = append(out, b)
		if done {
			break
		}
	}
	return out
}

// WriteVarUint1 encodes a 1-bit unsigned LEB128 integer.
func WriteVarUint1(v uint32) []byte { return writeUnsigned(uint64(v & 0x1)) }

// WriteVarUint7 encodes a 7-bit unsigned LEB128 integer.
func WriteVarUint7(v uint32) []byte { return writeUnsigned(uint64(v & 0x7f)) }

// WriteVarUint32 encodes an unsigned 32-bit LEB128 integer.
func WriteVarUint32(v uint32) []byte { return writeUnsigned(uint64(v)) }

// WriteVarInt32 encodes a signed 32-bit LEB128 integer.
func WriteVarInt32(v int32) []byte { return writeSigned(int64(v)) }

// WriteVarUint64 encodes an unsigned 64-bit LEB128 integer.
func WriteVarUint64(v uint64) []byte { return writeUnsigned(v) }

// WriteVarInt64 encodes a signed 64-bit LEB128 integer.
func WriteVarInt64(v int64) []byte { return writeSigned(v) }

// WriteF32 encodes f as 4 raw little-endian bytes.
func WriteF32(f float32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(f))
	return b[:]
}

// WriteF64 encodes f as 8 raw little-endian bytes.
func WriteF64(f float64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
	return b[:]
}

// WriteString encodes s as a varuint32 length followed by its raw bytes.
func WriteString(s string) []byte {
	return WriteBytes([]byte(s))
}

// WriteBytes encodes b as a varuint32 length followed by the raw bytes.
func WriteBytes(b []byte) []byte {
	out := WriteVarUint32(uint32(len(b)))
	return append(out, b...)
}
