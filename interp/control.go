package interp

import (
	"fmt"

	"github.com/vertexdlt/wasmvm/util"
	"github.com/vertexdlt/wasmvm/wasm"
)

// blockFrame tracks one pre-existing (opened while actually executing, not
// skipped as dead code) block/loop/if. stackBase is the operand stack
// height the moment the frame was pushed, so a branch targeting it knows
// how much to discard; loopStart is only meaningful for blockKindLoop,
// holding the byte offset to rewind the instruction pointer to.
type blockFrame struct {
	kind      blockKind
	blockType wasm.BlockType
	stackBase int
	loopStart uint32
}

// skipVarint consumes one LEB128 field without decoding its value; the
// continuation-bit mechanism is identical for every signed/unsigned width,
// so a single byte-counting loop skips any of them.
func skipVarint(r *util.ByteReader) error {
	for {
		b, err := r.ReadOne()
		if err != nil {
			return err
		}
		if b&0x80 == 0 {
			return nil
		}
	}
}

// skipOneInstr consumes exactly one instruction — opcode plus immediate —
// advancing r past it, and reports which opcode it was. A Block/Loop/If
// encountered here is dead code reached only because a branch is
// propagating past it (breakDepth >= 0) or because it sits in a skipped
// else/then arm; its entire nested body, down to its own matching End, is
// consumed as part of this one call, deliberately duplicating instr.go's
// decode structure instead of sharing it, since the wasm package's decoder
// is disassembly-only and returns a tree the interpreter has no use for.
func skipOneInstr(r *util.ByteReader) (wasm.Opcode, error) {
	b, err := r.ReadOne()
	if err != nil {
		return 0, err
	}
	op := wasm.Opcode(b)
	if err := skipImmediate(op, r); err != nil {
		return 0, err
	}
	return op, nil
}

// skipImmediate consumes op's immediate operand (already-read opcode byte),
// recursing into a full dead-code body for Block/Loop/If. Shared by
// skipOneInstr and by the engine's skip-mode dispatch, which has already
// read the opcode byte itself.
func skipImmediate(op wasm.Opcode, r *util.ByteReader) error {
	b := byte(op)
	desc := wasm.LookupOpcode(op)
	if desc == nil {
		return fmt.Errorf("interp: undefined opcode 0x%02x", b)
	}
	switch desc.Imm {
	case wasm.ImmNullary:
	case wasm.ImmVarUint32, wasm.ImmVarInt32, wasm.ImmVarInt64, wasm.ImmVarUint1:
		if err := skipVarint(r); err != nil {
			return err
		}
	case wasm.ImmFloat32:
		if _, err := r.Read(4); err != nil {
			return err
		}
	case wasm.ImmFloat64:
		if _, err := r.Read(8); err != nil {
			return err
		}
	case wasm.ImmMemory:
		if err := skipVarint(r); err != nil {
			return err
		}
		if err := skipVarint(r); err != nil {
			return err
		}
	case wasm.ImmCallIndir:
		if err := skipVarint(r); err != nil {
			return err
		}
		if err := skipVarint(r); err != nil {
			return err
		}
	case wasm.ImmBrTable:
		count, err := readVarUint32(r)
		if err != nil {
			return err
		}
		for i := uint32(0); i < count+1; i++ {
			if err := skipVarint(r); err != nil {
				return err
			}
		}
	case wasm.ImmBlock, wasm.ImmIfElse:
		if _, err := r.ReadOne(); err != nil { // block type byte
			return err
		}
		if err := skipToMatchingEnd(r); err != nil {
			return err
		}
	default:
		return fmt.Errorf("interp: opcode %s has unknown immediate shape", desc.Mnemonic)
	}
	return nil
}

// skipToMatchingEnd consumes instructions until (and including) the End
// that closes the current nesting level. Nested blocks close their own
// Ends inside skipOneInstr, so only this level's End stops the loop.
func skipToMatchingEnd(r *util.ByteReader) error {
	for {
		op, err := skipOneInstr(r)
		if err != nil {
			return err
		}
		if op == wasm.OpEnd {
			return nil
		}
	}
}

// skipToElseOrEnd consumes a live if's then-branch, stopping at (and
// consuming) whichever of Else or End closes it at this nesting level.
func skipToElseOrEnd(r *util.ByteReader) (wasm.Opcode, error) {
	for {
		op, err := skipOneInstr(r)
		if err != nil {
			return 0, err
		}
		if op == wasm.OpElse || op == wasm.OpEnd {
			return op, nil
		}
	}
}
