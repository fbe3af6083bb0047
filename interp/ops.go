package interp

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"

	"github.com/vertexdlt/wasmvm/internal/wasmerr"
	"github.com/vertexdlt/wasmvm/number"
	"github.com/vertexdlt/wasmvm/runtime"
	"github.com/vertexdlt/wasmvm/util"
	"github.com/vertexdlt/wasmvm/wasm"
)

func isMemoryOp(op wasm.Opcode) bool {
	desc := wasm.LookupOpcode(op)
	return desc != nil && desc.Imm == wasm.ImmMemory
}

// isNumericOp covers every comparison, arithmetic, and conversion opcode:
// a single contiguous range in the opcode table, none of which carry an
// immediate operand.
func isNumericOp(op wasm.Opcode) bool {
	return op >= wasm.OpI32Eqz && op <= wasm.OpF64ReinterpretI64
}

// dispatchMemory executes one load/store instruction. Store instructions
// pop their value before their address, since the address was pushed
// first.
func dispatchMemory(ctx *context, r *util.ByteReader, op wasm.Opcode) error {
	imm, err := readMemImm(r)
	if err != nil {
		return err
	}
	align, enforce := imm.Align, ctx.policy.EnforceAlignment
	mem := ctx.inst.Memory()

	switch op {
	case wasm.OpI32Load:
		ea := loadAddr(ctx, imm.Offset)
		v, err := mem.LoadI32(ea, align, enforce)
		if err != nil {
			return err
		}
		ctx.push(runtime.I32(v))
	case wasm.OpI64Load:
		ea := loadAddr(ctx, imm.Offset)
		v, err := mem.LoadI64(ea, align, enforce)
		if err != nil {
			return err
		}
		ctx.push(runtime.I64(v))
	case wasm.OpF32Load:
		ea := loadAddr(ctx, imm.Offset)
		v, err := mem.LoadF32(ea, align, enforce)
		if err != nil {
			return err
		}
		ctx.push(runtime.F32(v))
	case wasm.OpF64Load:
		ea := loadAddr(ctx, imm.Offset)
		v, err := mem.LoadF64(ea, align, enforce)
		if err != nil {
			return err
		}
		ctx.push(runtime.F64(v))

	case wasm.OpI32Load8S:
		ea := loadAddr(ctx, imm.Offset)
		b, err := mem.Load8(ea)
		if err != nil {
			return err
		}
		ctx.push(runtime.I32(int32(int8(b))))
	case wasm.OpI32Load8U:
		ea := loadAddr(ctx, imm.Offset)
		b, err := mem.Load8(ea)
		if err != nil {
			return err
		}
		ctx.push(runtime.I32(int32(b)))
	case wasm.OpI32Load16S:
		ea := loadAddr(ctx, imm.Offset)
		h, err := mem.Load16(ea, align, enforce)
		if err != nil {
			return err
		}
		ctx.push(runtime.I32(int32(int16(h))))
	case wasm.OpI32Load16U:
		ea := loadAddr(ctx, imm.Offset)
		h, err := mem.Load16(ea, align, enforce)
		if err != nil {
			return err
		}
		ctx.push(runtime.I32(int32(h)))

	case wasm.OpI64Load8S:
		ea := loadAddr(ctx, imm.Offset)
		b, err := mem.Load8(ea)
		if err != nil {
			return err
		}
		ctx.push(runtime.I64(int64(int8(b))))
	case wasm.OpI64Load8U:
		ea := loadAddr(ctx, imm.Offset)
		b, err := mem.Load8(ea)
		if err != nil {
			return err
		}
		ctx.push(runtime.I64(int64(b)))
	case wasm.OpI64Load16S:
		ea := loadAddr(ctx, imm.Offset)
		h, err := mem.Load16(ea, align, enforce)
		if err != nil {
			return err
		}
		ctx.push(runtime.I64(int64(int16(h))))
	case wasm.OpI64Load16U:
		ea := loadAddr(ctx, imm.Offset)
		h, err := mem.Load16(ea, align, enforce)
		if err != nil {
			return err
		}
		ctx.push(runtime.I64(int64(h)))
	case wasm.OpI64Load32S:
		ea := loadAddr(ctx, imm.Offset)
		v, err := mem.Load32Raw(ea, align, enforce)
		if err != nil {
			return err
		}
		ctx.push(runtime.I64(int64(int32(v))))
	case wasm.OpI64Load32U:
		ea := loadAddr(ctx, imm.Offset)
		v, err := mem.Load32Raw(ea, align, enforce)
		if err != nil {
			return err
		}
		ctx.push(runtime.I64(int64(v)))

	case wasm.OpI32Store:
		ea, v := storeAddr(ctx, imm.Offset)
		return mem.StoreI32(ea, align, enforce, v.I32())
	case wasm.OpI64Store:
		ea, v := storeAddr(ctx, imm.Offset)
		return mem.StoreI64(ea, align, enforce, v.I64())
	case wasm.OpF32Store:
		ea, v := storeAddr(ctx, imm.Offset)
		return mem.StoreF32(ea, align, enforce, v.F32())
	case wasm.OpF64Store:
		ea, v := storeAddr(ctx, imm.Offset)
		return mem.StoreF64(ea, align, enforce, v.F64())
	case wasm.OpI32Store8:
		ea, v := storeAddr(ctx, imm.Offset)
		return mem.Store8(ea, byte(v.I32()))
	case wasm.OpI32Store16:
		ea, v := storeAddr(ctx, imm.Offset)
		return mem.Store16(ea, align, enforce, uint16(v.I32()))
	case wasm.OpI64Store8:
		ea, v := storeAddr(ctx, imm.Offset)
		return mem.Store8(ea, byte(v.I64()))
	case wasm.OpI64Store16:
		ea, v := storeAddr(ctx, imm.Offset)
		return mem.Store16(ea, align, enforce, uint16(v.I64()))
	case wasm.OpI64Store32:
		ea, v := storeAddr(ctx, imm.Offset)
		return mem.StoreI32(ea, align, enforce, int32(v.I64()))

	default:
		return fmt.Errorf("interp: unhandled memory opcode 0x%02x", byte(op))
	}
	return nil
}

func loadAddr(ctx *context, offset uint32) uint64 {
	base := ctx.pop()
	return uint64(uint32(base.I32())) + uint64(offset)
}

func storeAddr(ctx *context, offset uint32) (uint64, runtime.Value) {
	v := ctx.pop()
	base := ctx.pop()
	return uint64(uint32(base.I32())) + uint64(offset), v
}

// dispatchNumeric executes comparisons, arithmetic, and conversions: every
// opcode carrying no immediate operand once control flow, memory, locals,
// and globals have been dispatched elsewhere.
func dispatchNumeric(ctx *context, op wasm.Opcode) error {
	switch {
	case op == wasm.OpI32Eqz:
		ctx.push(boolI32(ctx.pop().I32() == 0))
		return nil
	case op >= wasm.OpI32Eq && op <= wasm.OpI32GeU:
		return i32Compare(ctx, op)
	case op == wasm.OpI64Eqz:
		ctx.push(boolI32(ctx.pop().I64() == 0))
		return nil
	case op >= wasm.OpI64Eq && op <= wasm.OpI64GeU:
		return i64Compare(ctx, op)
	case op >= wasm.OpF32Eq && op <= wasm.OpF32Ge:
		return f32Compare(ctx, op)
	case op >= wasm.OpF64Eq && op <= wasm.OpF64Ge:
		return f64Compare(ctx, op)

	case op >= wasm.OpI32Clz && op <= wasm.OpI32Rotr:
		return i32Arith(ctx, op)
	case op >= wasm.OpI64Clz && op <= wasm.OpI64Rotr:
		return i64Arith(ctx, op)
	case op >= wasm.OpF32Abs && op <= wasm.OpF32Copysign:
		return f32Arith(ctx, op)
	case op >= wasm.OpF64Abs && op <= wasm.OpF64Copysign:
		return f64Arith(ctx, op)

	case op >= wasm.OpI32WrapI64 && op <= wasm.OpF64ReinterpretI64:
		return convert(ctx, op)
	}
	return fmt.Errorf("interp: unhandled numeric opcode 0x%02x", byte(op))
}

func boolI32(b bool) runtime.Value {
	if b {
		return runtime.I32(1)
	}
	return runtime.I32(0)
}

func i32Compare(ctx *context, op wasm.Opcode) error {
	b := ctx.pop().I32()
	a := ctx.pop().I32()
	var r bool
	switch op {
	case wasm.OpI32Eq:
		r = a == b
	case wasm.OpI32Ne:
		r = a != b
	case wasm.OpI32LtS:
		r = a < b
	case wasm.OpI32LtU:
		r = uint32(a) < uint32(b)
	case wasm.OpI32GtS:
		r = a > b
	case wasm.OpI32GtU:
		r = uint32(a) > uint32(b)
	case wasm.OpI32LeS:
		r = a <= b
	case wasm.OpI32LeU:
		r = uint32(a) <= uint32(b)
	case wasm.OpI32GeS:
		r = a >= b
	case wasm.OpI32GeU:
		r = uint32(a) >= uint32(b)
	}
	ctx.push(boolI32(r))
	return nil
}

func i64Compare(ctx *context, op wasm.Opcode) error {
	b := ctx.pop().I64()
	a := ctx.pop().I64()
	var r bool
	switch op {
	case wasm.OpI64Eq:
		r = a == b
	case wasm.OpI64Ne:
		r = a != b
	case wasm.OpI64LtS:
		r = a < b
	case wasm.OpI64LtU:
		r = uint64(a) < uint64(b)
	case wasm.OpI64GtS:
		r = a > b
	case wasm.OpI64GtU:
		r = uint64(a) > uint64(b)
	case wasm.OpI64LeS:
		r = a <= b
	case wasm.OpI64LeU:
		r = uint64(a) <= uint64(b)
	case wasm.OpI64GeS:
		r = a >= b
	case wasm.OpI64GeU:
		r = uint64(a) >= uint64(b)
	}
	ctx.push(boolI32(r))
	return nil
}

func f32Compare(ctx *context, op wasm.Opcode) error {
	b := ctx.pop().F32()
	a := ctx.pop().F32()
	var r bool
	switch op {
	case wasm.OpF32Eq:
		r = a == b
	case wasm.OpF32Ne:
		r = a != b
	case wasm.OpF32Lt:
		r = a < b
	case wasm.OpF32Gt:
		r = a > b
	case wasm.OpF32Le:
		r = a <= b
	case wasm.OpF32Ge:
		r = a >= b
	}
	ctx.push(boolI32(r))
	return nil
}

func f64Compare(ctx *context, op wasm.Opcode) error {
	b := ctx.pop().F64()
	a := ctx.pop().F64()
	var r bool
	switch op {
	case wasm.OpF64Eq:
		r = a == b
	case wasm.OpF64Ne:
		r = a != b
	case wasm.OpF64Lt:
		r = a < b
	case wasm.OpF64Gt:
		r = a > b
	case wasm.OpF64Le:
		r = a <= b
	case wasm.OpF64Ge:
		r = a >= b
	}
	ctx.push(boolI32(r))
	return nil
}

// i32Arith covers clz/ctz/popcount (unary) and the binary arithmetic ops.
func i32Arith(ctx *context, op wasm.Opcode) error {
	switch op {
	case wasm.OpI32Clz:
		v := ctx.pop()
		ctx.push(runtime.I32(int32(clz32(uint32(v.I32())))))
		return nil
	case wasm.OpI32Ctz:
		v := ctx.pop()
		ctx.push(runtime.I32(int32(ctz32(uint32(v.I32())))))
		return nil
	case wasm.OpI32Popcnt:
		v := ctx.pop()
		ctx.push(runtime.I32(int32(popcnt32(uint32(v.I32())))))
		return nil
	}
	b := ctx.pop().I32()
	a := ctx.pop().I32()
	var c int32
	switch op {
	case wasm.OpI32Add:
		c = a + b
	case wasm.OpI32Sub:
		c = a - b
	case wasm.OpI32Mul:
		c = a * b
	case wasm.OpI32DivS:
		if b == 0 {
			return wasmerr.NewTrap(wasmerr.TrapIntegerDivideByZero, "i32.div_s by zero")
		}
		if a == math.MinInt32 && b == -1 {
			return wasmerr.NewTrap(wasmerr.TrapIntegerOverflow, "i32.div_s overflow")
		}
		c = a / b
	case wasm.OpI32DivU:
		if b == 0 {
			return wasmerr.NewTrap(wasmerr.TrapIntegerDivideByZero, "i32.div_u by zero")
		}
		c = int32(uint32(a) / uint32(b))
	case wasm.OpI32RemS:
		if b == 0 {
			return wasmerr.NewTrap(wasmerr.TrapIntegerDivideByZero, "i32.rem_s by zero")
		}
		if a == math.MinInt32 && b == -1 {
			c = 0
		} else {
			c = a % b
		}
	case wasm.OpI32RemU:
		if b == 0 {
			return wasmerr.NewTrap(wasmerr.TrapIntegerDivideByZero, "i32.rem_u by zero")
		}
		c = int32(uint32(a) % uint32(b))
	case wasm.OpI32And:
		c = a & b
	case wasm.OpI32Or:
		c = a | b
	case wasm.OpI32Xor:
		c = a ^ b
	case wasm.OpI32Shl:
		c = a << (uint32(b) & 31)
	case wasm.OpI32ShrS:
		c = a >> (uint32(b) & 31)
	case wasm.OpI32ShrU:
		c = int32(uint32(a) >> (uint32(b) & 31))
	case wasm.OpI32Rotl:
		c = int32(rotl32(uint32(a), uint32(b)))
	case wasm.OpI32Rotr:
		c = int32(rotr32(uint32(a), uint32(b)))
	}
	ctx.push(runtime.I32(c))
	return nil
}

func i64Arith(ctx *context, op wasm.Opcode) error {
	switch op {
	case wasm.OpI64Clz:
		v := ctx.pop()
		ctx.push(runtime.I64(int64(clz64(uint64(v.I64())))))
		return nil
	case wasm.OpI64Ctz:
		v := ctx.pop()
		ctx.push(runtime.I64(int64(ctz64(uint64(v.I64())))))
		return nil
	case wasm.OpI64Popcnt:
		v := ctx.pop()
		ctx.push(runtime.I64(int64(popcnt64(uint64(v.I64())))))
		return nil
	}
	b := ctx.pop().I64()
	a := ctx.pop().I64()
	var c int64
	switch op {
	case wasm.OpI64Add:
		c = a + b
	case wasm.OpI64Sub:
		c = a - b
	case wasm.OpI64Mul:
		c = a * b
	case wasm.OpI64DivS:
		if b == 0 {
			return wasmerr.NewTrap(wasmerr.TrapIntegerDivideByZero, "i64.div_s by zero")
		}
		if a == math.MinInt64 && b == -1 {
			return wasmerr.NewTrap(wasmerr.TrapIntegerOverflow, "i64.div_s overflow")
		}
		c = a / b
	case wasm.OpI64DivU:
		if b == 0 {
			return wasmerr.NewTrap(wasmerr.TrapIntegerDivideByZero, "i64.div_u by zero")
		}
		c = int64(uint64(a) / uint64(b))
	case wasm.OpI64RemS:
		if b == 0 {
			return wasmerr.NewTrap(wasmerr.TrapIntegerDivideByZero, "i64.rem_s by zero")
		}
		if a == math.MinInt64 && b == -1 {
			c = 0
		} else {
			c = a % b
		}
	case wasm.OpI64RemU:
		if b == 0 {
			return wasmerr.NewTrap(wasmerr.TrapIntegerDivideByZero, "i64.rem_u by zero")
		}
		c = int64(uint64(a) % uint64(b))
	case wasm.OpI64And:
		c = a & b
	case wasm.OpI64Or:
		c = a | b
	case wasm.OpI64Xor:
		c = a ^ b
	case wasm.OpI64Shl:
		c = a << (uint64(b) & 63)
	case wasm.OpI64ShrS:
		c = a >> (uint64(b) & 63)
	case wasm.OpI64ShrU:
		c = int64(uint64(a) >> (uint64(b) & 63))
	case wasm.OpI64Rotl:
		c = int64(rotl64(uint64(a), uint32(b)))
	case wasm.OpI64Rotr:
		c = int64(rotr64(uint64(a), uint32(b)))
	}
	ctx.push(runtime.I64(c))
	return nil
}

func f32Arith(ctx *context, op wasm.Opcode) error {
	switch op {
	case wasm.OpF32Abs:
		ctx.push(runtime.F32(math32.Abs(ctx.pop().F32())))
		return nil
	case wasm.OpF32Neg:
		ctx.push(runtime.F32(-ctx.pop().F32()))
		return nil
	case wasm.OpF32Ceil:
		ctx.push(runtime.F32(math32.Ceil(ctx.pop().F32())))
		return nil
	case wasm.OpF32Floor:
		ctx.push(runtime.F32(math32.Floor(ctx.pop().F32())))
		return nil
	case wasm.OpF32Trunc:
		ctx.push(runtime.F32(math32.Trunc(ctx.pop().F32())))
		return nil
	case wasm.OpF32Nearest:
		ctx.push(runtime.F32(f32Nearest(ctx.pop().F32())))
		return nil
	case wasm.OpF32Sqrt:
		ctx.push(runtime.F32(math32.Sqrt(ctx.pop().F32())))
		return nil
	}
	b := ctx.pop().F32()
	a := ctx.pop().F32()
	var c float32
	switch op {
	case wasm.OpF32Add:
		c = a + b
	case wasm.OpF32Sub:
		c = a - b
	case wasm.OpF32Mul:
		c = a * b
	case wasm.OpF32Div:
		c = a / b
	case wasm.OpF32Min:
		c = f32Min(a, b)
	case wasm.OpF32Max:
		c = f32Max(a, b)
	case wasm.OpF32Copysign:
		c = math32.Copysign(a, b)
	}
	ctx.push(runtime.F32(c))
	return nil
}

func f64Arith(ctx *context, op wasm.Opcode) error {
	switch op {
	case wasm.OpF64Abs:
		ctx.push(runtime.F64(math.Abs(ctx.pop().F64())))
		return nil
	case wasm.OpF64Neg:
		ctx.push(runtime.F64(-ctx.pop().F64()))
		return nil
	case wasm.OpF64Ceil:
		ctx.push(runtime.F64(math.Ceil(ctx.pop().F64())))
		return nil
	case wasm.OpF64Floor:
		ctx.push(runtime.F64(math.Floor(ctx.pop().F64())))
		return nil
	case wasm.OpF64Trunc:
		ctx.push(runtime.F64(math.Trunc(ctx.pop().F64())))
		return nil
	case wasm.OpF64Nearest:
		ctx.push(runtime.F64(f64Nearest(ctx.pop().F64())))
		return nil
	case wasm.OpF64Sqrt:
		ctx.push(runtime.F64(math.Sqrt(ctx.pop().F64())))
		return nil
	}
	b := ctx.pop().F64()
	a := ctx.pop().F64()
	var c float64
	switch op {
	case wasm.OpF64Add:
		c = a + b
	case wasm.OpF64Sub:
		c = a - b
	case wasm.OpF64Mul:
		c = a * b
	case wasm.OpF64Div:
		c = a / b
	case wasm.OpF64Min:
		c = f64Min(a, b)
	case wasm.OpF64Max:
		c = f64Max(a, b)
	case wasm.OpF64Copysign:
		c = math.Copysign(a, b)
	}
	ctx.push(runtime.F64(c))
	return nil
}

// convert executes a value-conversion opcode: wrap, extend, truncate
// (float to int, trapping), convert (int to float), demote/promote, and
// the bit-reinterpreting casts.
func convert(ctx *context, op wasm.Opcode) error {
	switch op {
	case wasm.OpI32WrapI64:
		ctx.push(runtime.I32(int32(ctx.pop().I64())))
	case wasm.OpI64ExtendI32S:
		ctx.push(runtime.I64(int64(ctx.pop().I32())))
	case wasm.OpI64ExtendI32U:
		ctx.push(runtime.I64(int64(uint32(ctx.pop().I32()))))

	case wasm.OpI32TruncF32S:
		return truncate(ctx, number.F32, number.I32, wasm.ValueTypeI32)
	case wasm.OpI32TruncF32U:
		return truncate(ctx, number.F32, number.U32, wasm.ValueTypeI32)
	case wasm.OpI32TruncF64S:
		return truncate(ctx, number.F64, number.I32, wasm.ValueTypeI32)
	case wasm.OpI32TruncF64U:
		return truncate(ctx, number.F64, number.U32, wasm.ValueTypeI32)
	case wasm.OpI64TruncF32S:
		return truncate(ctx, number.F32, number.I64, wasm.ValueTypeI64)
	case wasm.OpI64TruncF32U:
		return truncate(ctx, number.F32, number.U64, wasm.ValueTypeI64)
	case wasm.OpI64TruncF64S:
		return truncate(ctx, number.F64, number.I64, wasm.ValueTypeI64)
	case wasm.OpI64TruncF64U:
		return truncate(ctx, number.F64, number.U64, wasm.ValueTypeI64)

	case wasm.OpF32ConvertI32S:
		ctx.push(runtime.F32(float32(ctx.pop().I32())))
	case wasm.OpF32ConvertI32U:
		ctx.push(runtime.F32(float32(uint32(ctx.pop().I32()))))
	case wasm.OpF32ConvertI64S:
		ctx.push(runtime.F32(float32(ctx.pop().I64())))
	case wasm.OpF32ConvertI64U:
		ctx.push(runtime.F32(float32(uint64(ctx.pop().I64()))))
	case wasm.OpF32DemoteF64:
		ctx.push(runtime.F32(float32(ctx.pop().F64())))

	case wasm.OpF64ConvertI32S:
		ctx.push(runtime.F64(float64(ctx.pop().I32())))
	case wasm.OpF64ConvertI32U:
		ctx.push(runtime.F64(float64(uint32(ctx.pop().I32()))))
	case wasm.OpF64ConvertI64S:
		ctx.push(runtime.F64(float64(ctx.pop().I64())))
	case wasm.OpF64ConvertI64U:
		ctx.push(runtime.F64(float64(uint64(ctx.pop().I64()))))
	case wasm.OpF64PromoteF32:
		ctx.push(runtime.F64(float64(ctx.pop().F32())))

	case wasm.OpI32ReinterpretF32:
		ctx.push(runtime.I32(int32(math32.Float32bits(ctx.pop().F32()))))
	case wasm.OpI64ReinterpretF64:
		ctx.push(runtime.I64(int64(math.Float64bits(ctx.pop().F64()))))
	case wasm.OpF32ReinterpretI32:
		ctx.push(runtime.F32(math32.Float32frombits(uint32(ctx.pop().I32()))))
	case wasm.OpF64ReinterpretI64:
		ctx.push(runtime.F64(math.Float64frombits(uint64(ctx.pop().I64()))))

	default:
		return fmt.Errorf("interp: unhandled conversion opcode 0x%02x", byte(op))
	}
	return nil
}

// truncate pops a float, truncates it toward zero into an integer type via
// the number package's shared trap-aware logic, and pushes the result as a
// Value of resultType (I32 results carry their bits in the low 32 bits,
// matching ValueFromBits' masking).
func truncate(ctx *context, from, to number.Type, resultType wasm.ValueType) error {
	v := ctx.pop()
	bits, trap := number.FloatTruncate(from, to, v.Bits())
	switch trap {
	case number.NanTrap:
		return wasmerr.NewTrap(wasmerr.TrapInvalidConversionToInt, "cannot convert NaN to integer")
	case number.ConvertTrap:
		return wasmerr.NewTrap(wasmerr.TrapIntegerOverflow, "float value out of range for integer conversion")
	}
	ctx.push(runtime.ValueFromBits(resultType, bits))
	return nil
}
