package interp

import (
	"fmt"

	"github.com/vertexdlt/wasmvm/internal/tracelog"
	"github.com/vertexdlt/wasmvm/internal/wasmerr"
	"github.com/vertexdlt/wasmvm/leb128"
	"github.com/vertexdlt/wasmvm/runtime"
	"github.com/vertexdlt/wasmvm/util"
	"github.com/vertexdlt/wasmvm/wasm"
)

// Engine implements runtime.Interpreter. It holds no per-call state itself;
// every RunFunction call builds its own context, so one Engine is safe to
// share across concurrently executing instances.
type Engine struct{}

// NewEngine constructs the interpreter. There is nothing to configure: the
// execution policy travels with the ModuleInstance being run.
func NewEngine() *Engine { return &Engine{} }

// RunFunction executes fn's body against args, starting at callerDepth+1.
func (e *Engine) RunFunction(inst *runtime.ModuleInstance, fn *runtime.FunctionDefinition, args []runtime.Value, callerDepth int) ([]runtime.Value, error) {
	policy := inst.Policy()
	depth := callerDepth + 1
	if depth > policy.CallStackDepth() {
		return nil, wasmerr.NewTrap(wasmerr.TrapCallStackExhausted, "call depth %d exceeds limit %d", depth, policy.CallStackDepth())
	}
	if len(args) != len(fn.Signature.Params) {
		return nil, fmt.Errorf("interp: call expects %d arguments, got %d", len(fn.Signature.Params), len(args))
	}

	locals := make([]*runtime.Variable, 0, len(fn.Signature.Params)+localCount(fn.Locals()))
	for i, pt := range fn.Signature.Params {
		if args[i].Type != pt {
			return nil, fmt.Errorf("interp: argument %d has type %s, want %s", i, args[i].Type, pt)
		}
		locals = append(locals, runtime.NewVariable(pt, wasm.Mutable, args[i]))
	}
	for _, group := range fn.Locals() {
		for i := uint32(0); i < group.Count; i++ {
			locals = append(locals, runtime.NewZeroVariable(group.Type))
		}
	}

	ctx := &context{
		inst:       inst,
		locals:     locals,
		policy:     policy,
		depth:      depth,
		breakDepth: -1,
	}
	if policy.Trace {
		tracelog.Log.WithField("depth", depth).Trace("interp: entering function")
	}
	return run(ctx, util.NewByteReader(fn.Body()), fn)
}

func localCount(groups []wasm.LocalEntry) int {
	n := 0
	for _, g := range groups {
		n += int(g.Count)
	}
	return n
}

// run executes ctx's function body starting at r's current position until
// it returns, traps, or the body's own terminating End is reached.
func run(ctx *context, r *util.ByteReader, fn *runtime.FunctionDefinition) ([]runtime.Value, error) {
	for {
		b, err := r.ReadOne()
		if err != nil {
			return nil, fmt.Errorf("interp: %w", err)
		}
		op := wasm.Opcode(b)

		if op == wasm.OpEnd {
			finished, err := handleBlockEnd(ctx, r)
			if err != nil {
				return nil, err
			}
			if finished {
				return finalizeReturn(ctx, fn)
			}
			continue
		}
		if op == wasm.OpElse {
			if err := skipToMatchingEnd(r); err != nil {
				return nil, err
			}
			finished, err := handleBlockEnd(ctx, r)
			if err != nil {
				return nil, err
			}
			if finished {
				return finalizeReturn(ctx, fn)
			}
			continue
		}

		if ctx.breakDepth >= 0 {
			if err := skipImmediate(op, r); err != nil {
				return nil, err
			}
			continue
		}

		if err := dispatch(ctx, r, op); err != nil {
			if err == errReturned {
				return finalizeReturn(ctx, fn)
			}
			return nil, err
		}
	}
}

// errReturned is a sentinel dispatch returns for the return opcode, letting
// the main loop reuse finalizeReturn without special-casing it twice.
var errReturned = fmt.Errorf("interp: function returned")

// handleBlockEnd closes (or restarts, for a looping branch target) the
// innermost open control-flow frame. It reports finished=true when there
// was no open frame to close, meaning this End belongs to the function
// body itself.
func handleBlockEnd(ctx *context, r *util.ByteReader) (finished bool, err error) {
	if len(ctx.blocks) == 0 {
		return true, nil
	}
	frame := *ctx.topBlock()
	switch {
	case ctx.breakDepth < 0:
		ctx.popBlock()
	case ctx.breakDepth == 0:
		arity := frame.blockType.Arity()
		ctx.truncateKeepTop(frame.stackBase, arity)
		ctx.breakDepth = -1
		if frame.kind == blockKindLoop {
			r.SetPos(frame.loopStart)
			return false, nil
		}
		ctx.popBlock()
	default:
		ctx.popBlock()
		ctx.breakDepth--
	}
	return false, nil
}

// finalizeReturn truncates the operand stack to the function's declared
// result arity and returns those values in order.
func finalizeReturn(ctx *context, fn *runtime.FunctionDefinition) ([]runtime.Value, error) {
	arity := len(fn.Signature.Results)
	if len(ctx.stack) < arity {
		return nil, wasmerr.NewTrap(wasmerr.TrapReturnTypeMismatch, "stack underflow at return: want %d values, have %d", arity, len(ctx.stack))
	}
	results := append([]runtime.Value(nil), ctx.stack[len(ctx.stack)-arity:]...)
	for i, want := range fn.Signature.Results {
		if results[i].Type != want {
			return nil, wasmerr.NewTrap(wasmerr.TrapReturnTypeMismatch, "result %d has type %s, want %s", i, results[i].Type, want)
		}
	}
	return results, nil
}

func readReservedByte(r *util.ByteReader) error {
	_, err := leb128.ReadVarUint1(r)
	return err
}

// dispatch executes exactly one live (non-skipped) instruction whose
// opcode byte has already been consumed. Block/Loop/If/Br/BrIf/BrTable
// mutate ctx.blocks/ctx.breakDepth directly; everything else only touches
// the operand stack, locals, globals, memory, or tables.
func dispatch(ctx *context, r *util.ByteReader, op wasm.Opcode) error {
	switch op {
	case wasm.OpUnreachable:
		return wasmerr.NewTrap(wasmerr.TrapUnreachable, "unreachable instruction executed")
	case wasm.OpNop:

	case wasm.OpBlock:
		bt, err := readBlockType(r)
		if err != nil {
			return err
		}
		ctx.pushBlock(blockFrame{kind: blockKindBlock, blockType: bt, stackBase: len(ctx.stack)})

	case wasm.OpLoop:
		bt, err := readBlockType(r)
		if err != nil {
			return err
		}
		ctx.pushBlock(blockFrame{kind: blockKindLoop, blockType: bt, stackBase: len(ctx.stack), loopStart: r.Pos()})

	case wasm.OpIf:
		bt, err := readBlockType(r)
		if err != nil {
			return err
		}
		cond := ctx.pop()
		if cond.I32() != 0 {
			ctx.pushBlock(blockFrame{kind: blockKindIf, blockType: bt, stackBase: len(ctx.stack)})
			return nil
		}
		closer, err := skipToElseOrEnd(r)
		if err != nil {
			return err
		}
		if closer == wasm.OpElse {
			ctx.pushBlock(blockFrame{kind: blockKindIf, blockType: bt, stackBase: len(ctx.stack)})
		}

	case wasm.OpBr:
		idx, err := readVarUint32(r)
		if err != nil {
			return err
		}
		ctx.breakDepth = int(idx)

	case wasm.OpBrIf:
		idx, err := readVarUint32(r)
		if err != nil {
			return err
		}
		if ctx.pop().I32() != 0 {
			ctx.breakDepth = int(idx)
		}

	case wasm.OpBrTable:
		targets, def, err := readBrTableImm(r)
		if err != nil {
			return err
		}
		idx := uint32(ctx.pop().I32())
		if idx < uint32(len(targets)) {
			ctx.breakDepth = int(targets[idx])
		} else {
			ctx.breakDepth = int(def)
		}

	case wasm.OpReturn:
		return errReturned

	case wasm.OpCall:
		idx, err := readVarUint32(r)
		if err != nil {
			return err
		}
		return doCall(ctx, ctx.inst.Function(idx))

	case wasm.OpCallIndir:
		typeIdx, err := readCallIndirImm(r)
		if err != nil {
			return err
		}
		elemIdx := uint32(ctx.pop().I32())
		callee, err := ctx.inst.Table().Get(elemIdx)
		if err != nil {
			return err
		}
		expected := ctx.inst.FuncType(typeIdx)
		if !callee.Signature.Equal(expected) {
			return wasmerr.NewTrap(wasmerr.TrapIndirectCallTypeMismatch, "table element has signature %s, expected %s", callee.Signature, expected)
		}
		return doCall(ctx, callee)

	case wasm.OpDrop:
		ctx.pop()

	case wasm.OpSelect:
		cond := ctx.pop()
		b := ctx.pop()
		a := ctx.pop()
		if cond.I32() != 0 {
			ctx.push(a)
		} else {
			ctx.push(b)
		}

	case wasm.OpLocalGet:
		idx, err := readVarUint32(r)
		if err != nil {
			return err
		}
		ctx.push(ctx.locals[idx].Get())

	case wasm.OpLocalSet:
		idx, err := readVarUint32(r)
		if err != nil {
			return err
		}
		return ctx.locals[idx].Set(ctx.pop())

	case wasm.OpLocalTee:
		idx, err := readVarUint32(r)
		if err != nil {
			return err
		}
		return ctx.locals[idx].Set(ctx.peek())

	case wasm.OpGlobalGet:
		idx, err := readVarUint32(r)
		if err != nil {
			return err
		}
		ctx.push(ctx.inst.Global(idx).Get())

	case wasm.OpGlobalSet:
		idx, err := readVarUint32(r)
		if err != nil {
			return err
		}
		return ctx.inst.Global(idx).Set(ctx.pop())

	case wasm.OpI32Const:
		v, err := readVarInt32(r)
		if err != nil {
			return err
		}
		ctx.push(runtime.I32(v))

	case wasm.OpI64Const:
		v, err := readVarInt64(r)
		if err != nil {
			return err
		}
		ctx.push(runtime.I64(v))

	case wasm.OpF32Const:
		v, err := readF32(r)
		if err != nil {
			return err
		}
		ctx.push(runtime.F32(v))

	case wasm.OpF64Const:
		v, err := readF64(r)
		if err != nil {
			return err
		}
		ctx.push(runtime.F64(v))

	case wasm.OpMemorySize:
		if err := readReservedByte(r); err != nil {
			return err
		}
		ctx.push(runtime.I32(int32(ctx.inst.Memory().CurrentMemory())))

	case wasm.OpMemoryGrow:
		if err := readReservedByte(r); err != nil {
			return err
		}
		delta := ctx.pop()
		ctx.push(runtime.I32(ctx.inst.Memory().Grow(uint32(delta.I32()))))

	default:
		if isMemoryOp(op) {
			return dispatchMemory(ctx, r, op)
		}
		if isNumericOp(op) {
			return dispatchNumeric(ctx, op)
		}
		return fmt.Errorf("interp: unimplemented opcode 0x%02x", byte(op))
	}
	return nil
}

// doCall invokes callee with its arguments popped off the operand stack,
// and pushes its results. It enforces the call-stack depth cap before
// recursing, which compounds across nested interpreter calls since each
// invocation re-enters RunFunction at its own depth.
func doCall(ctx *context, callee *runtime.FunctionDefinition) error {
	n := len(callee.Signature.Params)
	if len(ctx.stack) < n {
		return fmt.Errorf("interp: call: stack underflow")
	}
	args := append([]runtime.Value(nil), ctx.stack[len(ctx.stack)-n:]...)
	ctx.stack = ctx.stack[:len(ctx.stack)-n]
	results, err := callee.Invoke(ctx.depth, args)
	if err != nil {
		return err
	}
	for _, v := range results {
		ctx.push(v)
	}
	return nil
}
