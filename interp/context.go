// Package interp is the flat, non-recursive instruction-pointer interpreter
// for decoded Wasm function bodies. It never re-decodes a body into the
// wasm package's Instr tree (that tree is for disassembly); it walks the
// raw byte stream directly, using the byte offset itself as the branch
// target address, the way the teacher's vm package walks vm.Frame.ip.
package interp

import "github.com/vertexdlt/wasmvm/runtime"

// blockKind distinguishes the three structured control constructs a
// blockFrame can represent.
type blockKind int

const (
	blockKindBlock blockKind = iota
	blockKindLoop
	blockKindIf
)

// context carries one call's mutable execution state: its operand stack,
// its local-variable vector, and the stack of control-flow frames still
// open around the instruction pointer's current position.
type context struct {
	inst   *runtime.ModuleInstance
	locals []*runtime.Variable
	stack  []runtime.Value
	blocks []blockFrame
	policy runtime.ExecutionPolicy
	depth  int

	// breakDepth is -1 when no branch is propagating. br/br_if/br_table
	// set it to the target label's relative block depth; the dispatch
	// loop then skips dead code until the matching block closes.
	breakDepth int
}

func (c *context) push(v runtime.Value) {
	c.stack = append(c.stack, v)
}

func (c *context) pop() runtime.Value {
	v := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return v
}

func (c *context) peek() runtime.Value {
	return c.stack[len(c.stack)-1]
}

// truncateKeepTop drops every operand above base except the top arity
// values, which are shifted down to sit directly on top of base. Used
// whenever a block/loop/if/function exits, since Wasm's block result
// convention discards everything the body pushed beyond its declared
// arity.
func (c *context) truncateKeepTop(base, arity int) {
	if arity > 0 {
		copy(c.stack[base:base+arity], c.stack[len(c.stack)-arity:])
	}
	c.stack = c.stack[:base+arity]
}

// pushBlock opens a new control-flow frame at the current stack height.
func (c *context) pushBlock(f blockFrame) {
	c.blocks = append(c.blocks, f)
}

// topBlock returns the innermost open frame.
func (c *context) topBlock() *blockFrame {
	return &c.blocks[len(c.blocks)-1]
}

// popBlock closes the innermost open frame.
func (c *context) popBlock() {
	c.blocks = c.blocks[:len(c.blocks)-1]
}
