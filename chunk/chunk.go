// Package chunk defines the bytecode container the compiler emits into and
// the VM executes: a growable byte buffer, a parallel line-number array for
// runtime error reporting, and a constant pool.
package chunk

import "slorp/value"

// Opcode identifies a bytecode instruction. Every variable-width operand
// that follows an opcode in the instruction stream is a single byte, which
// caps both the constant pool and the locals stack at 256 entries per
// chunk (see Chunk.AddConstant).
type Opcode byte

const (
	OpConstant Opcode = iota
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpSetGlobal
	OpDefineGlobal
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate
	OpPrint
	OpReturn
)

var opcodeNames = [...]string{
	OpConstant:     "OP_CONSTANT",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpNot:          "OP_NOT",
	OpNegate:       "OP_NEGATE",
	OpPrint:        "OP_PRINT",
	OpReturn:       "OP_RETURN",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "OP_UNKNOWN"
}

// operandWidth reports how many operand bytes follow each opcode, all of
// them either 0 (no operand) or 1 (an index/slot byte).
func (op Opcode) operandWidth() int {
	switch op {
	case OpConstant, OpGetLocal, OpSetLocal, OpGetGlobal, OpSetGlobal, OpDefineGlobal:
		return 1
	default:
		return 0
	}
}

const initialCapacity = 8

// Chunk is a contiguous run of bytecode with a parallel source-line array
// and its own constant pool. len(Code) == len(Lines) is an invariant
// maintained by Write.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []value.Value
}

// New returns an empty Chunk.
func New() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, initialCapacity),
		Lines:     make([]int, 0, initialCapacity),
		Constants: make([]value.Value, 0, initialCapacity),
	}
}

// Write appends one byte, tagged with the source line it came from.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp appends an opcode and its operand bytes, all tagged with line.
func (c *Chunk) WriteOp(op Opcode, line int, operands ...byte) {
	c.Write(byte(op), line)
	for _, b := range operands {
		c.Write(b, line)
	}
}

// AddConstant appends v to the constant pool and returns its index. The
// caller (the compiler) is responsible for rejecting an index that no
// longer fits in one byte — see compiler.maxConstants.
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}
