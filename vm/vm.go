// Package vm implements Slorp's stack-based bytecode interpreter: a flat
// value stack, an instruction pointer into the current Chunk's code, and
// the globals table and object heap shared with the compiler.
package vm

import (
	"fmt"
	"os"

	"slorp/chunk"
	"slorp/compiler"
	"slorp/heap"
	"slorp/table"
	"slorp/value"
)

// InterpretResult classifies how a call to Interpret finished. The CLI maps
// these onto process exit codes.
type InterpretResult int

const (
	OK InterpretResult = iota
	CompileError
	RuntimeErr
)

const stackMax = 256

// VM holds all interpreter state. A VM is normally created once (via New)
// and reused across many Interpret calls in a REPL session, so globals and
// interned strings persist from one line to the next.
type VM struct {
	chunk *chunk.Chunk
	ip    int

	stack    [stackMax]value.Value
	stackTop int

	heap    *heap.Heap
	globals *table.Table

	// Stdout is where OP_PRINT writes; defaulted to os.Stdout by New so
	// production callers never need to set it, but tests can swap it for a
	// buffer.
	Stdout *os.File
}

// New returns a freshly initialized VM: empty stack, empty globals, empty
// heap.
func New() *VM {
	return &VM{
		heap:    heap.New(),
		globals: table.New(),
		Stdout:  os.Stdout,
	}
}

// Free releases the VM's heap. After Free, the VM must not be reused.
func (vm *VM) Free() {
	vm.heap.Free()
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

// Interpret compiles and runs one program. Each call starts a fresh value
// stack but reuses the VM's globals table and heap, so a `dat` at the REPL
// is visible to subsequent Interpret calls.
func (vm *VM) Interpret(source string) InterpretResult {
	c, err := compiler.Compile(source, vm.heap)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return CompileError
	}

	vm.chunk = c
	vm.ip = 0
	vm.resetStack()

	return vm.run()
}

func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readConstant() value.Value {
	return vm.chunk.Constants[vm.readByte()]
}

// run is the dispatch loop: decode one opcode, execute it, repeat until
// OP_RETURN or a runtime error.
func (vm *VM) run() InterpretResult {
	for {
		op := chunk.Opcode(vm.readByte())
		switch op {
		case chunk.OpConstant:
			vm.push(vm.readConstant())

		case chunk.OpNil:
			vm.push(value.NilValue)
		case chunk.OpTrue:
			vm.push(value.BoolValue(true))
		case chunk.OpFalse:
			vm.push(value.BoolValue(false))

		case chunk.OpPop:
			vm.pop()

		case chunk.OpGetLocal:
			slot := vm.readByte()
			vm.push(vm.stack[slot])
		case chunk.OpSetLocal:
			slot := vm.readByte()
			vm.stack[slot] = vm.peek(0)

		case chunk.OpGetGlobal:
			name := vm.readConstant().Obj
			val, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("undefined variable '%s'", name.Str)
			}
			vm.push(val)

		case chunk.OpDefineGlobal:
			name := vm.readConstant().Obj
			vm.globals.Set(name, vm.peek(0))
			vm.pop()

		case chunk.OpSetGlobal:
			name := vm.readConstant().Obj
			if vm.globals.Set(name, vm.peek(0)) {
				// Set reports true for a fresh key: this name was never
				// defined, so undo the insert and report the error rather
				// than silently creating the global.
				vm.globals.Delete(name)
				return vm.runtimeError("undefined variable '%s'", name.Str)
			}

		case chunk.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.BoolValue(value.Equal(a, b)))

		case chunk.OpGreater:
			if res := vm.binaryNumeric(func(a, b float64) value.Value { return value.BoolValue(a > b) }); res != OK {
				return res
			}
		case chunk.OpLess:
			if res := vm.binaryNumeric(func(a, b float64) value.Value { return value.BoolValue(a < b) }); res != OK {
				return res
			}

		case chunk.OpAdd:
			if res := vm.add(); res != OK {
				return res
			}
		case chunk.OpSubtract:
			if res := vm.binaryNumeric(func(a, b float64) value.Value { return value.NumberValue(a - b) }); res != OK {
				return res
			}
		case chunk.OpMultiply:
			if res := vm.binaryNumeric(func(a, b float64) value.Value { return value.NumberValue(a * b) }); res != OK {
				return res
			}
		case chunk.OpDivide:
			if res := vm.binaryNumeric(func(a, b float64) value.Value { return value.NumberValue(a / b) }); res != OK {
				return res
			}

		case chunk.OpNot:
			vm.push(value.BoolValue(vm.pop().Falsey()))

		case chunk.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("operand must be a number")
			}
			n := vm.pop().Number
			vm.push(value.NumberValue(-n))

		case chunk.OpPrint:
			fmt.Fprintln(vm.Stdout, vm.pop())

		case chunk.OpReturn:
			return OK

		default:
			return vm.runtimeError("unknown opcode %d", op)
		}
	}
}

// add implements OP_ADD's two overloads: numeric addition, and string
// concatenation (which interns the result through the shared heap so later
// equality checks and further concatenations see one canonical handle).
func (vm *VM) add() InterpretResult {
	b := vm.peek(0)
	a := vm.peek(1)

	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(value.NumberValue(a.Number + b.Number))
		return OK
	case a.IsString() && b.IsString():
		vm.pop()
		vm.pop()
		obj := vm.heap.TakeString(a.AsString() + b.AsString())
		vm.push(value.ObjValue(obj))
		return OK
	default:
		return vm.runtimeError("operands must be two numbers or two strings")
	}
}

func (vm *VM) binaryNumeric(op func(a, b float64) value.Value) InterpretResult {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("operands must be numbers")
	}
	b := vm.pop()
	a := vm.pop()
	vm.push(op(a.Number, b.Number))
	return OK
}

// runtimeError prints a formatted diagnostic tagged with the source line
// the faulting instruction came from, resets the stack (the VM is not
// reused mid-program after a runtime error), and reports RuntimeErr.
func (vm *VM) runtimeError(format string, args ...any) InterpretResult {
	message := fmt.Sprintf(format, args...)
	line := vm.chunk.Lines[vm.ip-1]
	fmt.Fprintf(os.Stderr, "💥 %s\n[line %d] in script\n", message, line)
	vm.resetStack()
	return RuntimeErr
}
