package compiler

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"slorp/chunk"
	"slorp/heap"
)

func compile(t *testing.T, source string) *chunk.Chunk {
	t.Helper()
	c, err := Compile(source, heap.New())
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	return c
}

func TestCompileNumberLiteral(t *testing.T) {
	c := compile(t, "1;")
	want := []chunk.Opcode{chunk.OpConstant, chunk.OpPop, chunk.OpReturn}
	assertOps(t, c, want)
}

func TestCompileArithmeticPrecedence(t *testing.T) {
	// 1 + 2 * 3 must compile as 1, 2, 3, MULTIPLY, ADD -- * binds tighter.
	c := compile(t, "1 + 2 * 3;")
	wantConstants := 3
	if len(c.Constants) != wantConstants {
		t.Fatalf("got %d constants, want %d", len(c.Constants), wantConstants)
	}
	ops := opsOf(c)
	mulIdx := indexOf(ops, chunk.OpMultiply)
	addIdx := indexOf(ops, chunk.OpAdd)
	if mulIdx == -1 || addIdx == -1 || mulIdx > addIdx {
		t.Errorf("expected MULTIPLY before ADD, got %v", ops)
	}
}

func TestCompileComparisonCompoundOpcodes(t *testing.T) {
	tests := []struct {
		source string
		want   []chunk.Opcode
	}{
		{"1 != 2;", []chunk.Opcode{chunk.OpConstant, chunk.OpConstant, chunk.OpEqual, chunk.OpNot, chunk.OpPop, chunk.OpReturn}},
		{"1 >= 2;", []chunk.Opcode{chunk.OpConstant, chunk.OpConstant, chunk.OpLess, chunk.OpNot, chunk.OpPop, chunk.OpReturn}},
		{"1 <= 2;", []chunk.Opcode{chunk.OpConstant, chunk.OpConstant, chunk.OpGreater, chunk.OpNot, chunk.OpPop, chunk.OpReturn}},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assertOps(t, compile(t, tt.source), tt.want)
		})
	}
}

func TestCompileDatDeclarationGlobalDefaultsToNil(t *testing.T) {
	c := compile(t, "dat x;")
	want := []chunk.Opcode{chunk.OpNil, chunk.OpDefineGlobal, chunk.OpReturn}
	assertOps(t, c, want)
}

func TestCompileLocalVariableUsesSlotOpcodes(t *testing.T) {
	c := compile(t, "{ dat x = 1; x = 2; print x; }")
	ops := opsOf(c)
	if indexOf(ops, chunk.OpSetLocal) == -1 {
		t.Errorf("expected OP_SET_LOCAL in %v", ops)
	}
	if indexOf(ops, chunk.OpGetLocal) == -1 {
		t.Errorf("expected OP_GET_LOCAL in %v", ops)
	}
	if indexOf(ops, chunk.OpGetGlobal) != -1 || indexOf(ops, chunk.OpSetGlobal) != -1 {
		t.Errorf("a block-scoped local must never compile to a global opcode: %v", ops)
	}
}

func TestCompileErrorSelfReferentialInitializer(t *testing.T) {
	_, err := Compile("{ dat x = x; }", heap.New())
	if err == nil {
		t.Fatal("expected an error for self-referential initializer")
	}
	if !strings.Contains(err.Error(), "own initializer") {
		t.Errorf("error message does not mention the self-reference: %v", err)
	}
}

func TestCompileErrorDuplicateLocalInSameScope(t *testing.T) {
	_, err := Compile("{ dat x = 1; dat x = 2; }", heap.New())
	if err == nil {
		t.Fatal("expected an error for a duplicate local name in the same scope")
	}
}

func TestCompileAllowsShadowingInNestedScope(t *testing.T) {
	_, err := Compile("dat x = 1; { dat x = 2; print x; }", heap.New())
	if err != nil {
		t.Errorf("shadowing in a nested scope must be legal: %v", err)
	}
}

func TestCompileErrorInvalidAssignmentTarget(t *testing.T) {
	_, err := Compile("1 = 2;", heap.New())
	if err == nil {
		t.Fatal("expected an error assigning to a non-variable target")
	}
}

func TestCompileErrorMissingSemicolon(t *testing.T) {
	_, err := Compile("print 1", heap.New())
	if err == nil {
		t.Fatal("expected an error for a missing ';'")
	}
}

func TestCompileCollectsMultipleErrors(t *testing.T) {
	_, err := Compile("print 1\nprint 2\n", heap.New())
	if err == nil {
		t.Fatal("expected errors")
	}
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("expected *CompileError, got %T", err)
	}
	if len(ce.Errors) < 2 {
		t.Errorf("expected synchronize to recover and find a second error, got %d: %v", len(ce.Errors), ce.Errors)
	}
}

func TestCompileStringLiteralInternsThroughHeap(t *testing.T) {
	h := heap.New()
	c, err := Compile(`dat s = "hi";`, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	foundConst := false
	for _, v := range c.Constants {
		if v.IsString() && v.AsString() == "hi" {
			foundConst = true
		}
	}
	if !foundConst {
		t.Error("expected the string literal to appear in the constant pool")
	}
}

func opsOf(c *chunk.Chunk) []chunk.Opcode {
	var ops []chunk.Opcode
	i := 0
	for i < len(c.Code) {
		op := chunk.Opcode(c.Code[i])
		ops = append(ops, op)
		i += 1 + operandWidthForTest(op)
	}
	return ops
}

// operandWidthForTest mirrors chunk.Opcode.operandWidth without depending
// on an unexported method across packages.
func operandWidthForTest(op chunk.Opcode) int {
	switch op {
	case chunk.OpConstant, chunk.OpGetLocal, chunk.OpSetLocal, chunk.OpGetGlobal, chunk.OpSetGlobal, chunk.OpDefineGlobal:
		return 1
	default:
		return 0
	}
}

func indexOf(ops []chunk.Opcode, target chunk.Opcode) int {
	for i, op := range ops {
		if op == target {
			return i
		}
	}
	return -1
}

func assertOps(t *testing.T, c *chunk.Chunk, want []chunk.Opcode) {
	t.Helper()
	got := opsOf(c)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("opcode sequence mismatch (-want +got):\n%s", diff)
	}
}
