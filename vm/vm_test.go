package vm

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

// run interprets source against a fresh VM and returns everything printed
// to stdout, redirected through an os.Pipe since OP_PRINT writes to an
// *os.File rather than an io.Writer.
func run(t *testing.T, source string) (string, InterpretResult) {
	t.Helper()
	machine := New()
	defer machine.Free()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	machine.Stdout = w

	result := machine.Interpret(source)

	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String(), result
}

func TestInterpretPrintNumber(t *testing.T) {
	out, result := run(t, `print 1 + 2;`)
	if result != OK {
		t.Fatalf("result = %v, want OK", result)
	}
	if strings.TrimSpace(out) != "3" {
		t.Errorf("output = %q, want %q", out, "3")
	}
}

func TestInterpretStringConcatenation(t *testing.T) {
	out, result := run(t, `print "foo" + "bar";`)
	if result != OK {
		t.Fatalf("result = %v, want OK", result)
	}
	if strings.TrimSpace(out) != "foobar" {
		t.Errorf("output = %q, want %q", out, "foobar")
	}
}

func TestInterpretGlobalVariable(t *testing.T) {
	out, result := run(t, "dat x = 10; dat y = 20; print x + y;")
	if result != OK {
		t.Fatalf("result = %v, want OK", result)
	}
	if strings.TrimSpace(out) != "30" {
		t.Errorf("output = %q, want %q", out, "30")
	}
}

func TestInterpretGlobalReassignment(t *testing.T) {
	out, result := run(t, "dat x = 1; x = x + 1; print x;")
	if result != OK {
		t.Fatalf("result = %v, want OK", result)
	}
	if strings.TrimSpace(out) != "2" {
		t.Errorf("output = %q, want %q", out, "2")
	}
}

func TestInterpretBlockScopedLocal(t *testing.T) {
	out, result := run(t, `dat x = "outer"; { dat x = "inner"; print x; } print x;`)
	if result != OK {
		t.Fatalf("result = %v, want OK", result)
	}
	lines := strings.Fields(out)
	if len(lines) != 2 || lines[0] != "inner" || lines[1] != "outer" {
		t.Errorf("output = %q, want inner then outer", out)
	}
}

func TestInterpretComparisonAndEquality(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"print 1 < 2;", "true"},
		{"print 1 > 2;", "false"},
		{"print 1 == 1;", "true"},
		{"print 1 != 1;", "false"},
		{`print "a" == "a";`, "true"},
		{"print nil == nil;", "true"},
		{"print !false;", "true"},
		{"print -5;", "-5"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			out, result := run(t, tt.source)
			if result != OK {
				t.Fatalf("result = %v, want OK", result)
			}
			if strings.TrimSpace(out) != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestInterpretUndefinedGlobalReadIsRuntimeError(t *testing.T) {
	_, result := run(t, "print missing;")
	if result != RuntimeErr {
		t.Fatalf("result = %v, want RuntimeErr", result)
	}
}

func TestInterpretUndefinedGlobalAssignIsRuntimeError(t *testing.T) {
	_, result := run(t, "missing = 1;")
	if result != RuntimeErr {
		t.Fatalf("result = %v, want RuntimeErr", result)
	}
}

func TestInterpretTypeErrorOnArithmetic(t *testing.T) {
	_, result := run(t, `print "a" - 1;`)
	if result != RuntimeErr {
		t.Fatalf("result = %v, want RuntimeErr", result)
	}
}

func TestInterpretCompileErrorResult(t *testing.T) {
	_, result := run(t, "print 1")
	if result != CompileError {
		t.Fatalf("result = %v, want CompileError", result)
	}
}

func TestInterpretGlobalsPersistAcrossCalls(t *testing.T) {
	machine := New()
	defer machine.Free()

	r, w, _ := os.Pipe()
	machine.Stdout = w

	if res := machine.Interpret("dat counter = 1;"); res != OK {
		t.Fatalf("first Interpret: %v", res)
	}
	if res := machine.Interpret("counter = counter + 1;"); res != OK {
		t.Fatalf("second Interpret: %v", res)
	}
	if res := machine.Interpret("print counter;"); res != OK {
		t.Fatalf("third Interpret: %v", res)
	}

	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	if strings.TrimSpace(buf.String()) != "2" {
		t.Errorf("output = %q, want %q", buf.String(), "2")
	}
}

func TestInterpretRuntimeErrorResetsStack(t *testing.T) {
	machine := New()
	defer machine.Free()
	r, w, _ := os.Pipe()
	machine.Stdout = w
	defer r.Close()
	defer w.Close()

	machine.Interpret(`print "a" - 1;`)
	if machine.stackTop != 0 {
		t.Errorf("stackTop after runtime error = %d, want 0", machine.stackTop)
	}
}
