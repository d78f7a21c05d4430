// Package value defines Slorp's runtime value model: the tagged Value union
// shared by the compiler's constant pool and the VM's value stack, plus the
// heap Object header that every reference-typed value points into.
package value

import (
	"fmt"
	"math"
)

// Kind tags a Value's active variant.
type Kind int

const (
	Nil Kind = iota
	Bool
	Number
	Obj
)

// Value is Slorp's tagged runtime value. Exactly one of the payload fields
// is meaningful, selected by Kind.
type Value struct {
	Kind   Kind
	Bool   bool
	Number float64
	Obj    *Object
}

// NilValue is the canonical nil.
var NilValue = Value{Kind: Nil}

func BoolValue(b bool) Value       { return Value{Kind: Bool, Bool: b} }
func NumberValue(n float64) Value  { return Value{Kind: Number, Number: n} }
func ObjValue(o *Object) Value     { return Value{Kind: Obj, Obj: o} }

func (v Value) IsNil() bool    { return v.Kind == Nil }
func (v Value) IsBool() bool   { return v.Kind == Bool }
func (v Value) IsNumber() bool { return v.Kind == Number }
func (v Value) IsObj() bool    { return v.Kind == Obj }

func (v Value) IsString() bool {
	return v.Kind == Obj && v.Obj.Kind == ObjString
}

// AsString returns the Go string backing a String object. Panics if v is
// not a string; callers must check IsString first (the VM only calls this
// after an opcode-specific type check).
func (v Value) AsString() string {
	return v.Obj.Str
}

// Falsey reports whether v is falsey: Nil and false are falsey, everything
// else (including 0 and "") is truthy.
func (v Value) Falsey() bool {
	return v.IsNil() || (v.IsBool() && !v.Bool)
}

// Equal implements Slorp's == operator semantics: same Kind required, NaN
// never equal to itself, object identity (not structural equality) for
// Obj values — safe because strings are interned so identical content
// always shares one handle.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Nil:
		return true
	case Bool:
		return a.Bool == b.Bool
	case Number:
		return a.Number == b.Number
	case Obj:
		return a.Obj == b.Obj
	default:
		return false
	}
}

// String renders a Value for `print` and for disassembly / debugging.
func (v Value) String() string {
	switch v.Kind {
	case Nil:
		return "nil"
	case Bool:
		if v.Bool {
			return "true"
		}
		return "false"
	case Number:
		if math.IsInf(v.Number, 0) || math.IsNaN(v.Number) {
			return fmt.Sprintf("%g", v.Number)
		}
		return strconvTrim(v.Number)
	case Obj:
		return v.Obj.String()
	default:
		return "<invalid value>"
	}
}

// strconvTrim renders a float64 the way Slorp programs expect their numbers
// printed: no trailing ".0" noise for integral values, full precision
// otherwise.
func strconvTrim(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}
