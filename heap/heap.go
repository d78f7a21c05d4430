// Package heap owns Slorp's object lifetime: the intrusive linked list of
// every live heap object and the string intern set layered on top of it.
// It is the structure the compiler and VM share — the compiler interns
// identifier and string-literal constants into it while compiling, the VM
// interns the result of string concatenation into it while running, and
// both see the same intern set because both hold a pointer to the same
// Heap. Objects are never freed individually; Free() releases them all in
// bulk, mirroring the original implementation's allocate-until-teardown
// model (no garbage collector is in scope).
package heap

import (
	"slorp/table"
	"slorp/value"
)

// Heap is the shared object-lifetime owner. A Heap is created once per VM
// and lent to the compiler for the duration of a single compile call.
type Heap struct {
	strings *table.Table
	objects *value.Object // head of the intrusive linked list of live objects
}

// New returns an empty Heap with an empty intern set.
func New() *Heap {
	return &Heap{strings: table.New()}
}

// Strings exposes the intern set, e.g. for inspecting it in tests.
func (h *Heap) Strings() *table.Table { return h.strings }

// InternString returns the unique String object for s, allocating and
// linking a new one only if no live object with these exact bytes exists
// yet. InternString and TakeString are the only ways the compiler and VM
// obtain String objects, which is what makes handle equality a valid
// implementation of string equality.
func (h *Heap) InternString(s string) *value.Object {
	hash := value.HashString(s)
	if existing := h.strings.FindKey(s, hash); existing != nil {
		return existing
	}
	obj := value.NewString(s)
	h.link(obj)
	// Table.Set needs a Value; the intern set doesn't care what value a
	// key maps to, so store Nil and keep this an ordinary Table operation.
	h.strings.Set(obj, value.NilValue)
	return obj
}

// TakeString hands ownership of a freshly concatenated string to the heap.
// If an equal string is already interned, the fresh one is discarded (there
// is nothing to free explicitly in Go — it is simply never linked) and the
// existing handle is reused; otherwise the new object is linked and
// interned. This is the "take string" path spec'd for OP_ADD's string case.
func (h *Heap) TakeString(s string) *value.Object {
	hash := value.HashString(s)
	if existing := h.strings.FindKey(s, hash); existing != nil {
		return existing
	}
	obj := &value.Object{Kind: value.ObjString, Str: s, Hash: hash, Length: len(s)}
	h.link(obj)
	h.strings.Set(obj, value.NilValue)
	return obj
}

func (h *Heap) link(obj *value.Object) {
	obj.Next = h.objects
	h.objects = obj
}

// Free releases every object the heap has linked since creation, along with
// the intern set itself. Go's GC reclaims the memory once nothing
// references these objects anymore; Free's job is only to drop the heap's
// own references so that happens, matching the "bulk free at teardown"
// contract without hand-rolled deallocation.
func (h *Heap) Free() {
	h.objects = nil
	h.strings = table.New()
}
