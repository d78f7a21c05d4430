package value

// ObjKind tags an Object's variant. String is the only kind this core
// produces, but the header carries a Kind field the way the teacher's
// object model does, so a future object kind has somewhere to go.
type ObjKind int

const (
	ObjString ObjKind = iota
)

// Object is the common heap-object header. Next links into the VM's
// intrusive singly-linked list of every live object, bulk-freed at VM
// teardown (see vm.VM.Free) rather than individually garbage collected.
type Object struct {
	Kind ObjKind
	Next *Object

	// Str, Hash and Length back the ObjString variant. Strings are
	// immutable once constructed.
	Str    string
	Hash   uint32
	Length int
}

func (o *Object) String() string {
	switch o.Kind {
	case ObjString:
		return o.Str
	default:
		return "<object>"
	}
}

// FNV-1a 32-bit constants, matching the original implementation's hashString
// bit for bit (offset basis 0x811c9dc5, prime 0x01000193).
const (
	fnvOffsetBasis uint32 = 0x811c9dc5
	fnvPrime       uint32 = 0x01000193
)

// HashString computes the FNV-1a hash of s's bytes.
func HashString(s string) uint32 {
	h := fnvOffsetBasis
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

// NewString allocates a fresh, un-interned String object. Callers (heap.InternString)
// are responsible for threading it onto the VM's object list and inserting it
// into the intern set.
func NewString(s string) *Object {
	return &Object{
		Kind:   ObjString,
		Str:    s,
		Hash:   HashString(s),
		Length: len(s),
	}
}
