// Package table implements the open-addressing hash table shared by the VM
// for two roles: the string intern set (keyed by content, deduplicating
// String objects) and the globals table (keyed by identity, since interned
// strings make pointer equality sufficient). One implementation serves both.
package table

import "slorp/value"

// entryState distinguishes a truly empty slot from a tombstone (a deleted
// entry whose probe chain must stay intact). Losing this distinction would
// truncate probe chains under linear probing and silently drop live entries.
type entryState int

const (
	stateEmpty entryState = iota
	stateTombstone
	stateLive
)

type entry struct {
	key   *value.Object // nil for empty and tombstone slots
	val   value.Value
	state entryState
}

const initialCapacity = 8
const maxLoadFactor = 0.75

// Table is an open-addressed hash map from interned-string handles to
// Values, using linear probing for collision resolution.
type Table struct {
	count     int // insertions since the last grow; Delete does not subtract
	tombstone int // deleted-but-occupied slots
	entries   []entry
}

// New returns an empty Table. Capacity is allocated lazily on first Set.
func New() *Table {
	return &Table{}
}

// Count reports the number of fresh insertions since the table last grew.
// Delete does not decrement it, so it equals the number of live entries
// only while nothing has been deleted since the last resize.
func (t *Table) Count() int { return t.count }

// Set inserts or overwrites key => val. It returns true iff key was not
// already present (a fresh insertion, possibly reusing a tombstone slot).
func (t *Table) Set(key *value.Object, val value.Value) bool {
	if len(t.entries) == 0 || float64(t.count+t.tombstone+1) > float64(len(t.entries))*maxLoadFactor {
		t.grow()
	}

	e, isNew := t.findSlot(key)
	if isNew {
		t.count++
	}
	e.key = key
	e.val = val
	e.state = stateLive
	return isNew
}

// Get looks up key's value.
func (t *Table) Get(key *value.Object) (value.Value, bool) {
	if len(t.entries) == 0 {
		return value.NilValue, false
	}
	e := t.probe(key)
	if e == nil || e.state != stateLive {
		return value.NilValue, false
	}
	return e.val, true
}

// Delete replaces key's slot with a tombstone. Count is not decremented and
// the tombstone counter goes up by one, so the load-factor check in Set
// (count + tombstones) never shrinks after a deletion; only grow resets it.
func (t *Table) Delete(key *value.Object) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.probe(key)
	if e == nil || e.state != stateLive {
		return false
	}
	e.key = nil
	e.val = value.NilValue
	e.state = stateTombstone
	t.tombstone++
	return true
}

// AddAll copies every live entry from src into t. grow does its own
// reinsertion and does not call it.
func (t *Table) AddAll(src *Table) {
	for i := range src.entries {
		e := &src.entries[i]
		if e.state == stateLive {
			t.Set(e.key, e.val)
		}
	}
}

// FindKey looks up a string by content (length, hash, then bytes) rather
// than identity — the one operation that must work before the candidate
// string is itself an interned object. It stops at the first truly empty
// slot; tombstones are skipped so the probe chain stays intact.
func (t *Table) FindKey(chars string, hash uint32) *value.Object {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	index := hash & mask
	for {
		e := &t.entries[index]
		switch e.state {
		case stateEmpty:
			return nil
		case stateLive:
			if e.key.Length == len(chars) && e.key.Hash == hash && e.key.Str == chars {
				return e.key
			}
		}
		index = (index + 1) & mask
	}
}

// findSlot locates the slot key belongs in, for insertion: either its
// existing live slot, or the first tombstone/empty slot on its probe chain
// (preferring the earliest tombstone so deletions don't permanently bloat
// the chain). isNew reports whether this is a fresh key.
func (t *Table) findSlot(key *value.Object) (e *entry, isNew bool) {
	mask := uint32(len(t.entries) - 1)
	index := key.Hash & mask
	var tombstone *entry
	for {
		slot := &t.entries[index]
		switch slot.state {
		case stateEmpty:
			if tombstone != nil {
				return tombstone, true
			}
			return slot, true
		case stateTombstone:
			if tombstone == nil {
				tombstone = slot
			}
		case stateLive:
			if slot.key == key {
				return slot, false
			}
		}
		index = (index + 1) & mask
	}
}

// probe walks key's probe chain by identity (keys are always interned
// strings, so pointer equality suffices) and returns the slot it lives in,
// or nil if the chain runs out without finding it.
func (t *Table) probe(key *value.Object) *entry {
	mask := uint32(len(t.entries) - 1)
	index := key.Hash & mask
	for {
		e := &t.entries[index]
		switch e.state {
		case stateEmpty:
			return nil
		case stateLive:
			if e.key == key {
				return e
			}
		}
		index = (index + 1) & mask
	}
}

// grow doubles capacity (starting at 8), drops tombstones, and reinserts
// every live entry at its new probe position.
func (t *Table) grow() {
	newCap := initialCapacity
	if len(t.entries) > 0 {
		newCap = len(t.entries) * 2
	}
	old := t.entries
	t.entries = make([]entry, newCap)
	t.count = 0
	t.tombstone = 0
	for i := range old {
		if old[i].state == stateLive {
			t.Set(old[i].key, old[i].val)
		}
	}
}
