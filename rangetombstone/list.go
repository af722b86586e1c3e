// Package rangetombstone holds the range tombstones of a partition.
//
// A List is a sorted sequence of non-overlapping deleted ranges. Every range
// carries a deletion time whose MarkedAt timestamp decides priority between
// overlapping tombstones: given [0, 10]@t1 and [5, 15]@t2 with t2 > t1, the
// second one owns [5, 10] and the list stores [0, 5]@t1, [5, 15]@t2.
//
// The local deletion time of a tombstone is only used to decide when it can
// be purged.
//
// A nil *List reads as an empty list, and Copy, Purge and UpdateAllTimestamp
// accept it too. Add and AddAll need a list created by New.
//
// A List is not safe for concurrent use. Readers that must not observe
// concurrent writes work on a Copy.
package rangetombstone

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/INLOpen/tombstones/core"
)

// Tombstone is a single entry of a List.
type Tombstone = core.RangeTombstone

// List is a sorted list of ranges [s_0, e_0]...[s_n, e_n] such that:
//   - s_i <= e_i
//   - e_i <= s_i+1
//   - if s_i == e_i and e_i == s_i+1 then s_i+1 < e_i+1
//
// Ranges never overlap except on their bounds, and two single-name ranges on
// the same name are never adjacent.
type List struct {
	cmp     core.Comparator
	entries []Tombstone
	// generation is bumped by every public mutation; cursors use it to detect
	// staleness.
	generation uint64
}

// New creates an empty list able to hold capacity tombstones before growing.
func New(cmp core.Comparator, capacity int) *List {
	if cmp == nil {
		panic("rangetombstone: nil comparator")
	}
	if capacity < 0 {
		capacity = 0
	}
	return &List{cmp: cmp, entries: make([]Tombstone, 0, capacity)}
}

// Len returns the number of tombstones. A nil list is empty.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// IsEmpty reports whether the list holds no tombstone. A nil list is empty.
func (l *List) IsEmpty() bool {
	return l.Len() == 0
}

// Comparator returns the comparator the list was created with, nil for a
// nil list.
func (l *List) Comparator() core.Comparator {
	if l == nil {
		return nil
	}
	return l.cmp
}

// At returns the i-th tombstone.
func (l *List) At(i int) Tombstone {
	return l.entries[i]
}

func (l *List) capacity() int {
	return cap(l.entries)
}

// Copy returns a list with the same content that shares no entry storage
// with l. Bounds are immutable and therefore shared. The copy of a nil list
// is nil.
func (l *List) Copy() *List {
	if l == nil {
		return nil
	}
	entries := make([]Tombstone, len(l.entries))
	copy(entries, l.entries)
	return &List{cmp: l.cmp, entries: entries}
}

// Equal reports whether both lists hold the same tombstones, comparing all
// four fields of every entry in order.
func (l *List) Equal(other *List) bool {
	if l.Len() != other.Len() {
		return false
	}
	for i := 0; i < l.Len(); i++ {
		a, b := l.entries[i], other.entries[i]
		if a.DeletionTime != b.DeletionTime || !bytes.Equal(a.Start, b.Start) || !bytes.Equal(a.End, b.End) {
			return false
		}
	}
	return true
}

func (l *List) String() string {
	if l.IsEmpty() {
		return "[]"
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for i, t := range l.entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

// Validate checks the ordering invariants and returns an error describing the
// first violation found.
func (l *List) Validate() error {
	for i := 0; i < l.Len(); i++ {
		t := l.entries[i]
		if l.cmp(t.Start, t.End) > 0 {
			return fmt.Errorf("entry %d %s: start after end", i, t)
		}
		if i == 0 {
			continue
		}
		prev := l.entries[i-1]
		if l.cmp(prev.End, t.Start) > 0 {
			return fmt.Errorf("entries %d %s and %d %s overlap", i-1, prev, i, t)
		}
		if l.cmp(prev.Start, prev.End) == 0 && l.cmp(prev.End, t.Start) == 0 && l.cmp(t.Start, t.End) == 0 {
			return fmt.Errorf("entries %d %s and %d %s are repeated single-name ranges", i-1, prev, i, t)
		}
	}
	return nil
}

// set overwrites entry i.
func (l *List) set(i int, start, end []byte, markedAt int64, delTime int32) {
	l.entries[i] = core.NewRangeTombstone(start, end, markedAt, delTime)
}

// addInternal inserts a tombstone at index i, growing and shifting as needed.
func (l *List) addInternal(i int, start, end []byte, markedAt int64, delTime int32) {
	assertf(i >= 0 && i <= len(l.entries), "insert index %d out of range [0, %d]", i, len(l.entries))
	l.makeRoom(i)
	l.set(i, start, end, markedAt, delTime)
}

// makeRoom grows the list by one, leaving index i free. When full, the backing
// array is reallocated to cap*3/2+1 and entries are copied around the hole in
// a single pass.
func (l *List) makeRoom(i int) {
	size := len(l.entries)
	if size == l.capacity() {
		grown := make([]Tombstone, size+1, l.capacity()*3/2+1)
		copy(grown, l.entries[:i])
		copy(grown[i+1:], l.entries[i:])
		l.entries = grown
		return
	}
	l.entries = l.entries[:size+1]
	copy(l.entries[i+1:], l.entries[i:size])
}

// removeInternal deletes entry i, shifting the following ones down.
func (l *List) removeInternal(i int) {
	assertf(i >= 0 && i < len(l.entries), "remove index %d out of range [0, %d)", i, len(l.entries))
	size := len(l.entries)
	copy(l.entries[i:], l.entries[i+1:])
	l.entries[size-1] = Tombstone{}
	l.entries = l.entries[:size-1]
}

// ensureCapacity grows the backing array to hold at least n entries.
func (l *List) ensureCapacity(n int) {
	if l.capacity() >= n {
		return
	}
	grown := make([]Tombstone, len(l.entries), n)
	copy(grown, l.entries)
	l.entries = grown
}

func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("rangetombstone: "+format, args...))
	}
}
