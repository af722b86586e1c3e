package rangetombstone

import (
	"sort"

	"github.com/INLOpen/tombstones/core"
)

// IsDeleted returns whether a write of name at timestamp is shadowed by one of
// the tombstones of the list.
func (l *List) IsDeleted(name []byte, timestamp int64) bool {
	idx := l.searchInternal(name)
	return idx >= 0 && l.entries[idx].MarkedAt >= timestamp
}

// Search returns the deletion time of the tombstone covering name, if any.
// When several tombstones share name as a bound, the one with the highest
// MarkedAt is returned.
func (l *List) Search(name []byte) (core.DeletionTime, bool) {
	idx := l.searchInternal(name)
	if idx < 0 {
		return core.DeletionTime{}, false
	}
	return l.entries[idx].DeletionTime, true
}

// searchInternal returns the index of the tombstone covering name, or -1.
func (l *List) searchInternal(name []byte) int {
	if l.IsEmpty() {
		return -1
	}
	pos := sort.Search(len(l.entries), func(k int) bool {
		return l.cmp(l.entries[k].Start, name) >= 0
	})
	if pos < len(l.entries) && l.cmp(l.entries[pos].Start, name) == 0 {
		return l.boundaryWinner(pos, name)
	}
	// We can only intersect the range before the insertion point.
	idx := pos - 1
	if idx < 0 || l.cmp(name, l.entries[idx].End) > 0 {
		return -1
	}
	return idx
}

// boundaryWinner picks the tombstone applying to name when entry pos starts
// exactly on name. Any entry starting on name after pos (pos being a single
// name) and the previous entry if it ends on name also cover it; the previous
// one only wins with a strictly higher MarkedAt.
func (l *List) boundaryWinner(pos int, name []byte) int {
	best := pos
	for k := pos + 1; k < len(l.entries) && l.cmp(l.entries[k].Start, name) == 0; k++ {
		if l.entries[k].MarkedAt > l.entries[best].MarkedAt {
			best = k
		}
	}
	if pos > 0 && l.cmp(name, l.entries[pos-1].End) == 0 && l.entries[pos-1].MarkedAt > l.entries[best].MarkedAt {
		return pos - 1
	}
	return best
}

// InOrderTester tests whether names are deleted, assuming they are given in
// non-decreasing comparator order. This is cheaper than repeated calls to
// List.IsDeleted because it never searches the part of the list it already
// went past.
//
// A tester notices when its list is mutated or when it is given a name out of
// order, and then repositions itself with a binary search.
type InOrderTester struct {
	list       *List
	idx        int
	generation uint64
	last       []byte
	started    bool
}

// InOrderTester returns a new tester positioned at the start of the list.
func (l *List) InOrderTester() *InOrderTester {
	if l == nil {
		return &InOrderTester{}
	}
	return &InOrderTester{list: l, generation: l.generation}
}

// IsDeleted returns whether a write of name at timestamp is shadowed.
func (t *InOrderTester) IsDeleted(name []byte, timestamp int64) bool {
	idx := t.advance(name)
	return idx >= 0 && t.list.entries[idx].MarkedAt >= timestamp
}

// Search returns the deletion time covering name, if any.
func (t *InOrderTester) Search(name []byte) (core.DeletionTime, bool) {
	idx := t.advance(name)
	if idx < 0 {
		return core.DeletionTime{}, false
	}
	return t.list.entries[idx].DeletionTime, true
}

func (t *InOrderTester) advance(name []byte) int {
	l := t.list
	if l.IsEmpty() {
		return -1
	}
	if t.generation != l.generation || (t.started && l.cmp(name, t.last) < 0) {
		t.generation = l.generation
		t.idx = l.searchEnds(name)
	}
	// Callers may reuse the name buffer.
	t.last = append(t.last[:0], name...)
	t.started = true

	for t.idx < len(l.entries) {
		cur := l.entries[t.idx]
		c := l.cmp(name, cur.Start)
		switch {
		case c == 0:
			return l.boundaryWinner(t.idx, name)
		case c < 0:
			return -1
		}
		switch e := l.cmp(name, cur.End); {
		case e < 0:
			return t.idx
		case e == 0:
			// The next entry may start on our end and take priority.
			if next := t.idx + 1; next < len(l.entries) && l.cmp(l.entries[next].Start, name) == 0 {
				return l.boundaryWinner(next, name)
			}
			return t.idx
		default:
			t.idx++
		}
	}
	return -1
}
