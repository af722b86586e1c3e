package rangetombstone

import "sort"

// addAllMergeRatio is the size ratio above which AddAll inserts the smaller
// list one tombstone at a time instead of merging both lists linearly.
const addAllMergeRatio = 10

// AddTombstone adds t to the list.
func (l *List) AddTombstone(t Tombstone) {
	l.Add(t.Start, t.End, t.MarkedAt, t.LocalDeletionTime)
}

// Add adds the range tombstone [start, end]@markedAt.
//
// Adding in sorted order, past the end of the last tombstone, is the common
// case and appends in amortized constant time.
func (l *List) Add(start, end []byte, markedAt int64, delTime int32) {
	l.generation++
	size := len(l.entries)
	if size == 0 || l.cmp(l.entries[size-1].End, start) < 0 {
		l.addInternal(size, start, end, markedAt, delTime)
		return
	}
	l.insertFrom(l.searchEnds(start), start, end, markedAt, delTime)
}

// AddAll adds every tombstone of other to the list.
func (l *List) AddAll(other *List) {
	if other.IsEmpty() {
		return
	}
	l.generation++
	if l.IsEmpty() {
		l.ensureCapacity(other.Len())
		l.entries = append(l.entries[:0], other.entries...)
		return
	}

	// Merging is O(n+m) while repeated adds are O(m*log(n)). Merging is
	// only a bad choice when this list is much larger than other.
	if l.Len() > addAllMergeRatio*other.Len() {
		for _, t := range other.entries {
			l.Add(t.Start, t.End, t.MarkedAt, t.LocalDeletionTime)
		}
		return
	}

	i, j := 0, 0
	for i < len(l.entries) && j < len(other.entries) {
		t := other.entries[j]
		if l.cmp(t.Start, l.entries[i].End) <= 0 {
			l.insertFrom(i, t.Start, t.End, t.MarkedAt, t.LocalDeletionTime)
			j++
		} else {
			i++
		}
	}
	for ; j < len(other.entries); j++ {
		t := other.entries[j]
		l.addInternal(len(l.entries), t.Start, t.End, t.MarkedAt, t.LocalDeletionTime)
	}
}

// searchEnds returns the index of the first tombstone whose end is not
// before start.
func (l *List) searchEnds(start []byte) int {
	return sort.Search(len(l.entries), func(k int) bool {
		return l.cmp(l.entries[k].End, start) >= 0
	})
}

// insertFrom inserts [start, end]@markedAt, resolving overlaps with the
// existing tombstones from index i on. It requires ends[i-1] <= start.
func (l *List) insertFrom(i int, start, end []byte, markedAt int64, delTime int32) {
	for i < len(l.entries) {
		assertf(i == 0 || l.cmp(l.entries[i-1].End, start) <= 0, "insertion point %d is past start", i)

		cur := l.entries[i]
		c := l.cmp(start, cur.End)
		assertf(c <= 0, "insertion point %d is before start", i)
		if c == 0 {
			// The new range really starts at the next entry, unless the current
			// one is the single name start: moving past it could then produce
			// [x, x][x, x].
			if l.cmp(cur.Start, cur.End) == 0 {
				if markedAt > cur.MarkedAt {
					// The new range shadows the single name entirely.
					l.removeInternal(i)
					continue
				}
				// The single name wins. If the new range is that same single
				// name, it is fully covered.
				if l.cmp(start, end) == 0 {
					return
				}
			}
			i++
			continue
		}

		if markedAt > cur.MarkedAt {
			// The new range wins over the current entry.

			// Keep the part of the current entry that precedes start.
			if l.cmp(cur.Start, start) < 0 {
				l.addInternal(i, cur.Start, start, cur.MarkedAt, cur.LocalDeletionTime)
				i++
				cur = l.entries[i]
			}

			// From here on start <= cur.Start, at least logically.
			endCmp := l.cmp(end, cur.Start)
			if endCmp <= 0 {
				// The new range ends before the current entry. If it ends exactly
				// on a single name entry, it replaces that entry.
				if endCmp == 0 && l.cmp(cur.Start, cur.End) == 0 {
					l.set(i, start, end, markedAt, delTime)
				} else {
					l.addInternal(i, start, end, markedAt, delTime)
				}
				return
			}

			c := l.cmp(cur.End, end)
			if c <= 0 {
				// The current entry is fully overwritten.
				if i == len(l.entries)-1 {
					l.set(i, start, end, markedAt, delTime)
					return
				}
				l.set(i, start, cur.End, markedAt, delTime)
				if c == 0 {
					return
				}
				start = cur.End
				i++
			} else {
				// Only the head of the current entry is overwritten: insert the new
				// range and trim what remains of the current one.
				l.addInternal(i, start, end, markedAt, delTime)
				i++
				l.set(i, end, cur.End, cur.MarkedAt, cur.LocalDeletionTime)
				return
			}
		} else {
			// The current entry wins (ties keep the incumbent).

			if l.cmp(start, cur.Start) < 0 {
				// Insert the part of the new range that precedes the current entry.
				if l.cmp(end, cur.Start) <= 0 {
					l.addInternal(i, start, end, markedAt, delTime)
					return
				}
				l.addInternal(i, start, cur.Start, markedAt, delTime)
				i++
			}

			// Whatever overlaps the current entry is shadowed. Carry on with the
			// residue past its end, if any.
			if l.cmp(end, cur.End) <= 0 {
				return
			}
			start = cur.End
			i++
		}
	}

	l.addInternal(i, start, end, markedAt, delTime)
}
