package rangetombstone

import "iter"

// Iterator walks the tombstones of a list in order.
// It is invalidated by any mutation of the list.
type Iterator struct {
	list *List
	idx  int
}

// Iterator returns an iterator positioned before the first tombstone.
func (l *List) Iterator() *Iterator {
	return &Iterator{list: l, idx: -1}
}

// Next advances to the next tombstone.
func (it *Iterator) Next() bool {
	if it.idx+1 >= it.list.Len() {
		it.idx = it.list.Len()
		return false
	}
	it.idx++
	return true
}

// At returns the current tombstone.
func (it *Iterator) At() Tombstone {
	return it.list.entries[it.idx]
}

// All returns an iterator over the index and value of every tombstone.
func (l *List) All() iter.Seq2[int, Tombstone] {
	return func(yield func(int, Tombstone) bool) {
		for i := 0; i < l.Len(); i++ {
			if !yield(i, l.entries[i]) {
				return
			}
		}
	}
}
