// Package iterator provides ordered cell iterators and the wrappers that
// filter them through deletion information.
package iterator

import (
	"container/heap"

	"github.com/INLOpen/tombstones/core"
)

// Interface defines a common interface for all cell iterators.
type Interface interface {
	Next() bool
	// At returns the current cell. Its slices are only valid until the next
	// call to Next.
	At() core.Cell
	Error() error
	Close() error
}

var (
	_ Interface = (*EmptyIterator)(nil)
	_ Interface = (*SliceIterator)(nil)
	_ Interface = (*MergingIterator)(nil)
	_ Interface = (*SkippingRangeDeletedIterator)(nil)
)

// EmptyIterator is an iterator that is always exhausted.
type EmptyIterator struct{}

// NewEmptyIterator creates a new empty iterator.
func NewEmptyIterator() Interface {
	return &EmptyIterator{}
}

func (it *EmptyIterator) Next() bool    { return false }
func (it *EmptyIterator) At() core.Cell { return core.Cell{} }
func (it *EmptyIterator) Error() error  { return nil }
func (it *EmptyIterator) Close() error  { return nil }

// SliceIterator iterates over cells already held in memory, in slice order.
type SliceIterator struct {
	cells []core.Cell
	idx   int
}

// NewSliceIterator returns an iterator over cells. The slice is not copied.
func NewSliceIterator(cells []core.Cell) *SliceIterator {
	return &SliceIterator{cells: cells, idx: -1}
}

func (it *SliceIterator) Next() bool {
	if it.idx+1 >= len(it.cells) {
		it.idx = len(it.cells)
		return false
	}
	it.idx++
	return true
}

func (it *SliceIterator) At() core.Cell {
	if it.idx < 0 || it.idx >= len(it.cells) {
		return core.Cell{}
	}
	return it.cells[it.idx]
}

func (it *SliceIterator) Error() error { return nil }
func (it *SliceIterator) Close() error { return nil }

// mergingItem is a source of the merge with a private copy of its current cell.
type mergingItem struct {
	iter Interface
	cell core.Cell
}

// mergingHeap orders sources by cell name, then by descending timestamp so
// that the newest version of a name surfaces first.
type mergingHeap struct {
	items []*mergingItem
	cmp   core.Comparator
}

func (h *mergingHeap) Len() int { return len(h.items) }
func (h *mergingHeap) Less(i, j int) bool {
	if c := h.cmp(h.items[i].cell.Name, h.items[j].cell.Name); c != 0 {
		return c < 0
	}
	return h.items[i].cell.Timestamp > h.items[j].cell.Timestamp
}
func (h *mergingHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *mergingHeap) Push(x any)   { h.items = append(h.items, x.(*mergingItem)) }
func (h *mergingHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	h.items = old[:n-1]
	return item
}

// MergingIterator combines sorted iterators into a single sorted view in
// which every name appears once, with its newest cell.
type MergingIterator struct {
	iters   []Interface
	heap    *mergingHeap
	current core.Cell
	err     error
}

// NewMergingIterator primes every source and returns the merged view. Each
// source must yield cells in non-decreasing cmp order of their names.
func NewMergingIterator(cmp core.Comparator, iters ...Interface) (*MergingIterator, error) {
	mi := &MergingIterator{
		iters: iters,
		heap:  &mergingHeap{items: make([]*mergingItem, 0, len(iters)), cmp: cmp},
	}
	for _, it := range iters {
		if it.Next() {
			mi.heap.items = append(mi.heap.items, &mergingItem{iter: it, cell: copyCell(it.At())})
		} else if err := it.Error(); err != nil {
			mi.Close()
			return nil, err
		}
	}
	heap.Init(mi.heap)
	return mi, nil
}

func (mi *MergingIterator) Next() bool {
	if mi.err != nil || mi.heap == nil || mi.heap.Len() == 0 {
		mi.current = core.Cell{}
		return false
	}

	top := heap.Pop(mi.heap).(*mergingItem)
	if err := mi.advance(top); err != nil {
		mi.err = err
		return false
	}
	// Older versions of the same name are dropped.
	for mi.heap.Len() > 0 && mi.heap.cmp(mi.heap.items[0].cell.Name, top.cell.Name) == 0 {
		if err := mi.advance(heap.Pop(mi.heap).(*mergingItem)); err != nil {
			mi.err = err
			return false
		}
	}
	mi.current = top.cell
	return true
}

// advance moves item's source forward and pushes its next cell back, if any.
func (mi *MergingIterator) advance(item *mergingItem) error {
	if item.iter.Next() {
		heap.Push(mi.heap, &mergingItem{iter: item.iter, cell: copyCell(item.iter.At())})
		return nil
	}
	return item.iter.Error()
}

func (mi *MergingIterator) At() core.Cell { return mi.current }
func (mi *MergingIterator) Error() error  { return mi.err }

// Close closes every source and returns the first error.
func (mi *MergingIterator) Close() error {
	var firstErr error
	for _, it := range mi.iters {
		if err := it.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	mi.iters = nil
	mi.heap = nil
	return firstErr
}

func copyCell(c core.Cell) core.Cell {
	return core.Cell{
		Name:      append([]byte(nil), c.Name...),
		Value:     append([]byte(nil), c.Value...),
		Timestamp: c.Timestamp,
	}
}
