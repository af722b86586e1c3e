package iterator

import "github.com/INLOpen/tombstones/core"

// RangeDeletedChecker reports whether a cell written at timestamp under name
// is shadowed by a deletion.
type RangeDeletedChecker func(name []byte, timestamp int64) bool

// SkippingRangeDeletedIterator wraps an existing iterator and skips cells
// covered by a range tombstone.
type SkippingRangeDeletedIterator struct {
	underlying     Interface
	isRangeDeleted RangeDeletedChecker
	skipped        int
}

// NewSkippingRangeDeletedIterator creates a new iterator that skips deleted cells.
func NewSkippingRangeDeletedIterator(underlying Interface, checker RangeDeletedChecker) *SkippingRangeDeletedIterator {
	return &SkippingRangeDeletedIterator{
		underlying:     underlying,
		isRangeDeleted: checker,
	}
}

// Next advances the iterator to the next cell not covered by a range tombstone.
func (it *SkippingRangeDeletedIterator) Next() bool {
	for it.underlying.Next() {
		cell := it.underlying.At()
		if !it.isRangeDeleted(cell.Name, cell.Timestamp) {
			return true
		}
		it.skipped++
	}
	return false
}

func (it *SkippingRangeDeletedIterator) At() core.Cell { return it.underlying.At() }

// Skipped returns the number of cells dropped so far.
func (it *SkippingRangeDeletedIterator) Skipped() int { return it.skipped }

// Error returns any error from the underlying iterator.
func (it *SkippingRangeDeletedIterator) Error() error { return it.underlying.Error() }

// Close closes the underlying iterator.
func (it *SkippingRangeDeletedIterator) Close() error { return it.underlying.Close() }
