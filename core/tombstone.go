package core

import "fmt"

// RangeTombstone represents a deletion of every name in [Start, End], both
// bounds inclusive.
type RangeTombstone struct {
	Start Bound
	End   Bound
	DeletionTime
}

// NewRangeTombstone builds a RangeTombstone from its four components.
func NewRangeTombstone(start, end Bound, markedAt int64, localDeletionTime int32) RangeTombstone {
	return RangeTombstone{
		Start:        start,
		End:          end,
		DeletionTime: DeletionTime{MarkedAt: markedAt, LocalDeletionTime: localDeletionTime},
	}
}

// Contains returns true if name lies within the tombstone bounds.
func (t RangeTombstone) Contains(cmp Comparator, name []byte) bool {
	return cmp(t.Start, name) <= 0 && cmp(name, t.End) <= 0
}

// IsPoint reports whether the tombstone covers a single name.
func (t RangeTombstone) IsPoint(cmp Comparator) bool {
	return cmp(t.Start, t.End) == 0
}

func (t RangeTombstone) String() string {
	return fmt.Sprintf("[%x, %x]@%d", t.Start, t.End, t.MarkedAt)
}
