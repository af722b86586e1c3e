package rangetombstone

import "math"

// Purge removes every tombstone whose local deletion time is older than
// gcBefore, preserving the order of the survivors. It returns the number of
// tombstones removed.
func (l *List) Purge(gcBefore int32) int {
	if l == nil {
		return 0
	}
	j := 0
	for i := range l.entries {
		if l.entries[i].LocalDeletionTime >= gcBefore {
			l.entries[j] = l.entries[i]
			j++
		}
	}
	removed := len(l.entries) - j
	if removed == 0 {
		return 0
	}
	clear(l.entries[j:])
	l.entries = l.entries[:j]
	l.generation++
	return removed
}

// HasPurgeableTombstones returns whether Purge(gcBefore) would remove anything.
func (l *List) HasPurgeableTombstones(gcBefore int32) bool {
	for i := 0; i < l.Len(); i++ {
		if l.entries[i].LocalDeletionTime < gcBefore {
			return true
		}
	}
	return false
}

// UpdateAllTimestamp sets the MarkedAt of every tombstone to timestamp,
// leaving bounds and local deletion times untouched.
func (l *List) UpdateAllTimestamp(timestamp int64) {
	if l == nil {
		return
	}
	for i := range l.entries {
		l.entries[i].MarkedAt = timestamp
	}
	l.generation++
}

// MinMarkedAt returns the smallest MarkedAt of the list, math.MaxInt64 if empty.
func (l *List) MinMarkedAt() int64 {
	lowest := int64(math.MaxInt64)
	for i := 0; i < l.Len(); i++ {
		if l.entries[i].MarkedAt < lowest {
			lowest = l.entries[i].MarkedAt
		}
	}
	return lowest
}

// MaxMarkedAt returns the largest MarkedAt of the list, math.MinInt64 if empty.
func (l *List) MaxMarkedAt() int64 {
	highest := int64(math.MinInt64)
	for i := 0; i < l.Len(); i++ {
		if l.entries[i].MarkedAt > highest {
			highest = l.entries[i].MarkedAt
		}
	}
	return highest
}

// DataSize returns the in-memory payload size of the list: its count plus
// the bounds and deletion times of every tombstone.
func (l *List) DataSize() int {
	size := 4
	for i := 0; i < l.Len(); i++ {
		size += len(l.entries[i].Start) + len(l.entries[i].End) + 8 + 4
	}
	return size
}
