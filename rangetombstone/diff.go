package rangetombstone

// Diff returns the tombstones of superset that are missing from l or differ
// from l's by bounds or MarkedAt, for read repair. Local deletion times are
// ignored. It returns nil when there is no difference.
//
// l must be a subset of superset, which is typically the merge of every
// replica's response. This is not checked: the result for lists that are
// not in that relation is meaningless.
func (l *List) Diff(superset *List) *List {
	if l.IsEmpty() {
		if superset.IsEmpty() {
			return nil
		}
		return superset.Copy()
	}

	var diff *List
	j := 0
	for i := 0; i < superset.Len(); i++ {
		s := superset.entries[i]
		for j < len(l.entries) && l.cmp(l.entries[j].Start, s.Start) < 0 {
			j++
		}

		if j >= len(l.entries) {
			// Everything left in superset is missing from l.
			if diff == nil {
				diff = New(l.cmp, superset.Len()-i)
			}
			for _, rest := range superset.entries[i:] {
				diff.Add(rest.Start, rest.End, rest.MarkedAt, rest.LocalDeletionTime)
			}
			return diff
		}

		if !l.holdsFrom(j, s) {
			if diff == nil {
				diff = New(l.cmp, min(8, superset.Len()-i))
			}
			diff.Add(s.Start, s.End, s.MarkedAt, s.LocalDeletionTime)
		}
	}
	return diff
}

// holdsFrom reports whether one of the entries starting at index j on s.Start
// has the bounds and MarkedAt of s. A single name and a range may share a
// start, so there can be two of them.
func (l *List) holdsFrom(j int, s Tombstone) bool {
	for k := j; k < len(l.entries) && l.cmp(l.entries[k].Start, s.Start) == 0; k++ {
		if t := l.entries[k]; l.cmp(t.End, s.End) == 0 && t.MarkedAt == s.MarkedAt {
			return true
		}
	}
	return false
}
