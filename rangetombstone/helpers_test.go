package rangetombstone

import (
	"encoding/binary"
	"testing"

	"github.com/INLOpen/tombstones/core"
	"github.com/stretchr/testify/require"
)

// key encodes n so that byte order matches numeric order.
func key(n int) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(n))
	return b
}

// rt builds a tombstone over integer bounds.
func rt(start, end int, markedAt int64, delTime int32) Tombstone {
	return core.NewRangeTombstone(key(start), key(end), markedAt, delTime)
}

// listOf builds a list by adding every tombstone in order.
func listOf(tombstones ...Tombstone) *List {
	l := New(core.BytesComparator, 0)
	for _, t := range tombstones {
		l.AddTombstone(t)
	}
	return l
}

// requireEntries asserts the exact content of l, ignoring local deletion
// times when they are zero in want.
func requireEntries(t *testing.T, want []Tombstone, l *List) {
	t.Helper()
	require.NoError(t, l.Validate())
	require.Equal(t, len(want), l.Len(), "got %s", l)
	for i, w := range want {
		got := l.At(i)
		require.Equal(t, w.Start, got.Start, "entry %d start, list %s", i, l)
		require.Equal(t, w.End, got.End, "entry %d end, list %s", i, l)
		require.Equal(t, w.MarkedAt, got.MarkedAt, "entry %d markedAt, list %s", i, l)
		if w.LocalDeletionTime != 0 {
			require.Equal(t, w.LocalDeletionTime, got.LocalDeletionTime, "entry %d delTime, list %s", i, l)
		}
	}
}
