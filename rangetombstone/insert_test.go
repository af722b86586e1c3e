package rangetombstone

import (
	"math/rand"
	"testing"

	"github.com/INLOpen/tombstones/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_Add_Scenarios(t *testing.T) {
	testCases := []struct {
		name string
		adds []Tombstone
		want []Tombstone
	}{
		{
			name: "sorted appends",
			adds: []Tombstone{rt(0, 5, 1, 0), rt(6, 8, 2, 0), rt(10, 12, 3, 0)},
			want: []Tombstone{rt(0, 5, 1, 0), rt(6, 8, 2, 0), rt(10, 12, 3, 0)},
		},
		{
			name: "unsorted non overlapping",
			adds: []Tombstone{rt(10, 12, 3, 0), rt(0, 5, 1, 0), rt(6, 8, 2, 0)},
			want: []Tombstone{rt(0, 5, 1, 0), rt(6, 8, 2, 0), rt(10, 12, 3, 0)},
		},
		{
			name: "newer overlapping tail wins the overlap",
			adds: []Tombstone{rt(0, 10, 1, 0), rt(5, 15, 2, 0)},
			want: []Tombstone{rt(0, 5, 1, 0), rt(5, 15, 2, 0)},
		},
		{
			name: "older overlapping tail only keeps its residue",
			adds: []Tombstone{rt(0, 10, 2, 0), rt(5, 15, 1, 0)},
			want: []Tombstone{rt(0, 10, 2, 0), rt(10, 15, 1, 0)},
		},
		{
			name: "newer contained range splits the incumbent",
			adds: []Tombstone{rt(0, 10, 5, 100), rt(3, 7, 8, 200)},
			want: []Tombstone{rt(0, 3, 5, 100), rt(3, 7, 8, 200), rt(7, 10, 5, 100)},
		},
		{
			name: "older contained range is shadowed",
			adds: []Tombstone{rt(0, 10, 5, 0), rt(3, 7, 4, 0)},
			want: []Tombstone{rt(0, 10, 5, 0)},
		},
		{
			name: "equal timestamps keep the incumbent",
			adds: []Tombstone{rt(0, 10, 5, 100), rt(3, 12, 5, 200)},
			want: []Tombstone{rt(0, 10, 5, 100), rt(10, 12, 5, 200)},
		},
		{
			// Pieces of the new range are not coalesced.
			name: "newer range covering several entries",
			adds: []Tombstone{rt(0, 2, 1, 0), rt(4, 6, 1, 0), rt(8, 10, 1, 0), rt(1, 9, 3, 0)},
			want: []Tombstone{rt(0, 1, 1, 0), rt(1, 2, 3, 0), rt(2, 6, 3, 0), rt(6, 9, 3, 0), rt(9, 10, 1, 0)},
		},
		{
			name: "older range filling gaps around entries",
			adds: []Tombstone{rt(2, 4, 5, 0), rt(6, 8, 5, 0), rt(0, 10, 1, 0)},
			want: []Tombstone{rt(0, 2, 1, 0), rt(2, 4, 5, 0), rt(4, 6, 1, 0), rt(6, 8, 5, 0), rt(8, 10, 1, 0)},
		},
		{
			name: "newer range ending exactly on an entry end",
			adds: []Tombstone{rt(0, 5, 1, 0), rt(5, 10, 1, 0), rt(2, 5, 4, 0)},
			want: []Tombstone{rt(0, 2, 1, 0), rt(2, 5, 4, 0), rt(5, 10, 1, 0)},
		},
		{
			name: "newer range ending in a gap",
			adds: []Tombstone{rt(0, 2, 1, 0), rt(8, 10, 1, 0), rt(1, 5, 4, 0)},
			want: []Tombstone{rt(0, 1, 1, 0), rt(1, 2, 4, 0), rt(2, 5, 4, 0), rt(8, 10, 1, 0)},
		},
		{
			name: "newer range before everything",
			adds: []Tombstone{rt(5, 10, 1, 0), rt(0, 3, 4, 0)},
			want: []Tombstone{rt(0, 3, 4, 0), rt(5, 10, 1, 0)},
		},
		{
			name: "touching ranges stay separate",
			adds: []Tombstone{rt(5, 10, 1, 0), rt(0, 5, 2, 0)},
			want: []Tombstone{rt(0, 5, 2, 0), rt(5, 10, 1, 0)},
		},
		{
			name: "single name after a range ending on it",
			adds: []Tombstone{rt(0, 5, 1, 0), rt(5, 5, 9, 0)},
			want: []Tombstone{rt(0, 5, 1, 0), rt(5, 5, 9, 0)},
		},
		{
			name: "newer single name replaces an older one",
			adds: []Tombstone{rt(5, 5, 1, 0), rt(5, 5, 2, 0)},
			want: []Tombstone{rt(5, 5, 2, 0)},
		},
		{
			name: "older single name is shadowed by an existing one",
			adds: []Tombstone{rt(5, 5, 2, 0), rt(5, 5, 1, 0)},
			want: []Tombstone{rt(5, 5, 2, 0)},
		},
		{
			name: "newer range starting on an older single name absorbs it",
			adds: []Tombstone{rt(5, 5, 1, 0), rt(5, 9, 2, 0)},
			want: []Tombstone{rt(5, 9, 2, 0)},
		},
		{
			name: "older range starting on a newer single name goes after it",
			adds: []Tombstone{rt(5, 5, 3, 0), rt(5, 9, 2, 0)},
			want: []Tombstone{rt(5, 5, 3, 0), rt(5, 9, 2, 0)},
		},
		{
			name: "newer range ending on an older single name replaces it",
			adds: []Tombstone{rt(5, 5, 1, 0), rt(2, 5, 3, 0)},
			want: []Tombstone{rt(2, 5, 3, 0)},
		},
		{
			name: "single name inside a newer range is shadowed",
			adds: []Tombstone{rt(0, 10, 5, 0), rt(4, 4, 3, 0)},
			want: []Tombstone{rt(0, 10, 5, 0)},
		},
		{
			name: "newer single name inside a range splits it",
			adds: []Tombstone{rt(0, 10, 3, 0), rt(4, 4, 5, 0)},
			want: []Tombstone{rt(0, 4, 3, 0), rt(4, 4, 5, 0), rt(4, 10, 3, 0)},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			requireEntries(t, tc.want, listOf(tc.adds...))
		})
	}
}

func TestList_Add_FullyCoveredIsNoop(t *testing.T) {
	l := listOf(rt(0, 10, 5, 100), rt(20, 30, 7, 100))
	before := l.Copy()

	l.AddTombstone(rt(2, 8, 5, 300))
	l.AddTombstone(rt(0, 10, 4, 300))
	l.AddTombstone(rt(25, 25, 7, 300))
	l.AddTombstone(rt(20, 30, 1, 300))

	assert.True(t, before.Equal(l), "got %s", l)
}

func TestList_AddAll(t *testing.T) {
	t.Run("empty other is a noop", func(t *testing.T) {
		l := listOf(rt(0, 10, 5, 0))
		before := l.Copy()
		l.AddAll(New(core.BytesComparator, 0))
		l.AddAll(nil)
		assert.True(t, before.Equal(l))
	})

	t.Run("empty receiver becomes a copy", func(t *testing.T) {
		other := listOf(rt(0, 10, 5, 1), rt(12, 14, 6, 2))
		l := New(core.BytesComparator, 0)
		l.AddAll(other)
		assert.True(t, other.Equal(l))

		other.UpdateAllTimestamp(99)
		assert.Equal(t, int64(5), l.At(0).MarkedAt, "copied entries are not shared")
	})

	t.Run("linear merge of comparable lists", func(t *testing.T) {
		l := listOf(rt(0, 10, 1, 0), rt(20, 30, 1, 0), rt(40, 50, 5, 0))
		other := listOf(rt(5, 25, 3, 0), rt(45, 46, 2, 0), rt(60, 70, 1, 0), rt(80, 90, 1, 0))
		l.AddAll(other)
		requireEntries(t, []Tombstone{
			rt(0, 5, 1, 0), rt(5, 10, 3, 0), rt(10, 25, 3, 0), rt(25, 30, 1, 0),
			rt(40, 50, 5, 0), rt(60, 70, 1, 0), rt(80, 90, 1, 0),
		}, l)
	})

	t.Run("repeated adds when receiver dominates", func(t *testing.T) {
		l := New(core.BytesComparator, 0)
		for i := 0; i < 25; i++ {
			l.Add(key(i*10), key(i*10+5), 1, 0)
		}
		other := listOf(rt(3, 13, 4, 0), rt(300, 310, 2, 0))
		require.Greater(t, l.Len(), addAllMergeRatio*other.Len())

		l.AddAll(other)
		require.NoError(t, l.Validate())
		assert.Equal(t, 28, l.Len())
		assert.Equal(t, rt(0, 3, 1, 0), l.At(0))
		assert.Equal(t, rt(3, 5, 4, 0), l.At(1))
		assert.Equal(t, rt(5, 13, 4, 0), l.At(2))
		assert.Equal(t, rt(13, 15, 1, 0), l.At(3))
		assert.Equal(t, rt(300, 310, 2, 0), l.At(l.Len()-1))
	})
}

// coverage is a brute force model of a list: the highest MarkedAt of every
// name covered by at least one added tombstone.
type coverage map[int]int64

func (c coverage) add(start, end int, markedAt int64) {
	for p := start; p <= end; p++ {
		if cur, ok := c[p]; !ok || markedAt > cur {
			c[p] = markedAt
		}
	}
}

func requireMatchesModel(t *testing.T, model coverage, l *List, domain int) {
	t.Helper()
	require.NoError(t, l.Validate(), "list %s", l)
	tester := l.InOrderTester()
	for p := -1; p <= domain+1; p++ {
		name := key(p)
		if p < 0 {
			name = []byte{}
		}
		want, covered := model[p]
		got, found := l.Search(name)
		require.Equal(t, covered, found, "name %d in %s", p, l)
		inOrder, inOrderFound := tester.Search(name)
		require.Equal(t, covered, inOrderFound, "in order name %d in %s", p, l)
		if covered {
			require.Equal(t, want, got.MarkedAt, "name %d in %s", p, l)
			require.Equal(t, want, inOrder.MarkedAt, "in order name %d in %s", p, l)
			require.True(t, l.IsDeleted(name, want))
			require.False(t, l.IsDeleted(name, want+1))
		}
	}
}

func randomTombstone(rng *rand.Rand, domain int) Tombstone {
	start := rng.Intn(domain)
	end := start
	if rng.Intn(4) != 0 {
		end = start + rng.Intn(domain-start)
	}
	return rt(start, end, int64(rng.Intn(6)), int32(rng.Intn(100)))
}

func TestList_Add_Randomized(t *testing.T) {
	const domain = 24
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 300; round++ {
		l := New(core.BytesComparator, rng.Intn(3))
		model := coverage{}
		n := 1 + rng.Intn(12)
		for i := 0; i < n; i++ {
			tomb := randomTombstone(rng, domain)
			l.AddTombstone(tomb)
			s, e := int(tomb.Start[3]), int(tomb.End[3])
			model.add(s, e, tomb.MarkedAt)
		}
		requireMatchesModel(t, model, l, domain)
		require.Nil(t, l.Diff(l), "round %d: diff against itself, list %s", round, l)
	}
}

func TestList_AddAll_Randomized(t *testing.T) {
	const domain = 24
	rng := rand.New(rand.NewSource(11))
	for round := 0; round < 300; round++ {
		model := coverage{}
		build := func(n int) *List {
			l := New(core.BytesComparator, 0)
			for i := 0; i < n; i++ {
				tomb := randomTombstone(rng, domain)
				l.AddTombstone(tomb)
				model.add(int(tomb.Start[3]), int(tomb.End[3]), tomb.MarkedAt)
			}
			return l
		}
		l := build(rng.Intn(15))
		other := build(rng.Intn(4))
		l.AddAll(other)
		requireMatchesModel(t, model, l, domain)
		require.Nil(t, l.Copy().Diff(l), "round %d: diff of a copy, list %s", round, l)
	}
}

func BenchmarkList_AddSorted(b *testing.B) {
	keys := make([][]byte, 1024)
	for i := range keys {
		keys[i] = key(i)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		l := New(core.BytesComparator, 0)
		for k := 0; k+1 < len(keys); k += 2 {
			l.Add(keys[k], keys[k+1], 1, 0)
		}
	}
}

func BenchmarkList_AddAllMerge(b *testing.B) {
	left := New(core.BytesComparator, 0)
	right := New(core.BytesComparator, 0)
	for i := 0; i < 512; i++ {
		left.Add(key(i*4), key(i*4+2), 1, 0)
		right.Add(key(i*4+1), key(i*4+3), 2, 0)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l := left.Copy()
		l.AddAll(right)
	}
}
