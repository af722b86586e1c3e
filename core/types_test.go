package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeletionTime(t *testing.T) {
	assert.True(t, LiveDeletionTime.IsLive())
	assert.False(t, LiveDeletionTime.Deletes(0))

	dt := DeletionTime{MarkedAt: 10, LocalDeletionTime: 100}
	assert.False(t, dt.IsLive())
	assert.True(t, dt.Deletes(10), "a write at the same timestamp is shadowed")
	assert.True(t, dt.Deletes(9))
	assert.False(t, dt.Deletes(11))

	assert.True(t, dt.Supersedes(DeletionTime{MarkedAt: 9}))
	assert.False(t, dt.Supersedes(DeletionTime{MarkedAt: 10}))
}

func TestRangeTombstone_Contains(t *testing.T) {
	rt := NewRangeTombstone([]byte("b"), []byte("d"), 5, 0)
	testCases := []struct {
		name string
		key  string
		want bool
	}{
		{"before", "a", false},
		{"start is inclusive", "b", true},
		{"inside", "c", true},
		{"end is inclusive", "d", true},
		{"after", "e", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, rt.Contains(BytesComparator, []byte(tc.key)))
		})
	}
	assert.False(t, rt.IsPoint(BytesComparator))
	assert.True(t, NewRangeTombstone([]byte("x"), []byte("x"), 1, 0).IsPoint(BytesComparator))
	assert.Equal(t, "[62, 64]@5", rt.String())
}

func TestParseCompressionType(t *testing.T) {
	for _, ct := range []CompressionType{CompressionNone, CompressionSnappy, CompressionLZ4, CompressionZSTD} {
		got, err := ParseCompressionType(ct.String())
		require.NoError(t, err)
		assert.Equal(t, ct, got)
	}
	_, err := ParseCompressionType("brotli")
	require.Error(t, err)
	assert.True(t, IsUnsupportedCompressionError(err))
}

func TestProtocolVersion(t *testing.T) {
	assert.False(t, ProtocolV12.TrustsTombstoneOrder())
	assert.True(t, ProtocolV20.TrustsTombstoneOrder())
	assert.True(t, CurrentProtocolVersion.TrustsTombstoneOrder())

	testCases := []struct {
		in      string
		want    ProtocolVersion
		wantErr bool
	}{
		{"1.2", ProtocolV12, false},
		{"2.0", ProtocolV20, false},
		{"current", CurrentProtocolVersion, false},
		{"7", ProtocolV20, false},
		{"42", ProtocolVersion(42), false},
		{"0", 0, true},
		{"abc", 0, true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseProtocolVersion(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
	assert.Equal(t, "2.0", ProtocolV20.String())
	assert.Equal(t, "v42", ProtocolVersion(42).String())
}

func TestFileHeaderSize(t *testing.T) {
	h := NewFileHeader(DumpMagicNumber, CompressionSnappy, CurrentProtocolVersion)
	assert.Equal(t, 18, h.Size())
	assert.Equal(t, FormatVersion, h.Version)
	assert.NotZero(t, h.CreatedAt)
}
