package rangetombstone

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/INLOpen/tombstones/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawList builds a list without restoring invariants, as an older writer
// could have produced it.
func rawList(tombstones ...Tombstone) *List {
	l := New(core.BytesComparator, len(tombstones))
	l.entries = append(l.entries, tombstones...)
	return l
}

func TestCodec_Layout(t *testing.T) {
	l := New(core.BytesComparator, 0)
	l.Add([]byte("a"), []byte("bc"), 0x0102, 7)

	data, err := Encode(l)
	require.NoError(t, err)
	want := []byte{
		0x00, 0x00, 0x00, 0x01, // count
		0x00, 0x01, 'a', // start
		0x00, 0x02, 'b', 'c', // end
		0x00, 0x00, 0x00, 0x07, // local deletion time
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x02, // marked at
	}
	assert.Equal(t, want, data)
	assert.Equal(t, len(want), SerializedSize(l))

	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, l))
	assert.Equal(t, want, buf.Bytes())
}

func TestCodec_RoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		list *List
	}{
		{"single", listOf(rt(0, 10, 5, 100))},
		{"split", listOf(rt(0, 10, 5, 100), rt(3, 7, 8, 200))},
		{"single names", listOf(rt(5, 5, 3, 1), rt(5, 9, 2, 2), rt(9, 9, 7, 3))},
		{"negative values", listOf(rt(0, 1, -42, -1))},
		{"empty bounds", func() *List {
			l := New(core.BytesComparator, 0)
			l.Add([]byte{}, []byte{}, 1, 1)
			l.Add([]byte{}, key(3), 2, 2)
			return l
		}()},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := Encode(tc.list)
			require.NoError(t, err)
			require.Len(t, data, SerializedSize(tc.list))

			for _, version := range []core.ProtocolVersion{core.ProtocolV12, core.ProtocolV20, core.CurrentProtocolVersion} {
				decoded, err := Decode(data, version, core.BytesComparator)
				require.NoError(t, err, "version %s", version)
				assert.True(t, tc.list.Equal(decoded), "version %s: want %s, got %s", version, tc.list, decoded)
			}
		})
	}
}

func TestCodec_EmptyList(t *testing.T) {
	for _, l := range []*List{nil, New(core.BytesComparator, 0)} {
		data, err := Encode(l)
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 0, 0, 0}, data)

		decoded, err := Decode(data, core.CurrentProtocolVersion, core.BytesComparator)
		require.NoError(t, err)
		assert.Nil(t, decoded)
	}
}

func TestCodec_LegacyOrderIsRepaired(t *testing.T) {
	// Sorted by start but overlapping.
	data, err := Encode(rawList(rt(0, 10, 1, 0), rt(5, 15, 2, 0)))
	require.NoError(t, err)

	legacy, err := Decode(data, core.ProtocolV12, core.BytesComparator)
	require.NoError(t, err)
	requireEntries(t, []Tombstone{rt(0, 5, 1, 0), rt(5, 15, 2, 0)}, legacy)

	trusted, err := Decode(data, core.ProtocolV20, core.BytesComparator)
	require.NoError(t, err)
	assert.Equal(t, 2, trusted.Len())
	assert.Error(t, trusted.Validate(), "trusted data is loaded as written")
}

func TestCodec_MalformedInput(t *testing.T) {
	valid, err := Encode(listOf(rt(0, 10, 5, 100), rt(20, 30, 6, 100)))
	require.NoError(t, err)

	testCases := []struct {
		name      string
		data      []byte
		wantCodec bool
		wantErr   error
	}{
		{"empty input", nil, false, io.EOF},
		{"short count", []byte{0, 0}, false, io.ErrUnexpectedEOF},
		{"negative count", []byte{0xff, 0xff, 0xff, 0xfe}, true, nil},
		{"truncated entry", valid[:len(valid)-1], false, io.ErrUnexpectedEOF},
		{"missing entry", valid[:SerializedSize(listOf(rt(0, 10, 5, 100)))], false, io.EOF},
		{"count larger than data", []byte{0x7f, 0xff, 0xff, 0xff}, false, io.EOF},
		{"trailing bytes", append(append([]byte{}, valid...), 0x00), true, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, err := Decode(tc.data, core.CurrentProtocolVersion, core.BytesComparator)
			require.Error(t, err)
			assert.Nil(t, l)
			assert.Equal(t, tc.wantCodec, core.IsCodecError(err), "error %v", err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestCodec_OversizedBound(t *testing.T) {
	l := New(core.BytesComparator, 0)
	l.Add(key(0), key(1), 1, 0)
	l.Add(bytes.Repeat([]byte{0xff}, MaxBoundSize+1), bytes.Repeat([]byte{0xff}, MaxBoundSize+1), 1, 0)

	_, err := Encode(l)
	require.Error(t, err)
	var codecErr *core.CodecError
	require.True(t, errors.As(err, &codecErr))
	assert.Equal(t, 1, codecErr.Index)

	var buf bytes.Buffer
	require.Error(t, Serialize(&buf, l))
	assert.Zero(t, buf.Len(), "nothing is written on encode failure")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestCodec_SerializeWriteError(t *testing.T) {
	err := Serialize(failingWriter{}, listOf(rt(0, 1, 1, 0)))
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.False(t, core.IsCodecError(err))
}

func BenchmarkCodec_Encode(b *testing.B) {
	l := New(core.BytesComparator, 512)
	for i := 0; i < 512; i++ {
		l.Add(key(i*4), key(i*4+2), int64(i), int32(i))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Encode(l); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCodec_Decode(b *testing.B) {
	l := New(core.BytesComparator, 512)
	for i := 0; i < 512; i++ {
		l.Add(key(i*4), key(i*4+2), int64(i), int32(i))
	}
	data, err := Encode(l)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(data, core.CurrentProtocolVersion, core.BytesComparator); err != nil {
			b.Fatal(err)
		}
	}
}
