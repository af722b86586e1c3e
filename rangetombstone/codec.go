package rangetombstone

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/INLOpen/tombstones/core"
)

// Serialized layout, all integers big-endian:
//
//	int32  count
//	count times:
//	  uint16 start length, start bytes
//	  uint16 end length, end bytes
//	  int32  local deletion time
//	  int64  marked at
//
// The comparator is not serialized; the reader must supply it.

const (
	countSize    = 4
	lengthSize   = 2
	delTimeSize  = 4
	markedAtSize = 8

	// MaxBoundSize is the largest bound the encoding can carry.
	MaxBoundSize = math.MaxUint16

	// maxPreallocEntries caps the capacity allocated up front from an
	// untrusted count.
	maxPreallocEntries = 4096
)

// Serialize writes l to w. A nil list is written as an empty one.
func Serialize(w io.Writer, l *List) error {
	buf := core.GetBuffer()
	defer core.PutBuffer(buf)
	if err := encodeTo(buf, l); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write range tombstones: %w", err)
	}
	return nil
}

// Encode returns the serialized form of l.
func Encode(l *List) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(SerializedSize(l))
	if err := encodeTo(&buf, l); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeTo(buf *bytes.Buffer, l *List) error {
	var scratch [markedAtSize]byte
	binary.BigEndian.PutUint32(scratch[:countSize], uint32(l.Len()))
	buf.Write(scratch[:countSize])
	for i := 0; i < l.Len(); i++ {
		t := l.entries[i]
		if err := writeWithShortLength(buf, t.Start, i); err != nil {
			return err
		}
		if err := writeWithShortLength(buf, t.End, i); err != nil {
			return err
		}
		binary.BigEndian.PutUint32(scratch[:delTimeSize], uint32(t.LocalDeletionTime))
		buf.Write(scratch[:delTimeSize])
		binary.BigEndian.PutUint64(scratch[:markedAtSize], uint64(t.MarkedAt))
		buf.Write(scratch[:markedAtSize])
	}
	return nil
}

func writeWithShortLength(buf *bytes.Buffer, b []byte, idx int) error {
	if len(b) > MaxBoundSize {
		return &core.CodecError{Index: idx, Message: fmt.Sprintf("bound of %d bytes exceeds %d", len(b), MaxBoundSize)}
	}
	var lenBuf [lengthSize]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(b)))
	buf.Write(lenBuf[:])
	buf.Write(b)
	return nil
}

// SerializedSize returns the number of bytes Serialize writes for l.
func SerializedSize(l *List) int {
	size := countSize
	for i := 0; i < l.Len(); i++ {
		t := l.entries[i]
		size += lengthSize + len(t.Start) + lengthSize + len(t.End) + delTimeSize + markedAtSize
	}
	return size
}

// Deserialize reads a list written by Serialize at the given protocol
// version. An empty list is decoded as nil.
//
// Lists from versions that trust tombstone order are loaded as is. Older
// versions kept tombstones sorted by start only, possibly overlapping, so
// every entry goes through Add to restore the invariants.
func Deserialize(r io.Reader, version core.ProtocolVersion, cmp core.Comparator) (*List, error) {
	var scratch [markedAtSize]byte
	if _, err := io.ReadFull(r, scratch[:countSize]); err != nil {
		return nil, fmt.Errorf("failed to read range tombstone count: %w", err)
	}
	count := int32(binary.BigEndian.Uint32(scratch[:countSize]))
	if count < 0 {
		return nil, &core.CodecError{Index: -1, Message: fmt.Sprintf("negative tombstone count %d", count)}
	}
	if count == 0 {
		return nil, nil
	}

	l := New(cmp, min(int(count), maxPreallocEntries))
	trusted := version.TrustsTombstoneOrder()
	for i := 0; i < int(count); i++ {
		start, err := readWithShortLength(r)
		if err != nil {
			return nil, fmt.Errorf("range tombstone %d: failed to read start: %w", i, err)
		}
		end, err := readWithShortLength(r)
		if err != nil {
			return nil, fmt.Errorf("range tombstone %d: failed to read end: %w", i, err)
		}
		if _, err := io.ReadFull(r, scratch[:delTimeSize]); err != nil {
			return nil, fmt.Errorf("range tombstone %d: failed to read local deletion time: %w", i, err)
		}
		delTime := int32(binary.BigEndian.Uint32(scratch[:delTimeSize]))
		if _, err := io.ReadFull(r, scratch[:markedAtSize]); err != nil {
			return nil, fmt.Errorf("range tombstone %d: failed to read marked at: %w", i, err)
		}
		markedAt := int64(binary.BigEndian.Uint64(scratch[:markedAtSize]))

		if trusted {
			l.entries = append(l.entries, core.NewRangeTombstone(start, end, markedAt, delTime))
		} else {
			l.Add(start, end, markedAt, delTime)
		}
	}
	return l, nil
}

// Decode is Deserialize over an in-memory buffer. Trailing bytes are an error.
func Decode(data []byte, version core.ProtocolVersion, cmp core.Comparator) (*List, error) {
	r := bytes.NewReader(data)
	l, err := Deserialize(r, version, cmp)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, &core.CodecError{Index: -1, Message: fmt.Sprintf("%d trailing bytes", r.Len())}
	}
	return l, nil
}

func readWithShortLength(r io.Reader) ([]byte, error) {
	var lenBuf [lengthSize]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	b := make([]byte, binary.BigEndian.Uint16(lenBuf[:]))
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
