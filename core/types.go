package core

import (
	"bytes"
	"io"
	"math"
)

// Bound is an opaque key delimiting a range tombstone. Bounds are compared
// only through a Comparator and must not be modified once handed to a list.
type Bound = []byte

// Comparator defines a strict total order over bounds. It returns a negative
// number when a < b, zero when a == b and a positive number when a > b.
type Comparator func(a, b []byte) int

// BytesComparator orders bounds lexicographically.
var BytesComparator Comparator = bytes.Compare

// DeletionTime carries the deletion information of a tombstone.
type DeletionTime struct {
	// MarkedAt is the logical write timestamp. It alone decides which of two
	// overlapping tombstones wins.
	MarkedAt int64
	// LocalDeletionTime is the wall clock second at which the deletion was
	// recorded. Only used to decide purge eligibility.
	LocalDeletionTime int32
}

// LiveDeletionTime is the deletion time of something that was never deleted.
var LiveDeletionTime = DeletionTime{MarkedAt: math.MinInt64, LocalDeletionTime: math.MaxInt32}

// IsLive reports whether d denotes the absence of a deletion.
func (d DeletionTime) IsLive() bool {
	return d == LiveDeletionTime
}

// Deletes reports whether d shadows a write made at timestamp.
func (d DeletionTime) Deletes(timestamp int64) bool {
	return !d.IsLive() && d.MarkedAt >= timestamp
}

// Supersedes reports whether d takes priority over other.
func (d DeletionTime) Supersedes(other DeletionTime) bool {
	return d.MarkedAt > other.MarkedAt
}

// Cell is a single named, timestamped value of a row.
type Cell struct {
	Name      []byte
	Value     []byte
	Timestamp int64
}

// CompressionType identifies the compression algorithm used.
// This will be stored on disk to know how to decompress.
type CompressionType byte

const (
	CompressionNone   CompressionType = 0
	CompressionSnappy CompressionType = 1
	CompressionLZ4    CompressionType = 2
	CompressionZSTD   CompressionType = 3
)

// Compressor defines the interface for compression and decompression algorithms.
type Compressor interface {
	// Compress compresses the input data.
	Compress(data []byte) ([]byte, error)
	CompressTo(dst *bytes.Buffer, src []byte) error
	// Decompress decompresses the input data.
	Decompress(data []byte) (io.ReadCloser, error)
	// Type returns the CompressionType identifier for this compressor.
	Type() CompressionType
}

// String returns the string representation of the CompressionType.
func (ct CompressionType) String() string {
	switch ct {
	case CompressionNone:
		return "none"
	case CompressionSnappy:
		return "snappy"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseCompressionType maps a configuration name to its CompressionType.
func ParseCompressionType(name string) (CompressionType, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "snappy":
		return CompressionSnappy, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, &UnsupportedCompressionError{Name: name}
	}
}

const (
	ChecksumSize = 4 // uint32 CRC32 trailer
)
