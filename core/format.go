package core

import (
	"fmt"
	"strconv"
)

// This file centralizes constants related to file formats, magic numbers,
// and protocol-level identifiers.

// --- Magic Numbers ---
const (
	// DumpMagicNumber identifies a range tombstone inspection dump. "RTOM"
	DumpMagicNumber uint32 = 0x52544F4D
)

// --- Protocol & Format Versions ---
const (
	// FormatVersion is the current version of the dump envelope.
	FormatVersion uint8 = 1
)

// ProtocolVersion is the messaging protocol version of the peer or file that
// produced serialized range tombstones. It selects the decode strategy.
type ProtocolVersion int32

const (
	// ProtocolV12 lists may be unsorted and overlapping.
	ProtocolV12 ProtocolVersion = 6
	// ProtocolV20 is the first version whose lists are sorted and non-overlapping.
	ProtocolV20 ProtocolVersion = 7
	ProtocolV21 ProtocolVersion = 8

	CurrentProtocolVersion = ProtocolV21
)

// TrustsTombstoneOrder reports whether lists encoded at version v already
// satisfy the ordering invariants and can be loaded without re-insertion.
func (v ProtocolVersion) TrustsTombstoneOrder() bool {
	return v >= ProtocolV20
}

func (v ProtocolVersion) String() string {
	switch v {
	case ProtocolV12:
		return "1.2"
	case ProtocolV20:
		return "2.0"
	case ProtocolV21:
		return "2.1"
	default:
		return "v" + strconv.Itoa(int(v))
	}
}

// ParseProtocolVersion accepts either a release name ("2.0") or the raw
// numeric version ("7").
func ParseProtocolVersion(s string) (ProtocolVersion, error) {
	switch s {
	case "1.2":
		return ProtocolV12, nil
	case "2.0":
		return ProtocolV20, nil
	case "2.1", "", "current":
		return ProtocolV21, nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid protocol version %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid protocol version %q", s)
	}
	return ProtocolVersion(n), nil
}
