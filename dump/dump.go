// Package dump reads and writes self-describing files holding one
// serialized range tombstone list.
//
// Layout, envelope integers little-endian:
//
//	core.FileHeader
//	uint32 payload length
//	payload: the codec bytes of the list, compressed as the header says
//	uint32 CRC32 (IEEE) of the payload
package dump

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"

	"github.com/INLOpen/tombstones/compressors"
	"github.com/INLOpen/tombstones/core"
	"github.com/INLOpen/tombstones/rangetombstone"
)

const payloadLengthSize = 4

// maxPayloadSize bounds the payload length accepted from a header.
const maxPayloadSize = 1 << 30

var (
	ErrBadMagic           = errors.New("dump: bad magic number")
	ErrChecksumMismatch   = errors.New("dump: checksum mismatch")
	ErrUnsupportedVersion = errors.New("dump: unsupported format version")
)

// Options configures Write.
type Options struct {
	Compression     core.CompressionType
	ProtocolVersion core.ProtocolVersion
	Logger          *slog.Logger
}

// File is a decoded dump.
type File struct {
	Header core.FileHeader
	// List is nil when the dump holds no tombstones.
	List *rangetombstone.List
	// PayloadSize is the stored, possibly compressed, payload length.
	PayloadSize int
}

// Write serializes list into w. A zero ProtocolVersion means the current one.
func Write(w io.Writer, list *rangetombstone.List, opts Options) error {
	if opts.ProtocolVersion == 0 {
		opts.ProtocolVersion = core.CurrentProtocolVersion
	}
	compressor, err := compressors.ForType(opts.Compression)
	if err != nil {
		return err
	}

	raw := core.GetBuffer()
	defer core.PutBuffer(raw)
	if err := rangetombstone.Serialize(raw, list); err != nil {
		return err
	}
	payload := core.GetBuffer()
	defer core.PutBuffer(payload)
	if err := compressor.CompressTo(payload, raw.Bytes()); err != nil {
		return fmt.Errorf("failed to compress dump payload: %w", err)
	}

	header := core.NewFileHeader(core.DumpMagicNumber, opts.Compression, opts.ProtocolVersion)
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to write dump header: %w", err)
	}
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], uint32(payload.Len()))
	if _, err := w.Write(scratch[:payloadLengthSize]); err != nil {
		return fmt.Errorf("failed to write dump payload length: %w", err)
	}
	if _, err := w.Write(payload.Bytes()); err != nil {
		return fmt.Errorf("failed to write dump payload: %w", err)
	}
	binary.LittleEndian.PutUint32(scratch[:], crc32.ChecksumIEEE(payload.Bytes()))
	if _, err := w.Write(scratch[:core.ChecksumSize]); err != nil {
		return fmt.Errorf("failed to write dump checksum: %w", err)
	}

	if opts.Logger != nil {
		opts.Logger.Debug("Dump written.", "component", "Dump", "tombstones", list.Len(),
			"compression", opts.Compression.String(), "raw_bytes", raw.Len(), "payload_bytes", payload.Len())
	}
	return nil
}

// Read decodes a dump from r, ordering bounds with cmp.
func Read(r io.Reader, cmp core.Comparator) (*File, error) {
	var f File
	if err := binary.Read(r, binary.LittleEndian, &f.Header); err != nil {
		return nil, fmt.Errorf("failed to read dump header: %w", err)
	}
	if f.Header.Magic != core.DumpMagicNumber {
		return nil, fmt.Errorf("%w: %#08x", ErrBadMagic, f.Header.Magic)
	}
	if f.Header.Version != core.FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Header.Version)
	}
	compressor, err := compressors.ForType(f.Header.CompressorType)
	if err != nil {
		return nil, err
	}

	var scratch [4]byte
	if _, err := io.ReadFull(r, scratch[:payloadLengthSize]); err != nil {
		return nil, fmt.Errorf("failed to read dump payload length: %w", err)
	}
	size := binary.LittleEndian.Uint32(scratch[:])
	if size > maxPayloadSize {
		return nil, fmt.Errorf("dump payload of %d bytes exceeds %d", size, maxPayloadSize)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("failed to read dump payload: %w", err)
	}
	if _, err := io.ReadFull(r, scratch[:core.ChecksumSize]); err != nil {
		return nil, fmt.Errorf("failed to read dump checksum: %w", err)
	}
	if stored, computed := binary.LittleEndian.Uint32(scratch[:]), crc32.ChecksumIEEE(payload); stored != computed {
		return nil, fmt.Errorf("%w: stored %08x, computed %08x", ErrChecksumMismatch, stored, computed)
	}
	f.PayloadSize = len(payload)

	raw, err := compressors.DecompressAll(compressor, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress dump payload: %w", err)
	}
	f.List, err = rangetombstone.Decode(raw, f.Header.ProtocolVersion, cmp)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
