// Package compressors provides the block compressors used for range
// tombstone dumps.
package compressors

import (
	"bytes"
	"fmt"
	"io"

	"github.com/INLOpen/tombstones/core"
)

// ForType returns the compressor registered for ct.
func ForType(ct core.CompressionType) (core.Compressor, error) {
	switch ct {
	case core.CompressionNone:
		return &NoneCompressor{}, nil
	case core.CompressionSnappy:
		return NewSnappyCompressor(), nil
	case core.CompressionLZ4:
		return NewLZ4Compressor(), nil
	case core.CompressionZSTD:
		return NewZstdCompressor(), nil
	default:
		return nil, &core.UnsupportedCompressionError{Name: fmt.Sprintf("type %d", byte(ct))}
	}
}

// ForName resolves a configuration name such as "zstd" to its compressor.
func ForName(name string) (core.Compressor, error) {
	ct, err := core.ParseCompressionType(name)
	if err != nil {
		return nil, err
	}
	return ForType(ct)
}

// DecompressAll decompresses data fully into memory.
func DecompressAll(c core.Compressor, data []byte) ([]byte, error) {
	rc, err := c.Decompress(data)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	out, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read decompressed data: %w", c.Type(), err)
	}
	return out, nil
}

// memReadCloser serves block decompression results that already live in memory.
type memReadCloser struct {
	*bytes.Reader
}

func (memReadCloser) Close() error { return nil }

func newMemReadCloser(b []byte) io.ReadCloser {
	return memReadCloser{Reader: bytes.NewReader(b)}
}
