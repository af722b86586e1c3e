package compressors

import (
	"bytes"
	"fmt"
	"io"

	"github.com/INLOpen/tombstones/core"
	"github.com/golang/snappy"
)

// SnappyCompressor uses the snappy block format.
type SnappyCompressor struct{}

var _ core.Compressor = (*SnappyCompressor)(nil)

func NewSnappyCompressor() *SnappyCompressor {
	return &SnappyCompressor{}
}

func (c *SnappyCompressor) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

// CompressTo encodes src into dst, reusing dst's spare capacity.
func (c *SnappyCompressor) CompressTo(dst *bytes.Buffer, src []byte) error {
	bound := snappy.MaxEncodedLen(len(src))
	if bound < 0 {
		return fmt.Errorf("snappy compress error: %w", snappy.ErrTooLarge)
	}
	dst.Reset()
	dst.Grow(bound)
	encoded := snappy.Encode(dst.AvailableBuffer()[:bound], src)
	dst.Write(encoded)
	return nil
}

func (c *SnappyCompressor) Decompress(data []byte) (io.ReadCloser, error) {
	decoded, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("snappy decompress error: %w", err)
	}
	return newMemReadCloser(decoded), nil
}

func (c *SnappyCompressor) Type() core.CompressionType {
	return core.CompressionSnappy
}
