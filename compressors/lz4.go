package compressors

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/INLOpen/tombstones/core"
	lz4 "github.com/pierrec/lz4/v4"
)

// maxLZ4BlockSize bounds the decoded size announced by a block header.
const maxLZ4BlockSize = 256 << 20

var errLZ4BadHeader = errors.New("lz4: invalid block header")

// LZ4Compressor uses the lz4 block format. The block format does not record
// the decoded size, so every block is prefixed with it as a uvarint.
type LZ4Compressor struct{}

var _ core.Compressor = (*LZ4Compressor)(nil)

func NewLZ4Compressor() *LZ4Compressor {
	return &LZ4Compressor{}
}

func (c *LZ4Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.CompressTo(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CompressTo writes the size prefix and the compressed block of src to dst.
func (c *LZ4Compressor) CompressTo(dst *bytes.Buffer, src []byte) error {
	dst.Reset()
	var header [binary.MaxVarintLen64]byte
	dst.Write(header[:binary.PutUvarint(header[:], uint64(len(src)))])
	if len(src) == 0 {
		return nil
	}

	// A destination of CompressBlockBound bytes always receives a block,
	// even for incompressible input.
	block := make([]byte, lz4.CompressBlockBound(len(src)))
	var compressor lz4.Compressor
	n, err := compressor.CompressBlock(src, block)
	if err != nil {
		return fmt.Errorf("lz4 compress error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("lz4 compression resulted in zero bytes for non-empty input")
	}
	dst.Write(block[:n])
	return nil
}

func (c *LZ4Compressor) Decompress(data []byte) (io.ReadCloser, error) {
	size, n := binary.Uvarint(data)
	if n <= 0 || size > maxLZ4BlockSize {
		return nil, errLZ4BadHeader
	}
	out := make([]byte, size)
	if size == 0 {
		return newMemReadCloser(out), nil
	}
	written, err := lz4.UncompressBlock(data[n:], out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress error: %w", err)
	}
	if uint64(written) != size {
		return nil, fmt.Errorf("lz4 decompress error: got %d bytes, header says %d", written, size)
	}
	return newMemReadCloser(out), nil
}

func (c *LZ4Compressor) Type() core.CompressionType {
	return core.CompressionLZ4
}
