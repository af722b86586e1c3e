package compressors

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/INLOpen/tombstones/core"
	"github.com/klauspost/compress/zstd"
)

// maxZstdDecodedSize bounds the memory a single frame may decode to.
const maxZstdDecodedSize = 256 << 20

// ZstdCompressor produces single zstd frames. Encoders and decoders are
// created once and shared, both being safe for concurrent EncodeAll and
// DecodeAll calls.
type ZstdCompressor struct {
	once    sync.Once
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	initErr error
}

var _ core.Compressor = (*ZstdCompressor)(nil)

func NewZstdCompressor() *ZstdCompressor {
	return &ZstdCompressor{}
}

func (c *ZstdCompressor) init() error {
	c.once.Do(func() {
		c.encoder, c.initErr = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		if c.initErr != nil {
			c.initErr = fmt.Errorf("zstd encoder init error: %w", c.initErr)
			return
		}
		c.decoder, c.initErr = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(0),
			zstd.WithDecoderMaxMemory(maxZstdDecodedSize))
		if c.initErr != nil {
			c.initErr = fmt.Errorf("zstd decoder init error: %w", c.initErr)
		}
	})
	return c.initErr
}

func (c *ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if err := c.init(); err != nil {
		return nil, err
	}
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2+16)), nil
}

// CompressTo encodes src into dst, reusing dst's spare capacity.
func (c *ZstdCompressor) CompressTo(dst *bytes.Buffer, src []byte) error {
	if err := c.init(); err != nil {
		return err
	}
	dst.Reset()
	dst.Write(c.encoder.EncodeAll(src, dst.AvailableBuffer()))
	return nil
}

func (c *ZstdCompressor) Decompress(data []byte) (io.ReadCloser, error) {
	if err := c.init(); err != nil {
		return nil, err
	}
	decoded, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress error: %w", err)
	}
	return newMemReadCloser(decoded), nil
}

func (c *ZstdCompressor) Type() core.CompressionType {
	return core.CompressionZSTD
}
