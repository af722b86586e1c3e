package compressors

import (
	"bytes"
	"io"

	"github.com/INLOpen/tombstones/core"
)

// NoneCompressor stores payloads as is.
type NoneCompressor struct{}

var _ core.Compressor = (*NoneCompressor)(nil)

func (c *NoneCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// CompressTo copies src into dst.
func (c *NoneCompressor) CompressTo(dst *bytes.Buffer, src []byte) error {
	dst.Reset()
	_, err := dst.Write(src)
	return err
}

func (c *NoneCompressor) Decompress(data []byte) (io.ReadCloser, error) {
	return newMemReadCloser(data), nil
}

func (c *NoneCompressor) Type() core.CompressionType {
	return core.CompressionNone
}
