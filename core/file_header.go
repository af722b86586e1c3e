package core

import (
	"encoding/binary"
	"time"
)

// FileHeader is the fixed header of a range tombstone dump.
type FileHeader struct {
	Magic           uint32
	Version         uint8
	CompressorType  CompressionType
	ProtocolVersion ProtocolVersion
	CreatedAt       int64 // UnixNano timestamp
}

func (h *FileHeader) Size() int {
	return binary.Size(h)
}

// NewFileHeader creates a new header stamped with the current time.
func NewFileHeader(magic uint32, compressorType CompressionType, protocol ProtocolVersion) FileHeader {
	return FileHeader{
		Magic:           magic,
		Version:         FormatVersion,
		CompressorType:  compressorType,
		ProtocolVersion: protocol,
		CreatedAt:       time.Now().UnixNano(),
	}
}
