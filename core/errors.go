package core

import (
	"errors"
	"fmt"
)

// CodecError reports malformed range tombstone data, on encode or decode.
type CodecError struct {
	Message string
	Index   int // entry index, -1 for the list header
}

// UnsupportedCompressionError is returned for an unknown compression name or type.
type UnsupportedCompressionError struct {
	Name string
}

func (e *UnsupportedCompressionError) Error() string {
	return fmt.Sprintf("unsupported compression: %s", e.Name)
}

func (e *CodecError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("range tombstone codec: %s", e.Message)
	}
	return fmt.Sprintf("range tombstone codec: entry %d: %s", e.Index, e.Message)
}

// IsCodecError checks if an error is a CodecError.
func IsCodecError(err error) bool {
	var codecError *CodecError
	return errors.As(err, &codecError)
}

func IsUnsupportedCompressionError(err error) bool {
	var unsupported *UnsupportedCompressionError
	return errors.As(err, &unsupported)
}
