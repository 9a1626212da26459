package chunker

import "errors"

var (
	// ErrInvalidChunkSize is returned when the maximum chunk size is not positive.
	ErrInvalidChunkSize = errors.New("max chunk size must be positive")

	// ErrInvalidOverlap is returned when the overlap is negative or not smaller than the chunk size.
	ErrInvalidOverlap = errors.New("chunk overlap must be non-negative and smaller than max chunk size")
)
