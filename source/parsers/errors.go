package parsers

import "errors"

var (
	// ErrInvalidEncoding is returned when a text file is not valid UTF-8.
	ErrInvalidEncoding = errors.New("file is not valid UTF-8")

	// ErrUnsupportedType is returned when a Word parser is asked for an unknown extension.
	ErrUnsupportedType = errors.New("unsupported document type")
)
