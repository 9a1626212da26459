package source

import "errors"

var (
	// ErrRootRequired is returned when no root directory is configured.
	ErrRootRequired = errors.New("root path required")

	// ErrNotDirectory is returned when the root path is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrRegistryRequired is returned when no parser registry is provided.
	ErrRegistryRequired = errors.New("parser registry required")
)
