package ingestion

import "errors"

var (
	// ErrDocumentSourceRequired is returned when a document source is not provided.
	ErrDocumentSourceRequired = errors.New("document source required")

	// ErrChunkerRequired is returned when a chunker is not provided.
	ErrChunkerRequired = errors.New("chunker required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrSinkRequired is returned when a vector sink is not provided.
	ErrSinkRequired = errors.New("vector sink required")

	// ErrNamespaceRequired is returned when the target namespace is empty.
	ErrNamespaceRequired = errors.New("namespace required")

	// ErrInvalidBatchSize is returned for a non-positive batch size.
	ErrInvalidBatchSize = errors.New("batch size must be positive")

	// ErrEmbeddingCountMismatch is returned when the embedder returns a
	// different number of vectors than texts it was given.
	ErrEmbeddingCountMismatch = errors.New("embedding result count mismatch")

	// ErrDimensionMismatch is returned when vectors of one run differ in dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptyVector is returned when the embedder returns an empty vector.
	ErrEmptyVector = errors.New("empty embedding vector")
)
