package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in one call.
	// The returned slice contains one embedding per input, in input order.
	// Implementations classify their failures with core.Kind so callers can
	// tell rate limiting and timeouts apart from other errors.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
