// Package mock provides a test double for ai.Embedder.
//
// MockEmbedder returns deterministic vectors derived from a hash of each
// text, so the same input always embeds to the same vector. Custom behavior
// can be injected through its function fields, and every EmbedTexts batch
// is recorded for assertions.
//
// # Usage in Tests
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, core.NewError(core.KindRateLimit, "embed", errors.New("429"))
//	}
//
//	count := embedder.CallCount()
//	batches := embedder.Batches()
package mock
