package ai

import (
	"context"
	"math"
)

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}

type normalizingEmbedder struct {
	next Embedder
}

// NewNormalizingEmbedder wraps e so every returned vector has unit length.
func NewNormalizingEmbedder(e Embedder) Embedder {
	if e == nil {
		return nil
	}
	return &normalizingEmbedder{next: e}
}

func (n *normalizingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	v, err := n.next.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	return NormalizeVector(v), nil
}

func (n *normalizingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := n.next.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	for i, v := range vectors {
		vectors[i] = NormalizeVector(v)
	}
	return vectors, nil
}
