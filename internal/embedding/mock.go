package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
)

// MockEmbedder derives embeddings from text hashes: identical texts map to
// identical vectors and distinct texts land nearly orthogonal. Test use only.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns a deterministic embedder of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed hashes the text once per dimension and scales the vector to unit
// length.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	var sum float64
	for i := range emb {
		h := fnv.New64a()
		fmt.Fprintf(h, "%s#%d", text, i)
		v := float64(int64(h.Sum64()%2001)-1000) / 1000
		emb[i] = float32(v)
		sum += v * v
	}
	if sum > 0 {
		inv := float32(1 / math.Sqrt(sum))
		for i := range emb {
			emb[i] *= inv
		}
	}
	return emb, nil
}

// EmbedBatch embeds each text independently.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, emb)
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
