// Package vector provides vector storage and similarity search for the
// post cache.
package vector

import "context"

// Index defines vector storage and nearest-neighbor search. IDs are
// canonical post URLs.
type Index interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*Result, error)
	Has(id string) bool
	Reset(ctx context.Context) error
	Save(path string) error
	Load(path string) error
	Size() int
	Close() error
}

// Result is a single vector search hit.
type Result struct {
	ID    string
	Score float64 // inner product; cosine similarity for normalized vectors
}
