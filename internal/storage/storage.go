// Package storage defines the persistence interface for cached posts.
package storage

import (
	"context"
	"errors"

	"github.com/loreseek/loreseek/internal/models"
)

// ErrNotFound is returned when no post exists for the requested URL.
var ErrNotFound = errors.New("post not found")

// PostStore persists fetched posts keyed by their canonical URL.
type PostStore interface {
	Upsert(ctx context.Context, post *models.Post) error
	UpsertBatch(ctx context.Context, posts []*models.Post) error
	Get(ctx context.Context, url string) (*models.Post, error)
	GetBatch(ctx context.Context, urls []string) ([]*models.Post, error)
	Has(ctx context.Context, url string) (bool, error)
	List(ctx context.Context, offset, limit int) ([]*models.Post, error)
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) error
	Close() error
}
