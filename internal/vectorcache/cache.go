// Package vectorcache composes an embedder, a vector index, and the post
// store into a similarity cache over previously fetched posts.
package vectorcache

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/loreseek/loreseek/internal/embedding"
	"github.com/loreseek/loreseek/internal/models"
	"github.com/loreseek/loreseek/internal/storage"
	"github.com/loreseek/loreseek/internal/topics"
	"github.com/loreseek/loreseek/internal/vector"
	"github.com/loreseek/loreseek/pkg/utils"
)

const (
	// maxContentChars bounds stored post content.
	maxContentChars = 1000
	// overFetchFactor widens the index search so a topic filter still
	// has enough candidates left after filtering.
	overFetchFactor = 3
)

// Match is a cached post with its distance from the query embedding.
// Distance is 1 - cosine similarity; lower is closer.
type Match struct {
	Post     *models.Post
	Distance float64
}

// Options tune the cache.
type Options struct {
	// Threshold is the maximum distance for a match to count toward
	// sufficiency.
	Threshold float64
	// MinMatches is how many matches under Threshold the cache needs
	// before it can answer without a fresh fetch.
	MinMatches int
	// EmbedBatchSize bounds how many titles go into one embedding call.
	EmbedBatchSize int
	// EmbedConcurrency bounds how many embedding calls run at once.
	EmbedConcurrency int
}

// DefaultOptions match the service defaults.
func DefaultOptions() Options {
	return Options{
		Threshold:        0.5,
		MinMatches:       5,
		EmbedBatchSize:   32,
		EmbedConcurrency: 4,
	}
}

// Cache stores posts keyed by URL with a vector over the augmented title.
type Cache struct {
	embedder embedding.Embedder
	index    vector.Index
	store    storage.PostStore
	logger   *zap.Logger

	mu   sync.RWMutex // guards gate tunables, reloadable at runtime
	opts Options
}

// New builds a Cache. Zero-valued option fields fall back to defaults.
func New(embedder embedding.Embedder, index vector.Index, store storage.PostStore, logger *zap.Logger, opts Options) *Cache {
	def := DefaultOptions()
	if opts.Threshold <= 0 {
		opts.Threshold = def.Threshold
	}
	if opts.MinMatches <= 0 {
		opts.MinMatches = def.MinMatches
	}
	if opts.EmbedBatchSize <= 0 {
		opts.EmbedBatchSize = def.EmbedBatchSize
	}
	if opts.EmbedConcurrency <= 0 {
		opts.EmbedConcurrency = def.EmbedConcurrency
	}
	return &Cache{
		embedder: embedder,
		index:    index,
		store:    store,
		logger:   logger,
		opts:     opts,
	}
}

// augmentText prefixes text with the game name so embeddings of short
// titles carry the game context. Text that already names the game is left
// alone. The stored post keeps the original title; augmentation applies
// to the embedded text only.
func augmentText(topic models.Topic, text string) string {
	if topic == models.TopicNone || topics.Mentions(text, topic) {
		return text
	}
	return topics.DisplayName(topic) + ": " + text
}

// Upsert embeds and stores posts that are not yet in the cache. Posts
// whose URL is already indexed are skipped, so re-fetching the same post
// never duplicates it. Content is truncated before storage.
func (c *Cache) Upsert(ctx context.Context, posts []*models.Post) error {
	fresh := make([]*models.Post, 0, len(posts))
	for _, post := range posts {
		if post.URL == "" || c.index.Has(post.URL) {
			continue
		}
		post.Content = utils.TruncateChars(post.Content, maxContentChars)
		fresh = append(fresh, post)
	}
	if len(fresh) == 0 {
		return nil
	}

	vectors := make([][]float32, len(fresh))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.embedConcurrency())
	batch := c.embedBatchSize()
	for start := 0; start < len(fresh); start += batch {
		end := start + batch
		if end > len(fresh) {
			end = len(fresh)
		}
		start, end := start, end
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, post := range fresh[start:end] {
				texts = append(texts, augmentText(post.Topic, post.Title))
			}
			embs, err := c.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed posts [%d:%d]: %w", start, end, err)
			}
			for i, emb := range embs {
				vectors[start+i] = utils.NormalizeL2(emb)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	ids := make([]string, len(fresh))
	for i, post := range fresh {
		ids[i] = post.URL
	}
	if err := c.index.Add(ctx, ids, vectors); err != nil {
		return fmt.Errorf("index posts: %w", err)
	}
	if err := c.store.UpsertBatch(ctx, fresh); err != nil {
		return fmt.Errorf("store posts: %w", err)
	}
	c.logger.Debug("cached posts", zap.Int("count", len(fresh)), zap.Int("skipped", len(posts)-len(fresh)))
	return nil
}

// Query embeds text and returns up to topK cached posts by distance.
// When topic is set, the query embedding gets the same game prefix as
// stored titles and only posts tagged with that game come back.
func (c *Cache) Query(ctx context.Context, text string, topK int, topic models.Topic) ([]Match, error) {
	emb, err := c.embedder.Embed(ctx, augmentText(topic, text))
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	emb = utils.NormalizeL2(emb)

	k := topK
	if topic != models.TopicNone {
		k = topK * overFetchFactor
	}
	results, err := c.index.Search(ctx, emb, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	urls := make([]string, len(results))
	for i, r := range results {
		urls[i] = r.ID
	}
	posts, err := c.store.GetBatch(ctx, urls)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	byURL := make(map[string]*models.Post, len(posts))
	for _, post := range posts {
		byURL[post.URL] = post
	}

	matches := make([]Match, 0, topK)
	for _, r := range results {
		post, ok := byURL[r.ID]
		if !ok {
			c.logger.Warn("indexed post missing from store", zap.String("url", r.ID))
			continue
		}
		if topic != models.TopicNone && post.Topic != topic {
			continue
		}
		matches = append(matches, Match{Post: post, Distance: 1 - r.Score})
		if len(matches) == topK {
			break
		}
	}
	return matches, nil
}

// Sufficient reports whether matches alone can answer a query: at least
// MinMatches of them must be closer than Threshold.
func (c *Cache) Sufficient(matches []Match) bool {
	c.mu.RLock()
	threshold, min := c.opts.Threshold, c.opts.MinMatches
	c.mu.RUnlock()

	good := 0
	for _, m := range matches {
		if m.Distance < threshold {
			good++
		}
	}
	return good >= min
}

// SetGate replaces the sufficiency tunables. Non-positive values are
// ignored. Safe to call while queries are in flight.
func (c *Cache) SetGate(threshold float64, minMatches int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if threshold > 0 {
		c.opts.Threshold = threshold
	}
	if minMatches > 0 {
		c.opts.MinMatches = minMatches
	}
}

// Gate returns the current sufficiency tunables.
func (c *Cache) Gate() (threshold float64, minMatches int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opts.Threshold, c.opts.MinMatches
}

// Size returns the number of cached posts.
func (c *Cache) Size() int {
	return c.index.Size()
}

// Reset drops all cached posts from the index and the store.
func (c *Cache) Reset(ctx context.Context) error {
	if err := c.index.Reset(ctx); err != nil {
		return fmt.Errorf("reset index: %w", err)
	}
	if err := c.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	return nil
}

// Save persists the vector index to path.
func (c *Cache) Save(path string) error {
	return c.index.Save(path)
}

// Load restores the vector index from path.
func (c *Cache) Load(path string) error {
	return c.index.Load(path)
}

func (c *Cache) embedBatchSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opts.EmbedBatchSize
}

func (c *Cache) embedConcurrency() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opts.EmbedConcurrency
}
