// Package pipeline orchestrates a query end to end: validation, topic
// gating, cache lookup, source fetching, caching, ranking, and result
// assembly.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/loreseek/loreseek/internal/assemble"
	"github.com/loreseek/loreseek/internal/fetch"
	"github.com/loreseek/loreseek/internal/models"
	"github.com/loreseek/loreseek/internal/ranking"
	"github.com/loreseek/loreseek/internal/sanitize"
	"github.com/loreseek/loreseek/internal/session"
	"github.com/loreseek/loreseek/internal/summarize"
	"github.com/loreseek/loreseek/internal/topics"
	"github.com/loreseek/loreseek/internal/vectorcache"
)

const (
	// topK is how many cached posts a lookup retrieves.
	topK = 10
	// displayLimit caps the result list shown to the user.
	displayLimit = 10
)

const (
	errTooLong   = "Query is too long. Please keep your question under %d characters."
	errInvalid   = "Please enter a valid question (at least 3 characters)."
	errUnrelated = "This service only supports queries about Breath of the Wild (BOTW) or Tears of the Kingdom (TOTK). Please ask a question about one of these games."
)

// Options tune the pipeline.
type Options struct {
	// MaxQueryLen bounds raw query length before sanitization.
	MaxQueryLen int
	// RerankEnabled turns on the AI reranking pass for freshly fetched
	// results. Cache-served results are never reranked.
	RerankEnabled bool
}

// DefaultOptions match the service defaults.
func DefaultOptions() Options {
	return Options{MaxQueryLen: 512}
}

// Pipeline wires the query path together.
type Pipeline struct {
	cache      *vectorcache.Cache
	fetcher    *fetch.Fetcher
	reranker   *assemble.Reranker
	summarizer *summarize.Summarizer
	sessions   *session.Store
	logger     *zap.Logger
	opts       Options
}

// New creates a Pipeline. The reranker may be nil when reranking is
// disabled; the summarizer may be nil when summaries are unavailable.
func New(cache *vectorcache.Cache, fetcher *fetch.Fetcher, reranker *assemble.Reranker,
	summarizer *summarize.Summarizer, sessions *session.Store, logger *zap.Logger, opts Options) *Pipeline {
	if opts.MaxQueryLen <= 0 {
		opts.MaxQueryLen = DefaultOptions().MaxQueryLen
	}
	return &Pipeline{
		cache:      cache,
		fetcher:    fetcher,
		reranker:   reranker,
		summarizer: summarizer,
		sessions:   sessions,
		logger:     logger,
		opts:       opts,
	}
}

// Run answers one query. Failures never surface as errors: every outcome
// is a well-formed response whose Status and Error fields describe it.
func (p *Pipeline) Run(ctx context.Context, rawQuery string, window models.TimeWindow, forcedForum string) models.QueryResponse {
	query, topic, errResp := p.admit(rawQuery)
	if errResp != nil {
		return *errResp
	}
	p.logger.Info("query accepted",
		zap.String("query", sanitize.LogPrefix(query)),
		zap.String("topic", string(topic)),
		zap.String("window", string(window)))

	status := models.StatusCacheHit
	var posts []*models.Post

	matches, err := p.cache.Query(ctx, query, topK, topic)
	switch {
	case err != nil:
		p.logger.Warn("cache lookup failed, fetching", zap.Error(err))
		status = models.StatusCacheFailed
	case p.cache.Sufficient(matches):
		posts = matchesToPosts(matches)
	default:
		status = models.StatusFetched
	}

	if posts == nil {
		posts = p.fetchAndCache(ctx, query, window, forcedForum)
		if p.opts.RerankEnabled && p.reranker != nil {
			assemble.SortPosts(posts)
			posts = p.reranker.Rerank(ctx, posts, query)
			results := assemble.BuildResults(posts, displayLimit)
			return p.respond(query, results, status)
		}
	}

	assemble.SortPosts(posts)
	results := assemble.BuildResults(posts, displayLimit)
	return p.respond(query, results, status)
}

// CheckCache reports whether the cache alone could answer the query,
// without fetching anything.
func (p *Pipeline) CheckCache(ctx context.Context, rawQuery string) models.CheckCacheResponse {
	query, err := sanitize.Sanitize(rawQuery, p.opts.MaxQueryLen)
	if err != nil {
		return models.CheckCacheResponse{Found: false, Message: "Invalid query"}
	}
	topic, ok := topics.Classify(query)
	if !ok {
		return models.CheckCacheResponse{Found: false, Message: "Unrelated query"}
	}
	matches, err := p.cache.Query(ctx, query, topK, topic)
	if err != nil {
		p.logger.Warn("cache check failed", zap.Error(err))
		return models.CheckCacheResponse{Found: false, Message: "Cache lookup failed"}
	}
	if p.cache.Sufficient(matches) {
		return models.CheckCacheResponse{Found: true, Message: "Found in cache"}
	}
	return models.CheckCacheResponse{Found: false, Message: "Relevant posts not found in cache"}
}

// Summary generates an AI summary over the result set retained for the
// session token. The query must match the one the results answer.
func (p *Pipeline) Summary(ctx context.Context, rawQuery, token string) models.SummaryResponse {
	query, err := sanitize.Sanitize(rawQuery, p.opts.MaxQueryLen)
	if err != nil {
		return models.SummaryResponse{Query: rawQuery, Error: "Invalid query"}
	}
	if p.summarizer == nil {
		return models.SummaryResponse{Query: query, Error: "Summaries are not available"}
	}
	results, ok := p.sessions.Get(token, query)
	if !ok {
		return models.SummaryResponse{Query: query, Error: "No retained results for this query. Run a query first."}
	}
	summary, err := p.summarizer.Summarize(ctx, results, query)
	if err != nil {
		p.logger.Warn("summary generation failed", zap.Error(err))
		return models.SummaryResponse{Query: query, Error: "Failed to generate summary"}
	}
	return models.SummaryResponse{Query: query, Summary: summary, PostCount: len(results)}
}

// admit validates and gates the raw query. A non-nil response means the
// query was rejected.
func (p *Pipeline) admit(rawQuery string) (string, models.Topic, *models.QueryResponse) {
	query, err := sanitize.Sanitize(rawQuery, p.opts.MaxQueryLen)
	if err != nil {
		p.logger.Warn("query rejected",
			zap.String("query", sanitize.LogPrefix(rawQuery)), zap.Error(err))
		msg := errInvalid
		if errors.Is(err, sanitize.ErrQueryTooLong) {
			msg = fmt.Sprintf(errTooLong, p.opts.MaxQueryLen)
		}
		return "", models.TopicNone, &models.QueryResponse{
			Query:   sanitize.LogPrefix(rawQuery),
			Results: []models.DisplayResult{},
			Status:  models.StatusInvalid,
			Error:   msg,
		}
	}
	topic, ok := topics.Classify(query)
	if !ok {
		return "", models.TopicNone, &models.QueryResponse{
			Query:   query,
			Results: []models.DisplayResult{},
			Status:  models.StatusUnrelated,
			Error:   errUnrelated,
		}
	}
	return query, topic, nil
}

// fetchAndCache runs the source fetch, caches the merged posts, and reads
// them back through the cache so relevance reflects embedding distance.
// The upsert is attempted even when the cache lookup that led here failed;
// if the write or the read-back fails, the lexically scored posts are used
// directly.
func (p *Pipeline) fetchAndCache(ctx context.Context, query string, window models.TimeWindow, forcedForum string) []*models.Post {
	raws, residual := p.fetcher.FetchAll(ctx, query, window, forcedForum)
	merged := ranking.MergeAndScore(raws, query)
	posts := make([]*models.Post, 0, len(merged))
	for _, post := range merged {
		posts = append(posts, post)
	}
	p.logger.Info("fetched posts",
		zap.Int("raw", len(raws)), zap.Int("merged", len(posts)),
		zap.String("residual", sanitize.LogPrefix(residual)))
	if len(posts) == 0 {
		return posts
	}

	if err := p.cache.Upsert(ctx, posts); err != nil {
		p.logger.Warn("cache write failed, serving fetched posts", zap.Error(err))
		return posts
	}
	topic, _ := topics.Classify(query)
	matches, err := p.cache.Query(ctx, residual, topK, topic)
	if err != nil || len(matches) == 0 {
		p.logger.Warn("cache read-back failed, serving fetched posts", zap.Error(err))
		return posts
	}
	return matchesToPosts(matches)
}

// matchesToPosts converts cache matches to posts, recording similarity as
// the relevance score.
func matchesToPosts(matches []vectorcache.Match) []*models.Post {
	posts := make([]*models.Post, len(matches))
	for i, m := range matches {
		post := *m.Post
		post.Relevance = 1 - m.Distance
		posts[i] = &post
	}
	return posts
}

func (p *Pipeline) respond(query string, results []models.DisplayResult, status models.Status) models.QueryResponse {
	token := ""
	if p.sessions != nil {
		token = p.sessions.Put(query, results)
	}
	return models.QueryResponse{
		Query:      query,
		Results:    results,
		HasSummary: p.summarizer != nil && len(results) > 0,
		Status:     status,
		Session:    token,
	}
}
