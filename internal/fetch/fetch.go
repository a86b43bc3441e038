// Package fetch retrieves candidate posts from the community sources. Two
// adapters cover the same post corpus through different routes: the
// official search API and a general web-search engine. Both run per query
// and their results are merged downstream.
package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/loreseek/loreseek/internal/models"
)

// Adapter fetches raw posts for a query. Each adapter resolves its own
// forum list; the returned residual is the query with forum-indicating
// terms stripped.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, query string, window models.TimeWindow, forcedForum string) (posts []models.RawPost, residual string, err error)
}

// maxForums caps how many forums one adapter fans out to.
const maxForums = 3

// officialLimits returns per-forum fetch limits for the official API
// route, indexed by forum rank.
func officialLimits(n int) []int {
	limits := make([]int, n)
	for i := range limits {
		limits[i] = 100
	}
	return limits
}

// websearchLimits returns per-forum result limits for the web-search
// route. A single forum gets the full budget; with more forums the budget
// skews heavily toward the first, most relevant one.
func websearchLimits(n int) []int {
	switch n {
	case 1:
		return []int{100}
	case 2:
		return []int{50, 20}
	default:
		return []int{50, 20, 5}[:n]
	}
}

// timeKeywords returns search terms biasing web-search results toward the
// requested window. The engine has no native time filter, so recency is
// hinted through the query text.
func timeKeywords(window models.TimeWindow, now time.Time) string {
	switch window {
	case models.WindowMonth:
		prev := now.AddDate(0, 0, -now.Day()) // last day of previous month
		return fmt.Sprintf("%d %s OR %d %s OR last month OR recent",
			now.Year(), now.Month(), prev.Year(), prev.Month())
	case models.WindowYear:
		return fmt.Sprintf("%d OR %d OR this year OR last year OR recent",
			now.Year(), now.Year()-1)
	default:
		return ""
	}
}

// Fetcher fans a query out to all adapters concurrently.
type Fetcher struct {
	adapters []Adapter
	logger   *zap.Logger
}

// NewFetcher creates a Fetcher over the given adapters.
func NewFetcher(logger *zap.Logger, adapters ...Adapter) *Fetcher {
	return &Fetcher{adapters: adapters, logger: logger}
}

// FetchAll runs every adapter concurrently and concatenates their posts.
// A failing adapter is logged and skipped; the fetch succeeds as long as
// any adapter does. The residual query is taken from whichever successful
// adapter finishes last.
func (f *Fetcher) FetchAll(ctx context.Context, query string, window models.TimeWindow, forcedForum string) ([]models.RawPost, string) {
	var (
		mu       sync.Mutex
		posts    []models.RawPost
		residual = query
		wg       sync.WaitGroup
	)
	for _, adapter := range f.adapters {
		wg.Add(1)
		go func(a Adapter) {
			defer wg.Done()
			fetched, cleaned, err := a.Fetch(ctx, query, window, forcedForum)
			if err != nil {
				f.logger.Warn("source adapter failed",
					zap.String("adapter", a.Name()), zap.Error(err))
				return
			}
			mu.Lock()
			posts = append(posts, fetched...)
			if cleaned != "" {
				residual = cleaned
			}
			mu.Unlock()
			f.logger.Debug("source adapter done",
				zap.String("adapter", a.Name()), zap.Int("posts", len(fetched)))
		}(adapter)
	}
	wg.Wait()
	return posts, residual
}
