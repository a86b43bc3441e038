// Package assemble orders scored posts and shapes them into display
// results, with an optional AI reranking pass over the top candidates.
package assemble

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/loreseek/loreseek/internal/llm"
	"github.com/loreseek/loreseek/internal/models"
)

const (
	// rerankWindow bounds how many posts go into the rerank prompt.
	rerankWindow = 20
	// displayContentLimit truncates non-table content in prompts and
	// display output.
	displayContentLimit = 1000
	// tableMarker flags content whose structure must be preserved.
	tableMarker = "POST CONTAINS TABLE DATA"

	unknownDate = "Unknown date"
	dateLayout  = "2006-01-02"
)

var indexPattern = regexp.MustCompile(`\b\d+\b`)

// SortPosts orders posts by relevance, breaking ties by recency. Posts
// without a timestamp sort as oldest within their relevance band. Sorting
// is stable so equal posts keep their input order.
func SortPosts(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Relevance != posts[j].Relevance {
			return posts[i].Relevance > posts[j].Relevance
		}
		return posts[i].CreatedUTC > posts[j].CreatedUTC
	})
}

// FormatContent prepares post content for prompts and display. Content
// with table structure is marked and kept verbatim; anything else is
// truncated.
func FormatContent(content string) string {
	if content == "" {
		return ""
	}
	if strings.Contains(content, "|") ||
		strings.Contains(content, "\n---") ||
		strings.Contains(content, "\n+-") {
		return tableMarker + ":\n" + content
	}
	if len(content) > displayContentLimit {
		return content[:displayContentLimit] + "..."
	}
	return content
}

// Reranker reorders the top posts via the completion provider.
type Reranker struct {
	completer llm.Completer
	logger    *zap.Logger
}

// NewReranker creates a Reranker.
func NewReranker(completer llm.Completer, logger *zap.Logger) *Reranker {
	return &Reranker{completer: completer, logger: logger}
}

// Rerank asks the provider to order the top posts by relevance to the
// query and returns them in that order. Any provider or parse failure
// keeps the incoming order. Duplicate posts (same title and content) are
// collapsed to their first occurrence.
func (r *Reranker) Rerank(ctx context.Context, posts []*models.Post, query string) []*models.Post {
	if len(posts) == 0 {
		return posts
	}
	window := posts
	if len(window) > rerankWindow {
		window = window[:rerankWindow]
	}

	raw, err := r.completer.Complete(ctx, buildRerankPrompt(window, query))
	if err != nil {
		r.logger.Warn("rerank failed, keeping score order", zap.Error(err))
		return posts
	}
	order, ok := parseRankOrder(raw, len(window))
	if !ok {
		r.logger.Warn("rerank response unparseable, keeping score order")
		return posts
	}

	reranked := make([]*models.Post, 0, len(posts))
	seen := make(map[string]bool, len(window))
	for _, idx := range order {
		post := window[idx]
		key := post.Title + "\x00" + post.Content
		if seen[key] {
			continue
		}
		seen[key] = true
		reranked = append(reranked, post)
	}
	// Posts the provider skipped keep their relative order at the end.
	for _, post := range window {
		key := post.Title + "\x00" + post.Content
		if !seen[key] {
			seen[key] = true
			reranked = append(reranked, post)
		}
	}
	return append(reranked, posts[len(window):]...)
}

func buildRerankPrompt(posts []*models.Post, query string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User query: %s\n\n", query)
	for i, post := range posts {
		fmt.Fprintf(&b, "Post %d:\nTitle: %s\nDate: %s\n", i+1, post.Title, displayDate(post.CreatedUTC))
		if post.Content != "" {
			formatted := FormatContent(post.Content)
			if strings.Contains(formatted, tableMarker) {
				b.WriteString("THIS POST CONTAINS FORMATTED TABLE DATA - PAY SPECIAL ATTENTION\n")
			}
			fmt.Fprintf(&b, "Post Content:\n%s\n", formatted)
		}
		b.WriteString("\n")
	}
	b.WriteString("Rank all the posts from most to least relevant to the query. " +
		"Relevance is how closely title AND content match the meaning of the query; consider similar terms. " +
		"Posts with tables, detailed guides, or comprehensive information relevant to the query rank higher. " +
		"If two posts are equally relevant, rank the newer one higher. " +
		"Return ONLY a comma-separated list of post indices (1-based) in ranked order, for example: 3, 1, 2. " +
		"Rank a duplicate post (same title and content) only once; do not skip any other post.\n")
	return b.String()
}

// parseRankOrder extracts 0-based post indices from the provider's reply.
// Out-of-range and repeated indices are dropped. Returns ok=false when
// nothing usable remains.
func parseRankOrder(raw string, n int) ([]int, bool) {
	var order []int
	used := make(map[int]bool, n)
	for _, m := range indexPattern.FindAllString(raw, -1) {
		v, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		idx := v - 1
		if idx < 0 || idx >= n || used[idx] {
			continue
		}
		used[idx] = true
		order = append(order, idx)
	}
	return order, len(order) > 0
}

func displayDate(createdUTC int64) string {
	if createdUTC <= 0 {
		return unknownDate
	}
	return time.Unix(createdUTC, 0).UTC().Format(dateLayout)
}

// BuildResults shapes ordered posts into display results. The first
// result is flagged as the top post.
func BuildResults(posts []*models.Post, limit int) []models.DisplayResult {
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	results := make([]models.DisplayResult, len(posts))
	for i, post := range posts {
		results[i] = models.DisplayResult{
			Title:      post.Title,
			URL:        post.URL,
			Content:    FormatContent(post.Content),
			Comments:   nonEmptyComments(post.Comments),
			Forum:      post.Forum,
			Date:       displayDate(post.CreatedUTC),
			CreatedUTC: post.CreatedUTC,
			Relevance:  post.Relevance,
			IsTopPost:  i == 0,
		}
	}
	return results
}

func nonEmptyComments(comments []string) []string {
	var out []string
	for _, c := range comments {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}
