package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/loreseek/loreseek/internal/discovery"
	"github.com/loreseek/loreseek/internal/models"
)

const (
	defaultSearchBase   = "https://html.duckduckgo.com/html/"
	websearchMaxComment = 5
	minCommentChars     = 30
)

var (
	postIDPattern = regexp.MustCompile(`reddit\.com/r/[^/]+/comments/([a-zA-Z0-9_-]{5,})`)
	// Some result URLs omit the forum segment.
	postIDAltPattern = regexp.MustCompile(`reddit\.com/(?:r/[^/]+/)?comments/([a-zA-Z0-9_-]{5,})`)
)

// WebSearchAdapter finds posts through a web search engine scoped to each
// discovered forum, then fetches the matched posts by ID. The two-step
// route surfaces posts the official search misses, at the cost of a
// smaller per-forum budget.
type WebSearchAdapter struct {
	searchBase string
	redditBase string
	client     *http.Client
	finder     *discovery.Finder
	userAgent  string
	logger     *zap.Logger
	now        func() time.Time
}

// NewWebSearchAdapter creates the web-search adapter. Empty base URLs
// fall back to the public endpoints.
func NewWebSearchAdapter(searchBase, redditBase string, client *http.Client, finder *discovery.Finder, logger *zap.Logger) *WebSearchAdapter {
	if searchBase == "" {
		searchBase = defaultSearchBase
	}
	if redditBase == "" {
		redditBase = defaultRedditBase
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &WebSearchAdapter{
		searchBase: searchBase,
		redditBase: strings.TrimRight(redditBase, "/"),
		client:     client,
		finder:     finder,
		userAgent:  defaultUserAgent,
		logger:     logger,
		now:        time.Now,
	}
}

func (a *WebSearchAdapter) Name() string { return "websearch" }

// Fetch discovers forums, collects post IDs from scoped search results,
// and fetches each post by ID.
func (a *WebSearchAdapter) Fetch(ctx context.Context, query string, window models.TimeWindow, forcedForum string) ([]models.RawPost, string, error) {
	forums, residual := a.finder.Forums(ctx, query, maxForums, forcedForum)
	limits := websearchLimits(len(forums))
	hints := timeKeywords(window, a.now())

	var ids []string
	seen := make(map[string]bool)
	for i, forum := range forums {
		forum = strings.TrimPrefix(forum, "r/")
		searchQuery := residual + " site:reddit.com/r/" + forum
		if hints != "" {
			searchQuery += " " + hints
		}
		forumIDs, err := a.searchPostIDs(ctx, searchQuery, limits[i])
		if err != nil {
			a.logger.Warn("web search failed",
				zap.String("forum", forum), zap.Error(err))
			continue
		}
		for _, id := range forumIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	posts := make([]models.RawPost, 0, len(ids))
	for _, id := range ids {
		post, err := a.fetchByID(ctx, id)
		if err != nil {
			a.logger.Debug("post fetch failed", zap.String("id", id), zap.Error(err))
			continue
		}
		if post != nil {
			posts = append(posts, *post)
		}
	}
	return posts, residual, nil
}

// searchPostIDs runs one search and extracts post IDs from result links,
// in result order, up to limit.
func (a *WebSearchAdapter) searchPostIDs(ctx context.Context, query string, limit int) ([]string, error) {
	endpoint := a.searchBase + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", a.userAgent)
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from search", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var ids []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(ids) >= limit {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				if id := extractPostID(attr.Val); id != "" {
					ids = append(ids, id)
				}
				break
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return ids, nil
}

// extractPostID pulls a post ID out of a result link. Links may be
// wrapped in a redirect with the target URL-encoded in the uddg
// parameter.
func extractPostID(href string) string {
	if u, err := url.Parse(href); err == nil {
		if target := u.Query().Get("uddg"); target != "" {
			href = target
		}
	}
	if m := postIDPattern.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	if m := postIDAltPattern.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}

// fetchByID loads a single post with its comment tree. Returns nil for
// video posts. Comments shorter than minCommentChars and pinned comments
// are dropped; the rest are kept by engagement, highest first.
func (a *WebSearchAdapter) fetchByID(ctx context.Context, id string) (*models.RawPost, error) {
	endpoint := fmt.Sprintf("%s/comments/%s.json?limit=50", a.redditBase, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", a.userAgent)
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for post %s", resp.StatusCode, id)
	}

	var listings []listing
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		return nil, err
	}
	if len(listings) == 0 || len(listings[0].Data.Children) == 0 {
		return nil, fmt.Errorf("post %s not found", id)
	}
	post := listings[0].Data.Children[0].Data
	if post.IsVideo {
		return nil, nil
	}

	var comments []thing
	if len(listings) > 1 {
		for _, child := range listings[1].Data.Children {
			if child.Kind != "t1" {
				continue
			}
			c := child.Data
			if c.Stickied || len(c.Body) <= minCommentChars {
				continue
			}
			comments = append(comments, c)
		}
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].Score > comments[j].Score
	})
	if len(comments) > websearchMaxComment {
		comments = comments[:websearchMaxComment]
	}
	bodies := make([]string, len(comments))
	for i, c := range comments {
		bodies[i] = c.Body
	}

	return &models.RawPost{
		Title:      post.Title,
		URL:        a.redditBase + post.Permalink,
		Engagement: post.Score,
		CreatedUTC: int64(post.CreatedUTC),
		Content:    post.Selftext,
		Comments:   bodies,
	}, nil
}
