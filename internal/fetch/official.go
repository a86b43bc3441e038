package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/loreseek/loreseek/internal/discovery"
	"github.com/loreseek/loreseek/internal/models"
)

const (
	defaultRedditBase  = "https://www.reddit.com"
	defaultUserAgent   = "loreseek/1.0"
	officialTopComment = 3
)

// listing mirrors the slice of the search API response we consume.
type listing struct {
	Data struct {
		Children []struct {
			Kind string `json:"kind"`
			Data thing  `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type thing struct {
	Title      string  `json:"title"`
	Permalink  string  `json:"permalink"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
	Selftext   string  `json:"selftext"`
	IsVideo    bool    `json:"is_video"`
	Body       string  `json:"body"`
	Stickied   bool    `json:"stickied"`
}

// OfficialAdapter fetches posts through the official search API. Every
// discovered forum is searched with the full per-forum budget, and the
// first few comments of each post are fetched alongside it.
type OfficialAdapter struct {
	baseURL   string
	client    *http.Client
	finder    *discovery.Finder
	userAgent string
	logger    *zap.Logger
}

// NewOfficialAdapter creates the official-API adapter. baseURL may be
// empty to use the public endpoint.
func NewOfficialAdapter(baseURL string, client *http.Client, finder *discovery.Finder, logger *zap.Logger) *OfficialAdapter {
	if baseURL == "" {
		baseURL = defaultRedditBase
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &OfficialAdapter{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    client,
		finder:    finder,
		userAgent: defaultUserAgent,
		logger:    logger,
	}
}

func (a *OfficialAdapter) Name() string { return "official" }

// Fetch discovers forums for the query and searches each one.
// Individual forum failures are logged and skipped.
func (a *OfficialAdapter) Fetch(ctx context.Context, query string, window models.TimeWindow, forcedForum string) ([]models.RawPost, string, error) {
	forums, residual := a.finder.Forums(ctx, query, maxForums, forcedForum)
	limits := officialLimits(len(forums))

	var posts []models.RawPost
	for i, forum := range forums {
		fetched, err := a.searchForum(ctx, forum, query, window, limits[i])
		if err != nil {
			a.logger.Warn("forum search failed",
				zap.String("forum", forum), zap.Error(err))
			continue
		}
		posts = append(posts, fetched...)
	}
	return posts, residual, nil
}

func (a *OfficialAdapter) searchForum(ctx context.Context, forum, query string, window models.TimeWindow, limit int) ([]models.RawPost, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("restrict_sr", "1")
	params.Set("sort", "relevance")
	params.Set("t", string(window))
	params.Set("limit", strconv.Itoa(limit))

	var result listing
	endpoint := fmt.Sprintf("%s/r/%s/search.json?%s", a.baseURL, url.PathEscape(forum), params.Encode())
	if err := a.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	posts := make([]models.RawPost, 0, len(result.Data.Children))
	for _, child := range result.Data.Children {
		post := child.Data
		if post.IsVideo {
			continue
		}
		comments, err := a.topComments(ctx, post.Permalink)
		if err != nil {
			a.logger.Debug("comment fetch failed",
				zap.String("permalink", post.Permalink), zap.Error(err))
		}
		posts = append(posts, models.RawPost{
			Title:      post.Title,
			URL:        a.baseURL + post.Permalink,
			Engagement: post.Score,
			CreatedUTC: int64(post.CreatedUTC),
			Content:    post.Selftext,
			Comments:   comments,
			Forum:      forum,
		})
	}
	return posts, nil
}

// topComments returns the bodies of the first few top-level comments.
func (a *OfficialAdapter) topComments(ctx context.Context, permalink string) ([]string, error) {
	var listings []listing
	endpoint := fmt.Sprintf("%s%s.json?limit=%d", a.baseURL, permalink, officialTopComment)
	if err := a.getJSON(ctx, endpoint, &listings); err != nil {
		return nil, err
	}
	// Index 0 is the post itself, index 1 its comment tree.
	if len(listings) < 2 {
		return nil, nil
	}
	var comments []string
	for _, child := range listings[1].Data.Children {
		if child.Kind != "t1" { // skip "load more" stubs
			continue
		}
		comments = append(comments, child.Data.Body)
		if len(comments) == officialTopComment {
			break
		}
	}
	return comments, nil
}

func (a *OfficialAdapter) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", a.userAgent)
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
