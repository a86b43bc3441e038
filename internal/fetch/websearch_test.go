package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/loreseek/loreseek/internal/models"
)

const resultsPage = `<html><body>
<div class="result">
	<a class="result__a" href="https://www.reddit.com/r/botw/comments/abc12/best_shield/">Best shield</a>
</div>
<div class="result">
	<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.reddit.com%2Fr%2Fbotw%2Fcomments%2Fdef34%2Fcooking%2F">Cooking</a>
</div>
<div class="result">
	<a class="result__a" href="https://example.com/not-reddit">Unrelated</a>
</div>
<div class="result">
	<a class="result__a" href="https://www.reddit.com/r/botw/comments/abc12/best_shield/">Duplicate</a>
</div>
</body></html>`

func postJSON(id, title string, comments string) string {
	return fmt.Sprintf(`[
		{"data": {"children": [{"kind": "t3", "data": {
			"title": %q,
			"permalink": "/r/botw/comments/%s/p/",
			"score": 321,
			"created_utc": 1650000000.0,
			"selftext": "body text",
			"is_video": false
		}}]}},
		{"data": {"children": [%s]}}
	]`, title, id, comments)
}

func newWebSearchServer(t *testing.T) (*httptest.Server, *WebSearchAdapter) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/html/":
			io.WriteString(w, resultsPage)
		case r.URL.Path == "/comments/abc12.json":
			fmt.Fprint(w, postJSON("abc12", "Best shield in the game", `
				{"kind": "t1", "data": {"body": "short", "score": 99}},
				{"kind": "t1", "data": {"body": "A pinned moderator announcement post", "score": 90, "stickied": true}},
				{"kind": "t1", "data": {"body": "The castle lockup respawns it every blood moon", "score": 50}},
				{"kind": "t1", "data": {"body": "You can also buy one in Tarrey Town later on", "score": 80}}`))
		case r.URL.Path == "/comments/def34.json":
			fmt.Fprint(w, postJSON("def34", "Cooking recipes", ""))
		default:
			t.Errorf("unexpected request path %q", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	adapter := NewWebSearchAdapter(srv.URL+"/html/", srv.URL, srv.Client(),
		stubFinder([]string{"botw"}, "best shield"), zap.NewNop())
	return srv, adapter
}

func TestWebSearchAdapterFetch(t *testing.T) {
	srv, adapter := newWebSearchServer(t)
	defer srv.Close()

	posts, residual, err := adapter.Fetch(context.Background(), "best shield botw", models.WindowAll, "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if residual != "best shield" {
		t.Errorf("expected residual from discovery, got %q", residual)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts (duplicate and non-reddit link dropped), got %d", len(posts))
	}
	if posts[0].Title != "Best shield in the game" {
		t.Errorf("unexpected first post %q", posts[0].Title)
	}
	if posts[1].Title != "Cooking recipes" {
		t.Errorf("unexpected second post %q", posts[1].Title)
	}
}

func TestWebSearchCommentFiltering(t *testing.T) {
	srv, adapter := newWebSearchServer(t)
	defer srv.Close()

	posts, _, err := adapter.Fetch(context.Background(), "best shield botw", models.WindowAll, "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	comments := posts[0].Comments
	// "short" is under the length floor, the stickied one is dropped, the
	// rest come back ordered by engagement.
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d: %v", len(comments), comments)
	}
	if comments[0] != "You can also buy one in Tarrey Town later on" {
		t.Errorf("expected highest-engagement comment first, got %q", comments[0])
	}
	if comments[1] != "The castle lockup respawns it every blood moon" {
		t.Errorf("unexpected second comment %q", comments[1])
	}
}

func TestExtractPostID(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"https://www.reddit.com/r/botw/comments/abc12/title/", "abc12"},
		{"//duckduckgo.com/l/?uddg=" + url.QueryEscape("https://www.reddit.com/r/totk/comments/xyz99/t/"), "xyz99"},
		{"https://www.reddit.com/comments/noforum1/", "noforum1"},
		{"https://example.com/nothing", ""},
		{"https://www.reddit.com/r/botw/comments/ab/too-short/", ""},
	}
	for _, tt := range tests {
		if got := extractPostID(tt.href); got != tt.want {
			t.Errorf("extractPostID(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}

func TestTimeKeywords(t *testing.T) {
	now := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	if got := timeKeywords(models.WindowAll, now); got != "" {
		t.Errorf("all-time window should add no keywords, got %q", got)
	}
	year := timeKeywords(models.WindowYear, now)
	if !strings.Contains(year, "2026") || !strings.Contains(year, "2025") {
		t.Errorf("year keywords missing years: %q", year)
	}
	month := timeKeywords(models.WindowMonth, now)
	if !strings.Contains(month, "March") || !strings.Contains(month, "February") {
		t.Errorf("month keywords missing months: %q", month)
	}

	// January must roll the previous month into the previous year.
	jan := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	month = timeKeywords(models.WindowMonth, jan)
	if !strings.Contains(month, "2025 December") {
		t.Errorf("January should reference 2025 December: %q", month)
	}
}

func TestWebsearchLimits(t *testing.T) {
	tests := []struct {
		n    int
		want []int
	}{
		{1, []int{100}},
		{2, []int{50, 20}},
		{3, []int{50, 20, 5}},
	}
	for _, tt := range tests {
		got := websearchLimits(tt.n)
		if len(got) != len(tt.want) {
			t.Fatalf("websearchLimits(%d) length %d, want %d", tt.n, len(got), len(tt.want))
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("websearchLimits(%d)[%d] = %d, want %d", tt.n, i, got[i], tt.want[i])
			}
		}
	}
}
