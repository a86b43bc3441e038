package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/loreseek/loreseek/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "posts.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func samplePost(url string) *models.Post {
	return &models.Post{
		URL:        url,
		Title:      "Best early game weapons",
		Content:    "The traveler's sword is easy to find near the plateau.",
		Comments:   []string{"Try the soldier's claymore", "Bomb arrows work too"},
		Forum:      "botw",
		Topic:      models.TopicBOTW,
		Engagement: 1200,
		Relevance:  2.41,
		CreatedUTC: 1650000000,
	}
}

func TestUpsertAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := samplePost("https://reddit.com/r/botw/comments/abc/")
	if err := store.Upsert(ctx, want); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := store.Get(ctx, want.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != want.Title || got.Content != want.Content {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if len(got.Comments) != 2 || got.Comments[0] != "Try the soldier's claymore" {
		t.Errorf("comments not preserved: %v", got.Comments)
	}
	if got.Topic != models.TopicBOTW || got.Forum != "botw" {
		t.Errorf("topic/forum mismatch: %q %q", got.Topic, got.Forum)
	}
	if got.Engagement != 1200 || got.Relevance != 2.41 || got.CreatedUTC != 1650000000 {
		t.Errorf("numeric fields mismatch: %+v", got)
	}
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "https://reddit.com/r/botw/comments/missing/")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	post := samplePost("https://reddit.com/r/botw/comments/abc/")
	if err := store.Upsert(ctx, post); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	post.Relevance = 5.0
	post.Engagement = 9000
	if err := store.Upsert(ctx, post); err != nil {
		t.Fatalf("Upsert (replace): %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row after re-upsert, got %d", count)
	}
	got, err := store.Get(ctx, post.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Relevance != 5.0 || got.Engagement != 9000 {
		t.Errorf("replace did not take effect: %+v", got)
	}
}

func TestUpsertBatchAndGetBatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	posts := []*models.Post{
		samplePost("https://reddit.com/r/botw/comments/a/"),
		samplePost("https://reddit.com/r/totk/comments/b/"),
		samplePost("https://reddit.com/r/gaming/comments/c/"),
	}
	if err := store.UpsertBatch(ctx, posts); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}

	got, err := store.GetBatch(ctx, []string{
		"https://reddit.com/r/totk/comments/b/",
		"https://reddit.com/r/nope/comments/x/",
		"https://reddit.com/r/botw/comments/a/",
	})
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(got))
	}
	if got[0].URL != "https://reddit.com/r/totk/comments/b/" {
		t.Errorf("GetBatch should preserve input order, got %q first", got[0].URL)
	}
}

func TestHas(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	url := "https://reddit.com/r/botw/comments/abc/"
	ok, err := store.Has(ctx, url)
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if ok {
		t.Error("Has should be false before upsert")
	}
	if err := store.Upsert(ctx, samplePost(url)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	ok, err = store.Has(ctx, url)
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !ok {
		t.Error("Has should be true after upsert")
	}
}

func TestListAndDeleteAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, u := range []string{"https://a/", "https://b/", "https://c/"} {
		if err := store.Upsert(ctx, samplePost(u)); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	posts, err := store.List(ctx, 0, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}

	if err := store.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 rows after DeleteAll, got %d", count)
	}
}

func TestEmptyCommentsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	post := samplePost("https://reddit.com/r/botw/comments/nc/")
	post.Comments = nil
	if err := store.Upsert(ctx, post); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err := store.Get(ctx, post.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Comments != nil {
		t.Errorf("expected nil comments, got %v", got.Comments)
	}
}
