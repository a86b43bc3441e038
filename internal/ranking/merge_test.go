package ranking

import (
	"testing"

	"github.com/loreseek/loreseek/internal/models"
)

func TestMergeKeepsHighestScoredDuplicate(t *testing.T) {
	url := "https://www.reddit.com/r/botw/comments/abc123/post/"
	low := models.RawPost{Title: "unrelated", URL: url, Engagement: 10}
	high := models.RawPost{Title: "best shield guide", URL: url, Engagement: 10}

	forward := MergeAndScore([]models.RawPost{low, high}, "best shield")
	backward := MergeAndScore([]models.RawPost{high, low}, "best shield")

	if len(forward) != 1 || len(backward) != 1 {
		t.Fatalf("expected 1 merged post, got %d and %d", len(forward), len(backward))
	}
	if forward[url].Title != "best shield guide" || backward[url].Title != "best shield guide" {
		t.Error("merge should keep the higher-scored occurrence regardless of order")
	}
	if forward[url].Relevance != backward[url].Relevance {
		t.Error("merge should be order-independent")
	}
}

func TestMergeDistinctURLsSurvive(t *testing.T) {
	posts := []models.RawPost{
		{Title: "a", URL: "https://example.com/1"},
		{Title: "b", URL: "https://example.com/2"},
	}
	merged := MergeAndScore(posts, "query")
	if len(merged) != 2 {
		t.Errorf("expected 2 posts, got %d", len(merged))
	}
}

func TestMergeSkipsEmptyURL(t *testing.T) {
	merged := MergeAndScore([]models.RawPost{{Title: "no url"}}, "query")
	if len(merged) != 0 {
		t.Errorf("posts without a URL should be dropped, got %d", len(merged))
	}
}

func TestMergeDerivesForumFromURL(t *testing.T) {
	url := "https://www.reddit.com/r/tearsofthekingdom/comments/xyz/post/"
	merged := MergeAndScore([]models.RawPost{{Title: "t", URL: url}}, "q")
	post := merged[url]
	if post.Forum != "tearsofthekingdom" {
		t.Errorf("expected forum derived from URL, got %q", post.Forum)
	}
	if post.Topic != models.TopicTOTK {
		t.Errorf("expected TOTK tag from forum, got %q", post.Topic)
	}
}

func TestMergeUnknownForum(t *testing.T) {
	url := "https://example.com/thread/1"
	merged := MergeAndScore([]models.RawPost{{Title: "t", URL: url}}, "q")
	if merged[url].Forum != models.ForumUnknown {
		t.Errorf("expected unknown forum, got %q", merged[url].Forum)
	}
}

func TestMergeTagsTopicFromTitle(t *testing.T) {
	url := "https://www.reddit.com/r/gaming/comments/abc/post/"
	merged := MergeAndScore([]models.RawPost{{Title: "Breath of the Wild combat tips", URL: url}}, "q")
	if merged[url].Topic != models.TopicBOTW {
		t.Errorf("expected BOTW tag from title, got %q", merged[url].Topic)
	}
}
