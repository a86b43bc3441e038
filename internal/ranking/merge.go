package ranking

import (
	"regexp"

	"github.com/loreseek/loreseek/internal/models"
	"github.com/loreseek/loreseek/internal/topics"
)

var forumFromURL = regexp.MustCompile(`reddit\.com/r/([a-zA-Z0-9_]+)/`)

// MergeAndScore deduplicates raw candidates by canonical URL and keeps the
// highest-scored occurrence per URL. The reduction is a fold with
// max-by-score: deterministic and independent of input order (ties keep
// the first occurrence, and tied posts share a URL and score).
//
// Posts missing their originating forum get it derived from the URL shape
// ".../r/<forum>/...", or ForumUnknown. Each surviving post is tagged with
// the topic implied by its forum, falling back to topic detection on the
// title.
func MergeAndScore(raws []models.RawPost, query string) map[string]*models.Post {
	merged := make(map[string]*models.Post, len(raws))
	for _, raw := range raws {
		if raw.URL == "" {
			continue
		}
		score := Score(raw.Title, raw.Engagement, len(raw.Comments), query)
		existing, ok := merged[raw.URL]
		if ok && existing.Relevance >= score {
			continue
		}
		merged[raw.URL] = toPost(raw, score)
	}
	return merged
}

func toPost(raw models.RawPost, score float64) *models.Post {
	forum := raw.Forum
	if forum == "" || forum == models.ForumUnknown {
		if m := forumFromURL.FindStringSubmatch(raw.URL); m != nil {
			forum = m[1]
		} else {
			forum = models.ForumUnknown
		}
	}
	topic := topics.ForumTopic(forum)
	if topic == models.TopicNone {
		topic = topics.Detect(raw.Title)
	}
	return &models.Post{
		URL:        raw.URL,
		Title:      raw.Title,
		Content:    raw.Content,
		Comments:   raw.Comments,
		Forum:      forum,
		Topic:      topic,
		CreatedUTC: raw.CreatedUTC,
		Engagement: raw.Engagement,
		Relevance:  score,
	}
}
