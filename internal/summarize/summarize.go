// Package summarize produces an AI summary answering the user's query
// from a retained result set.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/loreseek/loreseek/internal/llm"
	"github.com/loreseek/loreseek/internal/models"
)

// maxPosts bounds how many results feed the summary prompt.
const maxPosts = 10

// Summarizer condenses a result set into a direct answer.
type Summarizer struct {
	completer llm.Completer
	logger    *zap.Logger
}

// New creates a Summarizer.
func New(completer llm.Completer, logger *zap.Logger) *Summarizer {
	return &Summarizer{completer: completer, logger: logger}
}

// Summarize answers the query from the given results. Returns an error
// when there are no results or the provider fails.
func (s *Summarizer) Summarize(ctx context.Context, results []models.DisplayResult, query string) (string, error) {
	if len(results) == 0 {
		return "", fmt.Errorf("no results to summarize")
	}
	if len(results) > maxPosts {
		results = results[:maxPosts]
	}

	summary, err := s.completer.Complete(ctx, buildPrompt(results, query))
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", fmt.Errorf("empty summary from provider")
	}
	return summary, nil
}

func buildPrompt(results []models.DisplayResult, query string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User query: %s\n\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "Post %d:\nTitle: %s\nDate: %s\n", i+1, r.Title, r.Date)
		if r.Content != "" {
			fmt.Fprintf(&b, "Content: %s\n", r.Content)
		}
		for _, c := range r.Comments {
			fmt.Fprintf(&b, "Comment: %s\n", c)
		}
		b.WriteString("\n")
	}
	b.WriteString("Using only the posts above, write a concise answer to the user query. " +
		"Prefer concrete details (locations, stats, steps) over generalities. " +
		"When posts disagree, prefer the newer post. " +
		"Do not mention the posts or that you are summarizing; just answer the question.\n")
	return b.String()
}
