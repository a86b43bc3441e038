// Package ranking scores candidate posts against a query and merges
// duplicates by canonical URL.
package ranking

import (
	"regexp"
	"strings"
)

// Scoring weights. Match bonuses dominate; engagement and comment volume
// only break ties between lexically similar posts.
const (
	phraseBonus       = 2.0
	wordOverlapBonus  = 1.0
	engagementDivisor = 5000.0
	commentWeight     = 0.001
)

var wordPattern = regexp.MustCompile(`\w+`)

// normalizeWord lowercases and crudely singularizes a token: a trailing
// single "s" is stripped when the token is longer than 3 characters.
func normalizeWord(w string) string {
	w = strings.ToLower(w)
	if len(w) > 3 && strings.HasSuffix(w, "s") {
		w = w[:len(w)-1]
	}
	return w
}

func normalizedTokens(s string) []string {
	words := wordPattern.FindAllString(s, -1)
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = normalizeWord(w)
	}
	return out
}

// Score computes a post's relevance to a query from its title, engagement
// score, and comment count. Pure and total: defined for empty titles,
// empty queries, and zero engagement.
//
// In precedence order: containment of the normalized query phrase in the
// normalized title earns the phrase bonus; otherwise any normalized query
// token equal to a title token earns the overlap bonus once. Engagement
// and comment volume add small linear terms.
func Score(title string, engagement int, commentCount int, query string) float64 {
	score := 0.0

	titleTokens := normalizedTokens(title)
	queryTokens := normalizedTokens(query)
	normTitle := strings.Join(titleTokens, " ")
	normQuery := strings.Join(queryTokens, " ")

	if normQuery != "" && strings.Contains(normTitle, normQuery) {
		score += phraseBonus
	} else {
	overlap:
		for _, qw := range queryTokens {
			for _, tw := range titleTokens {
				if qw == tw {
					score += wordOverlapBonus
					break overlap
				}
			}
		}
	}

	score += float64(engagement) / engagementDivisor
	score += float64(commentCount) * commentWeight
	return score
}
