// Package discovery maps a user query to relevant community forums via the
// completion provider, returning a residual query with forum-indicating
// terms stripped. Provider output is parsed defensively; malformed
// responses fail closed to the default forum list and the query unchanged.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/loreseek/loreseek/internal/llm"
	"github.com/loreseek/loreseek/internal/topics"
	"go.uber.org/zap"
)

// Finder asks the completion provider for relevant forums. It holds no
// state, so one Finder can serve concurrent fetches.
type Finder struct {
	completer llm.Completer
	logger    *zap.Logger
}

// NewFinder creates a Finder.
func NewFinder(completer llm.Completer, logger *zap.Logger) *Finder {
	return &Finder{completer: completer, logger: logger}
}

// Forums returns up to maxForums forum names for the query plus the
// residual query. When forced is non-empty, discovery passes it through and
// asks the provider only to strip the query segment implying that forum.
// This function never fails: any provider or parse error degrades to the
// default forum list and the original query.
func (f *Finder) Forums(ctx context.Context, query string, maxForums int, forced string) ([]string, string) {
	if maxForums <= 0 {
		maxForums = 3
	}
	prompt := f.buildPrompt(query, maxForums, forced)

	raw, err := f.completer.Complete(ctx, prompt)
	if err != nil {
		f.logger.Warn("forum discovery failed, using defaults", zap.Error(err))
		return f.fallback(forced), query
	}

	forums, residual, ok := parseResponse(raw)
	if !ok {
		f.logger.Warn("forum discovery response unparseable, using defaults",
			zap.String("response_prefix", prefix(raw, 120)))
		return f.fallback(forced), query
	}
	if forced != "" {
		// The forum set is fixed; only the residual comes from the provider.
		forums = []string{forced}
	}
	if residual == "" {
		residual = query
	}
	if len(forums) == 0 {
		forums = append([]string(nil), topics.DefaultForums...)
	}
	if len(forums) > maxForums {
		forums = forums[:maxForums]
	}
	return forums, residual
}

func (f *Finder) fallback(forced string) []string {
	if forced != "" {
		return []string{forced}
	}
	return append([]string(nil), topics.DefaultForums...)
}

// abbreviationWord returns the first query word that is a known game
// abbreviation, or "".
func abbreviationWord(query string) string {
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if _, ok := topics.Abbreviations[w]; ok {
			return w
		}
	}
	return ""
}

func (f *Finder) buildPrompt(query string, maxForums int, forced string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User query: %s\n\n", query)
	if forced != "" {
		fmt.Fprintf(&b, "The target forum is %q.\n", forced)
		b.WriteString("Remove the part of the query that implies that forum and return the rest.\n")
		fmt.Fprintf(&b, "Respond ONLY with a JSON array of two elements: [[%q], \"remaining query\"].\n", forced)
		return b.String()
	}
	fmt.Fprintf(&b, "Suggest up to %d relevant community forum names (without any 'r/' prefix). ", maxForums)
	b.WriteString("Only suggest forums specifically about the queried game; skip vaguely related ones.\n")
	if abbrev := abbreviationWord(query); abbrev != "" {
		full := topics.Abbreviations[abbrev]
		fmt.Fprintf(&b, "The term %q abbreviates %q; include either form if it names a forum, preferring the abbreviation.\n", abbrev, full)
	}
	b.WriteString("Respond ONLY with a JSON array of two elements: ")
	b.WriteString(`[["forum1", "forum2"], "the query with forum-indicating terms removed"].` + "\n")
	return b.String()
}

// parseResponse extracts ([forums], residual) from free-form provider
// output. Accepts a two-element JSON array whose first element is a string
// list (or a single string) and whose second is a string. Returns ok=false
// for anything else.
func parseResponse(raw string) ([]string, string, bool) {
	raw = strings.TrimSpace(raw)
	// Providers often wrap JSON in markdown fences; cut to the outermost array.
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, "", false
	}
	var parts []json.RawMessage
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parts); err != nil {
		return nil, "", false
	}
	if len(parts) != 2 {
		return nil, "", false
	}

	var forums []string
	if err := json.Unmarshal(parts[0], &forums); err != nil {
		var single string
		if err := json.Unmarshal(parts[0], &single); err != nil {
			return nil, "", false
		}
		forums = []string{single}
	}
	var residual string
	if err := json.Unmarshal(parts[1], &residual); err != nil {
		return nil, "", false
	}

	cleaned := forums[:0]
	for _, forum := range forums {
		forum = strings.TrimSpace(strings.TrimPrefix(forum, "r/"))
		if forum != "" {
			cleaned = append(cleaned, forum)
		}
	}
	return cleaned, strings.TrimSpace(residual), true
}

func prefix(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
