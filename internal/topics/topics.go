// Package topics holds the static topic alias tables and the query
// classifier. The tables are immutable after package load.
package topics

import (
	"errors"
	"strings"

	"github.com/loreseek/loreseek/internal/models"
)

// ErrUnsupportedTopic is returned when a query matches no supported topic.
var ErrUnsupportedTopic = errors.New("query matches no supported topic")

// aliasEntry maps a topic to its recognized name variants. Aliases are
// lowercase and matched as substrings of a punctuation-stripped query.
type aliasEntry struct {
	Topic   models.Topic
	Name    string // full display name
	Aliases []string
}

// queryable lists the topics the service answers questions about, in
// tie-break order (first match wins). Aliases are expected non-overlapping
// across topics.
var queryable = []aliasEntry{
	{models.TopicBOTW, "Breath of the Wild", []string{"botw", "breath of the wild"}},
	{models.TopicTOTK, "Tears of the Kingdom", []string{"totk", "tears of the kingdom"}},
}

// tagOnly extends the alias table for tagging fetched posts. These topics
// are recognized in post titles and forum names but do not make a query
// supported.
var tagOnly = []aliasEntry{
	{models.TopicTP, "Twilight Princess", []string{"tp", "twilight princess"}},
	{models.TopicSS, "Skyward Sword", []string{"ss", "skyward sword"}},
	{models.TopicMM, "Majora's Mask", []string{"mm", "majoras mask", "majora's mask"}},
	{models.TopicOOT, "Ocarina of Time", []string{"oot", "ocarina of time"}},
	{models.TopicWW, "Wind Waker", []string{"ww", "wind waker"}},
}

// forumTopics maps known community forum names (lowercased) to topics,
// used to tag posts at ingest by their originating forum.
var forumTopics = map[string]models.Topic{
	"botw":               models.TopicBOTW,
	"breath_of_the_wild": models.TopicBOTW,
	"breathofthewild":    models.TopicBOTW,
	"totk":               models.TopicTOTK,
	"tearsofthekingdom":  models.TopicTOTK,
	"truezelda":          models.TopicNone,
	"zelda":              models.TopicNone,
}

// Abbreviations expands short game names for discovery prompts.
var Abbreviations = map[string]string{
	"botw": "breath of the wild",
	"totk": "tears of the kingdom",
	"tp":   "twilight princess",
	"ss":   "skyward sword",
	"mm":   "majoras mask",
	"oot":  "ocarina of time",
	"ww":   "wind waker",
}

// DefaultForums is the fail-closed forum list used when discovery cannot
// produce a usable answer.
var DefaultForums = []string{"gaming"}

var punctReplacer = strings.NewReplacer(
	"!", "", "?", "", ".", "", ",", "", ";", "", ":", "",
	"'", "", `"`, "", "(", "", ")", "", "[", "", "]", "",
)

func stripPunct(s string) string {
	return punctReplacer.Replace(strings.ToLower(s))
}

// matchesAlias reports whether cleaned contains alias. Multi-word aliases
// match as substrings; single-word aliases match whole words only, so a
// short alias like "ss" never matches inside "boss".
func matchesAlias(cleaned, alias string) bool {
	if strings.Contains(alias, " ") {
		return strings.Contains(cleaned, alias)
	}
	for _, w := range strings.Fields(cleaned) {
		if w == alias {
			return true
		}
	}
	return false
}

// Classify determines which supported topic a query belongs to, if any.
// Matching is case-insensitive substring match after punctuation stripping,
// so "botw?" and "BOTW!" both match. First matching topic in table order
// wins.
func Classify(query string) (models.Topic, bool) {
	cleaned := stripPunct(query)
	for _, e := range queryable {
		for _, alias := range e.Aliases {
			if matchesAlias(cleaned, alias) {
				return e.Topic, true
			}
		}
	}
	return models.TopicNone, false
}

// Detect tags a query or title with any known topic, including tag-only
// ones. Used for post tagging at ingest, not for the query gate.
func Detect(text string) models.Topic {
	cleaned := stripPunct(text)
	for _, e := range queryable {
		for _, alias := range e.Aliases {
			if matchesAlias(cleaned, alias) {
				return e.Topic
			}
		}
	}
	for _, e := range tagOnly {
		for _, alias := range e.Aliases {
			if matchesAlias(cleaned, alias) {
				return e.Topic
			}
		}
	}
	return models.TopicNone
}

// ForumTopic returns the topic a forum is dedicated to, or TopicNone.
func ForumTopic(forum string) models.Topic {
	return forumTopics[strings.ToLower(forum)]
}

// DisplayName returns the full name for a topic, or "" when unknown.
func DisplayName(topic models.Topic) string {
	for _, e := range queryable {
		if e.Topic == topic {
			return e.Name
		}
	}
	for _, e := range tagOnly {
		if e.Topic == topic {
			return e.Name
		}
	}
	return ""
}

// Mentions reports whether text contains any alias of topic.
func Mentions(text string, topic models.Topic) bool {
	cleaned := stripPunct(text)
	for _, tables := range [][]aliasEntry{queryable, tagOnly} {
		for _, e := range tables {
			if e.Topic != topic {
				continue
			}
			for _, alias := range e.Aliases {
				if matchesAlias(cleaned, alias) {
					return true
				}
			}
		}
	}
	return false
}
