// Package models defines core data structures for posts, queries, and results.
package models

import "strings"

// Topic identifies one of the games the service knows about.
type Topic string

const (
	TopicBOTW Topic = "BOTW"
	TopicTOTK Topic = "TOTK"
	TopicTP   Topic = "TP"
	TopicSS   Topic = "SS"
	TopicMM   Topic = "MM"
	TopicOOT  Topic = "OOT"
	TopicWW   Topic = "WW"

	// TopicNone marks a post or query with no detected game.
	TopicNone Topic = ""
)

// ForumUnknown is the forum value for posts whose originating community
// could not be determined.
const ForumUnknown = "unknown"

// CommentsDelimiter joins a post's comments into a single string for
// storage. Comments containing the delimiter would not round-trip; fetched
// comments are plain text and do not contain it in practice.
const CommentsDelimiter = " | "

// RawPost is a candidate post as returned by a source adapter, before
// merging and scoring.
type RawPost struct {
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Engagement int      `json:"score"`
	CreatedUTC int64    `json:"created_utc,omitempty"` // unix seconds; 0 = unknown
	Content    string   `json:"content,omitempty"`
	Comments   []string `json:"comments,omitempty"`
	Forum      string   `json:"forum,omitempty"`
}

// Post is a deduplicated, scored discussion post. Identity is the canonical
// URL; within one pipeline run at most one Post per URL survives merging.
type Post struct {
	URL        string   `json:"url"`
	Title      string   `json:"title"` // unmodified display title
	Content    string   `json:"content,omitempty"`
	Comments   []string `json:"comments,omitempty"`
	Forum      string   `json:"forum"`
	Topic      Topic    `json:"topic,omitempty"`
	CreatedUTC int64    `json:"created_utc,omitempty"`
	Engagement int      `json:"engagement"`
	Relevance  float64  `json:"relevance"`
}

// JoinComments flattens a comment list into a single delimited string.
func JoinComments(comments []string) string {
	return strings.Join(comments, CommentsDelimiter)
}

// SplitComments reverses JoinComments. An empty string yields nil.
func SplitComments(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, CommentsDelimiter)
}
