// Package sanitize validates and cleans user query text before any
// network or paid-provider cost is incurred.
package sanitize

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrQueryTooLong is returned when the input exceeds the allowed length.
	ErrQueryTooLong = errors.New("query exceeds maximum length")
	// ErrQueryEmpty is returned when the input is empty or too short after
	// sanitization.
	ErrQueryEmpty = errors.New("query empty or too short after sanitization")
)

// MinQueryLen is the minimum sanitized query length.
const MinQueryLen = 3

// LogPrefixLen bounds how much of a rejected query is ever logged.
const LogPrefixLen = 100

var (
	// Printable ASCII plus tab, newline, and carriage return. Everything
	// else (control bytes, non-ASCII after normalization) is stripped.
	nonPrintable = regexp.MustCompile(`[^\x09\x0A\x0D\x20-\x7E]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Sanitize cleans text and enforces length bounds. The input is rejected
// outright when longer than maxLen; otherwise it is normalized to Unicode
// NFKC, stripped to printable ASCII, whitespace-collapsed, and trimmed.
// Returns ErrQueryEmpty if fewer than MinQueryLen characters remain.
//
// Sanitize is idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(text string, maxLen int) (string, error) {
	if len(text) > maxLen {
		return "", ErrQueryTooLong
	}
	s := norm.NFKC.String(text)
	s = nonPrintable.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if len(s) < MinQueryLen {
		return "", ErrQueryEmpty
	}
	return s, nil
}

// LogPrefix returns the first LogPrefixLen characters of q for diagnostic
// logging of rejected input.
func LogPrefix(q string) string {
	if len(q) > LogPrefixLen {
		return q[:LogPrefixLen]
	}
	return q
}
