package utils

// TruncateChars returns s truncated to at most maxChars characters.
// If maxChars is 0 or negative, returns s unchanged.
func TruncateChars(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	return s[:maxChars]
}

// TruncateEllipsis returns s truncated to maxChars characters with "..."
// appended when truncation occurred.
func TruncateEllipsis(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	return s[:maxChars] + "..."
}
