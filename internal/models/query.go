package models

// TimeWindow selects how far back source fetches should look.
type TimeWindow string

const (
	WindowAll   TimeWindow = "all"
	WindowYear  TimeWindow = "year"
	WindowMonth TimeWindow = "month"
)

// ParseTimeWindow maps a request parameter to a TimeWindow, defaulting to
// WindowAll for unknown values.
func ParseTimeWindow(s string) TimeWindow {
	switch TimeWindow(s) {
	case WindowYear:
		return WindowYear
	case WindowMonth:
		return WindowMonth
	default:
		return WindowAll
	}
}

// Status describes where a query's results came from.
type Status string

const (
	// StatusCacheHit: enough similar posts were already cached; no fetch ran.
	StatusCacheHit Status = "found in cache"
	// StatusFetched: the cache was insufficient; new posts were fetched,
	// cached, and read back.
	StatusFetched Status = "fetched new posts"
	// StatusCacheFailed: the cache backend failed on read; the fetch path
	// ran as a fallback.
	StatusCacheFailed Status = "cache unavailable, fetched new posts"
	// StatusUnrelated: the query matched no supported topic.
	StatusUnrelated Status = "unrelated query"
	// StatusInvalid: the query failed validation.
	StatusInvalid Status = "invalid query"
)
