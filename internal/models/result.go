package models

// DisplayResult is one formatted entry of the user-facing result list.
type DisplayResult struct {
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Content    string   `json:"content,omitempty"`
	Comments   []string `json:"comments,omitempty"`
	Forum      string   `json:"forum"`
	Date       string   `json:"date"` // "2006-01-02" or "Unknown date"
	CreatedUTC int64    `json:"created_utc,omitempty"`
	Relevance  float64  `json:"relevance"`
	IsTopPost  bool     `json:"is_top_post"`
	// Summary stays empty per result; summaries are generated on demand
	// over the whole retained set.
	Summary string `json:"summary,omitempty"`
}

// QueryResponse is the response for a query request. Failures are reported
// through the Error field on a well-formed response, never as a raw error.
type QueryResponse struct {
	Query      string          `json:"query"`
	Results    []DisplayResult `json:"results"`
	HasSummary bool            `json:"has_summary"`
	Status     Status          `json:"status"`
	Session    string          `json:"session,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// SummaryResponse is the response for an on-demand summary request.
type SummaryResponse struct {
	Query     string `json:"query"`
	Summary   string `json:"summary,omitempty"`
	PostCount int    `json:"post_count"`
	Error     string `json:"error,omitempty"`
}

// CheckCacheResponse reports the sufficiency-gate decision without fetching.
type CheckCacheResponse struct {
	Found   bool   `json:"found_in_cache"`
	Message string `json:"message"`
}
