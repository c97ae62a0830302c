package domain

import "time"

// Sort order values accepted by search options.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// SearchFilters narrows a search. All set filters are conjunctive (AND).
// Engine-specific filters (commodity, price range, date range) are ignored by
// engines that don't recognize them.
type SearchFilters struct {
	Location  string
	Commodity string
	PriceMin  *float64
	PriceMax  *float64
	DateFrom  *time.Time
	DateTo    *time.Time
}

// SearchOptions controls pagination and ordering.
type SearchOptions struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Normalize applies the documented defaults: page 1, limit 10,
// sort by createdAt descending.
func (o SearchOptions) Normalize() SearchOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = 10
	}
	if o.Limit > 100 {
		o.Limit = 100
	}
	if o.SortBy == "" {
		o.SortBy = "createdAt"
	}
	if o.SortOrder != SortAsc {
		o.SortOrder = SortDesc
	}
	return o
}

// Offset returns the row offset for the normalized page/limit.
func (o SearchOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

// Pagination echoes the paging of a search result. Total is the full filtered
// count regardless of page and limit.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// SearchResult is the uniform per-engine search response.
type SearchResult struct {
	Engine     string         `json:"engine"`
	Query      string         `json:"query"`
	Filters    SearchFilters  `json:"filters"`
	Results    []EngineRecord `json:"results"`
	Pagination Pagination     `json:"pagination"`
	Timestamp  time.Time      `json:"timestamp"`
}

// DispatchResult aggregates a fan-out search across every registered engine.
// Results holds one entry per registered engine name; a failed engine
// contributes an EngineError envelope instead of aborting the dispatch.
type DispatchResult struct {
	Query     string                 `json:"query"`
	Engines   []string               `json:"engines"`
	Results   map[string]interface{} `json:"results"`
	Timestamp time.Time              `json:"timestamp"`
}

// EngineError is the per-engine failure envelope substituted into a
// DispatchResult when one engine's search fails.
type EngineError struct {
	Engine     string         `json:"engine"`
	Error      string         `json:"error"`
	Results    []EngineRecord `json:"results"`
	Pagination Pagination     `json:"pagination"`
}
