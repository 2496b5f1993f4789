package models

// SnapshotResponse is the response for POST /api/v1/snapshot.
type SnapshotResponse struct {
	Success bool `json:"success"`

	// SourceURL is the page the snapshot was scraped from.
	SourceURL string `json:"source_url,omitempty"`

	Snapshot CompanySnapshot `json:"snapshot,omitempty"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// SectorResponse is the response for GET /api/v1/sectors.
type SectorResponse struct {
	Success bool         `json:"success"`
	Table   *SectorTable `json:"table,omitempty"`
	Timing  TimingInfo   `json:"timing"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// RatingResponse is the response for POST /api/v1/rating and
// POST /api/v1/rating/score.
type RatingResponse struct {
	Success   bool         `json:"success"`
	SourceURL string       `json:"source_url,omitempty"`
	Ratings   *RatingSet   `json:"ratings,omitempty"`
	Timing    TimingInfo   `json:"timing"`
	Error     *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// FetchMs is the time spent waiting on the throttler and the upstream page.
	FetchMs int64 `json:"fetch_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string       `json:"status"` // "healthy" or "degraded"
	Uptime       string       `json:"uptime"`
	ScraperStats ScraperStats `json:"scraper_stats"`
	Version      string       `json:"version"`
}

// ScraperStats reports the fetcher's request counters.
type ScraperStats struct {
	Requests      int64  `json:"requests"`
	Failures      int64  `json:"failures"`
	LastRequestAt string `json:"last_request_at,omitempty"`
}

// ErrorResponse is the body of every failed request. It shares the
// success/error/timing fields of the typed responses above.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
	Timing  *TimingInfo  `json:"timing,omitempty"`
}

// NewErrorResponse builds a failed ErrorResponse.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: &ErrorDetail{Code: code, Message: message}}
}
