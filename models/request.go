package models

import "strings"

// SnapshotRequest is the payload for POST /api/v1/snapshot and
// POST /api/v1/rating. Exactly one of Ticker or URL is required.
type SnapshotRequest struct {
	// Ticker is the exchange symbol, e.g. "AAPL".
	Ticker string `json:"ticker,omitempty" binding:"omitempty,max=10"`

	// URL is a full snapshot page URL. Overrides Ticker when both are set.
	URL string `json:"url,omitempty" binding:"omitempty,url"`

	// MaxAge allows serving a cached snapshot younger than this many
	// milliseconds. Default: 0 (always fetch).
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Valid reports whether the request names a target.
func (r *SnapshotRequest) Valid() bool {
	return r.Ticker != "" || r.URL != ""
}

// CacheKey returns the key this request is cached under.
func (r *SnapshotRequest) CacheKey() string {
	if r.URL != "" {
		return r.URL
	}
	return "ticker:" + strings.ToUpper(r.Ticker)
}

// ScoreRequest is the payload for POST /api/v1/rating/score.
type ScoreRequest struct {
	Snapshot CompanySnapshot `json:"snapshot" binding:"required"`
}
