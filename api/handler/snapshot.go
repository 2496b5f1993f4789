package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/finrate/cache"
	"github.com/use-agent/finrate/models"
)

// Snapshot returns a handler for POST /api/v1/snapshot.
//
// Flow:
//  1. Bind SnapshotRequest; one of ticker or url is required.
//  2. Serve from cache when max_age allows it.
//  3. Otherwise fetch and parse the snapshot page, then cache it.
func Snapshot(sc Scraper, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.SnapshotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if !req.Valid() {
			badRequest(c, "one of ticker or url is required")
			return
		}

		res, err := loadSnapshot(c.Request.Context(), sc, cc, &req)
		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
				FetchMs: res.fetchMs,
			})
			return
		}

		c.JSON(http.StatusOK, models.SnapshotResponse{
			Success:     true,
			SourceURL:   res.sourceURL,
			Snapshot:    res.snapshot,
			CacheStatus: res.cacheStatus,
			Timing: models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
				FetchMs: res.fetchMs,
			},
		})
	}
}

type snapshotResult struct {
	snapshot    models.CompanySnapshot
	sourceURL   string
	cacheStatus string
	fetchMs     int64
}

// loadSnapshot serves req from cc when possible and scrapes otherwise.
// Caching only happens when the caller asked for it with max_age.
func loadSnapshot(ctx context.Context, sc Scraper, cc *cache.Cache, req *models.SnapshotRequest) (snapshotResult, error) {
	var key string
	useCache := cc != nil && req.MaxAge > 0
	if useCache {
		key = cache.Key(req.CacheKey())
		if hit, ok := cc.Get(key, req.MaxAge); ok {
			return snapshotResult{snapshot: hit.Data, sourceURL: hit.SourceURL, cacheStatus: "hit"}, nil
		}
	}

	var (
		res = snapshotResult{sourceURL: req.URL}
		err error
	)
	fetchStart := time.Now()
	if req.URL != "" {
		res.snapshot, err = sc.CompanyData(ctx, req.URL)
	} else {
		res.snapshot, res.sourceURL, err = sc.CompanyDataForTicker(ctx, req.Ticker)
	}
	res.fetchMs = time.Since(fetchStart).Milliseconds()
	if err != nil {
		return res, err
	}

	if useCache {
		cc.Set(key, cache.Snapshot{SourceURL: res.sourceURL, Data: res.snapshot})
		res.cacheStatus = "miss"
	}
	return res, nil
}
