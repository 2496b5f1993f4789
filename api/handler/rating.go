package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/finrate/cache"
	"github.com/use-agent/finrate/models"
	"github.com/use-agent/finrate/parser"
	"github.com/use-agent/finrate/rating"
)

// Rating returns a handler for POST /api/v1/rating. It scrapes (or reuses a
// cached) snapshot and scores it.
func Rating(sc Scraper, cc *cache.Cache) gin.HandlerFunc {
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

		ratings := rating.Rate(res.snapshot)
		c.JSON(http.StatusOK, models.RatingResponse{
			Success:   true,
			SourceURL: res.sourceURL,
			Ratings:   &ratings,
			Timing: models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
				FetchMs: res.fetchMs,
			},
		})
	}
}

// Score returns a handler for POST /api/v1/rating/score, which rates a
// snapshot supplied by the caller without touching the network.
func Score() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.ScoreRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		// Caller-supplied strings get the same treatment as scraped cells.
		ratings := rating.Rate(req.Snapshot.Normalized(parser.Normalize))
		c.JSON(http.StatusOK, models.RatingResponse{
			Success: true,
			Ratings: &ratings,
			Timing:  models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
		})
	}
}
