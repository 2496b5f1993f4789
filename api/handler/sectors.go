package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/finrate/models"
)

// Sectors returns a handler for GET /api/v1/sectors.
func Sectors(sc Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		table, err := sc.SectorData(c.Request.Context())
		elapsed := time.Since(start).Milliseconds()
		timing := models.TimingInfo{TotalMs: elapsed, FetchMs: elapsed}
		if err != nil {
			respondError(c, err, timing)
			return
		}

		c.JSON(http.StatusOK, models.SectorResponse{
			Success: true,
			Table:   table,
			Timing:  timing,
		})
	}
}
