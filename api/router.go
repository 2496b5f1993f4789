package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/finrate/api/handler"
	"github.com/use-agent/finrate/api/middleware"
	"github.com/use-agent/finrate/cache"
	"github.com/use-agent/finrate/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health sits outside auth so monitoring probes always work.
func NewRouter(sc handler.Scraper, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Server.Mode != gin.TestMode {
		r.Use(gin.Logger())
	}

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(sc, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/snapshot", handler.Snapshot(sc, cc))
	protected.GET("/sectors", handler.Sectors(sc))
	protected.POST("/rating", handler.Rating(sc, cc))
	protected.POST("/rating/score", handler.Score())

	return r
}
