package handler

import (
	"context"

	"github.com/use-agent/finrate/models"
)

// Scraper is the part of *scraper.Scraper the handlers use.
type Scraper interface {
	CompanyData(ctx context.Context, pageURL string) (models.CompanySnapshot, error)
	CompanyDataForTicker(ctx context.Context, ticker string) (models.CompanySnapshot, string, error)
	SectorData(ctx context.Context) (*models.SectorTable, error)
	Stats() models.ScraperStats
}
