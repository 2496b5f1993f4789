package scraper

import "github.com/use-agent/finrate/models"

// Report is the output of one full run: snapshot, sector table, ratings.
type Report struct {
	// Ticker is the upper-cased symbol the report was built for.
	Ticker string `json:"ticker"`

	// SourceURL is the snapshot page that was scraped.
	SourceURL string `json:"source_url"`

	Snapshot models.CompanySnapshot `json:"snapshot"`
	Sectors  *models.SectorTable    `json:"sectors"`
	Ratings  models.RatingSet       `json:"ratings"`
}
