package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/use-agent/finrate/config"
	"github.com/use-agent/finrate/models"
	"github.com/use-agent/finrate/parser"
	"github.com/use-agent/finrate/rating"
	"github.com/use-agent/finrate/throttle"
)

var tickerPattern = regexp.MustCompile(`^[A-Za-z0-9.\-]{1,10}$`)

// Scraper fetches and parses screener pages. Requests are paced by a single
// throttler, so at most one fetch is in flight per Scraper.
// It is safe for concurrent use.
type Scraper struct {
	cfg      config.ScraperConfig
	throttle *throttle.Throttler
	fetcher  *httpFetcher
	drift    *parser.DriftDetector
}

// NewScraper validates the proxy pool and wires the throttler, fetcher and
// drift detector together.
func NewScraper(scraperCfg config.ScraperConfig, throttleCfg config.ThrottleConfig) (*Scraper, error) {
	if _, err := url.Parse(scraperCfg.BaseURL); err != nil || scraperCfg.BaseURL == "" {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid base URL", err)
	}
	for _, p := range throttleCfg.Proxies {
		if _, err := newChromeTransport(p); err != nil {
			return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid proxy", err)
		}
	}

	th := throttle.New(throttle.Options{
		MinInterval: throttleCfg.MinInterval,
		JitterMin:   throttleCfg.JitterMin,
		JitterMax:   throttleCfg.JitterMax,
		UserAgents:  throttleCfg.UserAgents,
		Proxies:     throttleCfg.Proxies,
	})

	slog.Info("scraper ready",
		"baseURL", scraperCfg.BaseURL,
		"minInterval", throttleCfg.MinInterval,
		"identities", len(throttleCfg.UserAgents),
		"proxies", len(throttleCfg.Proxies),
	)

	return &Scraper{
		cfg:      scraperCfg,
		throttle: th,
		fetcher:  newHTTPFetcher(th, scraperCfg.Timeout, scraperCfg.MaxBodyBytes),
		drift:    parser.NewDriftDetector(scraperCfg.DriftThreshold),
	}, nil
}

// QuoteURL builds the snapshot page URL for a ticker.
func (s *Scraper) QuoteURL(ticker string) (string, error) {
	if !tickerPattern.MatchString(ticker) {
		return "", models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("invalid ticker %q", ticker), nil)
	}
	return fmt.Sprintf("%s/quote.ashx?t=%s&ty=c&p=d&b=1",
		s.cfg.BaseURL, url.QueryEscape(strings.ToUpper(ticker))), nil
}

// SectorURL is the page holding the sector performance table.
func (s *Scraper) SectorURL() string {
	return s.cfg.BaseURL + s.cfg.SectorPath
}

// CompanyData fetches a snapshot page and parses its label/value tables.
func (s *Scraper) CompanyData(ctx context.Context, pageURL string) (models.CompanySnapshot, error) {
	slog.Info("fetching company data", "url", pageURL)

	body, err := s.fetcher.fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("company data: %w", err)
	}
	s.drift.Observe(parser.PageSnapshot, body)

	snap, err := parser.ParseSnapshot(body)
	if err != nil {
		return nil, fmt.Errorf("company data: %w", err)
	}
	slog.Debug("scraped company data", "url", pageURL, "fields", len(snap))
	return snap, nil
}

// CompanyDataForTicker is CompanyData for the ticker's quote page. It also
// returns the URL that was fetched.
func (s *Scraper) CompanyDataForTicker(ctx context.Context, ticker string) (models.CompanySnapshot, string, error) {
	pageURL, err := s.QuoteURL(ticker)
	if err != nil {
		return nil, "", err
	}
	snap, err := s.CompanyData(ctx, pageURL)
	return snap, pageURL, err
}

// SectorData fetches the groups page and parses the sector table.
func (s *Scraper) SectorData(ctx context.Context) (*models.SectorTable, error) {
	pageURL := s.SectorURL()
	slog.Info("fetching sector data", "url", pageURL)

	body, err := s.fetcher.fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("sector data: %w", err)
	}
	s.drift.Observe(parser.PageSector, body)

	table, err := parser.ParseSectorTable(body)
	if err != nil {
		return nil, fmt.Errorf("sector data: %w", err)
	}
	return table, nil
}

// Report runs the full sequence for one ticker: snapshot, sector table,
// ratings. It stops at the first failure and returns no partial report.
func (s *Scraper) Report(ctx context.Context, ticker string) (*Report, error) {
	snap, sourceURL, err := s.CompanyDataForTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}

	sectors, err := s.SectorData(ctx)
	if err != nil {
		return nil, err
	}

	return &Report{
		Ticker:    strings.ToUpper(ticker),
		SourceURL: sourceURL,
		Snapshot:  snap,
		Sectors:   sectors,
		Ratings:   rating.Rate(snap),
	}, nil
}

// Stats returns the fetcher's request counters.
func (s *Scraper) Stats() models.ScraperStats {
	stats := models.ScraperStats{
		Requests: s.fetcher.requests.Load(),
		Failures: s.fetcher.failures.Load(),
	}
	if last := s.throttle.LastRequestAt(); !last.IsZero() {
		stats.LastRequestAt = last.UTC().Format(time.RFC3339)
	}
	return stats
}

// Close releases pooled connections.
func (s *Scraper) Close() {
	s.fetcher.closeIdle()
	slog.Debug("scraper closed")
}
