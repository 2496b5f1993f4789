package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/finrate/cache"
	"github.com/use-agent/finrate/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeScraper struct {
	snapshot models.CompanySnapshot
	table    *models.SectorTable
	err      error
	stats    models.ScraperStats

	calls   int
	tickers []string
	urls    []string
}

func (f *fakeScraper) CompanyData(_ context.Context, pageURL string) (models.CompanySnapshot, error) {
	f.calls++
	f.urls = append(f.urls, pageURL)
	return f.snapshot, f.err
}

func (f *fakeScraper) CompanyDataForTicker(_ context.Context, ticker string) (models.CompanySnapshot, string, error) {
	f.calls++
	f.tickers = append(f.tickers, ticker)
	if f.err != nil {
		return nil, "", f.err
	}
	return f.snapshot, "https://finviz.com/quote.ashx?t=" + ticker, nil
}

func (f *fakeScraper) SectorData(context.Context) (*models.SectorTable, error) {
	f.calls++
	return f.table, f.err
}

func (f *fakeScraper) Stats() models.ScraperStats { return f.stats }

func sampleSnapshot() models.CompanySnapshot {
	return models.CompanySnapshot{
		"P/E":     models.Number(15),
		"PEG":     models.Number(1),
		"P/B":     models.Number(2),
		"Debt/Eq": models.Number(0.5),
		"Sector":  models.Text("Technology"),
	}
}

func newEngine(sc *fakeScraper, cc *cache.Cache) *gin.Engine {
	r := gin.New()
	r.GET("/health", Health(sc, time.Now()))
	r.POST("/snapshot", Snapshot(sc, cc))
	r.GET("/sectors", Sectors(sc))
	r.POST("/rating", Rating(sc, cc))
	r.POST("/rating/score", Score())
	return r
}

func perform(t *testing.T, r http.Handler, method, path, body string, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

func TestSnapshot(t *testing.T) {
	sc := &fakeScraper{snapshot: sampleSnapshot()}
	r := newEngine(sc, nil)

	var resp models.SnapshotResponse
	code := perform(t, r, http.MethodPost, "/snapshot", `{"ticker":"AAPL"}`, &resp)

	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	assert.Equal(t, "https://finviz.com/quote.ashx?t=AAPL", resp.SourceURL)
	assert.Equal(t, models.Number(15), resp.Snapshot["P/E"])
	assert.Equal(t, models.Text("Technology"), resp.Snapshot["Sector"])
	assert.Empty(t, resp.CacheStatus)
	assert.Equal(t, []string{"AAPL"}, sc.tickers)
}

func TestSnapshot_URLOverridesTicker(t *testing.T) {
	sc := &fakeScraper{snapshot: sampleSnapshot()}
	r := newEngine(sc, nil)

	var resp models.SnapshotResponse
	code := perform(t, r, http.MethodPost, "/snapshot",
		`{"ticker":"AAPL","url":"https://finviz.com/quote.ashx?t=MSFT"}`, &resp)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "https://finviz.com/quote.ashx?t=MSFT", resp.SourceURL)
	assert.Equal(t, []string{"https://finviz.com/quote.ashx?t=MSFT"}, sc.urls)
	assert.Empty(t, sc.tickers)
}

func TestSnapshot_Cache(t *testing.T) {
	sc := &fakeScraper{snapshot: sampleSnapshot()}
	cc := cache.New(10)
	defer cc.Close()
	r := newEngine(sc, cc)

	var first, second models.SnapshotResponse
	perform(t, r, http.MethodPost, "/snapshot", `{"ticker":"AAPL","max_age":60000}`, &first)
	perform(t, r, http.MethodPost, "/snapshot", `{"ticker":"aapl","max_age":60000}`, &second)

	assert.Equal(t, "miss", first.CacheStatus)
	assert.Equal(t, "hit", second.CacheStatus)
	assert.Equal(t, first.SourceURL, second.SourceURL)
	assert.Equal(t, first.Snapshot, second.Snapshot)
	assert.Equal(t, 1, sc.calls)
}

func TestSnapshot_BadRequest(t *testing.T) {
	r := newEngine(&fakeScraper{}, nil)

	for _, body := range []string{`{}`, `{"url":"not a url"}`, `not json`} {
		var resp models.ErrorResponse
		code := perform(t, r, http.MethodPost, "/snapshot", body, &resp)
		assert.Equal(t, http.StatusBadRequest, code, body)
		require.NotNil(t, resp.Error, body)
		assert.Equal(t, models.ErrCodeInvalidInput, resp.Error.Code)
	}
}

func TestSnapshot_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"upstream status", models.NewStatusError("u", http.StatusForbidden), http.StatusBadGateway},
		{"network", models.NewScrapeError(models.ErrCodeNetwork, "dial", nil), http.StatusBadGateway},
		{"no tables", models.NewScrapeError(models.ErrCodeNoTables, "none", nil), http.StatusUnprocessableEntity},
		{"bad ticker", models.NewScrapeError(models.ErrCodeInvalidInput, "ticker", nil), http.StatusBadRequest},
		{"plain error", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(&fakeScraper{err: tt.err}, nil)

			var resp models.ErrorResponse
			code := perform(t, r, http.MethodPost, "/snapshot", `{"ticker":"AAPL"}`, &resp)
			assert.Equal(t, tt.status, code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			require.NotNil(t, resp.Timing)
		})
	}
}

func TestSectors(t *testing.T) {
	table := &models.SectorTable{
		Columns: []string{"Name", "Change"},
		Rows: []models.SectorRow{
			{"Name": models.Text("Energy"), "Change": models.Number(0.015)},
		},
	}
	r := newEngine(&fakeScraper{table: table}, nil)

	var resp models.SectorResponse
	code := perform(t, r, http.MethodGet, "/sectors", "", &resp)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, table, resp.Table)
}

func TestSectors_NotFound(t *testing.T) {
	err := models.NewScrapeError(models.ErrCodeTableNotFound, "no sector table", nil)
	r := newEngine(&fakeScraper{err: err}, nil)

	var resp models.ErrorResponse
	code := perform(t, r, http.MethodGet, "/sectors", "", &resp)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, models.ErrCodeTableNotFound, resp.Error.Code)
}

func TestRating(t *testing.T) {
	r := newEngine(&fakeScraper{snapshot: sampleSnapshot()}, nil)

	var resp models.RatingResponse
	code := perform(t, r, http.MethodPost, "/rating", `{"ticker":"AAPL"}`, &resp)

	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.Ratings)
	assert.InDelta(t, (49.95+100+60)/3, resp.Ratings.ValuationScore, 1e-9)
	assert.Equal(t, 0.0, resp.Ratings.GrowthScore)
	assert.Equal(t, 75.0, resp.Ratings.FinancialHealthScore)
}

func TestScore(t *testing.T) {
	r := newEngine(&fakeScraper{}, nil)

	var resp models.RatingResponse
	code := perform(t, r, http.MethodPost, "/rating/score",
		`{"snapshot":{"P/E":15,"PEG":1,"P/B":2,"EPS next 5Y":"10%"}}`, &resp)

	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.Ratings)
	assert.InDelta(t, (49.95+100+60)/3, resp.Ratings.ValuationScore, 1e-9)
	assert.Equal(t, 50.0, resp.Ratings.GrowthScore, "percent strings are normalised like scraped cells")

	code = perform(t, r, http.MethodPost, "/rating/score", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestScore_NullIsAbsent(t *testing.T) {
	r := newEngine(&fakeScraper{}, nil)

	var absent, null models.RatingResponse
	require.Equal(t, http.StatusOK,
		perform(t, r, http.MethodPost, "/rating/score", `{"snapshot":{"P/E":15}}`, &absent))
	require.Equal(t, http.StatusOK,
		perform(t, r, http.MethodPost, "/rating/score", `{"snapshot":{"P/E":15,"Debt/Eq":null}}`, &null))

	require.NotNil(t, null.Ratings)
	assert.Equal(t, 0.0, null.Ratings.FinancialHealthScore)
	assert.Equal(t, *absent.Ratings, *null.Ratings)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		stats  models.ScraperStats
		status string
	}{
		{models.ScraperStats{}, "healthy"},
		{models.ScraperStats{Requests: 4, Failures: 4}, "healthy"},
		{models.ScraperStats{Requests: 20, Failures: 11}, "degraded"},
	}
	for _, tt := range tests {
		r := newEngine(&fakeScraper{stats: tt.stats}, nil)

		var resp models.HealthResponse
		code := perform(t, r, http.MethodGet, "/health", "", &resp)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, tt.status, resp.Status)
		assert.Equal(t, tt.stats, resp.ScraperStats)
		assert.Equal(t, Version, resp.Version)
	}
}
