package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/finrate/config"
	"github.com/use-agent/finrate/models"
)

const quotePage = `<html><body>
<table class="snapshot-table2">
  <tr><td>P/E</td><td>15</td><td>PEG</td><td>1</td></tr>
  <tr><td>P/B</td><td>2</td><td>Debt/Eq</td><td>0.5</td></tr>
</table></body></html>`

const groupsPage = `<html><body>
<table class="table-light">
  <tr class="table-header"><td>Name</td><td>Perf Week</td></tr>
  <tr><td>Energy</td><td>1.5%</td></tr>
  <tr><td>Technology</td><td>-2%</td></tr>
</table></body></html>`

// site is a fake screener that records what it was asked for.
type site struct {
	mu         sync.Mutex
	paths      []string
	userAgents []string
	status     map[string]int
}

func (s *site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.paths = append(s.paths, r.URL.Path)
	s.userAgents = append(s.userAgents, r.Header.Get("User-Agent"))
	code := s.status[r.URL.Path]
	s.mu.Unlock()

	if code != 0 {
		w.WriteHeader(code)
		return
	}
	switch r.URL.Path {
	case "/quote.ashx":
		w.Write([]byte(quotePage))
	case "/groups.ashx":
		w.Write([]byte(groupsPage))
	default:
		http.NotFound(w, r)
	}
}

func testConfigs(baseURL string) (config.ScraperConfig, config.ThrottleConfig) {
	return config.ScraperConfig{
			BaseURL:      baseURL,
			SectorPath:   "/groups.ashx?g=sector",
			Timeout:      5 * time.Second,
			MaxBodyBytes: 1 << 20,
		}, config.ThrottleConfig{
			UserAgents: []string{"ua-a", "ua-b"},
		}
}

func newTestScraper(t *testing.T, h http.Handler) (*Scraper, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	sc, err := NewScraper(testConfigs(srv.URL))
	require.NoError(t, err)
	t.Cleanup(sc.Close)
	return sc, srv
}

func TestReport(t *testing.T) {
	s := &site{}
	sc, _ := newTestScraper(t, s)

	report, err := sc.Report(context.Background(), "aapl")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", report.Ticker)
	assert.Contains(t, report.SourceURL, "/quote.ashx?t=AAPL&ty=c&p=d&b=1")
	assert.Equal(t, models.Number(15), report.Snapshot["P/E"])
	require.Len(t, report.Sectors.Rows, 2)
	assert.Equal(t, models.Number(-0.02), report.Sectors.Rows[1]["Perf Week"])
	assert.InDelta(t, (49.95+100+60)/3, report.Ratings.ValuationScore, 1e-9)
	assert.Equal(t, 75.0, report.Ratings.FinancialHealthScore)

	assert.Equal(t, []string{"/quote.ashx", "/groups.ashx"}, s.paths)
	assert.Equal(t, []string{"ua-a", "ua-b"}, s.userAgents, "identity rotates per request")

	stats := sc.Stats()
	assert.Equal(t, int64(2), stats.Requests)
	assert.Zero(t, stats.Failures)
	assert.NotEmpty(t, stats.LastRequestAt)
}

func TestReport_StopsAtFirstFailure(t *testing.T) {
	s := &site{status: map[string]int{"/quote.ashx": http.StatusServiceUnavailable}}
	sc, _ := newTestScraper(t, s)

	report, err := sc.Report(context.Background(), "MSFT")
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Equal(t, []string{"/quote.ashx"}, s.paths, "sector page is not fetched after a failure")
}

func TestCompanyData_HTTPStatus(t *testing.T) {
	s := &site{status: map[string]int{"/quote.ashx": http.StatusForbidden}}
	sc, _ := newTestScraper(t, s)

	_, _, err := sc.CompanyDataForTicker(context.Background(), "TSLA")
	require.Error(t, err)

	se, ok := models.AsScrapeError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrCodeHTTPStatus, se.Code)
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.Equal(t, int64(1), sc.Stats().Failures)
}

func TestCompanyData_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	sc, err := NewScraper(testConfigs(baseURL))
	require.NoError(t, err)

	_, err = sc.CompanyData(context.Background(), baseURL+"/quote.ashx?t=X")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeNetwork, models.ErrorCode(err))
}

func TestCompanyData_NoTables(t *testing.T) {
	sc, _ := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>Access denied</body></html>"))
	}))

	_, err := sc.CompanyData(context.Background(), sc.SectorURL())
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeNoTables, models.ErrorCode(err))
}

func TestSectorData_TableNotFound(t *testing.T) {
	sc, _ := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(quotePage))
	}))

	table, err := sc.SectorData(context.Background())
	require.Error(t, err)
	assert.Nil(t, table)
	assert.Equal(t, models.ErrCodeTableNotFound, models.ErrorCode(err))
}

func TestQuoteURL_InvalidTicker(t *testing.T) {
	sc, _ := newTestScraper(t, &site{})

	for _, ticker := range []string{"", "AAPL&x=1", "WAYTOOLONGTICKER", "a b"} {
		_, err := sc.QuoteURL(ticker)
		assert.Equal(t, models.ErrCodeInvalidInput, models.ErrorCode(err), "ticker %q", ticker)
	}

	u, err := sc.QuoteURL("brk.b")
	require.NoError(t, err)
	assert.Contains(t, u, "t=BRK.B&")
}

func TestFetch_RotatesProxies(t *testing.T) {
	var mu sync.Mutex
	var hits []string
	proxyHandler := func(name string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			hits = append(hits, name)
			mu.Unlock()
			// Forward proxies receive the absolute target URL.
			if !r.URL.IsAbs() {
				http.Error(w, "not a proxy request", http.StatusBadRequest)
				return
			}
			w.Write([]byte(quotePage))
		})
	}
	p1 := httptest.NewServer(proxyHandler("p1"))
	defer p1.Close()
	p2 := httptest.NewServer(proxyHandler("p2"))
	defer p2.Close()

	scraperCfg, throttleCfg := testConfigs("http://finviz.invalid")
	throttleCfg.Proxies = []string{p1.URL, p2.URL}
	sc, err := NewScraper(scraperCfg, throttleCfg)
	require.NoError(t, err)
	defer sc.Close()

	for i := 0; i < 3; i++ {
		_, _, err := sc.CompanyDataForTicker(context.Background(), "AAPL")
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"p1", "p2", "p1"}, hits)
}

func TestNewScraper_InvalidProxy(t *testing.T) {
	scraperCfg, throttleCfg := testConfigs("http://example.com")
	throttleCfg.Proxies = []string{"ftp://proxy:21"}

	_, err := NewScraper(scraperCfg, throttleCfg)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeInvalidInput, models.ErrorCode(err))
}

func TestFetch_BodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123456789abcdef"))
	}))
	defer srv.Close()

	scraperCfg, throttleCfg := testConfigs(srv.URL)
	scraperCfg.MaxBodyBytes = 10
	sc, err := NewScraper(scraperCfg, throttleCfg)
	require.NoError(t, err)

	body, err := sc.fetcher.fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(body))
}

func TestFetch_ContextCancelled(t *testing.T) {
	sc, srv := newTestScraper(t, &site{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sc.fetcher.fetch(ctx, srv.URL+"/quote.ashx")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, models.ErrCodeNetwork, models.ErrorCode(err))
}
