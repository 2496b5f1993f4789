package scraper

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/use-agent/finrate/models"
	"github.com/use-agent/finrate/throttle"
)

// httpFetcher performs one paced GET per call, with a rotating user agent
// and proxy taken from the throttler. It never retries.
type httpFetcher struct {
	throttle *throttle.Throttler
	timeout  time.Duration
	maxBody  int64

	mu      sync.Mutex
	clients map[string]*resty.Client // keyed by proxy URL, "" for direct

	// newTransport is swapped out in tests.
	newTransport func(proxy string) (http.RoundTripper, error)

	requests atomic.Int64
	failures atomic.Int64
}

// newHTTPFetcher creates a new HTTP fetcher.
func newHTTPFetcher(th *throttle.Throttler, timeout time.Duration, maxBody int64) *httpFetcher {
	return &httpFetcher{
		throttle: th,
		timeout:  timeout,
		maxBody:  maxBody,
		clients:  make(map[string]*resty.Client),
		newTransport: func(proxy string) (http.RoundTripper, error) {
			return newChromeTransport(proxy)
		},
	}
}

// client returns the resty client bound to proxy, creating it on first use.
func (f *httpFetcher) client(proxy string) (*resty.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.clients[proxy]; ok {
		return c, nil
	}

	base, err := f.newTransport(proxy)
	if err != nil {
		return nil, err
	}
	c := resty.New().
		SetTransport(&limitedTransport{base: base, maxBytes: f.maxBody}).
		SetTimeout(f.timeout).
		SetRetryCount(0).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		SetHeader("Cache-Control", "no-cache")
	instrumentClient(c, proxy)

	f.clients[proxy] = c
	return c, nil
}

// fetch waits for the throttler, then issues a single GET.
// Transport failures are ErrCodeNetwork; 4xx/5xx responses are ErrCodeHTTPStatus.
func (f *httpFetcher) fetch(ctx context.Context, targetURL string) ([]byte, error) {
	lease, err := f.throttle.Acquire(ctx)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeNetwork, "cancelled while waiting for request slot", err)
	}
	defer lease.Release()

	c, err := f.client(lease.Proxy)
	if err != nil {
		f.failures.Add(1)
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "bad proxy configuration", err)
	}

	f.requests.Add(1)
	resp, err := c.R().
		SetContext(ctx).
		SetHeader("User-Agent", lease.UserAgent).
		Get(targetURL)
	if err != nil {
		f.failures.Add(1)
		return nil, models.NewScrapeError(models.ErrCodeNetwork,
			fmt.Sprintf("request to %s failed", targetURL), err)
	}

	if resp.StatusCode() >= 400 {
		f.failures.Add(1)
		return nil, models.NewStatusError(targetURL, resp.StatusCode())
	}

	return resp.Body(), nil
}

// closeIdle drops pooled connections on every client.
func (f *httpFetcher) closeIdle() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.clients {
		c.GetClient().CloseIdleConnections()
	}
}
