// Package throttle paces outbound requests and rotates their identity.
//
// A Throttler enforces a minimum gap between the end of one fetch and the
// start of the next, adds a random jitter on top, and hands out user-agent
// strings (and optionally proxies) round robin.
package throttle

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Options configures a Throttler.
type Options struct {
	MinInterval time.Duration
	JitterMin   time.Duration
	JitterMax   time.Duration
	UserAgents  []string
	Proxies     []string
}

// Lease is what a caller gets from Acquire. Release must be called once the
// request has finished, successfully or not.
type Lease struct {
	UserAgent string
	Proxy     string // empty when no proxy pool is configured

	t *Throttler
}

// Release records the end of the request and lets the next Acquire proceed.
func (l *Lease) Release() {
	t := l.t
	if t == nil {
		return
	}
	l.t = nil

	t.mu.Lock()
	t.lastRequestAt = t.now()
	t.mu.Unlock()
	<-t.sem
}

// Throttler owns the pacing state for one fetcher.
// It is safe for concurrent use; callers are served one at a time.
type Throttler struct {
	minInterval time.Duration
	jitterMin   time.Duration
	jitterMax   time.Duration

	identities ring
	proxies    ring

	mu            sync.Mutex
	lastRequestAt time.Time

	// sem admits one lease at a time.
	sem chan struct{}

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(lo, hi time.Duration) time.Duration
}

// New creates a Throttler. An empty UserAgents pool yields empty identities.
func New(opts Options) *Throttler {
	lo, hi := opts.JitterMin, opts.JitterMax
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	return &Throttler{
		minInterval: opts.MinInterval,
		jitterMin:   lo,
		jitterMax:   hi,
		identities:  newRing(opts.UserAgents),
		proxies:     newRing(opts.Proxies),
		sem:         make(chan struct{}, 1),
		now:         time.Now,
		sleep:       sleepContext,
		jitter:      uniformJitter,
	}
}

// Acquire blocks until the next request may start and returns its identity.
// It only fails if ctx ends while waiting.
func (t *Throttler) Acquire(ctx context.Context) (*Lease, error) {
	select {
	case t.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := t.sleep(ctx, t.Delay()); err != nil {
		<-t.sem
		return nil, err
	}

	return &Lease{
		UserAgent: t.identities.next(),
		Proxy:     t.proxies.next(),
		t:         t,
	}, nil
}

// Delay returns how long the next Acquire will wait: what is left of the
// minimum interval plus a freshly sampled jitter.
func (t *Throttler) Delay() time.Duration {
	var wait time.Duration
	if last := t.LastRequestAt(); !last.IsZero() {
		if since := t.now().Sub(last); since < t.minInterval {
			wait = t.minInterval - since
		}
	}
	return wait + t.jitter(t.jitterMin, t.jitterMax)
}

// LastRequestAt returns when the most recent lease was released.
func (t *Throttler) LastRequestAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastRequestAt
}

// ring is a fixed pool with a cursor that wraps to the start.
type ring struct {
	items  []string
	cursor int
}

func newRing(items []string) ring {
	return ring{items: append([]string(nil), items...)}
}

func (r *ring) next() string {
	if len(r.items) == 0 {
		return ""
	}
	item := r.items[r.cursor]
	r.cursor = (r.cursor + 1) % len(r.items)
	return item
}

func uniformJitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int64N(int64(hi-lo)+1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
