package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/finrate/models"
)

func newTestCache(t *testing.T, maxEntries int) (*Cache, *time.Time) {
	t.Helper()
	c := New(maxEntries)
	t.Cleanup(c.Close)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCache_GetSet(t *testing.T) {
	c, now := newTestCache(t, 10)
	key := Key("ticker:AAPL")

	c.Set(key, Snapshot{
		SourceURL: "https://finviz.com/quote.ashx?t=AAPL",
		Data:      models.CompanySnapshot{"P/E": models.Number(28.5)},
	})

	got, ok := c.Get(key, 1000)
	require.True(t, ok)
	assert.Equal(t, "https://finviz.com/quote.ashx?t=AAPL", got.SourceURL)
	assert.Equal(t, models.Number(28.5), got.Data["P/E"])

	*now = now.Add(2 * time.Second)
	_, ok = c.Get(key, 1000)
	assert.False(t, ok, "entry older than max age is a miss")

	_, ok = c.Get(key, 0)
	assert.False(t, ok, "zero max age skips the lookup")
}

func TestCache_ReturnsCopies(t *testing.T) {
	c, _ := newTestCache(t, 10)
	key := Key("ticker:MSFT")

	data := models.CompanySnapshot{"P/B": models.Number(3)}
	c.Set(key, Snapshot{Data: data})
	data["P/B"] = models.Number(99)

	got, ok := c.Get(key, 1000)
	require.True(t, ok)
	got.Data["P/B"] = models.Number(42)

	again, _ := c.Get(key, 1000)
	assert.Equal(t, models.Number(3), again.Data["P/B"])
}

func TestCache_EvictsAtCapacity(t *testing.T) {
	c, _ := newTestCache(t, 2)

	c.Set(Key("a"), Snapshot{})
	c.Set(Key("b"), Snapshot{})
	c.Set(Key("b"), Snapshot{SourceURL: "updated"})
	assert.Equal(t, 2, c.Len(), "overwriting an existing key does not evict")

	c.Set(Key("c"), Snapshot{})
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(Key("c"), 1000)
	assert.True(t, ok)
}

func TestCache_EvictOlderThan(t *testing.T) {
	c, now := newTestCache(t, 10)

	c.Set(Key("old"), Snapshot{})
	*now = now.Add(2 * time.Hour)
	c.Set(Key("new"), Snapshot{})

	c.evictOlderThan(time.Hour)
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get(Key("new"), 1000)
	assert.True(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("ticker:AAPL"), Key("ticker:AAPL"))
	assert.NotEqual(t, Key("ticker:AAPL"), Key("ticker:aapl"))
	assert.Len(t, Key("x"), 64)
}
