// Package barcache provides the in-memory, per-key bounded bar window shared
// between the polling orchestrator and concurrent request handlers.
package barcache

import (
	"sync"

	"marketpulse/internal/model"
)

// DefaultCapacity bounds each series; enough history for the higher
// timeframes' indicator warm-up.
const DefaultCapacity = 1200

// Cache holds one bounded, append-only bar series per (symbol, timeframe)
// key. All access is guarded: the periodic orchestrator pass writes while
// request handlers read at any time.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	series   map[string][]model.Bar
}

// New creates a Cache. capacity <= 0 selects DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		series:   make(map[string][]model.Bar, 16),
	}
}

// Upsert appends bars strictly newer than the current tail. Re-polling an
// overlapping window is therefore a cheap no-op for the already-cached
// prefix. Oldest entries beyond capacity are dropped. Returns the number of
// bars actually appended.
func (c *Cache) Upsert(key string, bars []model.Bar) int {
	if len(bars) == 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.series[key]
	appended := 0
	for _, b := range bars {
		if n := len(s); n > 0 && !b.TS.After(s[n-1].TS) {
			continue
		}
		s = append(s, b)
		appended++
	}
	if excess := len(s) - c.capacity; excess > 0 {
		s = append(s[:0], s[excess:]...)
	}
	c.series[key] = s
	return appended
}

// Read returns a copy of the most recent limit bars for the key, or fewer
// if the series is shorter. limit <= 0 returns the whole series. Never
// blocks on I/O, never fetches.
func (c *Cache) Read(key string, limit int) []model.Bar {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.series[key]
	if len(s) == 0 {
		return nil
	}
	if limit <= 0 || limit > len(s) {
		limit = len(s)
	}
	out := make([]model.Bar, limit)
	copy(out, s[len(s)-limit:])
	return out
}

// Len returns the current series length for the key.
func (c *Cache) Len(key string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.series[key])
}

// TotalBars returns the number of bars cached across all keys.
func (c *Cache) TotalBars() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := 0
	for _, s := range c.series {
		total += len(s)
	}
	return total
}
