package barcache

import (
	"testing"
	"time"

	"marketpulse/internal/model"
)

func barsFrom(start time.Time, n int) []model.Bar {
	bars := make([]model.Bar, n)
	for i := range bars {
		bars[i] = model.Bar{TS: start.Add(time.Duration(i) * time.Minute), Close: float64(i)}
	}
	return bars
}

func TestCache_UpsertAndRead(t *testing.T) {
	c := New(100)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	n := c.Upsert("AAPL_1hour", barsFrom(start, 10))
	if n != 10 {
		t.Fatalf("appended %d, want 10", n)
	}

	got := c.Read("AAPL_1hour", 3)
	if len(got) != 3 {
		t.Fatalf("read %d bars, want 3", len(got))
	}
	if got[2].Close != 9 {
		t.Errorf("tail close = %v, want 9", got[2].Close)
	}

	if all := c.Read("AAPL_1hour", 0); len(all) != 10 {
		t.Errorf("limit 0 should return all 10, got %d", len(all))
	}
}

func TestCache_DuplicateTailIsNoop(t *testing.T) {
	c := New(100)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	bars := barsFrom(start, 5)

	c.Upsert("k", bars)
	before := c.Len("k")

	// Re-upserting the same tail bar must not grow the series.
	n := c.Upsert("k", bars[len(bars)-1:])
	if n != 0 {
		t.Errorf("appended %d duplicates, want 0", n)
	}
	if c.Len("k") != before {
		t.Errorf("len changed from %d to %d", before, c.Len("k"))
	}
}

func TestCache_OverlappingWindowAppendsOnlyNew(t *testing.T) {
	c := New(100)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	bars := barsFrom(start, 10)

	c.Upsert("k", bars[:6])
	// Overlapping re-poll: bars 2..9 share 2..5 with the cached series.
	n := c.Upsert("k", bars[2:])
	if n != 4 {
		t.Errorf("appended %d, want only the 4 new bars", n)
	}
	if c.Len("k") != 10 {
		t.Errorf("len = %d, want 10", c.Len("k"))
	}
}

func TestCache_CapacityBound(t *testing.T) {
	c := New(50)
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	c.Upsert("k", barsFrom(start, 80))
	if got := c.Len("k"); got != 50 {
		t.Fatalf("len = %d, want capacity 50", got)
	}

	// Oldest entries dropped: head must be bar 30.
	head := c.Read("k", 0)[0]
	if head.Close != 30 {
		t.Errorf("head close = %v, want 30", head.Close)
	}
}

func TestCache_ReadMissingKey(t *testing.T) {
	c := New(0)
	if got := c.Read("nope", 10); got != nil {
		t.Errorf("expected nil for missing key, got %v", got)
	}
}

func TestCache_TotalBars(t *testing.T) {
	c := New(100)
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	c.Upsert("a", barsFrom(start, 3))
	c.Upsert("b", barsFrom(start, 4))
	if got := c.TotalBars(); got != 7 {
		t.Errorf("total = %d, want 7", got)
	}
}

func TestCache_ReadReturnsCopy(t *testing.T) {
	c := New(100)
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	c.Upsert("k", barsFrom(start, 3))

	got := c.Read("k", 0)
	got[0].Close = -1

	if c.Read("k", 0)[0].Close == -1 {
		t.Error("mutating a read slice must not affect the cache")
	}
}
