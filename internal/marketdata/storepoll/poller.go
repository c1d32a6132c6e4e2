// Package storepoll implements the direct table-poll ingestion source:
// bars arrive in the snapshot store through some external writer and are
// picked up by watermark, sharing the same fetch/cache/signal pipeline as
// the external-API source.
package storepoll

import (
	"context"
	"sync"
	"time"

	"marketpulse/internal/model"
	"marketpulse/internal/store/sqlite"
)

// Source polls the snapshot store. The first read for a key returns the
// most recent bars; subsequent reads return only rows newer than the
// per-key watermark, so a steady poll costs one indexed range scan.
type Source struct {
	store *sqlite.Store

	mu         sync.Mutex
	watermarks map[string]time.Time
}

// New creates a Source over the given store.
func New(store *sqlite.Store) *Source {
	return &Source{
		store:      store,
		watermarks: make(map[string]time.Time),
	}
}

// Bars implements marketdata.Source.
func (s *Source) Bars(ctx context.Context, symbol string, tf model.Timeframe, limit int) ([]model.Bar, error) {
	key := model.CacheKey(symbol, tf)

	s.mu.Lock()
	wm, seen := s.watermarks[key]
	s.mu.Unlock()

	var bars []model.Bar
	var err error
	if !seen {
		bars, err = s.store.LatestN(ctx, symbol, tf, limit)
	} else {
		bars, err = s.store.BarsSince(ctx, symbol, tf, wm)
		if len(bars) > limit {
			bars = bars[len(bars)-limit:]
		}
	}
	if err != nil {
		return nil, err
	}

	if len(bars) > 0 {
		s.mu.Lock()
		s.watermarks[key] = bars[len(bars)-1].TS
		s.mu.Unlock()
	} else if !seen {
		// Remember that the key was checked so an empty table doesn't
		// repeat the LatestN path forever.
		s.mu.Lock()
		if _, ok := s.watermarks[key]; !ok {
			s.watermarks[key] = time.Unix(0, 0)
		}
		s.mu.Unlock()
	}
	return bars, nil
}
