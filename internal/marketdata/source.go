// Package marketdata defines the upstream ingestion-source abstraction and
// hosts its implementations (external HTTP API, direct store poll) plus the
// retry/fallback fetcher and the OHLCV resampler built on top of it.
package marketdata

import (
	"context"

	"marketpulse/internal/model"
)

// Source retrieves recent OHLCV bars for one (symbol, timeframe) pair.
// Implementations return bars in ascending timestamp order, at most limit
// entries. An empty slice with nil error is a normal "no data" outcome.
type Source interface {
	Bars(ctx context.Context, symbol string, tf model.Timeframe, limit int) ([]model.Bar, error)
}
