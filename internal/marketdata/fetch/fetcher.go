// Package fetch layers resilient retry and a same-source fallback-and-
// resample strategy over a marketdata.Source.
package fetch

import (
	"context"
	"log"
	"time"

	"marketpulse/internal/marketdata"
	"marketpulse/internal/marketdata/resample"
	"marketpulse/internal/model"
)

const (
	maxAttempts    = 4
	fallbackBarCap = 5000 // safety ceiling on the 1min fallback request
	defaultBackoff = time.Second
)

// Metrics receives fetcher observability events. All methods may be nil-safe
// no-ops; the orchestrator wires the Prometheus implementation.
type Metrics interface {
	FetchAttempt()
	FetchFailure()
	FetchFallback()
}

// Fetcher retrieves bars with bounded retry and granularity fallback.
// Transient upstream failures are logged, never propagated: after all
// attempts the result is simply empty and the caller skips the cycle.
type Fetcher struct {
	src marketdata.Source

	// Backoff is the base retry delay, doubled each attempt. Overridable
	// for tests; defaults to 1s.
	Backoff time.Duration

	// Metrics is optional.
	Metrics Metrics
}

// New creates a Fetcher over the given source.
func New(src marketdata.Source) *Fetcher {
	return &Fetcher{src: src, Backoff: defaultBackoff}
}

// Fetch returns up to limit ascending bars for the pair, or an empty slice.
// If the exact timeframe yields nothing, it falls back to one-minute bars
// (limit scaled by the timeframe's minute factor, capped) and resamples.
func (f *Fetcher) Fetch(ctx context.Context, symbol string, tf model.Timeframe, limit int) []model.Bar {
	bars := f.fetchRetry(ctx, symbol, tf, limit)
	if len(bars) > 0 {
		return bars
	}

	// Fallback: derive the target granularity from 1min bars.
	factor := tf.Minutes()
	if factor < 1 {
		factor = 1
	}
	baseLimit := limit * factor
	if baseLimit > fallbackBarCap {
		baseLimit = fallbackBarCap
	}
	fine := f.fetchRetry(ctx, symbol, model.TF1Min, baseLimit)
	if len(fine) == 0 {
		return nil
	}
	if f.Metrics != nil {
		f.Metrics.FetchFallback()
	}

	out := resample.Aggregate(fine, tf)
	if len(out) > limit {
		out = out[len(out)-limit:] // keep the most recent bars
	}
	return out
}

// fetchRetry performs up to maxAttempts requests with exponential backoff.
func (f *Fetcher) fetchRetry(ctx context.Context, symbol string, tf model.Timeframe, limit int) []model.Bar {
	backoff := f.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if f.Metrics != nil {
			f.Metrics.FetchAttempt()
		}
		bars, err := f.src.Bars(ctx, symbol, tf, limit)
		if err == nil {
			return bars
		}
		if f.Metrics != nil {
			f.Metrics.FetchFailure()
		}

		wait := backoff << attempt
		log.Printf("[fetch] %s %s: %v (retry %d/%d in %v)", symbol, tf, err, attempt+1, maxAttempts, wait)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
	return nil
}
