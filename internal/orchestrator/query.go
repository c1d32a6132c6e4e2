package orchestrator

import (
	"context"
	"errors"
	"time"

	"marketpulse/internal/model"
)

// ErrInsufficientData is returned by on-demand queries while a pair's
// cached series is below the warm-up threshold. It is an explicit "not
// ready" outcome, distinct from a server error.
var ErrInsufficientData = errors.New("insufficient data")

// Diagnostics is the windowed indicator view plus the latest signal.
type Diagnostics struct {
	Meta struct {
		Symbol    string          `json:"symbol"`
		Timeframe model.Timeframe `json:"timeframe"`
		Count     int             `json:"count"`
		Note      string          `json:"note"`
	} `json:"meta"`
	LatestSignal     *model.Signal       `json:"latest_signal"`
	LatestIndicators *model.IndicatorRow `json:"latest_indicators"`
	Series           SeriesPayload       `json:"series"`
}

// SeriesPayload is a column-oriented indicator series: a ts column plus one
// column per selected field, positionally aligned. Undefined values
// serialize as null.
type SeriesPayload map[string]interface{}

// BarsFor returns the most recent limit bars for a pair, preferring the
// cache and falling back to the snapshot store on a cold cache.
func (o *Orchestrator) BarsFor(ctx context.Context, symbol string, tf model.Timeframe, limit int) []model.Bar {
	key := model.CacheKey(symbol, tf)
	if bars := o.cache.Read(key, limit); len(bars) > 0 {
		return bars
	}
	if o.store == nil {
		return nil
	}
	bars, err := o.store.LatestN(ctx, symbol, tf, limit)
	if err != nil {
		return nil
	}
	return bars
}

// SignalFor computes the current signal for a pair from its cached window.
// Returns ErrInsufficientData below the warm-up threshold.
func (o *Orchestrator) SignalFor(ctx context.Context, symbol string, tf model.Timeframe) (*model.Signal, error) {
	rows, err := o.indicatorRows(symbol, tf)
	if err != nil {
		return nil, err
	}
	sig := o.signals.Evaluate(rows[len(rows)-1])
	sig.Symbol = symbol
	sig.Timeframe = tf
	sig.Timestamp = time.Now().UTC()
	return &sig, nil
}

// DiagnosticsFor returns the last limit indicator rows (restricted to the
// selected fields; nil selects the default set) together with the latest
// row and signal. Returns ErrInsufficientData below the warm-up threshold.
func (o *Orchestrator) DiagnosticsFor(ctx context.Context, symbol string, tf model.Timeframe, limit int, fields []string) (*Diagnostics, error) {
	rows, err := o.indicatorRows(symbol, tf)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > len(rows) {
		limit = len(rows)
	}
	window := rows[len(rows)-limit:]

	if fields == nil {
		fields = model.IndicatorFields
	}

	series := SeriesPayload{}
	ts := make([]string, len(window))
	for i, r := range window {
		ts[i] = r.TS.Format(time.RFC3339)
	}
	series["ts"] = ts
	for _, f := range fields {
		col := make([]model.OptFloat, 0, len(window))
		known := false
		for _, r := range window {
			v, ok := r.Field(f)
			if !ok {
				break
			}
			known = true
			col = append(col, v)
		}
		if known {
			series[f] = col
		}
	}

	sig, err := o.SignalFor(ctx, symbol, tf)
	if err != nil {
		return nil, err
	}

	d := &Diagnostics{
		LatestSignal:     sig,
		LatestIndicators: &rows[len(rows)-1],
		Series:           series,
	}
	d.Meta.Symbol = symbol
	d.Meta.Timeframe = tf
	d.Meta.Count = len(window)
	d.Meta.Note = "Initial values may be null until rolling windows warm up."
	return d, nil
}

// indicatorRows computes the full indicator series for a pair's cached
// window, enforcing the warm-up threshold.
func (o *Orchestrator) indicatorRows(symbol string, tf model.Timeframe) ([]model.IndicatorRow, error) {
	bars := o.cache.Read(model.CacheKey(symbol, tf), 0)
	if len(bars) < o.cfg.WarmupBars {
		return nil, ErrInsufficientData
	}
	return o.engine.Compute(bars), nil
}
