package model

import (
	"encoding/json"
	"math"
	"time"
)

// Bar represents one OHLCV observation for a single (symbol, timeframe)
// interval. All prices and volume are finite float64 values.
type Bar struct {
	TS     time.Time `json:"ts"` // bar timestamp (UTC)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Valid reports whether all price/volume fields are finite numbers.
// Upstream payloads occasionally carry nulls or garbage; those rows are
// dropped before they can corrupt rolling indicator state.
func (b *Bar) Valid() bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Normalize clamps High/Low so that High ≥ max(Open, Close) and
// Low ≤ min(Open, Close). The upstream source does not enforce the
// invariant but the indicator math assumes it.
func (b *Bar) Normalize() {
	if b.Open > b.High {
		b.High = b.Open
	}
	if b.Close > b.High {
		b.High = b.Close
	}
	if b.Open < b.Low {
		b.Low = b.Open
	}
	if b.Close < b.Low {
		b.Low = b.Close
	}
}

// JSON returns the JSON-encoded bar (ignoring errors for hot-path usage).
func (b *Bar) JSON() []byte {
	out, _ := json.Marshal(b)
	return out
}

// CacheKey returns the cache/storage key for a (symbol, timeframe) pair.
func CacheKey(symbol string, tf Timeframe) string {
	return symbol + "_" + string(tf)
}
