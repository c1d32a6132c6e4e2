// Package resample aggregates fine-granularity bar sequences into coarser
// timeframe bars using fixed OHLCV rules: open = first, high = max,
// low = min, close = last, volume = sum.
package resample

import (
	"marketpulse/internal/model"
)

// Aggregate groups fine bars into non-overlapping buckets aligned to the
// target timeframe's calendar boundary and emits one bar per non-empty
// bucket. Input must already be sorted ascending by timestamp; behavior is
// undefined otherwise.
func Aggregate(fine []model.Bar, tf model.Timeframe) []model.Bar {
	if len(fine) == 0 {
		return nil
	}

	d := tf.Duration()
	out := make([]model.Bar, 0, len(fine)/tf.Minutes()+1)

	var cur model.Bar
	var open bool

	for _, b := range fine {
		bucket := b.TS.Truncate(d)

		if open && bucket.Equal(cur.TS) {
			// Same bucket — merge OHLCV.
			if b.High > cur.High {
				cur.High = b.High
			}
			if b.Low < cur.Low {
				cur.Low = b.Low
			}
			cur.Close = b.Close
			cur.Volume += b.Volume
			continue
		}

		if open {
			out = append(out, cur)
		}
		cur = model.Bar{
			TS:     bucket,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
		open = true
	}

	if open {
		out = append(out, cur)
	}
	return out
}
