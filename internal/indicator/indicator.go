// Package indicator provides deterministic rolling technical indicators
// over a bar window, and the engine that computes one IndicatorRow per bar.
//
// Every indicator exposes the same shape: Update feeds one bar, Value
// returns the current OptFloat (undefined until the rolling window has
// warmed up). Undefined is a sentinel, never a numeric zero.
package indicator

import "marketpulse/internal/model"

// Indicator is the interface shared by all rolling indicators.
type Indicator interface {
	// Update feeds a new bar and recalculates.
	Update(bar model.Bar)

	// Value returns the current value; undefined during warm-up.
	Value() model.OptFloat
}
