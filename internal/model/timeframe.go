package model

import (
	"fmt"
	"time"
)

// Timeframe is the label of a bar granularity. Labels map to an exact,
// strictly positive number of minutes.
type Timeframe string

const (
	TF1Min   Timeframe = "1min"
	TF3Min   Timeframe = "3min"
	TF5Min   Timeframe = "5min"
	TF15Min  Timeframe = "15min"
	TF30Min  Timeframe = "30min"
	TF1Hour  Timeframe = "1hour"
	TF2Hour  Timeframe = "2hour"
	TF4Hour  Timeframe = "4hour"
)

// Timeframes lists all supported labels, coarsest first (matching the
// polling order: coarse bars are scarcer and benefit from early priming).
var Timeframes = []Timeframe{
	TF4Hour, TF2Hour, TF1Hour, TF30Min, TF15Min, TF5Min, TF3Min, TF1Min,
}

var tfMinutes = map[Timeframe]int{
	TF1Min:  1,
	TF3Min:  3,
	TF5Min:  5,
	TF15Min: 15,
	TF30Min: 30,
	TF1Hour: 60,
	TF2Hour: 120,
	TF4Hour: 240,
}

// ParseTimeframe validates a timeframe label.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if _, ok := tfMinutes[tf]; !ok {
		return "", fmt.Errorf("unsupported timeframe: %q", s)
	}
	return tf, nil
}

// Minutes returns the duration of one bar in minutes.
func (tf Timeframe) Minutes() int {
	return tfMinutes[tf]
}

// Duration returns the duration of one bar.
func (tf Timeframe) Duration() time.Duration {
	return time.Duration(tfMinutes[tf]) * time.Minute
}

// HourScale reports whether the timeframe is hour-based. Hour-scale bars
// are scarcer upstream, so callers request a larger history for them.
func (tf Timeframe) HourScale() bool {
	return tfMinutes[tf] >= 60
}
