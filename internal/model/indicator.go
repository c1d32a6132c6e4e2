package model

import (
	"encoding/json"
	"time"
)

// OptFloat is an optional indicator value. Undefined means "insufficient
// warm-up data" and must never be read as a numeric zero. It serializes
// to JSON null when undefined.
type OptFloat struct {
	Value   float64
	Defined bool
}

// Some constructs a defined OptFloat.
func Some(v float64) OptFloat {
	return OptFloat{Value: v, Defined: true}
}

// Or returns the value, or fallback when undefined.
func (o OptFloat) Or(fallback float64) float64 {
	if !o.Defined {
		return fallback
	}
	return o.Value
}

func (o OptFloat) MarshalJSON() ([]byte, error) {
	if !o.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *OptFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = OptFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// IndicatorRow holds every derived value for one bar. Fields are undefined
// until their rolling window has warmed up.
type IndicatorRow struct {
	TS    time.Time `json:"ts"`
	Close float64   `json:"close"`

	SMA20  OptFloat `json:"sma20"`
	SMA50  OptFloat `json:"sma50"`
	EMA12  OptFloat `json:"ema12"`
	EMA26  OptFloat `json:"ema26"`
	RSI14  OptFloat `json:"rsi14"`
	MACD   OptFloat `json:"macd"`
	Signal OptFloat `json:"macd_signal"`
	Hist   OptFloat `json:"macd_hist"`
	BBMid  OptFloat `json:"bb_ma"`
	BBUp   OptFloat `json:"bb_up"`
	BBLo   OptFloat `json:"bb_lo"`
	ATR14  OptFloat `json:"atr14"`
}

// IndicatorFields enumerates the selectable diagnostic field names, in the
// order they are emitted by default.
var IndicatorFields = []string{
	"close", "sma20", "sma50", "ema12", "ema26", "rsi14",
	"macd", "macd_signal", "macd_hist", "bb_ma", "bb_up", "bb_lo", "atr14",
}

// Field returns the named value from the row. Unknown names return an
// undefined OptFloat and ok=false.
func (r *IndicatorRow) Field(name string) (OptFloat, bool) {
	switch name {
	case "close":
		return Some(r.Close), true
	case "sma20":
		return r.SMA20, true
	case "sma50":
		return r.SMA50, true
	case "ema12":
		return r.EMA12, true
	case "ema26":
		return r.EMA26, true
	case "rsi14":
		return r.RSI14, true
	case "macd":
		return r.MACD, true
	case "macd_signal":
		return r.Signal, true
	case "macd_hist":
		return r.Hist, true
	case "bb_ma":
		return r.BBMid, true
	case "bb_up":
		return r.BBUp, true
	case "bb_lo":
		return r.BBLo, true
	case "atr14":
		return r.ATR14, true
	}
	return OptFloat{}, false
}
