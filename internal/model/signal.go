package model

import (
	"encoding/json"
	"time"
)

// Trend is the directional classification of the latest indicator row.
type Trend string

const (
	TrendBullish  Trend = "Bullish"
	TrendBearish  Trend = "Bearish"
	TrendSideways Trend = "Sideways"
)

// Strength is the confidence-banded action label.
type Strength string

const (
	StrengthStrongBuy  Strength = "Strong Buy"
	StrengthBuy        Strength = "Buy"
	StrengthStrongSell Strength = "Strong Sell"
	StrengthSell       Strength = "Sell"
	StrengthNeutral    Strength = "Neutral"
)

// Explain carries the raw intermediate values behind a signal, for
// observability. Mirrors the diagnostic payload of the push surface.
type Explain struct {
	TrendUp  bool     `json:"trend_up"`
	RSI      OptFloat `json:"rsi"`
	MACDHist float64  `json:"macd_hist"`
	PriceLoc float64  `json:"price_loc_bb"`
	ATR      float64  `json:"atr"`
}

// Signal is the composite trading signal for one (symbol, timeframe) pair.
// It is derived fresh every cycle from the latest indicator row and never
// mutated after creation.
type Signal struct {
	Symbol     string    `json:"symbol"`
	Timeframe  Timeframe `json:"timeframe"`
	Timestamp  time.Time `json:"timestamp"`
	Trend      Trend     `json:"trend"`
	Strength   Strength  `json:"strength"`
	Confidence float64   `json:"confidence"`
	Entry      float64   `json:"entry"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	LastClose  float64   `json:"last_close"`
	Explain    Explain   `json:"explain"`
}

// JSON returns the JSON-encoded signal (ignoring errors for hot-path usage).
func (s *Signal) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}
