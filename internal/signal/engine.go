// Package signal derives a trend classification, confidence score and
// entry/stop/target levels from the latest indicator row. Evaluation is
// stateless: each call is a pure function of the single row it is given.
package signal

import (
	"math"

	"marketpulse/internal/model"
)

// Fixed component weights; they sum to 1.0 so confidence stays in [0,1].
const (
	weightTrend = 0.35
	weightRSI   = 0.20
	weightMACD  = 0.25
	weightBoll  = 0.20
)

// Stop-loss and take-profit ATR multiples.
const (
	stopATRMult   = 1.5
	targetATRMult = 3.0
)

// Engine evaluates indicator rows into composite signals.
type Engine struct{}

// NewEngine creates an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate derives a Signal from the latest indicator row. Undefined
// indicator inputs default explicitly: RSI comparisons are simply not
// satisfied, MACD histogram and ATR fall back to 0, and undefined or
// degenerate Bollinger bands place the price at the neutral mid-band.
// The caller fills in Symbol/Timeframe/Timestamp.
func (e *Engine) Evaluate(row model.IndicatorRow) model.Signal {
	price := row.Close
	hist := row.Hist.Or(0)
	atr := row.ATR14.Or(0)

	ema12, ema26 := row.EMA12.Or(0), row.EMA26.Or(0)
	trendUp := row.EMA12.Defined && row.EMA26.Defined && ema12 > ema26

	scoreTrend := 0.0
	if trendUp {
		scoreTrend = 1.0
	}

	scoreRSI := 0.0
	rsi := row.RSI14
	switch {
	case rsi.Defined && 50 < rsi.Value && rsi.Value < 70:
		scoreRSI = 1.0
	case rsi.Defined && 30 <= rsi.Value && rsi.Value <= 50:
		scoreRSI = 0.5
	}

	scoreMACD := 0.0
	if hist > 0 {
		scoreMACD = 1.0
	}

	priceLoc := priceLocation(price, row.BBLo, row.BBUp)
	scoreBoll := 1.0 - 2.0*math.Abs(0.5-priceLoc) // favor mid-band

	confidence := weightTrend*scoreTrend +
		weightRSI*scoreRSI +
		weightMACD*scoreMACD +
		weightBoll*scoreBoll

	trend := classifyTrend(trendUp, scoreTrend, scoreMACD, rsi, row)

	entry := price
	stop := entry + stopATRMult*atr
	target := entry - targetATRMult*atr
	if trend == model.TrendBullish {
		stop = entry - stopATRMult*atr
		target = entry + targetATRMult*atr
	}

	return model.Signal{
		Trend:      trend,
		Strength:   ClassifyStrength(trend, confidence),
		Confidence: confidence,
		Entry:      entry,
		StopLoss:   stop,
		TakeProfit: target,
		LastClose:  price,
		Explain: model.Explain{
			TrendUp:  trendUp,
			RSI:      rsi,
			MACDHist: hist,
			PriceLoc: priceLoc,
			ATR:      atr,
		},
	}
}

// classifyTrend applies the directional rules. A dead-flat tape — EMA12
// exactly equal to EMA26 — must not read as Bearish, so an exact tie
// classifies as Sideways before the directional rules run.
func classifyTrend(trendUp bool, scoreTrend, scoreMACD float64, rsi model.OptFloat, row model.IndicatorRow) model.Trend {
	if row.EMA12.Defined && row.EMA26.Defined && row.EMA12.Value == row.EMA26.Value {
		return model.TrendSideways
	}
	rsiAbove := rsi.Defined && rsi.Value > 50
	rsiBelow := rsi.Defined && rsi.Value < 50

	if scoreTrend >= 0.5 && (scoreMACD >= 0.5 || rsiAbove) {
		return model.TrendBullish
	}
	if scoreTrend < 0.5 && (scoreMACD < 0.5 || rsiBelow) {
		return model.TrendBearish
	}
	return model.TrendSideways
}

// priceLocation normalizes price into [0,1] between the Bollinger bands.
// Undefined or equal bands yield the neutral 0.5. The clamp keeps the
// Bollinger score — and therefore confidence — inside [0,1] even when the
// price escapes the bands.
func priceLocation(price float64, lo, up model.OptFloat) float64 {
	if !lo.Defined || !up.Defined || up.Value == lo.Value {
		return 0.5
	}
	loc := (price - lo.Value) / (up.Value - lo.Value)
	if loc < 0 {
		return 0
	}
	if loc > 1 {
		return 1
	}
	return loc
}

// ClassifyStrength maps (trend, confidence) to an action label. Both
// thresholds are boundary-inclusive.
func ClassifyStrength(trend model.Trend, confidence float64) model.Strength {
	switch {
	case confidence >= 0.8:
		switch trend {
		case model.TrendBullish:
			return model.StrengthStrongBuy
		case model.TrendBearish:
			return model.StrengthStrongSell
		}
		return model.StrengthNeutral
	case confidence >= 0.6:
		switch trend {
		case model.TrendBullish:
			return model.StrengthBuy
		case model.TrendBearish:
			return model.StrengthSell
		}
		return model.StrengthNeutral
	}
	return model.StrengthNeutral
}
