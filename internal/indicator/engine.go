package indicator

import "marketpulse/internal/model"

// Engine computes the fixed indicator set over a bar window. Compute is a
// pure function of its input: fresh indicator instances are fed the window
// in order, producing one positionally-aligned row per bar.
type Engine struct{}

// NewEngine creates an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Compute returns one IndicatorRow per input bar. Bars must be ascending by
// timestamp (the cache guarantees this for its series).
func (e *Engine) Compute(bars []model.Bar) []model.IndicatorRow {
	if len(bars) == 0 {
		return nil
	}

	sma20 := NewSMA(20)
	sma50 := NewSMA(50)
	ema12 := NewEMA(12)
	ema26 := NewEMA(26)
	rsi14 := NewRSI(14)
	macd := NewMACD(12, 26, 9)
	boll := NewBollinger(20, 2.0)
	atr14 := NewATR(14)

	rows := make([]model.IndicatorRow, len(bars))
	for i, b := range bars {
		sma20.Update(b)
		sma50.Update(b)
		ema12.Update(b)
		ema26.Update(b)
		rsi14.Update(b)
		macd.Update(b)
		boll.Update(b)
		atr14.Update(b)

		mid, up, lo := boll.Bands()
		rows[i] = model.IndicatorRow{
			TS:     b.TS,
			Close:  b.Close,
			SMA20:  sma20.Value(),
			SMA50:  sma50.Value(),
			EMA12:  ema12.Value(),
			EMA26:  ema26.Value(),
			RSI14:  rsi14.Value(),
			MACD:   macd.Value(),
			Signal: macd.Signal(),
			Hist:   macd.Hist(),
			BBMid:  mid,
			BBUp:   up,
			BBLo:   lo,
			ATR14:  atr14.Value(),
		}
	}

	backfillRSI(rows)
	return rows
}

// backfillRSI fills undefined RSI values with the nearest subsequent defined
// value (carry-backward). Rows after the last defined value stay undefined.
func backfillRSI(rows []model.IndicatorRow) {
	next := model.OptFloat{}
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].RSI14.Defined {
			next = rows[i].RSI14
		} else if next.Defined {
			rows[i].RSI14 = next
		}
	}
}
