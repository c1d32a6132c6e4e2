package signal

import (
	"math"
	"testing"

	"marketpulse/internal/model"
)

func row(close, ema12, ema26 float64) model.IndicatorRow {
	return model.IndicatorRow{
		Close: close,
		EMA12: model.Some(ema12),
		EMA26: model.Some(ema26),
	}
}

func TestEvaluate_FlatTapeIsSideways(t *testing.T) {
	// EMA12 exactly equal to EMA26: a dead-flat series must not read as
	// Bearish.
	r := row(100, 100, 100)
	sig := NewEngine().Evaluate(r)

	if sig.Trend != model.TrendSideways {
		t.Fatalf("trend = %v, want Sideways", sig.Trend)
	}
	if sig.Strength != model.StrengthNeutral {
		t.Errorf("strength = %v, want Neutral", sig.Strength)
	}
}

func TestEvaluate_FullBullishAlignment(t *testing.T) {
	r := row(100, 105, 100)
	r.RSI14 = model.Some(60)
	r.Hist = model.Some(1.5)
	r.BBUp = model.Some(110)
	r.BBLo = model.Some(90) // price 100 sits exactly mid-band
	r.ATR14 = model.Some(2)

	sig := NewEngine().Evaluate(r)

	if sig.Trend != model.TrendBullish {
		t.Fatalf("trend = %v, want Bullish", sig.Trend)
	}
	if math.Abs(sig.Confidence-1.0) > 1e-9 {
		t.Errorf("confidence = %v, want 1.0", sig.Confidence)
	}
	if sig.Strength != model.StrengthStrongBuy {
		t.Errorf("strength = %v, want Strong Buy", sig.Strength)
	}
	if sig.StopLoss != 100-1.5*2 {
		t.Errorf("stop = %v, want %v", sig.StopLoss, 100-1.5*2)
	}
	if sig.TakeProfit != 100+3.0*2 {
		t.Errorf("target = %v, want %v", sig.TakeProfit, 100+3.0*2)
	}
}

func TestEvaluate_BearishAlignment(t *testing.T) {
	r := row(100, 95, 100)
	r.RSI14 = model.Some(40)
	r.Hist = model.Some(-1.0)
	r.ATR14 = model.Some(2)

	sig := NewEngine().Evaluate(r)

	if sig.Trend != model.TrendBearish {
		t.Fatalf("trend = %v, want Bearish", sig.Trend)
	}
	if sig.StopLoss != 100+1.5*2 {
		t.Errorf("stop = %v, want above entry for a short", sig.StopLoss)
	}
	if sig.TakeProfit != 100-3.0*2 {
		t.Errorf("target = %v, want below entry for a short", sig.TakeProfit)
	}
}

func TestEvaluate_SidewaysUsesShortSideLevels(t *testing.T) {
	r := row(100, 100, 100)
	r.ATR14 = model.Some(4)

	sig := NewEngine().Evaluate(r)
	if sig.Trend != model.TrendSideways {
		t.Fatalf("trend = %v", sig.Trend)
	}
	if sig.StopLoss != 106 || sig.TakeProfit != 88 {
		t.Errorf("levels = %v/%v, want 106/88", sig.StopLoss, sig.TakeProfit)
	}
}

func TestEvaluate_ConfidenceBounded(t *testing.T) {
	rows := []model.IndicatorRow{
		{Close: 100},
		row(100, 105, 100),
		row(100, 95, 100),
	}
	// Price far outside the bands: the location clamp keeps the Bollinger
	// score non-negative.
	escaped := row(200, 105, 100)
	escaped.BBUp = model.Some(110)
	escaped.BBLo = model.Some(90)
	escaped.RSI14 = model.Some(60)
	escaped.Hist = model.Some(3)
	rows = append(rows, escaped)

	e := NewEngine()
	for i, r := range rows {
		sig := e.Evaluate(r)
		if sig.Confidence < 0 || sig.Confidence > 1 {
			t.Errorf("row %d: confidence %v out of [0,1]", i, sig.Confidence)
		}
	}
}

func TestEvaluate_UndefinedRSIScoresZero(t *testing.T) {
	with := row(100, 105, 100)
	with.RSI14 = model.Some(60)
	without := row(100, 105, 100)

	e := NewEngine()
	diff := e.Evaluate(with).Confidence - e.Evaluate(without).Confidence
	if math.Abs(diff-weightRSI) > 1e-9 {
		t.Errorf("RSI contribution = %v, want %v", diff, weightRSI)
	}
}

func TestClassifyStrength_Boundaries(t *testing.T) {
	cases := []struct {
		trend model.Trend
		conf  float64
		want  model.Strength
	}{
		{model.TrendBullish, 0.8, model.StrengthStrongBuy},
		{model.TrendBullish, 0.6, model.StrengthBuy},
		{model.TrendBullish, 0.59, model.StrengthNeutral},
		{model.TrendBearish, 0.8, model.StrengthStrongSell},
		{model.TrendBearish, 0.6, model.StrengthSell},
		{model.TrendSideways, 0.95, model.StrengthNeutral},
	}
	for _, c := range cases {
		if got := ClassifyStrength(c.trend, c.conf); got != c.want {
			t.Errorf("ClassifyStrength(%v, %v) = %v, want %v", c.trend, c.conf, got, c.want)
		}
	}
}
