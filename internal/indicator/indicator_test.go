package indicator

import (
	"math"
	"testing"
	"time"

	"marketpulse/internal/model"
)

func closeBars(closes ...float64) []model.Bar {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			TS:    start.Add(time.Duration(i) * time.Minute),
			Open:  c,
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		}
	}
	return bars
}

func approx(t *testing.T, got model.OptFloat, want float64) {
	t.Helper()
	if !got.Defined {
		t.Fatalf("value undefined, want %v", want)
	}
	if math.Abs(got.Value-want) > 1e-9 {
		t.Fatalf("got %v, want %v", got.Value, want)
	}
}

func TestSMA_WindowBoundary(t *testing.T) {
	s := NewSMA(3)
	bars := closeBars(1, 2, 3, 4)

	s.Update(bars[0])
	s.Update(bars[1])
	if s.Value().Defined {
		t.Fatal("SMA defined before window full")
	}
	s.Update(bars[2])
	approx(t, s.Value(), 2)
	s.Update(bars[3])
	approx(t, s.Value(), 3)
}

func TestEMA_SeedsOnFirstSample(t *testing.T) {
	e := NewEMA(3) // alpha = 0.5
	if e.Value().Defined {
		t.Fatal("EMA defined before any sample")
	}
	e.Update(closeBars(10)[0])
	approx(t, e.Value(), 10)
	e.Update(closeBars(20)[0])
	approx(t, e.Value(), 15)
}

func TestRSI_BalancedSeries(t *testing.T) {
	r := NewRSI(2)
	for _, b := range closeBars(10, 11, 10, 11) {
		r.Update(b)
	}
	// Equal gain and loss magnitudes → RSI 50.
	approx(t, r.Value(), 50)
}

func TestRSI_AllLossesIsZero(t *testing.T) {
	r := NewRSI(2)
	for _, b := range closeBars(10, 9, 8) {
		r.Update(b)
	}
	approx(t, r.Value(), 0)
}

func TestRSI_AllGainsUndefined(t *testing.T) {
	r := NewRSI(2)
	for _, b := range closeBars(10, 11, 12) {
		r.Update(b)
	}
	if r.Value().Defined {
		t.Error("RSI should be undefined when the loss average is zero")
	}
}

func TestATR_TrueRangeMean(t *testing.T) {
	a := NewATR(2)
	bars := []model.Bar{
		{High: 11, Low: 9, Close: 10},
		{High: 12, Low: 9, Close: 11},  // TR = max(3, 2, 1) = 3
		{High: 13, Low: 11, Close: 12}, // TR = max(2, 2, 0) = 2
	}
	a.Update(bars[0])
	if a.Value().Defined {
		t.Fatal("ATR defined before any true-range sample")
	}
	a.Update(bars[1])
	if a.Value().Defined {
		t.Fatal("ATR defined with one of two samples")
	}
	a.Update(bars[2])
	approx(t, a.Value(), 2.5)
}

func TestBollinger_PopulationBands(t *testing.T) {
	b := NewBollinger(2, 2.0)
	b.Update(closeBars(10)[0])
	if _, up, _ := b.Bands(); up.Defined {
		t.Fatal("bands defined before window full")
	}
	b.Update(closeBars(20)[0])

	mid, up, lo := b.Bands()
	approx(t, mid, 15)
	approx(t, up, 25) // std = 5 over the full window
	approx(t, lo, 5)
}

func TestMACD_DefinedFromFirstBar(t *testing.T) {
	m := NewMACD(12, 26, 9)
	m.Update(closeBars(100)[0])
	approx(t, m.Value(), 0)
	approx(t, m.Signal(), 0)
	approx(t, m.Hist(), 0)
}

func TestEngine_WarmupBoundaries(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i%7)
	}
	rows := NewEngine().Compute(closeBars(closes...))
	if len(rows) != 60 {
		t.Fatalf("got %d rows", len(rows))
	}

	if rows[18].SMA20.Defined || !rows[19].SMA20.Defined {
		t.Error("SMA20 must first define at the 20th bar")
	}
	if rows[48].SMA50.Defined || !rows[49].SMA50.Defined {
		t.Error("SMA50 must first define at the 50th bar")
	}
	if rows[13].ATR14.Defined || !rows[14].ATR14.Defined {
		t.Error("ATR14 must first define at the 15th bar")
	}
	if rows[18].BBUp.Defined || !rows[19].BBUp.Defined {
		t.Error("Bollinger must first define at the 20th bar")
	}
	if !rows[0].EMA12.Defined || !rows[0].MACD.Defined {
		t.Error("EMA/MACD must define from the first bar")
	}
}

func TestEngine_RSIRangeAndBackfill(t *testing.T) {
	// 20 rising closes then one drop: the rolling loss mean is zero until
	// the drop enters the window, so early rows backfill from the first
	// defined value.
	closes := make([]float64, 21)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	closes[20] = closes[19] - 1

	rows := NewEngine().Compute(closeBars(closes...))

	last := rows[20].RSI14
	if !last.Defined {
		t.Fatal("RSI undefined after a loss entered the window")
	}
	if last.Value <= 0 || last.Value >= 100 {
		t.Fatalf("RSI out of range: %v", last.Value)
	}
	for i := 0; i < 20; i++ {
		if !rows[i].RSI14.Defined {
			t.Fatalf("row %d RSI not backfilled", i)
		}
		if rows[i].RSI14.Value != last.Value {
			t.Fatalf("row %d backfill = %v, want %v", i, rows[i].RSI14.Value, last.Value)
		}
	}
}

func TestEngine_AllGainsRSIStaysUndefined(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rows := NewEngine().Compute(closeBars(closes...))
	for i, r := range rows {
		if r.RSI14.Defined {
			t.Fatalf("row %d RSI defined for an all-gains series", i)
		}
	}
}
