package indicator

import "marketpulse/internal/model"

// EMA is an exponentially weighted mean with smoothing factor 2/(period+1),
// seeded by the first sample. Defined from the first bar onward; O(1) per
// update with no window storage.
type EMA struct {
	period  int
	alpha   float64
	current float64
	seeded  bool
}

// NewEMA creates an EMA with the given period.
func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		alpha:  2.0 / float64(period+1),
	}
}

func (e *EMA) Update(bar model.Bar) {
	e.update(bar.Close)
}

// update advances the EMA on a raw value; MACD reuses it for the signal
// line, which smooths the MACD series rather than closes.
func (e *EMA) update(v float64) {
	if !e.seeded {
		e.current = v
		e.seeded = true
		return
	}
	e.current = v*e.alpha + e.current*(1-e.alpha)
}

func (e *EMA) Value() model.OptFloat {
	if !e.seeded {
		return model.OptFloat{}
	}
	return model.Some(e.current)
}
