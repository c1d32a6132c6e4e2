package indicator

import (
	"math"

	"marketpulse/internal/model"
)

// ATR is the rolling mean of the true range over a window. The first bar
// has no previous close and produces no true-range sample, so ATR becomes
// defined only at the period-th sample (bar period+1 onward).
type ATR struct {
	period    int
	buf       []float64
	idx       int
	count     int // true-range samples seen
	sum       float64
	prevClose float64
	primed    bool
}

// NewATR creates an ATR with the given period (typically 14).
func NewATR(period int) *ATR {
	return &ATR{
		period: period,
		buf:    make([]float64, period),
	}
}

func (a *ATR) Update(bar model.Bar) {
	if !a.primed {
		a.prevClose = bar.Close
		a.primed = true
		return
	}

	tr := bar.High - bar.Low
	if v := math.Abs(bar.High - a.prevClose); v > tr {
		tr = v
	}
	if v := math.Abs(bar.Low - a.prevClose); v > tr {
		tr = v
	}
	a.prevClose = bar.Close

	if a.count >= a.period {
		a.sum -= a.buf[a.idx]
	}
	a.buf[a.idx] = tr
	a.sum += tr
	a.idx = (a.idx + 1) % a.period
	a.count++
}

func (a *ATR) Value() model.OptFloat {
	if a.count < a.period {
		return model.OptFloat{}
	}
	return model.Some(a.sum / float64(a.period))
}
