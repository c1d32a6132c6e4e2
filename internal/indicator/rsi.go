package indicator

import "marketpulse/internal/model"

// RSI is the Relative Strength Index over simple rolling means of gains and
// losses (losses as positive magnitudes). Undefined until period deltas have
// been seen, and whenever the rolling loss average is exactly zero — those
// gaps are backward-filled by the engine after the full pass.
type RSI struct {
	period    int
	gains     []float64
	losses    []float64
	idx       int
	count     int // deltas seen
	sumGain   float64
	sumLoss   float64
	prevClose float64
	primed    bool // first close recorded
}

// NewRSI creates an RSI with the given period (typically 14).
func NewRSI(period int) *RSI {
	return &RSI{
		period: period,
		gains:  make([]float64, period),
		losses: make([]float64, period),
	}
}

func (r *RSI) Update(bar model.Bar) {
	price := bar.Close
	if !r.primed {
		r.prevClose = price
		r.primed = true
		return
	}

	delta := price - r.prevClose
	r.prevClose = price

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}

	if r.count >= r.period {
		r.sumGain -= r.gains[r.idx]
		r.sumLoss -= r.losses[r.idx]
	}
	r.gains[r.idx] = gain
	r.losses[r.idx] = loss
	r.sumGain += gain
	r.sumLoss += loss
	r.idx = (r.idx + 1) % r.period
	r.count++
}

func (r *RSI) Value() model.OptFloat {
	if r.count < r.period {
		return model.OptFloat{}
	}
	avgLoss := r.sumLoss / float64(r.period)
	if avgLoss == 0 {
		// Ratio undefined; the engine backfills from the nearest
		// subsequent defined value.
		return model.OptFloat{}
	}
	avgGain := r.sumGain / float64(r.period)
	rs := avgGain / avgLoss
	return model.Some(100.0 - 100.0/(1.0+rs))
}
