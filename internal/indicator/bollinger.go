package indicator

import (
	"math"

	"marketpulse/internal/model"
)

// Bollinger computes the middle band (SMA of closes) and upper/lower bands
// at ±k population standard deviations over the same window. Undefined
// until the window is full.
type Bollinger struct {
	period int
	k      float64
	buf    []float64
	idx    int
	count  int
	sum    float64
}

// NewBollinger creates Bollinger bands (typically period 20, k 2.0).
func NewBollinger(period int, k float64) *Bollinger {
	return &Bollinger{
		period: period,
		k:      k,
		buf:    make([]float64, period),
	}
}

func (b *Bollinger) Update(bar model.Bar) {
	price := bar.Close
	if b.count >= b.period {
		b.sum -= b.buf[b.idx]
	}
	b.buf[b.idx] = price
	b.sum += price
	b.idx = (b.idx + 1) % b.period
	b.count++
}

// Value returns the middle band.
func (b *Bollinger) Value() model.OptFloat {
	if b.count < b.period {
		return model.OptFloat{}
	}
	return model.Some(b.sum / float64(b.period))
}

// Bands returns (middle, upper, lower); all undefined during warm-up.
func (b *Bollinger) Bands() (mid, up, lo model.OptFloat) {
	if b.count < b.period {
		return
	}
	mean := b.sum / float64(b.period)

	// Population variance computed over the buffer; n=20 keeps this cheap
	// and avoids the drift of an incremental sum-of-squares.
	var ss float64
	for _, v := range b.buf {
		d := v - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(b.period))

	mid = model.Some(mean)
	up = model.Some(mean + b.k*std)
	lo = model.Some(mean - b.k*std)
	return
}
