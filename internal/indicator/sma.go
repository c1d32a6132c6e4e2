package indicator

import "marketpulse/internal/model"

// SMA is a simple moving average of closes over a rolling window.
// Uses a preallocated circular buffer for an O(1) hot path.
type SMA struct {
	period int
	buf    []float64
	idx    int
	count  int
	sum    float64
}

// NewSMA creates an SMA with the given period.
func NewSMA(period int) *SMA {
	return &SMA{
		period: period,
		buf:    make([]float64, period),
	}
}

func (s *SMA) Update(bar model.Bar) {
	price := bar.Close

	if s.count >= s.period {
		// Subtract the oldest value being overwritten
		s.sum -= s.buf[s.idx]
	}

	s.buf[s.idx] = price
	s.sum += price
	s.idx = (s.idx + 1) % s.period
	s.count++
}

func (s *SMA) Value() model.OptFloat {
	if s.count < s.period {
		return model.OptFloat{}
	}
	return model.Some(s.sum / float64(s.period))
}
