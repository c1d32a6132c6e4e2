package indicator

import "marketpulse/internal/model"

// MACD is EMA(fast) − EMA(slow) of closes, with a signal line that is an
// EMA(signal) of the MACD series and a histogram of their difference.
// All three are defined from the first bar (EMAs seed on first sample).
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA
}

// NewMACD creates a MACD with the given periods (typically 12, 26, 9).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:   NewEMA(fast),
		slow:   NewEMA(slow),
		signal: NewEMA(signal),
	}
}

func (m *MACD) Update(bar model.Bar) {
	m.fast.Update(bar)
	m.slow.Update(bar)
	macd := m.fast.current - m.slow.current
	m.signal.update(macd)
}

// Value returns the MACD line.
func (m *MACD) Value() model.OptFloat {
	if !m.fast.seeded {
		return model.OptFloat{}
	}
	return model.Some(m.fast.current - m.slow.current)
}

// Signal returns the signal line.
func (m *MACD) Signal() model.OptFloat {
	return m.signal.Value()
}

// Hist returns MACD − signal.
func (m *MACD) Hist() model.OptFloat {
	if !m.fast.seeded {
		return model.OptFloat{}
	}
	return model.Some(m.fast.current - m.slow.current - m.signal.current)
}
