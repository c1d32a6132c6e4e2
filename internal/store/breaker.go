// Package store provides shared storage plumbing. Durability is secondary
// to live-serving freshness here: when the snapshot store starts failing,
// the breaker stops the orchestrator from stalling every pass on a dead
// backend and probes it back to health instead.
package store

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker is rejecting calls.
var ErrOpen = errors.New("store breaker open")

// Breaker trips after a run of consecutive persist failures and rejects
// further calls for a cool-down. The first call after the cool-down runs as
// a probe: success closes the breaker, failure reopens it.
type Breaker struct {
	mu       sync.Mutex
	open     bool
	probing  bool
	failures int
	trips    int

	threshold int
	cooldown  time.Duration
	lastFail  time.Time
}

// NewBreaker creates a breaker that opens after threshold consecutive
// failures and cools down for the given duration before probing.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{threshold: threshold, cooldown: cooldown}
}

// Do runs fn unless the breaker is open and still cooling down, in which
// case it returns ErrOpen without calling fn.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	if b.open {
		if time.Since(b.lastFail) < b.cooldown {
			b.mu.Unlock()
			return ErrOpen
		}
		b.probing = true
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		b.lastFail = time.Now()
		if b.probing || b.failures >= b.threshold {
			if !b.open {
				b.trips++
			}
			b.open = true
		}
		b.probing = false
		return err
	}

	if b.open {
		b.open = false
	}
	b.probing = false
	b.failures = 0
	return nil
}

// Open reports whether the breaker is currently rejecting calls.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open && time.Since(b.lastFail) < b.cooldown
}

// Trips returns the number of times the breaker has opened.
func (b *Breaker) Trips() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.trips
}
