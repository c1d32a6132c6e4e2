package store

import (
	"errors"
	"testing"
	"time"
)

var errBackend = errors.New("backend down")

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker(3, time.Hour)

	fail := func() error { return errBackend }
	for i := 0; i < 3; i++ {
		if err := b.Do(fail); !errors.Is(err, errBackend) {
			t.Fatalf("call %d: got %v, want backend error", i, err)
		}
	}

	if !b.Open() {
		t.Fatal("breaker should be open after threshold failures")
	}
	if err := b.Do(fail); !errors.Is(err, ErrOpen) {
		t.Fatalf("got %v, want ErrOpen while cooling down", err)
	}
	if b.Trips() != 1 {
		t.Errorf("trips = %d, want 1", b.Trips())
	}
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b := NewBreaker(3, time.Hour)

	b.Do(func() error { return errBackend })
	b.Do(func() error { return errBackend })
	b.Do(func() error { return nil })
	b.Do(func() error { return errBackend })
	b.Do(func() error { return errBackend })

	if b.Open() {
		t.Error("interleaved success must reset the failure run")
	}
}

func TestBreaker_ProbeClosesOnSuccess(t *testing.T) {
	b := NewBreaker(1, 10*time.Millisecond)

	b.Do(func() error { return errBackend })
	if !b.Open() {
		t.Fatal("breaker should be open")
	}

	time.Sleep(20 * time.Millisecond)

	called := false
	if err := b.Do(func() error { called = true; return nil }); err != nil {
		t.Fatalf("probe returned %v", err)
	}
	if !called {
		t.Fatal("probe should have run the function")
	}
	if b.Open() {
		t.Error("successful probe should close the breaker")
	}
}

func TestBreaker_ProbeReopensOnFailure(t *testing.T) {
	b := NewBreaker(1, 10*time.Millisecond)

	b.Do(func() error { return errBackend })
	time.Sleep(20 * time.Millisecond)

	if err := b.Do(func() error { return errBackend }); !errors.Is(err, errBackend) {
		t.Fatalf("probe returned %v", err)
	}
	if !b.Open() {
		t.Error("failed probe should reopen the breaker")
	}
	if err := b.Do(func() error { return nil }); !errors.Is(err, ErrOpen) {
		t.Errorf("got %v, want ErrOpen during the new cool-down", err)
	}
}
