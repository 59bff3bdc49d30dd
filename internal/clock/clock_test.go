package clock

import (
	"testing"
	"time"
)

func TestRealClock(t *testing.T) {
	c := &RealClock{}
	before := time.Now()
	now := c.Now()
	if now.Before(before) {
		t.Errorf("RealClock.Now() = %v, before %v", now, before)
	}
	if c.Since(before) < 0 {
		t.Error("RealClock.Since() returned negative duration")
	}
}

func TestMockClock(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	if !c.Now().Equal(start) {
		t.Errorf("Now() = %v, want %v", c.Now(), start)
	}

	c.Advance(5 * time.Minute)
	if got := c.Since(start); got != 5*time.Minute {
		t.Errorf("Since() after Advance = %v, want 5m", got)
	}

	later := start.Add(time.Hour)
	c.Set(later)
	if !c.Now().Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", c.Now(), later)
	}
}

func TestSteppingClock(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewSteppingClock(start, 10*time.Millisecond)

	first := c.Now()
	second := c.Now()
	if got := second.Sub(first); got != 10*time.Millisecond {
		t.Errorf("step = %v, want 10ms", got)
	}
	// Since reads the clock once more, so it sees one extra step.
	if got := c.Since(first); got != 20*time.Millisecond {
		t.Errorf("Since() = %v, want 20ms", got)
	}
}
