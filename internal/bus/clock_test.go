package bus

import "testing"

func TestTicksToMicros(t *testing.T) {
	if got := TicksToMicros(1_000_000, 1_000_000); got != 1_000_000 {
		t.Errorf("TicksToMicros(1e6, 1e6) = %d, want 1e6", got)
	}
	if got := TicksToMicros(500_000, 1_000_000); got != 500_000 {
		t.Errorf("TicksToMicros(5e5, 1e6) = %d, want 5e5", got)
	}
}

func TestTicksToMicrosZeroRateUsesDefault(t *testing.T) {
	withDefault := TicksToMicros(DefaultTicksPerSecond, DefaultTicksPerSecond)
	withZero := TicksToMicros(DefaultTicksPerSecond, 0)
	if withDefault != withZero {
		t.Errorf("TicksToMicros with rate=0 should behave like DefaultTicksPerSecond: got %d want %d", withZero, withDefault)
	}
}

func TestDiffMicrosOrdinaryCase(t *testing.T) {
	got := DiffMicros(1_000_000, 2_000_000, 1_000_000)
	if got != 1_000_000 {
		t.Errorf("DiffMicros = %d, want 1e6", got)
	}
}

func TestDiffMicrosClampsNegative(t *testing.T) {
	got := DiffMicros(2_000_000, 1_000_000, 1_000_000)
	if got != 0 {
		t.Errorf("DiffMicros(later<earlier) = %d, want 0", got)
	}
}

func TestClockNowIsMonotonicNonDecreasing(t *testing.T) {
	c := newClock(DefaultTicksPerSecond)
	prev := c.Now()
	for i := 0; i < 1000; i++ {
		cur := c.Now()
		if cur < prev {
			t.Fatalf("clock went backwards: %d then %d", prev, cur)
		}
		prev = cur
	}
}

func TestNewClockZeroRateUsesDefault(t *testing.T) {
	c := newClock(0)
	if c.TicksPerSecond() != DefaultTicksPerSecond {
		t.Errorf("TicksPerSecond() = %d, want %d", c.TicksPerSecond(), DefaultTicksPerSecond)
	}
}
