package pacing

import (
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestPacerSleepsRemainder(t *testing.T) {
	clock := NewManualClock(epoch)
	p := NewPacer(5*time.Millisecond, clock)

	clock.Advance(2 * time.Millisecond)
	dt := p.Wait()

	if dt != 5*time.Millisecond {
		t.Errorf("expected dt 5ms, got %v", dt)
	}
	slept := clock.Slept()
	if len(slept) != 1 || slept[0] != 3*time.Millisecond {
		t.Errorf("expected a single 3ms sleep, got %v", slept)
	}
}

func TestPacerSlowTickUsesMeasuredGap(t *testing.T) {
	clock := NewManualClock(epoch)
	p := NewPacer(5*time.Millisecond, clock)

	clock.Advance(12 * time.Millisecond)
	dt := p.Wait()

	if dt != 12*time.Millisecond {
		t.Errorf("expected dt 12ms, got %v", dt)
	}
	if len(clock.Slept()) != 0 {
		t.Errorf("expected no sleep, got %v", clock.Slept())
	}
}

func TestPacerExactIntervalDoesNotSleep(t *testing.T) {
	clock := NewManualClock(epoch)
	p := NewPacer(5*time.Millisecond, clock)

	clock.Advance(5 * time.Millisecond)
	if dt := p.Wait(); dt != 5*time.Millisecond {
		t.Errorf("expected dt 5ms, got %v", dt)
	}
	if len(clock.Slept()) != 0 {
		t.Error("expected no sleep when gap equals interval")
	}
}

func TestPacerMarkAndReset(t *testing.T) {
	clock := NewManualClock(epoch)
	p := NewPacer(10*time.Millisecond, clock)

	clock.Advance(50 * time.Millisecond)
	p.Mark()
	clock.Advance(4 * time.Millisecond)
	if dt := p.Wait(); dt != 10*time.Millisecond {
		t.Errorf("expected dt 10ms after mark, got %v", dt)
	}

	clock.Advance(time.Second)
	p.Reset()
	if dt := p.Wait(); dt != 10*time.Millisecond {
		t.Errorf("expected dt 10ms after reset, got %v", dt)
	}
}

func TestRealizedDtNeverBelowInterval(t *testing.T) {
	gaps := []time.Duration{0, time.Millisecond, 4999 * time.Microsecond, 5 * time.Millisecond, 7 * time.Millisecond}
	for _, gap := range gaps {
		clock := NewManualClock(epoch)
		p := NewPacer(5*time.Millisecond, clock)
		clock.Advance(gap)
		if dt := p.Wait(); dt < p.Interval {
			t.Errorf("gap %v: dt %v below interval", gap, dt)
		}
	}
}
