package deriv

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/san-kum/hoverlab/internal/dynamo"
	"github.com/san-kum/hoverlab/internal/pacing"
)

// scriptedReader returns f(t) where t advances with the manual clock.
type scriptedReader struct {
	clock *pacing.ManualClock
	start time.Time
	f     func(t float64) float64
	reads int
	err   error
}

func (r *scriptedReader) Flight(name string) (float64, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.reads++
	t := r.clock.Now().Sub(r.start).Seconds()
	return r.f(t), nil
}

func newScripted(f func(float64) float64) (*scriptedReader, *pacing.ManualClock) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := pacing.NewManualClock(start)
	return &scriptedReader{clock: clock, start: start, f: f}, clock
}

func TestInitializeLength(t *testing.T) {
	for order := 0; order <= 6; order++ {
		r, clock := newScripted(func(t float64) float64 { return 3 * t })
		e := NewEstimator(r, 10*time.Millisecond, clock)

		tower, err := e.Initialize(context.Background(), "mean_altitude", order)
		if err != nil {
			t.Fatalf("order %d: initialize failed: %v", order, err)
		}
		if len(tower) != order+1 {
			t.Errorf("order %d: expected %d estimates, got %d", order, order+1, len(tower))
		}
		if r.reads != order+1 {
			t.Errorf("order %d: expected %d samples, got %d", order, order+1, r.reads)
		}
		if len(clock.Slept()) != order+1 {
			t.Errorf("order %d: expected %d sleeps, got %d", order, order+1, len(clock.Slept()))
		}
	}
}

func TestInitializeQuadratic(t *testing.T) {
	r, clock := newScripted(func(t float64) float64 { return t * t })
	e := NewEstimator(r, 100*time.Millisecond, clock)

	tower, err := e.Initialize(context.Background(), "mean_altitude", 2)
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	// samples 0, 0.01, 0.04; first differences 0.1, 0.3; second 2.0
	expected := []float64{0.05 / 3, 0.2, 2.0}
	for i := range expected {
		if math.Abs(tower[i]-expected[i]) > 1e-9 {
			t.Errorf("order %d: expected %.6f, got %.6f", i, expected[i], tower[i])
		}
	}
}

func TestInitializeOrderZero(t *testing.T) {
	r, clock := newScripted(func(t float64) float64 { return 42 })
	e := NewEstimator(r, time.Millisecond, clock)

	tower, err := e.Initialize(context.Background(), "mean_altitude", 0)
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if len(tower) != 1 || tower[0] != 42 {
		t.Errorf("expected [42], got %v", tower)
	}
}

func TestInitializeErrors(t *testing.T) {
	r, clock := newScripted(func(t float64) float64 { return 0 })
	e := NewEstimator(r, time.Millisecond, clock)

	if _, err := e.Initialize(context.Background(), "q", -1); !errors.Is(err, dynamo.ErrInvalidOrder) {
		t.Errorf("expected ErrInvalidOrder, got %v", err)
	}

	r.err = dynamo.ErrSimulator
	if _, err := e.Initialize(context.Background(), "q", 2); !errors.Is(err, dynamo.ErrSimulator) {
		t.Errorf("expected ErrSimulator, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.err = nil
	if _, err := e.Initialize(ctx, "q", 2); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDifferenceShape(t *testing.T) {
	rows := Difference([]float64{1, 2, 4, 8, 16}, 1)
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	for p, row := range rows {
		if len(row) != 5-p {
			t.Errorf("row %d: expected %d elements, got %d", p, 5-p, len(row))
		}
	}
	if rows[1][0] != 1 || rows[1][3] != 8 {
		t.Errorf("unexpected first differences %v", rows[1])
	}
	if rows[4][0] != 1 {
		t.Errorf("expected fourth difference 1, got %f", rows[4][0])
	}

	if Difference(nil, 1) != nil {
		t.Error("expected nil buffer for no samples")
	}
}

func TestAdvancePreservesLength(t *testing.T) {
	prev := dynamo.Tower{100, 2, 0.5}
	for tick := 0; tick < 10; tick++ {
		next := Advance(100+float64(tick), prev, 0.005)
		if len(next) != len(prev) {
			t.Fatalf("tick %d: expected length %d, got %d", tick, len(prev), len(next))
		}
		prev = next
	}
}

func TestAdvanceRecurrence(t *testing.T) {
	prev := dynamo.Tower{10, 1, 0.2}
	next := Advance(10.5, prev, 0.5)

	expected := dynamo.Tower{10.5, 1.0, 0.0}
	for i := range expected {
		if math.Abs(next[i]-expected[i]) > 1e-12 {
			t.Errorf("order %d: expected %f, got %f", i, expected[i], next[i])
		}
	}
}

func TestAdvanceEmpty(t *testing.T) {
	if next := Advance(1, dynamo.Tower{}, 0.1); len(next) != 0 {
		t.Errorf("expected empty tower, got %v", next)
	}
}

func TestEstimatorAdvance(t *testing.T) {
	r, clock := newScripted(func(t float64) float64 { return 7 })
	e := NewEstimator(r, time.Millisecond, clock)

	next, err := e.Advance("q", dynamo.Tower{5, 0}, 0.5)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if next[0] != 7 || next[1] != 4 {
		t.Errorf("expected [7 4], got %v", next)
	}

	if _, err := e.Advance("q", dynamo.Tower{5, 0}, 0); !errors.Is(err, dynamo.ErrNonPositiveDt) {
		t.Errorf("expected ErrNonPositiveDt, got %v", err)
	}
}
