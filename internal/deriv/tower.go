package deriv

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/hoverlab/internal/dynamo"
	"github.com/san-kum/hoverlab/internal/pacing"
	"gonum.org/v1/gonum/stat"
)

// Estimator reconstructs derivative towers of a telemetry quantity from raw
// samples; the simulator exposes no derivative telemetry.
type Estimator struct {
	reader   dynamo.Reader
	interval time.Duration
	clock    pacing.Clock
}

func NewEstimator(reader dynamo.Reader, interval time.Duration, clock pacing.Clock) *Estimator {
	if clock == nil {
		clock = pacing.SystemClock
	}
	return &Estimator{
		reader:   reader,
		interval: interval,
		clock:    clock,
	}
}

// Initialize primes a tower of the given order by sampling name order+1
// times at the nominal interval. Each differencing level is averaged into
// one estimate, so the result has order+1 elements.
func (e *Estimator) Initialize(ctx context.Context, name string, order int) (dynamo.Tower, error) {
	if order < 0 {
		return nil, fmt.Errorf("initialize %s with order %d: %w", name, order, dynamo.ErrInvalidOrder)
	}
	if e.interval <= 0 {
		return nil, dynamo.ErrNonPositiveDt
	}

	samples := make([]float64, 0, order+1)
	for i := 0; i <= order; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := e.reader.Flight(name)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", name, err)
		}
		samples = append(samples, v)
		e.clock.Sleep(e.interval)
	}

	return Average(Difference(samples, e.interval.Seconds())), nil
}

// Advance reads the current value of name and advances prev by one tick.
func (e *Estimator) Advance(name string, prev dynamo.Tower, dt float64) (dynamo.Tower, error) {
	if dt <= 0 {
		return nil, dynamo.ErrNonPositiveDt
	}
	v, err := e.reader.Flight(name)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", name, err)
	}
	return Advance(v, prev, dt), nil
}

// Difference builds the [pass][sample] buffer of repeated finite
// differences. Row 0 is samples; row p+1 is one element shorter than row p.
// The buffer stops at the first single-element row.
func Difference(samples []float64, dt float64) [][]float64 {
	if len(samples) == 0 {
		return nil
	}
	rows := make([][]float64, len(samples))
	rows[0] = append([]float64(nil), samples...)
	for p := 1; p < len(samples); p++ {
		prev := rows[p-1]
		row := make([]float64, len(prev)-1)
		for j := range row {
			row[j] = (prev[j+1] - prev[j]) / dt
		}
		rows[p] = row
	}
	return rows
}

// Average collapses each row of a difference buffer to its mean.
func Average(rows [][]float64) dynamo.Tower {
	tower := make(dynamo.Tower, len(rows))
	for i, row := range rows {
		tower[i] = stat.Mean(row, nil)
	}
	return tower
}

// Advance is the per-tick backward-difference recurrence: order 0 becomes
// the new sample and order i the change of order i-1 over dt. The order
// that would extend past prev is dropped, so the length is preserved.
func Advance(sample float64, prev dynamo.Tower, dt float64) dynamo.Tower {
	next := make(dynamo.Tower, len(prev))
	if len(prev) == 0 {
		return next
	}
	next[0] = sample
	for i := 1; i < len(prev); i++ {
		next[i] = (next[i-1] - prev[i-1]) / dt
	}
	return next
}
