package pacing

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Pacer keeps a loop at a fixed tick interval. Wait blocks for whatever is
// left of the interval since the last checkpoint and reports the realized
// tick duration, which is never shorter than the interval.
type Pacer struct {
	Interval   time.Duration
	clock      Clock
	checkpoint time.Time
}

func NewPacer(interval time.Duration, clock Clock) *Pacer {
	if clock == nil {
		clock = SystemClock
	}
	return &Pacer{
		Interval:   interval,
		clock:      clock,
		checkpoint: clock.Now(),
	}
}

// Reset anchors the checkpoint to now.
func (p *Pacer) Reset() {
	p.checkpoint = p.clock.Now()
}

// Mark moves the checkpoint to now; called at the end of a tick.
func (p *Pacer) Mark() {
	p.checkpoint = p.clock.Now()
}

func (p *Pacer) Wait() time.Duration {
	gap := p.clock.Now().Sub(p.checkpoint)
	if gap >= p.Interval {
		return gap
	}
	if gap < 0 {
		gap = 0
	}
	p.clock.Sleep(p.Interval - gap)
	return p.Interval
}

// ManualClock is a Clock whose time only moves on Advance or Sleep.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	slept  []time.Duration
	onTick func(d time.Duration)
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	fn := c.onTick
	c.mu.Unlock()
	if fn != nil {
		fn(d)
	}
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Slept returns every duration passed to Sleep so far.
func (c *ManualClock) Slept() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.slept))
	copy(out, c.slept)
	return out
}

// OnSleep registers a hook run after each Sleep, outside the lock.
func (c *ManualClock) OnSleep(fn func(d time.Duration)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTick = fn
}
