// Package simtest provides an in-memory stand-in for the external simulator.
//
// Telemetry is scripted: each named quantity is a queue of values, one per
// read, whose last value repeats. Handles are invalidated when their
// connection reverts or closes, the way the real simulator behaves.
package simtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/hoverlab/internal/dynamo"
)

type Sim struct {
	mu        sync.Mutex
	sequences map[string][]float64
	controls  map[string]float64
	crew      int
	situation dynamo.Situation

	Dials   int
	Reverts int
	Closes  int
	Stages  int
	Reads   map[string]int

	DialErr   error
	FlightErr error
	NoVessel  bool
}

func New() *Sim {
	return &Sim{
		sequences: make(map[string][]float64),
		controls:  make(map[string]float64),
		Reads:     make(map[string]int),
		crew:      1,
		situation: dynamo.PreLaunch,
	}
}

// Sequence scripts successive reads of name.
func (s *Sim) Sequence(name string, values ...float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[name] = append([]float64(nil), values...)
}

func (s *Sim) SetCrew(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crew = n
}

func (s *Sim) SetSituation(sit dynamo.Situation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.situation = sit
}

func (s *Sim) ControlValue(name string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controls[name]
}

func (s *Sim) SetControlValue(name string, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls[name] = v
}

func (s *Sim) Dial(ctx context.Context) (dynamo.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DialErr != nil {
		return nil, s.DialErr
	}
	s.Dials++
	return &conn{sim: s}, nil
}

func (s *Sim) read(name string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FlightErr != nil {
		return 0, s.FlightErr
	}
	s.Reads[name]++
	seq := s.sequences[name]
	if len(seq) == 0 {
		return 0, nil
	}
	v := seq[0]
	if len(seq) > 1 {
		s.sequences[name] = seq[1:]
	}
	return v, nil
}

type conn struct {
	sim    *Sim
	mu     sync.Mutex
	closed bool
}

func (c *conn) alive() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("stale connection: %w", dynamo.ErrSimulator)
	}
	return nil
}

func (c *conn) ActiveVessel(ctx context.Context) (dynamo.Vessel, error) {
	if err := c.alive(); err != nil {
		return nil, err
	}
	c.sim.mu.Lock()
	defer c.sim.mu.Unlock()
	if c.sim.NoVessel {
		return nil, dynamo.ErrNoVessel
	}
	return &vessel{conn: c}, nil
}

// RevertToLaunch resets the vessel to the pad and invalidates this
// connection's handles.
func (c *conn) RevertToLaunch(ctx context.Context) error {
	if err := c.alive(); err != nil {
		return err
	}
	c.sim.mu.Lock()
	c.sim.Reverts++
	c.sim.situation = dynamo.PreLaunch
	c.sim.controls = make(map[string]float64)
	c.sim.mu.Unlock()

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *conn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.sim.mu.Lock()
	c.sim.Closes++
	c.sim.mu.Unlock()
	return nil
}

type vessel struct {
	conn *conn
}

func (v *vessel) Flight(name string) (float64, error) {
	if err := v.conn.alive(); err != nil {
		return 0, err
	}
	return v.conn.sim.read(name)
}

func (v *vessel) Control(name string) (float64, error) {
	if err := v.conn.alive(); err != nil {
		return 0, err
	}
	return v.conn.sim.ControlValue(name), nil
}

func (v *vessel) SetControl(name string, x float64) error {
	if err := v.conn.alive(); err != nil {
		return err
	}
	v.conn.sim.SetControlValue(name, x)
	return nil
}

func (v *vessel) CrewCount() (int, error) {
	if err := v.conn.alive(); err != nil {
		return 0, err
	}
	v.conn.sim.mu.Lock()
	defer v.conn.sim.mu.Unlock()
	return v.conn.sim.crew, nil
}

func (v *vessel) Situation() (dynamo.Situation, error) {
	if err := v.conn.alive(); err != nil {
		return "", err
	}
	v.conn.sim.mu.Lock()
	defer v.conn.sim.mu.Unlock()
	return v.conn.sim.situation, nil
}

func (v *vessel) ActivateNextStage() error {
	if err := v.conn.alive(); err != nil {
		return err
	}
	v.conn.sim.mu.Lock()
	defer v.conn.sim.mu.Unlock()
	v.conn.sim.Stages++
	if v.conn.sim.situation == dynamo.PreLaunch {
		v.conn.sim.situation = dynamo.Flying
	}
	return nil
}
