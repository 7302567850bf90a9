package dynamo

import (
	"context"
	"fmt"
	"math"
)

// Observation is the vector handed to the agent each tick. Element 0 is the
// regulated-speed slot, the rest is the derivative tower of the tracked
// quantity.
type Observation []float64

func (o Observation) Clone() Observation {
	c := make(Observation, len(o))
	copy(c, o)
	return c
}

// Tower returns the derivative tower part of the observation.
func (o Observation) Tower() Tower {
	if len(o) < 1 {
		return nil
	}
	return Tower(o[1:]).Clone()
}

func (o Observation) IsValid() bool {
	for _, v := range o {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// NewObservation joins the speed slot and a tower.
func NewObservation(speed float64, tower Tower) Observation {
	obs := make(Observation, 0, len(tower)+1)
	obs = append(obs, speed)
	return append(obs, tower...)
}

// Transition is one recorded tick: the observation the agent acted on, the
// action, and what the environment returned for it.
type Transition struct {
	Episode     int         `json:"episode"`
	Tick        int         `json:"tick"`
	Dt          float64     `json:"dt"`
	Observation Observation `json:"observation,omitempty"`
	Action      Action      `json:"action"`
	Reward      float64     `json:"reward"`
	Next        Observation `json:"next"`
	Done        bool        `json:"done"`
}

// Tower holds successive time-derivative estimates of one quantity;
// element i approximates the i-th derivative.
type Tower []float64

func (t Tower) Clone() Tower {
	c := make(Tower, len(t))
	copy(c, t)
	return c
}

// Order is the highest derivative order carried by the tower.
func (t Tower) Order() int { return len(t) - 1 }

type Action int

const (
	Increase Action = iota
	Hold
	Decrease
)

// ActionCount is the size of the discrete action space.
const ActionCount = 3

func (a Action) String() string {
	switch a {
	case Increase:
		return "increase"
	case Hold:
		return "hold"
	case Decrease:
		return "decrease"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Situation mirrors the vessel situation enum of the simulator.
type Situation string

const (
	PreLaunch  Situation = "pre_launch"
	Landed     Situation = "landed"
	Splashed   Situation = "splashed"
	Flying     Situation = "flying"
	SubOrbital Situation = "sub_orbital"
	Orbiting   Situation = "orbiting"
	Escaping   Situation = "escaping"
	Docked     Situation = "docked"
)

// Dialer opens a fresh connection to the external simulator.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// DialerFunc adapts a function to a Dialer.
type DialerFunc func(ctx context.Context) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context) (Conn, error) { return f(ctx) }

// Conn is a live simulator connection. Reverting to launch invalidates
// every handle obtained from it.
type Conn interface {
	ActiveVessel(ctx context.Context) (Vessel, error)
	RevertToLaunch(ctx context.Context) error
	Close() error
}

// Vessel reads telemetry and writes actuator setpoints by symbolic name.
// Flight values are expressed in the hybrid frame built from the body
// reference frame (position) and the vessel surface frame (rotation).
type Vessel interface {
	Flight(name string) (float64, error)
	Control(name string) (float64, error)
	SetControl(name string, v float64) error
	CrewCount() (int, error)
	Situation() (Situation, error)
	ActivateNextStage() error
}

// Reader is the read-only part of Vessel used by estimators.
type Reader interface {
	Flight(name string) (float64, error)
}

// Actuator is the read/write actuator part of Vessel.
type Actuator interface {
	Control(name string) (float64, error)
	SetControl(name string, v float64) error
}

// Nudge adds delta to the named actuator setpoint.
func Nudge(a Actuator, name string, delta float64) error {
	v, err := a.Control(name)
	if err != nil {
		return err
	}
	return a.SetControl(name, v+delta)
}
