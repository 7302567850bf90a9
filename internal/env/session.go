package env

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/hoverlab/internal/config"
	"github.com/san-kum/hoverlab/internal/control"
	"github.com/san-kum/hoverlab/internal/deriv"
	"github.com/san-kum/hoverlab/internal/dynamo"
	"github.com/san-kum/hoverlab/internal/pacing"
	"github.com/san-kum/hoverlab/internal/reward"
	"github.com/san-kum/hoverlab/internal/termination"
	"go.uber.org/zap"
)

type State int

const (
	Idle State = iota
	Active
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

func WithClock(c pacing.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// Session is one live episode environment. It owns the simulator
// connection and vessel handle exclusively and rebuilds both on every
// Reset. It is NOT safe for concurrent use.
type Session struct {
	cfg    config.Config
	dialer dynamo.Dialer
	clock  pacing.Clock
	logger *zap.Logger

	conn      dynamo.Conn
	vessel    dynamo.Vessel
	estimator *deriv.Estimator
	pacer     *pacing.Pacer
	governor  *control.Threshold
	shaper    *reward.Shaper
	judge     *termination.Evaluator
	penalty   float64

	state  State
	speed  float64
	start  time.Time
	tick   int
	dt     time.Duration
	reason termination.Reason
}

// New validates cfg and opens the first simulator connection.
func New(ctx context.Context, dialer dynamo.Dialer, cfg *config.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		cfg:    *cfg,
		dialer: dialer,
		clock:  pacing.SystemClock,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.penalty = reward.TerminalPenalty(cfg.MaxRuntime, cfg.TimeStep, cfg.TargetQuantity, cfg.TargetOffset)
	s.pacer = pacing.NewPacer(cfg.Interval(), s.clock)
	s.dt = cfg.Interval()
	s.governor = control.NewThreshold(cfg.SpeedQuantity, cfg.SpeedControl, cfg.CruiseSpeed, cfg.CruiseAcceleration, cfg.ControlStep)
	s.shaper = reward.NewShaper(cfg.TargetQuantity, cfg.TargetOffset)
	s.judge = termination.NewEvaluator(cfg.MaxRuntime, cfg.OutOfBoundsMultiplier, cfg.TargetQuantity, s.penalty)

	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) connect(ctx context.Context) error {
	conn, err := s.dialer.Dial(ctx)
	if err != nil {
		return simulatorError("dial", err)
	}
	vessel, err := conn.ActiveVessel(ctx)
	if err != nil {
		_ = conn.Close()
		return simulatorError("active vessel", err)
	}
	s.conn = conn
	s.vessel = vessel
	s.estimator = deriv.NewEstimator(vessel, s.cfg.Interval(), s.clock)
	return nil
}

// Reset reverts the vessel to launch, rebuilds the simulator handles,
// stages the vessel and primes the derivative tower from live samples.
func (s *Session) Reset(ctx context.Context) (dynamo.Observation, error) {
	obs, err := s.reset(ctx)
	if err != nil {
		s.state = Terminated
		return nil, err
	}
	s.state = Active
	return obs, nil
}

func (s *Session) reset(ctx context.Context) (dynamo.Observation, error) {
	if s.conn != nil {
		if err := s.conn.RevertToLaunch(ctx); err != nil {
			return nil, simulatorError("revert to launch", err)
		}
		if err := s.conn.Close(); err != nil {
			s.logger.Warn("closing stale simulator connection", zap.Error(err))
		}
		s.conn, s.vessel = nil, nil
	}
	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.clock.Sleep(s.cfg.Settle())
	if err := s.vessel.ActivateNextStage(); err != nil {
		return nil, simulatorError("activate next stage", err)
	}

	s.speed = 0
	s.tick = 0
	s.reason = termination.None
	s.dt = s.cfg.Interval()
	s.start = s.clock.Now()

	tower, err := s.estimator.Initialize(ctx, s.cfg.Quantity, s.cfg.TowerOrder())
	if err != nil {
		return nil, simulatorError("initialize tower", err)
	}
	s.pacer.Reset()

	s.logger.Debug("episode reset",
		zap.Int("observations", s.cfg.Observations),
		zap.Float64s("tower", tower),
	)
	return dynamo.NewObservation(s.speed, tower), nil
}

// Step runs one paced tick: speed governance, the agent's pitch action,
// tower advance, reward shaping and termination. Terminal ticks carry the
// shaped reward plus any terminal penalty.
func (s *Session) Step(ctx context.Context, action dynamo.Action, prev dynamo.Observation) (dynamo.Observation, float64, bool, error) {
	if s.state != Active {
		return nil, 0, false, fmt.Errorf("step in %s session: %w", s.state, dynamo.ErrNotActive)
	}
	if len(prev) != s.cfg.Observations {
		return nil, 0, false, fmt.Errorf("got %d values, want %d: %w", len(prev), s.cfg.Observations, dynamo.ErrObservationLength)
	}

	obs, r, done, err := s.step(action, prev)
	if err != nil {
		s.state = Terminated
		return nil, 0, false, err
	}
	if done {
		s.state = Terminated
	}
	s.pacer.Mark()
	s.tick++
	return obs, r, done, nil
}

func (s *Session) step(action dynamo.Action, prev dynamo.Observation) (dynamo.Observation, float64, bool, error) {
	s.dt = s.pacer.Wait()
	dt := s.dt.Seconds()

	speed, err := s.governor.Regulate(s.vessel, s.speed, dt)
	if err != nil {
		return nil, 0, false, s.stepError("regulate speed", err)
	}
	s.speed = speed

	if err := control.ApplyAction(s.vessel, s.cfg.Control, action, s.cfg.ControlStep); err != nil {
		return nil, 0, false, s.stepError("apply action", err)
	}

	tower, err := s.estimator.Advance(s.cfg.Quantity, prev.Tower(), dt)
	if err != nil {
		return nil, 0, false, s.stepError("advance tower", err)
	}

	slot := s.speed
	if s.cfg.ZeroSpeedSlot {
		slot = 0
	}
	obs := dynamo.NewObservation(slot, tower)

	q, err := s.vessel.Flight(s.cfg.Quantity)
	if err != nil {
		return nil, 0, false, s.stepError("read reward quantity", err)
	}
	r := s.shaper.Shape(q)

	in, err := s.status(tower)
	if err != nil {
		return nil, 0, false, s.stepError("read vessel status", err)
	}
	verdict := s.judge.Check(in)
	r += verdict.Penalty

	if verdict.Done {
		s.reason = verdict.Reason
		s.logger.Info("environment terminated",
			zap.String("reason", verdict.Reason.String()),
			zap.Int("tick", s.tick),
			zap.Float64("elapsed", in.Elapsed),
			zap.Float64("reward", r),
		)
	}
	return obs, r, verdict.Done, nil
}

func (s *Session) status(tower dynamo.Tower) (termination.Input, error) {
	crew, err := s.vessel.CrewCount()
	if err != nil {
		return termination.Input{}, err
	}
	situation, err := s.vessel.Situation()
	if err != nil {
		return termination.Input{}, err
	}
	return termination.Input{
		CrewCount: crew,
		Situation: situation,
		Latest:    tower[0],
		Elapsed:   s.clock.Now().Sub(s.start).Seconds(),
	}, nil
}

func (s *Session) stepError(op string, err error) error {
	return &dynamo.StepError{Tick: s.tick, Op: op, Wrapped: simulatorError(op, err)}
}

// simulatorError tags err with dynamo.ErrSimulator unless it already
// carries a domain error.
func simulatorError(op string, err error) error {
	if errors.Is(err, dynamo.ErrSimulator) || errors.Is(err, dynamo.ErrNoVessel) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, dynamo.ErrSimulator, err)
}

func (s *Session) State() State                 { return s.state }
func (s *Session) Reason() termination.Reason   { return s.reason }
func (s *Session) Penalty() float64             { return s.penalty }
func (s *Session) Tick() int                    { return s.tick }
func (s *Session) Config() config.Config        { return s.cfg }
func (s *Session) LastDt() time.Duration        { return s.dt }
func (s *Session) Elapsed() time.Duration       { return s.clock.Now().Sub(s.start) }
func (s *Session) Governor() *control.Threshold { return s.governor }

// Close releases the simulator connection.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn, s.vessel = nil, nil
	s.state = Terminated
	return err
}
