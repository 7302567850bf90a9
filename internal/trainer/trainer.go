package trainer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/san-kum/hoverlab/internal/agent"
	"github.com/san-kum/hoverlab/internal/dynamo"
	"github.com/san-kum/hoverlab/internal/metrics"
	"github.com/san-kum/hoverlab/internal/termination"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// DefaultWindow is the number of recent scores in the moving average.
const DefaultWindow = 100

// Env is the episode environment driven by the trainer.
type Env interface {
	Reset(ctx context.Context) (dynamo.Observation, error)
	Step(ctx context.Context, action dynamo.Action, prev dynamo.Observation) (dynamo.Observation, float64, bool, error)
	Reason() termination.Reason
	Penalty() float64
	LastDt() time.Duration
}

// Observer is notified of every transition and every finished episode.
type Observer interface {
	OnStep(t dynamo.Transition)
	OnEpisode(e Episode)
}

type Config struct {
	Episodes   int
	LearnEvery int
	Window     int
	// SaveDir receives agent snapshots when the moving average improves;
	// empty disables saving.
	SaveDir string
	// Record keeps every transition in the result.
	Record bool
}

type Episode struct {
	Index    int
	Score    float64
	Average  float64
	Ticks    int
	Reason   termination.Reason
	Duration time.Duration
	Metrics  map[string]float64
}

type Result struct {
	Episodes    []Episode
	Transitions []dynamo.Transition
	Best        float64
	Steps       int
	LearnSteps  int
}

// Scores returns the score of every finished episode.
func (r *Result) Scores() []float64 {
	out := make([]float64, len(r.Episodes))
	for i, e := range r.Episodes {
		out[i] = e.Score
	}
	return out
}

type Option func(*Trainer)

func WithLogger(l *zap.Logger) Option {
	return func(t *Trainer) { t.logger = l }
}

// WithProgress writes one progress line per episode to w.
func WithProgress(w io.Writer) Option {
	return func(t *Trainer) { t.progress = w }
}

func WithMetrics(ms ...metrics.Metric) Option {
	return func(t *Trainer) { t.metrics = append(t.metrics, ms...) }
}

type Trainer struct {
	env       Env
	agent     agent.Agent
	cfg       Config
	metrics   []metrics.Metric
	observers []Observer
	logger    *zap.Logger
	progress  io.Writer
}

func New(env Env, ag agent.Agent, cfg Config, opts ...Option) *Trainer {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	t := &Trainer{
		env:      env,
		agent:    ag,
		cfg:      cfg,
		logger:   zap.NewNop(),
		progress: io.Discard,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Trainer) AddObserver(o Observer) { t.observers = append(t.observers, o) }

// Run plays cfg.Episodes episodes. The best moving average starts at the
// terminal penalty, so the first finished episode always counts as an
// improvement unless it scored the penalty or worse. On error the partial
// result is returned alongside it.
func (t *Trainer) Run(ctx context.Context) (*Result, error) {
	if t.cfg.Episodes <= 0 {
		return nil, fmt.Errorf("episodes must be positive, got %d", t.cfg.Episodes)
	}

	result := &Result{
		Episodes: make([]Episode, 0, t.cfg.Episodes),
		Best:     t.env.Penalty(),
	}

	for i := 0; i < t.cfg.Episodes; i++ {
		ep, err := t.episode(ctx, i, result)
		if err != nil {
			return result, fmt.Errorf("episode %d: %w", i, err)
		}

		scores := append(result.Scores(), ep.Score)
		ep.Average = stat.Mean(scores[max(0, len(scores)-t.cfg.Window):], nil)
		result.Episodes = append(result.Episodes, ep)

		if ep.Average > result.Best {
			result.Best = ep.Average
			if t.cfg.SaveDir != "" {
				if err := t.agent.Save(t.cfg.SaveDir); err != nil {
					t.logger.Warn("saving agent", zap.Error(err))
				}
			}
		}

		for _, obs := range t.observers {
			obs.OnEpisode(ep)
		}
		fmt.Fprintf(t.progress, "episode %d score %.1f avg score %.1f time_steps %d learning_steps %d\n",
			i, ep.Score, ep.Average, result.Steps, result.LearnSteps)
		t.logger.Debug("episode finished",
			zap.Int("episode", i),
			zap.Float64("score", ep.Score),
			zap.Float64("average", ep.Average),
			zap.String("reason", ep.Reason.String()),
		)
	}

	return result, nil
}

func (t *Trainer) episode(ctx context.Context, index int, result *Result) (Episode, error) {
	for _, m := range t.metrics {
		m.Reset()
	}

	started := time.Now()
	obs, err := t.env.Reset(ctx)
	if err != nil {
		return Episode{}, err
	}

	ep := Episode{Index: index}
	for done := false; !done; {
		select {
		case <-ctx.Done():
			return ep, ctx.Err()
		default:
		}

		action := t.agent.Act(obs)
		next, reward, terminal, err := t.env.Step(ctx, action, obs)
		if err != nil {
			return ep, err
		}

		tr := dynamo.Transition{
			Episode:     index,
			Tick:        ep.Ticks,
			Dt:          t.env.LastDt().Seconds(),
			Observation: obs,
			Action:      action,
			Reward:      reward,
			Next:        next,
			Done:        terminal,
		}
		t.agent.Remember(tr)
		for _, m := range t.metrics {
			m.Observe(tr)
		}
		for _, o := range t.observers {
			o.OnStep(tr)
		}
		if t.cfg.Record {
			result.Transitions = append(result.Transitions, tr)
		}

		result.Steps++
		if t.cfg.LearnEvery > 0 && result.Steps%t.cfg.LearnEvery == 0 {
			if err := t.agent.Learn(); err != nil {
				return ep, fmt.Errorf("learn: %w", err)
			}
			result.LearnSteps++
		}

		ep.Score += reward
		ep.Ticks++
		obs = next
		done = terminal
	}

	ep.Reason = t.env.Reason()
	ep.Duration = time.Since(started)
	ep.Metrics = metrics.Collect(t.metrics)
	return ep, nil
}
