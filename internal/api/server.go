package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/san-kum/hoverlab/internal/dynamo"
	"github.com/san-kum/hoverlab/internal/termination"
	"go.uber.org/zap"
)

// Env is the environment exposed to remote agents.
type Env interface {
	Reset(ctx context.Context) (dynamo.Observation, error)
	Step(ctx context.Context, action dynamo.Action, prev dynamo.Observation) (dynamo.Observation, float64, bool, error)
	Reason() termination.Reason
	Penalty() float64
}

// Spec describes the environment to a remote agent.
type Spec struct {
	Actions      int     `json:"actions"`
	Observations int     `json:"observations"`
	TimeStep     float64 `json:"time_step"`
	MaxRuntime   float64 `json:"max_runtime"`
	Penalty      float64 `json:"penalty"`
}

type stepRequest struct {
	Action      *int               `json:"action" binding:"required"`
	Observation dynamo.Observation `json:"observation"`
}

type stepReply struct {
	Observation dynamo.Observation `json:"observation"`
	Reward      float64            `json:"reward"`
	Done        bool               `json:"done"`
	Reason      string             `json:"reason,omitempty"`
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// Server serves one environment over HTTP. Calls are serialized; the
// environment only ever sees one request at a time.
type Server struct {
	env    Env
	spec   Spec
	logger *zap.Logger
	router *gin.Engine

	lock *sync.Mutex
	last dynamo.Observation
}

func New(env Env, spec Spec, opts ...Option) *Server {
	s := &Server{
		env:    env,
		spec:   spec,
		logger: zap.NewNop(),
		lock:   new(sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	r.GET("/spec", s.handleSpec)
	r.POST("/reset", s.handleReset)
	r.POST("/step", s.handleStep)
	s.router = r

	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleSpec(c *gin.Context) {
	spec := s.spec
	spec.Penalty = s.env.Penalty()
	c.JSON(http.StatusOK, spec)
}

func (s *Server) handleReset(c *gin.Context) {
	s.lock.Lock()
	defer s.lock.Unlock()

	obs, err := s.env.Reset(c.Request.Context())
	if err != nil {
		s.fail(c, "reset", err)
		return
	}
	s.last = obs
	c.JSON(http.StatusOK, gin.H{"observation": obs})
}

// handleStep advances the environment. A request without an observation
// continues from the last one this server returned.
func (s *Server) handleStep(c *gin.Context) {
	req := stepRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	prev := req.Observation
	if prev == nil {
		prev = s.last
	}
	obs, reward, done, err := s.env.Step(c.Request.Context(), dynamo.Action(*req.Action), prev)
	if err != nil {
		s.fail(c, "step", err)
		return
	}
	s.last = obs

	reply := stepReply{Observation: obs, Reward: reward, Done: done}
	if done {
		reply.Reason = s.env.Reason().String()
	}
	c.JSON(http.StatusOK, reply)
}

func (s *Server) fail(c *gin.Context, op string, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", zap.Error(err), zap.Int("status", code))
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dynamo.ErrObservationLength):
		return http.StatusBadRequest
	case errors.Is(err, dynamo.ErrNotActive):
		return http.StatusConflict
	case errors.Is(err, dynamo.ErrSimulator), errors.Is(err, dynamo.ErrNoVessel):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Run serves on addr until ctx is done, then shuts down.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	s.logger.Info("serving environment", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
