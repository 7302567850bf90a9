package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"

	"github.com/san-kum/hoverlab/internal/config"
	"github.com/san-kum/hoverlab/internal/dynamo"
	"github.com/san-kum/hoverlab/internal/env"
	"github.com/san-kum/hoverlab/internal/pacing"
	"github.com/san-kum/hoverlab/internal/simtest"
)

func newTestServer(t *testing.T) (*Server, *simtest.Sim) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	sim := simtest.New()
	sim.Sequence("mean_altitude", 100)
	sim.Sequence("speed", 50)
	clock := pacing.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	sess, err := env.New(context.Background(), sim, cfg, env.WithClock(clock))
	if err != nil {
		t.Fatalf("new session failed: %v", err)
	}
	spec := Spec{
		Actions:      cfg.Actions,
		Observations: cfg.Observations,
		TimeStep:     cfg.TimeStep,
		MaxRuntime:   cfg.MaxRuntime,
	}
	return New(sess, spec), sim
}

func do(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthAndSpec(t *testing.T) {
	g := NewWithT(t)
	s, _ := newTestServer(t)

	g.Expect(do(s, http.MethodGet, "/health", nil).Code).To(Equal(http.StatusOK))

	w := do(s, http.MethodGet, "/spec", nil)
	g.Expect(w.Code).To(Equal(http.StatusOK))
	var spec Spec
	g.Expect(json.Unmarshal(w.Body.Bytes(), &spec)).To(Succeed())
	g.Expect(spec.Actions).To(Equal(3))
	g.Expect(spec.Observations).To(Equal(4))
	g.Expect(spec.Penalty).To(Equal(-1020000.0))
}

func TestResetAndStep(t *testing.T) {
	g := NewWithT(t)
	s, sim := newTestServer(t)

	w := do(s, http.MethodPost, "/reset", nil)
	g.Expect(w.Code).To(Equal(http.StatusOK))
	var reset struct {
		Observation dynamo.Observation `json:"observation"`
	}
	g.Expect(json.Unmarshal(w.Body.Bytes(), &reset)).To(Succeed())
	g.Expect(reset.Observation).To(Equal(dynamo.Observation{0, 100, 0, 0}))

	w = do(s, http.MethodPost, "/step", gin.H{"action": 0, "observation": reset.Observation})
	g.Expect(w.Code).To(Equal(http.StatusOK))
	var reply stepReply
	g.Expect(json.Unmarshal(w.Body.Bytes(), &reply)).To(Succeed())
	g.Expect(reply.Reward).To(Equal(16.0))
	g.Expect(reply.Done).To(BeFalse())
	g.Expect(reply.Reason).To(BeEmpty())
	g.Expect(reply.Observation).To(Equal(dynamo.Observation{50, 100, 0, 0}))
	g.Expect(sim.ControlValue("pitch")).To(BeNumerically("~", 0.02, 1e-12))

	// continues from the last observation when none is sent
	w = do(s, http.MethodPost, "/step", gin.H{"action": 2})
	g.Expect(w.Code).To(Equal(http.StatusOK))
	g.Expect(sim.ControlValue("pitch")).To(BeNumerically("~", 0, 1e-12))
}

func TestStepTerminal(t *testing.T) {
	g := NewWithT(t)
	s, sim := newTestServer(t)
	g.Expect(do(s, http.MethodPost, "/reset", nil).Code).To(Equal(http.StatusOK))

	sim.SetCrew(0)
	w := do(s, http.MethodPost, "/step", gin.H{"action": 1})
	g.Expect(w.Code).To(Equal(http.StatusOK))
	var reply stepReply
	g.Expect(json.Unmarshal(w.Body.Bytes(), &reply)).To(Succeed())
	g.Expect(reply.Done).To(BeTrue())
	g.Expect(reply.Reason).To(Equal("inoperable"))
	g.Expect(reply.Reward).To(Equal(16.0 - 1020000))

	g.Expect(do(s, http.MethodPost, "/step", gin.H{"action": 1}).Code).To(Equal(http.StatusConflict))
}

func TestStepErrors(t *testing.T) {
	g := NewWithT(t)
	s, sim := newTestServer(t)

	// not reset yet
	g.Expect(do(s, http.MethodPost, "/step", gin.H{"action": 1, "observation": []float64{0, 1, 2, 3}}).Code).
		To(Equal(http.StatusConflict))

	g.Expect(do(s, http.MethodPost, "/reset", nil).Code).To(Equal(http.StatusOK))

	g.Expect(do(s, http.MethodPost, "/step", gin.H{"observation": []float64{0, 1, 2, 3}}).Code).
		To(Equal(http.StatusBadRequest))
	g.Expect(do(s, http.MethodPost, "/step", gin.H{"action": 1, "observation": []float64{0, 1}}).Code).
		To(Equal(http.StatusBadRequest))

	sim.FlightErr = dynamo.ErrSimulator
	g.Expect(do(s, http.MethodPost, "/step", gin.H{"action": 1}).Code).To(Equal(http.StatusBadGateway))
	g.Expect(do(s, http.MethodPost, "/reset", nil).Code).To(Equal(http.StatusBadGateway))
}

func TestMalformedBody(t *testing.T) {
	g := NewWithT(t)
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/step", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	g.Expect(w.Code).To(Equal(http.StatusBadRequest))
}

func TestRunStopsWithContext(t *testing.T) {
	g := NewWithT(t)
	s, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	cancel()

	g.Eventually(done, 3*time.Second).Should(Receive(BeNil()))
}
