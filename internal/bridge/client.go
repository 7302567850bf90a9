package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/san-kum/hoverlab/internal/dynamo"
)

const DefaultTimeout = 2 * time.Second

// StatusError is a non-2xx reply from the bridge.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bridge %s %s: %d %s", e.Method, e.Path, e.Code, strings.TrimSpace(e.Body))
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound && strings.HasSuffix(e.Path, "/vessel") {
		return dynamo.ErrNoVessel
	}
	return dynamo.ErrSimulator
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// Client talks to a telemetry bridge: a sidecar that fronts the
// simulator's RPC server with a small JSON API. It implements
// dynamo.Dialer; each Dial opens a new bridge session.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse bridge url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("bridge url %q needs scheme and host", baseURL)
	}
	c := &Client{
		base:    u,
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Dial(ctx context.Context) (dynamo.Conn, error) {
	var reply struct {
		Session string `json:"session"`
	}
	if err := c.do(ctx, http.MethodPost, "/connect", nil, nil, &reply); err != nil {
		return nil, err
	}
	if reply.Session == "" {
		return nil, fmt.Errorf("bridge returned empty session: %w", dynamo.ErrSimulator)
	}
	return &Conn{client: c, id: reply.Session}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}

	u := c.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("bridge %s %s: %w: %w", method, path, dynamo.ErrSimulator, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(msg)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w: %w", path, dynamo.ErrSimulator, err)
	}
	return nil
}

// Conn is one bridge session.
type Conn struct {
	client *Client
	id     string
}

func (c *Conn) path(parts ...string) string {
	escaped := make([]string, 0, len(parts)+2)
	escaped = append(escaped, "sessions", url.PathEscape(c.id))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return "/" + strings.Join(escaped, "/")
}

func (c *Conn) ActiveVessel(ctx context.Context) (dynamo.Vessel, error) {
	var reply struct {
		Vessel string `json:"vessel"`
		Name   string `json:"name"`
	}
	if err := c.client.do(ctx, http.MethodGet, c.path("vessel"), nil, nil, &reply); err != nil {
		return nil, err
	}
	if reply.Vessel == "" {
		return nil, dynamo.ErrNoVessel
	}
	return &Vessel{conn: c, id: reply.Vessel, Name: reply.Name}, nil
}

func (c *Conn) RevertToLaunch(ctx context.Context) error {
	return c.client.do(ctx, http.MethodPost, c.path("revert"), nil, nil, nil)
}

func (c *Conn) Close() error {
	return c.client.do(context.Background(), http.MethodDelete, c.path(), nil, nil, nil)
}

// Vessel is a handle to the active vessel of one bridge session. Flight
// reads are taken in the hybrid frame: body reference frame position with
// the vessel surface frame rotation. Calls are bounded by the client
// timeout only; the handle outlives the context it was obtained with.
type Vessel struct {
	conn *Conn
	id   string
	Name string
}

var hybridFrame = url.Values{"frame": {"hybrid"}}

type value struct {
	Value float64 `json:"value"`
}

func (v *Vessel) path(parts ...string) string {
	return v.conn.path(append([]string{"vessels", v.id}, parts...)...)
}

func (v *Vessel) Flight(name string) (float64, error) {
	var reply value
	err := v.conn.client.do(context.Background(), http.MethodGet, v.path("flight", name), hybridFrame, nil, &reply)
	return reply.Value, err
}

func (v *Vessel) Control(name string) (float64, error) {
	var reply value
	err := v.conn.client.do(context.Background(), http.MethodGet, v.path("control", name), nil, nil, &reply)
	return reply.Value, err
}

func (v *Vessel) SetControl(name string, x float64) error {
	return v.conn.client.do(context.Background(), http.MethodPut, v.path("control", name), nil, value{Value: x}, nil)
}

func (v *Vessel) CrewCount() (int, error) {
	var reply struct {
		Count int `json:"count"`
	}
	err := v.conn.client.do(context.Background(), http.MethodGet, v.path("crew"), nil, nil, &reply)
	return reply.Count, err
}

func (v *Vessel) Situation() (dynamo.Situation, error) {
	var reply struct {
		Situation string `json:"situation"`
	}
	if err := v.conn.client.do(context.Background(), http.MethodGet, v.path("situation"), nil, nil, &reply); err != nil {
		return "", err
	}
	return dynamo.Situation(reply.Situation), nil
}

func (v *Vessel) ActivateNextStage() error {
	return v.conn.client.do(context.Background(), http.MethodPost, v.path("stage"), nil, nil, nil)
}
