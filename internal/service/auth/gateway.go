package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"donorlink/internal/domain"
)

// Result is the normalized outcome of a remote auth round trip. Transport
// failures are folded into Success=false rather than surfaced as errors; the
// returned error is reserved for context cancellation.
type Result struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	User    *domain.Session `json:"user,omitempty"`
}

// Gateway abstracts the remote auth collaborator.
type Gateway interface {
	Login(ctx context.Context, input domain.LoginInput) (*Result, error)
	Register(ctx context.Context, input domain.RegisterInput) (*Result, error)
}

// simGateway stands in for the remote service. Each call holds the caller for
// a bounded latency so UIs can exercise their pending affordances, then
// accepts any well-formed credentials.
type simGateway struct {
	latency time.Duration
}

func NewSimGateway(latency time.Duration) Gateway {
	return &simGateway{latency: latency}
}

func (g *simGateway) Login(ctx context.Context, _ domain.LoginInput) (*Result, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	return &Result{Success: true}, nil
}

func (g *simGateway) Register(ctx context.Context, _ domain.RegisterInput) (*Result, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	return &Result{Success: true}, nil
}

func (g *simGateway) wait(ctx context.Context) error {
	if g.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(g.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// httpGateway talks to a real auth service over JSON.
type httpGateway struct {
	baseURL string
	client  *http.Client
}

func NewHTTPGateway(baseURL string) Gateway {
	return &httpGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *httpGateway) Login(ctx context.Context, input domain.LoginInput) (*Result, error) {
	return g.post(ctx, "/login", input)
}

func (g *httpGateway) Register(ctx context.Context, input domain.RegisterInput) (*Result, error) {
	return g.post(ctx, "/register", input)
}

func (g *httpGateway) post(ctx context.Context, path string, payload any) (*Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return &Result{Success: false, Message: err.Error()}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &Result{Success: false, Message: err.Error()}, nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &Result{Success: false, Message: "auth service unreachable"}, nil
	}
	defer resp.Body.Close()

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return &Result{Success: false, Message: fmt.Sprintf("auth service returned status %d", resp.StatusCode)}, nil
	}
	return &result, nil
}
