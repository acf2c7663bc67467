package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/helmsman-ai/helmsman/core"
)

// Request captures one normalized completion call. Messages carry the
// conversation (history plus the current user turn); System is prepended by
// the provider adapter in whatever shape the vendor expects.
type Request struct {
	System      string
	Messages    []core.Message
	Temperature float64
	MaxTokens   int64
	// ForceJSON requests a strict single-object JSON response where the
	// provider supports it. Adapters without native support must instruct
	// the model through the prompt instead.
	ForceJSON bool
}

// Completer is the minimal interface required to drive text generation. It
// may fail with a generic service error; callers decide whether the failure
// is recoverable.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)

	// Info returns metadata about the completer implementation.
	Info() Info
}

// Info contains metadata about a completer implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", ...
}

// MockCompleter is a lightweight in-memory Completer useful for tests. It
// matches on the content of the last message and records every request it
// received.
type MockCompleter struct {
	mu        sync.Mutex
	responses map[string]string
	fallback  string
	err       error
	requests  []Request
}

// NewMockCompleter constructs a MockCompleter with an optional default
// response returned when no canned match exists.
func NewMockCompleter(fallback string) *MockCompleter {
	return &MockCompleter{responses: make(map[string]string), fallback: fallback}
}

// AddResponse registers a deterministic canned completion for an input text.
func (m *MockCompleter) AddResponse(input, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[input] = response
}

// FailWith makes every subsequent Complete call return err.
func (m *MockCompleter) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns a copy of all requests seen so far.
func (m *MockCompleter) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Complete implements Completer.
func (m *MockCompleter) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return "", m.err
	}
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	last := req.Messages[len(req.Messages)-1].Content
	if resp, ok := m.responses[last]; ok {
		return resp, nil
	}
	if m.fallback != "" {
		return m.fallback, nil
	}
	return fmt.Sprintf("Mock response to: %s", last), nil
}

// Info implements Completer.
func (m *MockCompleter) Info() Info { return Info{Name: "mock", Provider: "mock"} }
