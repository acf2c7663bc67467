package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helmsman-ai/helmsman/core"
	"github.com/helmsman-ai/helmsman/model"
)

type stubWorker struct {
	name        string
	description string
}

func (w *stubWorker) Name() string        { return w.name }
func (w *stubWorker) Description() string { return w.description }
func (w *stubWorker) Run(context.Context, *core.TaskContext) (core.Outcome, error) {
	return core.Outcome{}, nil
}

func registry() map[string]core.Worker {
	return map[string]core.Worker{
		core.WorkerBrowsing:  &stubWorker{core.WorkerBrowsing, "web browsing"},
		core.WorkerReasoning: &stubWorker{core.WorkerReasoning, "general reasoning"},
		core.WorkerMemory:    &stubWorker{core.WorkerMemory, "memory management"},
	}
}

func TestRouter_RoutesToNamedWorker(t *testing.T) {
	completer := model.NewMockCompleter(`{"agent": "browsing", "reason": "needs the web"}`)
	r := New(completer)

	got := r.Route(context.Background(), "check the weather in Jakarta", registry())
	assert.Equal(t, core.WorkerBrowsing, got)
}

func TestRouter_UnknownWorkerFallsBack(t *testing.T) {
	completer := model.NewMockCompleter(`{"agent": "planner", "reason": "made up"}`)
	r := New(completer)

	got := r.Route(context.Background(), "do something", registry())
	assert.Equal(t, FallbackWorker, got)
}

func TestRouter_MalformedJSONFallsBack(t *testing.T) {
	completer := model.NewMockCompleter(`browsing, because the task needs the web`)
	r := New(completer)

	got := r.Route(context.Background(), "do something", registry())
	assert.Equal(t, FallbackWorker, got)
}

func TestRouter_CompletionFailureFallsBack(t *testing.T) {
	completer := model.NewMockCompleter("")
	completer.FailWith(errors.New("model unavailable"))
	r := New(completer)

	got := r.Route(context.Background(), "do something", registry())
	assert.Equal(t, FallbackWorker, got)
}

func TestRouter_RequestShape(t *testing.T) {
	completer := model.NewMockCompleter(`{"agent": "memory", "reason": "memory task"}`)
	r := New(completer)

	got := r.Route(context.Background(), "remember that I like tea", registry())
	require.Equal(t, core.WorkerMemory, got)

	reqs := completer.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0]

	assert.True(t, req.ForceJSON)
	assert.Zero(t, req.Temperature)
	assert.Equal(t, int64(routeTokenBudget), req.MaxTokens)

	// Every registered worker's description is embedded into the prompt, and
	// the browsing bias rule is present.
	assert.Contains(t, req.System, "- browsing: web browsing")
	assert.Contains(t, req.System, "- memory: memory management")
	assert.Contains(t, req.System, "- reasoning: general reasoning")
	assert.Contains(t, req.System, "prefer browsing")

	require.Len(t, req.Messages, 1)
	assert.Equal(t, "remember that I like tea", req.Messages[0].Content)
}

func TestRouter_TrimsResponseWhitespace(t *testing.T) {
	completer := model.NewMockCompleter("\n  {\"agent\": \"reasoning\", \"reason\": \"chat\"}  \n")
	r := New(completer)

	got := r.Route(context.Background(), "hello there", registry())
	assert.Equal(t, core.WorkerReasoning, got)
}
