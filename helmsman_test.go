package helmsman

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helmsman-ai/helmsman/core"
	"github.com/helmsman-ai/helmsman/model"
)

// echoDriver satisfies core.BrowserDriver without a real browser.
type echoDriver struct{}

func (echoDriver) Run(_ context.Context, task string, _ int, onStep func(core.StepInfo)) (core.DriverResult, error) {
	if onStep != nil {
		onStep(core.StepInfo{Step: 1, Actions: []string{"finish"}})
	}
	return core.DriverResult{Success: true, FinalOutput: "browsed: " + task, Steps: 1}, nil
}

func newTestAssistant(completer model.Completer) *Assistant {
	return New(completer, func(o *Options) {
		o.Driver = echoDriver{}
		o.CharacterPath = "testdata/missing-character.md"
		o.OwnerPath = "testdata/missing-owner.md"
	})
}

func TestAssistant_ReasoningRoundTrip(t *testing.T) {
	// The mock matches on the last message, which is the task text for both
	// the routing call and the reasoning call, so only the worker name is
	// asserted here.
	completer := model.NewMockCompleter("fallback")
	completer.AddResponse("hi", `{"agent": "reasoning", "reason": "conversation"}`)

	a := newTestAssistant(completer)

	res := a.Run(context.Background(), "hi")
	assert.True(t, res.Success)
	assert.Equal(t, core.WorkerReasoning, res.WorkerName)
}

func TestAssistant_MemorySaveThenDigest(t *testing.T) {
	completer := model.NewMockCompleter("fallback")
	completer.AddResponse("remember that I prefer short answers",
		`{"agent": "memory", "reason": "explicit save"}`)
	completer.AddResponse("remember that my timezone is WIB",
		`{"agent": "memory", "reason": "explicit save"}`)
	completer.AddResponse("what do you know about me?",
		`{"agent": "memory", "reason": "recall"}`)

	a := newTestAssistant(completer)
	ctx := context.Background()

	res := a.Run(ctx, "remember that I prefer short answers")
	require.True(t, res.Success)
	assert.Equal(t, `Saved: "I prefer short answers"`, res.Output)

	res = a.Run(ctx, "remember that my timezone is WIB")
	require.True(t, res.Success)

	res = a.Run(ctx, "what do you know about me?")
	require.True(t, res.Success)
	assert.Contains(t, res.Output, "Stored memories:")
	// Newest first in the digest.
	assert.Less(t,
		strings.Index(res.Output, "my timezone is WIB"),
		strings.Index(res.Output, "I prefer short answers"))
}

// scriptedDriver replays one canned output per Run call.
type scriptedDriver struct {
	outputs []string
	calls   int
}

func (d *scriptedDriver) Run(_ context.Context, _ string, _ int, _ func(core.StepInfo)) (core.DriverResult, error) {
	out := d.outputs[d.calls]
	d.calls++
	return core.DriverResult{Success: true, FinalOutput: out, Steps: 1}, nil
}

func TestAssistant_BrowsingResultsFeedMemoryDigest(t *testing.T) {
	completer := model.NewMockCompleter("fallback")
	completer.AddResponse("check the weather in Jakarta",
		`{"agent": "browsing", "reason": "needs the web"}`)
	completer.AddResponse("look up the rupiah exchange rate",
		`{"agent": "browsing", "reason": "needs the web"}`)
	completer.AddResponse("what do you know about me?",
		`{"agent": "memory", "reason": "recall"}`)

	driver := &scriptedDriver{outputs: []string{
		"Jakarta is sunny and 31 degrees today",
		"The rupiah trades at 16,200 per dollar",
	}}
	a := New(completer, func(o *Options) {
		o.Driver = driver
		o.CharacterPath = "testdata/missing-character.md"
		o.OwnerPath = "testdata/missing-owner.md"
	})
	ctx := context.Background()

	res := a.Run(ctx, "check the weather in Jakarta")
	require.True(t, res.Success)
	res = a.Run(ctx, "look up the rupiah exchange rate")
	require.True(t, res.Success)

	// Both browsing results were auto-saved and come back newest first.
	res = a.Run(ctx, "what do you know about me?")
	require.True(t, res.Success)
	assert.Equal(t, core.WorkerMemory, res.WorkerName)
	assert.Contains(t, res.Output, "Jakarta is sunny")
	assert.Contains(t, res.Output, "rupiah trades")
	assert.Less(t,
		strings.Index(res.Output, "rupiah trades"),
		strings.Index(res.Output, "Jakarta is sunny"))
}

func TestAssistant_BrowsingUsesInjectedDriver(t *testing.T) {
	completer := model.NewMockCompleter("fallback")
	completer.AddResponse("open example.com", `{"agent": "browsing", "reason": "needs the web"}`)

	a := newTestAssistant(completer)

	res := a.Run(context.Background(), "open example.com")
	require.True(t, res.Success)
	assert.Equal(t, core.WorkerBrowsing, res.WorkerName)
	assert.Contains(t, res.Output, "browsed: ")
	assert.Equal(t, 1, res.Steps)
}

func TestAssistant_HistoryCarriesAcrossTurns(t *testing.T) {
	completer := model.NewMockCompleter("a reply long enough to be remembered")
	completer.AddResponse("first question", `{"agent": "reasoning", "reason": "chat"}`)

	a := newTestAssistant(completer)
	ctx := context.Background()

	a.Run(ctx, "first question")

	hist := a.Sessions().Get("cli", "local")
	require.Len(t, hist, 2)
	assert.Equal(t, "first question", hist[0].Content)
}

func TestAssistant_UpsertWorker(t *testing.T) {
	completer := model.NewMockCompleter("fallback")
	completer.AddResponse("ping", `{"agent": "custom", "reason": "test"}`)

	a := newTestAssistant(completer)
	a.UpsertWorker(&pingWorker{})

	res := a.Run(context.Background(), "ping")
	assert.Equal(t, "custom", res.WorkerName)
	assert.Equal(t, "pong", res.Output)
}

type pingWorker struct{}

func (pingWorker) Name() string        { return "custom" }
func (pingWorker) Description() string { return "responds to ping" }
func (pingWorker) Run(context.Context, *core.TaskContext) (core.Outcome, error) {
	return core.Outcome{Success: true, Output: "pong", WorkerName: "custom"}, nil
}
