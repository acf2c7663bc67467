// Package router maps free-text tasks to a registered worker by asking the
// completion capability for a strict JSON classification. Every failure mode
// (transport error, malformed JSON, unknown worker name) is recovered locally
// by falling back to the reasoning worker, so routing never raises.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/helmsman-ai/helmsman/core"
	"github.com/helmsman-ai/helmsman/logging"
	"github.com/helmsman-ai/helmsman/model"
)

// systemTemplate is the classification prompt. The tie-break rule is load
// bearing: the classifier is told to prefer the browsing worker for anything
// plausibly web-related.
const systemTemplate = `You are a task router for a personal AI assistant.
Your job is to select the BEST worker for the user's task.

Available workers:
%s

Rules:
- ALWAYS pick exactly ONE worker
- If the task requires browsing the internet, opening websites, or real-time web data -> browsing
- If the task is a question, explanation, writing, calculation, summary -> reasoning
- If the task is about saving/recalling/deleting memories -> memory
- When in doubt between browsing and reasoning, prefer browsing for anything web-related

Respond with ONLY valid JSON in this exact format:
{"agent": "<worker_name>", "reason": "<one sentence why>"}`

// FallbackWorker is the worker substituted whenever classification fails.
const FallbackWorker = core.WorkerReasoning

// routeTokenBudget keeps the classification response small; the JSON object
// fits comfortably.
const routeTokenBudget = 100

// decision is the strict single-object JSON shape requested from the
// classifier.
type decision struct {
	Agent  string `json:"agent"`
	Reason string `json:"reason"`
}

// Options configure a Router.
type Options struct {
	Logger logging.Logger
}

// Router asks the completion capability which worker fits a task.
type Router struct {
	completer model.Completer
	logger    logging.Logger
}

// New constructs a Router over the given completer.
func New(completer model.Completer, optFns ...func(o *Options)) *Router {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Router{completer: completer, logger: opts.Logger}
}

// Route resolves the task text to the name of one of the given workers. The
// registry is keyed by worker name; descriptions are embedded into the
// classification prompt. Route never returns an error: any failure resolves
// to FallbackWorker.
func (r *Router) Route(ctx context.Context, task string, workers map[string]core.Worker) string {
	system := fmt.Sprintf(systemTemplate, describeWorkers(workers))

	raw, err := r.completer.Complete(ctx, model.Request{
		System:      system,
		Messages:    []core.Message{core.UserMessage(task)},
		Temperature: 0,
		MaxTokens:   routeTokenBudget,
		ForceJSON:   true,
	})
	if err != nil {
		r.logger.Warn("router completion failed, falling back", "fallback", FallbackWorker, "error", err)
		return FallbackWorker
	}

	var d decision
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &d); err != nil {
		r.logger.Warn("router returned malformed JSON, falling back", "fallback", FallbackWorker, "error", err)
		return FallbackWorker
	}
	if _, ok := workers[d.Agent]; !ok {
		r.logger.Warn("router returned unknown worker, falling back", "worker", d.Agent, "fallback", FallbackWorker)
		return FallbackWorker
	}

	r.logger.Info("route resolved", "worker", d.Agent, "reason", d.Reason)
	return d.Agent
}

// describeWorkers renders one "- name: description" line per registered
// worker in stable name order.
func describeWorkers(workers map[string]core.Worker) string {
	names := make([]string, 0, len(workers))
	for name := range workers {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("- %s: %s", name, workers[name].Description()))
	}
	return strings.Join(lines, "\n")
}
