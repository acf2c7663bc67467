package core

import "context"

// Notifier delivers a short human-readable status string to the originating
// channel. Implementations may be asynchronous; callers treat delivery as
// best-effort and swallow returned errors.
type Notifier func(ctx context.Context, status string) error

// TaskContext carries the per-request execution scope from the channel through
// the orchestrator into a worker. It aggregates:
//
//   - The raw task text and the (channel, channel id) session identity
//   - Long-term memory context fetched from the Store (pre-formatted)
//   - The audit record id, set once the orchestrator created the record
//   - Rolling conversation history seeded from the session manager
//   - An optional update callback for live progress notifications
//   - A free-form extension map for channel-specific data
//
// A TaskContext is created per inbound message and exclusively owned by one
// orchestration call; it must never be shared across concurrent calls.
type TaskContext struct {
	Task          string
	Channel       string
	ChannelID     string
	Username      string
	MemoryContext string
	TaskID        string
	History       []Message
	OnUpdate      Notifier
	Extra         map[string]any
}

// ExtraStepBudget is the Extra key under which the orchestrator passes the
// bounded step budget to the browsing worker.
const ExtraStepBudget = "step_budget"

// NewTaskContext constructs a TaskContext for one inbound task with CLI
// defaults for channel identity.
func NewTaskContext(task string) *TaskContext {
	return &TaskContext{
		Task:      task,
		Channel:   "cli",
		ChannelID: "local",
		Username:  "user",
		Extra:     map[string]any{},
	}
}

// Notify invokes the update callback if one is set. Delivery failures are
// swallowed; notifications never affect task execution.
func (tc *TaskContext) Notify(ctx context.Context, status string) {
	if tc.OnUpdate == nil {
		return
	}
	_ = tc.OnUpdate(ctx, status)
}
