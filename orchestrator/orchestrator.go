package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/helmsman-ai/helmsman/core"
	"github.com/helmsman-ai/helmsman/gate"
	"github.com/helmsman-ai/helmsman/logging"
	"github.com/helmsman-ai/helmsman/router"
	"github.com/helmsman-ai/helmsman/session"
	"github.com/helmsman-ai/helmsman/store"
)

const (
	memoryContextLimit = 5
	taskMemoryMaxChars = 100
	resultMemoryChars  = 400
	historyOutputChars = 1000
	autoMemoryMinChars = 20
)

// workerIcon prefixes the "using worker" notification per worker family.
func workerIcon(name string) string {
	switch name {
	case core.WorkerBrowsing:
		return "🌐"
	case core.WorkerMemory:
		return "🧠"
	default:
		return "💬"
	}
}

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Workers is the initial name → worker registry. The router only ever
	// selects from this set.
	Workers []core.Worker
	// Store persists the audit trail and long-term memory.
	Store core.Store
	// Sessions holds the rolling per-channel conversation history.
	Sessions *session.Manager
	// Gate serializes browsing invocations process-wide.
	Gate *gate.Gate
	// BrowsingStepBudget caps browsing runs started by this orchestrator.
	// Zero leaves the worker's own default in place.
	BrowsingStepBudget int
	Logger             logging.Logger
}

// Orchestrator routes inbound tasks to workers and wraps each invocation with
// session seeding, audit persistence and progress notifications. Public
// methods are safe for concurrent use; the gate is the only strict mutual
// exclusion between runs.
type Orchestrator struct {
	router   *router.Router
	store    core.Store
	sessions *session.Manager
	gate     *gate.Gate

	browsingStepBudget int
	logger             logging.Logger

	mu      sync.RWMutex
	workers map[string]core.Worker
}

// New constructs an Orchestrator with optional overrides. The zero
// configuration persists to an in-memory store and starts with an empty
// worker registry; callers register workers via Options.Workers or
// UpsertWorker.
func New(r *router.Router, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Store:    store.NewInMemory(),
		Sessions: session.NewManager(),
		Gate:     gate.New(),
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	o := &Orchestrator{
		router:             r,
		store:              opts.Store,
		sessions:           opts.Sessions,
		gate:               opts.Gate,
		browsingStepBudget: opts.BrowsingStepBudget,
		logger:             opts.Logger,
		workers:            make(map[string]core.Worker, len(opts.Workers)),
	}
	for _, w := range opts.Workers {
		o.workers[w.Name()] = w
	}

	return o
}

// UpsertWorker registers the worker under its name, replacing any existing
// registration.
func (o *Orchestrator) UpsertWorker(w core.Worker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.workers[w.Name()] = w
}

// Worker returns the registered worker by name.
func (o *Orchestrator) Worker(name string) (core.Worker, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	w, ok := o.workers[name]
	return w, ok
}

func (o *Orchestrator) snapshotWorkers() map[string]core.Worker {
	o.mu.RLock()
	defer o.mu.RUnlock()
	snap := make(map[string]core.Worker, len(o.workers))
	for name, w := range o.workers {
		snap[name] = w
	}
	return snap
}

// Run executes one task end to end and always returns a Result, even on
// worker failure or cancellation. The TaskContext is exclusively owned by
// this call.
func (o *Orchestrator) Run(ctx context.Context, tc *core.TaskContext) core.Result {
	if tc.MemoryContext == "" {
		o.seedMemoryContext(ctx, tc)
	}
	if tc.History == nil {
		tc.History = o.sessions.Get(tc.Channel, tc.ChannelID)
	}

	// Duration is measured from audit-record creation, not from context
	// seeding.
	startedAt := time.Now()
	if id, err := o.store.TaskCreate(ctx, tc.Channel, tc.ChannelID, tc.Username, tc.Task); err != nil {
		o.logger.Warn("task create failed", "error", err)
	} else {
		tc.TaskID = id
	}

	tc.Notify(ctx, "🔄 Routing task...")

	workers := o.snapshotWorkers()
	workerName := o.router.Route(ctx, tc.Task, workers)
	w, ok := workers[workerName]
	if !ok {
		o.logger.Error("routed worker not registered", "worker", workerName)
		o.finishTask(ctx, tc.TaskID, "", false, 0, time.Since(startedAt))
		return core.Result{
			Success:    false,
			WorkerName: workerName,
			Output:     "No worker available to handle this task.",
			Errors:     []string{fmt.Sprintf("worker %q not registered", workerName)},
		}
	}

	tc.Notify(ctx, fmt.Sprintf("%s Using %s worker...", workerIcon(workerName), workerName))

	if workerName == core.WorkerBrowsing {
		if o.browsingStepBudget > 0 {
			if tc.Extra == nil {
				tc.Extra = map[string]any{}
			}
			tc.Extra[core.ExtraStepBudget] = o.browsingStepBudget
		}
		if err := o.gate.Acquire(ctx); err != nil {
			return o.cancelled(ctx, tc, workerName, startedAt, err)
		}
		defer o.gate.Release()
	}

	if tc.TaskID != "" {
		if err := o.store.TaskStart(ctx, tc.TaskID); err != nil {
			o.logger.Warn("task start failed", "task_id", tc.TaskID, "error", err)
		}
	}

	outcome, err := w.Run(ctx, tc)
	duration := time.Since(startedAt)
	if err != nil {
		if ctx.Err() != nil {
			return o.cancelled(ctx, tc, workerName, startedAt, ctx.Err())
		}
		o.logger.Error("worker run failed", "worker", workerName, "error", err)
		outcome = core.FailedOutcome(workerName, "", err.Error())
	}

	o.persistOutcome(ctx, tc, outcome, duration)
	o.rememberOutcome(ctx, tc, outcome)
	o.sessions.Append(tc.Channel, tc.ChannelID, tc.Task, truncate(outcome.Output, historyOutputChars))

	return core.Result{
		Success:     outcome.Success,
		Output:      outcome.Output,
		WorkerName:  workerName,
		Steps:       outcome.Steps,
		Attachments: outcome.Attachments,
		Errors:      outcome.Errors,
	}
}

// seedMemoryContext fetches the pre-formatted long-term memory fragment for
// the task identity. Failures leave the context empty.
func (o *Orchestrator) seedMemoryContext(ctx context.Context, tc *core.TaskContext) {
	frag, err := o.store.MemoryFormatForPrompt(ctx, tc.Channel, tc.ChannelID, memoryContextLimit)
	if err != nil {
		o.logger.Warn("memory context fetch failed", "error", err)
		return
	}
	tc.MemoryContext = frag
}

// cancelled marks the audit record CANCELLED and returns the terminal Result.
// The store call runs regardless of the run context's state; implementations
// mark cancellation without the cancelled context.
func (o *Orchestrator) cancelled(ctx context.Context, tc *core.TaskContext, workerName string, startedAt time.Time, cause error) core.Result {
	if tc.TaskID != "" {
		if err := o.store.TaskCancel(ctx, tc.TaskID); err != nil {
			o.logger.Warn("task cancel marking failed", "task_id", tc.TaskID, "error", err)
		}
	}
	o.logger.Info("task cancelled", "task_id", tc.TaskID, "worker", workerName, "duration", time.Since(startedAt))
	return core.Result{
		Success:    false,
		WorkerName: workerName,
		Output:     "Task was cancelled.",
		Errors:     []string{cause.Error()},
	}
}

// persistOutcome writes the terminal audit state: final status, step logs and
// attachment records. Every write is best-effort.
func (o *Orchestrator) persistOutcome(ctx context.Context, tc *core.TaskContext, out core.Outcome, duration time.Duration) {
	o.finishTask(ctx, tc.TaskID, out.Output, out.Success, out.Steps, duration)
	if tc.TaskID == "" {
		return
	}

	for _, info := range stepInfos(out) {
		if err := o.store.StepLog(ctx, tc.TaskID, info.Step, info.Actions, info.NextGoal, "", info.URL); err != nil {
			o.logger.Warn("step log failed", "task_id", tc.TaskID, "step", info.Step, "error", err)
		}
	}
	summary := fmt.Sprintf("completed with %d steps", out.Steps)
	if !out.Success {
		summary = fmt.Sprintf("failed after %d steps", out.Steps)
	}
	if err := o.store.StepLog(ctx, tc.TaskID, out.Steps, []string{"summary"}, "", summary, ""); err != nil {
		o.logger.Warn("summary step log failed", "task_id", tc.TaskID, "error", err)
	}

	for _, path := range out.Attachments {
		att := core.Attachment{
			TaskID:   tc.TaskID,
			FileName: filepath.Base(path),
			FilePath: path,
			FileType: attachmentType(path),
			MimeType: mimeType(path),
		}
		if fi, err := os.Stat(path); err == nil {
			att.SizeBytes = fi.Size()
		}
		if _, err := o.store.AttachmentSave(ctx, att); err != nil {
			o.logger.Warn("attachment save failed", "task_id", tc.TaskID, "path", path, "error", err)
		}
	}
}

func (o *Orchestrator) finishTask(ctx context.Context, taskID, output string, success bool, steps int, duration time.Duration) {
	if taskID == "" {
		return
	}
	if err := o.store.TaskDone(ctx, taskID, output, success, steps, duration); err != nil {
		o.logger.Warn("task done marking failed", "task_id", taskID, "error", err)
	}
}

// rememberOutcome derives a long-term memory entry from a successful run with
// meaningful output.
func (o *Orchestrator) rememberOutcome(ctx context.Context, tc *core.TaskContext, out core.Outcome) {
	if !out.Success || len(out.Output) <= autoMemoryMinChars {
		return
	}
	content := fmt.Sprintf("Task: %s\nResult: %s",
		truncate(tc.Task, taskMemoryMaxChars), truncate(out.Output, resultMemoryChars))
	_, err := o.store.MemoryAdd(ctx, core.Memory{
		Channel:   tc.Channel,
		ChannelID: tc.ChannelID,
		Username:  tc.Username,
		Content:   content,
		Kind:      "task_result",
		Source:    out.WorkerName,
		TaskID:    tc.TaskID,
	})
	if err != nil {
		o.logger.Warn("auto memory failed", "task_id", tc.TaskID, "error", err)
	}
}

// stepInfos extracts the per-step trace a worker attached to its outcome.
func stepInfos(out core.Outcome) []core.StepInfo {
	if out.Metadata == nil {
		return nil
	}
	infos, _ := out.Metadata[core.MetadataStepInfos].([]core.StepInfo)
	return infos
}

func attachmentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".webp":
		return "screenshot"
	default:
		return "file"
	}
}

func mimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
