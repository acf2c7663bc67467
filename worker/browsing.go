package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/helmsman-ai/helmsman/core"
	"github.com/helmsman-ai/helmsman/logging"
)

const browsingDescription = "Autonomous web browsing worker. Use for: searching the web, opening websites, " +
	"scraping data, taking screenshots, filling forms, clicking buttons, " +
	"interacting with any website. Best for tasks that require navigating the internet."

// DefaultMaxSteps bounds a browsing run when the orchestrator supplies no
// step budget.
const DefaultMaxSteps = 50

const stepGoalMaxChars = 80

// BrowsingOptions configure a Browsing worker.
type BrowsingOptions struct {
	// MaxSteps is the fallback step budget when the TaskContext carries none.
	MaxSteps int
	Logger   logging.Logger
}

// Browsing delegates web tasks to the backing BrowserDriver, narrating
// progress through the task's update callback and normalizing the driver
// result into an Outcome.
type Browsing struct {
	BaseWorker
	driver   core.BrowserDriver
	maxSteps int
}

var _ core.Worker = (*Browsing)(nil)

// NewBrowsing constructs the browsing worker over the given driver.
func NewBrowsing(driver core.BrowserDriver, optFns ...func(o *BrowsingOptions)) *Browsing {
	opts := BrowsingOptions{MaxSteps: DefaultMaxSteps, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	return &Browsing{
		BaseWorker: NewBaseWorker(core.WorkerBrowsing, browsingDescription, opts.Logger),
		driver:     driver,
		maxSteps:   opts.MaxSteps,
	}
}

// Run implements core.Worker.
func (w *Browsing) Run(ctx context.Context, tc *core.TaskContext) (core.Outcome, error) {
	task := tc.Task
	if tc.MemoryContext != "" {
		task = fmt.Sprintf("%s\n\n---\nCurrent task:\n%s", tc.MemoryContext, tc.Task)
	}

	var steps []core.StepInfo
	onStep := func(info core.StepInfo) {
		steps = append(steps, info)
		msg := fmt.Sprintf("[browsing] step %d: %s", info.Step, strings.Join(info.Actions, ", "))
		if info.NextGoal != "" {
			msg += " -> " + truncate(info.NextGoal, stepGoalMaxChars)
		}
		tc.Notify(ctx, msg)
	}

	res, err := w.driver.Run(ctx, task, w.stepBudget(tc), onStep)
	if err != nil {
		if ctx.Err() != nil {
			return core.Outcome{}, ctx.Err()
		}
		w.Logger().Error("browser driver failed", "error", err)
		return core.FailedOutcome(w.Name(), "", err.Error()), nil
	}

	output := res.FinalOutput
	if output == "" {
		output = "Task finished without output."
	}

	out := core.Outcome{
		Success:     res.Success,
		Output:      output,
		WorkerName:  w.Name(),
		Steps:       res.Steps,
		Attachments: uniquePaths(res.Attachments),
		Errors:      nonEmpty(res.Errors),
	}
	if len(steps) > 0 {
		out.Metadata = map[string]any{core.MetadataStepInfos: steps}
	}
	return out, nil
}

// stepBudget prefers the budget the orchestrator placed on the TaskContext,
// falling back to the worker's own default.
func (w *Browsing) stepBudget(tc *core.TaskContext) int {
	if v, ok := tc.Extra[core.ExtraStepBudget]; ok {
		if budget, ok := v.(int); ok && budget > 0 {
			return budget
		}
	}
	return w.maxSteps
}

// uniquePaths deduplicates attachment paths preserving first-seen order.
func uniquePaths(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	var out []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func nonEmpty(errs []string) []string {
	var out []string
	for _, e := range errs {
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
