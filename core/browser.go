package core

import "context"

// MetadataStepInfos is the Outcome metadata key under which workers expose
// their per-step trace as a []StepInfo for audit logging.
const MetadataStepInfos = "step_infos"

// StepInfo carries enough structured data about one browsing step to render a
// progress notification.
type StepInfo struct {
	Step     int
	Actions  []string
	NextGoal string
	URL      string
}

// DriverResult is the raw outcome reported by a browsing-automation engine.
type DriverResult struct {
	Success     bool
	FinalOutput string
	Steps       int
	Errors      []string
	Attachments []string
}

// BrowserDriver is the opaque browsing-automation capability backing the
// browsing worker. Run executes the task autonomously for at most maxSteps
// steps, invoking onStep once per step when non-nil.
//
// Implementations must respect context cancellation; files already written
// when a run is cancelled are not retroactively deleted.
type BrowserDriver interface {
	Run(ctx context.Context, task string, maxSteps int, onStep func(StepInfo)) (DriverResult, error)
}
