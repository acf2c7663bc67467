package core

import "context"

// Worker is the core interface every Helmsman capability variant implements.
//
// Workers are the primary processing units of the system. They receive a
// TaskContext, execute the task end-to-end and return a normalized Outcome.
//
// Implementations must:
//   - Respect context cancellation for graceful shutdown
//   - Report domain failures through Outcome (Success=false, Errors populated)
//     rather than the error return
//   - Reserve the error return for cases where no Outcome could be produced
//     at all, cancellation included
type Worker interface {
	// Name returns the stable registry identifier of the worker.
	Name() string

	// Description returns the capability description embedded into the
	// routing prompt. It should state what the worker is good at and, where
	// useful, what it must not be used for.
	Description() string

	// Run executes one task end-to-end.
	Run(ctx context.Context, tc *TaskContext) (Outcome, error)
}

// Well-known worker names. The router falls back to WorkerReasoning whenever
// classification cannot resolve a registered worker.
const (
	WorkerBrowsing  = "browsing"
	WorkerReasoning = "reasoning"
	WorkerMemory    = "memory"
)
