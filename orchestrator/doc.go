// Package orchestrator coordinates one task from routing to result: it seeds
// memory context and conversation history, routes the task to a worker,
// serializes browsing through the process-wide gate, and persists the audit
// trail around the worker invocation.
//
// Every Store call and every notification on the orchestration path is
// best-effort: storage or delivery failures are logged and the run continues.
// The only hard failure mode is context cancellation, which still yields a
// Result describing the cancellation.
package orchestrator
