// Package worker contains the concrete capability variants registered with
// the orchestrator:
//
//   - Browsing: autonomous web tasks delegated to a core.BrowserDriver
//   - Reasoning: direct completion-capability calls with persona + history
//   - Memory: explicit save/list/delete of long-term memory in the Store
//
// Each worker declares a name and a routing description, receives a
// *core.TaskContext and returns a normalized core.Outcome. Domain failures
// are reported through the Outcome; the error return is reserved for cases
// where no outcome could be produced, cancellation included.
package worker
