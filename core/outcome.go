package core

import (
	"fmt"
	"strings"
)

// Outcome is the normalized result of exactly one worker invocation.
type Outcome struct {
	Success     bool           `json:"success"`
	Output      string         `json:"output"`
	WorkerName  string         `json:"worker_name"`
	Steps       int            `json:"steps"`
	Attachments []string       `json:"attachments,omitempty"` // ordered, unique file paths
	Errors      []string       `json:"errors,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// FailedOutcome constructs a failure Outcome for the named worker with the
// given error list.
func FailedOutcome(workerName, output string, errs ...string) Outcome {
	return Outcome{Success: false, Output: output, WorkerName: workerName, Errors: errs}
}

// Result is the final, immutable value returned to the caller of one
// orchestrated run. It mirrors the Outcome of the resolved worker plus the
// worker name the router settled on.
type Result struct {
	Success     bool     `json:"success"`
	Output      string   `json:"output"`
	WorkerName  string   `json:"worker_name"`
	Steps       int      `json:"steps"`
	Attachments []string `json:"attachments,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// Format renders the result as a human-readable status block suitable for
// plain-text channels.
func (r Result) Format() string {
	status := "Done"
	if !r.Success {
		status = "Failed"
	}
	lines := []string{
		fmt.Sprintf("Status: %s", status),
		fmt.Sprintf("Worker: %s", r.WorkerName),
		fmt.Sprintf("Steps: %d", r.Steps),
		"",
		"Result:",
		r.Output,
	}
	var errs []string
	for _, e := range r.Errors {
		if e != "" {
			errs = append(errs, "- "+e)
		}
	}
	if len(errs) > 0 {
		lines = append(lines, "", "Errors:")
		lines = append(lines, errs...)
	}
	return strings.Join(lines, "\n")
}
