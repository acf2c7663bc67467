// Package model defines the completion capability contract consumed by the
// router and the reasoning worker, plus a deterministic mock for tests.
// Provider-backed implementations live in the openai and anthropic
// subpackages.
package model
