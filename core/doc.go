// Package core provides the foundational domain types and collaborator
// contracts used by Helmsman. It defines the core abstractions for:
//
//   - Workers (capability variants that execute one task end-to-end)
//   - TaskContext (the per-request execution scope flowing into workers)
//   - Outcome / Result (normalized worker output and the caller-facing wrap)
//   - Store (durable audit trail + long-term memory persistence)
//   - BrowserDriver (opaque browsing-automation capability)
//   - Notifier (fire-and-forget progress updates)
//
// The package intentionally keeps implementation concerns (persistence,
// orchestration, concrete workers) out of scope, exposing small interfaces to
// enable custom backends and extensions.
package core
