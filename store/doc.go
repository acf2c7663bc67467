// Package store provides implementations of core.Store, the durable audit
// trail and long-term memory backend:
//
//   - InMemory: process-local, for tests and store-less degraded operation
//   - SQLite: file-backed persistence via modernc.org/sqlite
//
// Both implementations share the record shapes declared in core; the storage
// format itself is an implementation detail of this package.
package store
