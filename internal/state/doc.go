// Package state provides thread-safe state sharing between the service
// worker and the UI.
//
// # Overview
//
// The worker goroutine (scheduler and session controller) writes into a
// Store; the UI reads a Snapshot on every tick. Nothing in the UI ever
// reaches into worker-owned objects directly.
//
//	Producer (worker):             Consumer (UI):
//	┌──────────────────┐          ┌──────────────────┐
//	│ scheduler cycle  │          │                  │
//	│ session stages   │          │                  │
//	│      ↓           │          │                  │
//	│ store.Record...  │─────────→│ store.Snapshot() │
//	│      ↓           │ (mutex)  │      ↓           │
//	│  repeat...       │          │  render          │
//	└──────────────────┘          └──────────────────┘
//
// # Update Semantics
//
// RecordCycle replaces the cycle fields on success. On failure the
// previous data is kept, the error is recorded and ConsecutiveFailures
// increments; IsDegraded reports two or more failures in a row.
//
// Halt records a fatal stop together with the operator-facing alert text.
// SetRunning(true) clears the halt, so a restart starts from a clean
// slate.
//
// # Copy Semantics
//
// Snapshot returns copies of the roster slice, the session match and the
// last error, so callers may hold on to a snapshot without racing later
// updates.
package state
