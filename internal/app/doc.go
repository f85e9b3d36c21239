// Package app is the composition root of lookout.
//
// # Overview
//
// Run sets up logging, loads the config and hands control to either the
// dashboard or the headless loop. Service owns the background worker and
// guarantees that at most one runs at a time.
//
//	┌──────────────┐
//	│   Run()      │ logging, config, prefs
//	└──────┬───────┘
//	       │
//	       ├──────────────────────┐
//	       ↓                      ↓
//	┌──────────────┐      ┌──────────────┐
//	│  Service     │      │  ui.Model    │
//	│  Start/Stop  │←─────│  s / x keys  │
//	└──────┬───────┘      └──────↑───────┘
//	       │ Factory             │ Snapshot() every tick
//	       ↓                     │
//	┌──────────────┐      ┌──────┴───────┐
//	│  scheduler   │─────→│ state.Store  │
//	│  session     │      └──────────────┘
//	└──────────────┘
//
// # Lifecycle
//
// Start builds a fresh worker through the Factory, so config and roster
// edits take effect on restart. The production factory validates the
// config and verifies the Riot API key before anything is launched.
//
// Stop cancels the worker and waits up to the shutdown ceiling. A worker
// that ignores cancellation is abandoned; it keeps the instance lock
// until it finally exits.
//
// When the worker ends because the API key was rejected the store is
// halted with an alert telling the operator to fix the key and restart.
//
// # Logging
//
// Records fan out to a JSON file and either stderr (headless) or the
// dashboard. The tail of the previous log file seeds the dashboard so the
// log pane is not empty on start.
package app
