// Package ui implements the lookout dashboard using Bubble Tea.
//
// # Layout
//
//	┌ header: service status, session stage, last check ─────────────┐
//	│ Session panel              │ Roster panel                       │
//	│ Log viewport (live records, newest at the bottom)              │
//	└ footer: key hints ──────────────────────────────────────────────┘
//
// # Data Flow
//
// The dashboard never talks to the scheduler or the session controller.
// A tick fetches a state.Snapshot from the shared store; log records
// arrive as logging.Record messages sent by logging.TUIHandler. Starting
// and stopping the service run as commands so the event loop never
// blocks on network or process work.
//
// When the service halts on an expired key, the store carries an alert
// and the dashboard shows it as a modal until dismissed or restarted.
//
// Theme changes are persisted through the prefs package.
package ui
