package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/lookout/internal/roster"
	"github.com/five82/lookout/internal/scheduler"
	"github.com/five82/lookout/internal/session"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Running bool   // service worker alive
	Halted  bool   // stopped by a fatal error; needs operator action
	Alert   string // remediation text shown while Halted

	Session session.Snapshot
	Roster  []roster.Identity

	LastCycle           time.Time
	Checked             int
	Paused              bool
	Selected            string
	LastError           error
	ConsecutiveFailures int // cycles in a row that ended with an error
	LastUpdated         time.Time
}

// IsDegraded returns true when several cycles in a row have failed.
func (s Snapshot) IsDegraded() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot. The service worker
// writes; the UI reads.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// SetRunning records whether the worker is alive. Starting clears any
// previous halt.
func (s *Store) SetRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Running = running
	if running {
		s.snapshot.Halted = false
		s.snapshot.Alert = ""
		s.snapshot.ConsecutiveFailures = 0
		s.snapshot.LastError = nil
	}
	s.snapshot.LastUpdated = time.Now()
}

// Halt marks the service as stopped by a fatal error.
func (s *Store) Halt(alert string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Running = false
	s.snapshot.Halted = true
	s.snapshot.Alert = alert
	s.snapshot.LastError = err
	s.snapshot.LastUpdated = time.Now()
}

// DismissAlert hides the alert but keeps the halted flag.
func (s *Store) DismissAlert() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Alert = ""
}

// SetSession stores the latest session snapshot.
func (s *Store) SetSession(snap session.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Session = snap
	s.snapshot.LastUpdated = time.Now()
}

// SetRoster stores the roster as last seen.
func (s *Store) SetRoster(ids []roster.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Roster = slices.Clone(ids)
}

// RecordCycle folds a scheduler report into the snapshot. When the cycle
// failed the previous cycle data is kept but the error is recorded.
func (s *Store) RecordCycle(report scheduler.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if report.Err != nil {
		s.snapshot.LastError = report.Err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.LastCycle = report.At
	s.snapshot.Checked = report.Checked
	s.snapshot.Paused = report.Paused
	s.snapshot.Selected = report.Selected
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Roster = slices.Clone(s.snapshot.Roster)
	if s.snapshot.Session.Match != nil {
		m := *s.snapshot.Session.Match
		snap.Session.Match = &m
	}
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
