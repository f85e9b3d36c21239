package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/lookout/internal/riot"
	"github.com/five82/lookout/internal/roster"
	"github.com/five82/lookout/internal/scheduler"
	"github.com/five82/lookout/internal/session"
)

func TestStore_RecordCycleAndSnapshotClone(t *testing.T) {
	var s Store

	s.SetRoster([]roster.Identity{{Name: "A"}, {Name: "B"}})
	s.SetSession(session.Snapshot{Stage: session.Active, Match: &riot.Match{GameID: 7}})

	at := time.Now()
	s.RecordCycle(scheduler.Report{At: at, Checked: 2, Selected: "B"})

	snap := s.Snapshot()
	if snap.Checked != 2 || snap.Selected != "B" || !snap.LastCycle.Equal(at) {
		t.Fatalf("snapshot cycle = %+v, want checked=2 selected=B", snap)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Roster[0].Name = "mutated"
	snap.Session.Match.GameID = 999
	snap2 := s.Snapshot()
	if snap2.Roster[0].Name != "A" {
		t.Fatalf("Snapshot should clone roster; got %q want A", snap2.Roster[0].Name)
	}
	if snap2.Session.Match.GameID != 7 {
		t.Fatalf("Snapshot should clone match; got %d want 7", snap2.Session.Match.GameID)
	}
}

func TestStore_CycleErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.RecordCycle(scheduler.Report{At: time.Now(), Checked: 3})
	prev := s.Snapshot()

	origErr := errors.New("boom")
	s.RecordCycle(scheduler.Report{At: time.Now(), Checked: 1, Err: origErr})

	snap := s.Snapshot()
	if snap.Checked != prev.Checked {
		t.Fatalf("Checked changed on error: got %d want %d", snap.Checked, prev.Checked)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	s.RecordCycle(scheduler.Report{Err: errors.New("one")})
	if s.Snapshot().IsDegraded() {
		t.Fatalf("IsDegraded after one failure = true, want false")
	}
	s.RecordCycle(scheduler.Report{Err: errors.New("two")})
	if !s.Snapshot().IsDegraded() {
		t.Fatalf("IsDegraded after two failures = false, want true")
	}
	s.RecordCycle(scheduler.Report{})
	if got := s.Snapshot().ConsecutiveFailures; got != 0 {
		t.Fatalf("ConsecutiveFailures after success = %d, want 0", got)
	}
}

func TestStore_HaltAndRestart(t *testing.T) {
	var s Store

	s.SetRunning(true)
	s.Halt("update the key", errors.New("403"))
	snap := s.Snapshot()
	if snap.Running || !snap.Halted || snap.Alert != "update the key" {
		t.Fatalf("after Halt = %+v", snap)
	}

	s.DismissAlert()
	if snap := s.Snapshot(); snap.Alert != "" || !snap.Halted {
		t.Fatalf("after DismissAlert = %+v, want halted without alert", snap)
	}

	s.SetRunning(true)
	snap = s.Snapshot()
	if !snap.Running || snap.Halted || snap.LastError != nil {
		t.Fatalf("after restart = %+v, want running and cleared", snap)
	}
}
