package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/five82/lookout/internal/riot"
	"github.com/five82/lookout/internal/roster"
)

// State is the session lifecycle stage.
type State int

const (
	Idle State = iota
	Launching
	AwaitingProcess
	AwaitingGameReady
	AwaitingTelemetry
	CameraFocus
	Active
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Launching:
		return "Launching"
	case AwaitingProcess:
		return "AwaitingProcess"
	case AwaitingGameReady:
		return "AwaitingGameReady"
	case AwaitingTelemetry:
		return "AwaitingTelemetry"
	case CameraFocus:
		return "CameraFocus"
	case Active:
		return "Active"
	case Stopping:
		return "Stopping"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrSessionActive is returned by Run when a session is already in
	// progress.
	ErrSessionActive = errors.New("session already active")
	// ErrLaunchFailure means the viewer could not be started.
	ErrLaunchFailure = errors.New("viewer launch failed")
	// ErrReadinessTimeout means a readiness gate never opened.
	ErrReadinessTimeout = errors.New("readiness timeout")
)

// StageError records the stage a session failed in.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Snapshot is an immutable copy of the session for other layers.
type Snapshot struct {
	ID        string
	Identity  roster.Identity
	Match     *riot.Match
	Stage     State
	StartedAt time.Time
	LastError *StageError
}

// InProgress reports whether the session is anything but Idle.
func (s Snapshot) InProgress() bool {
	return s.Stage != Idle
}

func (s Snapshot) clone() Snapshot {
	out := s
	if s.Match != nil {
		m := *s.Match
		m.Participants = append([]riot.Participant(nil), s.Match.Participants...)
		out.Match = &m
	}
	if s.LastError != nil {
		e := *s.LastError
		out.LastError = &e
	}
	return out
}
