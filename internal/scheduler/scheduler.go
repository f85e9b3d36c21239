// Package scheduler runs the poll loop: pause while a viewer is open,
// otherwise look up every enabled identity in priority order and hand the
// first eligible live game to the session controller.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/five82/lookout/internal/riot"
	"github.com/five82/lookout/internal/roster"
	"github.com/five82/lookout/internal/session"
)

// ErrHalted wraps the error that stopped the loop for good.
var ErrHalted = errors.New("scheduler halted")

// Session is the part of the session controller the loop drives.
type Session interface {
	Run(ctx context.Context, id roster.Identity, match riot.Match) error
	Finish(reason string)
	Stop()
	Snapshot() session.Snapshot
}

// Viewer reports whether a spectator viewer is open.
type Viewer interface {
	Running(ctx context.Context) bool
}

// Report summarises one cycle.
type Report struct {
	At       time.Time
	Paused   bool
	Checked  int
	Selected string
	Err      error
}

// Options wires a Scheduler. Zero durations take the stock values.
type Options struct {
	Logger         *slog.Logger
	Roster         roster.Provider
	Lookup         riot.MatchFinder
	Session        Session
	Viewer         Viewer
	Filter         riot.Filter
	CycleDelay     time.Duration
	PauseInterval  time.Duration
	LookupCooldown time.Duration
	OnCycle        func(Report)
}

const (
	defaultCycleDelay     = 35 * time.Second
	defaultPauseInterval  = 5 * time.Second
	defaultLookupCooldown = 3 * time.Second
)

// Scheduler is the poll loop.
type Scheduler struct {
	opts    Options
	logger  *slog.Logger
	limiter *rate.Limiter
}

// New builds a Scheduler.
func New(opts Options) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CycleDelay <= 0 {
		opts.CycleDelay = defaultCycleDelay
	}
	if opts.PauseInterval <= 0 {
		opts.PauseInterval = defaultPauseInterval
	}
	if opts.LookupCooldown <= 0 {
		opts.LookupCooldown = defaultLookupCooldown
	}
	if opts.Filter.MaxDuration == 0 && len(opts.Filter.Modes) == 0 {
		opts.Filter = riot.DefaultFilter()
	}
	return &Scheduler{
		opts:    opts,
		logger:  opts.Logger,
		limiter: rate.NewLimiter(rate.Every(opts.LookupCooldown), 1),
	}
}

// Run loops until ctx is cancelled or the API key is rejected. A
// cancellation returns nil; a rejected key returns an error wrapping both
// ErrHalted and riot.ErrCredentialExpired. Any session in progress is
// stopped before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.opts.Session.Stop()

	s.logger.Info("scheduler started")
	for {
		wait, err := s.cycle(ctx)
		switch {
		case ctx.Err() != nil:
			s.logger.Info("scheduler stopped")
			return nil
		case errors.Is(err, riot.ErrCredentialExpired):
			s.logger.Error("riot api key rejected, halting", "error", err)
			return fmt.Errorf("%w: %w", ErrHalted, err)
		case err != nil:
			s.logger.Error("cycle failed", "error", err)
			wait = s.opts.PauseInterval
		}

		if err := sleep(ctx, wait); err != nil {
			s.logger.Info("scheduler stopped")
			return nil
		}
	}
}

// cycle runs one pass and returns how long to wait before the next.
func (s *Scheduler) cycle(ctx context.Context) (time.Duration, error) {
	report := Report{At: time.Now()}
	defer func() {
		if s.opts.OnCycle != nil {
			s.opts.OnCycle(report)
		}
	}()

	if s.opts.Viewer.Running(ctx) {
		report.Paused = true
		s.logger.Debug("viewer running, checks paused")
		return s.opts.PauseInterval, nil
	}
	if s.opts.Session.Snapshot().Stage == session.Active {
		s.opts.Session.Finish("viewer closed")
		s.logger.Info("viewer closed, resuming checks")
	}

	ids := roster.Snapshot(s.opts.Roster.Identities())
	if len(ids) == 0 {
		s.logger.Warn("no enabled identities in roster")
		return s.opts.CycleDelay, nil
	}

	for _, id := range ids {
		if err := s.limiter.Wait(ctx); err != nil {
			report.Err = err
			return 0, err
		}
		report.Checked++

		match, err := s.lookup(ctx, id)
		if err != nil {
			report.Err = err
			return 0, err
		}
		if match == nil {
			continue
		}

		report.Selected = id.Name
		s.logger.Info("live game found", "identity", id.Name, "game_id", match.GameID, "mode", match.Mode)
		if err := s.opts.Session.Run(ctx, id, *match); err != nil {
			report.Err = err
		}
		return s.opts.PauseInterval, nil
	}

	s.logger.Info("no spectatable game", "checked", report.Checked)
	return s.opts.CycleDelay, nil
}

// lookup returns an eligible match for id, or nil. Only errors that end
// the cycle are returned.
func (s *Scheduler) lookup(ctx context.Context, id roster.Identity) (*riot.Match, error) {
	logger := s.logger.With("identity", id.Name)

	result, err := s.opts.Lookup.FindActiveMatch(ctx, id)
	if result.Resolved && result.AccountRef != "" {
		if saveErr := s.opts.Roster.SaveAccountRef(id.Name, result.AccountRef); saveErr != nil {
			logger.Warn("account reference not saved", "error", saveErr)
		}
	}

	switch {
	case err == nil:
	case errors.Is(err, riot.ErrCredentialExpired), ctx.Err() != nil:
		return nil, err
	case errors.Is(err, riot.ErrMalformed):
		logger.Error("malformed game data", "error", err)
		return nil, nil
	case errors.Is(err, riot.ErrTransient), errors.Is(err, riot.ErrUnknownIdentity):
		logger.Warn("lookup skipped", "error", err)
		return nil, nil
	default:
		logger.Error("lookup failed", "error", err)
		return nil, nil
	}

	if result.Match == nil {
		logger.Debug("not in game")
		return nil, nil
	}
	if err := riot.Eligible(*result.Match, s.opts.Filter); err != nil {
		logger.Info("game skipped", "reason", err.Error())
		return nil, nil
	}
	return result.Match, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
