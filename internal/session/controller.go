package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/five82/lookout/internal/liveclient"
	"github.com/five82/lookout/internal/logging"
	"github.com/five82/lookout/internal/riot"
	"github.com/five82/lookout/internal/roster"
)

// Supervisor watches the viewer process.
type Supervisor interface {
	Running(ctx context.Context) bool
	Kill(ctx context.Context) bool
}

// Launcher starts the viewer for a match.
type Launcher interface {
	Launch(ctx context.Context, m riot.Match) error
}

// Prober answers the two telemetry readiness questions.
type Prober interface {
	GameReady(ctx context.Context) (bool, error)
	TelemetryReady(ctx context.Context) ([]liveclient.Player, bool, error)
}

// Focuser points the camera at a player.
type Focuser interface {
	Focus(ctx context.Context, players []liveclient.Player, riotID string) error
}

// Broadcaster starts and stops the stream output.
type Broadcaster interface {
	Start(ctx context.Context, id roster.Identity) error
	Stop(ctx context.Context) error
}

// Timings are the waits of each readiness gate.
type Timings struct {
	ProcessPoll      time.Duration
	ProcessTimeout   time.Duration
	GameReadyPoll    time.Duration
	GameReadyTimeout time.Duration
	TelemetryPoll    time.Duration
	TelemetryTimeout time.Duration
	Settle           time.Duration
	Teardown         time.Duration
}

// DefaultTimings returns the stock gate waits.
func DefaultTimings() Timings {
	return Timings{
		ProcessPoll:      time.Second,
		ProcessTimeout:   45 * time.Second,
		GameReadyPoll:    5 * time.Second,
		GameReadyTimeout: 60 * time.Second,
		TelemetryPoll:    2 * time.Second,
		TelemetryTimeout: 30 * time.Second,
		Settle:           3 * time.Second,
		Teardown:         10 * time.Second,
	}
}

// Options wires a Controller. Broadcaster and OnChange are optional.
type Options struct {
	Logger      *slog.Logger
	Supervisor  Supervisor
	Launcher    Launcher
	Prober      Prober
	Focuser     Focuser
	Broadcaster Broadcaster
	Timings     Timings
	OnChange    func(Snapshot)
}

// Controller runs one spectate session at a time. Run, Finish and Stop
// are called from the scheduler goroutine only; Snapshot is safe from
// anywhere.
type Controller struct {
	opts   Options
	logger *slog.Logger

	mu   sync.RWMutex
	snap Snapshot

	broadcasting bool
}

// New builds a Controller in the Idle state.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timings == (Timings{}) {
		opts.Timings = DefaultTimings()
	}
	if opts.Timings.Teardown <= 0 {
		opts.Timings.Teardown = DefaultTimings().Teardown
	}
	return &Controller{opts: opts, logger: logger}
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.clone()
}

// Run drives a session from Launching to Active. It returns nil once the
// session is Active and leaves it there; any stage failure tears the
// session down to Idle and is returned as a *StageError.
func (c *Controller) Run(ctx context.Context, id roster.Identity, match riot.Match) error {
	c.mu.Lock()
	if c.snap.Stage != Idle {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.snap = Snapshot{
		ID:        uuid.NewString(),
		Identity:  id,
		Match:     &match,
		Stage:     Launching,
		StartedAt: time.Now(),
	}
	c.mu.Unlock()
	c.notify()

	logger := c.logger.With("identity", id.Name, "session", c.Snapshot().ID)
	logger.Info("launching viewer", "game_id", match.GameID, "mode", match.Mode, "region", match.Region)

	if err := c.opts.Launcher.Launch(ctx, match); err != nil {
		return c.fail(logger, Launching, fmt.Errorf("%w: %w", ErrLaunchFailure, err))
	}

	t := c.opts.Timings

	c.enter(AwaitingProcess)
	if err := fixedPoll(ctx, t.ProcessPoll, t.ProcessTimeout, func(ctx context.Context) (bool, error) {
		return c.opts.Supervisor.Running(ctx), nil
	}); err != nil {
		return c.fail(logger, AwaitingProcess, err)
	}

	c.enter(AwaitingGameReady)
	if err := fixedPoll(ctx, t.GameReadyPoll, t.GameReadyTimeout, c.opts.Prober.GameReady); err != nil {
		return c.fail(logger, AwaitingGameReady, err)
	}

	c.enter(AwaitingTelemetry)
	var players []liveclient.Player
	if err := fixedPoll(ctx, t.TelemetryPoll, t.TelemetryTimeout, func(ctx context.Context) (bool, error) {
		list, ok, err := c.opts.Prober.TelemetryReady(ctx)
		players = list
		return ok, err
	}); err != nil {
		return c.fail(logger, AwaitingTelemetry, err)
	}

	if err := sleep(ctx, t.Settle); err != nil {
		return c.fail(logger, AwaitingTelemetry, err)
	}

	c.enter(CameraFocus)
	if err := c.opts.Focuser.Focus(ctx, players, id.RiotID); err != nil {
		if ctx.Err() != nil {
			return c.fail(logger, CameraFocus, ctx.Err())
		}
		logger.Warn("camera focus failed", "stage", CameraFocus.String(), "error", err)
	}

	c.enter(Active)
	logging.Success(ctx, logger, "spectating", "game_id", match.GameID)

	if c.opts.Broadcaster != nil {
		if err := c.opts.Broadcaster.Start(ctx, id); err != nil {
			logger.Warn("broadcast start failed", "stage", Active.String(), "error", err)
		} else {
			c.broadcasting = true
		}
	}
	return nil
}

// Finish ends an Active session whose viewer has gone away. It is a no-op
// in any other state.
func (c *Controller) Finish(reason string) {
	if c.Snapshot().Stage != Active {
		return
	}
	c.logger.Info("session finished", "identity", c.Snapshot().Identity.Name, "reason", reason)
	c.teardown(false)
}

// Stop tears down any session in progress, killing the viewer. Calling it
// again, or while Idle, does nothing.
func (c *Controller) Stop() {
	if c.Snapshot().Stage == Idle {
		return
	}
	c.logger.Info("stopping session", "identity", c.Snapshot().Identity.Name)
	c.teardown(true)
}

func (c *Controller) fail(logger *slog.Logger, stage State, err error) error {
	stageErr := &StageError{Stage: stage, Err: err}
	c.mu.Lock()
	c.snap.LastError = stageErr
	c.mu.Unlock()

	if errors.Is(err, context.Canceled) {
		logger.Info("session cancelled", "stage", stage.String())
	} else {
		logger.Error("session failed", "stage", stage.String(), "error", err)
	}
	c.teardown(true)
	return stageErr
}

// teardown runs Stopping with its own deadline so a cancelled worker
// context still kills the viewer.
func (c *Controller) teardown(kill bool) {
	c.enter(Stopping)

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timings.Teardown)
	defer cancel()

	if kill && c.opts.Supervisor.Kill(ctx) {
		c.logger.Info("viewer terminated")
	}
	if c.broadcasting {
		if err := c.opts.Broadcaster.Stop(ctx); err != nil {
			c.logger.Warn("broadcast stop failed", "error", err)
		}
		c.broadcasting = false
	}

	c.mu.Lock()
	c.snap = Snapshot{Stage: Idle, LastError: c.snap.LastError}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) enter(stage State) {
	c.mu.Lock()
	c.snap.Stage = stage
	c.mu.Unlock()
	c.logger.Debug("session stage", "stage", stage.String())
	c.notify()
}

func (c *Controller) notify() {
	if c.opts.OnChange != nil {
		c.opts.OnChange(c.Snapshot())
	}
}

var errNotReady = errors.New("not ready")

// fixedPoll probes every interval until probe reports ready or timeout
// elapses. Probe errors count as not ready; the first probe runs
// immediately.
func fixedPoll(ctx context.Context, interval, timeout time.Duration, probe func(context.Context) (bool, error)) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		ok, err := probe(ctx)
		switch {
		case err != nil:
			return struct{}{}, fmt.Errorf("%w: %w", errNotReady, err)
		case !ok:
			return struct{}{}, errNotReady
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(interval)),
		backoff.WithMaxElapsedTime(timeout),
	)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w after %s: %w", ErrReadinessTimeout, timeout, err)
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
