package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/five82/lookout/internal/camera"
	"github.com/five82/lookout/internal/config"
	"github.com/five82/lookout/internal/liveclient"
	"github.com/five82/lookout/internal/obs"
	"github.com/five82/lookout/internal/process"
	"github.com/five82/lookout/internal/riot"
	"github.com/five82/lookout/internal/roster"
	"github.com/five82/lookout/internal/scheduler"
	"github.com/five82/lookout/internal/session"
	"github.com/five82/lookout/internal/state"
)

const keyPresses = 4

// NewFactory returns the production Factory: it reloads the config and
// roster, verifies the API key and wires every component.
func NewFactory(opts Options, store *state.Store, logger *slog.Logger) Factory {
	return func(ctx context.Context) (Worker, error) {
		cfg, err := loadConfig(opts)
		if err != nil {
			return nil, err
		}
		if problems := cfg.Validate(); len(problems) > 0 {
			return nil, fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
		}

		ids, err := roster.Open(cfg.RosterPath)
		if err != nil {
			return nil, err
		}
		store.SetRoster(roster.Snapshot(ids.Identities()))

		client, err := riot.NewClient(riot.Options{APIKey: cfg.APIKey})
		if err != nil {
			return nil, err
		}
		if err := client.VerifyKey(ctx, verifyRegion(ids.Identities())); err != nil {
			return nil, fmt.Errorf("verify api key: %w", err)
		}

		return Build(cfg, Deps{
			Logger: logger,
			Store:  store,
			Roster: ids,
			Lookup: client,
		}), nil
	}
}

// Deps are the pieces Build does not construct itself.
type Deps struct {
	Logger *slog.Logger
	Store  *state.Store
	Roster roster.Provider
	Lookup riot.MatchFinder
}

// Build wires the session controller and scheduler from cfg.
func Build(cfg config.Config, deps Deps) Worker {
	logger := deps.Logger
	t := cfg.Timings

	supervisor := process.NewSupervisor(cfg.Executable, logger)

	var keyboard camera.Keyboard = camera.Xdotool{}
	if cfg.InputBackend == config.InputNone {
		keyboard = camera.Noop{}
	}

	var bridge *obs.Bridge
	var broadcaster session.Broadcaster
	if cfg.OBS.Enabled {
		bridge = &obs.Bridge{
			Addr:     cfg.OBSAddress(),
			Password: cfg.OBS.Password,
			Server:   cfg.OBS.Server,
			Logger:   logger,
		}
		broadcaster = bridge
	}

	controller := session.New(session.Options{
		Logger:     logger,
		Supervisor: supervisor,
		Launcher: &process.Launcher{
			InstallPath: cfg.InstallPath,
			Executable:  cfg.Executable,
			Wrapper:     cfg.Wrapper,
			Grace:       t.LaunchGrace,
			Logger:      logger,
		},
		Prober: liveclient.New(cfg.TelemetryURL),
		Focuser: &camera.Automation{
			Keyboard: keyboard,
			Presses:  keyPresses,
			Gap:      t.KeyGap,
			Logger:   logger,
		},
		Broadcaster: broadcaster,
		Timings: session.Timings{
			ProcessPoll:      t.ProcessPoll,
			ProcessTimeout:   t.ProcessTimeout,
			GameReadyPoll:    t.GameReadyPoll,
			GameReadyTimeout: t.GameReadyTimeout,
			TelemetryPoll:    t.TelemetryPoll,
			TelemetryTimeout: t.TelemetryTimeout,
			Settle:           t.Settle,
			Teardown:         t.ShutdownCeiling,
		},
		OnChange: deps.Store.SetSession,
	})

	sched := scheduler.New(scheduler.Options{
		Logger:  logger,
		Roster:  deps.Roster,
		Lookup:  deps.Lookup,
		Session: controller,
		Viewer:  supervisor,
		Filter: riot.Filter{
			MinDuration: cfg.MinDuration,
			MaxDuration: cfg.MaxDuration,
			Modes:       cfg.Modes,
		},
		CycleDelay:     t.CycleDelay,
		PauseInterval:  t.PauseInterval,
		LookupCooldown: t.LookupCooldown,
		OnCycle: func(report scheduler.Report) {
			deps.Store.RecordCycle(report)
			deps.Store.SetRoster(roster.Snapshot(deps.Roster.Identities()))
		},
	})

	return &worker{scheduler: sched, bridge: bridge}
}

type worker struct {
	scheduler *scheduler.Scheduler
	bridge    *obs.Bridge
}

func (w *worker) Run(ctx context.Context) error {
	if w.bridge != nil {
		defer func() { _ = w.bridge.Close() }()
	}
	return w.scheduler.Run(ctx)
}

// verifyRegion picks the platform used for the key check: the first
// enabled identity's region, or euw1 for an empty roster.
func verifyRegion(ids []roster.Identity) string {
	if enabled := roster.Snapshot(ids); len(enabled) > 0 && enabled[0].Region != "" {
		return enabled[0].Region
	}
	return "euw1"
}
