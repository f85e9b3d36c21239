package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/lookout/internal/config"
	"github.com/five82/lookout/internal/logging"
	"github.com/five82/lookout/internal/logtail"
	"github.com/five82/lookout/internal/prefs"
	"github.com/five82/lookout/internal/state"
	"github.com/five82/lookout/internal/ui"
)

const logHistoryLines = 200

// Options configure the lookout application.
type Options struct {
	ConfigPath string
	RosterPath string // overrides roster_path from the config
	PrefsPath  string // empty uses ~/.config/lookout/prefs.toml
	LogOutput  string // overrides log_path from the config
	LogLevel   string
	Headless   bool
	NoInput    bool // never inject key taps, whatever the config says
}

// Run boots lookout until the context is cancelled or the operator quits.
func Run(ctx context.Context, opts Options) error {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logPath := cfg.LogPath
	history, _ := logtail.ReadRecords(logPath, logHistoryLines)
	fileHandler, closeLog, err := openLog(logPath)
	if err != nil {
		return err
	}
	defer closeLog()

	handlers := logging.Fanout{fileHandler}
	var tui *logging.TUIHandler
	if opts.Headless {
		handlers = append(handlers, logging.NewTextHandler(os.Stderr, level))
	} else {
		tui = logging.NewTUIHandler(level)
		handlers = append(handlers, tui)
	}
	logger := slog.New(handlers)

	store := &state.Store{}
	service := NewService(store, NewFactory(opts, store, logger), logger, cfg.Timings.ShutdownCeiling)
	defer service.Stop()

	problems := cfg.Validate()
	for _, problem := range problems {
		logger.Warn("config problem", "problem", problem)
	}

	if opts.Headless {
		return runHeadless(ctx, service, store, problems)
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	program := ui.NewProgram(ui.Options{
		Store:     store,
		Service:   service,
		ThemeName: userPrefs.Theme,
		PrefsPath: opts.PrefsPath,
		AutoStart: userPrefs.AutoStart,
		Problems:  problems,
		Seed:      history,
	}, tea.WithContext(ctx))
	tui.SetProgram(program)
	defer tui.SetProgram(nil)

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func runHeadless(ctx context.Context, service *Service, store *state.Store, problems []string) error {
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	if err := service.Start(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return nil
	case <-service.Done():
	}
	if snap := store.Snapshot(); snap.Halted {
		if snap.LastError != nil {
			return fmt.Errorf("service halted: %w", snap.LastError)
		}
		return fmt.Errorf("service halted: %s", snap.Alert)
	}
	return nil
}

func loadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(opts.RosterPath); v != "" {
		cfg.RosterPath = v
	}
	if v := strings.TrimSpace(opts.LogOutput); v != "" {
		cfg.LogPath = v
	}
	if opts.NoInput {
		cfg.InputBackend = config.InputNone
	}
	return cfg, nil
}

func openLog(path string) (slog.Handler, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	return logging.OpenFile(path)
}
