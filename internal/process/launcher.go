package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/five82/lookout/internal/riot"
)

// ErrExitedEarly means the viewer died inside the launch grace window.
var ErrExitedEarly = errors.New("viewer exited during launch")

const defaultGrace = time.Second

// Invocation is a fully resolved viewer command line.
type Invocation struct {
	Dir  string
	Path string
	Args []string
}

func (i Invocation) String() string {
	return strings.Join(append([]string{i.Path}, i.Args...), " ")
}

// Launcher starts the spectator viewer for a match.
type Launcher struct {
	InstallPath string
	Executable  string
	Wrapper     []string // e.g. ["wine"]; empty runs the executable directly
	Grace       time.Duration
	Logger      *slog.Logger
}

// Invocation builds the command line for m without starting anything.
func (l *Launcher) Invocation(m riot.Match) (Invocation, error) {
	gameDir, err := ResolveGameDir(l.InstallPath, l.Executable)
	if err != nil {
		return Invocation{}, err
	}
	region := strings.ToLower(m.Region)
	args := []string{
		fmt.Sprintf("spectator spectator.%s.lol.pvp.net:8080 %s %s %s",
			region, m.EncryptionKey, strconv.FormatInt(m.GameID, 10), strings.ToUpper(region)),
		"-UseRads",
		"-GameBaseDir=..",
		"-Locale=" + ReadLocale(gameDir),
		"-SkipBuild",
		"-EnableCrashpad=true",
		"-EnableLNP",
	}

	exe := filepath.Join(gameDir, l.Executable)
	if len(l.Wrapper) > 0 {
		return Invocation{
			Dir:  gameDir,
			Path: l.Wrapper[0],
			Args: append(append(append([]string{}, l.Wrapper[1:]...), exe), args...),
		}, nil
	}
	return Invocation{Dir: gameDir, Path: exe, Args: args}, nil
}

// Launch starts the viewer and watches it for the grace window. The
// process is not tied to ctx; teardown goes through the Supervisor.
func (l *Launcher) Launch(ctx context.Context, m riot.Match) error {
	inv, err := l.Invocation(m)
	if err != nil {
		return err
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("starting viewer", "dir", inv.Dir, "command", inv.String())

	cmd := exec.Command(inv.Path, inv.Args...)
	cmd.Dir = inv.Dir
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start viewer: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	grace := l.Grace
	if grace <= 0 {
		grace = defaultGrace
	}
	return watchGrace(ctx, done, grace)
}

// watchGrace returns ErrExitedEarly when done fires before grace elapses.
func watchGrace(ctx context.Context, done <-chan error, grace time.Duration) error {
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %w", ErrExitedEarly, err)
		}
		return ErrExitedEarly
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
