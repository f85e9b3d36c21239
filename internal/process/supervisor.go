package process

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// Supervisor finds and terminates OS processes by executable name.
type Supervisor struct {
	Name   string
	Logger *slog.Logger
}

// NewSupervisor returns a Supervisor watching name.
func NewSupervisor(name string, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{Name: name, Logger: logger}
}

// Running reports whether any process with the supervised name exists.
// Enumeration errors count as not running.
func (s *Supervisor) Running(ctx context.Context) bool {
	procs, err := s.matching(ctx)
	if err != nil {
		s.Logger.Debug("process enumeration failed", "error", err)
		return false
	}
	return len(procs) > 0
}

// Kill terminates every process with the supervised name and reports
// whether at least one was signalled. It makes a single pass; processes
// that vanish or refuse the signal are skipped.
func (s *Supervisor) Kill(ctx context.Context) bool {
	procs, err := s.matching(ctx)
	if err != nil {
		s.Logger.Debug("process enumeration failed", "error", err)
		return false
	}
	killed := false
	for _, p := range procs {
		if err := p.KillWithContext(ctx); err != nil {
			s.Logger.Debug("kill failed", "pid", p.Pid, "error", err)
			continue
		}
		killed = true
	}
	return killed
}

func (s *Supervisor) matching(ctx context.Context) ([]*process.Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	var out []*process.Process
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if matchesName(name, s.Name) {
			out = append(out, p)
		}
	}
	return out, nil
}

// matchesName compares process names case-insensitively. Linux truncates
// comm to 15 bytes, so a truncated prefix of want also matches.
func matchesName(got, want string) bool {
	if got == "" || want == "" {
		return false
	}
	if strings.EqualFold(got, want) {
		return true
	}
	const commLen = 15
	return len(got) == commLen && len(want) > commLen && strings.EqualFold(got, want[:commLen])
}
