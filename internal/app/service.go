package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/five82/lookout/internal/riot"
	"github.com/five82/lookout/internal/state"
)

// ErrAlreadyRunning is returned by Start while a worker is alive.
var ErrAlreadyRunning = errors.New("service already running")

const haltAlert = "Riot API key expired or invalid. Update api_key in the config and press s to restart."

const defaultShutdownCeiling = 10 * time.Second

// Worker is one run of the poll loop.
type Worker interface {
	Run(ctx context.Context) error
}

// Factory builds a fresh worker. It runs on every Start so edits to the
// config and roster files are picked up on restart.
type Factory func(ctx context.Context) (Worker, error)

// Service owns the background worker. At most one worker runs at a time;
// Start and Stop are safe from any goroutine.
type Service struct {
	store   *state.Store
	factory Factory
	logger  *slog.Logger
	ceiling time.Duration

	sem *semaphore.Weighted

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewService builds a stopped Service. A zero ceiling uses 10s.
func NewService(store *state.Store, factory Factory, logger *slog.Logger, ceiling time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if ceiling <= 0 {
		ceiling = defaultShutdownCeiling
	}
	return &Service{
		store:   store,
		factory: factory,
		logger:  logger,
		ceiling: ceiling,
		sem:     semaphore.NewWeighted(1),
	}
}

// Start builds a worker and runs it in the background. It fails with
// ErrAlreadyRunning while a previous worker has not exited yet.
func (s *Service) Start() error {
	if !s.sem.TryAcquire(1) {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	worker, err := s.factory(ctx)
	if err != nil {
		cancel()
		s.sem.Release(1)
		if errors.Is(err, riot.ErrCredentialExpired) {
			s.store.Halt(haltAlert, err)
		}
		s.logger.Error("service start failed", "error", err)
		return fmt.Errorf("start service: %w", err)
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	s.store.SetRunning(true)
	s.logger.Info("service started")
	go s.run(ctx, cancel, worker, done)
	return nil
}

func (s *Service) run(ctx context.Context, cancel context.CancelFunc, worker Worker, done chan struct{}) {
	defer close(done)
	defer s.sem.Release(1)
	defer cancel()

	err := worker.Run(ctx)
	switch {
	case err == nil:
		s.store.SetRunning(false)
		s.logger.Info("service stopped")
	case errors.Is(err, riot.ErrCredentialExpired):
		s.store.Halt(haltAlert, err)
		s.logger.Error("service halted", "error", err)
	default:
		s.store.Halt("Service stopped unexpectedly. Press s to restart.", err)
		s.logger.Error("service stopped unexpectedly", "error", err)
	}
}

// Stop cancels the worker and waits for it up to the shutdown ceiling.
// A worker that outlives the ceiling is abandoned. Stop is idempotent.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	timer := time.NewTimer(s.ceiling)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		s.logger.Warn("worker did not stop in time, abandoning it", "ceiling", s.ceiling)
		s.store.SetRunning(false)
	}
}

// Running reports whether a worker is alive.
func (s *Service) Running() bool {
	done := s.Done()
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Done returns a channel closed when the current worker exits. With no
// worker the channel is already closed.
func (s *Service) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return s.done
}
