// Package scheduler runs the periodic background sweeps: re-triage of
// unassignable cases and auto-close of resolved cases past their grace
// period.
package scheduler

import (
	"context"
	"time"

	"github.com/strayaid-systems/strayaid/internal/dispatch"
	"github.com/strayaid-systems/strayaid/pkg/logging"
)

// Config holds the sweep intervals.
type Config struct {
	RetriageInterval time.Duration
	CloseInterval    time.Duration
}

// DefaultConfig returns the default sweep intervals.
func DefaultConfig() Config {
	return Config{
		RetriageInterval: 2 * time.Minute,
		CloseInterval:    15 * time.Minute,
	}
}

// Scheduler drives the dispatch coordinator's sweeps on timers.
type Scheduler struct {
	coordinator *dispatch.Coordinator
	cfg         Config
	logger      *logging.Logger
	stop        chan struct{}
	stopped     chan struct{}
}

// New creates a scheduler.
func New(coordinator *dispatch.Coordinator, cfg Config, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		coordinator: coordinator,
		cfg:         cfg,
		logger:      logger,
		stop:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

// Start begins the sweep loops. This should be called in a goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	defer close(s.stopped)

	retriage := time.NewTicker(s.cfg.RetriageInterval)
	defer retriage.Stop()
	closeTicker := time.NewTicker(s.cfg.CloseInterval)
	defer closeTicker.Stop()

	s.logger.Info("scheduler started",
		logging.Component("scheduler"),
		"retriage_interval", s.cfg.RetriageInterval,
		"close_interval", s.cfg.CloseInterval)

	for {
		select {
		case <-retriage.C:
			if err := s.coordinator.SweepUnassignable(ctx); err != nil {
				s.logger.Error("unassignable sweep failed", logging.Error(err))
			}
		case <-closeTicker.C:
			if err := s.coordinator.SweepResolved(ctx); err != nil {
				s.logger.Error("resolved sweep failed", logging.Error(err))
			}
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop signals the loops to stop and waits for them to finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.stopped
}
