// Package scheduler drives the simulation engine on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/voltgrid/voltgrid-core/internal/simulation"
)

// TickRunner is the slice of the engine the scheduler needs.
type TickRunner interface {
	RunTick(ctx context.Context) (*simulation.TickResult, error)
}

// Logger is the minimal logging interface the scheduler needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Scheduler fires the engine every interval. A tick that is still
// running when the next interval arrives is skipped, never queued.
type Scheduler struct {
	runner   TickRunner
	interval time.Duration
	log      Logger

	startOnce sync.Once
	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// New creates a scheduler. Start must be called to begin ticking.
func New(runner TickRunner, interval time.Duration, log Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.New("scheduler: tick runner is required")
	}
	if interval <= 0 {
		return nil, errors.New("scheduler: interval must be positive")
	}
	if log == nil {
		return nil, errors.New("scheduler: logger is required")
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start launches the tick loop in a background goroutine. Subsequent
// calls are no-ops.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go s.run(ctx)
	})
}

// Close stops the loop and waits for any in-progress tick to finish.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	s.log.Info("simulation scheduler started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			s.log.Info("simulation scheduler stopped", "reason", ctx.Err())
			return
		case <-s.stop:
			s.log.Info("simulation scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	result, err := s.runner.RunTick(ctx)
	switch {
	case errors.Is(err, simulation.ErrTickInProgress):
		s.log.Warn("tick skipped, previous tick still running")
	case err != nil:
		s.log.Error("tick failed", "error", err)
	default:
		s.log.Info("tick complete",
			"devices", result.Devices,
			"owners", result.Owners,
			"published", result.Published,
			"failures", result.Failures,
			"duration", result.Duration)
	}
}
