package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Memory is a timer-backed Scheduler for development and tests. Tasks do
// not survive a process restart; production deployments use Postgres.
type Memory struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewMemory creates an in-process scheduler over the given registry.
func NewMemory(registry *Registry, logger zerolog.Logger) *Memory {
	return &Memory{
		registry: registry,
		logger:   logger,
	}
}

// RunAfter schedules a task to fire after the given delay.
func (s *Memory) RunAfter(_ context.Context, delay time.Duration, handler string, args map[string]string) error {
	if delay < 0 {
		delay = 0
	}

	time.AfterFunc(delay, func() {
		if err := s.registry.Invoke(context.Background(), handler, args); err != nil {
			s.logger.Error().
				Err(err).
				Str("handler", handler).
				Msg("In-memory task handler failed")
		}
	})
	return nil
}

// RunAt schedules a task to fire at the given instant. Instants in the
// past fire immediately.
func (s *Memory) RunAt(ctx context.Context, at time.Time, handler string, args map[string]string) error {
	return s.RunAfter(ctx, time.Until(at), handler, args)
}
