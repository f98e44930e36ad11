package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Postgres is a Scheduler backed by a scheduled_tasks table. Tasks survive
// process restarts; a dispatcher polls for due tasks, claims them with
// FOR UPDATE SKIP LOCKED so multiple replicas never run the same row
// concurrently, and deletes them only after the handler succeeds.
type Postgres struct {
	pool         *pgxpool.Pool
	registry     *Registry
	pollInterval time.Duration
	batchSize    int
	retryDelay   time.Duration
	logger       zerolog.Logger
}

// PostgresConfig holds dispatcher tuning knobs.
type PostgresConfig struct {
	PollInterval time.Duration
	BatchSize    int
	RetryDelay   time.Duration
}

// NewPostgres creates a Postgres-backed scheduler.
func NewPostgres(pool *pgxpool.Pool, registry *Registry, cfg PostgresConfig, logger zerolog.Logger) *Postgres {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}

	return &Postgres{
		pool:         pool,
		registry:     registry,
		pollInterval: cfg.PollInterval,
		batchSize:    cfg.BatchSize,
		retryDelay:   cfg.RetryDelay,
		logger:       logger,
	}
}

// RunAfter schedules a task to fire after the given delay.
func (s *Postgres) RunAfter(ctx context.Context, delay time.Duration, handler string, args map[string]string) error {
	return s.RunAt(ctx, time.Now().UTC().Add(delay), handler, args)
}

// RunAt schedules a task to fire at the given instant. The insert is
// durable before RunAt returns.
func (s *Postgres) RunAt(ctx context.Context, at time.Time, handler string, args map[string]string) error {
	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to encode task args: %w", err)
	}

	query := `
		INSERT INTO scheduled_tasks (id, handler, args, fire_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := s.pool.Exec(ctx, query, uuid.NewString(), handler, payload, at.UTC()); err != nil {
		return fmt.Errorf("failed to persist scheduled task: %w", err)
	}
	return nil
}

// Run polls for due tasks until the context is cancelled.
func (s *Postgres) Run(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.logger.Info().
		Dur("pollInterval", s.pollInterval).
		Int("batchSize", s.batchSize).
		Msg("Scheduler dispatcher started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Scheduler dispatcher stopped")
			return
		case <-ticker.C:
			if err := s.dispatchDue(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error().Err(err).Msg("Scheduler dispatch pass failed")
			}
		}
	}
}

type claimedTask struct {
	id      string
	handler string
	args    map[string]string
}

// dispatchDue claims and executes one batch of due tasks. Execution runs
// inside the claiming transaction: if the process dies mid-handler the
// claim rolls back and another dispatcher re-delivers the task.
func (s *Postgres) dispatchDue(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin claim transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query := `
		SELECT id, handler, args
		FROM scheduled_tasks
		WHERE fire_at <= NOW()
		ORDER BY fire_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := tx.Query(ctx, query, s.batchSize)
	if err != nil {
		return fmt.Errorf("failed to query due tasks: %w", err)
	}

	var tasks []claimedTask
	for rows.Next() {
		var task claimedTask
		var payload []byte
		if err := rows.Scan(&task.id, &task.handler, &payload); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan task row: %w", err)
		}
		if err := json.Unmarshal(payload, &task.args); err != nil {
			rows.Close()
			return fmt.Errorf("failed to decode args for task %s: %w", task.id, err)
		}
		tasks = append(tasks, task)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read due tasks: %w", err)
	}

	for _, task := range tasks {
		s.execute(ctx, tx, task)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit claim transaction: %w", err)
	}
	return nil
}

func (s *Postgres) execute(ctx context.Context, tx pgx.Tx, task claimedTask) {
	if err := s.registry.Invoke(ctx, task.handler, task.args); err != nil {
		s.logger.Warn().
			Err(err).
			Str("taskID", task.id).
			Str("handler", task.handler).
			Msg("Task handler failed, scheduling retry")

		retryQuery := `
			UPDATE scheduled_tasks
			SET attempts = attempts + 1, fire_at = NOW() + make_interval(secs => $2)
			WHERE id = $1
		`
		if _, err := tx.Exec(ctx, retryQuery, task.id, s.retryDelay.Seconds()); err != nil {
			s.logger.Error().Err(err).Str("taskID", task.id).Msg("Failed to reschedule task")
		}
		return
	}

	if _, err := tx.Exec(ctx, `DELETE FROM scheduled_tasks WHERE id = $1`, task.id); err != nil {
		s.logger.Error().Err(err).Str("taskID", task.id).Msg("Failed to delete completed task")
	}

	s.logger.Debug().
		Str("taskID", task.id).
		Str("handler", task.handler).
		Msg("Task executed")
}
