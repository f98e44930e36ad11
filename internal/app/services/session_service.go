package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atlasedu/rollcall/internal/app/models"
	"github.com/atlasedu/rollcall/internal/pkg/apperrors"
	"github.com/atlasedu/rollcall/internal/pkg/geo"
	"github.com/atlasedu/rollcall/internal/pkg/metrics"
	"github.com/atlasedu/rollcall/internal/pkg/scheduler"
)

// Scheduler task handler names and argument keys.
const (
	HandlerActivateSession = "session.activate"
	HandlerEndSession      = "session.end"

	TaskArgSessionID = "sessionId"
)

// SessionService owns the attendance session state machine.
type SessionService interface {
	// Start creates a session in pending state and schedules its two
	// transitions: activation at half the session duration, completion at
	// the full duration.
	Start(ctx context.Context, input StartSessionInput) (*models.AttendanceSession, error)
	// Activate moves a pending session to active. Invoked by the
	// scheduler; any other current status is a no-op.
	Activate(ctx context.Context, sessionID string) error
	// End moves a session to complete regardless of current status.
	// Invoked by the scheduler; repeated calls are no-ops.
	End(ctx context.Context, sessionID string) error
	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, sessionID string) (*models.AttendanceSession, error)
	// ListCourseSessions retrieves a page of sessions for a course.
	ListCourseSessions(ctx context.Context, courseID string, offset uint64, limit int) ([]*models.AttendanceSession, int64, error)
}

// StartSessionInput carries the lecturer's parameters for a new session.
type StartSessionInput struct {
	CourseID       string
	LecturerID     string
	Location       geo.Point
	RadiusMeters   *float64
	AttendanceCode *string
}

// sessionServiceImpl implements the SessionService interface
type sessionServiceImpl struct {
	sessions SessionStore
	sched    scheduler.Scheduler
	duration time.Duration
	logger   zerolog.Logger
}

// NewSessionService creates a new session service instance. duration is
// the total session lifetime; the active window is its second half.
func NewSessionService(sessions SessionStore, sched scheduler.Scheduler, duration time.Duration, logger zerolog.Logger) SessionService {
	return &sessionServiceImpl{
		sessions: sessions,
		sched:    sched,
		duration: duration,
		logger:   logger,
	}
}

func (s *sessionServiceImpl) Start(ctx context.Context, input StartSessionInput) (*models.AttendanceSession, error) {
	if input.CourseID == "" {
		return nil, fmt.Errorf("%w: course ID is required", apperrors.ErrValidationFailed)
	}
	if input.LecturerID == "" {
		return nil, fmt.Errorf("%w: lecturer ID is required", apperrors.ErrValidationFailed)
	}
	if !input.Location.Valid() {
		return nil, fmt.Errorf("%w: location is not a valid lat/long pair", apperrors.ErrValidationFailed)
	}
	if input.RadiusMeters != nil && *input.RadiusMeters <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", apperrors.ErrValidationFailed)
	}

	now := time.Now().UTC()
	session := &models.AttendanceSession{
		ID:             uuid.NewString(),
		CourseID:       input.CourseID,
		LecturerID:     input.LecturerID,
		Location:       input.Location,
		RadiusMeters:   input.RadiusMeters,
		AttendanceCode: input.AttendanceCode,
		Status:         models.SessionStatusPending,
		StartedAt:      now,
		EndedAt:        now.Add(s.duration),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	// Both transitions must be durably scheduled before Start returns.
	// A session whose timers were never registered would be stuck in
	// pending forever, so a scheduling failure rolls the creation back.
	args := map[string]string{TaskArgSessionID: session.ID}
	activateAt := session.StartedAt.Add(s.duration / 2)

	if err := s.sched.RunAt(ctx, activateAt, HandlerActivateSession, args); err != nil {
		s.rollbackCreate(ctx, session.ID, err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSchedulingFailure, err)
	}
	if err := s.sched.RunAt(ctx, session.EndedAt, HandlerEndSession, args); err != nil {
		s.rollbackCreate(ctx, session.ID, err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSchedulingFailure, err)
	}

	metrics.SessionsStarted.Inc()
	s.logger.Info().
		Str("sessionID", session.ID).
		Str("courseID", session.CourseID).
		Time("activateAt", activateAt).
		Time("endsAt", session.EndedAt).
		Bool("codeRequired", session.RequiresCode()).
		Msg("Attendance session started")

	return session, nil
}

func (s *sessionServiceImpl) rollbackCreate(ctx context.Context, sessionID string, cause error) {
	s.logger.Error().
		Err(cause).
		Str("sessionID", sessionID).
		Msg("Failed to schedule session transitions, rolling back creation")

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.Error().Err(err).Str("sessionID", sessionID).Msg("Rollback delete failed")
	}
}

func (s *sessionServiceImpl) Activate(ctx context.Context, sessionID string) error {
	transitioned, err := s.sessions.Activate(ctx, sessionID)
	if err != nil {
		return err
	}

	// The scheduler delivers at-least-once and without cross-task
	// ordering, so a duplicate delivery, a delivery after End already
	// ran, or a delivery for a rolled-back session all land here with
	// transitioned == false. All are silent no-ops.
	if transitioned {
		metrics.SessionTransitions.WithLabelValues(string(models.SessionStatusActive)).Inc()
		s.logger.Info().Str("sessionID", sessionID).Msg("Attendance session activated")
	} else {
		s.logger.Debug().Str("sessionID", sessionID).Msg("Activate skipped, session not pending")
	}
	return nil
}

func (s *sessionServiceImpl) End(ctx context.Context, sessionID string) error {
	transitioned, err := s.sessions.Complete(ctx, sessionID)
	if err != nil {
		return err
	}

	if transitioned {
		metrics.SessionTransitions.WithLabelValues(string(models.SessionStatusComplete)).Inc()
		s.logger.Info().Str("sessionID", sessionID).Msg("Attendance session completed")
	} else {
		s.logger.Debug().Str("sessionID", sessionID).Msg("End skipped, session already complete")
	}
	return nil
}

func (s *sessionServiceImpl) GetSession(ctx context.Context, sessionID string) (*models.AttendanceSession, error) {
	return s.sessions.GetByID(ctx, sessionID)
}

func (s *sessionServiceImpl) ListCourseSessions(ctx context.Context, courseID string, offset uint64, limit int) ([]*models.AttendanceSession, int64, error) {
	if courseID == "" {
		return nil, 0, fmt.Errorf("%w: course ID is required", apperrors.ErrValidationFailed)
	}
	return s.sessions.ListByCourse(ctx, courseID, offset, limit)
}
