package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atlasedu/rollcall/internal/app/models"
	"github.com/atlasedu/rollcall/internal/pkg/apperrors"
	"github.com/atlasedu/rollcall/internal/pkg/geo"
	"github.com/atlasedu/rollcall/internal/pkg/metrics"
)

// CheckInService validates and commits student check-ins.
type CheckInService interface {
	// Submit runs the ordered validation pipeline for one check-in
	// attempt and commits an attendance record on success.
	Submit(ctx context.Context, input SubmitCheckInInput) (*models.AttendanceRecord, error)
	// ListSessionRecords returns the attendance report for a session.
	ListSessionRecords(ctx context.Context, sessionID string) ([]*models.RecordWithStudent, error)
}

// SubmitCheckInInput carries one student's check-in attempt.
type SubmitCheckInInput struct {
	SessionID string
	StudentID string
	Location  geo.Point
	Code      *string
}

// checkInServiceImpl implements the CheckInService interface
type checkInServiceImpl struct {
	sessions      SessionStore
	records       RecordStore
	enrollments   EnrollmentOracle
	broadcaster   RecordBroadcaster
	defaultRadius float64
	logger        zerolog.Logger
}

// NewCheckInService creates a new check-in service instance.
// defaultRadius applies to sessions created without an explicit radius.
// broadcaster may be nil when no live feed is wired.
func NewCheckInService(
	sessions SessionStore,
	records RecordStore,
	enrollments EnrollmentOracle,
	broadcaster RecordBroadcaster,
	defaultRadius float64,
	logger zerolog.Logger,
) CheckInService {
	return &checkInServiceImpl{
		sessions:      sessions,
		records:       records,
		enrollments:   enrollments,
		broadcaster:   broadcaster,
		defaultRadius: defaultRadius,
		logger:        logger,
	}
}

// Submit validates strictly in order: existence, liveness, enrollment,
// deduplication, proximity, code. The first failing check terminates the
// attempt; nothing is written before every check has passed. The code
// check runs last on purpose: it must not leak whether a guessed code is
// right to a caller who has not already passed the location check.
func (s *checkInServiceImpl) Submit(ctx context.Context, input SubmitCheckInInput) (*models.AttendanceRecord, error) {
	if input.StudentID == "" {
		return nil, fmt.Errorf("%w: student ID is required", apperrors.ErrValidationFailed)
	}
	if !input.Location.Valid() {
		return nil, fmt.Errorf("%w: location is not a valid lat/long pair", apperrors.ErrValidationFailed)
	}

	session, err := s.sessions.GetByID(ctx, input.SessionID)
	if err != nil {
		s.countOutcome(err)
		return nil, err
	}

	if session.Status != models.SessionStatusActive {
		metrics.CheckIns.WithLabelValues(metrics.OutcomeSessionNotActive).Inc()
		return nil, apperrors.ErrSessionNotActive
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, session.CourseID, input.StudentID)
	if err != nil {
		metrics.CheckIns.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		metrics.CheckIns.WithLabelValues(metrics.OutcomeNotEnrolled).Inc()
		return nil, apperrors.ErrNotEnrolled
	}

	// Cheap pre-check; the unique constraint at insert time is what
	// actually guarantees at-most-one under concurrent submissions.
	exists, err := s.records.Exists(ctx, session.ID, input.StudentID)
	if err != nil {
		metrics.CheckIns.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to check prior record: %w", err)
	}
	if exists {
		metrics.CheckIns.WithLabelValues(metrics.OutcomeAlreadyCheckedIn).Inc()
		return nil, apperrors.ErrAlreadyCheckedIn
	}

	radius := s.defaultRadius
	if session.RadiusMeters != nil {
		radius = *session.RadiusMeters
	}
	distance := geo.Distance(session.Location, input.Location)
	if distance > radius {
		metrics.CheckIns.WithLabelValues(metrics.OutcomeOutOfRange).Inc()
		return nil, apperrors.ErrOutOfRange
	}

	if session.RequiresCode() {
		if input.Code == nil || *input.Code == "" {
			metrics.CheckIns.WithLabelValues(metrics.OutcomeCodeRejected).Inc()
			return nil, apperrors.ErrCodeRequired
		}
		if *input.Code != *session.AttendanceCode {
			metrics.CheckIns.WithLabelValues(metrics.OutcomeCodeRejected).Inc()
			return nil, apperrors.ErrCodeMismatch
		}
	}

	record := &models.AttendanceRecord{
		ID:                  uuid.NewString(),
		AttendanceSessionID: session.ID,
		StudentID:           input.StudentID,
		CourseID:            session.CourseID,
		Location:            input.Location,
		Distance:            &distance,
		CheckedInAt:         time.Now().UTC(),
	}

	if err := s.records.Insert(ctx, record); err != nil {
		s.countOutcome(err)
		return nil, err
	}

	metrics.CheckIns.WithLabelValues(metrics.OutcomeAccepted).Inc()
	metrics.CheckInDistance.Observe(distance)
	s.logger.Info().
		Str("sessionID", session.ID).
		Str("studentID", input.StudentID).
		Float64("distance", distance).
		Msg("Check-in accepted")

	if s.broadcaster != nil {
		s.broadcaster.BroadcastRecord(record)
	}

	return record, nil
}

func (s *checkInServiceImpl) ListSessionRecords(ctx context.Context, sessionID string) ([]*models.RecordWithStudent, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.records.ListBySession(ctx, sessionID)
}

func (s *checkInServiceImpl) countOutcome(err error) {
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound):
		metrics.CheckIns.WithLabelValues(metrics.OutcomeSessionNotFound).Inc()
	case errors.Is(err, apperrors.ErrAlreadyCheckedIn):
		metrics.CheckIns.WithLabelValues(metrics.OutcomeAlreadyCheckedIn).Inc()
	default:
		metrics.CheckIns.WithLabelValues(metrics.OutcomeError).Inc()
	}
}
