package services

import (
	"context"

	"github.com/atlasedu/rollcall/internal/app/models"
)

// Services defined in this package:
// - SessionService: owns the session state machine (start, activate, end)
// - CheckInService: validates and commits student check-ins

// SessionStore is the session persistence the lifecycle manager needs.
// Implemented by repositories.SessionRepository; tests inject fakes.
type SessionStore interface {
	Create(ctx context.Context, session *models.AttendanceSession) error
	GetByID(ctx context.Context, id string) (*models.AttendanceSession, error)
	Activate(ctx context.Context, id string) (bool, error)
	Complete(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	ListByCourse(ctx context.Context, courseID string, offset uint64, limit int) ([]*models.AttendanceSession, int64, error)
}

// RecordStore is the attendance record persistence the check-in validator
// needs. Insert must enforce (session, student) uniqueness atomically and
// return apperrors.ErrAlreadyCheckedIn on collision.
type RecordStore interface {
	Insert(ctx context.Context, record *models.AttendanceRecord) error
	Exists(ctx context.Context, sessionID, studentID string) (bool, error)
	ListBySession(ctx context.Context, sessionID string) ([]*models.RecordWithStudent, error)
}

// EnrollmentOracle answers the enrollment predicate. The roster subsystem
// owns the data behind it.
type EnrollmentOracle interface {
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
}

// RecordBroadcaster publishes accepted check-ins to live session feeds.
type RecordBroadcaster interface {
	BroadcastRecord(record *models.AttendanceRecord)
}
