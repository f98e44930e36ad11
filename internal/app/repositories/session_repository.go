package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlasedu/rollcall/internal/app/models"
	"github.com/atlasedu/rollcall/internal/pkg/apperrors"
)

// SessionRepository handles database operations for attendance sessions.
type SessionRepository struct {
	db *pgxpool.Pool
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{
		db: db,
	}
}

const sessionColumns = `id, course_id, lecturer_id, latitude, longitude, radius_meters, attendance_code, status, started_at, ended_at`

// Create persists a new attendance session.
func (r *SessionRepository) Create(ctx context.Context, session *models.AttendanceSession) error {
	query := `
		INSERT INTO attendance_sessions
			(id, course_id, lecturer_id, latitude, longitude, radius_meters, attendance_code, status, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		session.ID,
		session.CourseID,
		session.LecturerID,
		session.Location.Lat,
		session.Location.Long,
		session.RadiusMeters,
		session.AttendanceCode,
		session.Status,
		session.StartedAt,
		session.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("error creating attendance session: %w", err)
	}
	return nil
}

// GetByID retrieves a session by ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.AttendanceSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM attendance_sessions
		WHERE id = $1
	`

	session, err := r.scanSession(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("error retrieving attendance session: %w", err)
	}
	return session, nil
}

// Activate moves a session from pending to active. Any other current
// status leaves the row untouched, which makes duplicate scheduler
// deliveries safe.
func (r *SessionRepository) Activate(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE attendance_sessions
		SET status = $2
		WHERE id = $1 AND status = $3
	`

	tag, err := r.db.Exec(ctx, query, id, models.SessionStatusActive, models.SessionStatusPending)
	if err != nil {
		return false, fmt.Errorf("error activating attendance session: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Complete moves a session to the terminal state regardless of its
// current status. Repeated calls are no-ops.
func (r *SessionRepository) Complete(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE attendance_sessions
		SET status = $2
		WHERE id = $1 AND status <> $2
	`

	tag, err := r.db.Exec(ctx, query, id, models.SessionStatusComplete)
	if err != nil {
		return false, fmt.Errorf("error completing attendance session: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes a session. Only used to roll back a creation whose
// transition scheduling failed; completed sessions are never deleted.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM attendance_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting attendance session: %w", err)
	}
	return nil
}

// ListByCourse retrieves sessions for a course, newest first.
func (r *SessionRepository) ListByCourse(ctx context.Context, courseID string, offset uint64, limit int) ([]*models.AttendanceSession, int64, error) {
	countSQL, countArgs, err := squirrel.Select("COUNT(*)").
		From("attendance_sessions").
		Where("course_id = ?", courseID).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting course sessions: %w", err)
	}

	query := squirrel.Select("id", "course_id", "lecturer_id", "latitude", "longitude",
		"radius_meters", "attendance_code", "status", "started_at", "ended_at").
		From("attendance_sessions").
		Where("course_id = ?", courseID).
		OrderBy("started_at DESC").
		Offset(offset).
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing course sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.AttendanceSession
	for rows.Next() {
		session, err := r.scanSession(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning session row: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (r *SessionRepository) scanSession(row pgx.Row) (*models.AttendanceSession, error) {
	var session models.AttendanceSession
	err := row.Scan(
		&session.ID,
		&session.CourseID,
		&session.LecturerID,
		&session.Location.Lat,
		&session.Location.Long,
		&session.RadiusMeters,
		&session.AttendanceCode,
		&session.Status,
		&session.StartedAt,
		&session.EndedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}
