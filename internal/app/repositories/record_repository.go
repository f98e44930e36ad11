package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlasedu/rollcall/internal/app/models"
	"github.com/atlasedu/rollcall/internal/pkg/apperrors"
	"github.com/atlasedu/rollcall/internal/pkg/dberrors"
)

// UniqueSessionStudentConstraint is the unique constraint enforcing at
// most one record per (session, student) pair.
const UniqueSessionStudentConstraint = "attendance_records_session_student_key"

// RecordRepository handles database operations for attendance records.
type RecordRepository struct {
	db *pgxpool.Pool
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{
		db: db,
	}
}

// Insert writes a new attendance record. The unique constraint on
// (attendance_session_id, student_id) is the single point of commit:
// two racing inserts for the same student cannot both succeed, and the
// loser surfaces as ErrAlreadyCheckedIn.
func (r *RecordRepository) Insert(ctx context.Context, record *models.AttendanceRecord) error {
	query := `
		INSERT INTO attendance_records
			(id, attendance_session_id, student_id, course_id, latitude, longitude, distance, checked_in_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.AttendanceSessionID,
		record.StudentID,
		record.CourseID,
		record.Location.Lat,
		record.Location.Long,
		record.Distance,
		record.CheckedInAt,
	)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, UniqueSessionStudentConstraint) {
			return apperrors.ErrAlreadyCheckedIn
		}
		return fmt.Errorf("error inserting attendance record: %w", err)
	}
	return nil
}

// Exists reports whether a record already exists for the pair. This is
// the cheap pre-check; the insert above remains the authority under
// concurrency.
func (r *RecordRepository) Exists(ctx context.Context, sessionID, studentID string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM attendance_records
			WHERE attendance_session_id = $1 AND student_id = $2
		)
	`

	if err := r.db.QueryRow(ctx, query, sessionID, studentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking attendance record existence: %w", err)
	}
	return exists, nil
}

// ListBySession retrieves all records for one session joined with the
// roster's student names, in check-in order.
func (r *RecordRepository) ListBySession(ctx context.Context, sessionID string) ([]*models.RecordWithStudent, error) {
	query := `
		SELECT r.id, r.attendance_session_id, r.student_id, r.course_id,
		       r.latitude, r.longitude, r.distance, r.checked_in_at,
		       COALESCE(e.student_name, '')
		FROM attendance_records r
		LEFT JOIN course_enrollments e
		  ON e.course_id = r.course_id AND e.student_id = r.student_id
		WHERE r.attendance_session_id = $1
		ORDER BY r.checked_in_at
	`

	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error listing session records: %w", err)
	}
	defer rows.Close()

	var records []*models.RecordWithStudent
	for rows.Next() {
		var record models.RecordWithStudent
		err := rows.Scan(
			&record.ID,
			&record.AttendanceSessionID,
			&record.StudentID,
			&record.CourseID,
			&record.Location.Lat,
			&record.Location.Long,
			&record.Distance,
			&record.CheckedInAt,
			&record.StudentName,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning record row: %w", err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
