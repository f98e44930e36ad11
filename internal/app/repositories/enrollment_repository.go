package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnrollmentRepository reads the course roster. The roster subsystem owns
// the table; this core only consumes it as an enrollment predicate.
type EnrollmentRepository struct {
	db *pgxpool.Pool
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{
		db: db,
	}
}

// IsEnrolled reports whether the student is enrolled in the course.
func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	var enrolled bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM course_enrollments
			WHERE course_id = $1 AND student_id = $2
		)
	`

	if err := r.db.QueryRow(ctx, query, courseID, studentID).Scan(&enrolled); err != nil {
		return false, fmt.Errorf("error checking enrollment: %w", err)
	}
	return enrolled, nil
}
