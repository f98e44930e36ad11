// Package seed installs development fixtures: a demo course roster so
// check-ins can be exercised without the campus enrollment system.
package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/atlasedu/rollcall/internal/pkg/dberrors"
)

type enrollment struct {
	courseID    string
	studentID   string
	studentName string
}

var defaultRoster = []enrollment{
	{"CENG-301", "student-ada", "Ada Yilmaz"},
	{"CENG-301", "student-berk", "Berk Demir"},
	{"CENG-301", "student-ceren", "Ceren Aksoy"},
	{"MATH-210", "student-ada", "Ada Yilmaz"},
	{"MATH-210", "student-deniz", "Deniz Kaya"},
}

// CreateDefaultData enrolls the demo roster if the rows are not already
// present. Intended for development mode only.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default enrollment data...")

	var finalErr error
	for _, e := range defaultRoster {
		_, err := dbPool.Exec(ctx, `
			INSERT INTO course_enrollments (course_id, student_id, student_name)
			VALUES ($1, $2, $3)
		`, e.courseID, e.studentID, e.studentName)
		if err != nil {
			if dberrors.IsUniqueViolation(err) {
				continue
			}
			lgr.Error().Err(err).
				Str("courseID", e.courseID).
				Str("studentID", e.studentID).
				Msg("Error creating enrollment")
			finalErr = errors.Join(finalErr, err)
		}
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}
