package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	SessionRepository    *SessionRepository
	RecordRepository     *RecordRepository
	EnrollmentRepository *EnrollmentRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		SessionRepository:    NewSessionRepository(db),
		RecordRepository:     NewRecordRepository(db),
		EnrollmentRepository: NewEnrollmentRepository(db),
	}
}
