package models

import (
	"time"

	"github.com/atlasedu/rollcall/internal/pkg/geo"
)

// SessionStatus is the lifecycle state of an attendance session.
type SessionStatus string

const (
	// SessionStatusPending is the initial preparation window.
	SessionStatusPending SessionStatus = "pending"
	// SessionStatusActive is the window during which check-ins are accepted.
	SessionStatusActive SessionStatus = "active"
	// SessionStatusComplete is the terminal state.
	SessionStatusComplete SessionStatus = "complete"
)

// AttendanceSession is a time-bounded attendance-taking window for one
// course meeting. Status only ever moves forward: pending, active,
// complete. EndedAt is fixed at creation and never mutated.
type AttendanceSession struct {
	ID             string        `json:"id"`
	CourseID       string        `json:"courseId"`
	LecturerID     string        `json:"lecturerId"`
	Location       geo.Point     `json:"location"`
	RadiusMeters   *float64      `json:"radiusMeters,omitempty"`
	AttendanceCode *string       `json:"attendanceCode,omitempty"`
	Status         SessionStatus `json:"status"`
	StartedAt      time.Time     `json:"startedAt"`
	EndedAt        time.Time     `json:"endedAt"`
}

// RequiresCode reports whether check-ins must supply an attendance code.
func (s *AttendanceSession) RequiresCode() bool {
	return s.AttendanceCode != nil && *s.AttendanceCode != ""
}
