package models

import (
	"time"

	"github.com/atlasedu/rollcall/internal/pkg/geo"
)

// AttendanceRecord is a single accepted check-in. Records are append-only:
// at most one exists per (session, student) pair and none is ever updated
// or deleted.
type AttendanceRecord struct {
	ID                  string    `json:"id"`
	AttendanceSessionID string    `json:"attendanceSessionId"`
	StudentID           string    `json:"studentId"`
	CourseID            string    `json:"courseId"`
	Location            geo.Point `json:"location"`
	Distance            *float64  `json:"distance,omitempty"`
	CheckedInAt         time.Time `json:"checkedInAt"`
}

// RecordWithStudent joins a record with the roster's display name for
// session reports.
type RecordWithStudent struct {
	AttendanceRecord
	StudentName string `json:"studentName"`
}
