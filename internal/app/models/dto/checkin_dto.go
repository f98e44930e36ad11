package dto

import (
	"time"

	"github.com/atlasedu/rollcall/internal/app/models"
)

// CheckInRequest is a student's attempt to register presence within a
// session. The student identity comes from the bearer token, not the body.
type CheckInRequest struct {
	Location *Coordinate `json:"location" binding:"required"`
	Code     *string     `json:"code,omitempty"`
}

// CheckInResponse confirms an accepted check-in.
type CheckInResponse struct {
	RecordID    string    `json:"recordId"`
	SessionID   string    `json:"sessionId"`
	CheckedInAt time.Time `json:"checkedInAt"`
	Distance    *float64  `json:"distance,omitempty"`
}

// RecordResponse is one attendance record in a session report.
type RecordResponse struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"studentId"`
	StudentName string     `json:"studentName,omitempty"`
	Location    Coordinate `json:"location"`
	Distance    *float64   `json:"distance,omitempty"`
	CheckedInAt time.Time  `json:"checkedInAt"`
}

// FromRecordWithStudent converts a joined record to its response shape.
func FromRecordWithStudent(record *models.RecordWithStudent) RecordResponse {
	if record == nil {
		return RecordResponse{}
	}
	return RecordResponse{
		ID:          record.ID,
		StudentID:   record.StudentID,
		StudentName: record.StudentName,
		Location:    Coordinate{Lat: record.Location.Lat, Long: record.Location.Long},
		Distance:    record.Distance,
		CheckedInAt: record.CheckedInAt,
	}
}

// RecordListResponse is a session attendance report.
type RecordListResponse struct {
	SessionID string           `json:"sessionId"`
	Records   []RecordResponse `json:"records"`
	Total     int              `json:"total"`
}
