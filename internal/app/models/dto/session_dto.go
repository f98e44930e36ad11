package dto

import (
	"time"

	"github.com/atlasedu/rollcall/internal/app/models"
)

// Coordinate is a lat/long pair in decimal degrees.
type Coordinate struct {
	Lat  float64 `json:"lat" binding:"latitude"`
	Long float64 `json:"long" binding:"longitude"`
}

// StartSessionRequest creates a new attendance session for a course
// meeting. When RequireCode is set and no explicit code is supplied, the
// server generates one.
type StartSessionRequest struct {
	CourseID       string      `json:"courseId" binding:"required"`
	Location       *Coordinate `json:"location" binding:"required"`
	RadiusMeters   *float64    `json:"radiusMeters,omitempty" binding:"omitempty,gt=0"`
	RequireCode    bool        `json:"requireCode"`
	AttendanceCode *string     `json:"attendanceCode,omitempty" binding:"omitempty,attendance_code"`
}

// SessionResponse is the public shape of an attendance session.
type SessionResponse struct {
	ID             string     `json:"id"`
	CourseID       string     `json:"courseId"`
	LecturerID     string     `json:"lecturerId"`
	Location       Coordinate `json:"location"`
	RadiusMeters   *float64   `json:"radiusMeters,omitempty"`
	AttendanceCode *string    `json:"attendanceCode,omitempty"`
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"startedAt"`
	EndedAt        time.Time  `json:"endedAt"`
}

// FromSession converts a session model to its response shape.
func FromSession(session *models.AttendanceSession) SessionResponse {
	if session == nil {
		return SessionResponse{}
	}
	return SessionResponse{
		ID:             session.ID,
		CourseID:       session.CourseID,
		LecturerID:     session.LecturerID,
		Location:       Coordinate{Lat: session.Location.Lat, Long: session.Location.Long},
		RadiusMeters:   session.RadiusMeters,
		AttendanceCode: session.AttendanceCode,
		Status:         string(session.Status),
		StartedAt:      session.StartedAt,
		EndedAt:        session.EndedAt,
	}
}

// SessionListResponse is a paginated list of sessions for a course.
type SessionListResponse struct {
	Sessions   []SessionResponse `json:"sessions"`
	Pagination PaginationInfo    `json:"pagination"`
}
