package models

import "time"

// CourseEnrollment maps a student to a course. The roster subsystem owns
// this data; the attendance core reads it only as an enrollment predicate
// and for display names in reports.
type CourseEnrollment struct {
	CourseID    string    `json:"courseId"`
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName"`
	EnrolledAt  time.Time `json:"enrolledAt"`
}
