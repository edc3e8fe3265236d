package models

import "time"

// AttendanceStatus is a student's response to a schedule instance.
type AttendanceStatus string

const (
	AttendanceConfirmed AttendanceStatus = "CONFIRMED"
	AttendanceTentative AttendanceStatus = "TENTATIVE"
	AttendanceDeclined  AttendanceStatus = "DECLINED"
)

// Valid reports whether the status is one of the supported values.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceConfirmed, AttendanceTentative, AttendanceDeclined:
		return true
	}
	return false
}

// Attendance is the per-(instance, student) response row. At most one row
// exists per (ScheduleID, StudentID); writes are upserts against that
// unique key. A transfer rewrites ScheduleID in place so the row id and its
// history survive the move.
type Attendance struct {
	ID         string           `db:"id" json:"id"`
	ScheduleID string           `db:"schedule_id" json:"schedule_id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	Status     AttendanceStatus `db:"status" json:"status"`
	Comment    *string          `db:"comment" json:"comment,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceCounts aggregates responses for one schedule instance.
type AttendanceCounts struct {
	Confirmed int `db:"confirmed" json:"confirmed"`
	Tentative int `db:"tentative" json:"tentative"`
	Declined  int `db:"declined" json:"declined"`
}
