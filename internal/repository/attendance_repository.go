package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fieldside/clubcal-api/internal/models"
)

const attendanceColumns = `id, schedule_id, student_id, status, comment, created_at, updated_at`

// AttendanceRepository persists per-(instance, student) response rows.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// FindByID loads an attendance row by id.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendances WHERE id = $1`, attendanceColumns)
	var att models.Attendance
	if err := r.db.GetContext(ctx, &att, query, id); err != nil {
		return nil, err
	}
	return &att, nil
}

// ListBySchedule returns all response rows for one instance.
func (r *AttendanceRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendances WHERE schedule_id = $1 ORDER BY created_at ASC`, attendanceColumns)
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list attendances: %w", err)
	}
	return rows, nil
}

// Upsert writes the row for (schedule, student), creating it on first
// response and updating status/comment afterwards. The unique constraint on
// (schedule_id, student_id) makes concurrent upserts converge on one row.
func (r *AttendanceRepository) Upsert(ctx context.Context, att *models.Attendance) (*models.Attendance, error) {
	if att.ID == "" {
		att.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if att.CreatedAt.IsZero() {
		att.CreatedAt = now
	}
	att.UpdatedAt = now

	query := fmt.Sprintf(`INSERT INTO attendances (id, schedule_id, student_id, status, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (schedule_id, student_id)
		DO UPDATE SET status = EXCLUDED.status, comment = EXCLUDED.comment, updated_at = EXCLUDED.updated_at
		RETURNING %s`, attendanceColumns)

	var stored models.Attendance
	if err := r.db.GetContext(ctx, &stored, query,
		att.ID, att.ScheduleID, att.StudentID, att.Status, att.Comment, att.CreatedAt, att.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return &stored, nil
}

// UpdateScheduleID rewrites the row's instance link in place, preserving the
// row id and audit continuity. Returns the updated row.
func (r *AttendanceRepository) UpdateScheduleID(ctx context.Context, id, scheduleID string) (*models.Attendance, error) {
	query := fmt.Sprintf(`UPDATE attendances SET schedule_id = $1, updated_at = $2 WHERE id = $3 RETURNING %s`, attendanceColumns)
	var stored models.Attendance
	if err := r.db.GetContext(ctx, &stored, query, scheduleID, time.Now().UTC(), id); err != nil {
		return nil, err
	}
	return &stored, nil
}

// CountsByStatus aggregates responses for one instance straight from the
// stored rows; nothing is cached so the counts always match the table.
func (r *AttendanceRepository) CountsByStatus(ctx context.Context, scheduleID string) (*models.AttendanceCounts, error) {
	const query = `SELECT
		COUNT(*) FILTER (WHERE status = $2) AS confirmed,
		COUNT(*) FILTER (WHERE status = $3) AS tentative,
		COUNT(*) FILTER (WHERE status = $4) AS declined
		FROM attendances WHERE schedule_id = $1`
	var counts models.AttendanceCounts
	if err := r.db.GetContext(ctx, &counts, query, scheduleID,
		models.AttendanceConfirmed, models.AttendanceTentative, models.AttendanceDeclined,
	); err != nil {
		return nil, fmt.Errorf("count attendances: %w", err)
	}
	return &counts, nil
}
