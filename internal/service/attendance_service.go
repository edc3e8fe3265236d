package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fieldside/clubcal-api/internal/models"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
)

// Postgres class 23 integrity violation raised by a duplicate key.
const uniqueViolation = "23505"

type attendanceRepository interface {
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.Attendance, error)
	Upsert(ctx context.Context, att *models.Attendance) (*models.Attendance, error)
	UpdateScheduleID(ctx context.Context, id, scheduleID string) (*models.Attendance, error)
	CountsByStatus(ctx context.Context, scheduleID string) (*models.AttendanceCounts, error)
}

type attendanceScheduleReader interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
}

// AttendanceService owns response rows and the transfer operation between
// same-day instances.
type AttendanceService struct {
	repo      attendanceRepository
	schedules attendanceScheduleReader
	activity  *ActivityService
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewAttendanceService(repo attendanceRepository, schedules attendanceScheduleReader, activity *ActivityService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:      repo,
		schedules: schedules,
		activity:  activity,
		validate:  validate,
		logger:    logger,
	}
}

// SetStatusRequest registers or updates one student's response to an
// instance.
type SetStatusRequest struct {
	ScheduleID string  `json:"scheduleId" validate:"required,uuid"`
	StudentID  string  `json:"studentId" validate:"required,uuid"`
	Status     string  `json:"status" validate:"required"`
	Comment    *string `json:"comment,omitempty" validate:"omitempty,max=500"`
}

// TransferRequest moves an existing response row to another instance on the
// same calendar day.
type TransferRequest struct {
	TargetScheduleID string `json:"targetScheduleId" validate:"required,uuid"`
}

// SetStatus upserts the (schedule, student) row. Calling it twice with the
// same payload leaves exactly one row with the latest status and comment.
func (s *AttendanceService) SetStatus(ctx context.Context, teamID string, actorID *string, req *SetStatusRequest) (*models.Attendance, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrValidation, err)
	}
	status := models.AttendanceStatus(req.Status)
	if !status.Valid() {
		return nil, appErrors.New("VALIDATION_ERROR", "status must be CONFIRMED, TENTATIVE, or DECLINED", 400)
	}

	schedule, err := s.schedules.FindByID(ctx, req.ScheduleID)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	if schedule.TeamID != teamID {
		return nil, appErrors.ErrCrossTeam
	}

	stored, err := s.repo.Upsert(ctx, &models.Attendance{
		ScheduleID: req.ScheduleID,
		StudentID:  req.StudentID,
		Status:     status,
		Comment:    req.Comment,
	})
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}

	if s.activity != nil {
		s.activity.Record(ctx, teamID, actorID, "attendance.set", "attendance", stored.ID, map[string]string{
			"schedule_id": stored.ScheduleID,
			"student_id":  stored.StudentID,
			"status":      string(stored.Status),
		})
	}
	return stored, nil
}

// Transfer rewrites a response row's instance link to a same-day target.
// The target must exist, belong to the same team, and fall on the same
// calendar day as the current instance; otherwise the transfer is rejected
// and the row is untouched. Transferring to the row's current instance is a
// no-op that succeeds.
func (s *AttendanceService) Transfer(ctx context.Context, teamID string, actorID *string, attendanceID string, req *TransferRequest) (*models.Attendance, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrValidation, err)
	}

	att, err := s.repo.FindByID(ctx, attendanceID)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}

	current, err := s.schedules.FindByID(ctx, att.ScheduleID)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	if current.TeamID != teamID {
		return nil, appErrors.ErrCrossTeam
	}

	if req.TargetScheduleID == att.ScheduleID {
		return att, nil
	}

	target, err := s.schedules.FindByID(ctx, req.TargetScheduleID)
	if err != nil {
		return nil, appErrors.ErrInvalidTarget
	}
	if target.TeamID != teamID {
		return nil, appErrors.ErrInvalidTarget
	}
	if !DateOnly(target.Date).Equal(DateOnly(current.Date)) {
		return nil, appErrors.ErrInvalidTarget
	}

	stored, err := s.repo.UpdateScheduleID(ctx, att.ID, target.ID)
	if err != nil {
		// The (schedule_id, student_id) unique key fires when the student
		// already responded to the target instance.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, appErrors.Clone(appErrors.ErrInvalidTarget, "student already has a response on the target instance")
		}
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}

	s.logger.Info("attendance transferred",
		zap.String("attendance_id", stored.ID),
		zap.String("from_schedule", current.ID),
		zap.String("to_schedule", target.ID))
	if s.activity != nil {
		s.activity.Record(ctx, teamID, actorID, "attendance.transfer", "attendance", stored.ID, map[string]string{
			"from_schedule_id": current.ID,
			"to_schedule_id":   target.ID,
		})
	}
	return stored, nil
}

// Roster returns the response rows and status counts for one instance.
func (s *AttendanceService) Roster(ctx context.Context, teamID, scheduleID string) ([]models.Attendance, *models.AttendanceCounts, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, nil, appErrors.ErrNotFound
	}
	if schedule.TeamID != teamID {
		return nil, nil, appErrors.ErrCrossTeam
	}

	rows, err := s.repo.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	counts, err := s.repo.CountsByStatus(ctx, scheduleID)
	if err != nil {
		return nil, nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	return rows, counts, nil
}

// Counts aggregates responses for one instance.
func (s *AttendanceService) Counts(ctx context.Context, teamID, scheduleID string) (*models.AttendanceCounts, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	if schedule.TeamID != teamID {
		return nil, appErrors.ErrCrossTeam
	}
	counts, err := s.repo.CountsByStatus(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	return counts, nil
}
