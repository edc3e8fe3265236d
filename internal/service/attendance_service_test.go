package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldside/clubcal-api/internal/models"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
)

type mockAttendanceRepo struct {
	rows map[string]models.Attendance
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{rows: make(map[string]models.Attendance)}
}

func (m *mockAttendanceRepo) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("attendance %s not found", id)
	}
	return &row, nil
}

func (m *mockAttendanceRepo) ListBySchedule(ctx context.Context, scheduleID string) ([]models.Attendance, error) {
	var out []models.Attendance
	for _, row := range m.rows {
		if row.ScheduleID == scheduleID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *mockAttendanceRepo) Upsert(ctx context.Context, att *models.Attendance) (*models.Attendance, error) {
	for id, row := range m.rows {
		if row.ScheduleID == att.ScheduleID && row.StudentID == att.StudentID {
			row.Status = att.Status
			row.Comment = att.Comment
			row.UpdatedAt = time.Now().UTC()
			m.rows[id] = row
			return &row, nil
		}
	}
	stored := *att
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	m.rows[stored.ID] = stored
	return &stored, nil
}

func (m *mockAttendanceRepo) UpdateScheduleID(ctx context.Context, id, scheduleID string) (*models.Attendance, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("attendance %s not found", id)
	}
	for otherID, other := range m.rows {
		if otherID != id && other.ScheduleID == scheduleID && other.StudentID == row.StudentID {
			return nil, &pq.Error{Code: "23505", Constraint: "attendances_schedule_id_student_id_key"}
		}
	}
	row.ScheduleID = scheduleID
	row.UpdatedAt = time.Now().UTC()
	m.rows[id] = row
	return &row, nil
}

func (m *mockAttendanceRepo) CountsByStatus(ctx context.Context, scheduleID string) (*models.AttendanceCounts, error) {
	counts := models.AttendanceCounts{}
	for _, row := range m.rows {
		if row.ScheduleID != scheduleID {
			continue
		}
		switch row.Status {
		case models.AttendanceConfirmed:
			counts.Confirmed++
		case models.AttendanceTentative:
			counts.Tentative++
		case models.AttendanceDeclined:
			counts.Declined++
		}
	}
	return &counts, nil
}

func seedSchedule(repo *mockScheduleRepo, teamID, date string) *models.Schedule {
	d, _ := time.Parse("2006-01-02", date)
	s := models.Schedule{
		ID:             uuid.NewString(),
		TeamID:         teamID,
		Title:          "Practice",
		Date:           d,
		RecurrenceRule: models.RecurrenceNone,
	}
	repo.schedules[s.ID] = s
	return &s
}

func TestAttendanceServiceSetStatusIdempotent(t *testing.T) {
	attRepo := newMockAttendanceRepo()
	schedRepo := newMockScheduleRepo()
	teamID := uuid.NewString()
	schedule := seedSchedule(schedRepo, teamID, "2025-04-07")
	svc := NewAttendanceService(attRepo, schedRepo, nil, nil, nil)

	studentID := uuid.NewString()
	first, err := svc.SetStatus(context.Background(), teamID, nil, &SetStatusRequest{
		ScheduleID: schedule.ID,
		StudentID:  studentID,
		Status:     "TENTATIVE",
	})
	require.NoError(t, err)

	comment := "leaving early"
	second, err := svc.SetStatus(context.Background(), teamID, nil, &SetStatusRequest{
		ScheduleID: schedule.ID,
		StudentID:  studentID,
		Status:     "CONFIRMED",
		Comment:    &comment,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, attRepo.rows, 1)
	assert.Equal(t, models.AttendanceConfirmed, second.Status)
	require.NotNil(t, second.Comment)
	assert.Equal(t, comment, *second.Comment)
}

func TestAttendanceServiceSetStatusRejectsUnknownStatus(t *testing.T) {
	attRepo := newMockAttendanceRepo()
	schedRepo := newMockScheduleRepo()
	teamID := uuid.NewString()
	schedule := seedSchedule(schedRepo, teamID, "2025-04-07")
	svc := NewAttendanceService(attRepo, schedRepo, nil, nil, nil)

	_, err := svc.SetStatus(context.Background(), teamID, nil, &SetStatusRequest{
		ScheduleID: schedule.ID,
		StudentID:  uuid.NewString(),
		Status:     "MAYBE",
	})
	require.Error(t, err)
	assert.Empty(t, attRepo.rows)
}

func TestAttendanceServiceTransferKeepsRowIdentity(t *testing.T) {
	attRepo := newMockAttendanceRepo()
	schedRepo := newMockScheduleRepo()
	teamID := uuid.NewString()
	source := seedSchedule(schedRepo, teamID, "2025-04-07")
	target := seedSchedule(schedRepo, teamID, "2025-04-07")
	svc := NewAttendanceService(attRepo, schedRepo, nil, nil, nil)

	row, err := svc.SetStatus(context.Background(), teamID, nil, &SetStatusRequest{
		ScheduleID: source.ID,
		StudentID:  uuid.NewString(),
		Status:     "CONFIRMED",
	})
	require.NoError(t, err)

	moved, err := svc.Transfer(context.Background(), teamID, nil, row.ID, &TransferRequest{TargetScheduleID: target.ID})
	require.NoError(t, err)

	assert.Equal(t, row.ID, moved.ID)
	assert.Equal(t, target.ID, moved.ScheduleID)
	assert.Equal(t, models.AttendanceConfirmed, moved.Status)
	assert.Len(t, attRepo.rows, 1)
}

func TestAttendanceServiceTransferRejectsBadTargets(t *testing.T) {
	attRepo := newMockAttendanceRepo()
	schedRepo := newMockScheduleRepo()
	teamID := uuid.NewString()
	source := seedSchedule(schedRepo, teamID, "2025-04-07")
	otherDay := seedSchedule(schedRepo, teamID, "2025-04-08")
	otherTeam := seedSchedule(schedRepo, uuid.NewString(), "2025-04-07")
	svc := NewAttendanceService(attRepo, schedRepo, nil, nil, nil)

	row, err := svc.SetStatus(context.Background(), teamID, nil, &SetStatusRequest{
		ScheduleID: source.ID,
		StudentID:  uuid.NewString(),
		Status:     "CONFIRMED",
	})
	require.NoError(t, err)

	for name, targetID := range map[string]string{
		"missing":    uuid.NewString(),
		"other day":  otherDay.ID,
		"other team": otherTeam.ID,
	} {
		_, err := svc.Transfer(context.Background(), teamID, nil, row.ID, &TransferRequest{TargetScheduleID: targetID})
		assert.ErrorIs(t, err, appErrors.ErrInvalidTarget, name)
	}

	// Row untouched after every rejection.
	stored, err := attRepo.FindByID(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, source.ID, stored.ScheduleID)
}

func TestAttendanceServiceTransferOntoExistingResponseRejected(t *testing.T) {
	attRepo := newMockAttendanceRepo()
	schedRepo := newMockScheduleRepo()
	teamID := uuid.NewString()
	source := seedSchedule(schedRepo, teamID, "2025-04-07")
	target := seedSchedule(schedRepo, teamID, "2025-04-07")
	svc := NewAttendanceService(attRepo, schedRepo, nil, nil, nil)

	studentID := uuid.NewString()
	row, err := svc.SetStatus(context.Background(), teamID, nil, &SetStatusRequest{
		ScheduleID: source.ID,
		StudentID:  studentID,
		Status:     "CONFIRMED",
	})
	require.NoError(t, err)
	_, err = svc.SetStatus(context.Background(), teamID, nil, &SetStatusRequest{
		ScheduleID: target.ID,
		StudentID:  studentID,
		Status:     "DECLINED",
	})
	require.NoError(t, err)

	// The student already responded to the target instance, so the unique
	// key rejects the move and the caller gets a conflict, not a 500.
	_, err = svc.Transfer(context.Background(), teamID, nil, row.ID, &TransferRequest{TargetScheduleID: target.ID})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTarget)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.Status)

	stored, err := attRepo.FindByID(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, source.ID, stored.ScheduleID)
}

func TestAttendanceServiceTransferToSelfIsNoop(t *testing.T) {
	attRepo := newMockAttendanceRepo()
	schedRepo := newMockScheduleRepo()
	teamID := uuid.NewString()
	source := seedSchedule(schedRepo, teamID, "2025-04-07")
	svc := NewAttendanceService(attRepo, schedRepo, nil, nil, nil)

	row, err := svc.SetStatus(context.Background(), teamID, nil, &SetStatusRequest{
		ScheduleID: source.ID,
		StudentID:  uuid.NewString(),
		Status:     "DECLINED",
	})
	require.NoError(t, err)

	moved, err := svc.Transfer(context.Background(), teamID, nil, row.ID, &TransferRequest{TargetScheduleID: source.ID})
	require.NoError(t, err)
	assert.Equal(t, source.ID, moved.ScheduleID)
}

func TestAttendanceServiceRosterCounts(t *testing.T) {
	attRepo := newMockAttendanceRepo()
	schedRepo := newMockScheduleRepo()
	teamID := uuid.NewString()
	schedule := seedSchedule(schedRepo, teamID, "2025-04-07")
	svc := NewAttendanceService(attRepo, schedRepo, nil, nil, nil)

	for _, status := range []string{"CONFIRMED", "CONFIRMED", "TENTATIVE", "DECLINED"} {
		_, err := svc.SetStatus(context.Background(), teamID, nil, &SetStatusRequest{
			ScheduleID: schedule.ID,
			StudentID:  uuid.NewString(),
			Status:     status,
		})
		require.NoError(t, err)
	}

	rows, counts, err := svc.Roster(context.Background(), teamID, schedule.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Equal(t, 2, counts.Confirmed)
	assert.Equal(t, 1, counts.Tentative)
	assert.Equal(t, 1, counts.Declined)
}
