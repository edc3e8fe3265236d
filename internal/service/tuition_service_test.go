package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldside/clubcal-api/internal/models"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
)

type mockTuitionRepo struct {
	payments map[string]models.TuitionPayment
}

func newMockTuitionRepo() *mockTuitionRepo {
	return &mockTuitionRepo{payments: make(map[string]models.TuitionPayment)}
}

func (m *mockTuitionRepo) FindByID(ctx context.Context, id string) (*models.TuitionPayment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment %s not found", id)
	}
	return &p, nil
}

func (m *mockTuitionRepo) ListByMonth(ctx context.Context, teamID string, year, month int) ([]models.TuitionPayment, error) {
	var out []models.TuitionPayment
	for _, p := range m.payments {
		if p.TeamID == teamID && p.Year == year && p.Month == month {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockTuitionRepo) InsertBatch(ctx context.Context, payments []models.TuitionPayment) (int, int, error) {
	inserted, skipped := 0, 0
	for i := range payments {
		p := payments[i]
		exists := false
		for _, stored := range m.payments {
			if stored.StudentID == p.StudentID && stored.Year == p.Year && stored.Month == p.Month {
				exists = true
				break
			}
		}
		if exists {
			skipped++
			continue
		}
		p.ID = uuid.NewString()
		m.payments[p.ID] = p
		inserted++
	}
	return inserted, skipped, nil
}

func (m *mockTuitionRepo) ResetAndInsert(ctx context.Context, teamID string, year, month int, payments []models.TuitionPayment) (int, int, int, int, error) {
	deleted, preserved := 0, 0
	for id, p := range m.payments {
		if p.TeamID != teamID || p.Year != year || p.Month != month {
			continue
		}
		if p.IsPaid {
			preserved++
			continue
		}
		delete(m.payments, id)
		deleted++
	}
	inserted, skipped, err := m.InsertBatch(ctx, payments)
	return deleted, preserved, inserted, skipped, err
}

func (m *mockTuitionRepo) UpdateFees(ctx context.Context, p *models.TuitionPayment) (bool, error) {
	stored, ok := m.payments[p.ID]
	if !ok || stored.IsPaid {
		return false, nil
	}
	m.payments[p.ID] = *p
	return true, nil
}

func (m *mockTuitionRepo) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	p, ok := m.payments[id]
	if !ok {
		return fmt.Errorf("payment %s not found", id)
	}
	p.IsPaid = true
	p.PaidAt = &paidAt
	m.payments[id] = p
	return nil
}

type mockTeamRepo struct {
	teams map[string]models.Team
}

func (m *mockTeamRepo) FindByID(ctx context.Context, id string) (*models.Team, error) {
	team, ok := m.teams[id]
	if !ok {
		return nil, fmt.Errorf("team %s not found", id)
	}
	return &team, nil
}

func intPtr(v int) *int { return &v }

func newBillingFixture() (*mockTuitionRepo, *mockStudentRepo, *mockTeamRepo, models.Team) {
	team := models.Team{
		ID:                uuid.NewString(),
		Name:              "FC Example",
		MonthlyFeeMember:  intPtr(8000),
		MonthlyFeeSchool:  intPtr(5000),
		SiblingDiscount:   intPtr(1000),
		AnnualFee:         intPtr(12000),
		InsuranceFee:      intPtr(800),
		AnnualFeeMonth:    4,
		InsuranceFeeMonth: 4,
	}
	return newMockTuitionRepo(), newMockStudentRepo(), &mockTeamRepo{teams: map[string]models.Team{team.ID: team}}, team
}

func TestTuitionServiceGenerateAppliesFeeSchedule(t *testing.T) {
	tuitionRepo, studentRepo, teamRepo, team := newBillingFixture()
	svc := NewTuitionService(tuitionRepo, studentRepo, teamRepo, nil, nil, nil)

	teamPlayer := studentRepo.addStudent(team.ID, models.PlayerTypeTeam)
	schoolPlayer := studentRepo.addStudent(team.ID, models.PlayerTypeSchool)
	siblingA := studentRepo.addStudent(team.ID, models.PlayerTypeTeam)
	siblingB := studentRepo.addStudent(team.ID, models.PlayerTypeTeam)
	studentRepo.addStudent(team.ID, models.PlayerTypeInactive)
	studentRepo.siblings = map[string][]string{
		siblingA.ID: {siblingB.ID},
		siblingB.ID: {siblingA.ID},
	}

	result, err := svc.Generate(context.Background(), team.ID, &GenerateRequest{Year: 2025, Month: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Generated)
	assert.Equal(t, 0, result.Skipped)

	rows, err := svc.List(context.Background(), team.ID, 2025, 4)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	byStudent := make(map[string]models.TuitionPayment, len(rows))
	for _, row := range rows {
		byStudent[row.StudentID] = row
	}

	// April carries both the annual and the insurance fee.
	assert.Equal(t, 8000+12000+800, byStudent[teamPlayer.ID].Amount)
	assert.Equal(t, 5000+12000+800, byStudent[schoolPlayer.ID].Amount)
	assert.Equal(t, 8000-1000+12000+800, byStudent[siblingA.ID].Amount)
	assert.Equal(t, 8000-1000+12000+800, byStudent[siblingB.ID].Amount)
}

func TestTuitionServiceGenerateOffMonthSkipsPeriodicFees(t *testing.T) {
	tuitionRepo, studentRepo, teamRepo, team := newBillingFixture()
	svc := NewTuitionService(tuitionRepo, studentRepo, teamRepo, nil, nil, nil)

	player := studentRepo.addStudent(team.ID, models.PlayerTypeTeam)

	_, err := svc.Generate(context.Background(), team.ID, &GenerateRequest{Year: 2025, Month: 5})
	require.NoError(t, err)

	rows, err := svc.List(context.Background(), team.ID, 2025, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, player.ID, rows[0].StudentID)
	assert.Equal(t, 8000, rows[0].Amount)
	assert.Zero(t, rows[0].AnnualFee)
	assert.Zero(t, rows[0].InsuranceFee)
}

func TestTuitionServiceGenerateIdempotent(t *testing.T) {
	tuitionRepo, studentRepo, teamRepo, team := newBillingFixture()
	svc := NewTuitionService(tuitionRepo, studentRepo, teamRepo, nil, nil, nil)

	studentRepo.addStudent(team.ID, models.PlayerTypeTeam)
	studentRepo.addStudent(team.ID, models.PlayerTypeSchool)

	first, err := svc.Generate(context.Background(), team.ID, &GenerateRequest{Year: 2025, Month: 4})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Generated)

	second, err := svc.Generate(context.Background(), team.ID, &GenerateRequest{Year: 2025, Month: 4})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Generated)
	assert.Equal(t, 2, second.Skipped)
	assert.Len(t, tuitionRepo.payments, 2)
}

func TestTuitionServiceGenerateEmptyRosterIsNoop(t *testing.T) {
	tuitionRepo, studentRepo, teamRepo, team := newBillingFixture()
	svc := NewTuitionService(tuitionRepo, studentRepo, teamRepo, nil, nil, nil)

	// No billable students at all.
	result, err := svc.Generate(context.Background(), team.ID, &GenerateRequest{Year: 2025, Month: 4})
	require.NoError(t, err)
	assert.Zero(t, result.Generated)
	assert.Empty(t, tuitionRepo.payments)
}

func TestTuitionServiceResetUnpaidPreservesPaidRows(t *testing.T) {
	tuitionRepo, studentRepo, teamRepo, team := newBillingFixture()
	svc := NewTuitionService(tuitionRepo, studentRepo, teamRepo, nil, nil, nil)

	paidStudent := studentRepo.addStudent(team.ID, models.PlayerTypeTeam)
	studentRepo.addStudent(team.ID, models.PlayerTypeTeam)

	_, err := svc.Generate(context.Background(), team.ID, &GenerateRequest{Year: 2025, Month: 5})
	require.NoError(t, err)

	rows, err := svc.List(context.Background(), team.ID, 2025, 5)
	require.NoError(t, err)
	var paidRow models.TuitionPayment
	for _, row := range rows {
		if row.StudentID == paidStudent.ID {
			paidRow = row
		}
	}
	paid, err := svc.MarkPaid(context.Background(), team.ID, paidRow.ID)
	require.NoError(t, err)
	require.True(t, paid.IsPaid)

	// Fee change after the paid row settled; the reset must re-bill only
	// the unpaid student at the new rate.
	updatedTeam := teamRepo.teams[team.ID]
	updatedTeam.MonthlyFeeMember = intPtr(9000)
	teamRepo.teams[team.ID] = updatedTeam

	result, err := svc.ResetUnpaid(context.Background(), team.ID, &GenerateRequest{Year: 2025, Month: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 1, result.Preserved)
	assert.Equal(t, 1, result.Generated)
	assert.Equal(t, 1, result.Skipped)

	rows, err = svc.List(context.Background(), team.ID, 2025, 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		if row.StudentID == paidStudent.ID {
			assert.True(t, row.IsPaid)
			assert.Equal(t, 8000, row.Amount)
		} else {
			assert.False(t, row.IsPaid)
			assert.Equal(t, 9000, row.Amount)
		}
	}
}

type failingStudentReader struct{}

func (failingStudentReader) ListBillable(ctx context.Context, teamID string) ([]models.Student, error) {
	return nil, fmt.Errorf("students unavailable")
}

func (failingStudentReader) ApprovedSiblings(ctx context.Context, teamID string) (map[string][]string, error) {
	return nil, fmt.Errorf("students unavailable")
}

func TestTuitionServiceResetUnpaidFailureLeavesMonthUntouched(t *testing.T) {
	tuitionRepo, studentRepo, teamRepo, team := newBillingFixture()
	svc := NewTuitionService(tuitionRepo, studentRepo, teamRepo, nil, nil, nil)

	studentRepo.addStudent(team.ID, models.PlayerTypeTeam)
	_, err := svc.Generate(context.Background(), team.ID, &GenerateRequest{Year: 2025, Month: 5})
	require.NoError(t, err)

	// A roster read failure mid-reset must not delete anything: the month
	// keeps its existing rows instead of being left empty.
	broken := NewTuitionService(tuitionRepo, failingStudentReader{}, teamRepo, nil, nil, nil)
	_, err = broken.ResetUnpaid(context.Background(), team.ID, &GenerateRequest{Year: 2025, Month: 5})
	require.Error(t, err)

	rows, err := svc.List(context.Background(), team.ID, 2025, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].IsPaid)
	assert.Equal(t, 8000, rows[0].Amount)
}

func TestTuitionServiceUpdateRecomputesAmount(t *testing.T) {
	tuitionRepo, studentRepo, teamRepo, team := newBillingFixture()
	svc := NewTuitionService(tuitionRepo, studentRepo, teamRepo, nil, nil, nil)

	studentRepo.addStudent(team.ID, models.PlayerTypeTeam)
	_, err := svc.Generate(context.Background(), team.ID, &GenerateRequest{Year: 2025, Month: 5})
	require.NoError(t, err)

	rows, err := svc.List(context.Background(), team.ID, 2025, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	updated, err := svc.Update(context.Background(), team.ID, rows[0].ID, &UpdatePaymentRequest{
		SpotFee:  intPtr(1500),
		Discount: intPtr(500),
	})
	require.NoError(t, err)
	assert.Equal(t, 8000-500+1500, updated.Amount)
}

func TestTuitionServiceUpdateRefusesPaidRow(t *testing.T) {
	tuitionRepo, studentRepo, teamRepo, team := newBillingFixture()
	svc := NewTuitionService(tuitionRepo, studentRepo, teamRepo, nil, nil, nil)

	studentRepo.addStudent(team.ID, models.PlayerTypeTeam)
	_, err := svc.Generate(context.Background(), team.ID, &GenerateRequest{Year: 2025, Month: 5})
	require.NoError(t, err)

	rows, err := svc.List(context.Background(), team.ID, 2025, 5)
	require.NoError(t, err)
	_, err = svc.MarkPaid(context.Background(), team.ID, rows[0].ID)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), team.ID, rows[0].ID, &UpdatePaymentRequest{SpotFee: intPtr(1000)})
	assert.ErrorIs(t, err, appErrors.ErrPaymentLocked)
}

func TestTuitionServiceMarkPaidIdempotent(t *testing.T) {
	tuitionRepo, studentRepo, teamRepo, team := newBillingFixture()
	svc := NewTuitionService(tuitionRepo, studentRepo, teamRepo, nil, nil, nil)

	studentRepo.addStudent(team.ID, models.PlayerTypeTeam)
	_, err := svc.Generate(context.Background(), team.ID, &GenerateRequest{Year: 2025, Month: 5})
	require.NoError(t, err)

	rows, err := svc.List(context.Background(), team.ID, 2025, 5)
	require.NoError(t, err)

	first, err := svc.MarkPaid(context.Background(), team.ID, rows[0].ID)
	require.NoError(t, err)
	require.NotNil(t, first.PaidAt)

	second, err := svc.MarkPaid(context.Background(), team.ID, rows[0].ID)
	require.NoError(t, err)
	assert.True(t, second.IsPaid)
	assert.Equal(t, first.PaidAt.Unix(), second.PaidAt.Unix())
}
