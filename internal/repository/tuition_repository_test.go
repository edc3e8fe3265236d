package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldside/clubcal-api/internal/models"
)

func TestTuitionRepositoryInsertBatchSkipsExisting(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTuitionRepository(db)

	mock.ExpectBegin()
	// First row inserts, second hits the unique key and is skipped.
	mock.ExpectExec(`ON CONFLICT \(student_id, year, month\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`ON CONFLICT \(student_id, year, month\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	payments := []models.TuitionPayment{
		{StudentID: "student-1", TeamID: "team-1", Year: 2025, Month: 4, BaseAmount: 5000, Amount: 5000},
		{StudentID: "student-2", TeamID: "team-1", Year: 2025, Month: 4, BaseAmount: 5000, Amount: 5000},
	}
	inserted, skipped, err := repo.InsertBatch(context.Background(), payments)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, skipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTuitionRepositoryInsertBatchEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTuitionRepository(db)

	inserted, skipped, err := repo.InsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Zero(t, skipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTuitionRepositoryResetAndInsertIsOneTransaction(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTuitionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM tuition_payments WHERE team_id = \$1 AND year = \$2 AND month = \$3 AND is_paid = FALSE`).
		WithArgs("team-1", 2025, 4).
		WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tuition_payments WHERE team_id = \$1 AND year = \$2 AND month = \$3 AND is_paid = TRUE`).
		WithArgs("team-1", 2025, 4).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	// Regenerated rows land inside the same transaction; the paid student's
	// surviving row absorbs its insert through the unique key.
	mock.ExpectExec(`ON CONFLICT \(student_id, year, month\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`ON CONFLICT \(student_id, year, month\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	payments := []models.TuitionPayment{
		{StudentID: "student-1", TeamID: "team-1", Year: 2025, Month: 4, BaseAmount: 5000, Amount: 5000},
		{StudentID: "student-2", TeamID: "team-1", Year: 2025, Month: 4, BaseAmount: 5000, Amount: 5000},
	}
	deleted, preserved, inserted, skipped, err := repo.ResetAndInsert(context.Background(), "team-1", 2025, 4, payments)
	require.NoError(t, err)
	assert.Equal(t, 7, deleted)
	assert.Equal(t, 1, preserved)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, skipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTuitionRepositoryResetAndInsertRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTuitionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM tuition_payments WHERE team_id = \$1 AND year = \$2 AND month = \$3 AND is_paid = FALSE`).
		WithArgs("team-1", 2025, 4).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tuition_payments`).
		WithArgs("team-1", 2025, 4).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`ON CONFLICT \(student_id, year, month\) DO NOTHING`).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	payments := []models.TuitionPayment{
		{StudentID: "student-1", TeamID: "team-1", Year: 2025, Month: 4, BaseAmount: 5000, Amount: 5000},
	}
	_, _, _, _, err := repo.ResetAndInsert(context.Background(), "team-1", 2025, 4, payments)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTuitionRepositoryUpdateFeesRefusesPaidRows(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTuitionRepository(db)

	mock.ExpectExec(`UPDATE tuition_payments SET base_amount = .* WHERE id = \$9 AND is_paid = FALSE`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err := repo.UpdateFees(context.Background(), &models.TuitionPayment{ID: "pay-1", BaseAmount: 5000, Amount: 5000})
	require.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTuitionRepositoryMarkPaid(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTuitionRepository(db)

	mock.ExpectExec(`UPDATE tuition_payments SET is_paid = TRUE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkPaid(context.Background(), "pay-1", time.Now().UTC())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
