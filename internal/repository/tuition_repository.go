package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fieldside/clubcal-api/internal/models"
)

const tuitionColumns = `id, student_id, team_id, year, month, category, base_amount, discount, annual_fee, entrance_fee, insurance_fee, spot_fee, amount, is_paid, paid_at, created_at, updated_at`

// TuitionRepository persists monthly tuition rows.
type TuitionRepository struct {
	db *sqlx.DB
}

// NewTuitionRepository creates a new tuition repository.
func NewTuitionRepository(db *sqlx.DB) *TuitionRepository {
	return &TuitionRepository{db: db}
}

// FindByID loads a tuition row by id.
func (r *TuitionRepository) FindByID(ctx context.Context, id string) (*models.TuitionPayment, error) {
	query := fmt.Sprintf(`SELECT %s FROM tuition_payments WHERE id = $1`, tuitionColumns)
	var payment models.TuitionPayment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByMonth returns all rows for a (team, year, month).
func (r *TuitionRepository) ListByMonth(ctx context.Context, teamID string, year, month int) ([]models.TuitionPayment, error) {
	query := fmt.Sprintf(`SELECT %s FROM tuition_payments WHERE team_id = $1 AND year = $2 AND month = $3 ORDER BY created_at ASC`, tuitionColumns)
	var payments []models.TuitionPayment
	if err := r.db.SelectContext(ctx, &payments, query, teamID, year, month); err != nil {
		return nil, fmt.Errorf("list tuition payments: %w", err)
	}
	return payments, nil
}

// InsertBatch stores generated rows in one transaction. The unique
// (student_id, year, month) constraint absorbs reruns: rows already present
// are left untouched and counted as skipped, so generation without an
// intervening reset never duplicates or overwrites.
func (r *TuitionRepository) InsertBatch(ctx context.Context, payments []models.TuitionPayment) (inserted, skipped int, err error) {
	if len(payments) == 0 {
		return 0, 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin insert tuition batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if inserted, skipped, err = insertTuitionRows(ctx, tx, payments); err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit insert tuition batch: %w", err)
	}
	return inserted, skipped, nil
}

// ResetAndInsert deletes the month's unpaid rows and inserts the regenerated
// set in one transaction, so a failure partway leaves the month exactly as it
// was. Paid rows survive the delete and then absorb their student's
// regenerated row through the (student_id, year, month) unique key.
func (r *TuitionRepository) ResetAndInsert(ctx context.Context, teamID string, year, month int, payments []models.TuitionPayment) (deleted, preserved, inserted, skipped int, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("begin tuition reset: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	result, err := tx.ExecContext(ctx,
		`DELETE FROM tuition_payments WHERE team_id = $1 AND year = $2 AND month = $3 AND is_paid = FALSE`,
		teamID, year, month,
	)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("delete unpaid tuition rows: %w", err)
	}
	deletedRows, err := result.RowsAffected()
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("delete unpaid tuition rows affected: %w", err)
	}

	var paid int
	if err := tx.GetContext(ctx, &paid,
		`SELECT COUNT(*) FROM tuition_payments WHERE team_id = $1 AND year = $2 AND month = $3 AND is_paid = TRUE`,
		teamID, year, month,
	); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("count paid tuition rows: %w", err)
	}

	if inserted, skipped, err = insertTuitionRows(ctx, tx, payments); err != nil {
		return 0, 0, 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("commit tuition reset: %w", err)
	}
	return int(deletedRows), paid, inserted, skipped, nil
}

func insertTuitionRows(ctx context.Context, tx *sqlx.Tx, payments []models.TuitionPayment) (inserted, skipped int, err error) {
	const query = `INSERT INTO tuition_payments (id, student_id, team_id, year, month, category, base_amount, discount, annual_fee, entrance_fee, insurance_fee, spot_fee, amount, is_paid, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (student_id, year, month) DO NOTHING`

	now := time.Now().UTC()
	for i := range payments {
		p := &payments[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.CreatedAt = now
		p.UpdatedAt = now

		result, err := tx.ExecContext(ctx, query,
			p.ID, p.StudentID, p.TeamID, p.Year, p.Month, p.Category,
			p.BaseAmount, p.Discount, p.AnnualFee, p.EntranceFee, p.InsuranceFee, p.SpotFee,
			p.Amount, p.IsPaid, p.PaidAt, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("insert tuition payment: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return 0, 0, fmt.Errorf("insert tuition payment rows: %w", err)
		}
		if rows == 0 {
			skipped++
		} else {
			inserted++
		}
	}
	return inserted, skipped, nil
}

// UpdateFees rewrites the manual fee fields and recomputed amount of an
// unpaid row. The is_paid guard is part of the statement so a concurrent
// payment confirmation cannot be overwritten.
func (r *TuitionRepository) UpdateFees(ctx context.Context, p *models.TuitionPayment) (bool, error) {
	p.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tuition_payments SET base_amount = $1, discount = $2, annual_fee = $3, entrance_fee = $4, insurance_fee = $5, spot_fee = $6, amount = $7, updated_at = $8 WHERE id = $9 AND is_paid = FALSE`
	result, err := r.db.ExecContext(ctx, query,
		p.BaseAmount, p.Discount, p.AnnualFee, p.EntranceFee, p.InsuranceFee, p.SpotFee, p.Amount, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return false, fmt.Errorf("update tuition fees: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update tuition fees rows: %w", err)
	}
	return rows > 0, nil
}

// MarkPaid confirms payment on a row.
func (r *TuitionRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	const query = `UPDATE tuition_payments SET is_paid = TRUE, paid_at = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, paidAt, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark tuition paid: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark tuition paid rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("tuition payment %s not found", id)
	}
	return nil
}
