package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fieldside/clubcal-api/internal/models"
)

const teamColumns = `id, name, monthly_fee_member, monthly_fee_school, sibling_discount, annual_fee, entrance_fee, insurance_fee, annual_fee_month, insurance_fee_month, created_at, updated_at`

// TeamRepository persists teams and their fee configuration.
type TeamRepository struct {
	db *sqlx.DB
}

// NewTeamRepository creates a new team repository.
func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// FindByID loads a team by id.
func (r *TeamRepository) FindByID(ctx context.Context, id string) (*models.Team, error) {
	query := fmt.Sprintf(`SELECT %s FROM teams WHERE id = $1`, teamColumns)
	var team models.Team
	if err := r.db.GetContext(ctx, &team, query, id); err != nil {
		return nil, err
	}
	return &team, nil
}

// UpdateFees rewrites the team's fee configuration.
func (r *TeamRepository) UpdateFees(ctx context.Context, team *models.Team) error {
	team.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teams SET monthly_fee_member = $1, monthly_fee_school = $2, sibling_discount = $3, annual_fee = $4, entrance_fee = $5, insurance_fee = $6, annual_fee_month = $7, insurance_fee_month = $8, updated_at = $9 WHERE id = $10`
	result, err := r.db.ExecContext(ctx, query,
		team.MonthlyFeeMember, team.MonthlyFeeSchool, team.SiblingDiscount,
		team.AnnualFee, team.EntranceFee, team.InsuranceFee,
		team.AnnualFeeMonth, team.InsuranceFeeMonth, team.UpdatedAt, team.ID,
	)
	if err != nil {
		return fmt.Errorf("update team fees: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update team fees rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("team %s not found", team.ID)
	}
	return nil
}
