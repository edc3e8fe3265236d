package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fieldside/clubcal-api/internal/models"
)

const categoryColumns = `id, team_id, name, is_school_only, display_order, created_at, updated_at`

// CategoryRepository persists the team-scoped category registry.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListByTeam returns the team's categories in display order.
func (r *CategoryRepository) ListByTeam(ctx context.Context, teamID string) ([]models.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE team_id = $1 ORDER BY display_order ASC`, categoryColumns)
	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, query, teamID); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// FindByID loads a category by id.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*models.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE id = $1`, categoryColumns)
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, err
	}
	return &category, nil
}

// Create stores a new category at the end of the team's ordering.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	const query = `INSERT INTO categories (id, team_id, name, is_school_only, display_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, (SELECT COALESCE(MAX(display_order), -1) + 1 FROM categories WHERE team_id = $2), $5, $6)`
	if _, err := r.db.ExecContext(ctx, query,
		category.ID, category.TeamID, category.Name, category.IsSchoolOnly, category.CreatedAt, category.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// Update rewrites name and school-only flag.
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	category.UpdatedAt = time.Now().UTC()
	const query = `UPDATE categories SET name = $1, is_school_only = $2, updated_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, category.Name, category.IsSchoolOnly, category.UpdatedAt, category.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update category rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("category %s not found", category.ID)
	}
	return nil
}

// Delete removes a category and closes the ordering gap it leaves, keeping
// display_order dense. Single transaction.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var category models.Category
	if err := tx.GetContext(ctx, &category, fmt.Sprintf(`SELECT %s FROM categories WHERE id = $1`, categoryColumns), id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE categories SET display_order = display_order - 1 WHERE team_id = $1 AND display_order > $2`,
		category.TeamID, category.DisplayOrder,
	); err != nil {
		return fmt.Errorf("compact category order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete category: %w", err)
	}
	return nil
}

// ReorderBatch rewrites display_order for the whole team registry in one
// transaction; no reader ever observes a half-applied ordering. orderedIDs
// must be a permutation of the team's category ids (validated by the
// service).
func (r *CategoryRepository) ReorderBatch(ctx context.Context, teamID string, orderedIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder categories: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for position, id := range orderedIDs {
		result, err := tx.ExecContext(ctx,
			`UPDATE categories SET display_order = $1, updated_at = $2 WHERE id = $3 AND team_id = $4`,
			position, now, id, teamID,
		)
		if err != nil {
			return fmt.Errorf("reorder category: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("reorder category rows: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("category %s not found in team %s", id, teamID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder categories: %w", err)
	}
	return nil
}
