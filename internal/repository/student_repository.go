package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fieldside/clubcal-api/internal/models"
)

const studentColumns = `s.id, s.team_id, s.full_name, s.player_type, s.birth_date, s.jersey_number, s.created_at, s.updated_at,
		COALESCE(ARRAY_AGG(sc.category_id) FILTER (WHERE sc.category_id IS NOT NULL), '{}') AS category_ids`

// StudentRepository persists players and their category subscriptions.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListByTeam returns the team roster with subscribed categories.
func (r *StudentRepository) ListByTeam(ctx context.Context, teamID string) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s
		LEFT JOIN student_categories sc ON sc.student_id = s.id
		WHERE s.team_id = $1 GROUP BY s.id ORDER BY s.full_name ASC`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, teamID); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID loads one student with subscribed categories.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s
		LEFT JOIN student_categories sc ON sc.student_id = s.id
		WHERE s.id = $1 GROUP BY s.id`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListBillable returns students whose player type participates in monthly
// generation.
func (r *StudentRepository) ListBillable(ctx context.Context, teamID string) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s
		LEFT JOIN student_categories sc ON sc.student_id = s.id
		WHERE s.team_id = $1 AND s.player_type IN ($2, $3)
		GROUP BY s.id ORDER BY s.full_name ASC`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, teamID, models.PlayerTypeTeam, models.PlayerTypeSchool); err != nil {
		return nil, fmt.Errorf("list billable students: %w", err)
	}
	return students, nil
}

// UpdatePlayerType rewrites the billing category selector for one student.
func (r *StudentRepository) UpdatePlayerType(ctx context.Context, id string, playerType models.PlayerType) error {
	const query = `UPDATE students SET player_type = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, playerType, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update player type: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update player type rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("student %s not found", id)
	}
	return nil
}

// ReplaceCategories rewrites the student's category subscriptions in one
// transaction.
func (r *StudentRepository) ReplaceCategories(ctx context.Context, studentID string, categoryIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace categories: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM student_categories WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("clear student categories: %w", err)
	}
	for _, categoryID := range categoryIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO student_categories (student_id, category_id) VALUES ($1, $2)`,
			studentID, categoryID,
		); err != nil {
			return fmt.Errorf("insert student category: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace categories: %w", err)
	}
	return nil
}

// ApprovedSiblings returns the approved sibling partners per student id for
// a team. Links are symmetric: both ends appear as keys.
func (r *StudentRepository) ApprovedSiblings(ctx context.Context, teamID string) (map[string][]string, error) {
	const query = `SELECT student_id, sibling_id FROM sibling_links WHERE team_id = $1 AND approved = TRUE`
	rows, err := r.db.QueryxContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("list sibling links: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	linked := make(map[string][]string)
	for rows.Next() {
		var studentID, siblingID string
		if err := rows.Scan(&studentID, &siblingID); err != nil {
			return nil, fmt.Errorf("scan sibling link: %w", err)
		}
		linked[studentID] = append(linked[studentID], siblingID)
		linked[siblingID] = append(linked[siblingID], studentID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sibling links: %w", err)
	}
	return linked, nil
}
