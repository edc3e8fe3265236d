package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fieldside/clubcal-api/internal/models"
)

const documentColumns = `id, team_id, title, file_url, category_ids, created_by, created_at`

// DocumentRepository persists shared document metadata. The files
// themselves live in external object storage.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// ListByTeam returns the team's documents, newest first.
func (r *DocumentRepository) ListByTeam(ctx context.Context, teamID string) ([]models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE team_id = $1 ORDER BY created_at DESC`, documentColumns)
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, teamID); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Create stores a document metadata row.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CategoryIDs == nil {
		doc.CategoryIDs = pq.StringArray{}
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO documents (id, team_id, title, file_url, category_ids, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.TeamID, doc.Title, doc.FileURL, doc.CategoryIDs, doc.CreatedBy, doc.CreatedAt,
	); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// Delete removes a document metadata row.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("document %s not found", id)
	}
	return nil
}
