package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fieldside/clubcal-api/internal/models"
)

// ActivityRepository persists the team activity feed.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create stores an activity entry.
func (r *ActivityRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO activity_logs (id, team_id, actor_id, action, resource, resource_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.TeamID, entry.ActorID, entry.Action, entry.Resource, entry.ResourceID, entry.Detail, entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("create activity log: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries for a team.
func (r *ActivityRepository) ListRecent(ctx context.Context, teamID string, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const query = `SELECT id, team_id, actor_id, action, resource, resource_id, detail, created_at
		FROM activity_logs WHERE team_id = $1 ORDER BY created_at DESC LIMIT $2`
	var entries []models.ActivityLog
	if err := r.db.SelectContext(ctx, &entries, query, teamID, limit); err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	return entries, nil
}
