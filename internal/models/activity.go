package models

import (
	"encoding/json"
	"time"
)

// ActivityLog records a domain event (attendance change, billing pass,
// schedule mutation) for the team activity feed.
type ActivityLog struct {
	ID         string          `db:"id" json:"id"`
	TeamID     string          `db:"team_id" json:"team_id"`
	ActorID    *string         `db:"actor_id" json:"actor_id,omitempty"`
	Action     string          `db:"action" json:"action"`
	Resource   string          `db:"resource" json:"resource"`
	ResourceID *string         `db:"resource_id" json:"resource_id,omitempty"`
	Detail     json.RawMessage `db:"detail" json:"detail,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
