package models

import "time"

// Category is a team-scoped age-group tag used for schedule visibility
// filtering and billing category selection. DisplayOrder is a dense,
// team-scoped total order.
type Category struct {
	ID           string    `db:"id" json:"id"`
	TeamID       string    `db:"team_id" json:"team_id"`
	Name         string    `db:"name" json:"name"`
	IsSchoolOnly bool      `db:"is_school_only" json:"is_school_only"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
