package models

import (
	"time"

	"github.com/lib/pq"
)

// Document is shared team material. FileURL points at external object
// storage and is opaque to this core; only the metadata and category
// visibility are managed here.
type Document struct {
	ID          string         `db:"id" json:"id"`
	TeamID      string         `db:"team_id" json:"team_id"`
	Title       string         `db:"title" json:"title"`
	FileURL     string         `db:"file_url" json:"file_url"`
	CategoryIDs pq.StringArray `db:"category_ids" json:"category_ids"`
	CreatedBy   string         `db:"created_by" json:"created_by"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}
