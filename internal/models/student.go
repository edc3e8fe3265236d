package models

import (
	"time"

	"github.com/lib/pq"
)

// PlayerType drives billing category selection and eligibility.
type PlayerType string

const (
	PlayerTypeTeam     PlayerType = "TEAM"
	PlayerTypeSchool   PlayerType = "SCHOOL"
	PlayerTypeInactive PlayerType = "INACTIVE"
	PlayerTypeUnset    PlayerType = "UNSET"
)

// Valid reports whether the type is one of the supported values.
func (p PlayerType) Valid() bool {
	switch p {
	case PlayerTypeTeam, PlayerTypeSchool, PlayerTypeInactive, PlayerTypeUnset:
		return true
	}
	return false
}

// Billable reports whether the type participates in monthly generation.
func (p PlayerType) Billable() bool {
	return p == PlayerTypeTeam || p == PlayerTypeSchool
}

// Student is a team member (player). CategoryIDs come from the
// student_categories join table and drive schedule/document visibility.
type Student struct {
	ID           string         `db:"id" json:"id"`
	TeamID       string         `db:"team_id" json:"team_id"`
	FullName     string         `db:"full_name" json:"full_name"`
	PlayerType   PlayerType     `db:"player_type" json:"player_type"`
	BirthDate    *time.Time     `db:"birth_date" json:"birth_date,omitempty"`
	JerseyNumber *int           `db:"jersey_number" json:"jersey_number,omitempty"`
	CategoryIDs  pq.StringArray `db:"category_ids" json:"category_ids"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// SiblingLink records an approved family relationship used for the sibling
// discount during tuition generation.
type SiblingLink struct {
	ID        string    `db:"id" json:"id"`
	TeamID    string    `db:"team_id" json:"team_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	SiblingID string    `db:"sibling_id" json:"sibling_id"`
	Approved  bool      `db:"approved" json:"approved"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
