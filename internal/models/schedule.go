package models

import (
	"time"

	"github.com/lib/pq"
)

// RecurrenceRule names the supported repetition patterns.
type RecurrenceRule string

const (
	RecurrenceNone    RecurrenceRule = "NONE"
	RecurrenceDaily   RecurrenceRule = "DAILY"
	RecurrenceWeekly  RecurrenceRule = "WEEKLY"
	RecurrenceMonthly RecurrenceRule = "MONTHLY"
)

// Valid reports whether the rule is one of the supported values.
func (r RecurrenceRule) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// VenueUndecided is the display text used when a schedule has no venue.
const VenueUndecided = "undecided"

// Schedule is a persisted event. A row with a nil ParentScheduleID and a
// rule other than NONE is a series head; rows with ParentScheduleID set are
// series members. A member edited independently of the rule keeps its
// parent link and becomes an exception.
type Schedule struct {
	ID                 string         `db:"id" json:"id"`
	TeamID             string         `db:"team_id" json:"team_id"`
	Title              string         `db:"title" json:"title"`
	Date               time.Time      `db:"date" json:"date"`
	StartTime          *string        `db:"start_time" json:"start_time,omitempty"`
	EndTime            *string        `db:"end_time" json:"end_time,omitempty"`
	GatherTime         *string        `db:"gather_time" json:"gather_time,omitempty"`
	Venue              *string        `db:"venue" json:"venue,omitempty"`
	CategoryIDs        pq.StringArray `db:"category_ids" json:"category_ids"`
	StudentCanRegister bool           `db:"student_can_register" json:"student_can_register"`
	RecurrenceRule     RecurrenceRule `db:"recurrence_rule" json:"recurrence_rule"`
	RecurrenceInterval int            `db:"recurrence_interval" json:"recurrence_interval"`
	RecurrenceDays     pq.Int64Array  `db:"recurrence_days" json:"recurrence_days,omitempty"`
	RecurrenceEndDate  *time.Time     `db:"recurrence_end_date" json:"recurrence_end_date,omitempty"`
	// MaterializedUntil marks, on a series head, the last date for which
	// member rows have been persisted. Occurrences past it are virtual;
	// dates at or before it with no stored row were deleted and stay gone.
	MaterializedUntil *time.Time `db:"materialized_until" json:"-"`
	ParentScheduleID  *string    `db:"parent_schedule_id" json:"parent_schedule_id,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// IsSeriesHead reports whether the row owns a recurrence rule.
func (s *Schedule) IsSeriesHead() bool {
	return s.ParentScheduleID == nil && s.RecurrenceRule != RecurrenceNone && s.RecurrenceRule != ""
}

// SeriesID returns the key grouping a row with its series: the parent id for
// members, the row's own id otherwise.
func (s *Schedule) SeriesID() string {
	if s.ParentScheduleID != nil {
		return *s.ParentScheduleID
	}
	return s.ID
}

// VenueDisplay returns the venue or the "undecided" placeholder, never an
// empty string.
func (s *Schedule) VenueDisplay() string {
	if s.Venue == nil || *s.Venue == "" {
		return VenueUndecided
	}
	return *s.Venue
}

// ScheduleInstance is an effective occurrence shown for a date: a stored row
// (head, member or exception) or a virtual instance computed from the rule.
type ScheduleInstance struct {
	Schedule
	Virtual bool `json:"virtual"`
	// Visibility annotations populated for student-facing listings.
	Editable bool `json:"editable"`
}

// DeleteScope selects how much of a series a deletion removes.
type DeleteScope string

const (
	DeleteScopeSingle  DeleteScope = "single"
	DeleteScopeForward DeleteScope = "forward"
	DeleteScopeSeries  DeleteScope = "series"
)

// Valid reports whether the scope is supported.
func (s DeleteScope) Valid() bool {
	switch s {
	case DeleteScopeSingle, DeleteScopeForward, DeleteScopeSeries:
		return true
	}
	return false
}
