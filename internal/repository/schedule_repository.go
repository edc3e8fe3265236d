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

const scheduleColumns = `id, team_id, title, date, start_time, end_time, gather_time, venue, category_ids, student_can_register, recurrence_rule, recurrence_interval, recurrence_days, recurrence_end_date, materialized_until, parent_schedule_id, created_at, updated_at`

// ScheduleRepository provides persistence for series heads, members and
// standalone events.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// FindByID loads a schedule row by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE id = $1`, scheduleColumns)
	var sched models.Schedule
	if err := r.db.GetContext(ctx, &sched, query, id); err != nil {
		return nil, err
	}
	return &sched, nil
}

// ListRange returns stored rows (standalone events, heads and members) whose
// date falls inside [from, to] for a team.
func (r *ScheduleRepository) ListRange(ctx context.Context, teamID string, from, to time.Time) ([]models.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE team_id = $1 AND date >= $2 AND date <= $3 ORDER BY date ASC, start_time ASC NULLS LAST`, scheduleColumns)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, teamID, from, to); err != nil {
		return nil, fmt.Errorf("list schedules in range: %w", err)
	}
	return schedules, nil
}

// ListHeadsOverlapping returns series heads whose rule can occupy dates in
// [from, to]: started no later than the window end and not ended before the
// window start.
func (r *ScheduleRepository) ListHeadsOverlapping(ctx context.Context, teamID string, from, to time.Time) ([]models.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE team_id = $1 AND parent_schedule_id IS NULL AND recurrence_rule <> $2 AND date <= $3 AND (recurrence_end_date IS NULL OR recurrence_end_date >= $4)`, scheduleColumns)
	var heads []models.Schedule
	if err := r.db.SelectContext(ctx, &heads, query, teamID, models.RecurrenceNone, to, from); err != nil {
		return nil, fmt.Errorf("list series heads: %w", err)
	}
	return heads, nil
}

// ListMembers returns the persisted member rows of a series ordered by date.
func (r *ScheduleRepository) ListMembers(ctx context.Context, parentID string) ([]models.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE parent_schedule_id = $1 ORDER BY date ASC`, scheduleColumns)
	var members []models.Schedule
	if err := r.db.SelectContext(ctx, &members, query, parentID); err != nil {
		return nil, fmt.Errorf("list series members: %w", err)
	}
	return members, nil
}

// Create stores a standalone event or series head.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	prepareSchedule(schedule)
	const query = `INSERT INTO schedules (id, team_id, title, date, start_time, end_time, gather_time, venue, category_ids, student_can_register, recurrence_rule, recurrence_interval, recurrence_days, recurrence_end_date, materialized_until, parent_schedule_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	if _, err := r.db.ExecContext(ctx, query,
		schedule.ID, schedule.TeamID, schedule.Title, schedule.Date,
		schedule.StartTime, schedule.EndTime, schedule.GatherTime, schedule.Venue,
		schedule.CategoryIDs, schedule.StudentCanRegister,
		schedule.RecurrenceRule, schedule.RecurrenceInterval, schedule.RecurrenceDays,
		schedule.RecurrenceEndDate, schedule.MaterializedUntil, schedule.ParentScheduleID,
		schedule.CreatedAt, schedule.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// CreateSeries stores a head together with member rows for the given dates
// in one transaction. Members inherit the head's fields but carry no rule of
// their own.
func (r *ScheduleRepository) CreateSeries(ctx context.Context, head *models.Schedule, memberDates []time.Time) ([]models.Schedule, error) {
	prepareSchedule(head)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create series: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO schedules (id, team_id, title, date, start_time, end_time, gather_time, venue, category_ids, student_can_register, recurrence_rule, recurrence_interval, recurrence_days, recurrence_end_date, materialized_until, parent_schedule_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	if _, err := tx.ExecContext(ctx, insert,
		head.ID, head.TeamID, head.Title, head.Date,
		head.StartTime, head.EndTime, head.GatherTime, head.Venue,
		head.CategoryIDs, head.StudentCanRegister,
		head.RecurrenceRule, head.RecurrenceInterval, head.RecurrenceDays,
		head.RecurrenceEndDate, head.MaterializedUntil, nil,
		head.CreatedAt, head.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("create series head: %w", err)
	}

	members := make([]models.Schedule, 0, len(memberDates))
	for _, d := range memberDates {
		member := *head
		member.ID = uuid.NewString()
		member.Date = d
		member.RecurrenceRule = models.RecurrenceNone
		member.RecurrenceInterval = 1
		member.RecurrenceDays = nil
		member.RecurrenceEndDate = nil
		member.MaterializedUntil = nil
		parent := head.ID
		member.ParentScheduleID = &parent

		if _, err := tx.ExecContext(ctx, insert,
			member.ID, member.TeamID, member.Title, member.Date,
			member.StartTime, member.EndTime, member.GatherTime, member.Venue,
			member.CategoryIDs, member.StudentCanRegister,
			member.RecurrenceRule, member.RecurrenceInterval, member.RecurrenceDays,
			member.RecurrenceEndDate, member.MaterializedUntil, member.ParentScheduleID,
			member.CreatedAt, member.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("create series member: %w", err)
		}
		members = append(members, member)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create series: %w", err)
	}
	return members, nil
}

// AddMembers inserts member rows for additional dates of an existing series
// in one transaction. Used when a head edit extends the rule; the caller has
// already excluded dates covered by persisted members.
func (r *ScheduleRepository) AddMembers(ctx context.Context, head *models.Schedule, dates []time.Time) ([]models.Schedule, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin add members: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO schedules (id, team_id, title, date, start_time, end_time, gather_time, venue, category_ids, student_can_register, recurrence_rule, recurrence_interval, recurrence_days, recurrence_end_date, materialized_until, parent_schedule_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	now := time.Now().UTC()
	members := make([]models.Schedule, 0, len(dates))
	for _, d := range dates {
		member := *head
		member.ID = uuid.NewString()
		member.Date = d
		member.RecurrenceRule = models.RecurrenceNone
		member.RecurrenceInterval = 1
		member.RecurrenceDays = nil
		member.RecurrenceEndDate = nil
		member.MaterializedUntil = nil
		parent := head.ID
		member.ParentScheduleID = &parent
		member.CreatedAt = now
		member.UpdatedAt = now

		if _, err := tx.ExecContext(ctx, insert,
			member.ID, member.TeamID, member.Title, member.Date,
			member.StartTime, member.EndTime, member.GatherTime, member.Venue,
			member.CategoryIDs, member.StudentCanRegister,
			member.RecurrenceRule, member.RecurrenceInterval, member.RecurrenceDays,
			member.RecurrenceEndDate, member.MaterializedUntil, member.ParentScheduleID,
			member.CreatedAt, member.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("add series member: %w", err)
		}
		members = append(members, member)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit add members: %w", err)
	}
	return members, nil
}

// Update rewrites the mutable fields of a schedule row.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.Schedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET title = $1, date = $2, start_time = $3, end_time = $4, gather_time = $5, venue = $6, category_ids = $7, student_can_register = $8, recurrence_rule = $9, recurrence_interval = $10, recurrence_days = $11, recurrence_end_date = $12, materialized_until = $13, updated_at = $14 WHERE id = $15`
	result, err := r.db.ExecContext(ctx, query,
		schedule.Title, schedule.Date, schedule.StartTime, schedule.EndTime,
		schedule.GatherTime, schedule.Venue, schedule.CategoryIDs, schedule.StudentCanRegister,
		schedule.RecurrenceRule, schedule.RecurrenceInterval, schedule.RecurrenceDays,
		schedule.RecurrenceEndDate, schedule.MaterializedUntil, schedule.UpdatedAt, schedule.ID,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update schedule rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("schedule %s not found", schedule.ID)
	}
	return nil
}

// DeleteSingle removes one row and its attendance rows in a transaction.
func (r *ScheduleRepository) DeleteSingle(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete schedule: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendances WHERE schedule_id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule attendances: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete schedule: %w", err)
	}
	return nil
}

// DeleteForward removes the member rows of a series dated on or after
// fromDate together with their attendances, and caps the head's recurrence
// end date at the day before. One transaction; a failure rolls back all of
// it.
func (r *ScheduleRepository) DeleteForward(ctx context.Context, headID string, fromDate time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete forward: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM attendances WHERE schedule_id IN (SELECT id FROM schedules WHERE parent_schedule_id = $1 AND date >= $2)`,
		headID, fromDate,
	); err != nil {
		return fmt.Errorf("delete forward attendances: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM schedules WHERE parent_schedule_id = $1 AND date >= $2`,
		headID, fromDate,
	); err != nil {
		return fmt.Errorf("delete forward members: %w", err)
	}

	capDate := fromDate.AddDate(0, 0, -1)
	if _, err := tx.ExecContext(ctx,
		`UPDATE schedules SET recurrence_end_date = $1, updated_at = $2 WHERE id = $3`,
		capDate, time.Now().UTC(), headID,
	); err != nil {
		return fmt.Errorf("cap series end date: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete forward: %w", err)
	}
	return nil
}

// DeleteSeries removes the head, all member rows and every attached
// attendance row in a transaction.
func (r *ScheduleRepository) DeleteSeries(ctx context.Context, headID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete series: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM attendances WHERE schedule_id = $1 OR schedule_id IN (SELECT id FROM schedules WHERE parent_schedule_id = $1)`,
		headID,
	); err != nil {
		return fmt.Errorf("delete series attendances: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE parent_schedule_id = $1`, headID); err != nil {
		return fmt.Errorf("delete series members: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, headID); err != nil {
		return fmt.Errorf("delete series head: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete series: %w", err)
	}
	return nil
}

func prepareSchedule(schedule *models.Schedule) {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.CategoryIDs == nil {
		schedule.CategoryIDs = pq.StringArray{}
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now
}
