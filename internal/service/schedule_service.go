package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fieldside/clubcal-api/internal/models"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
)

type scheduleRepository interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	ListRange(ctx context.Context, teamID string, from, to time.Time) ([]models.Schedule, error)
	ListHeadsOverlapping(ctx context.Context, teamID string, from, to time.Time) ([]models.Schedule, error)
	ListMembers(ctx context.Context, headID string) ([]models.Schedule, error)
	Create(ctx context.Context, s *models.Schedule) error
	CreateSeries(ctx context.Context, head *models.Schedule, memberDates []time.Time) ([]models.Schedule, error)
	AddMembers(ctx context.Context, head *models.Schedule, dates []time.Time) ([]models.Schedule, error)
	Update(ctx context.Context, s *models.Schedule) error
	DeleteSingle(ctx context.Context, id string) error
	DeleteForward(ctx context.Context, headID string, fromDate time.Time) error
	DeleteSeries(ctx context.Context, headID string) error
}

type scheduleCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ScheduleService owns schedule heads, materialized series members, and the
// merged instance view served to calendars.
type ScheduleService struct {
	repo     scheduleRepository
	cache    scheduleCache
	validate *validator.Validate
	logger   *zap.Logger
	metrics  *MetricsService
	horizon  time.Duration
	cacheTTL time.Duration
}

func NewScheduleService(repo scheduleRepository, cache scheduleCache, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, horizon, cacheTTL time.Duration) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if horizon <= 0 {
		horizon = 26 * 7 * 24 * time.Hour
	}
	return &ScheduleService{
		repo:     repo,
		cache:    cache,
		validate: validate,
		logger:   logger,
		metrics:  metrics,
		horizon:  horizon,
		cacheTTL: cacheTTL,
	}
}

// CreateScheduleRequest carries a new standalone schedule or the head of a
// recurring series. Dates are calendar days in "2006-01-02" form; times are
// "15:04" strings kept opaque by the engine.
type CreateScheduleRequest struct {
	TeamID             string   `json:"teamId" validate:"required,uuid"`
	Title              string   `json:"title" validate:"required,max=120"`
	Date               string   `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime          *string  `json:"startTime,omitempty" validate:"omitempty,datetime=15:04"`
	EndTime            *string  `json:"endTime,omitempty" validate:"omitempty,datetime=15:04"`
	GatherTime         *string  `json:"gatherTime,omitempty" validate:"omitempty,datetime=15:04"`
	Venue              *string  `json:"venue,omitempty" validate:"omitempty,max=200"`
	CategoryIDs        []string `json:"categoryIds,omitempty" validate:"omitempty,dive,uuid"`
	StudentCanRegister bool     `json:"studentCanRegister"`
	RecurrenceRule     string   `json:"recurrenceRule,omitempty"`
	RecurrenceInterval int      `json:"recurrenceInterval,omitempty"`
	RecurrenceDays     []int    `json:"recurrenceDays,omitempty"`
	RecurrenceEndDate  *string  `json:"recurrenceEndDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateScheduleRequest edits one schedule row. Editing a series member turns
// it into an exception; editing a head may regenerate members when the rule
// window grows or shrinks.
type UpdateScheduleRequest struct {
	Title              *string  `json:"title,omitempty" validate:"omitempty,max=120"`
	Date               *string  `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartTime          *string  `json:"startTime,omitempty" validate:"omitempty,datetime=15:04"`
	EndTime            *string  `json:"endTime,omitempty" validate:"omitempty,datetime=15:04"`
	GatherTime         *string  `json:"gatherTime,omitempty" validate:"omitempty,datetime=15:04"`
	Venue              *string  `json:"venue,omitempty" validate:"omitempty,max=200"`
	CategoryIDs        []string `json:"categoryIds,omitempty" validate:"omitempty,dive,uuid"`
	StudentCanRegister *bool    `json:"studentCanRegister,omitempty"`
	RecurrenceEndDate  *string  `json:"recurrenceEndDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Create validates the request, persists the head, and materializes series
// members up to the end date or the configured horizon, whichever is nearer.
// For weekly rules whose start weekday is not among the selected days the
// head date snaps forward to the first emitted occurrence.
func (s *ScheduleService) Create(ctx context.Context, req *CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrValidation, err)
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrValidation, err)
	}

	head := &models.Schedule{
		TeamID:             req.TeamID,
		Title:              req.Title,
		Date:               DateOnly(date),
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		GatherTime:         req.GatherTime,
		Venue:              req.Venue,
		CategoryIDs:        pq.StringArray(req.CategoryIDs),
		StudentCanRegister: req.StudentCanRegister,
		RecurrenceRule:     models.RecurrenceRule(req.RecurrenceRule),
		RecurrenceInterval: req.RecurrenceInterval,
	}
	if head.RecurrenceRule == "" {
		head.RecurrenceRule = models.RecurrenceNone
	}
	if head.RecurrenceInterval == 0 {
		head.RecurrenceInterval = 1
	}
	for _, d := range req.RecurrenceDays {
		head.RecurrenceDays = append(head.RecurrenceDays, int64(d))
	}
	if req.RecurrenceEndDate != nil {
		end, perr := time.Parse("2006-01-02", *req.RecurrenceEndDate)
		if perr != nil {
			return nil, appErrors.Wrap(appErrors.ErrValidation, perr)
		}
		end = DateOnly(end)
		head.RecurrenceEndDate = &end
	}

	rec, err := RecurrenceFromSchedule(head)
	if err != nil {
		return nil, err
	}

	if _, ok := rec.(NoRecurrence); ok {
		head.RecurrenceInterval = 1
		head.RecurrenceDays = nil
		head.RecurrenceEndDate = nil
		if err := s.repo.Create(ctx, head); err != nil {
			return nil, appErrors.Wrap(appErrors.ErrInternal, err)
		}
		s.invalidate(ctx, head.TeamID)
		return head, nil
	}

	until := s.materializeUntil(head)
	dates := ExpandWindow(head.Date, rec, head.RecurrenceEndDate, head.Date, until)
	if len(dates) == 0 {
		return nil, appErrors.New("VALIDATION_ERROR", "recurrence rule produces no occurrences before its end date", 400)
	}
	head.Date = dates[0]
	head.MaterializedUntil = &until

	members, err := s.repo.CreateSeries(ctx, head, dates[1:])
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}

	s.logger.Info("schedule series created",
		zap.String("schedule_id", head.ID),
		zap.String("team_id", head.TeamID),
		zap.String("rule", string(head.RecurrenceRule)),
		zap.Int("members", len(members)))
	s.invalidate(ctx, head.TeamID)
	return head, nil
}

// Update applies an edit to one schedule row. A member edit never touches its
// siblings; the changed row simply stops matching the rule and becomes an
// exception. A head edit that moves the end date regenerates the member set
// without duplicating dates already persisted.
func (s *ScheduleService) Update(ctx context.Context, teamID, id string, req *UpdateScheduleRequest) (*models.Schedule, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrValidation, err)
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	if row.TeamID != teamID {
		return nil, appErrors.ErrCrossTeam
	}

	if req.Title != nil {
		row.Title = *req.Title
	}
	if req.Date != nil {
		d, perr := time.Parse("2006-01-02", *req.Date)
		if perr != nil {
			return nil, appErrors.Wrap(appErrors.ErrValidation, perr)
		}
		row.Date = DateOnly(d)
	}
	if req.StartTime != nil {
		row.StartTime = req.StartTime
	}
	if req.EndTime != nil {
		row.EndTime = req.EndTime
	}
	if req.GatherTime != nil {
		row.GatherTime = req.GatherTime
	}
	if req.Venue != nil {
		row.Venue = req.Venue
	}
	if req.CategoryIDs != nil {
		row.CategoryIDs = pq.StringArray(req.CategoryIDs)
	}
	if req.StudentCanRegister != nil {
		row.StudentCanRegister = *req.StudentCanRegister
	}

	endChanged := false
	if req.RecurrenceEndDate != nil && row.IsSeriesHead() {
		end, perr := time.Parse("2006-01-02", *req.RecurrenceEndDate)
		if perr != nil {
			return nil, appErrors.Wrap(appErrors.ErrValidation, perr)
		}
		end = DateOnly(end)
		if end.Before(row.Date) {
			return nil, appErrors.New("VALIDATION_ERROR", "recurrenceEndDate precedes series start", 400)
		}
		row.RecurrenceEndDate = &end
		endChanged = true
		until := s.materializeUntil(row)
		row.MaterializedUntil = &until
	}

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}

	if endChanged {
		if err := s.reconcileMembers(ctx, row); err != nil {
			return nil, err
		}
	}

	s.invalidate(ctx, row.TeamID)
	return row, nil
}

// reconcileMembers brings the persisted member set of a head in line with its
// current end date: members past the end date are removed, missing dates up
// to the end date (or horizon) are materialized. Exception rows on dates the
// rule still covers are left alone.
func (s *ScheduleService) reconcileMembers(ctx context.Context, head *models.Schedule) error {
	rec, err := RecurrenceFromSchedule(head)
	if err != nil {
		return err
	}

	if head.RecurrenceEndDate != nil {
		if err := s.repo.DeleteForward(ctx, head.ID, head.RecurrenceEndDate.AddDate(0, 0, 1)); err != nil {
			return appErrors.Wrap(appErrors.ErrInternal, err)
		}
	}

	members, err := s.repo.ListMembers(ctx, head.ID)
	if err != nil {
		return appErrors.Wrap(appErrors.ErrInternal, err)
	}
	covered := make(map[time.Time]bool, len(members)+1)
	covered[head.Date] = true
	for i := range members {
		covered[DateOnly(members[i].Date)] = true
	}

	var missing []time.Time
	for _, d := range ExpandWindow(head.Date, rec, head.RecurrenceEndDate, head.Date, s.materializeUntil(head)) {
		if !covered[d] {
			missing = append(missing, d)
		}
	}
	if _, err := s.repo.AddMembers(ctx, head, missing); err != nil {
		return appErrors.Wrap(appErrors.ErrInternal, err)
	}
	return nil
}

// ListInstances returns every schedule occurrence for the team in [from, to],
// merging persisted rows with virtual occurrences expanded from series heads.
// A persisted member or exception always wins over the virtual occurrence on
// the same series and date.
func (s *ScheduleService) ListInstances(ctx context.Context, teamID string, from, to time.Time) ([]models.ScheduleInstance, error) {
	from, to = DateOnly(from), DateOnly(to)
	if to.Before(from) {
		return nil, appErrors.New("VALIDATION_ERROR", "range end precedes range start", 400)
	}

	key := fmt.Sprintf("schedules:%s:%s:%s", teamID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if s.cache != nil {
		var cached []models.ScheduleInstance
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheLookup(true)
			return cached, nil
		}
		s.metrics.RecordCacheLookup(false)
	}

	stored, err := s.repo.ListRange(ctx, teamID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}
	heads, err := s.repo.ListHeadsOverlapping(ctx, teamID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err)
	}

	instances := make([]models.ScheduleInstance, 0, len(stored))
	covered := make(map[string]bool, len(stored))
	for i := range stored {
		covered[stored[i].SeriesID()+"|"+DateOnly(stored[i].Date).Format("2006-01-02")] = true
		instances = append(instances, models.ScheduleInstance{Schedule: stored[i]})
	}

	for i := range heads {
		head := heads[i]
		rec, rerr := RecurrenceFromSchedule(&head)
		if rerr != nil {
			s.logger.Warn("skipping head with invalid recurrence", zap.String("schedule_id", head.ID), zap.Error(rerr))
			continue
		}

		// Stored rows are authoritative up to the head's materialized
		// frontier: a date inside that window with no stored row was
		// deleted and stays gone. Virtual expansion starts past the
		// frontier and still skips dates a stored row already occupies.
		frontier := DateOnly(head.Date)
		if head.MaterializedUntil != nil {
			frontier = DateOnly(*head.MaterializedUntil)
		}
		virtualFrom := frontier.AddDate(0, 0, 1)
		if virtualFrom.Before(from) {
			virtualFrom = from
		}

		for _, d := range ExpandWindow(head.Date, rec, head.RecurrenceEndDate, virtualFrom, to) {
			if covered[head.ID+"|"+d.Format("2006-01-02")] {
				continue
			}
			virtual := head
			virtual.Date = d
			instances = append(instances, models.ScheduleInstance{Schedule: virtual, Virtual: true})
		}
	}

	sort.SliceStable(instances, func(i, j int) bool {
		if !instances[i].Date.Equal(instances[j].Date) {
			return instances[i].Date.Before(instances[j].Date)
		}
		si, sj := "", ""
		if instances[i].StartTime != nil {
			si = *instances[i].StartTime
		}
		if instances[j].StartTime != nil {
			sj = *instances[j].StartTime
		}
		return si < sj
	})

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, instances, s.cacheTTL); err != nil {
			s.logger.Warn("schedule cache write failed", zap.Error(err))
		}
	}
	return instances, nil
}

// Get returns one schedule row by id with the team guard applied.
func (s *ScheduleService) Get(ctx context.Context, teamID, id string) (*models.Schedule, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	if row.TeamID != teamID {
		return nil, appErrors.ErrCrossTeam
	}
	return row, nil
}

// Delete removes occurrences according to scope. Scope single on a head that
// still has members is rejected; delete forward from the head date instead.
// Forward on a member caps the head's end date to the day before the member.
func (s *ScheduleService) Delete(ctx context.Context, teamID, id string, scope models.DeleteScope) error {
	if !scope.Valid() {
		return appErrors.New("VALIDATION_ERROR", "scope must be single, forward, or series", 400)
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return appErrors.ErrNotFound
	}
	if row.TeamID != teamID {
		return appErrors.ErrCrossTeam
	}

	isHead := row.IsSeriesHead()
	isMember := row.ParentScheduleID != nil

	switch scope {
	case models.DeleteScopeSingle:
		if isHead {
			members, merr := s.repo.ListMembers(ctx, row.ID)
			if merr != nil {
				return appErrors.Wrap(appErrors.ErrInternal, merr)
			}
			if len(members) > 0 {
				return appErrors.New("VALIDATION_ERROR", "series head cannot be deleted alone; use scope forward or series", 400)
			}
		}
		err = s.repo.DeleteSingle(ctx, row.ID)
	case models.DeleteScopeForward:
		switch {
		case isHead:
			err = s.repo.DeleteSeries(ctx, row.ID)
		case isMember:
			err = s.repo.DeleteForward(ctx, *row.ParentScheduleID, DateOnly(row.Date))
		default:
			err = s.repo.DeleteSingle(ctx, row.ID)
		}
	case models.DeleteScopeSeries:
		switch {
		case isHead:
			err = s.repo.DeleteSeries(ctx, row.ID)
		case isMember:
			err = s.repo.DeleteSeries(ctx, *row.ParentScheduleID)
		default:
			err = s.repo.DeleteSingle(ctx, row.ID)
		}
	}
	if err != nil {
		return appErrors.Wrap(appErrors.ErrInternal, err)
	}

	s.logger.Info("schedule deleted",
		zap.String("schedule_id", row.ID),
		zap.String("team_id", row.TeamID),
		zap.String("scope", string(scope)))
	s.invalidate(ctx, row.TeamID)
	return nil
}

func (s *ScheduleService) materializeUntil(head *models.Schedule) time.Time {
	until := head.Date.Add(s.horizon)
	if head.RecurrenceEndDate != nil && head.RecurrenceEndDate.Before(until) {
		until = *head.RecurrenceEndDate
	}
	return DateOnly(until)
}

func (s *ScheduleService) invalidate(ctx context.Context, teamID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("schedules:%s:*", teamID)); err != nil {
		s.logger.Warn("schedule cache invalidation failed", zap.String("team_id", teamID), zap.Error(err))
	}
}
