package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldside/clubcal-api/internal/models"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
)

type mockScheduleRepo struct {
	schedules map[string]models.Schedule
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{schedules: make(map[string]models.Schedule)}
}

func (m *mockScheduleRepo) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	s, ok := m.schedules[id]
	if !ok {
		return nil, fmt.Errorf("schedule %s not found", id)
	}
	return &s, nil
}

func (m *mockScheduleRepo) ListRange(ctx context.Context, teamID string, from, to time.Time) ([]models.Schedule, error) {
	var out []models.Schedule
	for _, s := range m.schedules {
		if s.TeamID != teamID || s.Date.Before(from) || s.Date.After(to) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *mockScheduleRepo) ListHeadsOverlapping(ctx context.Context, teamID string, from, to time.Time) ([]models.Schedule, error) {
	var out []models.Schedule
	for _, s := range m.schedules {
		if s.TeamID != teamID || !s.IsSeriesHead() {
			continue
		}
		if s.Date.After(to) {
			continue
		}
		if s.RecurrenceEndDate != nil && s.RecurrenceEndDate.Before(from) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *mockScheduleRepo) ListMembers(ctx context.Context, headID string) ([]models.Schedule, error) {
	var out []models.Schedule
	for _, s := range m.schedules {
		if s.ParentScheduleID != nil && *s.ParentScheduleID == headID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockScheduleRepo) Create(ctx context.Context, s *models.Schedule) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	m.schedules[s.ID] = *s
	return nil
}

func (m *mockScheduleRepo) CreateSeries(ctx context.Context, head *models.Schedule, memberDates []time.Time) ([]models.Schedule, error) {
	if head.ID == "" {
		head.ID = uuid.NewString()
	}
	m.schedules[head.ID] = *head
	members, err := m.AddMembers(ctx, head, memberDates)
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (m *mockScheduleRepo) AddMembers(ctx context.Context, head *models.Schedule, dates []time.Time) ([]models.Schedule, error) {
	var members []models.Schedule
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
		m.schedules[member.ID] = member
		members = append(members, member)
	}
	return members, nil
}

func (m *mockScheduleRepo) Update(ctx context.Context, s *models.Schedule) error {
	if _, ok := m.schedules[s.ID]; !ok {
		return fmt.Errorf("schedule %s not found", s.ID)
	}
	m.schedules[s.ID] = *s
	return nil
}

func (m *mockScheduleRepo) DeleteSingle(ctx context.Context, id string) error {
	delete(m.schedules, id)
	return nil
}

func (m *mockScheduleRepo) DeleteForward(ctx context.Context, headID string, fromDate time.Time) error {
	for id, s := range m.schedules {
		if s.ParentScheduleID != nil && *s.ParentScheduleID == headID && !s.Date.Before(fromDate) {
			delete(m.schedules, id)
		}
	}
	if head, ok := m.schedules[headID]; ok {
		end := fromDate.AddDate(0, 0, -1)
		head.RecurrenceEndDate = &end
		m.schedules[headID] = head
	}
	return nil
}

func (m *mockScheduleRepo) DeleteSeries(ctx context.Context, headID string) error {
	for id, s := range m.schedules {
		if id == headID || (s.ParentScheduleID != nil && *s.ParentScheduleID == headID) {
			delete(m.schedules, id)
		}
	}
	return nil
}

type mockScheduleCache struct {
	entries map[string][]byte
}

func newMockScheduleCache() *mockScheduleCache {
	return &mockScheduleCache{entries: make(map[string][]byte)}
}

func (m *mockScheduleCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockScheduleCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *mockScheduleCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.entries = make(map[string][]byte)
	return nil
}

func newScheduleService(repo scheduleRepository) *ScheduleService {
	return NewScheduleService(repo, nil, nil, nil, nil, 26*7*24*time.Hour, 0)
}

func TestScheduleServiceCreateStandalone(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := newScheduleService(repo)

	created, err := svc.Create(context.Background(), &CreateScheduleRequest{
		TeamID: uuid.NewString(),
		Title:  "Friendly match",
		Date:   "2025-04-12",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RecurrenceNone, created.RecurrenceRule)
	assert.Nil(t, created.RecurrenceEndDate)
	assert.Len(t, repo.schedules, 1)
}

func TestScheduleServiceCreateWeeklySeriesMaterializesMembers(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := newScheduleService(repo)

	end := "2025-04-30"
	created, err := svc.Create(context.Background(), &CreateScheduleRequest{
		TeamID:             uuid.NewString(),
		Title:              "Practice",
		Date:               "2025-04-07", // Monday
		RecurrenceRule:     "WEEKLY",
		RecurrenceInterval: 1,
		RecurrenceDays:     []int{1, 3}, // Mon, Wed
		RecurrenceEndDate:  &end,
	})
	require.NoError(t, err)

	// Mon/Wed through April 30: 7th, 9th, 14th, 16th, 21st, 23rd, 28th, 30th.
	assert.Len(t, repo.schedules, 8)

	members, err := repo.ListMembers(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Len(t, members, 7)
	for _, member := range members {
		assert.Equal(t, models.RecurrenceNone, member.RecurrenceRule)
		assert.Equal(t, created.ID, *member.ParentScheduleID)
	}
}

func TestScheduleServiceCreateOpenEndedSeriesBoundedByHorizon(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := NewScheduleService(repo, nil, nil, nil, nil, 21*24*time.Hour, 0)

	_, err := svc.Create(context.Background(), &CreateScheduleRequest{
		TeamID:             uuid.NewString(),
		Title:              "Practice",
		Date:               "2025-04-07",
		RecurrenceRule:     "DAILY",
		RecurrenceInterval: 7,
	})
	require.NoError(t, err)

	// Every 7 days within a 21-day horizon: start plus three more.
	assert.Len(t, repo.schedules, 4)
}

func TestScheduleServiceCreateSnapsWeeklyHeadToFirstOccurrence(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := newScheduleService(repo)

	end := "2025-04-30"
	created, err := svc.Create(context.Background(), &CreateScheduleRequest{
		TeamID:             uuid.NewString(),
		Title:              "Practice",
		Date:               "2025-04-08", // Tuesday
		RecurrenceRule:     "WEEKLY",
		RecurrenceInterval: 1,
		RecurrenceDays:     []int{3}, // Wednesday only
		RecurrenceEndDate:  &end,
	})
	require.NoError(t, err)

	assert.Equal(t, "2025-04-09", created.Date.Format("2006-01-02"))
}

func TestScheduleServiceCreateRejectsBadRule(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := newScheduleService(repo)

	cases := []CreateScheduleRequest{
		{TeamID: uuid.NewString(), Title: "a", Date: "2025-04-07", RecurrenceRule: "WEEKLY", RecurrenceInterval: -2, RecurrenceDays: []int{1}},
		{TeamID: uuid.NewString(), Title: "a", Date: "2025-04-07", RecurrenceRule: "WEEKLY", RecurrenceInterval: 1, RecurrenceDays: []int{7}},
		{TeamID: uuid.NewString(), Title: "a", Date: "2025-04-07", RecurrenceRule: "YEARLY", RecurrenceInterval: 1},
	}
	for i := range cases {
		_, err := svc.Create(context.Background(), &cases[i])
		assert.Error(t, err, "case %d", i)
		assert.Empty(t, repo.schedules)
	}
}

func TestScheduleServiceListMergesStoredAndVirtual(t *testing.T) {
	repo := newMockScheduleRepo()
	// A 10-day horizon materializes only the first member; later Mondays
	// come from the expander at read time.
	svc := NewScheduleService(repo, nil, nil, nil, nil, 10*24*time.Hour, 0)
	teamID := uuid.NewString()

	head, err := svc.Create(context.Background(), &CreateScheduleRequest{
		TeamID:             teamID,
		Title:              "Practice",
		Date:               "2025-04-07",
		RecurrenceRule:     "WEEKLY",
		RecurrenceInterval: 1,
		RecurrenceDays:     []int{1},
	})
	require.NoError(t, err)

	members, err := repo.ListMembers(context.Background(), head.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, "2025-04-14", members[0].Date.Format("2006-01-02"))

	from, _ := time.Parse("2006-01-02", "2025-04-01")
	to, _ := time.Parse("2006-01-02", "2025-04-30")
	instances, err := svc.ListInstances(context.Background(), teamID, from, to)
	require.NoError(t, err)

	require.Len(t, instances, 4)
	dates := make(map[string]bool)
	virtualCount := 0
	for _, inst := range instances {
		key := inst.Date.Format("2006-01-02")
		assert.False(t, dates[key], "duplicate instance on %s", key)
		dates[key] = true
		if inst.Virtual {
			virtualCount++
		}
	}
	assert.True(t, dates["2025-04-07"])
	assert.True(t, dates["2025-04-14"])
	assert.True(t, dates["2025-04-21"])
	assert.True(t, dates["2025-04-28"])
	assert.Equal(t, 2, virtualCount)
}

func TestScheduleServiceMemberEditSuppressesVirtualOnOriginalDate(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := newScheduleService(repo)
	teamID := uuid.NewString()

	end := "2025-04-14"
	head, err := svc.Create(context.Background(), &CreateScheduleRequest{
		TeamID:             teamID,
		Title:              "Practice",
		Date:               "2025-04-07",
		RecurrenceRule:     "WEEKLY",
		RecurrenceInterval: 1,
		RecurrenceDays:     []int{1},
		RecurrenceEndDate:  &end,
	})
	require.NoError(t, err)

	members, err := repo.ListMembers(context.Background(), head.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)

	moved := "2025-04-15"
	_, err = svc.Update(context.Background(), teamID, members[0].ID, &UpdateScheduleRequest{Date: &moved})
	require.NoError(t, err)

	from, _ := time.Parse("2006-01-02", "2025-04-01")
	to, _ := time.Parse("2006-01-02", "2025-04-30")
	instances, err := svc.ListInstances(context.Background(), teamID, from, to)
	require.NoError(t, err)

	require.Len(t, instances, 2)
	for _, inst := range instances {
		assert.NotEqual(t, "2025-04-14", inst.Date.Format("2006-01-02"))
		assert.False(t, inst.Virtual)
	}
}

func TestScheduleServiceDeletedMemberStaysDeletedInListing(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := newScheduleService(repo)
	teamID := uuid.NewString()

	end := "2025-06-17"
	head, err := svc.Create(context.Background(), &CreateScheduleRequest{
		TeamID:             teamID,
		Title:              "Practice",
		Date:               "2025-06-03", // Tuesday
		RecurrenceRule:     "WEEKLY",
		RecurrenceInterval: 1,
		RecurrenceDays:     []int{2},
		RecurrenceEndDate:  &end,
	})
	require.NoError(t, err)

	members, err := repo.ListMembers(context.Background(), head.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	var last models.Schedule
	for _, m := range members {
		if m.Date.Format("2006-01-02") == "2025-06-17" {
			last = m
		}
	}
	require.NotEmpty(t, last.ID)
	require.NoError(t, svc.Delete(context.Background(), teamID, last.ID, models.DeleteScopeSingle))

	// The rule still covers June 17, but that occurrence was materialized
	// and then removed. It must not come back as a virtual instance.
	from, _ := time.Parse("2006-01-02", "2025-06-01")
	to, _ := time.Parse("2006-01-02", "2025-06-30")
	instances, err := svc.ListInstances(context.Background(), teamID, from, to)
	require.NoError(t, err)

	require.Len(t, instances, 2)
	for _, inst := range instances {
		assert.NotEqual(t, "2025-06-17", inst.Date.Format("2006-01-02"))
		assert.False(t, inst.Virtual)
	}
}

func TestScheduleServiceListRecordsCacheHitsAndMisses(t *testing.T) {
	repo := newMockScheduleRepo()
	metrics := NewMetricsService()
	svc := NewScheduleService(repo, newMockScheduleCache(), nil, nil, metrics, 26*7*24*time.Hour, time.Minute)
	teamID := uuid.NewString()

	_, err := svc.Create(context.Background(), &CreateScheduleRequest{
		TeamID: teamID,
		Title:  "Friendly match",
		Date:   "2025-04-12",
	})
	require.NoError(t, err)

	from, _ := time.Parse("2006-01-02", "2025-04-01")
	to, _ := time.Parse("2006-01-02", "2025-04-30")

	_, err = svc.ListInstances(context.Background(), teamID, from, to)
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheMisses))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.cacheHits))

	_, err = svc.ListInstances(context.Background(), teamID, from, to)
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheMisses))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheHits))
}

func TestScheduleServiceDeleteForwardCapsSeriesEnd(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := newScheduleService(repo)
	teamID := uuid.NewString()

	end := "2025-04-28"
	head, err := svc.Create(context.Background(), &CreateScheduleRequest{
		TeamID:             teamID,
		Title:              "Practice",
		Date:               "2025-04-07",
		RecurrenceRule:     "WEEKLY",
		RecurrenceInterval: 1,
		RecurrenceDays:     []int{1},
		RecurrenceEndDate:  &end,
	})
	require.NoError(t, err)

	members, err := repo.ListMembers(context.Background(), head.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)

	var target models.Schedule
	for _, m := range members {
		if m.Date.Format("2006-01-02") == "2025-04-21" {
			target = m
		}
	}
	require.NotEmpty(t, target.ID)

	require.NoError(t, svc.Delete(context.Background(), teamID, target.ID, models.DeleteScopeForward))

	stored := repo.schedules[head.ID]
	require.NotNil(t, stored.RecurrenceEndDate)
	assert.Equal(t, "2025-04-20", stored.RecurrenceEndDate.Format("2006-01-02"))

	remaining, err := repo.ListMembers(context.Background(), head.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
	assert.Equal(t, "2025-04-14", remaining[0].Date.Format("2006-01-02"))
}

func TestScheduleServiceDeleteSingleOnHeadWithMembersRejected(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := newScheduleService(repo)
	teamID := uuid.NewString()

	end := "2025-04-14"
	head, err := svc.Create(context.Background(), &CreateScheduleRequest{
		TeamID:             teamID,
		Title:              "Practice",
		Date:               "2025-04-07",
		RecurrenceRule:     "WEEKLY",
		RecurrenceInterval: 1,
		RecurrenceDays:     []int{1},
		RecurrenceEndDate:  &end,
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), teamID, head.ID, models.DeleteScopeSingle)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)

	// Series scope removes the head and every member.
	require.NoError(t, svc.Delete(context.Background(), teamID, head.ID, models.DeleteScopeSeries))
	assert.Empty(t, repo.schedules)
}

func TestScheduleServiceCrossTeamRejected(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := newScheduleService(repo)

	created, err := svc.Create(context.Background(), &CreateScheduleRequest{
		TeamID: uuid.NewString(),
		Title:  "Practice",
		Date:   "2025-04-07",
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.NewString(), created.ID)
	assert.ErrorIs(t, err, appErrors.ErrCrossTeam)

	err = svc.Delete(context.Background(), uuid.NewString(), created.ID, models.DeleteScopeSingle)
	assert.ErrorIs(t, err, appErrors.ErrCrossTeam)
}
