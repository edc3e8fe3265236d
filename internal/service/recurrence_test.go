package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldside/clubcal-api/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRecurrenceFromScheduleValidation(t *testing.T) {
	base := models.Schedule{Date: date(2025, time.April, 1)}

	t.Run("none forces standalone", func(t *testing.T) {
		s := base
		s.RecurrenceRule = models.RecurrenceNone
		rec, err := RecurrenceFromSchedule(&s)
		require.NoError(t, err)
		assert.IsType(t, NoRecurrence{}, rec)
	})

	t.Run("zero interval rejected", func(t *testing.T) {
		s := base
		s.RecurrenceRule = models.RecurrenceDaily
		s.RecurrenceInterval = 0
		_, err := RecurrenceFromSchedule(&s)
		assert.Error(t, err)
	})

	t.Run("end date before start rejected", func(t *testing.T) {
		s := base
		s.RecurrenceRule = models.RecurrenceDaily
		s.RecurrenceInterval = 1
		end := date(2025, time.March, 1)
		s.RecurrenceEndDate = &end
		_, err := RecurrenceFromSchedule(&s)
		assert.Error(t, err)
	})

	t.Run("weekday out of range rejected", func(t *testing.T) {
		s := base
		s.RecurrenceRule = models.RecurrenceWeekly
		s.RecurrenceInterval = 1
		s.RecurrenceDays = []int64{1, 7}
		_, err := RecurrenceFromSchedule(&s)
		assert.Error(t, err)
	})

	t.Run("weekly empty days falls back to start weekday", func(t *testing.T) {
		s := base // 2025-04-01 is a Tuesday
		s.RecurrenceRule = models.RecurrenceWeekly
		s.RecurrenceInterval = 1
		rec, err := RecurrenceFromSchedule(&s)
		require.NoError(t, err)
		weekly, ok := rec.(WeeklyRecurrence)
		require.True(t, ok)
		assert.Equal(t, []time.Weekday{time.Tuesday}, weekly.Days)
	})
}

func TestExpandDaily(t *testing.T) {
	start := date(2025, time.April, 1)
	dates := ExpandWindow(start, DailyRecurrence{Interval: 3}, nil, start, date(2025, time.April, 10))
	assert.Equal(t, []time.Time{
		date(2025, time.April, 1),
		date(2025, time.April, 4),
		date(2025, time.April, 7),
		date(2025, time.April, 10),
	}, dates)
}

func TestExpandWeeklyMonWedFri(t *testing.T) {
	// 2025-04-07 is a Monday; four full weeks should contain exactly 12
	// Monday/Wednesday/Friday dates.
	start := date(2025, time.April, 7)
	rec := WeeklyRecurrence{Interval: 1, Days: []time.Weekday{time.Monday, time.Wednesday, time.Friday}}
	dates := ExpandWindow(start, rec, nil, start, start.AddDate(0, 0, 27))

	require.Len(t, dates, 12)
	for _, d := range dates {
		switch d.Weekday() {
		case time.Monday, time.Wednesday, time.Friday:
		default:
			t.Fatalf("unexpected weekday %s for %s", d.Weekday(), d)
		}
	}
	assert.Equal(t, date(2025, time.April, 7), dates[0])
	assert.Equal(t, date(2025, time.May, 2), dates[11])
}

func TestExpandWeeklySkipsDaysBeforeStart(t *testing.T) {
	// Start on a Wednesday with Monday in the day set: the Monday of the
	// start week precedes the start date and must not be emitted.
	start := date(2025, time.April, 9)
	rec := WeeklyRecurrence{Interval: 1, Days: []time.Weekday{time.Monday, time.Wednesday}}
	dates := ExpandWindow(start, rec, nil, start, start.AddDate(0, 0, 13))
	assert.Equal(t, []time.Time{
		date(2025, time.April, 9),
		date(2025, time.April, 14),
		date(2025, time.April, 16),
		date(2025, time.April, 21),
	}, dates)
}

func TestExpandWeeklyInterval(t *testing.T) {
	// Every second week.
	start := date(2025, time.April, 7) // Monday
	rec := WeeklyRecurrence{Interval: 2, Days: []time.Weekday{time.Monday}}
	dates := ExpandWindow(start, rec, nil, start, start.AddDate(0, 0, 42))
	assert.Equal(t, []time.Time{
		date(2025, time.April, 7),
		date(2025, time.April, 21),
		date(2025, time.May, 5),
		date(2025, time.May, 19),
	}, dates)
}

func TestExpandMonthlyClampsToShortMonths(t *testing.T) {
	// Starting on the 31st: April has 30 days, so the April instance lands
	// on the 30th rather than skipping the month.
	start := date(2025, time.January, 31)
	dates := ExpandWindow(start, MonthlyRecurrence{Interval: 1}, nil, start, date(2025, time.May, 31))
	assert.Equal(t, []time.Time{
		date(2025, time.January, 31),
		date(2025, time.February, 28),
		date(2025, time.March, 31),
		date(2025, time.April, 30),
		date(2025, time.May, 31),
	}, dates)
}

func TestExpandHonorsInclusiveSeriesEnd(t *testing.T) {
	start := date(2025, time.April, 1)
	end := date(2025, time.April, 8)
	dates := ExpandWindow(start, DailyRecurrence{Interval: 7}, &end, start, date(2025, time.June, 1))
	assert.Equal(t, []time.Time{
		date(2025, time.April, 1),
		date(2025, time.April, 8),
	}, dates)
}

func TestExpandWindowOffsetFromStart(t *testing.T) {
	// Window beginning after the series start still derives dates from the
	// original start, not from the window edge.
	start := date(2025, time.April, 1)
	dates := ExpandWindow(start, DailyRecurrence{Interval: 3}, nil, date(2025, time.April, 5), date(2025, time.April, 12))
	assert.Equal(t, []time.Time{
		date(2025, time.April, 7),
		date(2025, time.April, 10),
	}, dates)
}

func TestDateIteratorRestartable(t *testing.T) {
	it := NewDateIterator(date(2025, time.April, 1), DailyRecurrence{Interval: 1}, date(2025, time.April, 3))

	var first []time.Time
	for {
		d, ok := it.Next()
		if !ok {
			break
		}
		first = append(first, d)
	}
	require.Len(t, first, 3)

	it.Reset()
	d, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, first[0], d)
}
