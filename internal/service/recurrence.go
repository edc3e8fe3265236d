package service

import (
	"sort"
	"time"

	"github.com/fieldside/clubcal-api/internal/models"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
)

// Recurrence is a tagged variant describing how a series repeats. Modeling
// the rule this way keeps invalid field combinations (weekly days on a
// daily rule, intervals on a one-off event) unrepresentable.
type Recurrence interface {
	isRecurrence()
}

// NoRecurrence marks a standalone event.
type NoRecurrence struct{}

// DailyRecurrence repeats every Interval days.
type DailyRecurrence struct {
	Interval int
}

// WeeklyRecurrence repeats on the given weekdays, advancing Interval weeks
// between qualifying weeks. Days is never empty; construction falls back to
// the start date's weekday.
type WeeklyRecurrence struct {
	Interval int
	Days     []time.Weekday
}

// MonthlyRecurrence repeats on the start date's day-of-month every Interval
// months, clamping to the last day of shorter months.
type MonthlyRecurrence struct {
	Interval int
}

func (NoRecurrence) isRecurrence()      {}
func (DailyRecurrence) isRecurrence()   {}
func (WeeklyRecurrence) isRecurrence()  {}
func (MonthlyRecurrence) isRecurrence() {}

// RecurrenceFromSchedule validates the flat persisted fields and builds the
// tagged variant. The flat shape exists only at the storage/API boundary.
func RecurrenceFromSchedule(s *models.Schedule) (Recurrence, error) {
	rule := s.RecurrenceRule
	if rule == "" {
		rule = models.RecurrenceNone
	}
	if !rule.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown recurrence rule")
	}
	if rule == models.RecurrenceNone {
		return NoRecurrence{}, nil
	}
	if s.RecurrenceInterval < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "recurrence interval must be at least 1")
	}
	if s.RecurrenceEndDate != nil && s.RecurrenceEndDate.Before(DateOnly(s.Date)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "recurrence end date precedes start date")
	}

	switch rule {
	case models.RecurrenceDaily:
		return DailyRecurrence{Interval: s.RecurrenceInterval}, nil
	case models.RecurrenceMonthly:
		return MonthlyRecurrence{Interval: s.RecurrenceInterval}, nil
	case models.RecurrenceWeekly:
		days := make([]time.Weekday, 0, len(s.RecurrenceDays))
		seen := make(map[time.Weekday]struct{})
		for _, d := range s.RecurrenceDays {
			if d < 0 || d > 6 {
				return nil, appErrors.Clone(appErrors.ErrValidation, "weekday indices must be between 0 and 6")
			}
			wd := time.Weekday(d)
			if _, dup := seen[wd]; dup {
				continue
			}
			seen[wd] = struct{}{}
			days = append(days, wd)
		}
		if len(days) == 0 {
			days = []time.Weekday{DateOnly(s.Date).Weekday()}
		}
		sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
		return WeeklyRecurrence{Interval: s.RecurrenceInterval, Days: days}, nil
	}
	return NoRecurrence{}, nil
}

// DateOnly truncates a timestamp to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateIterator lazily walks the concrete dates a series occupies. It is
// restartable via Reset and always finite: enumeration stops at the series
// end date (inclusive) or the caller's window end, whichever comes first.
type DateIterator struct {
	start time.Time
	rec   Recurrence
	until time.Time

	step int
	// weekly cursor: index into Days for the current qualifying week.
	dayIdx int
}

// NewDateIterator builds an iterator over [start, until]. until must be set
// by the caller; unbounded series have no natural termination. When the
// series carries its own end date the caller passes the earlier of the two
// bounds.
func NewDateIterator(start time.Time, rec Recurrence, until time.Time) *DateIterator {
	return &DateIterator{
		start: DateOnly(start),
		rec:   rec,
		until: DateOnly(until),
	}
}

// Reset rewinds the iterator to the first date.
func (it *DateIterator) Reset() {
	it.step = 0
	it.dayIdx = 0
}

// Next returns the next occupied date, or false when the sequence is done.
func (it *DateIterator) Next() (time.Time, bool) {
	for {
		candidate, ok := it.advance()
		if !ok {
			return time.Time{}, false
		}
		if candidate.After(it.until) {
			return time.Time{}, false
		}
		if candidate.Before(it.start) {
			continue
		}
		return candidate, true
	}
}

func (it *DateIterator) advance() (time.Time, bool) {
	switch rec := it.rec.(type) {
	case NoRecurrence:
		if it.step > 0 {
			return time.Time{}, false
		}
		it.step++
		return it.start, true
	case DailyRecurrence:
		candidate := it.start.AddDate(0, 0, it.step*rec.Interval)
		it.step++
		return candidate, true
	case MonthlyRecurrence:
		candidate := addMonthsClamped(it.start, it.step*rec.Interval)
		it.step++
		return candidate, true
	case WeeklyRecurrence:
		weekStart := startOfWeek(it.start).AddDate(0, 0, it.step*rec.Interval*7)
		candidate := weekStart.AddDate(0, 0, int(rec.Days[it.dayIdx]))
		it.dayIdx++
		if it.dayIdx >= len(rec.Days) {
			it.dayIdx = 0
			it.step++
		}
		return candidate, true
	}
	return time.Time{}, false
}

// ExpandWindow enumerates the series dates that fall inside [from, to],
// honoring the series' own inclusive end date when present.
func ExpandWindow(start time.Time, rec Recurrence, seriesEnd *time.Time, from, to time.Time) []time.Time {
	until := DateOnly(to)
	if seriesEnd != nil && DateOnly(*seriesEnd).Before(until) {
		until = DateOnly(*seriesEnd)
	}
	from = DateOnly(from)

	var dates []time.Time
	it := NewDateIterator(start, rec, until)
	for {
		d, ok := it.Next()
		if !ok {
			break
		}
		if d.Before(from) {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// startOfWeek returns the Sunday beginning the week containing t. Weekday
// indices follow time.Weekday (0 = Sunday), matching the stored
// recurrence_days values.
func startOfWeek(t time.Time) time.Time {
	return t.AddDate(0, 0, -int(t.Weekday()))
}

// addMonthsClamped moves the start date forward by months, pinning the
// day-of-month to the target month's last day when the start day does not
// exist there. Shorter months yield an instance on their last day instead of
// silently skipping the month.
func addMonthsClamped(start time.Time, months int) time.Time {
	year, month, day := start.Date()
	target := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := daysInMonth(target.Year(), target.Month()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
