package calendar

import (
	"sync"
	"time"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	// USD is the United States settlement calendar.
	USD CalendarID = "USD"
	// Null has no holidays and no weekends; every date is a business day.
	Null CalendarID = "NULL"
)

// BusinessDayConvention selects how a non-business day is rolled.
type BusinessDayConvention string

const (
	Unadjusted        BusinessDayConvention = "UNADJUSTED"
	Following         BusinessDayConvention = "FOLLOWING"
	ModifiedFollowing BusinessDayConvention = "MODIFIED_FOLLOWING"
	Preceding         BusinessDayConvention = "PRECEDING"
)

var (
	usdMu    sync.Mutex
	usdYears = map[int]map[string]struct{}{}
)

func isHoliday(cal CalendarID, t time.Time) bool {
	switch cal {
	case USD:
		_, ok := usdHolidaySet(t.Year())[t.Format("2006-01-02")]
		return ok
	default:
		return false
	}
}

// usdHolidaySet builds the holiday set of a year once and memoizes it.
func usdHolidaySet(year int) map[string]struct{} {
	usdMu.Lock()
	defer usdMu.Unlock()
	if set, ok := usdYears[year]; ok {
		return set
	}
	set := make(map[string]struct{}, 16)
	for _, h := range usdHolidays(year) {
		set[h.Format("2006-01-02")] = struct{}{}
	}
	// New Year's Day of the following year observed on Friday Dec 31.
	if next := date(year+1, time.January, 1); next.Weekday() == time.Saturday {
		set[date(year, time.December, 31).Format("2006-01-02")] = struct{}{}
	}
	usdYears[year] = set
	return set
}

func usdHolidays(year int) []time.Time {
	hs := []time.Time{
		observed(date(year, time.January, 1)),
		nthWeekday(year, time.January, time.Monday, 3),  // Martin Luther King Jr.
		nthWeekday(year, time.February, time.Monday, 3), // Washington's Birthday
		lastWeekday(year, time.May, time.Monday),        // Memorial Day
		observed(date(year, time.July, 4)),
		nthWeekday(year, time.September, time.Monday, 1), // Labor Day
		nthWeekday(year, time.October, time.Monday, 2),   // Columbus Day
		observed(date(year, time.November, 11)),
		nthWeekday(year, time.November, time.Thursday, 4), // Thanksgiving
		observed(date(year, time.December, 25)),
	}
	if year >= 2022 {
		hs = append(hs, observed(date(year, time.June, 19)))
	}
	return hs
}

// observed moves a Saturday holiday to Friday and a Sunday holiday to Monday.
// A Saturday New Year's Day is handled by the previous year's set.
func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		if d.Month() == time.January && d.Day() == 1 {
			return d
		}
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	default:
		return d
	}
}

func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	d := date(year, month, 1)
	offset := (int(wd) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+7*(n-1))
}

func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	d := date(year, month+1, 0)
	offset := (int(d.Weekday()) - int(wd) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if cal == Null {
		return true
	}
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust rolls t to a business day according to conv.
func Adjust(cal CalendarID, t time.Time, conv BusinessDayConvention) time.Time {
	switch conv {
	case Following:
		return AdjustFollowing(cal, t)
	case ModifiedFollowing:
		return AdjustModifiedFollowing(cal, t)
	case Preceding:
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
		return t
	default:
		return t
	}
}

// AdjustModifiedFollowing applies Modified Following.
func AdjustModifiedFollowing(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func AdjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
// With n == 0 the date is rolled forward to a business day.
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	if n == 0 {
		return AdjustFollowing(cal, t)
	}
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}
