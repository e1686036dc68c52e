package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/bondmodel/calendar"
	"github.com/meenmo/bondmodel/utils"
)

// Frequency enumerates coupon frequencies in months.
type Frequency int

const (
	Annual     Frequency = 12
	Semiannual Frequency = 6
	Quarterly  Frequency = 3
	Monthly    Frequency = 1
)

// PerYear returns the number of periods per year.
func (f Frequency) PerYear() int {
	if f <= 0 {
		return 0
	}
	return 12 / int(f)
}

func (f Frequency) String() string {
	switch f {
	case Annual:
		return "Annual"
	case Semiannual:
		return "Semiannual"
	case Quarterly:
		return "Quarterly"
	case Monthly:
		return "Monthly"
	default:
		return fmt.Sprintf("Frequency(%d)", int(f))
	}
}

// Rule selects the date-generation direction.
type Rule string

const (
	// Backward rolls from the termination date; an irregular period becomes a front stub.
	Backward Rule = "BACKWARD"
	// Forward rolls from the effective date; an irregular period becomes a back stub.
	Forward Rule = "FORWARD"
)

// ErrInvalidDates is returned when termination is not after effective.
var ErrInvalidDates = errors.New("termination must be after effective date")

// Params describes a schedule.
type Params struct {
	Effective   time.Time
	Termination time.Time
	Frequency   Frequency
	Calendar    calendar.CalendarID
	// Convention adjusts every date but the termination date.
	Convention calendar.BusinessDayConvention
	// TerminationConvention adjusts the termination date.
	TerminationConvention calendar.BusinessDayConvention
	Rule                  Rule
	EndOfMonth            bool
}

// Schedule is an ordered list of period boundary dates.
type Schedule struct {
	Dates     []time.Time
	Frequency Frequency
	Calendar  calendar.CalendarID
	// Regular[i] is false when period i (Dates[i] to Dates[i+1]) is a stub.
	Regular []bool
}

// Periods returns the number of accrual periods.
func (s Schedule) Periods() int {
	if len(s.Dates) < 2 {
		return 0
	}
	return len(s.Dates) - 1
}

// Generate builds the schedule dates between p.Effective and p.Termination.
//
// Unadjusted dates are generated from a fixed seed (i * tenor from the seed) so no drift
// accumulates from month-end clamping, then each date is adjusted on p.Calendar.
func Generate(p Params) (Schedule, error) {
	if !p.Termination.After(p.Effective) {
		return Schedule{}, fmt.Errorf("schedule.Generate: %w (effective %s, termination %s)",
			ErrInvalidDates, p.Effective.Format(utils.DateLayout), p.Termination.Format(utils.DateLayout))
	}
	if p.Frequency <= 0 {
		return Schedule{}, fmt.Errorf("schedule.Generate: unsupported frequency %d", p.Frequency)
	}

	var unadjusted []time.Time
	var regular []bool
	switch p.Rule {
	case Forward:
		unadjusted, regular = rollForward(p)
	case Backward, "":
		unadjusted, regular = rollBackward(p)
	default:
		return Schedule{}, fmt.Errorf("schedule.Generate: unsupported rule %q", p.Rule)
	}

	dates := make([]time.Time, 0, len(unadjusted))
	last := len(unadjusted) - 1
	for i, d := range unadjusted {
		conv := p.Convention
		if i == last {
			conv = p.TerminationConvention
		}
		adj := calendar.Adjust(p.Calendar, d, conv)
		// Adjustment may collapse two dates; keep the later period.
		if len(dates) > 0 && !adj.After(dates[len(dates)-1]) {
			dates = dates[:len(dates)-1]
			regular = append(regular[:len(dates)], regular[len(dates)+1:]...)
		}
		dates = append(dates, adj)
	}

	return Schedule{
		Dates:     dates,
		Frequency: p.Frequency,
		Calendar:  p.Calendar,
		Regular:   regular,
	}, nil
}

func rollDate(seed time.Time, months int, eom bool) time.Time {
	d := utils.AddMonth(seed, months)
	if eom && utils.IsEndOfMonth(seed) {
		return utils.EndOfMonth(d)
	}
	return d
}

func rollBackward(p Params) ([]time.Time, []bool) {
	months := int(p.Frequency)
	dates := []time.Time{p.Termination}
	regular := []bool{}
	for i := 1; ; i++ {
		d := rollDate(p.Termination, -months*i, p.EndOfMonth)
		if d.Before(p.Effective) {
			break
		}
		dates = append(dates, d)
		regular = append(regular, true)
		if d.Equal(p.Effective) {
			break
		}
	}
	if !dates[len(dates)-1].Equal(p.Effective) {
		dates = append(dates, p.Effective)
		regular = append(regular, false)
	}

	// Reverse into ascending order.
	for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
		dates[i], dates[j] = dates[j], dates[i]
	}
	for i, j := 0, len(regular)-1; i < j; i, j = i+1, j-1 {
		regular[i], regular[j] = regular[j], regular[i]
	}
	return dates, regular
}

func rollForward(p Params) ([]time.Time, []bool) {
	months := int(p.Frequency)
	dates := []time.Time{p.Effective}
	regular := []bool{}
	for i := 1; ; i++ {
		d := rollDate(p.Effective, months*i, p.EndOfMonth)
		if d.After(p.Termination) {
			break
		}
		dates = append(dates, d)
		regular = append(regular, true)
		if d.Equal(p.Termination) {
			break
		}
	}
	if !dates[len(dates)-1].Equal(p.Termination) {
		dates = append(dates, p.Termination)
		regular = append(regular, false)
	}
	return dates, regular
}
