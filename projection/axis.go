package projection

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/bondmodel/utils"
)

// StepMonths is the spacing between projection dates.
const StepMonths = 12

// ErrHorizonBeforeValuation is returned when the horizon end precedes the valuation date.
var ErrHorizonBeforeValuation = errors.New("horizon end date is before valuation date")

// Axis is the sequence of projection dates Date(0) < Date(1) < ... < Date(Len()).
type Axis struct {
	dates []time.Time
}

// NewAxis builds the annual axis from valuation to the first date on or after end.
// When end equals valuation the axis has no periods.
func NewAxis(valuation, end time.Time) (*Axis, error) {
	if valuation.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("NewAxis: valuation and end dates are required")
	}
	if end.Before(valuation) {
		return nil, fmt.Errorf("NewAxis: %w (valuation %s, end %s)", ErrHorizonBeforeValuation,
			valuation.Format(utils.DateLayout), end.Format(utils.DateLayout))
	}

	dates := []time.Time{valuation}
	for d := valuation; d.Before(end); {
		d = utils.AddMonth(d, StepMonths)
		dates = append(dates, d)
	}
	return &Axis{dates: dates}, nil
}

// Len is the horizon length: the smallest N with Date(N) >= end.
func (a *Axis) Len() int {
	return len(a.dates) - 1
}

// Date returns the t-th projection date for 0 <= t <= Len(). Beyond Len() the axis keeps
// stepping so Date(t+1) is always defined for a bucket t.
func (a *Axis) Date(t int) time.Time {
	if t < 0 {
		panic(fmt.Sprintf("projection: negative period index %d", t))
	}
	if t < len(a.dates) {
		return a.dates[t]
	}
	d := a.dates[len(a.dates)-1]
	for i := len(a.dates); i <= t; i++ {
		d = utils.AddMonth(d, StepMonths)
	}
	return d
}

// Dates returns a copy of Date(0..Len()).
func (a *Axis) Dates() []time.Time {
	return append([]time.Time(nil), a.dates...)
}

// Start returns Date(0).
func (a *Axis) Start() time.Time {
	return a.dates[0]
}

// End returns Date(Len()).
func (a *Axis) End() time.Time {
	return a.dates[len(a.dates)-1]
}
