package projection

import (
	"fmt"
	"time"

	"github.com/meenmo/bondmodel/utils"
)

// Event is a dated amount.
type Event struct {
	Date   time.Time
	Amount float64
}

// Series is a bucketed event stream. Values has one entry per axis period.
//
// Events outside [Date(0), Date(Len())) are not in Values; they are counted here.
type Series struct {
	Values        []float64
	DroppedBefore int
	DroppedAfter  int
	// DroppedBeforeAmount sums events dated before Date(0); DroppedAfterAmount sums
	// events on or after Date(Len()).
	DroppedBeforeAmount float64
	DroppedAfterAmount  float64
}

// Dropped returns the number of events outside the horizon.
func (s Series) Dropped() int {
	return s.DroppedBefore + s.DroppedAfter
}

// Total returns the sum of Values.
func (s Series) Total() float64 {
	total := 0.0
	for _, v := range s.Values {
		total += v
	}
	return total
}

// OrderError reports an event dated before its predecessor.
type OrderError struct {
	Index int
	Date  time.Time
	Prev  time.Time
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("event %d dated %s precedes event %d dated %s",
		e.Index, e.Date.Format(utils.DateLayout), e.Index-1, e.Prev.Format(utils.DateLayout))
}

// Bucket sums events into the half-open periods [Date(t), Date(t+1)) of axis.
//
// events must be in non-decreasing date order; the merge walks events and periods
// forward once and never revisits either.
func Bucket(events []Event, axis *Axis) (Series, error) {
	if axis == nil {
		return Series{}, fmt.Errorf("Bucket: axis is required")
	}
	n := axis.Len()
	s := Series{Values: make([]float64, n)}
	start, end := axis.Start(), axis.End()

	t := 0
	for i, ev := range events {
		if i > 0 && ev.Date.Before(events[i-1].Date) {
			return Series{}, &OrderError{Index: i, Date: ev.Date, Prev: events[i-1].Date}
		}
		switch {
		case ev.Date.Before(start):
			s.DroppedBefore++
			s.DroppedBeforeAmount += ev.Amount
			continue
		case !ev.Date.Before(end):
			s.DroppedAfter++
			s.DroppedAfterAmount += ev.Amount
			continue
		}
		for !ev.Date.Before(axis.Date(t + 1)) {
			t++
		}
		s.Values[t] += ev.Amount
	}
	return s, nil
}

// Sum adds series of length n element-wise.
func Sum(n int, series ...[]float64) ([]float64, error) {
	out := make([]float64, n)
	for i, values := range series {
		if len(values) != n {
			return nil, fmt.Errorf("Sum: series %d has %d periods, want %d", i, len(values), n)
		}
		for t, v := range values {
			out[t] += v
		}
	}
	return out, nil
}
