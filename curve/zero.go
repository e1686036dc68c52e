package curve

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/meenmo/bondmodel/utils"
)

// ZeroCurve interpolates continuously-compounded zero rates linearly in curve time.
// Beyond the first and last node the rate is held flat.
type ZeroCurve struct {
	reference time.Time
	dates     []time.Time
	times     []float64
	rates     []float64 // continuous
	dayCount  utils.DayCount
}

// NewZeroCurve builds a curve from node dates and zero rates quoted in comp/freq.
// The first date is the reference date.
func NewZeroCurve(dates []time.Time, rates []float64, dc utils.DayCount, comp Compounding, freq int) (*ZeroCurve, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("NewZeroCurve: at least one node is required")
	}
	if len(dates) != len(rates) {
		return nil, fmt.Errorf("NewZeroCurve: %d dates but %d rates", len(dates), len(rates))
	}
	if !dc.Valid() {
		return nil, fmt.Errorf("NewZeroCurve: unsupported day count %q", dc)
	}
	if comp == Compounded && freq <= 0 {
		return nil, fmt.Errorf("NewZeroCurve: compounded rates need a positive frequency")
	}

	c := &ZeroCurve{
		reference: dates[0],
		dates:     make([]time.Time, len(dates)),
		times:     make([]float64, len(dates)),
		rates:     make([]float64, len(dates)),
		dayCount:  dc,
	}
	for i, d := range dates {
		if i > 0 && !d.After(dates[i-1]) {
			return nil, fmt.Errorf("NewZeroCurve: node %d (%s) is not after node %d (%s)",
				i, d.Format(utils.DateLayout), i-1, dates[i-1].Format(utils.DateLayout))
		}
		t := utils.YearFraction(c.reference, d, dc)
		c.dates[i] = d
		c.times[i] = t
		c.rates[i] = toContinuous(rates[i], comp, freq, t)
	}
	return c, nil
}

// FromTenors anchors tenor labels on the evaluation date and prepends a zero-rate node at
// the anchor. It must be called inside WithEvaluationDate.
func FromTenors(labels []string, rates []float64, dc utils.DayCount, comp Compounding, freq int) (*ZeroCurve, error) {
	anchor := EvaluationDate()
	if anchor.IsZero() {
		return nil, fmt.Errorf("FromTenors: %w", ErrNoEvaluationDate)
	}
	if len(labels) != len(rates) {
		return nil, fmt.Errorf("FromTenors: %d tenors but %d rates", len(labels), len(rates))
	}

	dates := make([]time.Time, 0, len(labels)+1)
	zeros := make([]float64, 0, len(labels)+1)
	dates = append(dates, anchor)
	zeros = append(zeros, 0)
	for i, label := range labels {
		tenor, err := ParseTenor(label)
		if err != nil {
			return nil, fmt.Errorf("FromTenors: %w", err)
		}
		dates = append(dates, tenor.AddTo(anchor))
		zeros = append(zeros, rates[i])
	}
	return NewZeroCurve(dates, zeros, dc, comp, freq)
}

// ReferenceDate returns the first node date.
func (c *ZeroCurve) ReferenceDate() time.Time {
	return c.reference
}

// DayCount returns the curve time basis.
func (c *ZeroCurve) DayCount() utils.DayCount {
	return c.dayCount
}

// Nodes returns copies of the node dates and continuous zero rates.
func (c *ZeroCurve) Nodes() ([]time.Time, []float64) {
	dates := append([]time.Time(nil), c.dates...)
	rates := append([]float64(nil), c.rates...)
	return dates, rates
}

func (c *ZeroCurve) continuousAt(t float64) float64 {
	n := len(c.times)
	if n == 1 || t <= c.times[0] {
		return c.rates[0]
	}
	if t >= c.times[n-1] {
		return c.rates[n-1]
	}
	i := sort.SearchFloat64s(c.times, t)
	if c.times[i] == t {
		return c.rates[i]
	}
	t1, t2 := c.times[i-1], c.times[i]
	r1, r2 := c.rates[i-1], c.rates[i]
	return r1 + (r2-r1)*(t-t1)/(t2-t1)
}

// DF returns the discount factor from the reference date to t.
func (c *ZeroCurve) DF(t time.Time) float64 {
	tt := utils.YearFraction(c.reference, t, c.dayCount)
	return math.Exp(-c.continuousAt(tt) * tt)
}

// ZeroRate returns the zero rate to t in the requested compounding.
func (c *ZeroCurve) ZeroRate(t time.Time, comp Compounding, freq int) float64 {
	tt := utils.YearFraction(c.reference, t, c.dayCount)
	return fromContinuous(c.continuousAt(tt), comp, freq, tt)
}
