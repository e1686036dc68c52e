package curve

import (
	"math"
	"time"

	"github.com/meenmo/bondmodel/utils"
)

// SpreadedCurve shifts a base curve by a constant spread added to the base zero rate
// expressed in comp/freq. Curve time follows the base curve; rateDayCount tags the
// spreaded rate and is kept separate from the base day count on purpose.
type SpreadedCurve struct {
	base         DiscountCurve
	spread       float64
	comp         Compounding
	freq         int
	rateDayCount utils.DayCount
}

// NewSpreadedCurve layers spread on base. A zero rateDayCount inherits the base day count.
func NewSpreadedCurve(base DiscountCurve, spread float64, comp Compounding, freq int, rateDayCount utils.DayCount) (*SpreadedCurve, error) {
	if base == nil {
		return nil, ErrNilCurve
	}
	if rateDayCount == "" {
		rateDayCount = base.DayCount()
	}
	return &SpreadedCurve{
		base:         base,
		spread:       spread,
		comp:         comp,
		freq:         freq,
		rateDayCount: rateDayCount,
	}, nil
}

// Spread returns the constant spread.
func (c *SpreadedCurve) Spread() float64 {
	return c.spread
}

// ReferenceDate returns the base reference date.
func (c *SpreadedCurve) ReferenceDate() time.Time {
	return c.base.ReferenceDate()
}

// DayCount returns the base curve time basis.
func (c *SpreadedCurve) DayCount() utils.DayCount {
	return c.base.DayCount()
}

// RateDayCount returns the day count the spreaded rate is quoted with.
func (c *SpreadedCurve) RateDayCount() utils.DayCount {
	return c.rateDayCount
}

func (c *SpreadedCurve) continuousAt(t time.Time) (float64, float64) {
	tt := utils.YearFraction(c.base.ReferenceDate(), t, c.base.DayCount())
	r := c.base.ZeroRate(t, c.comp, c.freq) + c.spread
	return toContinuous(r, c.comp, c.freq, tt), tt
}

// DF returns the spreaded discount factor.
func (c *SpreadedCurve) DF(t time.Time) float64 {
	rc, tt := c.continuousAt(t)
	if tt == 0 {
		return 1
	}
	return math.Exp(-rc * tt)
}

// ZeroRate returns the spreaded zero rate in the requested compounding.
func (c *SpreadedCurve) ZeroRate(t time.Time, comp Compounding, freq int) float64 {
	rc, tt := c.continuousAt(t)
	return fromContinuous(rc, comp, freq, tt)
}
