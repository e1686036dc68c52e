package curve

import (
	"errors"
	"time"

	"github.com/meenmo/bondmodel/utils"
)

var (
	// ErrNoEvaluationDate is returned when a curve is anchored outside WithEvaluationDate.
	ErrNoEvaluationDate = errors.New("evaluation date not set")
	// ErrNilCurve is returned when a required curve argument is nil.
	ErrNilCurve = errors.New("nil curve")
)

// DiscountCurve provides discount factors and zero rates for valuation.
type DiscountCurve interface {
	// ReferenceDate is the date where DF == 1.
	ReferenceDate() time.Time
	DF(t time.Time) float64
	// ZeroRate returns the zero rate to t expressed in the given compounding.
	ZeroRate(t time.Time, comp Compounding, freq int) float64
	// DayCount measures curve time from the reference date.
	DayCount() utils.DayCount
}
