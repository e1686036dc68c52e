package bond

import (
	"errors"
	"time"

	"github.com/meenmo/bondmodel/utils"
)

var (
	// ErrNoConvergence is returned when a spread solve is not bracketed or does not converge.
	ErrNoConvergence = errors.New("spread solve did not converge")
	// ErrExpired is returned when a bond has no notional left at settlement.
	ErrExpired = errors.New("bond has no outstanding notional at settlement")
)

// Cashflow is a single dated cash payment for a bond.
//
// Amounts are in currency units, not price-per-100.
type Cashflow struct {
	Date      time.Time
	Coupon    float64
	Principal float64
}

func (c Cashflow) Amount() float64 {
	return c.Coupon + c.Principal
}

// Coupon is a fixed-rate accrual period paying Nominal x Rate x YearFraction on PaymentDate.
type Coupon struct {
	AccrualStart time.Time
	AccrualEnd   time.Time
	PaymentDate  time.Time
	Nominal      float64
	Rate         float64
	DayCount     utils.DayCount
}

// Amount returns the full coupon amount.
func (c Coupon) Amount() float64 {
	return c.Nominal * c.Rate * utils.YearFraction(c.AccrualStart, c.AccrualEnd, c.DayCount)
}

// AccruedAmount returns the interest accrued up to d.
func (c Coupon) AccruedAmount(d time.Time) float64 {
	if !d.After(c.AccrualStart) || d.After(c.PaymentDate) {
		return 0
	}
	end := d
	if end.After(c.AccrualEnd) {
		end = c.AccrualEnd
	}
	return c.Nominal * c.Rate * utils.YearFraction(c.AccrualStart, end, c.DayCount)
}
