package bond

import (
	"fmt"
	"sort"
	"time"

	"github.com/meenmo/bondmodel/calendar"
	"github.com/meenmo/bondmodel/curve"
	"github.com/meenmo/bondmodel/schedule"
	"github.com/meenmo/bondmodel/utils"
)

// FixedRateBondParams holds the terms of a fixed-rate bond.
type FixedRateBondParams struct {
	SettlementDays int
	FaceAmount     float64
	Schedule       schedule.Schedule
	CouponRate     float64
	// DayCount accrues the coupons.
	DayCount          utils.DayCount
	PaymentConvention calendar.BusinessDayConvention
	// Redemption is paid at maturity as a percentage of FaceAmount. Zero means 100.
	Redemption float64
}

// FixedRateBond pays a constant coupon on every schedule period and redeems at maturity.
type FixedRateBond struct {
	settlementDays int
	faceAmount     float64
	calendar       calendar.CalendarID
	coupons        []Coupon
	redemption     Cashflow
}

// NewFixedRateBond builds the coupon leg and the redemption flow.
func NewFixedRateBond(p FixedRateBondParams) (*FixedRateBond, error) {
	if p.FaceAmount <= 0 {
		return nil, fmt.Errorf("NewFixedRateBond: FaceAmount must be positive, got %v", p.FaceAmount)
	}
	if p.SettlementDays < 0 {
		return nil, fmt.Errorf("NewFixedRateBond: SettlementDays must be non-negative, got %d", p.SettlementDays)
	}
	if p.Schedule.Periods() == 0 {
		return nil, fmt.Errorf("NewFixedRateBond: schedule has no periods")
	}
	if !p.DayCount.Valid() {
		return nil, fmt.Errorf("NewFixedRateBond: unsupported day count %q", p.DayCount)
	}
	redemption := p.Redemption
	if redemption == 0 {
		redemption = 100
	}

	dates := p.Schedule.Dates
	coupons := make([]Coupon, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		coupons = append(coupons, Coupon{
			AccrualStart: dates[i-1],
			AccrualEnd:   dates[i],
			PaymentDate:  calendar.Adjust(p.Schedule.Calendar, dates[i], p.PaymentConvention),
			Nominal:      p.FaceAmount,
			Rate:         p.CouponRate,
			DayCount:     p.DayCount,
		})
	}
	maturity := dates[len(dates)-1]

	return &FixedRateBond{
		settlementDays: p.SettlementDays,
		faceAmount:     p.FaceAmount,
		calendar:       p.Schedule.Calendar,
		coupons:        coupons,
		redemption: Cashflow{
			Date:      calendar.Adjust(p.Schedule.Calendar, maturity, p.PaymentConvention),
			Principal: p.FaceAmount * redemption / 100,
		},
	}, nil
}

// FaceAmount returns the face amount.
func (b *FixedRateBond) FaceAmount() float64 {
	return b.faceAmount
}

// CouponPeriods returns a copy of the coupon periods.
func (b *FixedRateBond) CouponPeriods() []Coupon {
	return append([]Coupon(nil), b.coupons...)
}

// MaturityDate returns the redemption payment date.
func (b *FixedRateBond) MaturityDate() time.Time {
	return b.redemption.Date
}

// Coupons returns the coupon flows ordered by payment date.
func (b *FixedRateBond) Coupons() []Cashflow {
	out := make([]Cashflow, 0, len(b.coupons))
	for _, c := range b.coupons {
		out = append(out, Cashflow{Date: c.PaymentDate, Coupon: c.Amount()})
	}
	return out
}

// Redemptions returns the principal repayments ordered by date.
func (b *FixedRateBond) Redemptions() []Cashflow {
	return []Cashflow{b.redemption}
}

// Cashflows returns coupons and redemptions ordered by date; on equal dates coupons come first.
func (b *FixedRateBond) Cashflows() []Cashflow {
	out := append(b.Coupons(), b.Redemptions()...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// SettlementDate returns the settlement date for the given evaluation date.
func (b *FixedRateBond) SettlementDate(eval time.Time) time.Time {
	return calendar.AddBusinessDays(b.calendar, eval, b.settlementDays)
}

// Notional returns the notional outstanding after d. It is zero from the redemption date
// on, when no flow remains to be paid.
func (b *FixedRateBond) Notional(d time.Time) float64 {
	if !d.Before(b.redemption.Date) {
		return 0
	}
	return b.faceAmount
}

// AccruedAmount returns accrued interest at settlement d as a percentage of notional.
//
// Only coupons paying on the first payment date after d accrue.
func (b *FixedRateBond) AccruedAmount(d time.Time) float64 {
	notional := b.Notional(d)
	if notional == 0 {
		return 0
	}
	var next time.Time
	for _, c := range b.coupons {
		if c.PaymentDate.After(d) {
			next = c.PaymentDate
			break
		}
	}
	if next.IsZero() {
		return 0
	}
	accrued := 0.0
	for _, c := range b.coupons {
		if c.PaymentDate.Equal(next) {
			accrued += c.AccruedAmount(d)
		}
	}
	return accrued / notional * 100
}

// settlementValue discounts every flow paid after settle and rebases the value to settle.
func settlementValue(flows []Cashflow, disc curve.DiscountCurve, settle time.Time) float64 {
	npv := 0.0
	for _, cf := range flows {
		if !cf.Date.After(settle) {
			continue
		}
		npv += cf.Amount() * disc.DF(cf.Date)
	}
	return npv / disc.DF(settle)
}

// DirtyPrice returns the price per 100 of notional including accrued interest, at the
// settlement date implied by the curve's reference date.
func (b *FixedRateBond) DirtyPrice(disc curve.DiscountCurve) (float64, error) {
	if disc == nil {
		return 0, fmt.Errorf("DirtyPrice: %w", curve.ErrNilCurve)
	}
	settle := b.SettlementDate(disc.ReferenceDate())
	notional := b.Notional(settle)
	if notional == 0 {
		return 0, fmt.Errorf("DirtyPrice: %w (settlement %s, maturity %s)", ErrExpired,
			settle.Format(utils.DateLayout), b.MaturityDate().Format(utils.DateLayout))
	}
	return settlementValue(b.Cashflows(), disc, settle) / notional * 100, nil
}

// CleanPrice returns the dirty price less accrued interest, per 100 of notional.
func (b *FixedRateBond) CleanPrice(disc curve.DiscountCurve) (float64, error) {
	dirty, err := b.DirtyPrice(disc)
	if err != nil {
		return 0, err
	}
	settle := b.SettlementDate(disc.ReferenceDate())
	return dirty - b.AccruedAmount(settle), nil
}

// MarketValue returns notional x clean price / 100. An expired bond is worth zero.
func (b *FixedRateBond) MarketValue(disc curve.DiscountCurve) (float64, error) {
	if disc == nil {
		return 0, fmt.Errorf("MarketValue: %w", curve.ErrNilCurve)
	}
	settle := b.SettlementDate(disc.ReferenceDate())
	notional := b.Notional(settle)
	if notional == 0 {
		return 0, nil
	}
	clean, err := b.CleanPrice(disc)
	if err != nil {
		return 0, err
	}
	return notional * clean / 100, nil
}
