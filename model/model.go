package model

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/meenmo/bondmodel/bond"
	"github.com/meenmo/bondmodel/calendar"
	"github.com/meenmo/bondmodel/curve"
	"github.com/meenmo/bondmodel/metrics"
	"github.com/meenmo/bondmodel/projection"
	"github.com/meenmo/bondmodel/refdata"
	"github.com/meenmo/bondmodel/schedule"
	"github.com/meenmo/bondmodel/utils"
)

// Model projects bond cashflows and values onto an annual axis.
//
// Every cell is a pure function of the store and the options. Results are memoized per
// cell and bond id; concurrent callers asking for the same cell share one computation.
type Model struct {
	store  *refdata.Store
	opts   Options
	axis   *projection.Axis
	logger *log.Logger

	fingerprint string
	warnings    []string

	group singleflight.Group
	mu    sync.RWMutex
	memo  map[string]any
}

// New validates opts and builds a model over store.
func New(store *refdata.Store, opts Options) (*Model, error) {
	if store == nil {
		return nil, errors.New("model.New: nil store")
	}
	opts = opts.withDefaults()
	for _, dc := range []struct {
		name string
		ok   bool
	}{
		{"curve", opts.CurveDayCount.Valid()},
		{"pricing", opts.PricingDayCount.Valid()},
		{"spread", opts.SpreadDayCount.Valid()},
	} {
		if !dc.ok {
			return nil, fmt.Errorf("model.New: unsupported %s day count", dc.name)
		}
	}
	axis, err := projection.NewAxis(opts.ValuationDate, opts.HorizonEndDate)
	if err != nil {
		return nil, fmt.Errorf("model.New: %w", err)
	}

	m := &Model{
		store:  store,
		opts:   opts,
		axis:   axis,
		logger: opts.Logger,
		memo:   make(map[string]any),
	}
	m.fingerprint = fingerprint(store, opts)
	m.warnings = tenorWarnings(store, opts.SemiannualLabel)
	for _, w := range m.warnings {
		m.logger.Printf("warning: %s", w)
	}
	return m, nil
}

func tenorWarnings(store *refdata.Store, label string) []string {
	var out []string
	if t, err := curve.ParseTenor(label); err != nil || t.Years() != 0.5 {
		out = append(out, fmt.Sprintf("semiannual tenor label %q is not a six-month tenor; bonds tagged 6M pay annually", label))
	}
	for _, w := range refdata.TenorWarnings(store.Bonds(), label) {
		out = append(out, w.String())
	}
	return out
}

// Store returns the reference data.
func (m *Model) Store() *refdata.Store {
	return m.store
}

// Options returns the effective options.
func (m *Model) Options() Options {
	return m.opts
}

// Fingerprint identifies the model inputs and conventions.
func (m *Model) Fingerprint() string {
	return m.fingerprint
}

// Warnings returns configuration warnings found at construction.
func (m *Model) Warnings() []string {
	return append([]string(nil), m.warnings...)
}

// cell memoizes fn under key. Failed computations are not stored.
func (m *Model) cell(key string, fn func() (any, error)) (any, error) {
	m.mu.RLock()
	v, ok := m.memo[key]
	m.mu.RUnlock()
	if ok {
		return v, nil
	}
	v, err, _ := m.group.Do(key, func() (any, error) {
		m.mu.RLock()
		v, ok := m.memo[key]
		m.mu.RUnlock()
		if ok {
			return v, nil
		}
		v, err := fn()
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.memo[key] = v
		m.mu.Unlock()
		return v, nil
	})
	return v, err
}

func key(name string, id int) string {
	return name + ":" + strconv.Itoa(id)
}

// Axis returns the projection axis.
func (m *Model) Axis() *projection.Axis {
	return m.axis
}

// Dates returns the t-th projection date.
func (m *Model) Dates(t int) time.Time {
	return m.axis.Date(t)
}

// HorizonLength is the number of projection periods.
func (m *Model) HorizonLength() int {
	return m.axis.Len()
}

// RiskfreeCurve builds the zero curve anchored on the valuation date.
func (m *Model) RiskfreeCurve() (*curve.ZeroCurve, error) {
	v, err := m.cell("riskfree", func() (any, error) {
		labels, rates := m.store.CurveLabels()
		var c *curve.ZeroCurve
		err := curve.WithEvaluationDate(m.opts.ValuationDate, func() error {
			var err error
			c, err = curve.FromTenors(labels, rates, m.opts.CurveDayCount, curve.Compounded, 1)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("RiskfreeCurve: %w", err)
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*curve.ZeroCurve), nil
}

// Frequency returns the coupon frequency selected by the bond's tenor label.
func (m *Model) Frequency(id int) (schedule.Frequency, error) {
	b, err := m.store.Bond(id)
	if err != nil {
		return 0, bondErr(id, "frequency", err)
	}
	if refdata.IsSemiannual(b.Tenor, m.opts.SemiannualLabel) {
		return schedule.Semiannual, nil
	}
	return schedule.Annual, nil
}

// Schedule returns the unadjusted backward coupon schedule from issue to maturity.
func (m *Model) Schedule(id int) (schedule.Schedule, error) {
	v, err := m.cell(key("schedule", id), func() (any, error) {
		b, err := m.store.Bond(id)
		if err != nil {
			return nil, err
		}
		freq, err := m.Frequency(id)
		if err != nil {
			return nil, err
		}
		return schedule.Generate(schedule.Params{
			Effective:             b.IssueDate,
			Termination:           b.MaturityDate,
			Frequency:             freq,
			Calendar:              m.opts.Calendar,
			Convention:            calendar.Unadjusted,
			TerminationConvention: calendar.Unadjusted,
			Rule:                  schedule.Backward,
			EndOfMonth:            false,
		})
	})
	if err != nil {
		return schedule.Schedule{}, bondErr(id, "schedule", err)
	}
	return v.(schedule.Schedule), nil
}

// DiscountCurve returns the risk-free curve shifted by the bond's z-spread, compounded
// annually.
func (m *Model) DiscountCurve(id int) (*curve.SpreadedCurve, error) {
	v, err := m.cell(key("discount", id), func() (any, error) {
		b, err := m.store.Bond(id)
		if err != nil {
			return nil, err
		}
		riskfree, err := m.RiskfreeCurve()
		if err != nil {
			return nil, err
		}
		return curve.NewSpreadedCurve(riskfree, b.ZSpread, curve.Compounded, 1, "")
	})
	if err != nil {
		return nil, bondErr(id, "discount curve", err)
	}
	return v.(*curve.SpreadedCurve), nil
}

// FixedRateBond builds the instrument for id.
func (m *Model) FixedRateBond(id int) (*bond.FixedRateBond, error) {
	v, err := m.cell(key("bond", id), func() (any, error) {
		b, err := m.store.Bond(id)
		if err != nil {
			return nil, err
		}
		s, err := m.Schedule(id)
		if err != nil {
			return nil, err
		}
		return bond.NewFixedRateBond(bond.FixedRateBondParams{
			SettlementDays:    b.SettlementDays,
			FaceAmount:        b.FaceValue,
			Schedule:          s,
			CouponRate:        b.CouponRate,
			DayCount:          m.opts.PricingDayCount,
			PaymentConvention: calendar.Unadjusted,
		})
	})
	if err != nil {
		return nil, bondErr(id, "instrument", err)
	}
	return v.(*bond.FixedRateBond), nil
}

func toEvents(flows []bond.Cashflow) []projection.Event {
	out := make([]projection.Event, len(flows))
	for i, cf := range flows {
		out[i] = projection.Event{Date: cf.Date, Amount: cf.Amount()}
	}
	return out
}

// CashflowEvents returns the coupon events of id in date order.
func (m *Model) CashflowEvents(id int) ([]projection.Event, error) {
	b, err := m.FixedRateBond(id)
	if err != nil {
		return nil, err
	}
	return toEvents(b.Coupons()), nil
}

// RedemptionEvents returns the principal repayment events of id in date order.
func (m *Model) RedemptionEvents(id int) ([]projection.Event, error) {
	b, err := m.FixedRateBond(id)
	if err != nil {
		return nil, err
	}
	return toEvents(b.Redemptions()), nil
}

// Cashflows buckets the coupon events of id onto the axis.
func (m *Model) Cashflows(id int) (projection.Series, error) {
	return m.bucketed(id, "cashflows", m.CashflowEvents)
}

// Redemptions buckets the redemption events of id onto the axis.
func (m *Model) Redemptions(id int) (projection.Series, error) {
	return m.bucketed(id, "redemptions", m.RedemptionEvents)
}

func (m *Model) bucketed(id int, op string, events func(int) ([]projection.Event, error)) (projection.Series, error) {
	v, err := m.cell(key(op, id), func() (any, error) {
		evs, err := events(id)
		if err != nil {
			return nil, err
		}
		s, err := projection.Bucket(evs, m.axis)
		if err != nil {
			var oe *projection.OrderError
			if errors.As(err, &oe) {
				return nil, &BondError{BondID: id, Period: m.periodOf(oe.Prev), Op: op, Err: err}
			}
			return nil, err
		}
		m.opts.Metrics.Dropped(metrics.DroppedBefore, s.DroppedBefore)
		m.opts.Metrics.Dropped(metrics.DroppedAfter, s.DroppedAfter)
		if s.DroppedAfter > 0 {
			m.logger.Printf("bond %d: %d %s event(s) totalling %.2f fall after the horizon end %s",
				id, s.DroppedAfter, op, s.DroppedAfterAmount, m.axis.End().Format(utils.DateLayout))
		}
		return s, nil
	})
	if err != nil {
		return projection.Series{}, bondErr(id, op, err)
	}
	return v.(projection.Series), nil
}

// periodOf returns the axis period containing d, or NoPeriod outside the horizon.
func (m *Model) periodOf(d time.Time) int {
	if d.Before(m.axis.Start()) || !d.Before(m.axis.End()) {
		return NoPeriod
	}
	for t := 0; t < m.axis.Len(); t++ {
		if d.Before(m.axis.Date(t + 1)) {
			return t
		}
	}
	return NoPeriod
}

// MarketValue returns notional x clean price / 100 on the bond's discount curve.
func (m *Model) MarketValue(id int) (float64, error) {
	v, err := m.cell(key("market_value", id), func() (any, error) {
		b, err := m.FixedRateBond(id)
		if err != nil {
			return nil, err
		}
		disc, err := m.DiscountCurve(id)
		if err != nil {
			return nil, err
		}
		mv, err := b.MarketValue(disc)
		m.opts.Metrics.BondPriced(err)
		if err != nil {
			return nil, err
		}
		return mv, nil
	})
	if err != nil {
		return 0, bondErr(id, "market value", err)
	}
	return v.(float64), nil
}

// ImpliedZSpread solves for the spread over the risk-free curve that reproduces the
// bond's clean price. The spread is tagged with SpreadDayCount.
func (m *Model) ImpliedZSpread(id int) (float64, error) {
	v, err := m.cell(key("z_spread", id), func() (any, error) {
		b, err := m.FixedRateBond(id)
		if err != nil {
			return nil, err
		}
		disc, err := m.DiscountCurve(id)
		if err != nil {
			return nil, err
		}
		clean, err := b.CleanPrice(disc)
		if err != nil {
			return nil, err
		}
		riskfree, err := m.RiskfreeCurve()
		if err != nil {
			return nil, err
		}
		res, err := bond.ZSpread(bond.ZSpreadInput{
			Bond:        b,
			CleanPrice:  clean,
			Riskfree:    riskfree,
			DayCount:    m.opts.SpreadDayCount,
			Compounding: curve.Compounded,
			Frequency:   1,
		})
		if err != nil {
			return nil, err
		}
		return res.Spread, nil
	})
	if err != nil {
		return 0, bondErr(id, "implied z-spread", err)
	}
	return v.(float64), nil
}

// Yield returns the bond's yield to maturity at its clean price, compounded at the
// coupon frequency on the pricing day count.
func (m *Model) Yield(id int) (float64, error) {
	v, err := m.cell(key("yield", id), func() (any, error) {
		b, err := m.FixedRateBond(id)
		if err != nil {
			return nil, err
		}
		disc, err := m.DiscountCurve(id)
		if err != nil {
			return nil, err
		}
		clean, err := b.CleanPrice(disc)
		if err != nil {
			return nil, err
		}
		freq, err := m.Frequency(id)
		if err != nil {
			return nil, err
		}
		res, err := bond.Yield(bond.YieldInput{
			Bond:       b,
			CleanPrice: clean,
			Settlement: b.SettlementDate(disc.ReferenceDate()),
			DayCount:   m.opts.PricingDayCount,
			Frequency:  freq.PerYear(),
		})
		if err != nil {
			return nil, err
		}
		return res.Yield, nil
	})
	if err != nil {
		return 0, bondErr(id, "yield", err)
	}
	return v.(float64), nil
}
