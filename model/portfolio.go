package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/meenmo/bondmodel/bond"
	"github.com/meenmo/bondmodel/projection"
)

// BondValue is the valuation of one bond.
type BondValue struct {
	BondID      int     `json:"bond_id"`
	MarketValue float64 `json:"market_value"`
	ZSpread     float64 `json:"z_spread"`
	// ZSpreadRecalc and Yield are nil when the bond has no outstanding notional at
	// settlement.
	ZSpreadRecalc *float64 `json:"z_spread_recalc"`
	Yield         *float64 `json:"yield"`
}

// DropSummary counts events outside the horizon across the portfolio.
type DropSummary struct {
	Before       int     `json:"before"`
	After        int     `json:"after"`
	BeforeAmount float64 `json:"before_amount"`
	AfterAmount  float64 `json:"after_amount"`
}

// Result is the output of a portfolio run.
type Result struct {
	RunID            string      `json:"run_id"`
	Fingerprint      string      `json:"fingerprint"`
	ValuationDate    time.Time   `json:"valuation_date"`
	HorizonEndDate   time.Time   `json:"horizon_end_date"`
	Dates            []time.Time `json:"dates"`
	Cashflows        []float64   `json:"cashflows"`
	Redemptions      []float64   `json:"redemptions"`
	MarketValues     []BondValue `json:"market_values"`
	TotalMarketValue float64     `json:"total_market_value"`
	Dropped          DropSummary `json:"dropped"`
	Warnings         []string    `json:"warnings,omitempty"`
}

// forEachBond runs fn for every bond id with at most Workers goroutines. Results land
// at the id's position so callers can reduce in id order.
func forEachBond[T any](ctx context.Context, m *Model, fn func(id int) (T, error)) ([]T, error) {
	ids := m.store.IDs()
	out := make([]T, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := fn(id)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CashflowsTotal sums the bucketed coupons of every bond.
func (m *Model) CashflowsTotal(ctx context.Context) ([]float64, error) {
	return m.total(ctx, "cashflows_total", m.Cashflows)
}

// RedemptionsTotal sums the bucketed redemptions of every bond.
func (m *Model) RedemptionsTotal(ctx context.Context) ([]float64, error) {
	return m.total(ctx, "redemptions_total", m.Redemptions)
}

func (m *Model) total(ctx context.Context, name string, series func(int) (projection.Series, error)) ([]float64, error) {
	return m.cached(ctx, name, m.axis.Len(), func() ([]float64, error) {
		all, err := forEachBond(ctx, m, func(id int) ([]float64, error) {
			s, err := series(id)
			if err != nil {
				return nil, err
			}
			return s.Values, nil
		})
		if err != nil {
			return nil, err
		}
		return projection.Sum(m.axis.Len(), all...)
	})
}

// Dropped sums the out-of-horizon counts and amounts of the coupon and redemption
// series of every bond.
func (m *Model) Dropped(ctx context.Context) (DropSummary, error) {
	// before, after, before amount, after amount
	values, err := m.cached(ctx, "dropped", 4, func() ([]float64, error) {
		all, err := forEachBond(ctx, m, func(id int) ([]float64, error) {
			row := make([]float64, 4)
			for _, series := range []func(int) (projection.Series, error){m.Cashflows, m.Redemptions} {
				s, err := series(id)
				if err != nil {
					return nil, err
				}
				row[0] += float64(s.DroppedBefore)
				row[1] += float64(s.DroppedAfter)
				row[2] += s.DroppedBeforeAmount
				row[3] += s.DroppedAfterAmount
			}
			return row, nil
		})
		if err != nil {
			return nil, err
		}
		return projection.Sum(4, all...)
	})
	if err != nil {
		return DropSummary{}, err
	}
	return DropSummary{
		Before:       int(values[0]),
		After:        int(values[1]),
		BeforeAmount: values[2],
		AfterAmount:  values[3],
	}, nil
}

// cached returns the portfolio vector stored under name for this model's fingerprint,
// or computes and stores it. Cache errors are logged and fall through to compute.
func (m *Model) cached(ctx context.Context, name string, length int, compute func() ([]float64, error)) ([]float64, error) {
	cacheKey := m.fingerprint + ":" + name
	if m.opts.Cache != nil {
		values, ok, err := m.opts.Cache.Get(ctx, cacheKey)
		if err != nil {
			m.logger.Printf("cache get %s: %v", name, err)
		}
		m.opts.Metrics.CacheLookup(ok)
		if ok && len(values) == length {
			return values, nil
		}
	}

	values, err := compute()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	if m.opts.Cache != nil {
		if err := m.opts.Cache.Set(ctx, cacheKey, values); err != nil {
			m.logger.Printf("cache set %s: %v", name, err)
		}
	}
	return values, nil
}

// MarketValues values every bond in id order, with the recalculated z-spread and
// the yield to maturity.
func (m *Model) MarketValues(ctx context.Context) ([]BondValue, error) {
	return forEachBond(ctx, m, func(id int) (BondValue, error) {
		b, err := m.store.Bond(id)
		if err != nil {
			return BondValue{}, bondErr(id, "market value", err)
		}
		mv, err := m.MarketValue(id)
		if err != nil {
			return BondValue{}, err
		}
		v := BondValue{BondID: id, MarketValue: mv, ZSpread: b.ZSpread}
		z, err := m.ImpliedZSpread(id)
		switch {
		case err == nil:
			v.ZSpreadRecalc = &z
		case errors.Is(err, bond.ErrExpired):
		default:
			return BondValue{}, err
		}
		y, err := m.Yield(id)
		switch {
		case err == nil:
			v.Yield = &y
		case errors.Is(err, bond.ErrExpired):
		default:
			return BondValue{}, err
		}
		return v, nil
	})
}

// TotalMarketValue sums MarketValue over every bond in id order.
func (m *Model) TotalMarketValue(ctx context.Context) (float64, error) {
	values, err := forEachBond(ctx, m, m.MarketValue)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total, nil
}

// Run computes the cashflow and redemption totals and every market value.
func (m *Model) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	cashflows, err := m.CashflowsTotal(ctx)
	if err != nil {
		return nil, err
	}
	redemptions, err := m.RedemptionsTotal(ctx)
	if err != nil {
		return nil, err
	}
	dropped, err := m.Dropped(ctx)
	if err != nil {
		return nil, err
	}
	values, err := m.MarketValues(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:          uuid.NewString(),
		Fingerprint:    m.fingerprint,
		ValuationDate:  m.opts.ValuationDate,
		HorizonEndDate: m.opts.HorizonEndDate,
		Dates:          m.axis.Dates(),
		Cashflows:      cashflows,
		Redemptions:    redemptions,
		MarketValues:   values,
		Dropped:        dropped,
		Warnings:       m.Warnings(),
	}
	for _, v := range values {
		res.TotalMarketValue += v.MarketValue
	}

	m.opts.Metrics.RunFinished(time.Since(start), res.TotalMarketValue)
	m.logger.Printf("run %s: %d bonds, %d periods, total market value %.2f in %s",
		res.RunID, m.store.Len(), m.axis.Len(), res.TotalMarketValue, time.Since(start).Round(time.Millisecond))
	return res, nil
}
