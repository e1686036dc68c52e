package bond_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/meenmo/bondmodel/bond"
	"github.com/meenmo/bondmodel/calendar"
	"github.com/meenmo/bondmodel/curve"
	"github.com/meenmo/bondmodel/schedule"
	"github.com/meenmo/bondmodel/utils"
)

func mustBond(t *testing.T, issue, maturity time.Time, freq schedule.Frequency, face, rate float64) *bond.FixedRateBond {
	t.Helper()
	s, err := schedule.Generate(schedule.Params{
		Effective:             issue,
		Termination:           maturity,
		Frequency:             freq,
		Calendar:              calendar.Null,
		Convention:            calendar.Unadjusted,
		TerminationConvention: calendar.Unadjusted,
		Rule:                  schedule.Backward,
	})
	if err != nil {
		t.Fatalf("schedule.Generate: %v", err)
	}
	b, err := bond.NewFixedRateBond(bond.FixedRateBondParams{
		FaceAmount:        face,
		Schedule:          s,
		CouponRate:        rate,
		DayCount:          utils.Act360,
		PaymentConvention: calendar.Unadjusted,
	})
	if err != nil {
		t.Fatalf("NewFixedRateBond: %v", err)
	}
	return b
}

func flatCurve(t *testing.T, ref time.Time, r float64) *curve.ZeroCurve {
	t.Helper()
	c, err := curve.NewZeroCurve([]time.Time{ref, ref.AddDate(40, 0, 0)}, []float64{r, r}, utils.Act360, curve.Compounded, 1)
	if err != nil {
		t.Fatalf("NewZeroCurve: %v", err)
	}
	return c
}

func TestFixedRateBond_Cashflows(t *testing.T) {
	t.Parallel()

	b := mustBond(t, utils.Date(2021, 11, 29), utils.Date(2024, 6, 15), schedule.Semiannual, 1000, 0.04)

	coupons := b.Coupons()
	if len(coupons) != 6 {
		t.Fatalf("expected 6 coupons, got %d", len(coupons))
	}
	// Front stub from issue to the first regular date.
	first := coupons[0]
	if want := utils.Date(2021, 12, 15); !first.Date.Equal(want) {
		t.Fatalf("first coupon date %s, want %s", first.Date, want)
	}
	if want := 1000 * 0.04 * 16.0 / 360.0; math.Abs(first.Coupon-want) > 1e-12 {
		t.Fatalf("stub coupon %.12f, want %.12f", first.Coupon, want)
	}
	for i := 1; i < len(coupons); i++ {
		if coupons[i].Date.Before(coupons[i-1].Date) {
			t.Fatalf("coupons out of order at %d", i)
		}
		if coupons[i].Principal != 0 {
			t.Fatalf("coupon %d carries principal", i)
		}
	}

	red := b.Redemptions()
	if len(red) != 1 || red[0].Principal != 1000 || !red[0].Date.Equal(utils.Date(2024, 6, 15)) {
		t.Fatalf("unexpected redemptions %+v", red)
	}

	all := b.Cashflows()
	if len(all) != 7 {
		t.Fatalf("expected 7 cashflows, got %d", len(all))
	}
	last := all[len(all)-1]
	if last.Principal != 1000 {
		t.Fatalf("redemption should come after the final coupon, got %+v", last)
	}
	if !b.MaturityDate().Equal(utils.Date(2024, 6, 15)) {
		t.Fatalf("maturity %s", b.MaturityDate())
	}
}

func TestNewFixedRateBond_Validation(t *testing.T) {
	t.Parallel()

	s, err := schedule.Generate(schedule.Params{
		Effective:   utils.Date(2022, 1, 1),
		Termination: utils.Date(2025, 1, 1),
		Frequency:   schedule.Annual,
		Calendar:    calendar.Null,
		Rule:        schedule.Backward,
	})
	if err != nil {
		t.Fatalf("schedule.Generate: %v", err)
	}
	cases := map[string]bond.FixedRateBondParams{
		"zero face":        {FaceAmount: 0, Schedule: s, DayCount: utils.Act360},
		"negative lag":     {FaceAmount: 100, SettlementDays: -1, Schedule: s, DayCount: utils.Act360},
		"empty schedule":   {FaceAmount: 100, DayCount: utils.Act360},
		"bad day count":    {FaceAmount: 100, Schedule: s, DayCount: "ACT/ACT"},
		"missing daycount": {FaceAmount: 100, Schedule: s},
	}
	for name, p := range cases {
		if _, err := bond.NewFixedRateBond(p); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestAccruedAmount(t *testing.T) {
	t.Parallel()

	b := mustBond(t, utils.Date(2021, 7, 1), utils.Date(2026, 7, 1), schedule.Annual, 1000, 0.05)
	settle := utils.Date(2022, 1, 3)

	want := 0.05 * 186.0 / 360.0 * 100
	if got := b.AccruedAmount(settle); math.Abs(got-want) > 1e-12 {
		t.Fatalf("accrued %.12f, want %.12f", got, want)
	}
	// Nothing accrues on a coupon date.
	if got := b.AccruedAmount(utils.Date(2022, 7, 1)); got != 0 {
		t.Fatalf("accrued on coupon date %v", got)
	}
	if got := b.AccruedAmount(utils.Date(2027, 1, 1)); got != 0 {
		t.Fatalf("accrued after maturity %v", got)
	}
}

func TestMarketValue_ZeroCouponReconcilesToDiscountedNotional(t *testing.T) {
	t.Parallel()

	eval := utils.Date(2022, 1, 3)
	maturity := utils.Date(2032, 1, 5)
	const r = 0.025
	const face = 250000.0

	b := mustBond(t, utils.Date(2020, 1, 5), maturity, schedule.Annual, face, 0)
	base := flatCurve(t, eval, r)
	disc, err := curve.NewSpreadedCurve(base, 0, curve.Compounded, 1, "")
	if err != nil {
		t.Fatalf("NewSpreadedCurve: %v", err)
	}

	mv, err := b.MarketValue(disc)
	if err != nil {
		t.Fatalf("MarketValue: %v", err)
	}
	want := face * math.Pow(1+r, -utils.YearFraction(eval, maturity, utils.Act360))
	if math.Abs(mv-want) > 1e-6 {
		t.Fatalf("market value %.8f, want %.8f", mv, want)
	}
}

func TestCleanAndDirtyPrice(t *testing.T) {
	t.Parallel()

	eval := utils.Date(2022, 1, 3)
	b := mustBond(t, utils.Date(2021, 7, 1), utils.Date(2026, 7, 1), schedule.Annual, 1000, 0.05)
	c := flatCurve(t, eval, 0.03)

	dirty, err := b.DirtyPrice(c)
	if err != nil {
		t.Fatalf("DirtyPrice: %v", err)
	}
	clean, err := b.CleanPrice(c)
	if err != nil {
		t.Fatalf("CleanPrice: %v", err)
	}
	if math.Abs(dirty-clean-b.AccruedAmount(eval)) > 1e-12 {
		t.Fatalf("dirty %.10f clean %.10f accrued %.10f", dirty, clean, b.AccruedAmount(eval))
	}

	var pv float64
	for _, cf := range b.Cashflows() {
		pv += cf.Amount() * c.DF(cf.Date)
	}
	if want := pv / 1000 * 100; math.Abs(dirty-want) > 1e-10 {
		t.Fatalf("dirty %.12f, want %.12f", dirty, want)
	}

	mv, err := b.MarketValue(c)
	if err != nil {
		t.Fatalf("MarketValue: %v", err)
	}
	if math.Abs(mv-1000*clean/100) > 1e-9 {
		t.Fatalf("market value %.10f, clean %.10f", mv, clean)
	}
}

func TestMarketValue_ExpiredBondIsZero(t *testing.T) {
	t.Parallel()

	b := mustBond(t, utils.Date(2015, 1, 1), utils.Date(2020, 1, 1), schedule.Annual, 1000, 0.05)
	c := flatCurve(t, utils.Date(2022, 1, 3), 0.02)

	mv, err := b.MarketValue(c)
	if err != nil || mv != 0 {
		t.Fatalf("expired bond market value = %v, %v", mv, err)
	}
	if _, err := b.DirtyPrice(c); !errors.Is(err, bond.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if _, err := b.MarketValue(nil); !errors.Is(err, curve.ErrNilCurve) {
		t.Fatalf("expected ErrNilCurve, got %v", err)
	}
}

func TestMaturingOnSettlementIsExpired(t *testing.T) {
	t.Parallel()

	eval := utils.Date(2022, 1, 3)
	b := mustBond(t, utils.Date(2021, 1, 3), eval, schedule.Annual, 1000, 0.05)
	riskfree := flatCurve(t, eval, 0.02)

	if got := b.Notional(eval); got != 0 {
		t.Fatalf("notional on the redemption date = %v", got)
	}
	if got := b.Notional(eval.AddDate(0, 0, -1)); got != 1000 {
		t.Fatalf("notional the day before redemption = %v", got)
	}
	mv, err := b.MarketValue(riskfree)
	if err != nil || mv != 0 {
		t.Fatalf("market value = %v, %v", mv, err)
	}
	if _, err := b.DirtyPrice(riskfree); !errors.Is(err, bond.ErrExpired) {
		t.Fatalf("DirtyPrice: expected ErrExpired, got %v", err)
	}
	_, err = bond.ZSpread(bond.ZSpreadInput{
		Bond:        b,
		CleanPrice:  0,
		Riskfree:    riskfree,
		DayCount:    utils.Thirty360,
		Compounding: curve.Compounded,
		Frequency:   1,
	})
	if !errors.Is(err, bond.ErrExpired) {
		t.Fatalf("ZSpread: expected ErrExpired, got %v", err)
	}
	_, err = bond.Yield(bond.YieldInput{
		Bond: b, CleanPrice: 100, Settlement: eval, DayCount: utils.Act360, Frequency: 1,
	})
	if !errors.Is(err, bond.ErrExpired) {
		t.Fatalf("Yield: expected ErrExpired, got %v", err)
	}
}

func TestSettlementDate_RollsOverHolidays(t *testing.T) {
	t.Parallel()

	s, err := schedule.Generate(schedule.Params{
		Effective:   utils.Date(2021, 1, 1),
		Termination: utils.Date(2031, 1, 1),
		Frequency:   schedule.Annual,
		Calendar:    calendar.USD,
		Rule:        schedule.Backward,
	})
	if err != nil {
		t.Fatalf("schedule.Generate: %v", err)
	}
	b, err := bond.NewFixedRateBond(bond.FixedRateBondParams{
		FaceAmount: 100, Schedule: s, CouponRate: 0.01, DayCount: utils.Act360,
	})
	if err != nil {
		t.Fatalf("NewFixedRateBond: %v", err)
	}
	// 2022-01-01 is a Saturday; zero settlement days still rolls to the next business day.
	if got, want := b.SettlementDate(utils.Date(2022, 1, 1)), utils.Date(2022, 1, 3); !got.Equal(want) {
		t.Fatalf("settlement %s, want %s", got, want)
	}
}

func TestZSpread_RecoversPricingSpread(t *testing.T) {
	t.Parallel()

	eval := utils.Date(2022, 1, 3)
	b := mustBond(t, utils.Date(2021, 3, 15), utils.Date(2031, 3, 15), schedule.Semiannual, 500000, 0.035)
	riskfree := flatCurve(t, eval, 0.02)

	for _, spread := range []float64{0, 0.0125, 0.0497, -0.004} {
		disc, err := curve.NewSpreadedCurve(riskfree, spread, curve.Compounded, 1, "")
		if err != nil {
			t.Fatalf("NewSpreadedCurve: %v", err)
		}
		clean, err := b.CleanPrice(disc)
		if err != nil {
			t.Fatalf("CleanPrice: %v", err)
		}
		res, err := bond.ZSpread(bond.ZSpreadInput{
			Bond:        b,
			CleanPrice:  clean,
			Riskfree:    riskfree,
			DayCount:    utils.Thirty360,
			Compounding: curve.Compounded,
			Frequency:   1,
		})
		if err != nil {
			t.Fatalf("ZSpread(%v): %v", spread, err)
		}
		if math.Abs(res.Spread-spread) > 1e-8 {
			t.Fatalf("recovered spread %.12f, want %.12f", res.Spread, spread)
		}
		if res.Iterations <= 0 {
			t.Fatalf("iterations not reported")
		}
	}
}

func TestZSpread_NotBracketed(t *testing.T) {
	t.Parallel()

	eval := utils.Date(2022, 1, 3)
	b := mustBond(t, utils.Date(2021, 3, 15), utils.Date(2031, 3, 15), schedule.Annual, 1000, 0.03)
	_, err := bond.ZSpread(bond.ZSpreadInput{
		Bond:        b,
		CleanPrice:  1e9,
		Riskfree:    flatCurve(t, eval, 0.02),
		DayCount:    utils.Thirty360,
		Compounding: curve.Compounded,
		Frequency:   1,
	})
	if !errors.Is(err, bond.ErrNoConvergence) {
		t.Fatalf("expected ErrNoConvergence, got %v", err)
	}
}

func TestYield_FlatCurveRecoversRate(t *testing.T) {
	t.Parallel()

	eval := utils.Date(2022, 1, 3)
	b := mustBond(t, utils.Date(2021, 7, 1), utils.Date(2031, 7, 1), schedule.Annual, 1000, 0.045)
	c := flatCurve(t, eval, 0.03)

	clean, err := b.CleanPrice(c)
	if err != nil {
		t.Fatalf("CleanPrice: %v", err)
	}
	res, err := bond.Yield(bond.YieldInput{
		Bond:       b,
		CleanPrice: clean,
		Settlement: b.SettlementDate(eval),
		DayCount:   utils.Act360,
		Frequency:  1,
	})
	if err != nil {
		t.Fatalf("Yield: %v", err)
	}
	if math.Abs(res.Yield-0.03) > 1e-9 {
		t.Fatalf("yield %.12f, want 0.03", res.Yield)
	}
	if res.Iterations < 1 || res.Iterations > 100 {
		t.Fatalf("iterations %d", res.Iterations)
	}
}

func TestYield_InvertsYieldPrice(t *testing.T) {
	t.Parallel()

	settle := utils.Date(2022, 3, 15)
	b := mustBond(t, utils.Date(2020, 6, 15), utils.Date(2040, 6, 15), schedule.Semiannual, 5000, 0.0375)

	for _, want := range []float64{-0.01, 0.0, 0.012, 0.061, 0.2} {
		dirty := bond.YieldPrice(b, want, settle, utils.Thirty360, 2)
		clean := dirty - b.AccruedAmount(settle)
		res, err := bond.Yield(bond.YieldInput{
			Bond:       b,
			CleanPrice: clean,
			Settlement: settle,
			DayCount:   utils.Thirty360,
			Frequency:  2,
		})
		if err != nil {
			t.Fatalf("yield %v: %v", want, err)
		}
		if math.Abs(res.Yield-want) > 1e-9 {
			t.Fatalf("yield %.12f, want %.12f", res.Yield, want)
		}
	}
}

func TestYield_Rejects(t *testing.T) {
	t.Parallel()

	b := mustBond(t, utils.Date(2015, 1, 1), utils.Date(2020, 1, 1), schedule.Annual, 1000, 0.05)
	in := bond.YieldInput{Bond: b, CleanPrice: 100, Settlement: utils.Date(2022, 1, 3), DayCount: utils.Act360, Frequency: 1}
	if _, err := bond.Yield(in); !errors.Is(err, bond.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}

	live := mustBond(t, utils.Date(2021, 1, 1), utils.Date(2031, 1, 1), schedule.Annual, 1000, 0.05)
	cases := map[string]bond.YieldInput{
		"nil bond":       {CleanPrice: 100, Settlement: utils.Date(2022, 1, 3), DayCount: utils.Act360, Frequency: 1},
		"no settlement":  {Bond: live, CleanPrice: 100, DayCount: utils.Act360, Frequency: 1},
		"zero frequency": {Bond: live, CleanPrice: 100, Settlement: utils.Date(2022, 1, 3), DayCount: utils.Act360},
		"bad day count":  {Bond: live, CleanPrice: 100, Settlement: utils.Date(2022, 1, 3), DayCount: "ACT/ACT", Frequency: 1},
	}
	for name, in := range cases {
		if _, err := bond.Yield(in); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
