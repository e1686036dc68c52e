package bond

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/bondmodel/utils"
)

// YieldInput holds the parameters of a yield-to-maturity solve.
type YieldInput struct {
	Bond *FixedRateBond
	// CleanPrice is per 100 of notional.
	CleanPrice float64
	// Settlement is the date the yield is quoted for.
	Settlement time.Time
	DayCount   utils.DayCount
	// Frequency is the number of compounding periods per year.
	Frequency int
}

// YieldResult is the output of Yield.
type YieldResult struct {
	// Yield is the annualised yield as a decimal (e.g. 0.0283).
	Yield float64
	// Iterations is the number of Newton-Raphson steps taken.
	Iterations int
}

// Yield solves for the compounded yield y such that discounting every flow after
// settlement at (1 + y/f)^(-f t) reproduces CleanPrice plus accrued interest.
//
// The solver uses Newton-Raphson with analytic first derivative.
func Yield(in YieldInput) (YieldResult, error) {
	if in.Bond == nil {
		return YieldResult{}, fmt.Errorf("Yield: Bond is required")
	}
	if in.Settlement.IsZero() {
		return YieldResult{}, fmt.Errorf("Yield: Settlement is required")
	}
	if in.Frequency <= 0 {
		return YieldResult{}, fmt.Errorf("Yield: Frequency must be positive")
	}
	if !in.DayCount.Valid() {
		return YieldResult{}, fmt.Errorf("Yield: unsupported day count %q", in.DayCount)
	}
	notional := in.Bond.Notional(in.Settlement)
	if notional == 0 {
		return YieldResult{}, fmt.Errorf("Yield: %w", ErrExpired)
	}

	var flows []timedFlow
	for _, cf := range in.Bond.Cashflows() {
		if !cf.Date.After(in.Settlement) {
			continue
		}
		flows = append(flows, timedFlow{
			t:      utils.YearFraction(in.Settlement, cf.Date, in.DayCount),
			amount: cf.Amount() / notional * 100,
		})
	}
	if len(flows) == 0 {
		return YieldResult{}, fmt.Errorf("Yield: %w", ErrExpired)
	}

	target := in.CleanPrice + in.Bond.AccruedAmount(in.Settlement)
	y, iterations, err := solveYield(target, flows, float64(in.Frequency))
	if err != nil {
		return YieldResult{}, err
	}
	return YieldResult{Yield: y, Iterations: iterations}, nil
}

// YieldPrice returns the dirty price per 100 of notional at yield y.
func YieldPrice(b *FixedRateBond, y float64, settlement time.Time, dc utils.DayCount, frequency int) float64 {
	notional := b.Notional(settlement)
	if notional == 0 || frequency <= 0 {
		return 0
	}
	price := 0.0
	for _, cf := range b.Cashflows() {
		if !cf.Date.After(settlement) {
			continue
		}
		t := utils.YearFraction(settlement, cf.Date, dc)
		price += cf.Amount() / notional * 100 * math.Pow(1+y/float64(frequency), -float64(frequency)*t)
	}
	return price
}

// ---------------------------------------------------------------------------
// Newton-Raphson solver (unexported)
// ---------------------------------------------------------------------------

const (
	yieldTolerance = 1e-10
	yieldAccuracy  = 1e-14
	yieldMaxIter   = 100
	yieldFloor     = -0.05
	yieldCeiling   = 0.50
)

type timedFlow struct {
	t      float64
	amount float64
}

// solveYield finds y such that dirtyPriceAndDeriv(y) == target via Newton-Raphson.
func solveYield(target float64, flows []timedFlow, f float64) (float64, int, error) {
	// Initial guess: mid-range (2.5 %).
	y := 0.025

	for iter := 0; iter < yieldMaxIter; iter++ {
		price, dPdy := dirtyPriceAndDeriv(y, flows, f)
		diff := price - target

		if math.Abs(diff) < yieldTolerance {
			return y, iter + 1, nil
		}
		if math.Abs(dPdy) < 1e-15 {
			return y, iter + 1, fmt.Errorf("Yield: derivative too small at iter %d: %w", iter, ErrNoConvergence)
		}

		next := clamp(y-diff/dPdy, yieldFloor, yieldCeiling)
		if math.Abs(next-y) < yieldAccuracy && next > yieldFloor && next < yieldCeiling {
			return next, iter + 1, nil
		}
		y = next
	}

	return y, yieldMaxIter, fmt.Errorf("Yield: did not converge after %d iterations: %w", yieldMaxIter, ErrNoConvergence)
}

// dirtyPriceAndDeriv returns (price, dPrice/dy) for compounding frequency f.
//
//	price = Σ CF_k (1 + y/f)^(−f t_k)
//	dP/dy = Σ −t_k CF_k (1 + y/f)^(−f t_k − 1)
func dirtyPriceAndDeriv(y float64, flows []timedFlow, f float64) (float64, float64) {
	base := 1.0 + y/f

	var price, deriv float64
	for _, cf := range flows {
		disc := math.Pow(base, -f*cf.t)
		price += cf.amount * disc
		deriv += -cf.t * cf.amount * disc / base
	}

	return price, deriv
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
