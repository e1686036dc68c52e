package bond

import (
	"fmt"
	"math"

	"github.com/meenmo/bondmodel/curve"
	"github.com/meenmo/bondmodel/utils"
)

// ZSpreadInput holds the parameters of a z-spread solve.
type ZSpreadInput struct {
	Bond *FixedRateBond
	// CleanPrice is per 100 of notional.
	CleanPrice float64
	// Riskfree is the unshifted curve; its reference date is the evaluation date.
	Riskfree curve.DiscountCurve
	// DayCount tags the spreaded rate. It does not change curve time.
	DayCount    utils.DayCount
	Compounding curve.Compounding
	Frequency   int
}

// ZSpreadResult is the output of ZSpread.
type ZSpreadResult struct {
	Spread     float64
	Iterations int
}

const (
	spreadTolerance = 1e-10
	spreadAccuracy  = 1e-12
	spreadMaxIter   = 100
	spreadFloor     = -0.5
	spreadCeiling   = 1.0
	spreadStep      = 1e-6
)

// ZSpread solves for the constant spread s such that the bond's dirty price on
// Riskfree shifted by s equals CleanPrice plus accrued interest at settlement.
//
// The solver uses Newton-Raphson with a central-difference derivative, falling back to
// bisection whenever a Newton step leaves the current bracket.
func ZSpread(in ZSpreadInput) (ZSpreadResult, error) {
	if in.Bond == nil {
		return ZSpreadResult{}, fmt.Errorf("ZSpread: Bond is required")
	}
	if in.Riskfree == nil {
		return ZSpreadResult{}, fmt.Errorf("ZSpread: %w", curve.ErrNilCurve)
	}
	if in.Compounding == curve.Compounded && in.Frequency <= 0 {
		return ZSpreadResult{}, fmt.Errorf("ZSpread: compounded spreads need a positive frequency")
	}

	settle := in.Bond.SettlementDate(in.Riskfree.ReferenceDate())
	if in.Bond.Notional(settle) == 0 {
		return ZSpreadResult{}, fmt.Errorf("ZSpread: %w", ErrExpired)
	}
	target := in.CleanPrice + in.Bond.AccruedAmount(settle)

	f := func(s float64) (float64, error) {
		shifted, err := curve.NewSpreadedCurve(in.Riskfree, s, in.Compounding, in.Frequency, in.DayCount)
		if err != nil {
			return 0, err
		}
		dirty, err := in.Bond.DirtyPrice(shifted)
		if err != nil {
			return 0, err
		}
		return dirty - target, nil
	}

	spread, iterations, err := solveSpread(f)
	if err != nil {
		return ZSpreadResult{}, fmt.Errorf("ZSpread: %w", err)
	}
	return ZSpreadResult{Spread: spread, Iterations: iterations}, nil
}

// solveSpread finds the root of f in [spreadFloor, spreadCeiling].
func solveSpread(f func(float64) (float64, error)) (float64, int, error) {
	lo, hi := spreadFloor, spreadCeiling
	fLo, err := f(lo)
	if err != nil {
		return 0, 0, err
	}
	fHi, err := f(hi)
	if err != nil {
		return 0, 0, err
	}
	if fLo == 0 {
		return lo, 1, nil
	}
	if fHi == 0 {
		return hi, 1, nil
	}
	if math.Signbit(fLo) == math.Signbit(fHi) {
		return 0, 0, fmt.Errorf("%w: root not bracketed in [%v, %v]", ErrNoConvergence, lo, hi)
	}

	// Initial guess: zero spread.
	s := 0.0
	for iter := 0; iter < spreadMaxIter; iter++ {
		fs, err := f(s)
		if err != nil {
			return 0, iter + 1, err
		}
		if math.Abs(fs) < spreadTolerance {
			return s, iter + 1, nil
		}
		// Shrink the bracket around the root.
		if math.Signbit(fs) == math.Signbit(fLo) {
			lo, fLo = s, fs
		} else {
			hi = s
		}
		if hi-lo < spreadAccuracy {
			return s, iter + 1, nil
		}

		up, err := f(s + spreadStep)
		if err != nil {
			return 0, iter + 1, err
		}
		down, err := f(s - spreadStep)
		if err != nil {
			return 0, iter + 1, err
		}
		deriv := (up - down) / (2 * spreadStep)

		next := (lo + hi) / 2
		if math.Abs(deriv) > 1e-15 {
			if n := s - fs/deriv; n > lo && n < hi {
				next = n
			}
		}
		if math.Abs(next-s) < spreadAccuracy {
			return next, iter + 1, nil
		}
		s = next
	}
	return s, spreadMaxIter, fmt.Errorf("%w after %d iterations", ErrNoConvergence, spreadMaxIter)
}
