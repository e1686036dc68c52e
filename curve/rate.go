package curve

import (
	"fmt"
	"math"
)

// Compounding of an interest rate.
type Compounding int

const (
	Simple Compounding = iota
	Compounded
	Continuous
)

func (c Compounding) String() string {
	switch c {
	case Simple:
		return "Simple"
	case Compounded:
		return "Compounded"
	case Continuous:
		return "Continuous"
	default:
		return fmt.Sprintf("Compounding(%d)", int(c))
	}
}

// compoundFactor returns the growth of one unit invested at rate r for time t.
// freq is the number of compounding periods per year and is ignored unless c is Compounded.
func compoundFactor(r float64, c Compounding, freq int, t float64) float64 {
	switch c {
	case Simple:
		return 1 + r*t
	case Compounded:
		f := float64(freq)
		return math.Pow(1+r/f, f*t)
	default:
		return math.Exp(r * t)
	}
}

// toContinuous converts r (in compounding c) over time t to its continuous equivalent.
func toContinuous(r float64, c Compounding, freq int, t float64) float64 {
	switch c {
	case Continuous:
		return r
	case Compounded:
		f := float64(freq)
		return f * math.Log1p(r/f)
	default:
		if t <= 0 {
			return r
		}
		return math.Log(1+r*t) / t
	}
}

// fromContinuous converts a continuous rate over time t into compounding c.
func fromContinuous(rc float64, c Compounding, freq int, t float64) float64 {
	switch c {
	case Continuous:
		return rc
	case Compounded:
		f := float64(freq)
		return f * (math.Exp(rc/f) - 1)
	default:
		if t <= 0 {
			return rc
		}
		return (math.Exp(rc*t) - 1) / t
	}
}
