package refdata

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/meenmo/bondmodel/utils"
)

// DefaultZeroCurve returns the sample risk-free zero curve dated 2022-01-01.
func DefaultZeroCurve() []ZeroPoint {
	return []ZeroPoint{
		{Duration: "1M", Rate: 0.0004},
		{Duration: "2M", Rate: 0.0015},
		{Duration: "3M", Rate: 0.0026},
		{Duration: "6M", Rate: 0.0057},
		{Duration: "1Y", Rate: 0.0091},
		{Duration: "2Y", Rate: 0.0136},
		{Duration: "3Y", Rate: 0.0161},
		{Duration: "5Y", Rate: 0.0182},
		{Duration: "7Y", Rate: 0.0192},
		{Duration: "10Y", Rate: 0.0194},
		{Duration: "20Y", Rate: 0.0231},
		{Duration: "30Y", Rate: 0.0225},
	}
}

var (
	bondTerms   = []int{7, 10, 15, 20, 30}
	bondTenors  = []string{"6M", "1Y"}
	couponRates = []float64{0.01, 0.02, 0.03, 0.04, 0.05, 0.06, 0.07, 0.08}
)

// Generate returns n synthetic bonds issued within five years before valuation.
// The same seed always yields the same table. Terms are at least seven years so every
// generated bond is outstanding at valuation.
//
// Face values are multiples of 1,000 between 100,000 and 999,000. Z-spreads are normal
// around 2% with a 0.5% deviation, floored at zero and rounded to basis points.
func Generate(n int, seed uint64, valuation time.Time) ([]Bond, error) {
	if n <= 0 {
		return nil, fmt.Errorf("Generate: n must be positive, got %d", n)
	}
	if valuation.IsZero() {
		return nil, fmt.Errorf("Generate: valuation date is required")
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	window := int(utils.Days(utils.AddMonth(valuation, -60), valuation))

	bonds := make([]Bond, 0, n)
	for i := 1; i <= n; i++ {
		issue := valuation.AddDate(0, 0, -1-rng.IntN(window))
		term := bondTerms[rng.IntN(len(bondTerms))]
		spread := math.Max(0, 0.02+0.005*rng.NormFloat64())
		bonds = append(bonds, Bond{
			ID:             i,
			SettlementDays: 0,
			FaceValue:      float64(1000 * (100 + rng.IntN(900))),
			IssueDate:      issue,
			BondTerm:       term,
			MaturityDate:   utils.AddMonth(issue, 12*term),
			Tenor:          bondTenors[rng.IntN(len(bondTenors))],
			CouponRate:     couponRates[rng.IntN(len(couponRates))],
			ZSpread:        math.Round(spread*10000) / 10000,
		})
	}
	return bonds, nil
}
