package model

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/meenmo/bondmodel/refdata"
	"github.com/meenmo/bondmodel/utils"
)

// fingerprint hashes everything a bucketed series depends on.
func fingerprint(store *refdata.Store, opts Options) string {
	d := xxhash.New()
	write := func(parts ...string) {
		for _, p := range parts {
			_, _ = d.WriteString(p)
			_, _ = d.WriteString("|")
		}
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

	write(
		opts.ValuationDate.Format(utils.DateLayout),
		opts.HorizonEndDate.Format(utils.DateLayout),
		opts.SemiannualLabel,
		string(opts.CurveDayCount),
		string(opts.PricingDayCount),
		string(opts.SpreadDayCount),
		string(opts.Calendar),
	)
	for _, b := range store.Bonds() {
		write(
			strconv.Itoa(b.ID),
			strconv.Itoa(b.SettlementDays),
			f(b.FaceValue),
			b.IssueDate.Format(utils.DateLayout),
			b.MaturityDate.Format(utils.DateLayout),
			b.Tenor,
			f(b.CouponRate),
			f(b.ZSpread),
		)
	}
	for _, p := range store.ZeroCurve() {
		write(p.Duration, f(p.Rate))
	}
	return fmt.Sprintf("%016x", d.Sum64())
}
