package model

import (
	"log"
	"runtime"
	"time"

	"github.com/meenmo/bondmodel/cache"
	"github.com/meenmo/bondmodel/calendar"
	"github.com/meenmo/bondmodel/metrics"
	"github.com/meenmo/bondmodel/refdata"
	"github.com/meenmo/bondmodel/utils"
)

// Options configures a Model.
type Options struct {
	ValuationDate  time.Time
	HorizonEndDate time.Time

	// SemiannualLabel is the tenor label that selects semiannual coupons.
	SemiannualLabel string
	// CurveDayCount measures time on the risk-free curve.
	CurveDayCount utils.DayCount
	// PricingDayCount accrues coupons.
	PricingDayCount utils.DayCount
	// SpreadDayCount tags the spread in the implied z-spread solve.
	SpreadDayCount utils.DayCount
	Calendar       calendar.CalendarID

	// Workers bounds portfolio fan-out. Zero means GOMAXPROCS.
	Workers int

	Cache   cache.Cache
	Metrics *metrics.Metrics
	Logger  *log.Logger
}

// DefaultOptions returns the conventions of the reference model: valuation on
// 2022-01-01, horizon to 2053-01-01, ACT/360 pricing, 30/360 spread recalculation and
// the US settlement calendar.
func DefaultOptions() Options {
	return Options{
		ValuationDate:   utils.Date(2022, 1, 1),
		HorizonEndDate:  utils.Date(2053, 1, 1),
		SemiannualLabel: refdata.DefaultSemiannualLabel,
		CurveDayCount:   utils.Act360,
		PricingDayCount: utils.Act360,
		SpreadDayCount:  utils.Thirty360,
		Calendar:        calendar.USD,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SemiannualLabel == "" {
		o.SemiannualLabel = d.SemiannualLabel
	}
	if o.CurveDayCount == "" {
		o.CurveDayCount = d.CurveDayCount
	}
	if o.PricingDayCount == "" {
		o.PricingDayCount = d.PricingDayCount
	}
	if o.SpreadDayCount == "" {
		o.SpreadDayCount = d.SpreadDayCount
	}
	if o.Calendar == "" {
		o.Calendar = d.Calendar
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}
