package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Label values.
const (
	ResultOK    = "ok"
	ResultError = "error"

	ResultHit  = "hit"
	ResultMiss = "miss"

	DroppedBefore = "before_horizon"
	DroppedAfter  = "after_horizon"
)

// Metrics bundles model run metrics. A nil *Metrics records nothing.
type Metrics struct {
	BondsPriced      *prometheus.CounterVec
	DroppedCashflows *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	CacheRequests    *prometheus.CounterVec
	TotalMarketValue prometheus.Gauge
}

// New constructs the metrics and registers them on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		BondsPriced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bondmodel_bonds_priced_total",
				Help: "Total bonds priced by result",
			},
			[]string{"result"},
		),
		DroppedCashflows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bondmodel_dropped_cashflows_total",
				Help: "Cashflow events outside the projection horizon",
			},
			[]string{"kind"},
		),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bondmodel_run_duration_seconds",
			Help:    "Portfolio run duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		CacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bondmodel_cache_requests_total",
				Help: "Series cache lookups by result",
			},
			[]string{"result"},
		),
		TotalMarketValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bondmodel_total_market_value",
			Help: "Portfolio market value of the last run",
		}),
	}
	reg.MustRegister(
		m.BondsPriced,
		m.DroppedCashflows,
		m.RunDuration,
		m.CacheRequests,
		m.TotalMarketValue,
	)
	return m
}

func (m *Metrics) BondPriced(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.BondsPriced.WithLabelValues(ResultError).Inc()
		return
	}
	m.BondsPriced.WithLabelValues(ResultOK).Inc()
}

func (m *Metrics) Dropped(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DroppedCashflows.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheRequests.WithLabelValues(ResultHit).Inc()
		return
	}
	m.CacheRequests.WithLabelValues(ResultMiss).Inc()
}

func (m *Metrics) RunFinished(d time.Duration, totalMarketValue float64) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(d.Seconds())
	m.TotalMarketValue.Set(totalMarketValue)
}

// WriteTextfile writes every metric gathered from g in the node exporter textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
