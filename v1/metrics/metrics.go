package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// QuoteRequestCounter tracks the number of quote lookup requests.
	QuoteRequestCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quotelock_quote_requests_total",
		Help: "Total number of quote lookup requests",
	})
	// QuoteMissCounter tracks lookups that referenced an unknown quote id.
	QuoteMissCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quotelock_quote_misses_total",
		Help: "Total number of lookups for unknown quote ids",
	})
	// StoreWarmupGauge reports the number of quotes loaded at startup.
	StoreWarmupGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quotelock_store_warmup_quotes",
		Help: "Number of quotes populated from the store at startup",
	})
)

// NewRegistry creates a new Prometheus registry.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// RegisterCoreMetrics registers quotelock core metrics on the provided registry.
func RegisterCoreMetrics(reg prometheus.Registerer) {
	reg.MustRegister(QuoteRequestCounter, QuoteMissCounter, StoreWarmupGauge)
}
