package scrape

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the scraper's Prometheus counters.
type Metrics struct {
	PagesFetched    *prometheus.CounterVec
	ComponentsSaved *prometheus.CounterVec
	Errors          *prometheus.CounterVec
	RunsTotal       prometheus.Counter
}

// NewMetrics creates and registers the scraper metrics. Pass
// prometheus.DefaultRegisterer outside tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rigmatch",
			Subsystem: "scrape",
			Name:      "pages_fetched_total",
			Help:      "Benchmark pages fetched, by component type.",
		}, []string{"component_type"}),
		ComponentsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rigmatch",
			Subsystem: "scrape",
			Name:      "components_saved_total",
			Help:      "Components upserted into the catalog, by component type.",
		}, []string{"component_type"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rigmatch",
			Subsystem: "scrape",
			Name:      "errors_total",
			Help:      "Scrape failures, by component type.",
		}, []string{"component_type"}),
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rigmatch",
			Subsystem: "scrape",
			Name:      "runs_total",
			Help:      "Completed scrape runs.",
		}),
	}
	reg.MustRegister(m.PagesFetched, m.ComponentsSaved, m.Errors, m.RunsTotal)
	return m
}
