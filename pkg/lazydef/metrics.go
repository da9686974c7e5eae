package lazydef

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus metrics of the observers sharing one
// registerer.
type metrics struct {
	attempts     *prometheus.CounterVec
	loadDuration prometheus.Histogram
	records      *prometheus.CounterVec
	scanned      prometheus.Counter
}

var (
	metricsMu    sync.Mutex
	metricsByReg = make(map[prometheus.Registerer]*metrics)
)

// metricsFor returns the metrics registered with reg, registering them on
// first use.
//
// Metrics collected:
//   - lazydefine_pipeline_attempts_total: attempts by outcome
//   - lazydefine_load_duration_seconds: time spent in the loader
//   - lazydefine_mutation_records_total: mutation records by type
//   - lazydefine_scanned_elements_total: elements visited by scans
func metricsFor(reg prometheus.Registerer) *metrics {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if m, ok := metricsByReg[reg]; ok {
		return m
	}

	factory := promauto.With(reg)
	m := &metrics{
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lazydefine",
			Name:      "pipeline_attempts_total",
			Help:      "Pipeline attempts by outcome",
		}, []string{"outcome"}),

		loadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lazydefine",
			Name:      "load_duration_seconds",
			Help:      "Time spent loading element implementations",
			Buckets:   prometheus.DefBuckets,
		}),

		records: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lazydefine",
			Name:      "mutation_records_total",
			Help:      "Mutation records delivered to observers by type",
		}, []string{"type"}),

		scanned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lazydefine",
			Name:      "scanned_elements_total",
			Help:      "Elements visited by initial scans",
		}),
	}
	metricsByReg[reg] = m
	return m
}
