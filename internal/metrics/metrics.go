// Package metrics exposes Prometheus collectors for the scraper service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scrapeOutcomesTotal     *prometheus.CounterVec
	scrapeDurationSeconds   *prometheus.HistogramVec
	scrapeInFlight          prometheus.Gauge
	scrapeContentBytesTotal *prometheus.CounterVec
	sinkWriteFailuresTotal  prometheus.Counter
	remoteAPIAttemptsTotal  *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors on the default registry. Safe to call more
// than once.
func Init() {
	once.Do(func() {
		scrapeOutcomesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_outcomes_total",
				Help: "Total extraction outcomes, labeled by strategy and status.",
			},
			[]string{"strategy", "status"},
		)

		scrapeDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scraper_extraction_duration_seconds",
				Help:    "Histogram of per-URL extraction latencies, labeled by strategy.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"strategy"},
		)

		scrapeInFlight = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scraper_extractions_in_flight",
				Help: "Number of extraction tasks currently holding a throttle slot.",
			},
		)

		scrapeContentBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_content_bytes_total",
				Help: "Total bytes of accepted content, labeled by strategy.",
			},
			[]string{"strategy"},
		)

		sinkWriteFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_sink_write_failures_total",
				Help: "Total persistence sink writes that failed and were swallowed.",
			},
		)

		remoteAPIAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_remote_api_attempts_total",
				Help: "Total request attempts against remote extraction APIs, labeled by provider.",
			},
			[]string{"provider"},
		)
	})
}

// RecordOutcome counts one finished extraction task.
func RecordOutcome(strategy, status string) {
	if scrapeOutcomesTotal != nil {
		scrapeOutcomesTotal.WithLabelValues(strategy, status).Inc()
	}
}

// ObserveExtraction records how long one strategy invocation took.
func ObserveExtraction(strategy string, d time.Duration) {
	if scrapeDurationSeconds != nil {
		scrapeDurationSeconds.WithLabelValues(strategy).Observe(d.Seconds())
	}
}

// AddContentBytes counts accepted content volume.
func AddContentBytes(strategy string, n int) {
	if scrapeContentBytesTotal != nil && n > 0 {
		scrapeContentBytesTotal.WithLabelValues(strategy).Add(float64(n))
	}
}

// IncInFlight marks one task as holding a throttle slot.
func IncInFlight() {
	if scrapeInFlight != nil {
		scrapeInFlight.Inc()
	}
}

// DecInFlight marks one task as having released its slot.
func DecInFlight() {
	if scrapeInFlight != nil {
		scrapeInFlight.Dec()
	}
}

// RecordSinkFailure counts a swallowed persistence failure.
func RecordSinkFailure() {
	if sinkWriteFailuresTotal != nil {
		sinkWriteFailuresTotal.Inc()
	}
}

// RecordRemoteAttempt counts one outbound attempt against a remote API.
func RecordRemoteAttempt(provider string) {
	if remoteAPIAttemptsTotal != nil {
		remoteAPIAttemptsTotal.WithLabelValues(provider).Inc()
	}
}
