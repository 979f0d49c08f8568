package extraction

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records strategy attempts and extraction latency. A nil *Metrics
// records nothing.
type Metrics struct {
	// Attempts by strategy and outcome ("found", "miss")
	Attempts *prometheus.CounterVec

	// End-to-end ExtractKey latency by result
	Duration *prometheus.HistogramVec
}

// NewMetrics registers the extraction metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nfe_extraction_attempts_total",
			Help: "Key extraction attempts by strategy and outcome",
		}, []string{"strategy", "outcome"}),

		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nfe_extraction_duration_seconds",
			Help:    "Duration of a full key extraction",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"result"}), // result: a strategy name, "miss" or "error"
	}
}

func (m *Metrics) observeAttempt(strategy string, found bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if found {
		outcome = "found"
	}
	m.Attempts.WithLabelValues(strategy, outcome).Inc()
}

func (m *Metrics) observeDuration(result string, d time.Duration) {
	if m != nil {
		m.Duration.WithLabelValues(result).Observe(d.Seconds())
	}
}
