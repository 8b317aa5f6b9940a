package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOk       = "ok"
	outcomeErr      = "error"
	outcomeNotReady = "not_ready"
)

// Metrics counts recorded stage outcomes and stage latency.
type Metrics struct {
	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the pipeline collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skillpipe",
			Name:      "stage_outcomes_total",
			Help:      "Outcomes recorded on items by each skill.",
		}, []string{"skill", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "skillpipe",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in a skill's process step.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"skill"}),
	}
	for _, c := range []prometheus.Collector{m.outcomes, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(skill, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(skill, outcome).Inc()
	m.duration.WithLabelValues(skill).Observe(elapsed.Seconds())
}
