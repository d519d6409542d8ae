package soap

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records remote call counts and latencies
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the driver metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "aukro",
				Subsystem: "soap",
				Name:      "requests_total",
				Help:      "Remote procedure calls by procedure and outcome.",
			},
			[]string{"procedure", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "aukro",
				Subsystem: "soap",
				Name:      "request_duration_seconds",
				Help:      "Remote procedure call latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"procedure"},
		),
	}

	if err := reg.Register(m.requests); err != nil {
		return nil, err
	}
	if err := reg.Register(m.duration); err != nil {
		reg.Unregister(m.requests)
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(procedure string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.requests.WithLabelValues(procedure, outcome).Inc()
	m.duration.WithLabelValues(procedure).Observe(elapsed.Seconds())
}
