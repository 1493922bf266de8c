package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/d1nch8g/ask/gpt"
)

const (
	OutcomeSuccess = "success"
	OutcomeUnknown = "unknown"
)

// Metrics holds the completion request collectors of one registry.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New registers the collectors on reg, or on a fresh registry when reg is nil.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ask",
			Name:      "requests_total",
			Help:      "Total completion requests by outcome.",
		}, []string{"outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ask",
			Name:      "request_duration_seconds",
			Help:      "Completion request latency in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),
	}
}

func (m *Metrics) Observe(outcome string, elapsed time.Duration) {
	m.requests.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// WriteTextfile writes all collected metrics in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Outcome maps the result of an Ask call to a metric label.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	if f, ok := gpt.AsFailure(err); ok {
		return string(f.Kind)
	}
	return OutcomeUnknown
}

// InstrumentedClient records every call of the wrapped client.
type InstrumentedClient struct {
	next    gpt.Client
	metrics *Metrics
}

func Instrument(next gpt.Client, m *Metrics) *InstrumentedClient {
	return &InstrumentedClient{next: next, metrics: m}
}

func (c *InstrumentedClient) Ask(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	reply, err := c.next.Ask(ctx, prompt)
	c.metrics.Observe(Outcome(err), time.Since(start))
	return reply, err
}
