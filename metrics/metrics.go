// Package metrics exposes archive job metrics in the Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sagarc03/zipstream"
)

const namespace = "zipstream"

// Collector records archive job metrics. It implements zipstream.Recorder.
type Collector struct {
	active   prometheus.Gauge
	jobs     *prometheus.CounterVec
	bytes    prometheus.Counter
	duration prometheus.Histogram
}

var _ zipstream.Recorder = (*Collector)(nil)

// New creates a Collector and registers it with reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_active",
			Help:      "Archive processes currently running.",
		}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Archive requests by outcome.",
		}, []string{"outcome"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_streamed_total",
			Help:      "Archive bytes written to clients.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Time from process start to reaping.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
		}),
	}

	reg.MustRegister(c.active, c.jobs, c.bytes, c.duration)

	return c
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (c *Collector) JobStarted() {
	c.active.Inc()
}

func (c *Collector) JobFinished(outcome zipstream.Outcome, _ int64, elapsed time.Duration) {
	c.active.Dec()
	c.jobs.WithLabelValues(string(outcome)).Inc()
	c.duration.Observe(elapsed.Seconds())
}

func (c *Collector) JobRejected(outcome zipstream.Outcome) {
	c.jobs.WithLabelValues(string(outcome)).Inc()
}

func (c *Collector) BytesStreamed(n int) {
	c.bytes.Add(float64(n))
}
