// Package prometheus provides the Prometheus backend for the runtime's
// metrics interfaces.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/actr-go/core/metrics"
)

// mailboxDepthBuckets approximate the interesting queue depths: anything
// past a few hundred pending messages is a stalled consumer.
var mailboxDepthBuckets = []float64{1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024}

// runtimeMetrics implements metrics.Runtime using Prometheus.
type runtimeMetrics struct {
	messagesSent    *prometheus.CounterVec
	messagesUndlvrd prometheus.Counter
	mailboxDepth    prometheus.Histogram
	workerCount     prometheus.Gauge
}

// NewRuntimeMetrics creates a Prometheus implementation of metrics.Runtime
// registered on reg.
func NewRuntimeMetrics(reg prometheus.Registerer) metrics.Runtime {
	m := &runtimeMetrics{
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actr_messages_sent_total",
			Help: "Total number of messages accepted by Send",
		}, []string{"route"}),

		messagesUndlvrd: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actr_messages_undelivered_total",
			Help: "Total number of messages consumed by the fallback handler",
		}),

		mailboxDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "actr_mailbox_depth",
			Help:    "Mailbox queue depth observed at push",
			Buckets: mailboxDepthBuckets,
		}),

		workerCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "actr_workers",
			Help: "Live worker count",
		}),
	}

	reg.MustRegister(
		m.messagesSent,
		m.messagesUndlvrd,
		m.mailboxDepth,
		m.workerCount,
	)

	return m
}

func (m *runtimeMetrics) MessageSent(remote bool) {
	m.messagesSent.WithLabelValues(routeLabel(remote)).Inc()
}

func (m *runtimeMetrics) MessageUndelivered() {
	m.messagesUndlvrd.Inc()
}

func (m *runtimeMetrics) MailboxDepth(depth int) {
	m.mailboxDepth.Observe(float64(depth))
}

func (m *runtimeMetrics) WorkerCount(n int) {
	m.workerCount.Set(float64(n))
}

func routeLabel(remote bool) string {
	if remote {
		return "remote"
	}
	return "local"
}

var _ metrics.Runtime = (*runtimeMetrics)(nil)
