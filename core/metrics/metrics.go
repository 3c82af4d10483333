// Package metrics exposes the bot's Prometheus collectors and the scrape server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "mydotainfo"

var (
	// Registry holds runtime collectors plus the bot's own metrics.
	Registry = prometheus.NewRegistry()

	// HandlersTotal counts routed updates by handler and outcome.
	HandlersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handlers_total",
			Help:      "Routed Telegram updates by handler and outcome.",
		},
		[]string{"handler", "outcome"},
	)

	// MessagesSent counts outbound Telegram messages.
	MessagesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages delivered to Telegram.",
		},
	)

	// SendsTotal counts dispatcher jobs by action and result.
	SendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sender_jobs_total",
			Help:      "Outbound dispatcher jobs by action and result.",
		},
		[]string{"action", "result"},
	)

	// TransitionsTotal counts dialogue transitions.
	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialogue_transitions_total",
			Help:      "Dialogue state transitions by source state, input category and target state.",
		},
		[]string{"from", "input", "to"},
	)

	// UpstreamRequests counts calls to OpenDota and Steam.
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream HTTP requests by service, endpoint and status code (0 for transport errors).",
		},
		[]string{"service", "endpoint", "code"},
	)

	// UpstreamLatency observes upstream call latency.
	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_seconds",
			Help:      "Upstream HTTP request latency.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "endpoint"},
	)

	// ActiveSessions reports the number of sessions in the session table.
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HandlersTotal,
		MessagesSent,
		SendsTotal,
		TransitionsTotal,
		UpstreamRequests,
		UpstreamLatency,
		ActiveSessions,
	)
}

// ObserveUpstream records one upstream call. code is the HTTP status or 0.
func ObserveUpstream(service, endpoint string, code int, took time.Duration) {
	UpstreamRequests.WithLabelValues(service, endpoint, strconv.Itoa(code)).Inc()
	UpstreamLatency.WithLabelValues(service, endpoint).Observe(took.Seconds())
}
