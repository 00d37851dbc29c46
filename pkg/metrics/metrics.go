// Package metrics exposes Prometheus collectors for gateway calls, ticket
// aggregation and document publishing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the bridge's collectors.
	Registry = prometheus.NewRegistry()

	gatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "itflow_bridge",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total number of ITFlow API calls.",
		},
		[]string{"endpoint", "method", "success"},
	)

	gatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "itflow_bridge",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Duration of ITFlow API calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"endpoint"},
	)

	viewTickets = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "itflow_bridge",
			Subsystem: "tickets",
			Name:      "view_total",
			Help:      "Tickets found by the last poll of each view.",
		},
		[]string{"account", "view"},
	)

	viewDisplayed = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "itflow_bridge",
			Subsystem: "tickets",
			Name:      "view_displayed",
			Help:      "Tickets emitted as attributes by the last poll of each view.",
		},
		[]string{"account", "view"},
	)

	publishOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "itflow_bridge",
			Subsystem: "documents",
			Name:      "publish_outcomes_total",
			Help:      "Per-kind document publish outcomes.",
		},
		[]string{"account", "kind", "outcome"},
	)

	lastPublished = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "itflow_bridge",
			Subsystem: "documents",
			Name:      "last_published_timestamp_seconds",
			Help:      "Unix time of the last completed publish run.",
		},
		[]string{"account"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		gatewayRequests,
		gatewayDuration,
		viewTickets,
		viewDisplayed,
		publishOutcomes,
		lastPublished,
	)
}

// Handler serves the bridge registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveGatewayCall records one ITFlow call. Its signature matches itflow.Observer.
func ObserveGatewayCall(endpoint, method string, success bool, elapsed time.Duration) {
	gatewayRequests.WithLabelValues(endpoint, method, strconv.FormatBool(success)).Inc()
	gatewayDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RecordPoll stores the sizes of a view's last poll.
func RecordPoll(account, view string, total, displayed int) {
	viewTickets.WithLabelValues(account, view).Set(float64(total))
	viewDisplayed.WithLabelValues(account, view).Set(float64(displayed))
}

// RecordPublishOutcome counts one kind's outcome.
func RecordPublishOutcome(account, kind, outcome string) {
	publishOutcomes.WithLabelValues(account, kind, outcome).Inc()
}

// RecordPublished stores the completion time of a publish run.
func RecordPublished(account string, at time.Time) {
	lastPublished.WithLabelValues(account).Set(float64(at.Unix()))
}
