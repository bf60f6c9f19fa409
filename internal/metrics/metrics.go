package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "maestro"

// Metrics holds the service's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	TipsCreated     prometheus.Counter
	Votes           *prometheus.CounterVec
	Settlements     *prometheus.CounterVec
	BackendErrors   *prometheus.CounterVec
	DegradedReads   *prometheus.CounterVec
	AdvisorCalls    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TipsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tips_created_total",
			Help:      "Tips published.",
		}),
		Votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tip_votes_total",
			Help:      "Votes recorded, by type.",
		}, []string{"type"}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tips_settled_total",
			Help:      "Tips settled, by outcome.",
		}, []string{"status"}),
		BackendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_errors_total",
			Help:      "Failed backend calls, by operation.",
		}, []string{"operation"}),
		DegradedReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_reads_total",
			Help:      "Listings answered with an empty result after a backend failure.",
		}, []string{"operation"}),
		AdvisorCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advisor_calls_total",
			Help:      "Generative-text calls, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.TipsCreated,
		m.Votes,
		m.Settlements,
		m.BackendErrors,
		m.DegradedReads,
		m.AdvisorCalls,
		m.RequestDuration,
	)

	return m
}

func (m *Metrics) TipCreated() {
	if m == nil {
		return
	}
	m.TipsCreated.Inc()
}

func (m *Metrics) VoteRecorded(voteType string) {
	if m == nil {
		return
	}
	m.Votes.WithLabelValues(voteType).Inc()
}

func (m *Metrics) TipSettled(status string) {
	if m == nil {
		return
	}
	m.Settlements.WithLabelValues(status).Inc()
}

func (m *Metrics) BackendError(operation string) {
	if m == nil {
		return
	}
	m.BackendErrors.WithLabelValues(operation).Inc()
}

func (m *Metrics) DegradedRead(operation string) {
	if m == nil {
		return
	}
	m.DegradedReads.WithLabelValues(operation).Inc()
}

func (m *Metrics) AdvisorCall(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.AdvisorCalls.WithLabelValues(kind, outcome).Inc()
}

// Middleware records request latency per matched route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
