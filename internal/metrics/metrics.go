package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ListingsCreated    *prometheus.CounterVec
	ListingTransitions *prometheus.CounterVec
	CreditOperations   *prometheus.CounterVec
	SweepDeletions     *prometheus.CounterVec
	SweepWarnings      prometheus.Counter
	SweepDuration      prometheus.Histogram
	Payments           *prometheus.CounterVec
	NotificationsSent  *prometheus.CounterVec
	AuthAttempts       *prometheus.CounterVec
}

// New registers the collectors on reg using prefix for every metric name
func New(prefix string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		ListingsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_listings_created_total",
			Help: "Listings submitted for review",
		}, []string{"category"}),
		ListingTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_listing_transitions_total",
			Help: "Listing lifecycle actions by outcome",
		}, []string{"action", "outcome"}),
		CreditOperations: f.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_credit_operations_total",
			Help: "Credits moved through the ledger",
		}, []string{"operation", "category"}),
		SweepDeletions: f.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_sweep_deletions_total",
			Help: "Listings removed by the expiration sweep",
		}, []string{"reason"}),
		SweepWarnings: f.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_sweep_expiry_warnings_total",
			Help: "Expiry warnings issued by the sweep",
		}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    prefix + "_sweep_duration_seconds",
			Help:    "Duration of expiration sweeps",
			Buckets: prometheus.DefBuckets,
		}),
		Payments: f.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_payments_total",
			Help: "Credit purchase outcomes",
		}, []string{"stage", "outcome"}),
		NotificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_notifications_total",
			Help: "Notifications by type and delivery channel",
		}, []string{"type", "channel"}),
		AuthAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "OTP login attempts by outcome",
		}, []string{"outcome"}),
	}
}

// Middleware records request counts and latency per route template
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) ListingCreated(category string) {
	if m != nil {
		m.ListingsCreated.WithLabelValues(category).Inc()
	}
}

func (m *Metrics) Transition(action, outcome string) {
	if m != nil {
		m.ListingTransitions.WithLabelValues(action, outcome).Inc()
	}
}

func (m *Metrics) Credits(operation, category string, n int) {
	if m != nil && n > 0 {
		m.CreditOperations.WithLabelValues(operation, category).Add(float64(n))
	}
}

func (m *Metrics) SweepDeleted(reason string, n int64) {
	if m != nil && n > 0 {
		m.SweepDeletions.WithLabelValues(reason).Add(float64(n))
	}
}

func (m *Metrics) SweepWarned(n int) {
	if m != nil && n > 0 {
		m.SweepWarnings.Add(float64(n))
	}
}

// TrackSweep returns a func that records the sweep duration since start
func (m *Metrics) TrackSweep() func() {
	start := time.Now()
	return func() {
		if m != nil {
			m.SweepDuration.Observe(time.Since(start).Seconds())
		}
	}
}

func (m *Metrics) Payment(stage, outcome string) {
	if m != nil {
		m.Payments.WithLabelValues(stage, outcome).Inc()
	}
}

func (m *Metrics) Notification(kind, channel string) {
	if m != nil {
		m.NotificationsSent.WithLabelValues(kind, channel).Inc()
	}
}

func (m *Metrics) Auth(outcome string) {
	if m != nil {
		m.AuthAttempts.WithLabelValues(outcome).Inc()
	}
}
