package sandbox

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the sandbox's Prometheus collectors. Each Server has its own
// registry so that several sandboxes can run in one process.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	registrations       prometheus.Counter
	logins              *prometheus.CounterVec
	mailsSent           *prometheus.CounterVec
	bookingsConfirmed   prometheus.Counter
}

func newMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "click_sandbox_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "click_sandbox_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		registrations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "click_sandbox_registrations_total",
				Help: "Total number of accounts created",
			},
		),
		logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "click_sandbox_logins_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
		mailsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "click_sandbox_mails_total",
				Help: "One-time token mails handed to the mailer, by purpose",
			},
			[]string{"purpose"},
		),
		bookingsConfirmed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "click_sandbox_bookings_confirmed_total",
				Help: "Total number of bookings confirmed by agents",
			},
		),
	}
}

// middleware records request count and latency by route pattern
func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Route patterns keep tokens and IDs out of the label values
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
