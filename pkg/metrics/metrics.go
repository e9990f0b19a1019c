package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Dispatch metrics
	EmailsSent      prometheus.Counter
	EmailsFailed    *prometheus.CounterVec
	DispatchRuns    prometheus.Counter
	DispatchBatch   prometheus.Histogram
	DispatchLatency prometheus.Histogram

	// Warm-up metrics
	WarmupEmailsSent prometheus.Counter
	WarmupSkipped    *prometheus.CounterVec

	// AI metrics
	LLMCalls    *prometheus.CounterVec
	LLMDuration prometheus.Histogram
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		EmailsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "outreach_emails_sent_total",
			Help: "Total number of campaign emails sent",
		}),
		EmailsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outreach_emails_failed_total",
				Help: "Total number of campaign emails that failed to send",
			},
			[]string{"reason"}, // validation, decryption, transport
		),
		DispatchRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "outreach_dispatch_runs_total",
			Help: "Total number of dispatch runs",
		}),
		DispatchBatch: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "outreach_dispatch_batch_size",
			Help:    "Leads processed per dispatch run",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		}),
		DispatchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "outreach_dispatch_duration_seconds",
			Help:    "Dispatch run duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}),

		WarmupEmailsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "outreach_warmup_emails_sent_total",
			Help: "Total number of warm-up emails sent",
		}),
		WarmupSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outreach_warmup_skipped_total",
				Help: "Warm-up sends skipped, by reason",
			},
			[]string{"reason"}, // limit_reached, interval, no_recipients
		),

		LLMCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outreach_llm_calls_total",
				Help: "LLM calls by purpose and outcome",
			},
			[]string{"purpose", "status"}, // personalize/audit, success/error
		),
		LLMDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "outreach_llm_call_duration_seconds",
			Help:    "LLM call duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),
	}

	return m
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // Use route pattern, not actual path

			err := next(c)

			status := c.Response().Status
			duration := time.Since(start).Seconds()

			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, strconv.Itoa(status)).Observe(duration)

			return err
		}
	}
}

// RecordEmailSent increments the sent counter
func (m *Metrics) RecordEmailSent() {
	m.EmailsSent.Inc()
}

// RecordEmailFailed increments the failed counter for a reason
func (m *Metrics) RecordEmailFailed(reason string) {
	m.EmailsFailed.WithLabelValues(reason).Inc()
}

// RecordDispatchRun records one dispatch run with its batch size and duration
func (m *Metrics) RecordDispatchRun(batchSize int, duration time.Duration) {
	m.DispatchRuns.Inc()
	m.DispatchBatch.Observe(float64(batchSize))
	m.DispatchLatency.Observe(duration.Seconds())
}

// RecordWarmupSent increments the warm-up sent counter
func (m *Metrics) RecordWarmupSent() {
	m.WarmupEmailsSent.Inc()
}

// RecordWarmupSkipped increments the warm-up skip counter for a reason
func (m *Metrics) RecordWarmupSkipped(reason string) {
	m.WarmupSkipped.WithLabelValues(reason).Inc()
}

// RecordLLMCall records one LLM call
func (m *Metrics) RecordLLMCall(purpose string, success bool, duration time.Duration) {
	status := "error"
	if success {
		status = "success"
	}
	m.LLMCalls.WithLabelValues(purpose, status).Inc()
	m.LLMDuration.Observe(duration.Seconds())
}
