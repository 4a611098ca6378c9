package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saeid-a/PeerSupportBack/internal/models"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	matchDuration        prometheus.Histogram
	matchResults         prometheus.Histogram
	rescheduleOutcomes   *prometheus.CounterVec
	refunds              *prometheus.CounterVec
	sweepRuns            *prometheus.CounterVec
	sweepProcessed       prometheus.Counter
	notificationFailures *prometheus.CounterVec
	httpRequests         *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		matchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "peer_support_match_duration_seconds",
			Help:    "Time spent listing and ranking supporters for one match request.",
			Buckets: prometheus.DefBuckets,
		}),
		matchResults: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "peer_support_match_results",
			Help:    "Number of supporters returned per match request.",
			Buckets: []float64{0, 1, 3, 5, 10, 20, 50},
		}),
		rescheduleOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "peer_support_reschedule_requests_total",
				Help: "Reschedule requests by the status they reached.",
			},
			[]string{"status"},
		),
		refunds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "peer_support_refunds_total",
				Help: "Refund decisions by initiator and percentage.",
			},
			[]string{"initiator", "percentage"},
		),
		sweepRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "peer_support_sweep_runs_total",
				Help: "Expired reschedule sweeps by result.",
			},
			[]string{"result"},
		),
		sweepProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "peer_support_sweep_processed_total",
			Help: "Reschedule requests auto-cancelled by the sweep.",
		}),
		notificationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "peer_support_notification_failures_total",
				Help: "Notifications that could not be delivered.",
			},
			[]string{"kind"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "peer_support_http_requests_total",
				Help: "HTTP requests by route and status code.",
			},
			[]string{"method", "route", "status"},
		),
	}
}

func (m *Metrics) ObserveMatch(d time.Duration, results int) {
	m.matchDuration.Observe(d.Seconds())
	m.matchResults.Observe(float64(results))
}

func (m *Metrics) RecordRescheduleOutcome(status models.RescheduleStatus) {
	m.rescheduleOutcomes.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) RecordRefund(initiator models.Initiator, percentage int) {
	m.refunds.WithLabelValues(string(initiator), strconv.Itoa(percentage)).Inc()
}

func (m *Metrics) RecordSweep(processed int, failed bool) {
	result := "ok"
	if failed {
		result = "error"
	}
	m.sweepRuns.WithLabelValues(result).Inc()
	m.sweepProcessed.Add(float64(processed))
}

func (m *Metrics) RecordNotificationFailure(kind models.NotificationKind) {
	m.notificationFailures.WithLabelValues(string(kind)).Inc()
}

// Middleware counts requests by matched route pattern, not raw path, so ids
// do not blow up label cardinality.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		status := c.Response().StatusCode()
		if fiberErr, ok := err.(*fiber.Error); ok {
			status = fiberErr.Code
		}
		m.httpRequests.WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).Inc()
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}
