package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "imovlocal"

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Opportunity board
	demandsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "opportunity",
			Name:      "demands_created_total",
			Help:      "Total number of demands posted",
		},
		[]string{"property_type"},
	)

	proposalTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "opportunity",
			Name:      "proposals_total",
			Help:      "Proposal events by resulting status",
		},
		[]string{"status"},
	)

	matchNotifications = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "opportunity",
			Name:      "match_notifications_total",
			Help:      "Opportunity notifications emitted by matchmaking",
		},
	)

	matchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "opportunity",
			Name:      "match_failures_total",
			Help:      "Matchmaking runs that failed and were skipped",
		},
	)

	// Payments
	paymentTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "transitions_total",
			Help:      "Payment status transitions",
		},
		[]string{"status"},
	)

	// Notifications
	notificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "created_total",
			Help:      "Notifications created by type",
		},
		[]string{"type"},
	)

	// Scheduler
	sweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "sweep_runs_total",
			Help:      "Plan expiration sweeps by outcome",
		},
		[]string{"outcome"},
	)

	sweepUsers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "users_total",
			Help:      "Users touched by the plan expiration sweep",
		},
		[]string{"sweep"},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a plan expiration sweep in seconds",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
		},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request metrics labelled by chi route pattern
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}

		status := strconv.Itoa(wrapped.statusCode)
		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordDemandCreated(propertyType string) {
	demandsCreated.WithLabelValues(propertyType).Inc()
}

func RecordProposal(status string) {
	proposalTransitions.WithLabelValues(status).Inc()
}

func RecordMatchNotifications(n int) {
	matchNotifications.Add(float64(n))
}

func RecordMatchFailure() {
	matchFailures.Inc()
}

func RecordPaymentTransition(status string) {
	paymentTransitions.WithLabelValues(status).Inc()
}

func RecordNotifications(notificationType string, n int) {
	notificationsCreated.WithLabelValues(notificationType).Add(float64(n))
}

// RecordSweep records one scheduler run
func RecordSweep(expired, reminded int, failed bool, duration time.Duration) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	sweepRuns.WithLabelValues(outcome).Inc()
	sweepUsers.WithLabelValues("expired").Add(float64(expired))
	sweepUsers.WithLabelValues("expiring_soon").Add(float64(reminded))
	sweepDuration.Observe(duration.Seconds())
}
