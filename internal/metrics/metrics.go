// Package metrics exposes Prometheus collectors for the HTTP layer and for
// the marketplace events the service layer records.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "skillgig",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skillgig",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "skillgig",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	questionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "skillgig",
			Name:      "questions_created_total",
			Help:      "Total number of questions created.",
		},
	)

	answersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "skillgig",
			Name:      "answers_created_total",
			Help:      "Total number of answers submitted.",
		},
	)

	answersVerified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skillgig",
			Name:      "answers_verified_total",
			Help:      "Total number of answer verifications by outcome.",
		},
		[]string{"outcome"},
	)

	registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skillgig",
			Name:      "registrations_total",
			Help:      "Total number of registered accounts by role and method.",
		},
		[]string{"role", "method"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		questionsCreated,
		answersCreated,
		answersVerified,
		registrations,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// The route label is chi's route pattern ("/api/v1/questions/{id}"), so
// path parameters do not explode the label cardinality.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := routePattern(r)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// QuestionCreated counts a newly created question.
func QuestionCreated() { questionsCreated.Inc() }

// AnswerCreated counts a newly submitted answer.
func AnswerCreated() { answersCreated.Inc() }

// AnswerVerified counts a verify call; accepted is the requested outcome.
func AnswerVerified(accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	answersVerified.WithLabelValues(outcome).Inc()
}

// UserRegistered counts a new account. method is "password" or "github".
func UserRegistered(role, method string) {
	if role == "" {
		role = "unknown"
	}
	registrations.WithLabelValues(role, method).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// routePattern reads the matched pattern after routing has run.
// Unmatched requests share one label.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
