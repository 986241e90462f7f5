package metrics

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ErlanBelekov/taskboard/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "taskboard",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskboard",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})

	// Auth metrics

	LoginAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskboard",
		Name:      "login_attempts_total",
		Help:      "Total login attempts, by outcome.",
	}, []string{"outcome"})

	// Task metrics

	TasksCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "taskboard",
		Name:      "tasks_created_total",
		Help:      "Total tasks created.",
	})

	// Reminder metrics

	ReminderEmailsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskboard",
		Name:      "reminder_emails_total",
		Help:      "Total due-soon reminder emails, by outcome.",
	}, []string{"outcome"})
)

func Register() {
	prometheus.MustRegister(
		HTTPRequestDuration,
		HTTPRequestsTotal,
		LoginAttemptsTotal,
		TasksCreatedTotal,
		ReminderEmailsTotal,
	)
}

// NewServer serves the operational endpoints on a separate port so they
// are never exposed through the public API.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", healthHandler(checker.Liveness))
	mux.HandleFunc("/readyz", healthHandler(checker.Readiness))
	return &http.Server{Addr: addr, Handler: mux}
}

func healthHandler(check func(ctx context.Context) health.HealthResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if result.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(result)
	}
}
