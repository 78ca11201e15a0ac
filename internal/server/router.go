// Package server provides HTTP server setup for the coordination API.
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/strayaid-systems/strayaid/internal/handlers"
	"github.com/strayaid-systems/strayaid/internal/metrics"
	"github.com/strayaid-systems/strayaid/pkg/middleware"
)

// NewRouter constructs a ServeMux with the coordination API routes registered.
func NewRouter(h *handlers.Handler, corsOrigins []string) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoints
	mux.HandleFunc("/healthz", h.HealthCheck)
	mux.HandleFunc("/readyz", h.ReadyCheck)
	mux.Handle("/metrics", promhttp.Handler())

	// Report intake
	mux.HandleFunc("/api/v1/reports", h.SubmitReportHandler)

	// Case routes
	mux.HandleFunc("/api/v1/cases", h.CasesHandler)
	mux.HandleFunc("/api/v1/cases/", caseRouteHandler(h))

	cors := middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	})

	return middleware.RequestID(cors(instrument(mux)))
}

// caseRouteHandler routes /api/v1/cases/{id}/* requests to appropriate handlers
func caseRouteHandler(h *handlers.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Check for sub-routes
		switch {
		case strings.HasSuffix(path, "/accept"):
			h.AcceptHandler(w, r)
		case strings.HasSuffix(path, "/decline"):
			h.DeclineHandler(w, r)
		case strings.HasSuffix(path, "/start"):
			h.StartHandler(w, r)
		case strings.HasSuffix(path, "/resolve"):
			h.ResolveHandler(w, r)
		case strings.HasSuffix(path, "/withdraw"):
			h.WithdrawHandler(w, r)
		case strings.HasSuffix(path, "/close"):
			h.CloseHandler(w, r)
		case strings.HasSuffix(path, "/reopen"):
			h.ReopenHandler(w, r)
		case strings.HasSuffix(path, "/history"):
			h.HistoryHandler(w, r)
		case strings.HasSuffix(path, "/assignments"):
			h.AssignmentsHandler(w, r)
		case strings.HasSuffix(path, "/messages"):
			h.MessagesHandler(w, r)
		case strings.HasSuffix(path, "/messages/read"):
			h.MarkReadHandler(w, r)
		case strings.HasSuffix(path, "/messages/unread"):
			h.UnreadHandler(w, r)
		default:
			// Handle /api/v1/cases/{id} directly
			h.CaseHandler(w, r)
		}
	}
}

// statusRecorder captures the response status for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records request counts and latency. Paths are normalized to the
// route shape so case IDs don't explode label cardinality.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := normalizePath(r.URL.Path)
		metrics.HTTPRequests.WithLabelValues(r.Method, path, http.StatusText(rec.status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/api/v1/cases/") {
		return path
	}
	rest := strings.TrimPrefix(path, "/api/v1/cases/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return "/api/v1/cases/{id}" + rest[i:]
	}
	return "/api/v1/cases/{id}"
}
