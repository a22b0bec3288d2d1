package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/observability"
	"github.com/boddenberg/timesheet-charts-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("handler")

// Pinger is a dependency the health endpoints check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the router.
type Options struct {
	MaxUploadBytes int64         // multipart and CSV body limit
	UploadLimiter  *rate.Limiter // nil disables rate limiting
	Store          Pinger        // nil when the dataset store has nothing to ping
}

const defaultMaxUploadBytes = 20 << 20

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(ws *service.WorkspaceService, authSvc *service.AuthService, metrics *observability.Metrics, opts Options, logger *zap.Logger) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}

	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(opts.Store))
	r.Get("/readyz", readyzHandler(opts.Store))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Metrics snapshot
		// GET /v1/metrics/render
		// =============================================
		r.Get("/metrics/render", renderMetricsHandler(metrics))

		// =============================================
		// Auth session
		// =============================================
		r.Post("/auth/login", loginHandler(authSvc, logger))
		r.Post("/auth/logout", logoutHandler(authSvc, ws, logger))
		r.Get("/auth/session", sessionHandler(authSvc, logger))

		// =============================================
		// Dataset history
		// GET /v1/datasets
		// DELETE /v1/datasets/{datasetId}
		// =============================================
		r.Get("/datasets", listDatasetsHandler(ws, logger))
		r.Delete("/datasets/{datasetId}", deleteDatasetHandler(ws, logger))

		// =============================================
		// Workspaces
		// =============================================
		r.Post("/workspaces", createWorkspaceHandler(ws))
		r.Get("/workspaces", listWorkspacesHandler(ws))

		r.Route("/workspaces/{id}", func(r chi.Router) {
			r.Get("/", getWorkspaceHandler(ws, logger))
			r.Delete("/", deleteWorkspaceHandler(ws, logger))
			r.Post("/reset", resetWorkspaceHandler(ws, logger))

			// Loading
			r.Post("/dataset", loadCSVHandler(ws, opts.MaxUploadBytes, logger))
			r.Post("/dataset/{datasetId}", reloadDatasetHandler(ws, logger))
			r.With(RateLimitMiddleware(opts.UploadLimiter, logger)).
				Post("/upload", uploadHandler(ws, opts.MaxUploadBytes, logger))

			// Controls
			r.Get("/state", getStateHandler(ws, logger))
			r.Patch("/state", patchStateHandler(ws, logger))

			// Derived data and rendering
			r.Get("/series", seriesHandler(ws, logger))
			r.Get("/stats", statsHandler(ws, logger))
			r.Get("/charts/{metric}", chartPNGHandler(ws, logger))
			r.Get("/charts/{metric}/hit", chartHitHandler(ws, logger))
			r.Get("/export.png", exportHandler(ws, logger))
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := []domain.ServiceHealth{
			{Name: "charts-api", Status: "healthy"},
		}

		if store != nil {
			start := time.Now()
			err := store.Ping(r.Context())
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name:      "dataset-store",
				Status:    status,
				LatencyMs: time.Since(start).Milliseconds(),
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			if err := store.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func renderMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetRenderSnapshot())
	}
}
