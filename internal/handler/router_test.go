package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/timesheet-charts-go/internal/chart"
	"github.com/boddenberg/timesheet-charts-go/internal/domain"
	"github.com/boddenberg/timesheet-charts-go/internal/handler"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/cache"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/client"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/memory"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/observability"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/resilience"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/session"
	"github.com/boddenberg/timesheet-charts-go/internal/service"

	"go.uber.org/zap"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

// newRouter wires the real services against a merge service at mergeURL.
func newRouter(t *testing.T, mergeURL string, opts handler.Options) (http.Handler, *observability.Metrics) {
	t.Helper()

	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	cfg := resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond}

	uploads := cache.New[*domain.UploadResult](time.Minute)
	t.Cleanup(uploads.Close)
	surfaces := cache.New[*image.RGBA](time.Minute)
	t.Cleanup(surfaces.Close)

	httpClient := &http.Client{Timeout: 5 * time.Second}
	sess := session.New(session.NewMemoryTokenStore())

	ws := service.NewWorkspaceService(
		service.DashboardOptions{Width: 300, Height: 120, TopN: 8, MaxLabels: 12, DefaultDays: 30, Title: "Test"},
		chart.NewSurfaces(surfaces),
		memory.NewDatasetStore(),
		client.NewMergeClient(httpClient, mergeURL, resilience.NewCircuitBreaker("merge-test"), cfg),
		sess,
		uploads,
		resilience.NewBulkhead(2),
		metrics,
		logger,
	)
	authSvc := service.NewAuthService(
		client.NewAuthClient(httpClient, mergeURL, resilience.NewCircuitBreaker("auth-test"), cfg),
		sess,
		logger,
	)
	return handler.NewRouter(ws, authSvc, metrics, opts, logger), metrics
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	router, _ := newRouter(t, "http://127.0.0.1:0", handler.Options{})

	rec := do(t, router, http.MethodGet, "/healthz", "")

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var health domain.HealthStatus
	json.NewDecoder(rec.Body).Decode(&health)
	if health.Status != "healthy" {
		t.Errorf("expected healthy, got %q", health.Status)
	}
}

func TestHealthz_DegradedStore(t *testing.T) {
	router, _ := newRouter(t, "http://127.0.0.1:0", handler.Options{Store: stubPinger{err: errors.New("down")}})

	rec := do(t, router, http.MethodGet, "/healthz", "")

	var health domain.HealthStatus
	json.NewDecoder(rec.Body).Decode(&health)
	if health.Status != "degraded" || len(health.Services) != 2 {
		t.Errorf("unexpected health %+v", health)
	}
}

func TestReadyz(t *testing.T) {
	router, _ := newRouter(t, "http://127.0.0.1:0", handler.Options{Store: stubPinger{}})

	rec := do(t, router, http.MethodGet, "/readyz", "")

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz_StoreDown(t *testing.T) {
	router, _ := newRouter(t, "http://127.0.0.1:0", handler.Options{Store: stubPinger{err: errors.New("down")}})

	rec := do(t, router, http.MethodGet, "/readyz", "")

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router, _ := newRouter(t, "http://127.0.0.1:0", handler.Options{})

	rec := do(t, router, http.MethodGet, "/metrics", "")

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRenderMetricsSnapshot(t *testing.T) {
	router, metrics := newRouter(t, "http://127.0.0.1:0", handler.Options{})
	metrics.IncrExport()

	rec := do(t, router, http.MethodGet, "/v1/metrics/render", "")

	var snap domain.RenderMetrics
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Exports != 1 {
		t.Errorf("expected 1 export, got %d", snap.Exports)
	}
}
