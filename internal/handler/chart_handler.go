package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
	"github.com/boddenberg/timesheet-charts-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Derived series and charts
// ============================================================

func seriesHandler(ws *service.WorkspaceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/workspaces/{id}/series")
		defer span.End()

		d, err := ws.Get(chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		view, err := d.Series(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func statsHandler(ws *service.WorkspaceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := ws.Get(chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		stats, err := d.Stats()
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// metricParam accepts both "income" and "income.png".
func metricParam(r *http.Request) (domain.Metric, error) {
	return domain.ParseMetric(strings.TrimSuffix(chi.URLParam(r, "metric"), ".png"))
}

func chartPNGHandler(ws *service.WorkspaceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/workspaces/{id}/charts/{metric}.png")
		defer span.End()

		m, err := metricParam(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("chart.metric", string(m)))

		d, err := ws.Get(chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		png, err := d.RenderPNG(ctx, m)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writePNG(w, png)
	}
}

func chartHitHandler(ws *service.WorkspaceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/workspaces/{id}/charts/{metric}/hit")
		defer span.End()

		m, err := metricParam(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
		y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
		if errX != nil || errY != nil {
			writeError(w, http.StatusBadRequest, "x and y must be numbers")
			return
		}

		d, err := ws.Get(chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		hit, err := d.Hit(ctx, m, x, y)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, hit)
	}
}

func exportHandler(ws *service.WorkspaceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/workspaces/{id}/export.png")
		defer span.End()

		id := chi.URLParam(r, "id")
		d, err := ws.Get(id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		png, err := d.Export(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="dashboard-`+id+`.png"`)
		writePNG(w, png)
	}
}
