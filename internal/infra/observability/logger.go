package observability

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the service logger. LOG_LEVEL accepts any zap level name;
// "debug" also switches to the colorized console encoder for local runs.
// Unknown names fall back to info.
func NewLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl == zapcore.DebugLevel {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := cfg.Build(zap.Fields(zap.String("service", "charts-api")))
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return logger
}

// routeParams are the chi URL parameters copied onto the access log.
var routeParams = map[string]string{
	"id":        "workspace_id",
	"datasetId": "dataset_id",
	"metric":    "metric",
}

// quietPaths are polled by orchestrators; successful hits log at debug.
var quietPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
	"/ping":    true,
}

// ZapLoggerMiddleware writes one access log entry per request. The entry
// carries the matched chi route pattern and the workspace, dataset and
// metric the request addressed, so a workspace's activity can be filtered
// out of the stream. Server errors log at error, client errors at warn.
func ZapLoggerMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				fields := append(requestFields(r),
					zap.Int("status", status),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("latency", time.Since(start)),
				)

				switch {
				case status >= 500:
					logger.Error("request failed", fields...)
				case status >= 400:
					logger.Warn("request rejected", fields...)
				case quietPaths[r.URL.Path]:
					logger.Debug("request served", fields...)
				default:
					logger.Info("request served", fields...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// requestFields reads the routing result, so it must run after the router
// has matched the request.
func requestFields(r *http.Request) []zap.Field {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("remote_addr", r.RemoteAddr),
	}

	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return fields
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		fields = append(fields, zap.String("route", pattern))
	}
	for param, key := range routeParams {
		if v := rctx.URLParam(param); v != "" {
			fields = append(fields, zap.String(key, v))
		}
	}
	return fields
}

// TracingMiddleware extracts trace context from incoming requests.
func TracingMiddleware(next http.Handler) http.Handler {
	propagator := otel.GetTextMapPropagator()
	if propagator == nil {
		propagator = propagation.TraceContext{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
