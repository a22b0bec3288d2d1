package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMs int64  `json:"latencyMs"`
}

// RenderMetrics is returned by GET /v1/metrics/render.
type RenderMetrics struct {
	Recomputes     int64   `json:"recomputes"`
	Renders        int64   `json:"renders"`
	Exports        int64   `json:"exports"`
	DatasetsLoaded int64   `json:"datasetsLoaded"`
	MergeErrors    int64   `json:"mergeErrors"`
	CacheHitRate   float64 `json:"cacheHitRate"`
	Period         string  `json:"period"`
}

// ============================================================
// Generic API Response wrappers
// ============================================================

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
