package domain

import "time"

// ============================================================
// Workspaces
// ============================================================

// Phase is the lifecycle state of a dashboard.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseLoaded      Phase = "loaded"
	PhaseRecomputing Phase = "recomputing"
)

// WorkspaceInfo describes one dashboard.
type WorkspaceInfo struct {
	ID        string      `json:"id"`
	Phase     Phase       `json:"phase"`
	State     *ChartState `json:"state,omitempty"`
	DatasetID string      `json:"dataset_id,omitempty"`
	Version   uint64      `json:"version"`
	CreatedAt time.Time   `json:"created_at"`
}

// HitResult is the segment under a pointer position.
type HitResult struct {
	Metric    Metric  `json:"metric"`
	BucketKey string  `json:"bucket_key"`
	Project   string  `json:"project"`
	Value     float64 `json:"value"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	W         float64 `json:"w"`
	H         float64 `json:"h"`
}

// LoadResult is returned after a dataset was loaded into a dashboard.
type LoadResult struct {
	DatasetID string `json:"dataset_id"`
	Stats     *Stats `json:"stats"`
}
