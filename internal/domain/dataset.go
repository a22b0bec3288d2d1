package domain

import "time"

// ============================================================
// Datasets
// ============================================================

// Dataset sources.
const (
	SourceUpload = "upload"
	SourceDirect = "direct"
)

// Dataset is a merged CSV snapshot that a dashboard can be loaded from.
type Dataset struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`         // upload, direct
	Mode      string    `json:"mode,omitempty"` // as reported by the merge service
	CSV       string    `json:"-"`
	Rows      int       `json:"rows"`
	CreatedAt time.Time `json:"created_at"`
}

// DatasetInfo is the listing view of a stored dataset (no payload).
type DatasetInfo struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Mode      string    `json:"mode,omitempty"`
	Rows      int       `json:"rows"`
	Bytes     int       `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// ============================================================
// Merge service contract
// ============================================================

// Upload field names accepted by the merge service.
const (
	FieldTimeEntries = "time_entries"
	FieldIncomes     = "incomes"
	FieldProjects    = "projects"
)

// UploadFile is one CSV export forwarded to the merge service.
type UploadFile struct {
	Field    string
	Filename string
	Content  []byte
}

// MergeRequest carries up to three CSV exports.
type MergeRequest struct {
	Files []UploadFile
}

// MergeResult is the merge service response.
type MergeResult struct {
	Stats       map[string]any `json:"stats"`
	DownloadCSV string         `json:"download_csv,omitempty"`
	PreviewCSV  string         `json:"preview_csv,omitempty"`
	Mode        string         `json:"mode,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// UploadResult is returned to API clients after an upload.
type UploadResult struct {
	Merge     *MergeResult `json:"merge"`
	DatasetID string       `json:"dataset_id,omitempty"`
	Stats     *Stats       `json:"stats,omitempty"`
	Cached    bool         `json:"cached"`
}

// ============================================================
// Auth
// ============================================================

// LoginRequest is forwarded to the merge service auth endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionStatus reports whether a token is held and when it expires.
type SessionStatus struct {
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}
