package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/boddenberg/timesheet-charts-go/internal/chart"
	"github.com/boddenberg/timesheet-charts-go/internal/csvtable"
	"github.com/boddenberg/timesheet-charts-go/internal/domain"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/observability"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/resilience"
	"github.com/boddenberg/timesheet-charts-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// WorkspaceService keeps the dashboards and feeds them datasets, either
// directly or through the merge service.
type WorkspaceService struct {
	opts     DashboardOptions
	surfaces *chart.Surfaces
	datasets port.DatasetStore
	merge    port.MergeService
	session  port.Session
	uploads  port.Cache[*domain.UploadResult]
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
	logger   *zap.Logger

	mu         sync.RWMutex
	dashboards map[string]*Dashboard
}

// NewWorkspaceService creates the service with all dependencies injected.
func NewWorkspaceService(
	opts DashboardOptions,
	surfaces *chart.Surfaces,
	datasets port.DatasetStore,
	merge port.MergeService,
	session port.Session,
	uploads port.Cache[*domain.UploadResult],
	bulkhead *resilience.Bulkhead,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *WorkspaceService {
	return &WorkspaceService{
		opts:       opts,
		surfaces:   surfaces,
		datasets:   datasets,
		merge:      merge,
		session:    session,
		uploads:    uploads,
		bulkhead:   bulkhead,
		metrics:    metrics,
		logger:     logger,
		dashboards: make(map[string]*Dashboard),
	}
}

// ============================================================
// Workspaces
// ============================================================

// Create registers a new Idle dashboard.
func (s *WorkspaceService) Create() domain.WorkspaceInfo {
	d := NewDashboard(uuid.NewString(), s.opts, s.surfaces, s.metrics, s.logger)

	s.mu.Lock()
	s.dashboards[d.ID()] = d
	s.mu.Unlock()

	s.logger.Info("workspace created", zap.String("workspace_id", d.ID()))
	return d.Info()
}

// Get returns the dashboard of a workspace.
func (s *WorkspaceService) Get(id string) (*Dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.dashboards[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "workspace", ID: id}
	}
	return d, nil
}

// List describes every workspace, oldest first.
func (s *WorkspaceService) List() []domain.WorkspaceInfo {
	s.mu.RLock()
	out := make([]domain.WorkspaceInfo, 0, len(s.dashboards))
	for _, d := range s.dashboards {
		out = append(out, d.Info())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Delete resets and forgets a workspace.
func (s *WorkspaceService) Delete(id string) error {
	s.mu.Lock()
	d, ok := s.dashboards[id]
	delete(s.dashboards, id)
	s.mu.Unlock()

	if !ok {
		return &domain.ErrNotFound{Resource: "workspace", ID: id}
	}
	d.Reset()
	s.logger.Info("workspace deleted", zap.String("workspace_id", id))
	return nil
}

// ============================================================
// Datasets
// ============================================================

// LoadCSV stores csv as a dataset and loads it into the workspace.
func (s *WorkspaceService) LoadCSV(ctx context.Context, id, csv string) (*domain.LoadResult, error) {
	d, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	ds, err := s.saveDataset(ctx, domain.SourceDirect, "", csv)
	if err != nil {
		return nil, err
	}
	stats, err := d.Load(ctx, ds)
	if err != nil {
		return nil, err
	}
	return &domain.LoadResult{DatasetID: ds.ID, Stats: stats}, nil
}

// ReloadDataset loads a stored dataset into the workspace.
func (s *WorkspaceService) ReloadDataset(ctx context.Context, id, datasetID string) (*domain.LoadResult, error) {
	d, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	ds, err := s.datasets.Get(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	stats, err := d.Load(ctx, ds)
	if err != nil {
		return nil, err
	}
	return &domain.LoadResult{DatasetID: ds.ID, Stats: stats}, nil
}

// ListDatasets lists stored datasets, newest first.
func (s *WorkspaceService) ListDatasets(ctx context.Context, limit int) ([]domain.DatasetInfo, error) {
	return s.datasets.List(ctx, limit)
}

// DeleteDataset removes a stored dataset. Workspaces already showing it keep
// their loaded copy.
func (s *WorkspaceService) DeleteDataset(ctx context.Context, datasetID string) error {
	if err := s.datasets.Delete(ctx, datasetID); err != nil {
		return fmt.Errorf("deleting dataset: %w", err)
	}
	s.logger.Info("dataset deleted", zap.String("dataset_id", datasetID))
	return nil
}

func (s *WorkspaceService) saveDataset(ctx context.Context, source, mode, csv string) (*domain.Dataset, error) {
	ds := &domain.Dataset{
		ID:        uuid.NewString(),
		Source:    source,
		Mode:      mode,
		CSV:       csv,
		Rows:      csvtable.Parse(csv).Len(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.datasets.Save(ctx, ds); err != nil {
		return nil, fmt.Errorf("saving dataset: %w", err)
	}
	return ds, nil
}

// ============================================================
// Merge upload
// ============================================================

// Upload sends the exports to the merge service and, when it returns a merged
// CSV, replaces the workspace dataset with it. Identical uploads are answered
// from cache.
func (s *WorkspaceService) Upload(ctx context.Context, id string, req *domain.MergeRequest) (*domain.UploadResult, error) {
	ctx, span := tracer.Start(ctx, "WorkspaceService.Upload")
	defer span.End()
	span.SetAttributes(attribute.String("workspace.id", id))

	d, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := validateUpload(req); err != nil {
		return nil, err
	}

	token, err := s.session.Token(ctx)
	if err != nil {
		return nil, err
	}

	// Signed-out uploads always reach the merge service, which decides.
	key := uploadKey(token, req)
	if token != "" {
		if cached, ok := s.uploads.Get(key); ok {
			s.metrics.IncrCacheHit("merge")
			return s.applyUpload(ctx, d, cached.Merge, cached.DatasetID, true)
		}
		s.metrics.IncrCacheMiss("merge")
	}

	if err := s.bulkhead.Acquire(ctx); err != nil {
		return nil, &domain.ErrTimeout{Operation: "merge upload"}
	}
	defer s.bulkhead.Release()

	start := time.Now()
	res, err := s.merge.Merge(ctx, token, req)
	s.metrics.RecordDuration("merge", time.Since(start))
	if err != nil {
		s.metrics.IncrMergeError(mergeErrorKind(err))
		s.logger.Warn("merge failed", zap.String("workspace_id", id), zap.Error(err))
		return nil, fmt.Errorf("merge: %w", err)
	}

	datasetID := ""
	if res.DownloadCSV != "" {
		ds, err := s.saveDataset(ctx, domain.SourceUpload, res.Mode, res.DownloadCSV)
		if err != nil {
			return nil, err
		}
		datasetID = ds.ID
	}

	out, err := s.applyUpload(ctx, d, res, datasetID, false)
	if err != nil {
		return nil, err
	}
	if token != "" {
		s.uploads.Set(key, &domain.UploadResult{Merge: res, DatasetID: datasetID})
	}
	return out, nil
}

// DropUploads forgets every cached merge result. Called when the session
// ends so a later session never sees the previous one's merges.
func (s *WorkspaceService) DropUploads() int {
	n := s.uploads.DeletePrefix(uploadKeyPrefix)
	if n > 0 {
		s.logger.Info("upload cache cleared", zap.Int("entries", n))
	}
	return n
}

// applyUpload loads the merged CSV, if any, into d. Without a CSV the
// workspace keeps its current dataset.
func (s *WorkspaceService) applyUpload(ctx context.Context, d *Dashboard, res *domain.MergeResult, datasetID string, cached bool) (*domain.UploadResult, error) {
	out := &domain.UploadResult{Merge: res, DatasetID: datasetID, Cached: cached}
	if res.DownloadCSV == "" {
		return out, nil
	}
	stats, err := d.Load(ctx, &domain.Dataset{
		ID:     datasetID,
		Source: domain.SourceUpload,
		Mode:   res.Mode,
		CSV:    res.DownloadCSV,
	})
	if err != nil {
		return nil, err
	}
	out.Stats = stats
	return out, nil
}

func validateUpload(req *domain.MergeRequest) error {
	if req == nil {
		return &domain.ErrValidation{Field: "files", Message: "required"}
	}
	seen := make(map[string]bool, len(req.Files))
	for _, f := range req.Files {
		switch f.Field {
		case domain.FieldTimeEntries, domain.FieldIncomes, domain.FieldProjects:
		default:
			return &domain.ErrValidation{Field: f.Field, Message: "unknown upload field"}
		}
		if seen[f.Field] {
			return &domain.ErrValidation{Field: f.Field, Message: "given more than once"}
		}
		seen[f.Field] = true
		if strings.TrimSpace(string(f.Content)) == "" {
			return &domain.ErrValidation{Field: f.Field, Message: "file is empty"}
		}
	}
	for _, required := range []string{domain.FieldTimeEntries, domain.FieldIncomes} {
		if !seen[required] {
			return &domain.ErrValidation{Field: required, Message: "file is required"}
		}
	}
	return nil
}

const uploadKeyPrefix = "upload:"

// uploadKey hashes the session token and the files in field order, so only
// identical uploads under the same token share a key.
func uploadKey(token string, req *domain.MergeRequest) string {
	files := make([]domain.UploadFile, len(req.Files))
	copy(files, req.Files)
	sort.Slice(files, func(i, j int) bool { return files[i].Field < files[j].Field })

	h := sha256.New()
	fmt.Fprintf(h, "token:%d:%s|", len(token), token)
	for _, f := range files {
		fmt.Fprintf(h, "%s:%d:", f.Field, len(f.Content))
		h.Write(f.Content)
	}
	return uploadKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func mergeErrorKind(err error) string {
	var unauthorized *domain.ErrUnauthorized
	var remote *domain.ErrRemote
	switch {
	case errors.As(err, &unauthorized):
		return "unauthorized"
	case errors.As(err, &remote):
		return "remote"
	default:
		return "unavailable"
	}
}
