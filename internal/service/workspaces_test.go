package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/timesheet-charts-go/internal/chart"
	"github.com/boddenberg/timesheet-charts-go/internal/domain"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/cache"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/memory"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/observability"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/resilience"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/session"
	"github.com/boddenberg/timesheet-charts-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockMergeService struct {
	mu     sync.Mutex
	result *domain.MergeResult
	err    error
	calls  int
	token  string
}

func (m *mockMergeService) Merge(_ context.Context, token string, _ *domain.MergeRequest) (*domain.MergeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.token = token
	return m.result, m.err
}

type fixture struct {
	svc      *service.WorkspaceService
	merge    *mockMergeService
	datasets *memory.DatasetStore
	session  *session.Session
	metrics  *observability.Metrics
}

func newFixture(t *testing.T, merge *mockMergeService) *fixture {
	t.Helper()
	uploads := cache.New[*domain.UploadResult](time.Minute)
	t.Cleanup(uploads.Close)

	f := &fixture{
		merge:    merge,
		datasets: memory.NewDatasetStore(),
		session:  session.New(session.NewMemoryTokenStore()),
		metrics:  observability.NewMetrics(),
	}
	f.svc = service.NewWorkspaceService(
		smallOpts,
		chart.NewSurfaces(nil),
		f.datasets,
		merge,
		f.session,
		uploads,
		resilience.NewBulkhead(2),
		f.metrics,
		zap.NewNop(),
	)
	return f
}

func uploadRequest() *domain.MergeRequest {
	return &domain.MergeRequest{Files: []domain.UploadFile{
		{Field: domain.FieldTimeEntries, Content: []byte("date,project,duration_hours\n2024-01-01,A,2\n")},
		{Field: domain.FieldIncomes, Content: []byte("date,project,amount\n2024-01-01,A,100\n")},
	}}
}

// --- Tests ---

func TestWorkspaces_CreateGetDelete(t *testing.T) {
	f := newFixture(t, &mockMergeService{})

	info := f.svc.Create()
	if info.ID == "" || info.Phase != domain.PhaseIdle {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := f.svc.Get(info.ID); err != nil {
		t.Fatal(err)
	}
	if len(f.svc.List()) != 1 {
		t.Errorf("expected one workspace")
	}

	if err := f.svc.Delete(info.ID); err != nil {
		t.Fatal(err)
	}
	var nf *domain.ErrNotFound
	if _, err := f.svc.Get(info.ID); !errors.As(err, &nf) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := f.svc.Delete(info.ID); !errors.As(err, &nf) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestWorkspaces_LoadCSVAndReload(t *testing.T) {
	f := newFixture(t, &mockMergeService{})
	ctx := context.Background()

	ws1 := f.svc.Create()
	res, err := f.svc.LoadCSV(ctx, ws1.ID, scenarioCSV)
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Rows != 3 || res.DatasetID == "" {
		t.Errorf("unexpected result %+v", res)
	}

	list, err := f.svc.ListDatasets(ctx, 10)
	if err != nil || len(list) != 1 || list[0].Source != domain.SourceDirect || list[0].Rows != 3 {
		t.Fatalf("unexpected datasets %+v, %v", list, err)
	}

	ws2 := f.svc.Create()
	if _, err := f.svc.ReloadDataset(ctx, ws2.ID, res.DatasetID); err != nil {
		t.Fatal(err)
	}
	d2, _ := f.svc.Get(ws2.ID)
	if info := d2.Info(); info.Phase != domain.PhaseLoaded || info.DatasetID != res.DatasetID {
		t.Errorf("unexpected reloaded info %+v", info)
	}

	var nf *domain.ErrNotFound
	if _, err := f.svc.ReloadDataset(ctx, ws2.ID, "missing"); !errors.As(err, &nf) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWorkspaces_UploadLoadsMergedCSV(t *testing.T) {
	merge := &mockMergeService{result: &domain.MergeResult{
		Stats:       map[string]any{"rows": 3},
		DownloadCSV: scenarioCSV,
		Mode:        "merged",
	}}
	f := newFixture(t, merge)
	ctx := context.Background()
	_ = f.session.SetToken(ctx, "tok")

	ws := f.svc.Create()
	res, err := f.svc.Upload(ctx, ws.ID, uploadRequest())
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached || res.Stats == nil || res.Stats.TotalIncome != 160 || res.DatasetID == "" {
		t.Errorf("unexpected upload result %+v", res)
	}
	if merge.token != "tok" {
		t.Errorf("token not forwarded: %q", merge.token)
	}

	stored, err := f.datasets.Get(ctx, res.DatasetID)
	if err != nil || stored.Source != domain.SourceUpload || stored.Mode != "merged" {
		t.Errorf("dataset not stored: %+v, %v", stored, err)
	}

	// Same files again, into another workspace.
	ws2 := f.svc.Create()
	again, err := f.svc.Upload(ctx, ws2.ID, uploadRequest())
	if err != nil {
		t.Fatal(err)
	}
	if !again.Cached || again.DatasetID != res.DatasetID || merge.calls != 1 {
		t.Errorf("expected cached result, got %+v (calls %d)", again, merge.calls)
	}
	d2, _ := f.svc.Get(ws2.ID)
	if d2.Info().Phase != domain.PhaseLoaded {
		t.Error("cached upload must still load the workspace")
	}
}

func TestWorkspaces_UploadWithoutCSV(t *testing.T) {
	merge := &mockMergeService{result: &domain.MergeResult{Stats: map[string]any{"rows": 0}}}
	f := newFixture(t, merge)

	ws := f.svc.Create()
	res, err := f.svc.Upload(context.Background(), ws.ID, uploadRequest())
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats != nil || res.DatasetID != "" {
		t.Errorf("nothing should be loaded: %+v", res)
	}
	d, _ := f.svc.Get(ws.ID)
	if d.Info().Phase != domain.PhaseIdle {
		t.Error("workspace should stay idle")
	}
}

func TestWorkspaces_UploadValidation(t *testing.T) {
	f := newFixture(t, &mockMergeService{})
	ws := f.svc.Create()

	tests := []struct {
		name  string
		files []domain.UploadFile
	}{
		{"missing incomes", []domain.UploadFile{{Field: domain.FieldTimeEntries, Content: []byte("a\n1\n")}}},
		{"empty file", []domain.UploadFile{
			{Field: domain.FieldTimeEntries, Content: []byte("a\n1\n")},
			{Field: domain.FieldIncomes, Content: []byte("  ")},
		}},
		{"unknown field", []domain.UploadFile{
			{Field: domain.FieldTimeEntries, Content: []byte("a\n1\n")},
			{Field: domain.FieldIncomes, Content: []byte("a\n1\n")},
			{Field: "invoices", Content: []byte("a\n1\n")},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Upload(context.Background(), ws.ID, &domain.MergeRequest{Files: tt.files})
			var ve *domain.ErrValidation
			if !errors.As(err, &ve) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
	if f.merge.calls != 0 {
		t.Errorf("merge service called for invalid uploads")
	}
}

func TestWorkspaces_UploadMergeError(t *testing.T) {
	merge := &mockMergeService{err: &domain.ErrUnauthorized{Message: "token expired"}}
	f := newFixture(t, merge)
	ws := f.svc.Create()

	_, err := f.svc.Upload(context.Background(), ws.ID, uploadRequest())
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if got := f.metrics.GetRenderSnapshot().MergeErrors; got != 1 {
		t.Errorf("merge errors = %d", got)
	}

	// Failures are not cached.
	merge.err = nil
	merge.result = &domain.MergeResult{DownloadCSV: scenarioCSV}
	if _, err := f.svc.Upload(context.Background(), ws.ID, uploadRequest()); err != nil {
		t.Fatal(err)
	}
	if merge.calls != 2 {
		t.Errorf("calls = %d, want 2", merge.calls)
	}
}

func TestWorkspaces_UploadCacheIsScopedToSession(t *testing.T) {
	merge := &mockMergeService{result: &domain.MergeResult{DownloadCSV: scenarioCSV}}
	f := newFixture(t, merge)
	ctx := context.Background()
	ws := f.svc.Create()

	_ = f.session.SetToken(ctx, "tok-a")
	if _, err := f.svc.Upload(ctx, ws.ID, uploadRequest()); err != nil {
		t.Fatal(err)
	}

	// Signed out: the same files must go to the merge service again.
	_ = f.session.Clear(ctx)
	res, err := f.svc.Upload(ctx, ws.ID, uploadRequest())
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached || merge.calls != 2 || merge.token != "" {
		t.Errorf("signed out upload served from cache: cached=%v calls=%d token=%q", res.Cached, merge.calls, merge.token)
	}

	// Another token does not see the first token's entry either.
	_ = f.session.SetToken(ctx, "tok-b")
	res, _ = f.svc.Upload(ctx, ws.ID, uploadRequest())
	if res.Cached || merge.calls != 3 {
		t.Errorf("upload under another token was cached: cached=%v calls=%d", res.Cached, merge.calls)
	}
}

func TestWorkspaces_DropUploads(t *testing.T) {
	merge := &mockMergeService{result: &domain.MergeResult{DownloadCSV: scenarioCSV}}
	f := newFixture(t, merge)
	ctx := context.Background()
	ws := f.svc.Create()
	_ = f.session.SetToken(ctx, "tok")

	if _, err := f.svc.Upload(ctx, ws.ID, uploadRequest()); err != nil {
		t.Fatal(err)
	}
	if n := f.svc.DropUploads(); n != 1 {
		t.Errorf("dropped %d entries, want 1", n)
	}
	res, _ := f.svc.Upload(ctx, ws.ID, uploadRequest())
	if res.Cached || merge.calls != 2 {
		t.Errorf("upload served from a dropped cache: cached=%v calls=%d", res.Cached, merge.calls)
	}
}

func TestWorkspaces_DeleteDataset(t *testing.T) {
	f := newFixture(t, &mockMergeService{})
	ctx := context.Background()
	ws := f.svc.Create()

	res, err := f.svc.LoadCSV(ctx, ws.ID, scenarioCSV)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.DeleteDataset(ctx, res.DatasetID); err != nil {
		t.Fatal(err)
	}
	var nf *domain.ErrNotFound
	if err := f.svc.DeleteDataset(ctx, res.DatasetID); !errors.As(err, &nf) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if items, _ := f.svc.ListDatasets(ctx, 10); len(items) != 0 {
		t.Errorf("expected no datasets, got %d", len(items))
	}
}
