// Package service contains the dashboards and the orchestration around them:
// loading datasets, applying control changes, rendering and exporting charts,
// and talking to the merge service.
package service

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/boddenberg/timesheet-charts-go/internal/aggregate"
	"github.com/boddenberg/timesheet-charts-go/internal/chart"
	"github.com/boddenberg/timesheet-charts-go/internal/csvtable"
	"github.com/boddenberg/timesheet-charts-go/internal/domain"
	"github.com/boddenberg/timesheet-charts-go/internal/export"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/observability"
	"github.com/boddenberg/timesheet-charts-go/internal/normalize"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service")

// DashboardOptions sizes and tunes every chart of a dashboard.
type DashboardOptions struct {
	Width       int
	Height      int
	TopN        int
	MaxLabels   int
	DefaultDays int
	Title       string
}

func (o DashboardOptions) withDefaults() DashboardOptions {
	if o.Width <= 0 {
		o.Width = 960
	}
	if o.Height <= 0 {
		o.Height = 320
	}
	if o.MaxLabels <= 0 {
		o.MaxLabels = chart.DefaultMaxLabels
	}
	if o.DefaultDays <= 0 {
		o.DefaultDays = 30
	}
	if o.Title == "" {
		o.Title = "Timesheet charts"
	}
	return o
}

// loaded is the parsed dataset behind a Loaded dashboard.
type loaded struct {
	id    string
	raw   *aggregate.RawSeries
	stats *domain.Stats
}

// frame is the derived series and chart layouts for one state version.
type frame struct {
	version    uint64
	state      domain.ChartState
	buckets    []domain.Bucket
	top        []string
	rest       []string
	layouts    map[domain.Metric]*chart.Layout
	computedAt time.Time
}

// drawn remembers which frame a surface currently shows.
type drawn struct {
	surface *image.RGBA
	version uint64
}

// Dashboard owns one dataset, its chart state and the derived series.
//
// Control changes only bump a version; the series and layouts are recomputed
// lazily, once per version, by the first render, hit test, series or export
// request that needs them. Any number of changes in between coalesce into a
// single recompute.
type Dashboard struct {
	id        string
	createdAt time.Time
	opts      DashboardOptions
	surfaces  *chart.Surfaces
	metrics   *observability.Metrics
	logger    *zap.Logger

	mu      sync.Mutex
	phase   domain.Phase
	data    *loaded
	state   domain.ChartState
	version uint64
	frame   *frame
	drawn   map[domain.Metric]drawn
}

// NewDashboard creates an Idle dashboard.
func NewDashboard(id string, opts DashboardOptions, surfaces *chart.Surfaces, metrics *observability.Metrics, logger *zap.Logger) *Dashboard {
	if surfaces == nil {
		surfaces = chart.NewSurfaces(nil)
	}
	return &Dashboard{
		id:        id,
		createdAt: time.Now().UTC(),
		opts:      opts.withDefaults(),
		surfaces:  surfaces,
		metrics:   metrics,
		logger:    logger.With(zap.String("workspace_id", id)),
		phase:     domain.PhaseIdle,
		drawn:     make(map[domain.Metric]drawn),
	}
}

// ID returns the workspace id.
func (d *Dashboard) ID() string { return d.id }

// Info describes the dashboard.
func (d *Dashboard) Info() domain.WorkspaceInfo {
	d.mu.Lock()
	defer d.mu.Unlock()

	info := domain.WorkspaceInfo{
		ID:        d.id,
		Phase:     d.phase,
		Version:   d.version,
		CreatedAt: d.createdAt,
	}
	if d.data != nil {
		st := d.state
		info.State = &st
		info.DatasetID = d.data.id
	}
	return info
}

// Load replaces the dataset wholesale. The chart state is created with
// defaults on the first load and kept on later ones.
func (d *Dashboard) Load(ctx context.Context, ds *domain.Dataset) (*domain.Stats, error) {
	_, span := tracer.Start(ctx, "Dashboard.Load")
	defer span.End()
	span.SetAttributes(attribute.String("workspace.id", d.id), attribute.String("dataset.id", ds.ID))

	table := csvtable.Parse(ds.CSV)
	records, accessor := normalize.Records(table)
	raw := aggregate.Accumulate(records)
	stats := aggregate.Summarize(table.Len(), records, accessor.Column, d.opts.TopN)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.phase == domain.PhaseIdle {
		d.state = domain.DefaultChartState(d.opts.DefaultDays)
	}
	d.data = &loaded{id: ds.ID, raw: raw, stats: stats}
	d.phase = domain.PhaseLoaded
	d.version++

	d.metrics.IncrDatasetLoaded(ds.Source)
	d.logger.Info("dataset loaded",
		zap.String("dataset_id", ds.ID),
		zap.Int("rows", stats.Rows),
		zap.Int("records", stats.Records),
		zap.Int("projects", stats.Projects),
		zap.String("income_column", stats.IncomeColumn),
	)
	return stats, nil
}

// State returns the chart state and phase.
func (d *Dashboard) State() (domain.ChartState, domain.Phase, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.phase == domain.PhaseIdle {
		return domain.ChartState{}, d.phase, &domain.ErrNoDataset{WorkspaceID: d.id}
	}
	return d.state, d.phase, nil
}

// Update applies a control change. Unchanged states do not invalidate the
// derived series.
func (d *Dashboard) Update(patch domain.StatePatch) (domain.ChartState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.phase == domain.PhaseIdle {
		return domain.ChartState{}, &domain.ErrNoDataset{WorkspaceID: d.id}
	}
	next, err := patch.Apply(d.state)
	if err != nil {
		return d.state, err
	}
	if next != d.state {
		d.state = next
		d.version++
		d.logger.Debug("chart state changed", zap.String("state", next.Describe()), zap.Uint64("version", d.version))
	}
	return d.state, nil
}

// Reset returns the dashboard to Idle and discards every derived series.
func (d *Dashboard) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.phase = domain.PhaseIdle
	d.data = nil
	d.state = domain.ChartState{}
	d.frame = nil
	d.version++
	for _, m := range domain.Metrics {
		d.surfaces.Drop(d.surfaceID(m))
	}
	d.drawn = make(map[domain.Metric]drawn)
}

// Stats returns the statistics summary of the loaded dataset.
func (d *Dashboard) Stats() (*domain.Stats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.phase == domain.PhaseIdle {
		return nil, &domain.ErrNoDataset{WorkspaceID: d.id}
	}
	return d.data.stats, nil
}

// Series returns the derived series for the current state.
func (d *Dashboard) Series(ctx context.Context) (*domain.SeriesView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, err := d.frameLocked(ctx)
	if err != nil {
		return nil, err
	}
	points := make([]domain.SeriesPoint, 0, len(f.buckets))
	for _, b := range f.buckets {
		points = append(points, domain.NewSeriesPoint(b))
	}
	return &domain.SeriesView{
		State:      f.state,
		Projects:   f.top,
		MoreCount:  len(f.rest),
		Points:     points,
		ComputedAt: f.computedAt,
	}, nil
}

// Hit resolves a pointer position on the chart of metric m.
func (d *Dashboard) Hit(ctx context.Context, m domain.Metric, x, y float64) (*domain.HitResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, err := d.frameLocked(ctx)
	if err != nil {
		return nil, err
	}
	r, ok := f.layouts[m].Hit(x, y)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "segment", ID: fmt.Sprintf("%s@%g,%g", m, x, y)}
	}
	return &domain.HitResult{
		Metric:    m,
		BucketKey: r.BucketKey,
		Project:   r.Project,
		Value:     r.Value,
		X:         r.X,
		Y:         r.Y,
		W:         r.W,
		H:         r.H,
	}, nil
}

// RenderPNG draws the chart of metric m and encodes it.
func (d *Dashboard) RenderPNG(ctx context.Context, m domain.Metric) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.RenderPNG")
	defer span.End()
	span.SetAttributes(attribute.String("chart.metric", string(m)))

	start := time.Now()
	defer func() { d.metrics.RecordDuration("render", time.Since(start)) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	surfaces, err := d.renderLocked(ctx, m)
	if err != nil {
		return nil, err
	}
	return export.PNG(surfaces[m])
}

// Export composes the three charts with a header and the state description.
func (d *Dashboard) Export(ctx context.Context) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.Export")
	defer span.End()

	start := time.Now()
	defer func() { d.metrics.RecordDuration("export", time.Since(start)) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	surfaces, err := d.renderLocked(ctx, domain.Metrics...)
	if err != nil {
		return nil, err
	}

	panels := make([]export.Panel, 0, len(domain.Metrics))
	for _, m := range domain.Metrics {
		panels = append(panels, export.Panel{Title: m.Title(), Image: surfaces[m]})
	}
	meta := d.frame.state.Describe()
	if n := len(d.frame.rest); n > 0 {
		meta += " | " + chart.MoreLabel(n)
	}
	img := export.Compose(panels, fmt.Sprintf("%s - dataset %s", d.opts.Title, d.data.id), meta)

	d.metrics.IncrExport()
	return export.PNG(img)
}

// frameLocked returns the frame for the current version, recomputing it if a
// control change or load happened since the last one.
func (d *Dashboard) frameLocked(ctx context.Context) (*frame, error) {
	if d.phase == domain.PhaseIdle {
		return nil, &domain.ErrNoDataset{WorkspaceID: d.id}
	}
	if d.frame != nil && d.frame.version == d.version {
		return d.frame, nil
	}

	_, span := tracer.Start(ctx, "Dashboard.recompute")
	defer span.End()

	d.phase = domain.PhaseRecomputing
	defer func() { d.phase = domain.PhaseLoaded }()
	start := time.Now()

	state := d.state
	dates := aggregate.Filter(d.data.raw.Dates(), state)
	buckets := d.data.raw.Regroup(dates, state.Granularity)
	top, rest := aggregate.TopProjects(buckets, d.opts.TopN)
	if state.Cumulative {
		buckets = aggregate.Cumulative(buckets, nil)
	}

	area := chart.PlotArea(d.opts.Width, d.opts.Height)
	opts := chart.Options{MaxLabels: d.opts.MaxLabels}
	layouts := make([]*chart.Layout, len(domain.Metrics))

	var g errgroup.Group
	for i, m := range domain.Metrics {
		g.Go(func() error {
			layouts[i] = chart.Compute(chart.Columns(buckets, m, top, rest), area, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	f := &frame{
		version:    d.version,
		state:      state,
		buckets:    buckets,
		top:        top,
		rest:       rest,
		layouts:    make(map[domain.Metric]*chart.Layout, len(domain.Metrics)),
		computedAt: time.Now().UTC(),
	}
	for i, m := range domain.Metrics {
		f.layouts[m] = layouts[i]
	}
	d.frame = f

	d.metrics.IncrRecompute()
	d.metrics.RecordDuration("recompute", time.Since(start))
	span.SetAttributes(attribute.Int("series.buckets", len(buckets)), attribute.Int("series.dates", len(dates)))
	return f, nil
}

// renderLocked brings the surfaces of metrics up to date with the current
// frame. Surfaces already showing it are reused; the rest are drawn
// concurrently.
func (d *Dashboard) renderLocked(ctx context.Context, metrics ...domain.Metric) (map[domain.Metric]*image.RGBA, error) {
	f, err := d.frameLocked(ctx)
	if err != nil {
		return nil, err
	}

	note := ""
	if len(f.rest) > 0 {
		note = chart.MoreLabel(len(f.rest))
	}

	out := make(map[domain.Metric]*image.RGBA, len(metrics))
	stale := make([]domain.Metric, 0, len(metrics))
	for _, m := range metrics {
		surface := d.surfaces.Ensure(d.surfaceID(m), d.opts.Width, d.opts.Height)
		out[m] = surface
		if dr, ok := d.drawn[m]; ok && dr.surface == surface && dr.version == f.version {
			d.metrics.IncrCacheHit("surface")
			continue
		}
		d.metrics.IncrCacheMiss("surface")
		stale = append(stale, m)
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, m := range stale {
		surface, layout := out[m], f.layouts[m]
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			chart.Render(surface, layout, note)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, m := range stale {
		d.drawn[m] = drawn{surface: out[m], version: f.version}
		d.metrics.IncrRender(string(m))
	}
	return out, nil
}

func (d *Dashboard) surfaceID(m domain.Metric) string {
	return d.id + ":" + string(m)
}
