package domain

import "time"

// ============================================================
// Statistics summary
// ============================================================

// Stats is the quick statistics summary of a loaded dataset.
type Stats struct {
	Rows          int           `json:"rows"`
	Records       int           `json:"records"`
	Projects      int           `json:"projects"`
	IncomeColumn  string        `json:"income_column"`
	TotalIncome   float64       `json:"total_income"`
	TotalDuration float64       `json:"total_duration"`
	Ratio         float64       `json:"ratio"`
	FirstDate     string        `json:"first_date,omitempty"`
	LastDate      string        `json:"last_date,omitempty"`
	TopIncome     []ProjectStat `json:"top_income"`
	TopDuration   []ProjectStat `json:"top_duration"`
	TopRatio      []ProjectStat `json:"top_ratio"`
}

// ProjectStat is one project's totals over the whole dataset.
type ProjectStat struct {
	Project  string  `json:"project"`
	Income   float64 `json:"income"`
	Duration float64 `json:"duration"`
	Ratio    float64 `json:"ratio"`
}

// ============================================================
// Derived series (API view)
// ============================================================

// SeriesPoint is one bucket as exposed through the API.
type SeriesPoint struct {
	Key           string             `json:"key"`
	Income        map[string]float64 `json:"income"`
	Duration      map[string]float64 `json:"duration"`
	Ratio         map[string]float64 `json:"ratio"`
	TotalIncome   float64            `json:"total_income"`
	TotalDuration float64            `json:"total_duration"`
	TotalRatio    float64            `json:"total_ratio"`
}

// SeriesView is the derived series for the current chart state.
type SeriesView struct {
	State      ChartState    `json:"state"`
	Projects   []string      `json:"projects"` // top-N shown individually
	MoreCount  int           `json:"more_count"`
	Points     []SeriesPoint `json:"points"`
	ComputedAt time.Time     `json:"computed_at"`
}

// NewSeriesPoint expands a bucket with its derived ratios.
func NewSeriesPoint(b Bucket) SeriesPoint {
	ratios := make(map[string]float64, len(b.Income))
	for p := range b.Income {
		ratios[p] = b.ProjectRatio(p)
	}
	for p := range b.Duration {
		if _, ok := ratios[p]; !ok {
			ratios[p] = b.ProjectRatio(p)
		}
	}
	return SeriesPoint{
		Key:           b.Key,
		Income:        b.Income,
		Duration:      b.Duration,
		Ratio:         ratios,
		TotalIncome:   b.TotalIncome,
		TotalDuration: b.TotalDuration,
		TotalRatio:    b.Ratio(),
	}
}
