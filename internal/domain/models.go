// Package domain defines the core entities for the timesheet charts service.
// These models are independent of external services and represent the
// canonical data structures used by the aggregation and rendering engine.
package domain

import (
	"math"
	"strings"
	"time"
)

// UnknownProject is used when a row carries no recognizable project name.
const UnknownProject = "(unknown)"

// DayLayout is the canonical ISO-8601 calendar date layout.
const DayLayout = "2006-01-02"

// ============================================================
// CSV table
// ============================================================

// RawRow maps a header name to the cell value of one CSV row.
type RawRow map[string]string

// Table is a parsed CSV: the trimmed header fields and the rows in input order.
type Table struct {
	Header []string `json:"header"`
	Rows   []RawRow `json:"rows"`
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ============================================================
// Normalized records
// ============================================================

// Record is one row mapped onto the canonical schema.
// Income and Duration are always finite.
type Record struct {
	Date     string  `json:"date"` // YYYY-MM-DD when derivable, raw trimmed value otherwise
	Project  string  `json:"project"`
	Income   float64 `json:"income"`
	Duration float64 `json:"duration"` // hours
}

// ============================================================
// Buckets
// ============================================================

// Bucket holds per-project income and duration sums for one calendar key.
// Ratios are always derived, never stored.
type Bucket struct {
	Key           string             `json:"key"`
	Income        map[string]float64 `json:"income"`
	Duration      map[string]float64 `json:"duration"`
	TotalIncome   float64            `json:"total_income"`
	TotalDuration float64            `json:"total_duration"`
}

// NewBucket returns an empty bucket for key.
func NewBucket(key string) Bucket {
	return Bucket{
		Key:      key,
		Income:   make(map[string]float64),
		Duration: make(map[string]float64),
	}
}

// Add accumulates income and duration for project.
func (b *Bucket) Add(project string, income, duration float64) {
	b.Income[project] += income
	b.Duration[project] += duration
	b.TotalIncome += income
	b.TotalDuration += duration
}

// Ratio is TotalIncome/TotalDuration, or 0 when there is no duration.
func (b Bucket) Ratio() float64 {
	return SafeRatio(b.TotalIncome, b.TotalDuration)
}

// ProjectRatio is the income/duration ratio of a single project in the bucket.
func (b Bucket) ProjectRatio(project string) float64 {
	return SafeRatio(b.Income[project], b.Duration[project])
}

// Value returns the metric value of project in the bucket.
func (b Bucket) Value(m Metric, project string) float64 {
	switch m {
	case MetricDuration:
		return b.Duration[project]
	case MetricRatio:
		return b.ProjectRatio(project)
	default:
		return b.Income[project]
	}
}

// Total returns the bucket-wide value of the metric.
func (b Bucket) Total(m Metric) float64 {
	switch m {
	case MetricDuration:
		return b.TotalDuration
	case MetricRatio:
		return b.Ratio()
	default:
		return b.TotalIncome
	}
}

// SafeRatio divides n by d. A zero denominator, or any non-finite result,
// yields 0.
func SafeRatio(n, d float64) float64 {
	if d == 0 {
		return 0
	}
	r := n / d
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// ============================================================
// Metrics
// ============================================================

// Metric selects which value a chart plots.
type Metric string

const (
	MetricIncome   Metric = "income"
	MetricDuration Metric = "duration"
	MetricRatio    Metric = "ratio"
)

// Metrics lists the charted metrics in display order.
var Metrics = []Metric{MetricIncome, MetricDuration, MetricRatio}

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case MetricIncome, MetricDuration, MetricRatio:
		return m, nil
	}
	return "", &ErrValidation{Field: "metric", Message: "must be one of income, duration, ratio"}
}

// Title is the human readable chart title of the metric.
func (m Metric) Title() string {
	switch m {
	case MetricDuration:
		return "Duration (hours)"
	case MetricRatio:
		return "Rate (income / hour)"
	default:
		return "Income"
	}
}

// ============================================================
// Dates
// ============================================================

var dateLayouts = []string{
	DayLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

// ParseDate parses s with the supported date layouts and returns the
// calendar day in UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
