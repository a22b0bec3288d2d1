// Package aggregate groups normalized records into calendar buckets and
// derives the filtered, optionally cumulative, series the charts plot.
package aggregate

import (
	"sort"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
)

// RawSeries is the per-exact-date accumulation of a dataset. Regrouping by
// granularity folds these buckets instead of rescanning the records.
type RawSeries struct {
	dates    []string
	byDate   map[string]*domain.Bucket
	projects []string
}

// Accumulate sums records per raw date and project.
func Accumulate(records []domain.Record) *RawSeries {
	rs := &RawSeries{byDate: make(map[string]*domain.Bucket)}
	seen := make(map[string]struct{})

	for _, r := range records {
		b, ok := rs.byDate[r.Date]
		if !ok {
			nb := domain.NewBucket(r.Date)
			b = &nb
			rs.byDate[r.Date] = b
			rs.dates = append(rs.dates, r.Date)
		}
		b.Add(r.Project, r.Income, r.Duration)

		if _, ok := seen[r.Project]; !ok {
			seen[r.Project] = struct{}{}
			rs.projects = append(rs.projects, r.Project)
		}
	}

	sort.Strings(rs.dates)
	sort.Strings(rs.projects)
	return rs
}

// Dates returns the raw dates in ascending order.
func (rs *RawSeries) Dates() []string {
	out := make([]string, len(rs.dates))
	copy(out, rs.dates)
	return out
}

// Projects returns every project observed, sorted by name.
func (rs *RawSeries) Projects() []string {
	out := make([]string, len(rs.projects))
	copy(out, rs.projects)
	return out
}

// Len is the number of distinct raw dates.
func (rs *RawSeries) Len() int {
	return len(rs.dates)
}

// Regroup folds the given raw dates into buckets of granularity g, sorted by
// key. Dates unknown to the series are ignored.
func (rs *RawSeries) Regroup(dates []string, g domain.Granularity) []domain.Bucket {
	grouped := make(map[string]*domain.Bucket)
	keys := make([]string, 0)

	for _, d := range dates {
		raw, ok := rs.byDate[d]
		if !ok {
			continue
		}
		key := BucketKey(d, g)
		b, ok := grouped[key]
		if !ok {
			nb := domain.NewBucket(key)
			b = &nb
			grouped[key] = b
			keys = append(keys, key)
		}
		for p, v := range raw.Income {
			b.Add(p, v, raw.Duration[p])
		}
	}

	sort.Strings(keys)
	out := make([]domain.Bucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, *grouped[k])
	}
	return out
}

// Aggregate groups records by granularity g. The result is sorted ascending by
// bucket key and is empty, never nil, for no records.
func Aggregate(records []domain.Record, g domain.Granularity) []domain.Bucket {
	rs := Accumulate(records)
	return rs.Regroup(rs.dates, g)
}
