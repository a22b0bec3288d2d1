package chart

import (
	"fmt"
	"image/color"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
)

// MoreLabel names the folded segment of n projects.
func MoreLabel(n int) string {
	return fmt.Sprintf("+%d more", n)
}

// Columns turns buckets into chart columns for metric m. Projects in top get
// their own segment, in order; the projects in rest are folded into a single
// trailing segment so bar totals still cover every project.
//
// Income and duration segments are the project values. Ratio segments are
// sized by each project's share of the bucket rate (project income over the
// bucket's total duration), so a bar's height is the bucket ratio, while the
// hover value is the project's own income/duration ratio.
func Columns(buckets []domain.Bucket, m domain.Metric, top, rest []string) []Column {
	columns := make([]Column, 0, len(buckets))
	for _, b := range buckets {
		col := Column{Key: b.Key, Segments: make([]Segment, 0, len(top)+1)}
		for _, p := range top {
			col.Segments = append(col.Segments, segmentOf(b, m, p, b.Income[p], b.Duration[p], ColorFor(p)))
		}
		if len(rest) > 0 {
			var income, duration float64
			for _, p := range rest {
				income += b.Income[p]
				duration += b.Duration[p]
			}
			col.Segments = append(col.Segments, segmentOf(b, m, MoreLabel(len(rest)), income, duration, OtherColor))
		}
		columns = append(columns, col)
	}
	return columns
}

func segmentOf(b domain.Bucket, m domain.Metric, project string, income, duration float64, c color.RGBA) Segment {
	s := Segment{Project: project, Color: c}
	switch m {
	case domain.MetricDuration:
		s.Value, s.Display = duration, duration
	case domain.MetricRatio:
		s.Value = domain.SafeRatio(income, b.TotalDuration)
		s.Display = domain.SafeRatio(income, duration)
	default:
		s.Value, s.Display = income, income
	}
	return s
}
