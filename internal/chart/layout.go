// Package chart computes stacked-bar geometry for bucketed series, resolves
// pointer positions to segments and rasterizes the result.
package chart

import (
	"image/color"
	"math"
)

// DefaultMaxLabels caps the number of x-axis labels when no limit is given.
const DefaultMaxLabels = 12

// barFill is the share of each slot covered by its bar.
const barFill = 0.8

// Rect is an axis-aligned rectangle in surface pixel coordinates.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Contains reports whether (x, y) lies inside r. The right and bottom edges
// are exclusive, so adjacent rectangles never both contain a point.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Segment is one project's contribution to a column.
// Value sets the segment height; Display is what a hover reports.
type Segment struct {
	Project string
	Value   float64
	Display float64
	Color   color.RGBA
}

// Column is one bucket's stack of segments, bottom-up.
type Column struct {
	Key      string
	Segments []Segment
}

// SegmentRect is a laid out segment.
type SegmentRect struct {
	Rect
	Project string
	Color   color.RGBA
}

// Bar is a laid out column.
type Bar struct {
	Key      string
	Total    float64
	Rect     Rect
	Segments []SegmentRect
}

// Region is a hit-test rectangle for one (bucket, project) segment.
type Region struct {
	Rect
	BucketKey string  `json:"bucket_key"`
	Project   string  `json:"project"`
	Value     float64 `json:"value"`
}

// AxisLabel is an x-axis label anchored at the centre of its bar.
type AxisLabel struct {
	Index int     `json:"index"`
	Key   string  `json:"key"`
	X     float64 `json:"x"`
}

// Layout is the computed geometry of one chart.
type Layout struct {
	Area    Rect
	Max     float64
	Bars    []Bar
	Regions []Region
	Labels  []AxisLabel
	Empty   bool
}

// Options tunes a layout.
type Options struct {
	MaxLabels int
}

// Compute lays out columns as stacked bars inside area. Bar heights are
// scaled against the largest column total; negative segment values are drawn
// with zero height. With no columns the layout is Empty and has no regions.
func Compute(columns []Column, area Rect, opts Options) *Layout {
	l := &Layout{
		Area:    area,
		Bars:    make([]Bar, 0, len(columns)),
		Regions: make([]Region, 0),
		Labels:  make([]AxisLabel, 0),
	}
	if len(columns) == 0 || area.W <= 0 || area.H <= 0 {
		l.Empty = true
		return l
	}

	totals := make([]float64, len(columns))
	for i, c := range columns {
		for _, s := range c.Segments {
			if s.Value > 0 {
				totals[i] += s.Value
			}
		}
		l.Max = math.Max(l.Max, totals[i])
	}

	scale := 0.0
	if l.Max > 0 {
		scale = area.H / l.Max
	}

	slot := area.W / float64(len(columns))
	barW := slot * barFill
	bottom := area.Y + area.H

	for i, c := range columns {
		x := area.X + float64(i)*slot + (slot-barW)/2
		height := totals[i] * scale
		bar := Bar{
			Key:      c.Key,
			Total:    totals[i],
			Rect:     Rect{X: x, Y: bottom - height, W: barW, H: height},
			Segments: make([]SegmentRect, 0, len(c.Segments)),
		}

		cursor := bottom
		for _, s := range c.Segments {
			if s.Value <= 0 {
				continue
			}
			h := s.Value * scale
			r := Rect{X: x, Y: cursor - h, W: barW, H: h}
			cursor -= h

			bar.Segments = append(bar.Segments, SegmentRect{Rect: r, Project: s.Project, Color: s.Color})
			l.Regions = append(l.Regions, Region{Rect: r, BucketKey: c.Key, Project: s.Project, Value: s.Display})
		}
		l.Bars = append(l.Bars, bar)
	}

	for _, idx := range LabelIndices(len(columns), opts.MaxLabels) {
		l.Labels = append(l.Labels, AxisLabel{
			Index: idx,
			Key:   columns[idx].Key,
			X:     area.X + (float64(idx)+0.5)*slot,
		})
	}
	return l
}

// Hit returns the first region containing (x, y).
func (l *Layout) Hit(x, y float64) (Region, bool) {
	for _, r := range l.Regions {
		if r.Contains(x, y) {
			return r, true
		}
	}
	return Region{}, false
}

// LabelIndices picks at most max evenly strided indices out of n, always
// including the last one.
func LabelIndices(n, max int) []int {
	if n <= 0 {
		return []int{}
	}
	if max <= 0 {
		max = DefaultMaxLabels
	}
	if max == 1 {
		return []int{n - 1}
	}
	if n <= max {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}

	stride := int(math.Ceil(float64(n-1) / float64(max-1)))
	out := make([]int, 0, max)
	for i := 0; i < n; i += stride {
		out = append(out, i)
	}
	if last := out[len(out)-1]; last != n-1 {
		// Drop a label that would crowd the final one.
		if n-1-last < stride/2 {
			out = out[:len(out)-1]
		}
		out = append(out, n-1)
	}
	return out
}
