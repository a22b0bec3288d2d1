package domain

import (
	"fmt"
	"strings"
)

// ============================================================
// Chart state (controls)
// ============================================================

// Granularity is the calendar unit raw dates are merged into.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// ParseGranularity validates a granularity name.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case GranularityDay, GranularityWeek, GranularityMonth, GranularityYear:
		return g, nil
	}
	return "", &ErrValidation{Field: "granularity", Message: "must be one of day, week, month, year"}
}

// RangeKind selects how the date domain is restricted.
type RangeKind string

const (
	RangeLastN  RangeKind = "lastN"
	RangeCustom RangeKind = "custom"
	RangeAll    RangeKind = "all"
)

// ChartState is the set of control values the derived series are a pure
// function of.
type ChartState struct {
	Range       RangeKind   `json:"range"`
	Days        int         `json:"days,omitempty"`
	CustomFrom  string      `json:"custom_from,omitempty"`
	CustomTo    string      `json:"custom_to,omitempty"`
	Granularity Granularity `json:"granularity"`
	Cumulative  bool        `json:"cumulative"`
}

// DefaultChartState is the state a dashboard starts with after the first
// successful load.
func DefaultChartState(days int) ChartState {
	if days <= 0 {
		days = 30
	}
	return ChartState{
		Range:       RangeLastN,
		Days:        days,
		Granularity: GranularityDay,
	}
}

// Describe renders the state as a single metadata line.
func (s ChartState) Describe() string {
	var rng string
	switch s.Range {
	case RangeLastN:
		rng = fmt.Sprintf("last %d days", s.Days)
	case RangeCustom:
		rng = fmt.Sprintf("%s to %s", s.CustomFrom, s.CustomTo)
	default:
		rng = "all dates"
	}
	mode := "off"
	if s.Cumulative {
		mode = "on"
	}
	return fmt.Sprintf("Range: %s | Granularity: %s | Cumulative: %s", rng, s.Granularity, mode)
}

// StatePatch carries a partial control update. Nil fields are left as is.
type StatePatch struct {
	Range       *string `json:"range,omitempty"` // last14, last30, last90, all, custom, lastN
	Days        *int    `json:"days,omitempty"`
	CustomFrom  *string `json:"custom_from,omitempty"`
	CustomTo    *string `json:"custom_to,omitempty"`
	Granularity *string `json:"granularity,omitempty"`
	Cumulative  *bool   `json:"cumulative,omitempty"`
}

// Apply returns s with the patch applied. Enum values are validated; custom
// bounds are stored verbatim because the range filter tolerates invalid ones.
func (p StatePatch) Apply(s ChartState) (ChartState, error) {
	if p.Range != nil {
		switch r := strings.TrimSpace(*p.Range); r {
		case "last14":
			s.Range, s.Days = RangeLastN, 14
		case "last30":
			s.Range, s.Days = RangeLastN, 30
		case "last90":
			s.Range, s.Days = RangeLastN, 90
		case string(RangeLastN):
			s.Range = RangeLastN
		case string(RangeAll):
			s.Range = RangeAll
		case string(RangeCustom):
			s.Range = RangeCustom
		default:
			return s, &ErrValidation{Field: "range", Message: "must be one of last14, last30, last90, lastN, all, custom"}
		}
	}
	if p.Days != nil {
		if *p.Days <= 0 {
			return s, &ErrValidation{Field: "days", Message: "must be positive"}
		}
		s.Days = *p.Days
	}
	if p.CustomFrom != nil {
		s.CustomFrom = strings.TrimSpace(*p.CustomFrom)
	}
	if p.CustomTo != nil {
		s.CustomTo = strings.TrimSpace(*p.CustomTo)
	}
	if p.Granularity != nil {
		g, err := ParseGranularity(*p.Granularity)
		if err != nil {
			return s, err
		}
		s.Granularity = g
	}
	if p.Cumulative != nil {
		s.Cumulative = *p.Cumulative
	}
	if s.Range == RangeLastN && s.Days <= 0 {
		s.Days = 30
	}
	return s, nil
}
