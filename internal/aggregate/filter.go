package aggregate

import (
	"time"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
)

// Filter restricts raw dates to the range selected in state.
//
// dates must be the full, unfiltered set: the trailing window is anchored on
// its latest date so the anchor stays put while the range changes. Dates that
// cannot be parsed only survive the "all" range. Custom bounds are swapped
// when reversed; if either bound is unparseable the input is returned as is.
func Filter(dates []string, state domain.ChartState) []string {
	switch state.Range {
	case domain.RangeLastN:
		return lastN(dates, state.Days)
	case domain.RangeCustom:
		return between(dates, state.CustomFrom, state.CustomTo)
	default:
		return dates
	}
}

func lastN(dates []string, n int) []string {
	if n <= 0 {
		return dates
	}

	var (
		maxDate time.Time
		found   bool
	)
	for _, d := range dates {
		if t, ok := domain.ParseDate(d); ok && (!found || t.After(maxDate)) {
			maxDate, found = t, true
		}
	}
	if !found {
		return []string{}
	}

	start := maxDate.AddDate(0, 0, -(n - 1))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if t, ok := domain.ParseDate(d); ok && !t.Before(start) {
			out = append(out, d)
		}
	}
	return out
}

func between(dates []string, from, to string) []string {
	lo, okFrom := domain.ParseDate(from)
	hi, okTo := domain.ParseDate(to)
	if !okFrom || !okTo {
		return dates
	}
	if hi.Before(lo) {
		lo, hi = hi, lo
	}

	out := make([]string, 0, len(dates))
	for _, d := range dates {
		t, ok := domain.ParseDate(d)
		if ok && !t.Before(lo) && !t.After(hi) {
			out = append(out, d)
		}
	}
	return out
}
