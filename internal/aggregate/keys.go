package aggregate

import (
	"fmt"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
)

// BucketKey derives the bucket key of a raw date for granularity g.
// Keys of one granularity sort lexicographically in chronological order.
// Dates that cannot be parsed are their own key.
func BucketKey(date string, g domain.Granularity) string {
	t, ok := domain.ParseDate(date)
	if !ok {
		return date
	}

	switch g {
	case domain.GranularityWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case domain.GranularityMonth:
		return t.Format("2006-01")
	case domain.GranularityYear:
		return t.Format("2006")
	default:
		return t.Format(domain.DayLayout)
	}
}
