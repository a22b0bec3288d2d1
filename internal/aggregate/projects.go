package aggregate

import (
	"sort"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
)

// ProjectsOf returns the distinct projects present in buckets, sorted by name.
func ProjectsOf(buckets []domain.Bucket) []string {
	seen := make(map[string]struct{})
	for _, b := range buckets {
		for p := range b.Income {
			seen[p] = struct{}{}
		}
		for p := range b.Duration {
			seen[p] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// TopProjects ranks the projects of buckets by total income (ties by name)
// and splits them into the first n and the rest. n <= 0 keeps everything.
func TopProjects(buckets []domain.Bucket, n int) (top, rest []string) {
	totals := make(map[string]float64)
	for _, p := range ProjectsOf(buckets) {
		totals[p] = 0
	}
	for _, b := range buckets {
		for p, v := range b.Income {
			totals[p] += v
		}
	}

	ranked := make([]string, 0, len(totals))
	for p := range totals {
		ranked = append(ranked, p)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if totals[ranked[i]] != totals[ranked[j]] {
			return totals[ranked[i]] > totals[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	if n <= 0 || n >= len(ranked) {
		return ranked, []string{}
	}
	return ranked[:n], ranked[n:]
}
