package aggregate

import (
	"sort"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
)

// Cumulative converts buckets into running totals over ascending keys.
// Income and duration are summed per project; the derived ratio of each
// output bucket is therefore running income over running duration, never a
// sum of per-bucket ratios. If projects is empty every project in buckets is
// accumulated.
func Cumulative(buckets []domain.Bucket, projects []string) []domain.Bucket {
	sorted := make([]domain.Bucket, len(buckets))
	copy(sorted, buckets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	if len(projects) == 0 {
		projects = ProjectsOf(sorted)
	}

	runIncome := make(map[string]float64, len(projects))
	runDuration := make(map[string]float64, len(projects))

	out := make([]domain.Bucket, 0, len(sorted))
	for _, b := range sorted {
		nb := domain.NewBucket(b.Key)
		for _, p := range projects {
			runIncome[p] += b.Income[p]
			runDuration[p] += b.Duration[p]
			nb.Add(p, runIncome[p], runDuration[p])
		}
		out = append(out, nb)
	}
	return out
}
