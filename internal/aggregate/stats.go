package aggregate

import (
	"sort"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
)

// Summarize computes the statistics summary of a dataset. rows is the number
// of CSV rows the records were normalized from.
func Summarize(rows int, records []domain.Record, incomeColumn string, topN int) *domain.Stats {
	stats := &domain.Stats{
		Rows:         rows,
		Records:      len(records),
		IncomeColumn: incomeColumn,
		TopIncome:    []domain.ProjectStat{},
		TopDuration:  []domain.ProjectStat{},
		TopRatio:     []domain.ProjectStat{},
	}

	perProject := make(map[string]*domain.ProjectStat)
	for _, r := range records {
		stats.TotalIncome += r.Income
		stats.TotalDuration += r.Duration

		ps, ok := perProject[r.Project]
		if !ok {
			ps = &domain.ProjectStat{Project: r.Project}
			perProject[r.Project] = ps
		}
		ps.Income += r.Income
		ps.Duration += r.Duration

		if _, ok := domain.ParseDate(r.Date); ok {
			if stats.FirstDate == "" || r.Date < stats.FirstDate {
				stats.FirstDate = r.Date
			}
			if r.Date > stats.LastDate {
				stats.LastDate = r.Date
			}
		}
	}
	stats.Ratio = domain.SafeRatio(stats.TotalIncome, stats.TotalDuration)
	stats.Projects = len(perProject)

	all := make([]domain.ProjectStat, 0, len(perProject))
	for _, ps := range perProject {
		ps.Ratio = domain.SafeRatio(ps.Income, ps.Duration)
		all = append(all, *ps)
	}

	stats.TopIncome = topBy(all, topN, func(p domain.ProjectStat) float64 { return p.Income })
	stats.TopDuration = topBy(all, topN, func(p domain.ProjectStat) float64 { return p.Duration })
	stats.TopRatio = topBy(all, topN, func(p domain.ProjectStat) float64 { return p.Ratio })
	return stats
}

func topBy(all []domain.ProjectStat, n int, value func(domain.ProjectStat) float64) []domain.ProjectStat {
	ranked := make([]domain.ProjectStat, len(all))
	copy(ranked, all)
	sort.Slice(ranked, func(i, j int) bool {
		vi, vj := value(ranked[i]), value(ranked[j])
		if vi != vj {
			return vi > vj
		}
		return ranked[i].Project < ranked[j].Project
	})
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
