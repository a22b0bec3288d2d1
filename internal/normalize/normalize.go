// Package normalize maps heterogeneous CSV rows onto the canonical record
// schema {date, project, income, duration}.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
)

// Column aliases, checked in order. The first non-empty value wins.
var (
	projectAliases = []string{
		"project", "Project", "PROJECT",
		"project_name", "Project Name",
		"client", "Client",
	}
	dateAliases = []string{
		"date", "Date", "DATE",
		"day", "Day",
		"spent_date", "start_date", "Start Date",
	}
	durationAliases = []string{
		"duration_hours", "Duration Hours",
		"hours", "Hours",
		"duration", "Duration",
	}

	// secondaryIncomeColumns are currency-specific columns that take precedence
	// dataset-wide when any row fills them.
	secondaryIncomeColumns = []string{"amount_gbp", "Amount GBP", "amount_GBP"}
	primaryIncomeColumns   = []string{"amount", "Amount", "income", "Income", "total", "Total"}
)

// IncomeAccessor is the income column chosen once for a whole dataset.
type IncomeAccessor struct {
	Column    string `json:"column"`
	Secondary bool   `json:"secondary"`
}

// Income reads the chosen column from row. A row with an empty value in the
// chosen column yields 0; there is no per-row fallback.
func (a IncomeAccessor) Income(row domain.RawRow) float64 {
	if a.Column == "" {
		return 0
	}
	return ParseNumber(row[a.Column])
}

// ResolveIncomeAccessor picks the income column for rows: the first secondary
// currency column that is non-empty in any row, otherwise the first primary
// amount column present in the data.
func ResolveIncomeAccessor(rows []domain.RawRow) IncomeAccessor {
	for _, col := range secondaryIncomeColumns {
		for _, row := range rows {
			if strings.TrimSpace(row[col]) != "" {
				return IncomeAccessor{Column: col, Secondary: true}
			}
		}
	}
	for _, col := range primaryIncomeColumns {
		for _, row := range rows {
			if _, ok := row[col]; ok {
				return IncomeAccessor{Column: col}
			}
		}
	}
	return IncomeAccessor{}
}

// Records normalizes every row of table. It never fails: unknown projects get
// the sentinel name, unparseable dates keep their raw text and non-numeric
// amounts become 0.
func Records(table *domain.Table) ([]domain.Record, IncomeAccessor) {
	if table == nil {
		return []domain.Record{}, IncomeAccessor{}
	}

	accessor := ResolveIncomeAccessor(table.Rows)
	records := make([]domain.Record, 0, len(table.Rows))
	for _, row := range table.Rows {
		records = append(records, Record(row, accessor))
	}
	return records, accessor
}

// Record normalizes a single row with an already resolved income accessor.
func Record(row domain.RawRow, accessor IncomeAccessor) domain.Record {
	project := firstNonEmpty(row, projectAliases)
	if project == "" {
		project = domain.UnknownProject
	}

	rawDate := firstNonEmpty(row, dateAliases)
	date := rawDate
	if t, ok := domain.ParseDate(rawDate); ok {
		date = t.Format(domain.DayLayout)
	}

	return domain.Record{
		Date:     date,
		Project:  project,
		Income:   accessor.Income(row),
		Duration: ParseNumber(firstNonEmpty(row, durationAliases)),
	}
}

// ParseNumber parses the trimmed string as a float. Empty, invalid or
// non-finite input yields 0.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func firstNonEmpty(row domain.RawRow, aliases []string) string {
	for _, alias := range aliases {
		if v := strings.TrimSpace(row[alias]); v != "" {
			return v
		}
	}
	return ""
}
