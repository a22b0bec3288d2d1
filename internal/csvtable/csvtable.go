// Package csvtable parses flat CSV text into header-keyed rows.
//
// Parsing is tolerant: malformed rows never fail the table. Short rows are
// padded with empty strings, bare carriage returns are dropped and blank
// lines are skipped.
package csvtable

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
)

// Parse reads text into a table keyed by the first non-blank line's trimmed
// header fields. Cell values are trimmed of surrounding whitespace.
func Parse(text string) *domain.Table {
	table := &domain.Table{Header: []string{}, Rows: []domain.RawRow{}}

	src := strings.ReplaceAll(text, "\r", "")
	reader := csv.NewReader(strings.NewReader(src))
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var offset int64
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		end := reader.InputOffset()
		raw := src[offset:end]
		offset = end
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			break
		}
		if isBlank(raw) {
			continue
		}

		if len(table.Header) == 0 {
			table.Header = make([]string, len(record))
			for i, h := range record {
				table.Header[i] = strings.TrimSpace(h)
			}
			continue
		}

		row := make(domain.RawRow, len(table.Header))
		for i, h := range table.Header {
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			} else {
				row[h] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table
}

// Format serializes a table back to CSV text in header order, quoting fields
// where needed. Parse(Format(t)) reproduces t.
func Format(t *domain.Table) string {
	if t == nil || len(t.Header) == 0 {
		return ""
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(t.Header)

	record := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for i, h := range t.Header {
			record[i] = row[h]
		}
		// A lone empty field would otherwise be written as a blank line.
		if len(record) == 1 && record[0] == "" {
			w.Flush()
			buf.WriteString("\"\"\n")
			continue
		}
		_ = w.Write(record)
	}
	w.Flush()
	return buf.String()
}

// isBlank reports whether the raw text of a record is a whitespace-only line.
// A quoted empty field ("") is not blank.
func isBlank(raw string) bool {
	return strings.TrimSpace(raw) == ""
}
