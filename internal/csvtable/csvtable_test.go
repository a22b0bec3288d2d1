package csvtable_test

import (
	"reflect"
	"testing"

	"github.com/boddenberg/timesheet-charts-go/internal/csvtable"
	"github.com/boddenberg/timesheet-charts-go/internal/domain"
)

func TestParse_Basic(t *testing.T) {
	table := csvtable.Parse("date, project ,amount\n2024-01-01,A,100\n2024-01-02,B,50\n")

	wantHeader := []string{"date", "project", "amount"}
	if !reflect.DeepEqual(table.Header, wantHeader) {
		t.Fatalf("header = %v, want %v", table.Header, wantHeader)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	if table.Rows[1]["project"] != "B" || table.Rows[1]["amount"] != "50" {
		t.Errorf("unexpected second row: %v", table.Rows[1])
	}
}

func TestParse_QuotedFields(t *testing.T) {
	text := "name,notes\n\"Smith, J\",\"said \"\"hi\"\"\nthen left\"\n"
	table := csvtable.Parse(text)

	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table.Rows))
	}
	row := table.Rows[0]
	if row["name"] != "Smith, J" {
		t.Errorf("name = %q", row["name"])
	}
	if row["notes"] != "said \"hi\"\nthen left" {
		t.Errorf("notes = %q", row["notes"])
	}
}

func TestParse_CarriageReturnsAndBlankLines(t *testing.T) {
	table := csvtable.Parse("a,b\r\n\r\n1,2\r\n   \n3,4\r")

	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(table.Rows), table.Rows)
	}
	if table.Rows[0]["b"] != "2" || table.Rows[1]["b"] != "4" {
		t.Errorf("carriage returns leaked into values: %v", table.Rows)
	}
}

func TestParse_ShortRowsArePadded(t *testing.T) {
	table := csvtable.Parse("a,b,c\n1\n1,2,3,4\n")

	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	short := table.Rows[0]
	if v, ok := short["c"]; !ok || v != "" {
		t.Errorf("expected padded empty value for c, got %q (present=%v)", v, ok)
	}
	if len(table.Rows[1]) != 3 {
		t.Errorf("extra fields should be ignored, got %v", table.Rows[1])
	}
}

func TestParse_Empty(t *testing.T) {
	for _, input := range []string{"", "\n\n", "  \r\n  "} {
		table := csvtable.Parse(input)
		if len(table.Header) != 0 || len(table.Rows) != 0 {
			t.Errorf("Parse(%q) = %+v, want empty table", input, table)
		}
		if table.Header == nil {
			t.Errorf("Parse(%q) header should be empty, not nil", input)
		}
	}
}

func TestParse_UnterminatedQuoteDoesNotFail(t *testing.T) {
	table := csvtable.Parse("a,b\n1,\"open\n")
	if len(table.Header) != 2 {
		t.Fatalf("unexpected header %v", table.Header)
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	inputs := []string{
		"date,project,amount\n2024-01-01,A,100\n",
		"name,notes\n\"Smith, J\",\"line1\nline2\"\n\"q\"\"uote\",x\n",
		"a,b,c\n 1 , 2 ,3\n4,,6\n",
	}

	for _, in := range inputs {
		first := csvtable.Parse(in)
		second := csvtable.Parse(csvtable.Format(first))

		if !reflect.DeepEqual(first.Header, second.Header) {
			t.Errorf("header changed: %v -> %v", first.Header, second.Header)
		}
		if !reflect.DeepEqual(first.Rows, second.Rows) {
			t.Errorf("rows changed: %v -> %v", first.Rows, second.Rows)
		}
	}
}

func TestFormat_EmptyTable(t *testing.T) {
	if got := csvtable.Format(&domain.Table{}); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestFormat_SingleColumnEmptyCell(t *testing.T) {
	table := &domain.Table{
		Header: []string{"note"},
		Rows:   []domain.RawRow{{"note": "a"}, {"note": ""}, {"note": "b"}},
	}

	out := csvtable.Format(table)
	if out != "note\na\n\"\"\nb\n" {
		t.Errorf("unexpected output %q", out)
	}

	back := csvtable.Parse(out)
	if !reflect.DeepEqual(back.Rows, table.Rows) {
		t.Errorf("rows changed: %v -> %v", table.Rows, back.Rows)
	}
}

func TestParse_QuotedEmptyLineIsARow(t *testing.T) {
	table := csvtable.Parse("note\n\"\"\n\n   \nx\n")

	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(table.Rows), table.Rows)
	}
	if table.Rows[0]["note"] != "" || table.Rows[1]["note"] != "x" {
		t.Errorf("unexpected rows %v", table.Rows)
	}
}
