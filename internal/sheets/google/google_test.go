package google

import (
	"context"
	"strings"
	"testing"

	"ops/internal/core"
	ports "ops/internal/sheets"
)

func TestA1(t *testing.T) {
	tests := []struct {
		sheet, cells, want string
	}{
		{"FY2021 CANs", "A:A", "'FY2021 CANs'!A:A"},
		{"Bob's", "A1", "'Bob''s'!A1"},
	}
	for _, tt := range tests {
		if got := a1(tt.sheet, tt.cells); got != tt.want {
			t.Errorf("a1(%q, %q) = %q, want %q", tt.sheet, tt.cells, got, tt.want)
		}
	}
}

func TestCellValue(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"carry over", "carry over"},
		{"=HYPERLINK(\"http://x\")", "'=HYPERLINK(\"http://x\")"},
		{"+1+2", "'+1+2"},
		{"@SUM(A1)", "'@SUM(A1)"},
		{"-cmd", "'-cmd"},
		{"-50.00", "-50.00"},
		{"150.00", "150.00"},
	}
	for _, tt := range tests {
		if got := cellValue(tt.in); got != tt.want {
			t.Errorf("cellValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReportMatrix_EscapesFormulaNotes(t *testing.T) {
	m := reportMatrix([]core.FiscalYearReportRow{{ID: 7, FiscalYear: 2021, Notes: "=1+1"}})
	last := m[1][len(m[1])-1]
	if last != "'=1+1" {
		t.Errorf("notes cell = %v, want escaped", last)
	}
}

func TestColumnLetter(t *testing.T) {
	tests := map[int]string{1: "A", 14: "N", 26: "Z", 27: "AA", 52: "AZ", 53: "BA"}
	for n, want := range tests {
		if got := columnLetter(n); got != want {
			t.Errorf("columnLetter(%d) = %q, want %q", n, got, want)
		}
	}
	if lastColumn() != "N" {
		t.Errorf("lastColumn() = %q, want N for %d columns", lastColumn(), len(ports.ReportHeader))
	}
}

func TestFindRowByID(t *testing.T) {
	values := [][]interface{}{
		{"ID"},
		{"4"},
		{},
		{" 12 "},
		{float64(7)},
	}
	tests := []struct {
		id   int64
		want int
	}{
		{4, 2},
		{12, 4},
		{7, 5},
		{99, 0},
	}
	for _, tt := range tests {
		if got := findRowByID(values, tt.id); got != tt.want {
			t.Errorf("findRowByID(%d) = %d, want %d", tt.id, got, tt.want)
		}
	}
	if got := findRowByID([][]interface{}{{"1"}}, 1); got != 0 {
		t.Errorf("header row matched: %d", got)
	}
}

func TestReportMatrix(t *testing.T) {
	rows := []core.FiscalYearReportRow{{ID: 1, CANName: "G1 (A) - 2021"}, {ID: 2, CANName: "G2 (B) - 2021"}}

	m := reportMatrix(rows)
	if len(m) != 3 {
		t.Fatalf("got %d rows, want header plus 2", len(m))
	}
	if m[0][0] != "ID" || m[2][1] != "G2 (B) - 2021" {
		t.Errorf("unexpected matrix: %v", m)
	}
}

func TestNew_RequiresSpreadsheetAndCredentials(t *testing.T) {
	if _, err := New(context.Background(), Options{}); err == nil || !strings.Contains(err.Error(), "spreadsheet") {
		t.Errorf("New without id error = %v", err)
	}
	if _, err := New(context.Background(), Options{SpreadsheetID: "abc"}); err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Errorf("New without credentials error = %v", err)
	}
}

func TestClientWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "abc"}
	if _, err := c.WriteFiscalYearRow(context.Background(), core.FiscalYearReportRow{ID: 1, FiscalYear: 2021}); err == nil {
		t.Error("expected error when service is not initialized")
	}
	if err := c.ReplaceFiscalYear(context.Background(), 2021, nil); err == nil {
		t.Error("expected error when service is not initialized")
	}
}
