package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ops/internal/core"
	"ops/internal/sheets"
)

var _ sheets.ReportWriter = (*Store)(nil)

// Store keeps report sheets in memory. It stands in for Google Sheets when
// no spreadsheet is configured.
type Store struct {
	mu     sync.Mutex
	sheets map[int][]core.FiscalYearReportRow
}

func New() *Store {
	return &Store{sheets: map[int][]core.FiscalYearReportRow{}}
}

// WriteFiscalYearRow upserts by ID. Rows stay ordered by ID.
func (s *Store) WriteFiscalYearRow(_ context.Context, row core.FiscalYearReportRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.sheets[row.FiscalYear]
	i := sort.Search(len(rows), func(i int) bool { return rows[i].ID >= row.ID })
	if i < len(rows) && rows[i].ID == row.ID {
		rows[i] = row
	} else {
		rows = append(rows, core.FiscalYearReportRow{})
		copy(rows[i+1:], rows[i:])
		rows[i] = row
	}
	s.sheets[row.FiscalYear] = rows
	return fmt.Sprintf("mem:%s:%d", sheets.SheetName(row.FiscalYear), i+1), nil
}

func (s *Store) ReplaceFiscalYear(_ context.Context, fiscalYear int, rows []core.FiscalYearReportRow) error {
	cp := append([]core.FiscalYearReportRow(nil), rows...)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].ID < cp[j].ID })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[fiscalYear] = cp
	return nil
}

// Rows returns a copy of the sheet of fiscalYear.
func (s *Store) Rows(fiscalYear int) []core.FiscalYearReportRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.FiscalYearReportRow(nil), s.sheets[fiscalYear]...)
}
