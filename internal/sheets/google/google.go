package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"ops/internal/core"
	applog "ops/internal/log"
	ports "ops/internal/sheets"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var _ ports.ReportWriter = (*Client)(nil)

// Options configure the Sheets client. One of CredentialsJSON or
// CredentialsFile is required.
type Options struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
}

// Client writes the fiscal-year report into a Google spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		sheetsLogger().InfoContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(opts.CredentialsJSON)
	case strings.TrimSpace(opts.CredentialsFile) != "":
		var err error
		credentialsJSON, err = os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		sheetsLogger().InfoContext(ctx, "Read service account credentials", "path", opts.CredentialsFile)
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteFiscalYearRow overwrites the row whose ID matches, or appends one.
func (c *Client) WriteFiscalYearRow(ctx context.Context, row core.FiscalYearReportRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet := ports.SheetName(row.FiscalYear)
	if err := c.ensureSheet(ctx, sheet); err != nil {
		return "", err
	}

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, a1(sheet, "A:A")).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read ids: %w", err)
	}

	values := &gsheet.ValueRange{Values: [][]interface{}{toInterfaces(ports.ReportValues(row))}}
	if n := findRowByID(resp.Values, row.ID); n > 0 {
		rng := a1(sheet, fmt.Sprintf("A%d:%s%d", n, lastColumn(), n))
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, values).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("update row %d: %w", n, err)
		}
		sheetsLogger().InfoContext(ctx, "Updated report row", "sheet", sheet, "row", n, "id", row.ID)
		return rng, nil
	}

	out, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, a1(sheet, "A:"+lastColumn()), values).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append row: %w", err)
	}
	ref := ""
	if out.Updates != nil {
		ref = out.Updates.UpdatedRange
	}
	sheetsLogger().InfoContext(ctx, "Appended report row", "sheet", sheet, applog.FieldSheetsRef, ref, "id", row.ID)
	return ref, nil
}

// ReplaceFiscalYear clears the sheet and writes the header and rows.
func (c *Client) ReplaceFiscalYear(ctx context.Context, fiscalYear int, rows []core.FiscalYearReportRow) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheet := ports.SheetName(fiscalYear)
	if err := c.ensureSheet(ctx, sheet); err != nil {
		return err
	}

	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, a1(sheet, "A:"+lastColumn()), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, a1(sheet, "A1"), &gsheet.ValueRange{Values: reportMatrix(rows)}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheet: %w", err)
	}

	sheetsLogger().InfoContext(ctx, "Replaced fiscal year report", "sheet", sheet, "rows", len(rows))
	return nil
}

// ensureSheet creates the sheet with its header row when it is missing.
func (c *Client) ensureSheet(ctx context.Context, sheet string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == sheet {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: sheet}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", sheet, err)
	}

	header := &gsheet.ValueRange{Values: [][]interface{}{toInterfaces(ports.ReportHeader)}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, a1(sheet, "A1"), header).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	sheetsLogger().InfoContext(ctx, "Created report sheet", "sheet", sheet)
	return nil
}

// a1 builds an A1 range; sheet names with spaces must be quoted.
func a1(sheet, cells string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
}

func lastColumn() string {
	return columnLetter(len(ports.ReportHeader))
}

// columnLetter converts a 1-based column index to its letter name.
func columnLetter(n int) string {
	var s string
	for n > 0 {
		n--
		s = string(rune('A'+n%26)) + s
		n /= 26
	}
	return s
}

// findRowByID returns the 1-based sheet row whose first cell is id, or 0.
// The header row never matches.
func findRowByID(values [][]interface{}, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i := 1; i < len(values); i++ {
		if len(values[i]) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(values[i][0])) == want {
			return i + 1
		}
	}
	return 0
}

func reportMatrix(rows []core.FiscalYearReportRow) [][]interface{} {
	out := make([][]interface{}, 0, len(rows)+1)
	out = append(out, toInterfaces(ports.ReportHeader))
	for _, r := range rows {
		out = append(out, toInterfaces(ports.ReportValues(r)))
	}
	return out
}

// toInterfaces converts a row to cells for USER_ENTERED writes.
func toInterfaces(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = cellValue(v)
	}
	return out
}

// cellValue keeps free text from being parsed as a formula. Amounts such as
// "-50.00" still go through as numbers.
func cellValue(v string) string {
	if v == "" || !strings.ContainsRune("=+-@", rune(v[0])) {
		return v
	}
	if _, err := decimal.NewFromString(v); err == nil {
		return v
	}
	return "'" + v
}

func sheetsLogger() *slog.Logger {
	return slog.Default().With(applog.FieldComponent, applog.ComponentSheets)
}
