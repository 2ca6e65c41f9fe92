package sheets

import (
	"context"
	"fmt"
	"strconv"

	"ops/internal/core"
)

// ReportWriter publishes the CAN fiscal-year report, one sheet per fiscal year.
type ReportWriter interface {
	// WriteFiscalYearRow inserts the row, or overwrites the row with the same ID.
	WriteFiscalYearRow(ctx context.Context, row core.FiscalYearReportRow) (rowRef string, err error)
	// ReplaceFiscalYear rewrites the whole sheet of fiscalYear.
	ReplaceFiscalYear(ctx context.Context, fiscalYear int, rows []core.FiscalYearReportRow) error
}

// ReportHeader is the first row of every report sheet.
var ReportHeader = []string{
	"ID",
	"CAN",
	"Description",
	"Purpose",
	"Total Fiscal Year Funding",
	"Amount Available",
	"Additional Amount Anticipated",
	"Potential Additional Funding",
	"Arrangement Type",
	"Sources",
	"Authorizer",
	"CAN Leads",
	"Divisions",
	"Notes",
}

// SheetName is the sheet holding the report of fiscalYear.
func SheetName(fiscalYear int) string {
	return fmt.Sprintf("FY%d CANs", fiscalYear)
}

// ReportValues renders a row in ReportHeader order.
func ReportValues(row core.FiscalYearReportRow) []string {
	return []string{
		strconv.FormatInt(row.ID, 10),
		row.CANName,
		row.Description,
		row.Purpose,
		row.TotalFiscalYearFunding.String(),
		row.AmountAvailable.String(),
		row.AdditionalAmountAnticipated.String(),
		row.PotentialAdditionalFunding.String(),
		string(row.ArrangementType),
		row.Sources,
		row.Authorizer,
		row.Leads,
		row.Divisions,
		row.Notes,
	}
}
