package storage

import (
	"context"

	"ops/internal/core"
)

// FiscalYearReportRow assembles the report line of one CAN fiscal year.
func (r *SQLiteRepository) FiscalYearReportRow(ctx context.Context, id int64) (core.FiscalYearReportRow, error) {
	f, err := r.GetCANFiscalYear(ctx, id)
	if err != nil {
		return core.FiscalYearReportRow{}, err
	}
	return r.reportRow(ctx, f)
}

// FiscalYearReport returns the report lines of every CAN snapshot in fy,
// ordered by snapshot id.
func (r *SQLiteRepository) FiscalYearReport(ctx context.Context, fy int) ([]core.FiscalYearReportRow, error) {
	years, err := r.ListCANFiscalYearsForYear(ctx, fy)
	if err != nil {
		return nil, err
	}
	rows := make([]core.FiscalYearReportRow, 0, len(years))
	for _, f := range years {
		row, err := r.reportRow(ctx, f)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *SQLiteRepository) reportRow(ctx context.Context, f core.CANFiscalYear) (core.FiscalYearReportRow, error) {
	can, err := r.GetCAN(ctx, f.CANID)
	if err != nil {
		return core.FiscalYearReportRow{}, err
	}
	sources, err := r.FundingPartnersByIDs(ctx, can.FundingSourceIDs)
	if err != nil {
		return core.FiscalYearReportRow{}, err
	}
	authorizer, err := r.GetFundingPartner(ctx, can.AuthorizerID)
	if err != nil {
		return core.FiscalYearReportRow{}, err
	}
	leads, err := r.PeopleByIDs(ctx, f.CANLeadIDs)
	if err != nil {
		return core.FiscalYearReportRow{}, err
	}
	return core.NewFiscalYearReportRow(f, can, sources, authorizer, leads), nil
}
