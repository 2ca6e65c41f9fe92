package core

import (
	"strconv"
	"strings"
)

// FullName is "<first> <last>".
func (p Person) FullName() string {
	return p.FirstName + " " + p.LastName
}

func (p Person) String() string {
	return p.FullName()
}

// RoleNames joins the names of the given roles for list views.
func RoleNames(roles []Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.Name
	}
	return strings.Join(names, ", ")
}

// DisplayName is the CAN list label. The trailing space is part of the format.
func (c CAN) DisplayName() string {
	return c.Number + " (" + c.Nickname + ") "
}

// DisplayName labels a fiscal-year snapshot with its owning CAN.
func (f CANFiscalYear) DisplayName(can CAN) string {
	return can.Number + " (" + can.Nickname + ") - " + strconv.Itoa(f.FiscalYear)
}

// ResearchAreas returns the nicknames of a contract's CANs in the given order.
func ResearchAreas(cans []CAN) []string {
	areas := make([]string, 0, len(cans))
	for _, c := range cans {
		areas = append(areas, c.Nickname)
	}
	return areas
}

// Contribution sums the funding of the rows that belong to canID.
func Contribution(rows []ContractLineItemFiscalYearCAN, canID int64) Money {
	var amounts []Money
	for _, r := range rows {
		if r.CANID == canID {
			amounts = append(amounts, r.Funding)
		}
	}
	return SumMoney(amounts...)
}

// ForCAN picks the funding row a CAN contributes to one line-item year.
func (f ContractLineItemFiscalYear) ForCAN(rows []ContractLineItemFiscalYearCAN, canID int64) (ContractLineItemFiscalYearCAN, bool) {
	for _, r := range rows {
		if r.FiscalYearID == f.ID && r.CANID == canID {
			return r, true
		}
	}
	return ContractLineItemFiscalYearCAN{}, false
}

// FiscalYearReportRow is one line of the CAN fiscal-year working report.
type FiscalYearReportRow struct {
	ID                          int64           `json:"id"`
	FiscalYear                  int             `json:"fiscal_year"`
	CANName                     string          `json:"can"`
	Description                 string          `json:"description"`
	Purpose                     string          `json:"purpose"`
	TotalFiscalYearFunding      Money           `json:"total_fiscal_year_funding"`
	AmountAvailable             Money           `json:"amount_available"`
	AdditionalAmountAnticipated Money           `json:"additional_amount_anticipated"`
	PotentialAdditionalFunding  Money           `json:"potential_additional_funding"`
	ArrangementType             ArrangementType `json:"arrangement_type"`
	Sources                     string          `json:"sources"`
	Authorizer                  string          `json:"authorizer"`
	Leads                       string          `json:"leads"`
	Divisions                   string          `json:"divisions"`
	Notes                       string          `json:"notes"`
}

// NewFiscalYearReportRow assembles a report line from a snapshot and the
// records it points at.
func NewFiscalYearReportRow(f CANFiscalYear, can CAN, sources []FundingPartner, authorizer FundingPartner, leads []Person) FiscalYearReportRow {
	sourceNames := make([]string, len(sources))
	for i, s := range sources {
		sourceNames[i] = s.Name
	}
	leadNames := make([]string, len(leads))
	var divisions []string
	seen := map[Division]bool{}
	for i, p := range leads {
		leadNames[i] = p.FullName()
		if !seen[p.Division] {
			seen[p.Division] = true
			divisions = append(divisions, string(p.Division))
		}
	}
	return FiscalYearReportRow{
		ID:                          f.ID,
		FiscalYear:                  f.FiscalYear,
		CANName:                     f.DisplayName(can),
		Description:                 can.Description,
		Purpose:                     can.Purpose,
		TotalFiscalYearFunding:      f.TotalFiscalYearFunding,
		AmountAvailable:             f.AmountAvailable,
		AdditionalAmountAnticipated: f.AdditionalAmountAnticipated(),
		PotentialAdditionalFunding:  f.PotentialAdditionalFunding,
		ArrangementType:             can.ArrangementType,
		Sources:                     strings.Join(sourceNames, ", "),
		Authorizer:                  authorizer.Name,
		Leads:                       strings.Join(leadNames, ", "),
		Divisions:                   strings.Join(divisions, ", "),
		Notes:                       f.Notes,
	}
}
