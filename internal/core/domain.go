package core

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DivisionDCFD Division = "DCFD"
	DivisionDDI  Division = "DDI"
	DivisionDEI  Division = "DEI"
	DivisionDFS  Division = "DFS"
	DivisionOD   Division = "OD"
)

const (
	ArrangementOPREAppropriation ArrangementType = "OPRE Appropriation"
	ArrangementCostShare         ArrangementType = "Cost Share"
	ArrangementIAA               ArrangementType = "IAA"
	ArrangementIDDA              ArrangementType = "IDDA"
	ArrangementMOU               ArrangementType = "MOU"
)

const (
	maxNameLength        = 100
	maxCANNumberLength   = 30
	maxCANNicknameLength = 30
)

type (
	// Division is the OPRE division a person belongs to.
	Division string

	// ArrangementType is how the money behind a CAN was arranged.
	ArrangementType string

	// FundingPartner is an agency that sources or authorizes funding.
	FundingPartner struct {
		ID       int64  `db:"id" json:"id"`
		Name     string `db:"name" json:"name"`
		Nickname string `db:"nickname" json:"nickname"`
	}

	Role struct {
		ID   int64  `db:"id" json:"id"`
		Name string `db:"name" json:"name"`
	}

	Person struct {
		ID        int64    `db:"id" json:"id"`
		FirstName string   `db:"first_name" json:"first_name"`
		LastName  string   `db:"last_name" json:"last_name"`
		Division  Division `db:"division" json:"division"`
		RoleIDs   []int64  `db:"-" json:"role_ids"`
	}

	// CAN is a Common Accounting Number, the budget line used to track money
	// coming into the office.
	CAN struct {
		ID               int64           `db:"id" json:"id"`
		Number           string          `db:"number" json:"number"`
		Description      string          `db:"description" json:"description"`
		Purpose          string          `db:"purpose" json:"purpose"`
		Nickname         string          `db:"nickname" json:"nickname"`
		ArrangementType  ArrangementType `db:"arrangement_type" json:"arrangement_type"`
		AuthorizerID     int64           `db:"authorizer_id" json:"authorizer_id"`
		FundingSourceIDs []int64         `db:"-" json:"funding_source_ids"`
	}

	// CANFiscalYear is the financial snapshot of a CAN for one fiscal year.
	// At most one exists per (CAN, fiscal year).
	CANFiscalYear struct {
		ID                         int64   `db:"id" json:"id"`
		CANID                      int64   `db:"can_id" json:"can_id"`
		FiscalYear                 int     `db:"fiscal_year" json:"fiscal_year"`
		AmountAvailable            Money   `db:"amount_available" json:"amount_available"`
		TotalFiscalYearFunding     Money   `db:"total_fiscal_year_funding" json:"total_fiscal_year_funding"`
		PotentialAdditionalFunding Money   `db:"potential_additional_funding" json:"potential_additional_funding"`
		Notes                      string  `db:"notes" json:"notes"`
		CANLeadIDs                 []int64 `db:"-" json:"can_lead_ids"`
	}

	Contract struct {
		ID     int64   `db:"id" json:"id"`
		Name   string  `db:"name" json:"name"`
		CANIDs []int64 `db:"-" json:"can_ids"`
	}

	ContractLineItem struct {
		ID         int64  `db:"id" json:"id"`
		ContractID int64  `db:"contract_id" json:"contract_id"`
		Name       string `db:"name" json:"name"`
	}

	// ContractLineItemFiscalYear is a line item's presence in a fiscal year.
	// Name and ContractID are read from the owning line item.
	ContractLineItemFiscalYear struct {
		ID         int64  `db:"id" json:"id"`
		LineItemID int64  `db:"line_item_id" json:"line_item_id"`
		FiscalYear int    `db:"fiscal_year" json:"fiscal_year"`
		Name       string `db:"line_item_name" json:"name"`
		ContractID int64  `db:"contract_id" json:"contract_id"`
	}

	// ContractLineItemFiscalYearCAN is the amount one CAN contributes to a
	// line item in a fiscal year.
	ContractLineItemFiscalYearCAN struct {
		ID           int64 `db:"id" json:"id"`
		FiscalYearID int64 `db:"fiscal_year_id" json:"fiscal_year_id"`
		CANID        int64 `db:"can_id" json:"can_id"`
		Funding      Money `db:"funding" json:"funding"`
	}
)

// Divisions lists the valid division codes in display order.
func Divisions() []Division {
	return []Division{DivisionDCFD, DivisionDDI, DivisionDEI, DivisionDFS, DivisionOD}
}

func (d Division) Validate() error {
	for _, v := range Divisions() {
		if d == v {
			return nil
		}
	}
	return invalid("division", fmt.Sprintf("unknown division %q", string(d)))
}

// ArrangementTypes lists the valid arrangement types in display order.
func ArrangementTypes() []ArrangementType {
	return []ArrangementType{
		ArrangementOPREAppropriation,
		ArrangementCostShare,
		ArrangementIAA,
		ArrangementIDDA,
		ArrangementMOU,
	}
}

func (a ArrangementType) Validate() error {
	for _, v := range ArrangementTypes() {
		if a == v {
			return nil
		}
	}
	return invalid("arrangement_type", fmt.Sprintf("unknown arrangement type %q", string(a)))
}

func requireText(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "required")
	}
	if utf8.RuneCountInString(value) > max {
		return invalid(field, fmt.Sprintf("too long (max %d characters)", max))
	}
	return nil
}

func requireID(field string, id int64) error {
	if id <= 0 {
		return invalid(field, "required")
	}
	return nil
}

func requireIDs(field string, ids []int64) error {
	for _, id := range ids {
		if id <= 0 {
			return invalid(field, fmt.Sprintf("invalid id %d", id))
		}
	}
	return nil
}

func validateFiscalYear(fy int) error {
	if fy < 1900 || fy > 9999 {
		return invalid("fiscal_year", fmt.Sprintf("out of range: %d", fy))
	}
	return nil
}

func (p FundingPartner) Validate() error {
	if err := requireText("name", p.Name, maxNameLength); err != nil {
		return err
	}
	return requireText("nickname", p.Nickname, maxNameLength)
}

func (p FundingPartner) String() string {
	return p.Name
}

func (r Role) Validate() error {
	return requireText("name", r.Name, maxNameLength)
}

func (r Role) String() string {
	return r.Name
}

func (p Person) Validate() error {
	if err := requireText("first_name", p.FirstName, maxNameLength); err != nil {
		return err
	}
	if err := requireText("last_name", p.LastName, maxNameLength); err != nil {
		return err
	}
	if err := p.Division.Validate(); err != nil {
		return err
	}
	return requireIDs("role_ids", p.RoleIDs)
}

func (c CAN) Validate() error {
	if err := requireText("number", c.Number, maxCANNumberLength); err != nil {
		return err
	}
	if err := requireText("description", c.Description, maxNameLength); err != nil {
		return err
	}
	if err := requireText("nickname", c.Nickname, maxCANNicknameLength); err != nil {
		return err
	}
	if err := c.ArrangementType.Validate(); err != nil {
		return err
	}
	if err := requireID("authorizer_id", c.AuthorizerID); err != nil {
		return err
	}
	return requireIDs("funding_source_ids", c.FundingSourceIDs)
}

func (f CANFiscalYear) Validate() error {
	if err := requireID("can_id", f.CANID); err != nil {
		return err
	}
	if err := validateFiscalYear(f.FiscalYear); err != nil {
		return err
	}
	if err := f.AmountAvailable.Validate("amount_available"); err != nil {
		return err
	}
	if err := f.TotalFiscalYearFunding.Validate("total_fiscal_year_funding"); err != nil {
		return err
	}
	if err := f.PotentialAdditionalFunding.Validate("potential_additional_funding"); err != nil {
		return err
	}
	return requireIDs("can_lead_ids", f.CANLeadIDs)
}

// AdditionalAmountAnticipated is total funding minus what is already
// available. It is never stored and may be negative.
func (f CANFiscalYear) AdditionalAmountAnticipated() Money {
	return f.TotalFiscalYearFunding.Sub(f.AmountAvailable)
}

func (c Contract) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name", "required")
	}
	return requireIDs("can_ids", c.CANIDs)
}

func (li ContractLineItem) Validate() error {
	if err := requireID("contract_id", li.ContractID); err != nil {
		return err
	}
	if strings.TrimSpace(li.Name) == "" {
		return invalid("name", "required")
	}
	return nil
}

func (f ContractLineItemFiscalYear) Validate() error {
	if err := requireID("line_item_id", f.LineItemID); err != nil {
		return err
	}
	return validateFiscalYear(f.FiscalYear)
}

func (c ContractLineItemFiscalYearCAN) Validate() error {
	if err := requireID("fiscal_year_id", c.FiscalYearID); err != nil {
		return err
	}
	if err := requireID("can_id", c.CANID); err != nil {
		return err
	}
	return c.Funding.Validate("funding")
}

// FiscalYearOf returns the federal fiscal year containing t. Fiscal years
// start on October 1 and are named after the calendar year they end in.
func FiscalYearOf(t time.Time) int {
	if t.Month() >= time.October {
		return t.Year() + 1
	}
	return t.Year()
}
