package http

import (
	"context"

	"ops/internal/core"
)

// Ledger is everything the HTTP layer reads from or writes to the ledger.
// *services.LedgerService satisfies it.
type Ledger interface {
	Ping(ctx context.Context) error

	CreateFundingPartner(ctx context.Context, p core.FundingPartner) (core.FundingPartner, error)
	GetFundingPartner(ctx context.Context, id int64) (core.FundingPartner, error)
	ListFundingPartners(ctx context.Context) ([]core.FundingPartner, error)
	UpdateFundingPartner(ctx context.Context, p core.FundingPartner) (core.FundingPartner, error)
	DeleteFundingPartner(ctx context.Context, id int64) error

	CreateRole(ctx context.Context, r core.Role) (core.Role, error)
	GetRole(ctx context.Context, id int64) (core.Role, error)
	ListRoles(ctx context.Context) ([]core.Role, error)
	UpdateRole(ctx context.Context, r core.Role) (core.Role, error)
	DeleteRole(ctx context.Context, id int64) error
	RolesByIDs(ctx context.Context, ids []int64) ([]core.Role, error)

	CreatePerson(ctx context.Context, p core.Person) (core.Person, error)
	GetPerson(ctx context.Context, id int64) (core.Person, error)
	ListPeople(ctx context.Context) ([]core.Person, error)
	UpdatePerson(ctx context.Context, p core.Person) (core.Person, error)
	DeletePerson(ctx context.Context, id int64) error

	CreateCAN(ctx context.Context, c core.CAN) (core.CAN, error)
	GetCAN(ctx context.Context, id int64) (core.CAN, error)
	ListCANs(ctx context.Context) ([]core.CAN, error)
	UpdateCAN(ctx context.Context, c core.CAN) (core.CAN, error)
	DeleteCAN(ctx context.Context, id int64) error

	CreateCANFiscalYear(ctx context.Context, f core.CANFiscalYear) (core.CANFiscalYear, error)
	GetCANFiscalYear(ctx context.Context, id int64) (core.CANFiscalYear, error)
	ListCANFiscalYears(ctx context.Context) ([]core.CANFiscalYear, error)
	UpdateCANFiscalYear(ctx context.Context, f core.CANFiscalYear) (core.CANFiscalYear, error)
	DeleteCANFiscalYear(ctx context.Context, id int64) error
	FiscalYearReportRow(ctx context.Context, id int64) (core.FiscalYearReportRow, error)

	CreateContract(ctx context.Context, c core.Contract) (core.Contract, error)
	GetContract(ctx context.Context, id int64) (core.Contract, error)
	ListContracts(ctx context.Context) ([]core.Contract, error)
	UpdateContract(ctx context.Context, c core.Contract) (core.Contract, error)
	DeleteContract(ctx context.Context, id int64) error

	CreateContractLineItem(ctx context.Context, li core.ContractLineItem) (core.ContractLineItem, error)
	GetContractLineItem(ctx context.Context, id int64) (core.ContractLineItem, error)
	ListContractLineItems(ctx context.Context) ([]core.ContractLineItem, error)
	UpdateContractLineItem(ctx context.Context, li core.ContractLineItem) (core.ContractLineItem, error)
	DeleteContractLineItem(ctx context.Context, id int64) error

	CreateContractLineItemFiscalYear(ctx context.Context, f core.ContractLineItemFiscalYear) (core.ContractLineItemFiscalYear, error)
	GetContractLineItemFiscalYear(ctx context.Context, id int64) (core.ContractLineItemFiscalYear, error)
	ListContractLineItemFiscalYears(ctx context.Context) ([]core.ContractLineItemFiscalYear, error)
	UpdateContractLineItemFiscalYear(ctx context.Context, f core.ContractLineItemFiscalYear) (core.ContractLineItemFiscalYear, error)
	DeleteContractLineItemFiscalYear(ctx context.Context, id int64) error

	CreateContractLineItemFiscalYearCAN(ctx context.Context, c core.ContractLineItemFiscalYearCAN) (core.ContractLineItemFiscalYearCAN, error)
	GetContractLineItemFiscalYearCAN(ctx context.Context, id int64) (core.ContractLineItemFiscalYearCAN, error)
	ListContractLineItemFiscalYearCANs(ctx context.Context) ([]core.ContractLineItemFiscalYearCAN, error)
	UpdateContractLineItemFiscalYearCAN(ctx context.Context, c core.ContractLineItemFiscalYearCAN) (core.ContractLineItemFiscalYearCAN, error)
	DeleteContractLineItemFiscalYearCAN(ctx context.Context, id int64) error

	InfoForFiscalYear(ctx context.Context, canID int64, fy int) (core.CANFiscalYear, error)
	ContractsForFiscalYear(ctx context.Context, canID int64, fy int) ([]core.Contract, error)
	ContractResearchAreas(ctx context.Context, contractID int64) ([]string, error)
	ContributionByCANForFY(ctx context.Context, contractID, canID int64, fy int) (core.Money, error)
	LineItemsForFY(ctx context.Context, contractID int64, fy int) ([]core.ContractLineItemFiscalYear, error)
}
