package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"ops/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ops.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

// fixture holds a small graph of records most tests start from.
type fixture struct {
	partner core.FundingPartner
	source  core.FundingPartner
	lead    core.Person
	can     core.CAN
}

// snapshotFor is a valid snapshot with all amounts given.
func snapshotFor(canID int64, fy int) core.CANFiscalYear {
	return core.CANFiscalYear{
		CANID:                      canID,
		FiscalYear:                 fy,
		AmountAvailable:            core.MustParseMoney("0"),
		TotalFiscalYearFunding:     core.MustParseMoney("0"),
		PotentialAdditionalFunding: core.MustParseMoney("0"),
	}
}

func seed(t *testing.T, repo *SQLiteRepository) fixture {
	t.Helper()
	ctx := context.Background()

	partner, err := repo.CreateFundingPartner(ctx, core.FundingPartner{Name: "Administration for Children and Families", Nickname: "ACF"})
	if err != nil {
		t.Fatalf("CreateFundingPartner: %v", err)
	}
	source, err := repo.CreateFundingPartner(ctx, core.FundingPartner{Name: "Health Resources and Services Administration", Nickname: "HRSA"})
	if err != nil {
		t.Fatalf("CreateFundingPartner: %v", err)
	}
	role, err := repo.CreateRole(ctx, core.Role{Name: "COR"})
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	lead, err := repo.CreatePerson(ctx, core.Person{FirstName: "Ada", LastName: "Lovelace", Division: core.DivisionDFS, RoleIDs: []int64{role.ID}})
	if err != nil {
		t.Fatalf("CreatePerson: %v", err)
	}
	can, err := repo.CreateCAN(ctx, core.CAN{
		Number:           "G123456",
		Description:      "Head Start Research",
		Purpose:          "Evaluation",
		Nickname:         "FOO",
		ArrangementType:  core.ArrangementOPREAppropriation,
		AuthorizerID:     partner.ID,
		FundingSourceIDs: []int64{source.ID},
	})
	if err != nil {
		t.Fatalf("CreateCAN: %v", err)
	}
	return fixture{partner: partner, source: source, lead: lead, can: can}
}

func TestNewSQLiteRepository_ReopensMigratedDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ops.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := repo.CreateRole(context.Background(), core.Role{Name: "Analyst"}); err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer repo.Close()
	roles, err := repo.ListRoles(context.Background())
	if err != nil {
		t.Fatalf("ListRoles: %v", err)
	}
	if len(roles) != 1 || roles[0].Name != "Analyst" {
		t.Errorf("roles after reopen = %+v", roles)
	}
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestCANFiscalYear_AdditionalAmountScenario(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := seed(t, repo)

	created, err := repo.CreateCANFiscalYear(ctx, core.CANFiscalYear{
		CANID:                      fx.can.ID,
		FiscalYear:                 2021,
		AmountAvailable:            core.MustParseMoney("100.00"),
		TotalFiscalYearFunding:     core.MustParseMoney("150.00"),
		PotentialAdditionalFunding: core.MustParseMoney("0"),
		CANLeadIDs:                 []int64{fx.lead.ID},
	})
	if err != nil {
		t.Fatalf("CreateCANFiscalYear: %v", err)
	}

	got, err := repo.InfoForFiscalYear(ctx, fx.can.ID, 2021)
	if err != nil {
		t.Fatalf("InfoForFiscalYear: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("InfoForFiscalYear id = %d, want %d", got.ID, created.ID)
	}
	if s := got.AdditionalAmountAnticipated().String(); s != "50.00" {
		t.Errorf("AdditionalAmountAnticipated = %s, want 50.00", s)
	}
	if len(got.CANLeadIDs) != 1 || got.CANLeadIDs[0] != fx.lead.ID {
		t.Errorf("CANLeadIDs = %v", got.CANLeadIDs)
	}

	_, err = repo.InfoForFiscalYear(ctx, fx.can.ID, 2022)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("InfoForFiscalYear(2022) error = %v, want ErrNotFound", err)
	}
	_, err = repo.InfoForFiscalYear(ctx, fx.can.ID+100, 2021)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("InfoForFiscalYear(missing CAN) error = %v, want ErrNotFound", err)
	}
}

func TestCANFiscalYear_Uniqueness(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := seed(t, repo)

	fy := snapshotFor(fx.can.ID, 2021)
	first, err := repo.CreateCANFiscalYear(ctx, fy)
	if err != nil {
		t.Fatalf("CreateCANFiscalYear: %v", err)
	}
	if _, err := repo.CreateCANFiscalYear(ctx, fy); !errors.Is(err, core.ErrUniqueness) {
		t.Errorf("duplicate create error = %v, want ErrUniqueness", err)
	}

	other, err := repo.CreateCANFiscalYear(ctx, snapshotFor(fx.can.ID, 2022))
	if err != nil {
		t.Fatalf("CreateCANFiscalYear 2022: %v", err)
	}
	other.FiscalYear = 2021
	if _, err := repo.UpdateCANFiscalYear(ctx, other); !errors.Is(err, core.ErrUniqueness) {
		t.Errorf("update into existing year error = %v, want ErrUniqueness", err)
	}

	first.Notes = "revised"
	first.AmountAvailable = core.MustParseMoney("12.5")
	updated, err := repo.UpdateCANFiscalYear(ctx, first)
	if err != nil {
		t.Fatalf("UpdateCANFiscalYear: %v", err)
	}
	got, err := repo.GetCANFiscalYear(ctx, updated.ID)
	if err != nil {
		t.Fatalf("GetCANFiscalYear: %v", err)
	}
	if got.Notes != "revised" || got.AmountAvailable.String() != "12.50" {
		t.Errorf("after update got %+v", got)
	}
}

func TestContract_ContributionScenario(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := seed(t, repo)

	contract, err := repo.CreateContract(ctx, core.Contract{Name: "Study A", CANIDs: []int64{fx.can.ID}})
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}
	item, err := repo.CreateContractLineItem(ctx, core.ContractLineItem{ContractID: contract.ID, Name: "Task 1"})
	if err != nil {
		t.Fatalf("CreateContractLineItem: %v", err)
	}
	itemFY, err := repo.CreateContractLineItemFiscalYear(ctx, core.ContractLineItemFiscalYear{LineItemID: item.ID, FiscalYear: 2021})
	if err != nil {
		t.Fatalf("CreateContractLineItemFiscalYear: %v", err)
	}
	if itemFY.Name != "Task 1" || itemFY.ContractID != contract.ID {
		t.Errorf("line item fiscal year = %+v, want name and contract of its line item", itemFY)
	}
	if _, err := repo.CreateContractLineItemFiscalYearCAN(ctx, core.ContractLineItemFiscalYearCAN{
		FiscalYearID: itemFY.ID, CANID: fx.can.ID, Funding: core.MustParseMoney("25.00"),
	}); err != nil {
		t.Fatalf("CreateContractLineItemFiscalYearCAN: %v", err)
	}

	got, err := repo.ContributionByCANForFY(ctx, contract.ID, fx.can.ID, 2021)
	if err != nil {
		t.Fatalf("ContributionByCANForFY: %v", err)
	}
	if got.String() != "25.00" {
		t.Errorf("contribution = %s, want 25.00", got)
	}

	zero, err := repo.ContributionByCANForFY(ctx, contract.ID, fx.can.ID, 2022)
	if err != nil {
		t.Fatalf("ContributionByCANForFY 2022: %v", err)
	}
	if zero.String() != "0.00" {
		t.Errorf("contribution with no rows = %s, want 0.00", zero)
	}

	contracts, err := repo.ContractsForFiscalYear(ctx, fx.can.ID, 2021)
	if err != nil {
		t.Fatalf("ContractsForFiscalYear: %v", err)
	}
	if len(contracts) != 1 || contracts[0].Name != "Study A" {
		t.Errorf("ContractsForFiscalYear = %+v, want only Study A", contracts)
	}
}

func TestContractsForFiscalYear_Deduplicates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := seed(t, repo)

	contract, err := repo.CreateContract(ctx, core.Contract{Name: "Study A"})
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}
	for _, name := range []string{"Task 1", "Task 2"} {
		item, err := repo.CreateContractLineItem(ctx, core.ContractLineItem{ContractID: contract.ID, Name: name})
		if err != nil {
			t.Fatalf("CreateContractLineItem: %v", err)
		}
		itemFY, err := repo.CreateContractLineItemFiscalYear(ctx, core.ContractLineItemFiscalYear{LineItemID: item.ID, FiscalYear: 2021})
		if err != nil {
			t.Fatalf("CreateContractLineItemFiscalYear: %v", err)
		}
		for _, amount := range []string{"10.00", "2.50"} {
			if _, err := repo.CreateContractLineItemFiscalYearCAN(ctx, core.ContractLineItemFiscalYearCAN{
				FiscalYearID: itemFY.ID, CANID: fx.can.ID, Funding: core.MustParseMoney(amount),
			}); err != nil {
				t.Fatalf("CreateContractLineItemFiscalYearCAN: %v", err)
			}
		}
	}

	contracts, err := repo.ContractsForFiscalYear(ctx, fx.can.ID, 2021)
	if err != nil {
		t.Fatalf("ContractsForFiscalYear: %v", err)
	}
	if len(contracts) != 1 {
		t.Fatalf("got %d contracts, want 1", len(contracts))
	}

	total, err := repo.ContributionByCANForFY(ctx, contract.ID, fx.can.ID, 2021)
	if err != nil {
		t.Fatalf("ContributionByCANForFY: %v", err)
	}
	if total.String() != "25.00" {
		t.Errorf("contribution = %s, want 25.00", total)
	}

	items, err := repo.LineItemsForFY(ctx, contract.ID, 2021)
	if err != nil {
		t.Fatalf("LineItemsForFY: %v", err)
	}
	if len(items) != 2 || items[0].Name != "Task 1" || items[1].Name != "Task 2" {
		t.Errorf("LineItemsForFY = %+v", items)
	}
	none, err := repo.LineItemsForFY(ctx, contract.ID, 2020)
	if err != nil {
		t.Fatalf("LineItemsForFY 2020: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("LineItemsForFY(2020) = %+v, want empty", none)
	}
}

func TestContributionByCANForFY_ScopedToContract(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := seed(t, repo)

	var contracts []core.Contract
	for _, name := range []string{"Study A", "Study B"} {
		c, err := repo.CreateContract(ctx, core.Contract{Name: name})
		if err != nil {
			t.Fatalf("CreateContract: %v", err)
		}
		item, err := repo.CreateContractLineItem(ctx, core.ContractLineItem{ContractID: c.ID, Name: "Task"})
		if err != nil {
			t.Fatalf("CreateContractLineItem: %v", err)
		}
		itemFY, err := repo.CreateContractLineItemFiscalYear(ctx, core.ContractLineItemFiscalYear{LineItemID: item.ID, FiscalYear: 2021})
		if err != nil {
			t.Fatalf("CreateContractLineItemFiscalYear: %v", err)
		}
		if _, err := repo.CreateContractLineItemFiscalYearCAN(ctx, core.ContractLineItemFiscalYearCAN{
			FiscalYearID: itemFY.ID, CANID: fx.can.ID, Funding: core.MustParseMoney("40.00"),
		}); err != nil {
			t.Fatalf("CreateContractLineItemFiscalYearCAN: %v", err)
		}
		contracts = append(contracts, c)
	}

	got, err := repo.ContributionByCANForFY(ctx, contracts[0].ID, fx.can.ID, 2021)
	if err != nil {
		t.Fatalf("ContributionByCANForFY: %v", err)
	}
	if got.String() != "40.00" {
		t.Errorf("contribution = %s, want 40.00 from its own line items only", got)
	}
}

func TestContractResearchAreas(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := seed(t, repo)

	second, err := repo.CreateCAN(ctx, core.CAN{
		Number: "G654321", Description: "Child care", Nickname: "BAR",
		ArrangementType: core.ArrangementIAA, AuthorizerID: fx.partner.ID,
	})
	if err != nil {
		t.Fatalf("CreateCAN: %v", err)
	}
	contract, err := repo.CreateContract(ctx, core.Contract{Name: "Study A", CANIDs: []int64{second.ID, fx.can.ID, second.ID}})
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}
	if len(contract.CANIDs) != 2 {
		t.Errorf("CANIDs = %v, want duplicates removed", contract.CANIDs)
	}

	areas, err := repo.ContractResearchAreas(ctx, contract.ID)
	if err != nil {
		t.Fatalf("ContractResearchAreas: %v", err)
	}
	if len(areas) != 2 || areas[0] != "BAR" || areas[1] != "FOO" {
		t.Errorf("research areas = %v, want [BAR FOO]", areas)
	}

	if _, err := repo.ContractResearchAreas(ctx, contract.ID+1); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing contract error = %v, want ErrNotFound", err)
	}
}

func TestDelete_ProtectedReferences(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := seed(t, repo)

	if err := repo.DeleteFundingPartner(ctx, fx.partner.ID); !errors.Is(err, core.ErrReferentialIntegrity) {
		t.Errorf("delete authorizer error = %v, want ErrReferentialIntegrity", err)
	}

	// A partner used only as a funding source is a plain unlink.
	if err := repo.DeleteFundingPartner(ctx, fx.source.ID); err != nil {
		t.Fatalf("delete source partner: %v", err)
	}
	can, err := repo.GetCAN(ctx, fx.can.ID)
	if err != nil {
		t.Fatalf("GetCAN: %v", err)
	}
	if len(can.FundingSourceIDs) != 0 {
		t.Errorf("FundingSourceIDs = %v, want empty", can.FundingSourceIDs)
	}

	snapshot, err := repo.CreateCANFiscalYear(ctx, snapshotFor(fx.can.ID, 2021))
	if err != nil {
		t.Fatalf("CreateCANFiscalYear: %v", err)
	}
	if err := repo.DeleteCAN(ctx, fx.can.ID); !errors.Is(err, core.ErrReferentialIntegrity) {
		t.Errorf("delete CAN with snapshot error = %v, want ErrReferentialIntegrity", err)
	}
	if err := repo.DeleteCANFiscalYear(ctx, snapshot.ID); err != nil {
		t.Fatalf("DeleteCANFiscalYear: %v", err)
	}

	contract, err := repo.CreateContract(ctx, core.Contract{Name: "Study A", CANIDs: []int64{fx.can.ID}})
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}
	item, err := repo.CreateContractLineItem(ctx, core.ContractLineItem{ContractID: contract.ID, Name: "Task 1"})
	if err != nil {
		t.Fatalf("CreateContractLineItem: %v", err)
	}
	itemFY, err := repo.CreateContractLineItemFiscalYear(ctx, core.ContractLineItemFiscalYear{LineItemID: item.ID, FiscalYear: 2021})
	if err != nil {
		t.Fatalf("CreateContractLineItemFiscalYear: %v", err)
	}
	funding, err := repo.CreateContractLineItemFiscalYearCAN(ctx, core.ContractLineItemFiscalYearCAN{
		FiscalYearID: itemFY.ID, CANID: fx.can.ID, Funding: core.MustParseMoney("1.00"),
	})
	if err != nil {
		t.Fatalf("CreateContractLineItemFiscalYearCAN: %v", err)
	}
	if err := repo.DeleteCAN(ctx, fx.can.ID); !errors.Is(err, core.ErrReferentialIntegrity) {
		t.Errorf("delete funded CAN error = %v, want ErrReferentialIntegrity", err)
	}

	if err := repo.DeleteContractLineItemFiscalYearCAN(ctx, funding.ID); err != nil {
		t.Fatalf("DeleteContractLineItemFiscalYearCAN: %v", err)
	}
	if err := repo.DeleteCAN(ctx, fx.can.ID); err != nil {
		t.Fatalf("DeleteCAN after unlinking: %v", err)
	}
	got, err := repo.GetContract(ctx, contract.ID)
	if err != nil {
		t.Fatalf("GetContract: %v", err)
	}
	if len(got.CANIDs) != 0 {
		t.Errorf("contract CANIDs = %v, want the deleted CAN unlinked", got.CANIDs)
	}
	if err := repo.DeleteFundingPartner(ctx, fx.partner.ID); err != nil {
		t.Errorf("delete partner with no CANs: %v", err)
	}
}

func TestDeleteContract_Cascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := seed(t, repo)

	contract, err := repo.CreateContract(ctx, core.Contract{Name: "Study A", CANIDs: []int64{fx.can.ID}})
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}
	item, err := repo.CreateContractLineItem(ctx, core.ContractLineItem{ContractID: contract.ID, Name: "Task 1"})
	if err != nil {
		t.Fatalf("CreateContractLineItem: %v", err)
	}
	itemFY, err := repo.CreateContractLineItemFiscalYear(ctx, core.ContractLineItemFiscalYear{LineItemID: item.ID, FiscalYear: 2021})
	if err != nil {
		t.Fatalf("CreateContractLineItemFiscalYear: %v", err)
	}
	funding, err := repo.CreateContractLineItemFiscalYearCAN(ctx, core.ContractLineItemFiscalYearCAN{
		FiscalYearID: itemFY.ID, CANID: fx.can.ID, Funding: core.MustParseMoney("5.00"),
	})
	if err != nil {
		t.Fatalf("CreateContractLineItemFiscalYearCAN: %v", err)
	}

	if err := repo.DeleteContract(ctx, contract.ID); err != nil {
		t.Fatalf("DeleteContract: %v", err)
	}

	if _, err := repo.GetContractLineItem(ctx, item.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("line item error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetContractLineItemFiscalYear(ctx, itemFY.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("line item fiscal year error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetContractLineItemFiscalYearCAN(ctx, funding.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("funding row error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteCAN(ctx, fx.can.ID); err != nil {
		t.Errorf("DeleteCAN after contract removal: %v", err)
	}
}

func TestWrites_ValidationAndMissingReferences(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := seed(t, repo)

	tests := []struct {
		name  string
		write func() error
		field string
	}{
		{
			name: "empty role name",
			write: func() error {
				_, err := repo.CreateRole(ctx, core.Role{Name: " "})
				return err
			},
			field: "name",
		},
		{
			name: "unknown division",
			write: func() error {
				_, err := repo.CreatePerson(ctx, core.Person{FirstName: "A", LastName: "B", Division: "1,"})
				return err
			},
			field: "division",
		},
		{
			name: "missing role",
			write: func() error {
				_, err := repo.CreatePerson(ctx, core.Person{FirstName: "A", LastName: "B", Division: core.DivisionOD, RoleIDs: []int64{999}})
				return err
			},
			field: "role_ids",
		},
		{
			name: "missing authorizer",
			write: func() error {
				_, err := repo.CreateCAN(ctx, core.CAN{Number: "X1", Description: "d", Nickname: "X", ArrangementType: core.ArrangementMOU, AuthorizerID: 999})
				return err
			},
			field: "authorizer_id",
		},
		{
			name: "missing CAN on snapshot",
			write: func() error {
				_, err := repo.CreateCANFiscalYear(ctx, snapshotFor(999, 2021))
				return err
			},
			field: "can_id",
		},
		{
			name: "too many decimal places",
			write: func() error {
				tooPrecise := snapshotFor(fx.can.ID, 2021)
				tooPrecise.AmountAvailable = core.MustParseMoney("1.005")
				_, err := repo.CreateCANFiscalYear(ctx, tooPrecise)
				return err
			},
			field: "amount_available",
		},
		{
			name: "amounts left out",
			write: func() error {
				_, err := repo.CreateCANFiscalYear(ctx, core.CANFiscalYear{CANID: fx.can.ID, FiscalYear: 2023})
				return err
			},
			field: "amount_available",
		},
		{
			name: "funding left out",
			write: func() error {
				_, err := repo.CreateContractLineItemFiscalYearCAN(ctx, core.ContractLineItemFiscalYearCAN{FiscalYearID: 999, CANID: fx.can.ID})
				return err
			},
			field: "funding",
		},
		{
			name: "missing line item fiscal year",
			write: func() error {
				_, err := repo.CreateContractLineItemFiscalYearCAN(ctx, core.ContractLineItemFiscalYearCAN{
					FiscalYearID: 999, CANID: fx.can.ID, Funding: core.MustParseMoney("1.00"),
				})
				return err
			},
			field: "fiscal_year_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.write()
			var ve *core.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want *core.ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}

	people, err := repo.ListPeople(ctx)
	if err != nil {
		t.Fatalf("ListPeople: %v", err)
	}
	if len(people) != 1 {
		t.Errorf("failed person writes left %d people, want 1", len(people))
	}
}

func TestUpdate_ReplacesSetsAndReportsMissing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := seed(t, repo)

	analyst, err := repo.CreateRole(ctx, core.Role{Name: "Analyst"})
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	person := fx.lead
	person.RoleIDs = []int64{analyst.ID}
	if _, err := repo.UpdatePerson(ctx, person); err != nil {
		t.Fatalf("UpdatePerson: %v", err)
	}
	got, err := repo.GetPerson(ctx, person.ID)
	if err != nil {
		t.Fatalf("GetPerson: %v", err)
	}
	if len(got.RoleIDs) != 1 || got.RoleIDs[0] != analyst.ID {
		t.Errorf("RoleIDs = %v, want [%d]", got.RoleIDs, analyst.ID)
	}

	person.ID = 999
	if _, err := repo.UpdatePerson(ctx, person); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("update missing person error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteRole(ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("delete missing role error = %v, want ErrNotFound", err)
	}

	// Deleting a role unlinks it from people.
	if err := repo.DeleteRole(ctx, analyst.ID); err != nil {
		t.Fatalf("DeleteRole: %v", err)
	}
	got, err = repo.GetPerson(ctx, fx.lead.ID)
	if err != nil {
		t.Fatalf("GetPerson: %v", err)
	}
	if len(got.RoleIDs) != 0 {
		t.Errorf("RoleIDs after role delete = %v, want empty", got.RoleIDs)
	}
}

func TestLineItemFiscalYearForCAN(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := seed(t, repo)

	contract, err := repo.CreateContract(ctx, core.Contract{Name: "Study A"})
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}
	item, err := repo.CreateContractLineItem(ctx, core.ContractLineItem{ContractID: contract.ID, Name: "Task 1"})
	if err != nil {
		t.Fatalf("CreateContractLineItem: %v", err)
	}
	itemFY, err := repo.CreateContractLineItemFiscalYear(ctx, core.ContractLineItemFiscalYear{LineItemID: item.ID, FiscalYear: 2021})
	if err != nil {
		t.Fatalf("CreateContractLineItemFiscalYear: %v", err)
	}
	funding, err := repo.CreateContractLineItemFiscalYearCAN(ctx, core.ContractLineItemFiscalYearCAN{
		FiscalYearID: itemFY.ID, CANID: fx.can.ID, Funding: core.MustParseMoney("7.25"),
	})
	if err != nil {
		t.Fatalf("CreateContractLineItemFiscalYearCAN: %v", err)
	}

	got, err := repo.LineItemFiscalYearForCAN(ctx, itemFY.ID, fx.can.ID)
	if err != nil {
		t.Fatalf("LineItemFiscalYearForCAN: %v", err)
	}
	if got.ID != funding.ID || got.Funding.String() != "7.25" {
		t.Errorf("got %+v, want row %d with 7.25", got, funding.ID)
	}
	if _, err := repo.LineItemFiscalYearForCAN(ctx, itemFY.ID, fx.can.ID+1); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("other CAN error = %v, want ErrNotFound", err)
	}
}

func TestFiscalYearReport(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	fx := seed(t, repo)

	f, err := repo.CreateCANFiscalYear(ctx, core.CANFiscalYear{
		CANID:                  fx.can.ID,
		FiscalYear:             2021,
		AmountAvailable:            core.MustParseMoney("100"),
		TotalFiscalYearFunding:     core.MustParseMoney("150"),
		PotentialAdditionalFunding: core.MustParseMoney("0"),
		Notes:                      "carry over",
		CANLeadIDs:                 []int64{fx.lead.ID},
	})
	if err != nil {
		t.Fatalf("CreateCANFiscalYear: %v", err)
	}
	if _, err := repo.CreateCANFiscalYear(ctx, snapshotFor(fx.can.ID, 2022)); err != nil {
		t.Fatalf("CreateCANFiscalYear 2022: %v", err)
	}

	rows, err := repo.FiscalYearReport(ctx, 2021)
	if err != nil {
		t.Fatalf("FiscalYearReport: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.ID != f.ID || row.CANName != "G123456 (FOO) - 2021" {
		t.Errorf("row identity = %d %q", row.ID, row.CANName)
	}
	if row.AdditionalAmountAnticipated.String() != "50.00" {
		t.Errorf("additional = %s, want 50.00", row.AdditionalAmountAnticipated)
	}
	if row.Sources != "Health Resources and Services Administration" {
		t.Errorf("sources = %q", row.Sources)
	}
	if row.Authorizer != "Administration for Children and Families" {
		t.Errorf("authorizer = %q", row.Authorizer)
	}
	if row.Leads != "Ada Lovelace" || row.Divisions != "DFS" {
		t.Errorf("leads = %q divisions = %q", row.Leads, row.Divisions)
	}

	single, err := repo.FiscalYearReportRow(ctx, f.ID)
	if err != nil {
		t.Fatalf("FiscalYearReportRow: %v", err)
	}
	if single.ID != row.ID || single.CANName != row.CANName || single.Leads != row.Leads {
		t.Errorf("FiscalYearReportRow = %+v, want %+v", single, row)
	}
}
