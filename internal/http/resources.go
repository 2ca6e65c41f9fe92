package http

import (
	"context"
	"net/http"
	"strconv"

	"ops/internal/core"
)

type (
	partnerView struct {
		core.FundingPartner
		Display string `json:"display"`
	}

	roleView struct {
		core.Role
		Display string `json:"display"`
	}

	personView struct {
		core.Person
		Display string `json:"display"`
		Roles   string `json:"roles"`
	}

	canView struct {
		core.CAN
		Display string `json:"display"`
	}

	// fiscalYearView is one row of the CAN fiscal-year working report.
	fiscalYearView struct {
		core.CANFiscalYear
		Display string                   `json:"display"`
		Report  core.FiscalYearReportRow `json:"report"`
	}

	contractView struct {
		core.Contract
		Display string `json:"display"`
	}

	lineItemView struct {
		core.ContractLineItem
		Display string `json:"display"`
	}

	lineItemYearView struct {
		core.ContractLineItemFiscalYear
		Display string `json:"display"`
	}

	lineItemYearCANView struct {
		core.ContractLineItemFiscalYearCAN
		Display string `json:"display"`
	}
)

func (s *Server) mountAdmin(mux *http.ServeMux) {
	l := s.ledger

	mountResource(s, mux, "/api/funding-partners", resource[core.FundingPartner]{
		entity: "funding_partner",
		list:   l.ListFundingPartners,
		get:    l.GetFundingPartner,
		create: l.CreateFundingPartner,
		update: l.UpdateFundingPartner,
		remove: l.DeleteFundingPartner,
		withID: func(p core.FundingPartner, id int64) core.FundingPartner { p.ID = id; return p },
		idOf:   func(p core.FundingPartner) int64 { return p.ID },
		views: func(_ context.Context, items []core.FundingPartner) ([]any, error) {
			return mapViews(items, func(p core.FundingPartner) any {
				return partnerView{FundingPartner: p, Display: p.String()}
			}), nil
		},
	})

	mountResource(s, mux, "/api/roles", resource[core.Role]{
		entity: "role",
		list:   l.ListRoles,
		get:    l.GetRole,
		create: l.CreateRole,
		update: l.UpdateRole,
		remove: l.DeleteRole,
		withID: func(r core.Role, id int64) core.Role { r.ID = id; return r },
		idOf:   func(r core.Role) int64 { return r.ID },
		views: func(_ context.Context, items []core.Role) ([]any, error) {
			return mapViews(items, func(r core.Role) any {
				return roleView{Role: r, Display: r.String()}
			}), nil
		},
	})

	mountResource(s, mux, "/api/people", resource[core.Person]{
		entity: "person",
		list:   l.ListPeople,
		get:    l.GetPerson,
		create: l.CreatePerson,
		update: l.UpdatePerson,
		remove: l.DeletePerson,
		withID: func(p core.Person, id int64) core.Person { p.ID = id; return p },
		idOf:   func(p core.Person) int64 { return p.ID },
		views:  s.personViews,
	})

	mountResource(s, mux, "/api/cans", resource[core.CAN]{
		entity: "can",
		list:   l.ListCANs,
		get:    l.GetCAN,
		create: l.CreateCAN,
		update: l.UpdateCAN,
		remove: l.DeleteCAN,
		withID: func(c core.CAN, id int64) core.CAN { c.ID = id; return c },
		idOf:   func(c core.CAN) int64 { return c.ID },
		views: func(_ context.Context, items []core.CAN) ([]any, error) {
			return mapViews(items, func(c core.CAN) any {
				return canView{CAN: c, Display: c.DisplayName()}
			}), nil
		},
	})

	mountResource(s, mux, "/api/can-fiscal-years", resource[core.CANFiscalYear]{
		entity: "can_fiscal_year",
		list:   l.ListCANFiscalYears,
		get:    l.GetCANFiscalYear,
		create: l.CreateCANFiscalYear,
		update: l.UpdateCANFiscalYear,
		remove: l.DeleteCANFiscalYear,
		withID: func(f core.CANFiscalYear, id int64) core.CANFiscalYear { f.ID = id; return f },
		idOf:   func(f core.CANFiscalYear) int64 { return f.ID },
		views:  s.fiscalYearViews,
	})

	mountResource(s, mux, "/api/contracts", resource[core.Contract]{
		entity: "contract",
		list:   l.ListContracts,
		get:    l.GetContract,
		create: l.CreateContract,
		update: l.UpdateContract,
		remove: l.DeleteContract,
		withID: func(c core.Contract, id int64) core.Contract { c.ID = id; return c },
		idOf:   func(c core.Contract) int64 { return c.ID },
		views: func(_ context.Context, items []core.Contract) ([]any, error) {
			return mapViews(items, func(c core.Contract) any {
				return contractView{Contract: c, Display: c.Name}
			}), nil
		},
	})

	mountResource(s, mux, "/api/contract-line-items", resource[core.ContractLineItem]{
		entity: "contract_line_item",
		list:   l.ListContractLineItems,
		get:    l.GetContractLineItem,
		create: l.CreateContractLineItem,
		update: l.UpdateContractLineItem,
		remove: l.DeleteContractLineItem,
		withID: func(li core.ContractLineItem, id int64) core.ContractLineItem { li.ID = id; return li },
		idOf:   func(li core.ContractLineItem) int64 { return li.ID },
		views: func(_ context.Context, items []core.ContractLineItem) ([]any, error) {
			return mapViews(items, func(li core.ContractLineItem) any {
				return lineItemView{ContractLineItem: li, Display: li.Name}
			}), nil
		},
	})

	mountResource(s, mux, "/api/contract-line-item-fiscal-years", resource[core.ContractLineItemFiscalYear]{
		entity: "contract_line_item_fiscal_year",
		list:   l.ListContractLineItemFiscalYears,
		get:    l.GetContractLineItemFiscalYear,
		create: l.CreateContractLineItemFiscalYear,
		update: l.UpdateContractLineItemFiscalYear,
		remove: l.DeleteContractLineItemFiscalYear,
		withID: func(f core.ContractLineItemFiscalYear, id int64) core.ContractLineItemFiscalYear { f.ID = id; return f },
		idOf:   func(f core.ContractLineItemFiscalYear) int64 { return f.ID },
		views: func(_ context.Context, items []core.ContractLineItemFiscalYear) ([]any, error) {
			return mapViews(items, func(f core.ContractLineItemFiscalYear) any {
				return lineItemYearView{ContractLineItemFiscalYear: f, Display: f.Name + " - " + strconv.Itoa(f.FiscalYear)}
			}), nil
		},
	})

	mountResource(s, mux, "/api/contract-line-item-fiscal-year-cans", resource[core.ContractLineItemFiscalYearCAN]{
		entity: "contract_line_item_fiscal_year_can",
		list:   l.ListContractLineItemFiscalYearCANs,
		get:    l.GetContractLineItemFiscalYearCAN,
		create: l.CreateContractLineItemFiscalYearCAN,
		update: l.UpdateContractLineItemFiscalYearCAN,
		remove: l.DeleteContractLineItemFiscalYearCAN,
		withID: func(c core.ContractLineItemFiscalYearCAN, id int64) core.ContractLineItemFiscalYearCAN { c.ID = id; return c },
		idOf:   func(c core.ContractLineItemFiscalYearCAN) int64 { return c.ID },
		views:  s.lineItemYearCANViews,
	})
}

func mapViews[T any](items []T, view func(T) any) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = view(item)
	}
	return out
}

func (s *Server) personViews(ctx context.Context, people []core.Person) ([]any, error) {
	roles, err := s.ledger.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]core.Role, len(roles))
	for _, r := range roles {
		byID[r.ID] = r
	}
	return mapViews(people, func(p core.Person) any {
		held := make([]core.Role, 0, len(p.RoleIDs))
		for _, id := range p.RoleIDs {
			if r, ok := byID[id]; ok {
				held = append(held, r)
			}
		}
		return personView{Person: p, Display: p.String(), Roles: core.RoleNames(held)}
	}), nil
}

func (s *Server) fiscalYearViews(ctx context.Context, years []core.CANFiscalYear) ([]any, error) {
	out := make([]any, 0, len(years))
	for _, f := range years {
		row, err := s.ledger.FiscalYearReportRow(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, fiscalYearView{CANFiscalYear: f, Display: row.CANName, Report: row})
	}
	return out, nil
}

// lineItemYearCANViews labels each funding row "<CAN number> - <amount>".
func (s *Server) lineItemYearCANViews(ctx context.Context, rows []core.ContractLineItemFiscalYearCAN) ([]any, error) {
	cans, err := s.ledger.ListCANs(ctx)
	if err != nil {
		return nil, err
	}
	numbers := make(map[int64]string, len(cans))
	for _, c := range cans {
		numbers[c.ID] = c.Number
	}
	return mapViews(rows, func(c core.ContractLineItemFiscalYearCAN) any {
		return lineItemYearCANView{ContractLineItemFiscalYearCAN: c, Display: numbers[c.CANID] + " - " + c.Funding.String()}
	}), nil
}
