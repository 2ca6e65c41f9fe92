package http

import (
	"net/http"

	"ops/internal/core"
	applog "ops/internal/log"
)

// Derived read models over the ledger.

type contributionResponse struct {
	ContractID int64      `json:"contract_id"`
	CANID      int64      `json:"can_id"`
	FiscalYear int        `json:"fiscal_year"`
	Amount     core.Money `json:"amount"`
}

func (s *Server) handleInfoForFiscalYear(w http.ResponseWriter, r *http.Request) {
	canID, fy, ok := canYearParams(w, r)
	if !ok {
		return
	}
	info, err := s.ledger.InfoForFiscalYear(r.Context(), canID, fy)
	if err != nil {
		s.writeLedgerError(w, r, applog.OpQuery, "can_fiscal_year", err)
		return
	}
	NewJSONResponse().Body(info).Write(w)
}

func (s *Server) handleContractsForFiscalYear(w http.ResponseWriter, r *http.Request) {
	canID, fy, ok := canYearParams(w, r)
	if !ok {
		return
	}
	contracts, err := s.ledger.ContractsForFiscalYear(r.Context(), canID, fy)
	if err != nil {
		s.writeLedgerError(w, r, applog.OpQuery, "contract", err)
		return
	}
	NewJSONResponse().Body(contracts).Write(w)
}

func (s *Server) handleResearchAreas(w http.ResponseWriter, r *http.Request) {
	contractID, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	areas, err := s.ledger.ContractResearchAreas(r.Context(), contractID)
	if err != nil {
		s.writeLedgerError(w, r, applog.OpQuery, "contract", err)
		return
	}
	NewJSONResponse().Body(areas).Write(w)
}

func (s *Server) handleContribution(w http.ResponseWriter, r *http.Request) {
	contractID, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	query := r.URL.Query()
	canID, err := QueryID(query, "can")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	fy, err := QueryFiscalYear(query, "fy")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	amount, err := s.ledger.ContributionByCANForFY(r.Context(), contractID, canID, fy)
	if err != nil {
		s.writeLedgerError(w, r, applog.OpQuery, "contract", err)
		return
	}
	NewJSONResponse().Body(contributionResponse{
		ContractID: contractID,
		CANID:      canID,
		FiscalYear: fy,
		Amount:     amount,
	}).Write(w)
}

func (s *Server) handleLineItemsForFY(w http.ResponseWriter, r *http.Request) {
	contractID, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	fy, err := QueryFiscalYear(r.URL.Query(), "fy")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	items, err := s.ledger.LineItemsForFY(r.Context(), contractID, fy)
	if err != nil {
		s.writeLedgerError(w, r, applog.OpQuery, "contract_line_item_fiscal_year", err)
		return
	}
	NewJSONResponse().Body(items).Write(w)
}

func canYearParams(w http.ResponseWriter, r *http.Request) (int64, int, bool) {
	canID, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return 0, 0, false
	}
	fy, err := PathFiscalYear(r, "fy")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return 0, 0, false
	}
	return canID, fy, true
}
