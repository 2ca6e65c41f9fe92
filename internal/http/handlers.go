package http

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"ops/internal/core"
	applog "ops/internal/log"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady answers 200 only while the database responds.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"templates": "ok", "database": "ok"}
	status := http.StatusOK
	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = http.StatusServiceUnavailable
	}
	if err := s.ledger.Ping(ctx); err != nil {
		checks["database"] = "failed: " + err.Error()
		status = http.StatusServiceUnavailable
	}
	NewJSONResponse().Status(status).Body(checks).Write(w)
}

type canRow struct {
	ID      int64
	Display string
	Purpose string
}

type fiscalYearRow struct {
	ID         int64
	FiscalYear int
	Total      string
	Available  string
	Additional string
	Notes      string
}

type contractRow struct {
	ID            int64
	Name          string
	ResearchAreas []string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", nil)
}

func (s *Server) handleCANList(w http.ResponseWriter, r *http.Request) {
	cans, err := s.ledger.ListCANs(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	rows := make([]canRow, 0, len(cans))
	for _, c := range cans {
		rows = append(rows, canRow{ID: c.ID, Display: c.DisplayName(), Purpose: c.Purpose})
	}
	s.render(w, r, "can_list.html", struct{ CANs []canRow }{CANs: rows})
}

func (s *Server) handleCANDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := PathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	can, err := s.ledger.GetCAN(ctx, id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	snapshots, err := s.ledger.ListCANFiscalYears(ctx)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	var years []fiscalYearRow
	for _, f := range snapshots {
		if f.CANID != id {
			continue
		}
		years = append(years, fiscalYearRow{
			ID:         f.ID,
			FiscalYear: f.FiscalYear,
			Total:      f.TotalFiscalYearFunding.String(),
			Available:  f.AmountAvailable.String(),
			Additional: f.AdditionalAmountAnticipated().String(),
			Notes:      f.Notes,
		})
	}

	all, err := s.ledger.ListContracts(ctx)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	var contracts []contractRow
	for _, c := range all {
		if !slices.Contains(c.CANIDs, id) {
			continue
		}
		areas, err := s.ledger.ContractResearchAreas(ctx, c.ID)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		contracts = append(contracts, contractRow{ID: c.ID, Name: c.Name, ResearchAreas: areas})
	}

	s.render(w, r, "can_detail.html", struct {
		CAN         core.CAN
		Display     string
		FiscalYears []fiscalYearRow
		Contracts   []contractRow
	}{
		CAN:         can,
		Display:     can.DisplayName(),
		FiscalYears: years,
		Contracts:   contracts,
	})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	ctx := r.Context()
	if s.templates == nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Templates not loaded", "template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		fields := applog.NewFields().WithComponent(applog.ComponentTemplate)
		fields["template"] = name
		s.events.LogError(ctx, "Template execution failed", err, applog.ErrorTypeInternal, applog.OpRender, fields)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()
	s.events.LogError(ctx, "Browse page failed", err, applog.ErrorTypeDatabase, applog.OpRender, nil)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
