package http

import "net/http"

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	summary, err := s.svc.MonthlySummary(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildSummaryResponse(summary))
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	kpi, err := s.svc.BudgetKPI(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildBudgetResponse(kpi))
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	projection, err := s.svc.Projection(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildProjectionResponse(projection))
}

func (s *Server) handleConsolidated(w http.ResponseWriter, r *http.Request) {
	consolidation, ret, err := s.svc.ConsolidatedPortfolio(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildConsolidatedResponse(consolidation, ret))
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.svc.Positions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildPositionList(positions))
}
