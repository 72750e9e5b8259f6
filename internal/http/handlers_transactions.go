package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	txs, err := s.svc.ListTransactions(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildTransactionList(txs))
}

// handleTransactionGroups returns the period's transactions split into
// the three listing groups with their subtotals.
func (s *Server) handleTransactionGroups(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	txs, err := s.svc.ListTransactions(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildTransactionGroups(core.Partition(txs)))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.svc.CreateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, buildTransactionResponse(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	t.ID = id

	stored, err := s.svc.UpdateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildTransactionResponse(stored))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.svc.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
