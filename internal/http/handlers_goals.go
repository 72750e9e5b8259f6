package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	filter := core.GoalFilter(r.URL.Query().Get("filter"))
	by := core.GoalSort(r.URL.Query().Get("sort"))

	goals, err := s.svc.ListGoals(r.Context(), filter, by)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildGoalList(goals))
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	g, err := s.svc.GetGoal(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildGoalResponse(g))
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.svc.CreateGoal(r.Context(), g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, buildGoalResponse(created))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	g.ID = id

	stored, err := s.svc.UpdateGoal(r.Context(), g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildGoalResponse(stored))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.svc.DeleteGoal(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req depositRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}

	g, err := s.svc.Deposit(r.Context(), id, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildGoalResponse(g))
}

func (s *Server) handleGoalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.GoalStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildGoalStats(stats))
}
