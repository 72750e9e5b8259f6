package http

import "net/http"

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.svc.ListAssets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buildAssetList(assets))
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.svc.CreateAsset(r.Context(), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, buildAssetResponse(created))
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.svc.DeleteAsset(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
