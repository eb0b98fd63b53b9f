package api

import (
	"net/http"

	"github.com/pkiage/tool-credit-risk-modelling/internal/inference"
)

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req inference.Request
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	resp, err := s.inference.Predict(r.Context(), sessionFrom(r), req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	var req inference.BatchRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	resp, err := s.inference.PredictBatch(r.Context(), sessionFrom(r), req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}
