package api

import (
	"net/http"

	"github.com/pkiage/tool-credit-risk-modelling/domain/evaluation"
)

type evaluateRequest struct {
	Labels        []float64 `json:"labels"`
	Probabilities []float64 `json:"probabilities"`
	// Threshold skips Youden optimization and evaluates at the given
	// cutoff instead.
	Threshold *float64 `json:"threshold,omitempty"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	metrics, err := evaluation.EvaluateModel(req.Labels, req.Probabilities,
		evaluation.EvaluateOptions{Threshold: req.Threshold})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, metrics)
}
