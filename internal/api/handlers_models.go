package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkiage/tool-credit-risk-modelling/adapters/excel"
	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
	"github.com/pkiage/tool-credit-risk-modelling/domain/evaluation"
	"github.com/pkiage/tool-credit-risk-modelling/internal/audit"
	"github.com/pkiage/tool-credit-risk-modelling/internal/report"
	"github.com/pkiage/tool-credit-risk-modelling/internal/store"
	"github.com/pkiage/tool-credit-risk-modelling/internal/training"
)

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req training.Request
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	result, err := s.training.Train(r.Context(), sessionFrom(r), s.data, req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

type modelListResponse struct {
	Models []store.Metadata `json:"models"`
	Count  int              `json:"count"`
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	models := s.registry.List(sessionFrom(r))
	s.respondJSON(w, http.StatusOK, modelListResponse{Models: models, Count: len(models)})
}

type modelDetailResponse struct {
	Metadata store.Metadata           `json:"metadata"`
	Metrics  *evaluation.ModelMetrics `json:"metrics,omitempty"`
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	rec, err := s.registry.Get(sessionFrom(r), core.ModelID(chi.URLParam(r, "id")))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, modelDetailResponse{Metadata: rec.Metadata, Metrics: rec.Metrics})
}

type modelDeleteResponse struct {
	ModelID core.ModelID `json:"model_id"`
	Deleted bool         `json:"deleted"`
}

func (s *Server) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	id := core.ModelID(chi.URLParam(r, "id"))
	if err := s.registry.Delete(session, id); err != nil {
		s.respondError(w, err)
		return
	}
	if s.snapshots != nil {
		if err := s.snapshots.Delete(id); err != nil && !core.IsNotFoundError(err) {
			s.log.Warn().Err(err).Str("model_id", id.String()).Msg("snapshot delete failed")
		}
	}
	s.recorder.Record(r.Context(), audit.Event{
		Type:      audit.EventModelDeleted,
		SessionID: session.String(),
		ModelID:   id.String(),
	})
	s.respondJSON(w, http.StatusOK, modelDeleteResponse{ModelID: id, Deleted: true})
}

func (s *Server) handleModelReport(w http.ResponseWriter, r *http.Request) {
	rec, err := s.registry.Get(sessionFrom(r), core.ModelID(chi.URLParam(r, "id")))
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(report.HTML(rec.Metadata, rec.Metrics)); err != nil {
		s.log.Error().Err(err).Msg("write report failed")
	}
}

func (s *Server) handleModelWorkbook(w http.ResponseWriter, r *http.Request) {
	rec, err := s.registry.Get(sessionFrom(r), core.ModelID(chi.URLParam(r, "id")))
	if err != nil {
		s.respondError(w, err)
		return
	}
	// Build in memory first so workbook failures can still return JSON.
	var buf bytes.Buffer
	if err := excel.WriteWorkbook(&buf, rec.Metadata, rec.Metrics); err != nil {
		s.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", rec.Metadata.ModelID.String()+".xlsx"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.log.Error().Err(err).Msg("write workbook failed")
	}
}
