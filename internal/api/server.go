// Package api exposes the credit risk services over HTTP: training,
// prediction, feature selection, evaluation, and model reporting.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/pkiage/tool-credit-risk-modelling/domain/dataset"
	"github.com/pkiage/tool-credit-risk-modelling/internal/audit"
	"github.com/pkiage/tool-credit-risk-modelling/internal/inference"
	"github.com/pkiage/tool-credit-risk-modelling/internal/jobs"
	"github.com/pkiage/tool-credit-risk-modelling/internal/store"
	"github.com/pkiage/tool-credit-risk-modelling/internal/training"
)

// Deps wires the server to the application services.
type Deps struct {
	Registry  *store.Registry
	Snapshots *store.FileStore // nil disables snapshot cleanup on delete
	Training  *training.Service
	Inference *inference.Service
	Selection *jobs.Pool
	Recorder  *audit.Recorder
	Data      *dataset.Dataset
	Log       zerolog.Logger
	Version   string
	APIKey    string // non-empty enables X-API-Key checks on /api/v1
}

// Server routes HTTP requests to the application services.
type Server struct {
	router    *chi.Mux
	registry  *store.Registry
	snapshots *store.FileStore
	training  *training.Service
	inference *inference.Service
	selection *jobs.Pool
	recorder  *audit.Recorder
	data      *dataset.Dataset
	log       zerolog.Logger
	version   string
	apiKey    string
}

func NewServer(deps Deps) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		registry:  deps.Registry,
		snapshots: deps.Snapshots,
		training:  deps.Training,
		inference: deps.Inference,
		selection: deps.Selection,
		recorder:  deps.Recorder,
		data:      deps.Data,
		log:       deps.Log,
		version:   deps.Version,
		apiKey:    deps.APIKey,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(apiKeyAuth(s.apiKey))
		}

		r.Post("/feature-selection", s.handleFeatureSelection)
		r.Get("/feature-selection/methods", s.handleSelectionMethods)

		r.Post("/train", s.handleTrain)
		r.Post("/predict", s.handlePredict)
		r.Post("/predict/batch", s.handlePredictBatch)
		r.Post("/evaluate", s.handleEvaluate)

		r.Get("/models", s.handleListModels)
		r.Get("/models/{id}", s.handleGetModel)
		r.Delete("/models/{id}", s.handleDeleteModel)
		r.Get("/models/{id}/report", s.handleModelReport)
		r.Get("/models/{id}/report.xlsx", s.handleModelWorkbook)
	})
}

type healthResponse struct {
	Status     string    `json:"status"`
	Version    string    `json:"version"`
	ModelCount int       `json:"model_count"`
	Timestamp  time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, healthResponse{
		Status:     "healthy",
		Version:    s.version,
		ModelCount: s.registry.Count(sessionFrom(r)),
		Timestamp:  time.Now().UTC(),
	})
}
