// Package server exposes the dossier pipeline over HTTP. The core stays a
// plain library; this layer only decodes requests, runs the pipeline and
// persists the outcome for the portfolio views.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/correspondente/dossie-engine/internal/common"
	"github.com/correspondente/dossie-engine/internal/export"
	"github.com/correspondente/dossie-engine/internal/pipeline"
	"github.com/correspondente/dossie-engine/internal/store"
)

type Server struct {
	logger    *slog.Logger
	processor *pipeline.Processor
	repo      store.DossierRepository
	exporter  *export.Service
}

func New(logger *slog.Logger, processor *pipeline.Processor, repo store.DossierRepository, exporter *export.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{logger: logger, processor: processor, repo: repo, exporter: exporter}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/dossiers", s.handleCreateDossier)
		r.Get("/dossiers", s.handleListDossiers)
		r.Get("/dossiers/{id}", s.handleGetDossier)
		r.Patch("/dossiers/{id}/status", s.handleUpdateStatus)
		r.Get("/export.xlsx", s.handleExport)
	})
	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
		s.writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
