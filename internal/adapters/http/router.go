package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tradeforge/insight-mining-service/internal/application"
	"github.com/tradeforge/insight-mining-service/internal/ports"
)

type Handler struct {
	service  *application.Service
	verifier ports.TokenVerifier
}

func NewHandler(service *application.Service, verifier ports.TokenVerifier) *Handler {
	return &Handler{service: service, verifier: verifier}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ok", nil) })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ready", nil) })

	r.Route("/api/v1/insights", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Post("/drivers/run", handler.runDriverAnalysis)
			r.Get("/drivers", handler.getDriverResults)
			r.Post("/patterns/run", handler.runPatternMining)
			r.Get("/patterns", handler.getPatternResults)
			r.Get("/personas/summary", handler.getPersonaSummary)
			r.Get("/runs/{run_id}", handler.getSyncRun)
		})
	})
	return r
}
