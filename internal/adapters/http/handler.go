package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tradeforge/insight-mining-service/internal/application"
	"github.com/tradeforge/insight-mining-service/internal/contracts"
)

func (h *Handler) runDriverAnalysis(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.RunDriverAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), actor.RequestID)
		return
	}
	result, err := h.service.RunDriverAnalysis(r.Context(), actor, application.DriverAnalysisInput{
		Outcome:   strings.TrimSpace(req.Outcome),
		Variables: req.Variables,
	})
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg, actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "driver analysis completed", result)
}

func (h *Handler) getDriverResults(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	drivers, err := h.service.GetDriverResults(r.Context(), actor, strings.TrimSpace(r.URL.Query().Get("outcome")))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg, actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "", drivers)
}

func (h *Handler) runPatternMining(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.RunPatternMiningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), actor.RequestID)
		return
	}
	result, err := h.service.RunPatternMining(r.Context(), actor, application.PatternMiningInput{
		Outcome:             strings.TrimSpace(req.Outcome),
		MinUsersPerExposure: req.MinUsersPerExposure,
		MaxCandidates:       req.MaxCandidates,
	})
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg, actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "pattern mining completed", result)
}

func (h *Handler) getPatternResults(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	combinations, err := h.service.GetPatternResults(r.Context(), actor, strings.TrimSpace(r.URL.Query().Get("outcome")))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg, actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "", combinations)
}

func (h *Handler) getPersonaSummary(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	summary, err := h.service.GetPersonaSummary(r.Context(), actor)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg, actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "", summary)
}

func (h *Handler) getSyncRun(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	run, err := h.service.GetSyncRun(r.Context(), actor, chi.URLParam(r, "run_id"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg, actor.RequestID)
		return
	}
	writeSuccess(w, http.StatusOK, "", run)
}
