package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/careloop/rxengine/internal/domain"
	"github.com/careloop/rxengine/internal/service"
)

type RecommendationHandler struct {
	svc *service.RecommendationService
}

func NewRecommendationHandler(svc *service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{svc: svc}
}

type recommendRequest struct {
	SymptomsText string   `json:"symptoms_text"`
	Conditions   []string `json:"conditions,omitempty"`
	Limit        int      `json:"limit,omitempty"`
}

type recommendResponse struct {
	Recommendations []domain.RecommendationResult `json:"recommendations"`
}

func (h *RecommendationHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sig := domain.QuerySignal{Text: req.SymptomsText, Conditions: req.Conditions}
	results, err := h.svc.Recommend(r.Context(), sig, req.Limit)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyQuery):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrCatalogUnavailable):
			writeError(w, http.StatusServiceUnavailable, "medicine catalog unavailable, retry later")
		default:
			writeError(w, http.StatusInternalServerError, "failed to generate recommendations")
		}
		return
	}

	writeJSON(w, http.StatusOK, recommendResponse{Recommendations: results})
}
