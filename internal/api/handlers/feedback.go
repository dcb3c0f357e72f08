package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/careloop/rxengine/internal/domain"
	"github.com/careloop/rxengine/internal/service"
)

type FeedbackHandler struct {
	engine *service.LearningEngine
}

func NewFeedbackHandler(engine *service.LearningEngine) *FeedbackHandler {
	return &FeedbackHandler{engine: engine}
}

type feedbackRequest struct {
	SymptomsText     string `json:"symptoms_text"`
	SelectedMedicine string `json:"selected_medicine"`
}

type feedbackResponse struct {
	Success bool                `json:"success"`
	Weights domain.WeightVector `json:"weights"`
}

func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	weights, err := h.engine.ApplyFeedback(r.Context(), req.SymptomsText, req.SelectedMedicine)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptySymptoms),
			errors.Is(err, service.ErrUnknownMedicine):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrCatalogUnavailable):
			writeError(w, http.StatusServiceUnavailable, "medicine catalog unavailable, retry later")
		case errors.Is(err, service.ErrPersistence):
			writeError(w, http.StatusServiceUnavailable, "feedback not recorded, retry later")
		default:
			writeError(w, http.StatusInternalServerError, "failed to apply feedback")
		}
		return
	}

	writeJSON(w, http.StatusOK, feedbackResponse{Success: true, Weights: weights})
}
