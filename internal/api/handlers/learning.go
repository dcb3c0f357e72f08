package handlers

import (
	"net/http"

	"github.com/careloop/rxengine/internal/service"
)

type LearningHandler struct {
	engine *service.LearningEngine
}

func NewLearningHandler(engine *service.LearningEngine) *LearningHandler {
	return &LearningHandler{engine: engine}
}

func (h *LearningHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "learning store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type purgeResponse struct {
	EventsRemoved int64 `json:"events_removed"`
}

// Purge is the explicit administrative purge of the learning audit trail.
func (h *LearningHandler) Purge(w http.ResponseWriter, r *http.Request) {
	removed, err := h.engine.PurgeEvents(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "learning store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, purgeResponse{EventsRemoved: removed})
}
