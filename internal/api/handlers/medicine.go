package handlers

import (
	"net/http"

	"github.com/careloop/rxengine/internal/domain"
)

// MedicineHandler exposes the read-only catalog view. The catalog itself
// (CRUD, stock) is owned by the surrounding clinic application.
type MedicineHandler struct {
	catalog domain.CatalogStore
}

func NewMedicineHandler(catalog domain.CatalogStore) *MedicineHandler {
	return &MedicineHandler{catalog: catalog}
}

func (h *MedicineHandler) List(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.catalog.List(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "medicine catalog unavailable, retry later")
		return
	}
	if candidates == nil {
		candidates = []domain.Candidate{}
	}
	writeJSON(w, http.StatusOK, candidates)
}
