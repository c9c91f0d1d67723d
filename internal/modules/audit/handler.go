package audit

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Handler exposes the in-process audit trail.
type Handler struct{ sink *MemorySink }

func NewHandler(sink *MemorySink) *Handler { return &Handler{sink: sink} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/audit", func(r chi.Router) {
		r.Get("/stores/{store_id}", h.listStoreEvents) // GET /api/v1/audit/stores/{store_id}
	})
}

func (h *Handler) listStoreEvents(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(chi.URLParam(r, "store_id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid store_id"})
		return
	}
	respond(w, http.StatusOK, h.sink.ByStore(storeID))
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
