package registry

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mwansakal/sokoni-backend/internal/modules/auth"
	"github.com/mwansakal/sokoni-backend/internal/modules/fault"
)

// Handler exposes registry HTTP endpoints. Mutating routes require an
// authenticated caller; policy routes additionally require the administrator,
// enforced by the service.
type Handler struct {
	service    Service
	middleware func(http.Handler) http.Handler
}

func NewHandler(service Service, middleware func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, middleware: middleware}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/registry", func(r chi.Router) {
		r.Get("/stores/count", h.totalStores)
		r.Get("/stores/owner/{owner_id}", h.storesByOwner)
		r.Get("/stores/{id}/valid", h.isValidStore)
		r.Get("/tokens/{token}", h.isTokenSupported)
		r.Get("/fee", h.feePolicy)

		r.Group(func(r chi.Router) {
			r.Use(h.middleware)
			r.Post("/stores", h.createStore)
			r.Patch("/fee", h.updateFee)                 // admin
			r.Patch("/fee-collector", h.updateCollector) // admin
			r.Post("/tokens", h.addToken)                // admin
			r.Delete("/tokens/{token}", h.removeToken)   // admin
		})
	})
}

func (h *Handler) createStore(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerID(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	type request struct {
		Name        string `json:"name"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	store, err := h.service.CreateStorefront(r.Context(), caller, req.Name, req.Slug, req.Description)
	if err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	info, err := store.Info()
	if err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, info)
}

func (h *Handler) totalStores(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]int{"total": h.service.TotalStorefronts()})
}

func (h *Handler) storesByOwner(w http.ResponseWriter, r *http.Request) {
	owner, err := uuid.Parse(chi.URLParam(r, "owner_id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid owner id"})
		return
	}
	respond(w, http.StatusOK, h.service.StorefrontsByOwner(owner))
}

func (h *Handler) isValidStore(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid store id"})
		return
	}
	respond(w, http.StatusOK, map[string]bool{"valid": h.service.IsValidStore(id)})
}

func (h *Handler) isTokenSupported(w http.ResponseWriter, r *http.Request) {
	token, err := uuid.Parse(chi.URLParam(r, "token"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid token id"})
		return
	}
	respond(w, http.StatusOK, map[string]bool{"supported": h.service.IsTokenSupported(token)})
}

func (h *Handler) feePolicy(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]interface{}{
		"fee_bps":       h.service.PlatformFeeBps(),
		"fee_collector": h.service.FeeCollector(),
	})
}

func (h *Handler) updateFee(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerID(r.Context())
	type request struct {
		FeeBps int64 `json:"fee_bps"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.service.UpdatePlatformFee(r.Context(), caller, req.FeeBps); err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "fee updated"})
}

func (h *Handler) updateCollector(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerID(r.Context())
	type request struct {
		Collector string `json:"collector"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	collector, err := uuid.Parse(req.Collector)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid collector id"})
		return
	}
	if err := h.service.UpdateFeeCollector(r.Context(), caller, collector); err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "fee collector updated"})
}

func (h *Handler) addToken(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerID(r.Context())
	type request struct {
		Token string `json:"token"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	token, err := uuid.Parse(req.Token)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid token id"})
		return
	}
	if err := h.service.AddSupportedToken(r.Context(), caller, token); err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, map[string]string{"status": "token added"})
}

func (h *Handler) removeToken(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerID(r.Context())
	token, err := uuid.Parse(chi.URLParam(r, "token"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid token id"})
		return
	}
	if err := h.service.RemoveSupportedToken(r.Context(), caller, token); err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "token removed"})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
