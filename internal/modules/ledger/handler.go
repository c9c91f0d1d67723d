package ledger

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mwansakal/sokoni-backend/internal/modules/fault"
)

// Handler exposes the in-process token bank for dev and sandbox use: minting
// test funds, granting pull allowances, and checking balances. Not registered
// when the backend runs against a production rail.
type Handler struct{ bank *MemoryLedger }

func NewHandler(bank *MemoryLedger) *Handler { return &Handler{bank: bank} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/ledger", func(r chi.Router) {
		r.Post("/mint", h.mint)
		r.Post("/approve", h.approve)
		r.Get("/balances/{token}/{account}", h.balance)
	})
}

func (h *Handler) mint(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Token   string `json:"token"`
		Account string `json:"account"`
		Amount  int64  `json:"amount"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	token, err1 := uuid.Parse(req.Token)
	account, err2 := uuid.Parse(req.Account)
	if err1 != nil || err2 != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid token or account id"})
		return
	}
	if err := h.bank.Mint(r.Context(), token, account, req.Amount); err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "minted"})
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Token   string `json:"token"`
		Owner   string `json:"owner"`
		Spender string `json:"spender"`
		Amount  int64  `json:"amount"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	token, err1 := uuid.Parse(req.Token)
	owner, err2 := uuid.Parse(req.Owner)
	spender, err3 := uuid.Parse(req.Spender)
	if err1 != nil || err2 != nil || err3 != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if err := h.bank.Approve(r.Context(), token, owner, spender, req.Amount); err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	token, err1 := uuid.Parse(chi.URLParam(r, "token"))
	account, err2 := uuid.Parse(chi.URLParam(r, "account"))
	if err1 != nil || err2 != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid token or account id"})
		return
	}
	balance, err := h.bank.BalanceOf(r.Context(), token, account)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]int64{"balance": balance})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
