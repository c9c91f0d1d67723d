package storefront

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mwansakal/sokoni-backend/internal/modules/auth"
	"github.com/mwansakal/sokoni-backend/internal/modules/fault"
)

// Directory resolves issued storefronts. The registry implements it.
type Directory interface {
	GetStorefront(id uuid.UUID) (*Storefront, error)
}

// Handler exposes the per-storefront HTTP surface. Every route resolves the
// storefront through the registry directory, so an id the registry never
// issued fails before any state is touched.
type Handler struct {
	stores     Directory
	middleware func(http.Handler) http.Handler
}

func NewHandler(stores Directory, middleware func(http.Handler) http.Handler) *Handler {
	return &Handler{stores: stores, middleware: middleware}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/stores/{store_id}", func(r chi.Router) {
		r.Get("/", h.storeInfo)
		r.Get("/products", h.listProducts)
		r.Get("/products/{product_id}", h.getProduct)
		r.Get("/products/{product_id}/splits", h.listSplits)
		r.Get("/orders/{order_id}", h.getOrder)
		r.Get("/orders", h.listOrders) // ?buyer={account_id}

		r.Group(func(r chi.Router) {
			r.Use(h.middleware)
			r.Patch("/", h.updateInfo)
			r.Post("/activate", h.activate)
			r.Post("/deactivate", h.deactivate)

			r.Post("/products", h.addProduct)
			r.Put("/products/{product_id}", h.updateProduct)
			r.Patch("/products/{product_id}/inventory", h.updateInventory)

			r.Post("/orders", h.createOrder)
			r.Post("/orders/{order_id}/pay", h.processPayment)
			r.Post("/orders/{order_id}/ship", h.markShipped)
			r.Post("/orders/{order_id}/confirm", h.confirmDelivery)
			r.Post("/orders/{order_id}/refund", h.refundOrder)
			r.Post("/orders/{order_id}/cancel", h.cancelOrder)

			r.Post("/products/{product_id}/splits", h.addSplit)
			r.Delete("/products/{product_id}/splits/{index}", h.removeSplit)

			r.Post("/withdrawals", h.withdraw)
		})
	})
}

// resolve parses the store id and looks the storefront up in the registry.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (*Storefront, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "store_id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid store id"})
		return nil, false
	}
	store, err := h.stores.GetStorefront(id)
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return nil, false
	}
	return store, true
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	caller, ok := auth.CallerID(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return uuid.Nil, false
	}
	return caller, true
}

func pathID(r *http.Request, name string) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, name), 10, 64)
}

// ── store metadata ────────────────────────────────────────────────────────────

func (h *Handler) storeInfo(w http.ResponseWriter, r *http.Request) {
	store, ok := h.resolve(w, r)
	if !ok {
		return
	}
	info, err := store.Info()
	if err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, info)
}

func (h *Handler) updateInfo(w http.ResponseWriter, r *http.Request) {
	store, ok := h.resolve(w, r)
	if !ok {
		return
	}
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req UpdateInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := store.UpdateInfo(r.Context(), caller, req); err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	info, err := store.Info()
	if err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, info)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	store, ok := h.resolve(w, r)
	if !ok {
		return
	}
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := store.SetActive(r.Context(), caller, active); err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	info, err := store.Info()
	if err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, info)
}

// ── catalog ───────────────────────────────────────────────────────────────────

func (h *Handler) addProduct(w http.ResponseWriter, r *http.Request) {
	store, ok := h.resolve(w, r)
	if !ok {
		return
	}
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req AddProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	id, err := store.AddProduct(r.Context(), caller, req)
	if err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, map[string]uint64{"product_id": id})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	store, ok := h.resolve(w, r)
	if !ok {
		return
	}
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "product_id")
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := store.UpdateProduct(r.Context(), caller, id, req); err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "product updated"})
}

func (h *Handler) updateInventory(w http.ResponseWriter, r *http.Request) {
	store, ok := h.resolve(w, r)
	if !ok {
		return
	}
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "product_id")
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	type request struct {
		Inventory int64 `json:"inventory"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := store.UpdateInventory(r.Context(), caller, id, req.Inventory); err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "inventory updated"})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	store, ok := h.resolve(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "product_id")
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	p, err := store.GetProduct(id)
	if err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	store, ok := h.resolve(w, r)
	if !ok {
		return
	}
	products, err := store.ListProducts()
	if err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, products)
}

// ── orders ────────────────────────────────────────────────────────────────────

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	store, ok := h.resolve(w, r)
	if !ok {
		return
	}
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	id, err := store.CreateOrder(r.Context(), caller, req)
	if err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, map[string]uint64{"order_id": id})
}

func (h *Handler) orderAction(w http.ResponseWriter, r *http.Request, action func(store *Storefront, caller uuid.UUID, orderID uint64) error, done string) {
	store, ok := h.resolve(w, r)
	if !ok {
		return
	}
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "order_id")
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}
	if err := action(store, caller, id); err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": done})
}

func (h *Handler) processPayment(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, func(s *Storefront, c uuid.UUID, id uint64) error {
		return s.ProcessPayment(r.Context(), c, id)
	}, "payment processed")
}

func (h *Handler) markShipped(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, func(s *Storefront, c uuid.UUID, id uint64) error {
		return s.MarkOrderShipped(r.Context(), c, id)
	}, "order shipped")
}

func (h *Handler) confirmDelivery(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, func(s *Storefront, c uuid.UUID, id uint64) error {
		return s.ConfirmDelivery(r.Context(), c, id)
	}, "delivery confirmed")
}

func (h *Handler) refundOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, func(s *Storefront, c uuid.UUID, id uint64) error {
		return s.RefundOrder(r.Context(), c, id)
	}, "order refunded")
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, func(s *Storefront, c uuid.UUID, id uint64) error {
		return s.CancelOrder(r.Context(), c, id)
	}, "order cancelled")
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	store, ok := h.resolve(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "order_id")
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}
	o, err := store.GetOrder(id)
	if err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	store, ok := h.resolve(w, r)
	if !ok {
		return
	}
	buyer, err := uuid.Parse(r.URL.Query().Get("buyer"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "buyer query parameter is required"})
		return
	}
	orders, err := store.ListOrdersByBuyer(buyer)
	if err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, orders)
}

// ── revenue splits & funds ────────────────────────────────────────────────────

func (h *Handler) addSplit(w http.ResponseWriter, r *http.Request) {
	store, ok := h.resolve(w, r)
	if !ok {
		return
	}
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "product_id")
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	var req AddSplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := store.AddRevenueSplit(r.Context(), caller, id, req); err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, map[string]string{"status": "split added"})
}

func (h *Handler) removeSplit(w http.ResponseWriter, r *http.Request) {
	store, ok := h.resolve(w, r)
	if !ok {
		return
	}
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "product_id")
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid split index"})
		return
	}
	if err := store.RemoveRevenueSplit(r.Context(), caller, id, index); err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "split removed"})
}

func (h *Handler) listSplits(w http.ResponseWriter, r *http.Request) {
	store, ok := h.resolve(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "product_id")
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	splits, err := store.ListRevenueSplits(id)
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, splits)
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	store, ok := h.resolve(w, r)
	if !ok {
		return
	}
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
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
	amount, err := store.WithdrawFunds(r.Context(), caller, token)
	if err != nil {
		respond(w, fault.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]int64{"withdrawn": amount})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
