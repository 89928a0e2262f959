package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-shop-orders.git/internal/catalog"
	"github.com/ariefcatur/go-shop-orders.git/internal/orders"
	"github.com/ariefcatur/go-shop-orders.git/internal/redisx"
)

type OrdersHandler struct {
	Orders  *orders.Service
	Catalog *catalog.Repo
	Redis   *redis.Client
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Get("/products", h.listProducts)
	r.Post("/checkout", h.checkout)
	r.Get("/orders", h.myOrders)
	r.Get("/orders/{id}/status", h.orderStatus)
	r.Post("/orders/{id}/cancel", h.customerCancel)
	r.Post("/orders/{id}/seller-cancel", h.sellerCancel)
	r.Post("/orders/{id}/admin-cancel", h.adminCancel)
	r.Post("/orders/{id}/delivery-otp", h.generateOTP)
	r.Post("/orders/{id}/confirm-delivery", h.confirmDelivery)
}

type checkoutReq struct {
	Address orders.Address `json:"address"`
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.Checkout(ctx, id.UserID, id.Email, req.Address)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) myOrders(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	if id.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing user"})
		return
	}
	views, err := h.Orders.ListMyOrders(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *OrdersHandler) orderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache first, store second
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	o, err := h.Orders.Store.GetOrder(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	writeJSON(w, http.StatusOK, map[string]any{"status": o.Status})
}

func (h *OrdersHandler) customerCancel(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	o, err := h.Orders.CancelByCustomer(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(r.Context(), o.ID, o.Status)
	writeJSON(w, http.StatusOK, o)
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *OrdersHandler) sellerCancel(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	var req cancelReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	o, err := h.Orders.CancelBySeller(r.Context(), id.UserID, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(r.Context(), o.ID, o.Status)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) adminCancel(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	var req cancelReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if id.Role != orders.RoleAdmin {
		writeError(w, orders.ErrPermissionDenied)
		return
	}
	o, err := h.Orders.CancelByAdmin(r.Context(), id.UserID, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(r.Context(), o.ID, o.Status)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) generateOTP(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	expires, err := h.Orders.GenerateDeliveryOTP(r.Context(), chi.URLParam(r, "id"),
		orders.Actor{ID: id.UserID, Role: id.Role})
	if err != nil {
		writeError(w, err)
		return
	}
	// the code itself stays off this response; only the customer's order
	// view surfaces it
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "OTP generated; it is visible on the customer's orders page",
		"expires_at": expires,
	})
}

type confirmReq struct {
	OTP string `json:"otp"`
}

func (h *OrdersHandler) confirmDelivery(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	var req confirmReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	o, err := h.Orders.ConfirmDelivery(r.Context(), chi.URLParam(r, "id"),
		orders.Actor{ID: id.UserID, Role: id.Role}, req.OTP)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(r.Context(), o.ID, o.Status)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Catalog.ListApproved(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, orderID string, status orders.Status) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = h.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, status), redisx.TTLStatusCache).Err()
}
