package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-shop-orders.git/internal/catalog"
	"github.com/ariefcatur/go-shop-orders.git/internal/orders"
)

// ProductsHandler owns the seller/admin listing surface. Storefront reads live
// on OrdersHandler.
type ProductsHandler struct {
	Catalog *catalog.Repo
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Post("/products", h.create)
	r.Put("/products/{id}", h.update)
	r.Post("/products/{id}/review", h.review)
}

type productReq struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int    `json:"price_cents"`
	Stock      int    `json:"stock"`
	ImageURL   string `json:"image_url"`
}

func (r productReq) valid() bool {
	return r.Name != "" && r.PriceCents >= 0 && r.Stock >= 0
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	if id.Role != orders.RoleSeller && id.Role != orders.RoleAdmin {
		writeError(w, orders.ErrPermissionDenied)
		return
	}
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product"})
		return
	}

	p := &catalog.Product{
		SellerID:   id.UserID,
		Name:       req.Name,
		Category:   req.Category,
		PriceCents: req.PriceCents,
		Stock:      req.Stock,
		ImageURL:   req.ImageURL,
	}
	if err := h.Catalog.CreateProduct(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// update replaces the listing and drops it back to pending review. Sellers may
// only touch their own products; admins may touch any.
func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	productID := chi.URLParam(r, "id")

	existing, err := h.Catalog.GetProduct(r.Context(), productID)
	if err != nil {
		writeError(w, err)
		return
	}
	switch id.Role {
	case orders.RoleAdmin:
	case orders.RoleSeller:
		if existing.SellerID != id.UserID {
			writeError(w, orders.ErrPermissionDenied)
			return
		}
	default:
		writeError(w, orders.ErrPermissionDenied)
		return
	}

	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product"})
		return
	}

	existing.Name = req.Name
	existing.Category = req.Category
	existing.PriceCents = req.PriceCents
	existing.Stock = req.Stock
	existing.ImageURL = req.ImageURL
	if err := h.Catalog.UpdateProduct(r.Context(), existing); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated, pending review"})
}

type reviewReq struct {
	Verdict catalog.ReviewStatus `json:"verdict"`
}

func (h *ProductsHandler) review(w http.ResponseWriter, r *http.Request) {
	id := callerIdentity(r)
	if id.Role != orders.RoleAdmin {
		writeError(w, orders.ErrPermissionDenied)
		return
	}
	var req reviewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Verdict != catalog.ReviewApproved && req.Verdict != catalog.ReviewRejected {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "verdict must be approved or rejected"})
		return
	}
	if err := h.Catalog.SetReviewStatus(r.Context(), chi.URLParam(r, "id"), req.Verdict); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "review recorded"})
}
