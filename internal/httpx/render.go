package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-shop-orders.git/internal/cart"
	"github.com/ariefcatur/go-shop-orders.git/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates domain error kinds to HTTP responses. Unknown errors
// surface as an opaque 500; the cause is in the server log, not the body.
func writeError(w http.ResponseWriter, err error) {
	var code int
	switch {
	case errors.Is(err, orders.ErrValidation),
		errors.Is(err, orders.ErrEmptyCart),
		errors.Is(err, orders.ErrAddressIncomplete),
		errors.Is(err, cart.ErrInvalidQuantity):
		code = http.StatusBadRequest
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, cart.ErrNotInCart):
		code = http.StatusNotFound
	case errors.Is(err, orders.ErrPermissionDenied):
		code = http.StatusForbidden
	case errors.Is(err, orders.ErrInvalidState),
		errors.Is(err, orders.ErrProductUnavailable),
		errors.Is(err, cart.ErrProductUnavailable):
		code = http.StatusConflict
	case errors.Is(err, orders.ErrInsufficientStock),
		errors.Is(err, orders.ErrConcurrentStockChange),
		errors.Is(err, cart.ErrInsufficientStock):
		code = http.StatusConflict
	case errors.Is(err, orders.ErrInvalidOTP):
		code = http.StatusUnprocessableEntity
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// identity carries the already-authenticated caller, passed in by the auth
// layer in front of this service. Trusted as-is.
type identity struct {
	UserID string
	Email  string
	Role   orders.Role
}

func callerIdentity(r *http.Request) identity {
	role := orders.Role(r.Header.Get("X-User-Role"))
	if role == "" {
		role = orders.RoleCustomer
	}
	return identity{
		UserID: r.Header.Get("X-User-Id"),
		Email:  r.Header.Get("X-User-Email"),
		Role:   role,
	}
}
