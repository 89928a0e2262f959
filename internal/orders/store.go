package orders

import (
	"context"
	"time"
)

// CancelRequest is one cancellation attempt. Restore carries the lines whose
// stock must be put back; the caller scopes it (whole order for customer and
// admin paths, the acting seller's lines only for the seller path).
type CancelRequest struct {
	OrderID string
	Reason  string
	Restore []ItemQty

	// UserID, when set, requires the order to belong to that user.
	UserID string
	// EnforceWindow applies the customer self-cancel deadline.
	EnforceWindow bool
	Now           time.Time
}

// Store persists orders. Every method that touches more than one row is
// all-or-nothing, and every status write is a conditional claim so that two
// racing actors cannot both succeed.
type Store interface {
	// PlaceOrder reserves stock for every line, inserts the order, and clears
	// the user's cart in one transaction. A reservation lost to a concurrent
	// checkout fails the whole placement with ErrConcurrentStockChange.
	PlaceOrder(ctx context.Context, o *Order) error

	GetOrder(ctx context.Context, orderID string) (*Order, error)
	ListUserOrders(ctx context.Context, userID string) ([]Order, error)

	// Cancel claims Pending -> Cancelled and restores stock in one
	// transaction. Exactly one concurrent attempt can win the claim; the rest
	// get ErrInvalidState. Lines whose product has since been deleted are
	// skipped, not fatal.
	Cancel(ctx context.Context, req CancelRequest) (*Order, error)

	// SetDeliveryOTP attaches a fresh code to a still-Pending order.
	SetDeliveryOTP(ctx context.Context, orderID string, otp DeliveryOTP) error

	// ConfirmDelivery atomically checks (Pending, code matches, not expired)
	// and transitions to Delivered, so a code is consumable exactly once.
	ConfirmDelivery(ctx context.Context, orderID, code string, now time.Time) (*Order, error)
}
