package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-shop-orders.git/internal/cart"
	"github.com/ariefcatur/go-shop-orders.git/internal/catalog"
)

// CancellationWindow is how long after placement the customer may self-cancel.
const CancellationWindow = 60 * time.Minute

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

type Actor struct {
	ID   string
	Role Role
}

// Fixed reason sets; cancellation by seller or admin must pick one.
var AdminCancellationReasons = []string{
	"Unable to contact the customer",
	"Out of stock/unavailable item",
	"Address incorrect/incomplete",
	"Customer requested cancellation",
	"Other (Admin)",
}

var SellerCancellationReasons = []string{
	"Item Out of Stock",
	"Unable to Fulfill/Ship",
	"Customer Requested Cancellation",
	"Other Reason",
}

type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

type CartStore interface {
	Lines(ctx context.Context, userID string) ([]cart.Line, error)
	RemoveLines(ctx context.Context, userID string, productIDs []string) error
}

type SummaryClearer interface {
	Clear(ctx context.Context, userID string) error
}

// Notifier delivers customer emails. Failure is logged, never propagated:
// no notification outcome may roll back an order.
type Notifier interface {
	Send(ctx context.Context, address, subject, textBody, htmlBody string) error
}

type Service struct {
	Store   Store
	Catalog ProductCatalog
	Carts   CartStore
	Summary SummaryClearer // optional
	Notify  Notifier       // optional

	// NowFn overrides wall clock in tests.
	NowFn func() time.Time
}

func (s *Service) now() time.Time {
	if s.NowFn != nil {
		return s.NowFn()
	}
	return time.Now()
}

// Checkout turns the user's cart into an order. Products are re-read fresh,
// never trusted from the cart; the placement itself (reserve every line,
// create order, clear cart) is all-or-nothing in the store.
func (s *Service) Checkout(ctx context.Context, userID, userEmail string, addr Address) (*Order, error) {
	if userID == "" || userEmail == "" {
		return nil, fmt.Errorf("%w: missing user identity", ErrValidation)
	}
	if !addr.Complete() {
		return nil, ErrAddressIncomplete
	}

	lines, err := s.Carts.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	var items []LineItem
	var totalCents int
	var removals []string
	var vErr error
	for _, l := range lines {
		if l.Qty < 1 {
			removals = append(removals, l.ProductID)
			vErr = fmt.Errorf("%w: invalid quantity found for an item, it has been removed", ErrValidation)
			continue
		}
		p, err := s.Catalog.GetProduct(ctx, l.ProductID)
		if errors.Is(err, catalog.ErrNotFound) {
			removals = append(removals, l.ProductID)
			vErr = fmt.Errorf("%w: an item no longer exists and has been removed from your cart", ErrProductUnavailable)
			continue
		}
		if err != nil {
			return nil, err
		}
		if p.ReviewStatus != catalog.ReviewApproved {
			removals = append(removals, l.ProductID)
			vErr = fmt.Errorf("%w: %q is not available and has been removed from your cart", ErrProductUnavailable, p.Name)
			continue
		}
		if p.Stock < l.Qty {
			// critical: fail the whole checkout, leave the cart for the user to fix
			vErr = fmt.Errorf("%w: only %d of %q available", ErrInsufficientStock, p.Stock, p.Name)
			break
		}
		items = append(items, LineItem{
			ProductID:         p.ID,
			SellerID:          p.SellerID,
			Name:              p.Name,
			PriceAtOrderCents: p.PriceCents,
			Qty:               l.Qty,
			ImageURL:          p.ImageURL,
		})
		totalCents += p.PriceCents * l.Qty
	}

	if vErr != nil {
		if len(removals) > 0 {
			if err := s.Carts.RemoveLines(ctx, userID, removals); err != nil {
				log.Printf("checkout: cart cleanup failed for user %s: %v", userID, err)
			}
			s.clearSummary(ctx, userID)
		}
		return nil, vErr
	}

	// recompute defensively; a frozen snapshot must agree with its own total
	var recheck int
	for _, it := range items {
		if it.PriceAtOrderCents < 0 || it.Qty < 1 {
			return nil, fmt.Errorf("%w: malformed order line", ErrValidation)
		}
		recheck += it.PriceAtOrderCents * it.Qty
	}
	if recheck != totalCents {
		return nil, fmt.Errorf("%w: order total mismatch", ErrValidation)
	}

	now := s.now()
	until := now.Add(CancellationWindow)
	o := &Order{
		ID:                       uuid.NewString(),
		UserID:                   userID,
		UserEmail:                userEmail,
		Items:                    items,
		TotalCents:               totalCents,
		ShippingAddress:          addr,
		PaymentMethod:            "COD",
		Status:                   StatusPending,
		OrderDate:                now,
		CancellationAllowedUntil: &until,
	}

	if err := s.Store.PlaceOrder(ctx, o); err != nil {
		return nil, err
	}
	s.clearSummary(ctx, userID)

	subject, text, html := orderPlacedEmail(o)
	s.notifyAsync(o.UserEmail, subject, text, html)
	return o, nil
}

// CancelByCustomer applies the self-cancel path: Pending only, inside the
// window, and only by the order's owner. All lines are restored.
func (s *Service) CancelByCustomer(ctx context.Context, userID, orderID string) (*Order, error) {
	o, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrPermissionDenied
	}

	upd, err := s.Store.Cancel(ctx, CancelRequest{
		OrderID:       orderID,
		Reason:        "Cancelled by customer",
		Restore:       o.restoreAll(),
		UserID:        userID,
		EnforceWindow: true,
		Now:           s.now(),
	})
	if err != nil {
		return nil, err
	}

	subject, text, html := orderCancelledEmail(upd)
	s.notifyAsync(upd.UserEmail, subject, text, html)
	return upd, nil
}

// CancelBySeller cancels a Pending order containing the seller's products.
// Stock restoration is scoped to the acting seller's own lines; the order
// status still flips globally.
func (s *Service) CancelBySeller(ctx context.Context, sellerID, orderID, reason string) (*Order, error) {
	if !validReason(SellerCancellationReasons, reason) {
		return nil, fmt.Errorf("%w: select a valid seller cancellation reason", ErrValidation)
	}
	o, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.hasSellerItems(sellerID) {
		return nil, fmt.Errorf("%w: order does not contain your products", ErrPermissionDenied)
	}

	upd, err := s.Store.Cancel(ctx, CancelRequest{
		OrderID: orderID,
		Reason:  "Cancelled by Seller: " + reason,
		Restore: o.restoreForSeller(sellerID),
		Now:     s.now(),
	})
	if err != nil {
		return nil, err
	}

	subject, text, html := orderCancelledEmail(upd)
	s.notifyAsync(upd.UserEmail, subject, text, html)
	return upd, nil
}

// CancelByAdmin cancels any Pending order, no time window, all lines restored.
func (s *Service) CancelByAdmin(ctx context.Context, adminID, orderID, reason string) (*Order, error) {
	if !validReason(AdminCancellationReasons, reason) {
		return nil, fmt.Errorf("%w: select a valid admin cancellation reason", ErrValidation)
	}
	o, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	upd, err := s.Store.Cancel(ctx, CancelRequest{
		OrderID: orderID,
		Reason:  "Admin Cancelled: " + reason,
		Restore: o.restoreAll(),
		Now:     s.now(),
	})
	if err != nil {
		return nil, err
	}
	log.Printf("order %s cancelled by admin %s: %s", orderID, adminID, reason)

	subject, text, html := orderCancelledEmail(upd)
	s.notifyAsync(upd.UserEmail, subject, text, html)
	return upd, nil
}

// GenerateDeliveryOTP attaches a fresh 6-digit code to a Pending order and
// returns its expiry. The code itself is never handed to the acting admin or
// seller; it surfaces only on the customer's own order view, who relays it at
// the door.
func (s *Service) GenerateDeliveryOTP(ctx context.Context, orderID string, actor Actor) (time.Time, error) {
	o, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return time.Time{}, err
	}
	if o.Status != StatusPending {
		return time.Time{}, fmt.Errorf("%w: order is %s", ErrInvalidState, o.Status)
	}
	switch actor.Role {
	case RoleAdmin:
	case RoleSeller:
		if !o.hasSellerItems(actor.ID) {
			return time.Time{}, fmt.Errorf("%w: order does not contain your products", ErrPermissionDenied)
		}
	default:
		return time.Time{}, ErrPermissionDenied
	}

	code, err := GenerateOTP()
	if err != nil {
		return time.Time{}, err
	}
	otp := DeliveryOTP{Code: code, ExpiresAt: s.now().Add(OTPValidity)}
	if err := s.Store.SetDeliveryOTP(ctx, orderID, otp); err != nil {
		return time.Time{}, err
	}
	log.Printf("delivery OTP generated for order %s by %s %s; ask the customer for the code", orderID, actor.Role, actor.ID)
	return otp.ExpiresAt, nil
}

// ConfirmDelivery consumes a delivery code. First matching confirmation wins;
// any later attempt sees a terminal order and fails with ErrInvalidState.
func (s *Service) ConfirmDelivery(ctx context.Context, orderID string, actor Actor, code string) (*Order, error) {
	if len(code) != otpDigits {
		return nil, ErrInvalidOTP
	}
	switch actor.Role {
	case RoleAdmin:
	case RoleSeller:
		o, err := s.Store.GetOrder(ctx, orderID)
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidOTP
		}
		if err != nil {
			return nil, err
		}
		if !o.hasSellerItems(actor.ID) {
			return nil, fmt.Errorf("%w: order does not contain your products", ErrPermissionDenied)
		}
	default:
		return nil, ErrPermissionDenied
	}

	upd, err := s.Store.ConfirmDelivery(ctx, orderID, code, s.now())
	if err != nil {
		return nil, err
	}

	subject, text, html := orderDeliveredEmail(upd)
	s.notifyAsync(upd.UserEmail, subject, text, html)
	return upd, nil
}

// OrderView decorates an order with the customer-page display flags.
type OrderView struct {
	Order
	Cancellable     bool   `json:"cancellable"`
	ShowDeliveryOTP bool   `json:"show_delivery_otp"`
	DeliveryOTP     string `json:"delivery_otp,omitempty"`
}

// ListMyOrders returns the user's orders newest first, with the cancel and
// OTP display flags evaluated lazily against the wall clock.
func (s *Service) ListMyOrders(ctx context.Context, userID string) ([]OrderView, error) {
	list, err := s.Store.ListUserOrders(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]OrderView, 0, len(list))
	for _, o := range list {
		v := OrderView{
			Order:           o,
			Cancellable:     o.Cancellable(now),
			ShowDeliveryOTP: o.ShowDeliveryOTP(now),
		}
		if v.ShowDeliveryOTP {
			v.DeliveryOTP = o.OTP.Code
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) clearSummary(ctx context.Context, userID string) {
	if s.Summary == nil {
		return
	}
	if err := s.Summary.Clear(ctx, userID); err != nil {
		log.Printf("orders: cart summary clear failed for user %s: %v", userID, err)
	}
}

func (s *Service) notifyAsync(address, subject, text, html string) {
	if s.Notify == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Notify.Send(ctx, address, subject, text, html); err != nil {
			log.Printf("notify %q failed for %s: %v", subject, address, err)
		}
	}()
}

func validReason(list []string, reason string) bool {
	for _, r := range list {
		if r == reason {
			return true
		}
	}
	return false
}
