package orders

import "time"

// LineItem is a frozen snapshot of one product at the moment the order was
// placed. Later edits or deletion of the product never touch it.
type LineItem struct {
	ProductID         string `json:"product_id"`
	SellerID          string `json:"seller_id"`
	Name              string `json:"name"`
	PriceAtOrderCents int    `json:"price_at_order_cents"`
	Qty               int    `json:"qty"`
	ImageURL          string `json:"image_url,omitempty"`
}

// Address is the shipping address frozen onto the order at checkout.
type Address struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Pincode     string `json:"pincode"`
	CityVillage string `json:"city_village"`
	Landmark    string `json:"landmark,omitempty"`
}

func (a Address) Complete() bool {
	return a.Name != "" && a.Phone != "" && a.Pincode != "" && a.CityVillage != ""
}

// DeliveryOTP is present only while a delivery confirmation is in flight.
// Presence/absence of the sub-record is the single "OTP outstanding" check.
type DeliveryOTP struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (o *DeliveryOTP) Valid(now time.Time) bool {
	return o != nil && now.Before(o.ExpiresAt)
}

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type Order struct {
	ID                       string       `json:"id"`
	UserID                   string       `json:"user_id"`
	UserEmail                string       `json:"user_email"`
	Items                    []LineItem   `json:"items"`
	TotalCents               int          `json:"total_cents"`
	ShippingAddress          Address      `json:"shipping_address"`
	PaymentMethod            string       `json:"payment_method"`
	Status                   Status       `json:"status"`
	OrderDate                time.Time    `json:"order_date"`
	CancellationAllowedUntil *time.Time   `json:"cancellation_allowed_until,omitempty"`
	OTP                      *DeliveryOTP `json:"-"` // never serialized to actors; surfaced only on the owner's order view
	CancellationReason       string       `json:"cancellation_reason,omitempty"`
	ReceivedAt               *time.Time   `json:"received_at,omitempty"`
}

// Cancellable reports whether the customer self-cancel window is still open.
func (o *Order) Cancellable(now time.Time) bool {
	return o.Status == StatusPending &&
		o.CancellationAllowedUntil != nil &&
		now.Before(*o.CancellationAllowedUntil)
}

// ShowDeliveryOTP reports whether the customer's order page should surface
// the outstanding delivery code.
func (o *Order) ShowDeliveryOTP(now time.Time) bool {
	return o.Status == StatusPending && o.OTP.Valid(now)
}

func (o *Order) restoreAll() []ItemQty {
	out := make([]ItemQty, 0, len(o.Items))
	for _, it := range o.Items {
		out = append(out, ItemQty{ProductID: it.ProductID, Qty: it.Qty})
	}
	return out
}

func (o *Order) restoreForSeller(sellerID string) []ItemQty {
	var out []ItemQty
	for _, it := range o.Items {
		if it.SellerID == sellerID {
			out = append(out, ItemQty{ProductID: it.ProductID, Qty: it.Qty})
		}
	}
	return out
}

func (o *Order) hasSellerItems(sellerID string) bool {
	for _, it := range o.Items {
		if it.SellerID == sellerID {
			return true
		}
	}
	return false
}
