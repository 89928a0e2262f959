package catalog

import "time"

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

type Product struct {
	ID           string       `json:"id"`
	SellerID     string       `json:"seller_id"`
	Name         string       `json:"name"`
	Category     string       `json:"category"`
	PriceCents   int          `json:"price_cents"`
	Stock        int          `json:"stock"`
	OrderCount   int          `json:"order_count"`
	ImageURL     string       `json:"image_url,omitempty"`
	ReviewStatus ReviewStatus `json:"review_status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Purchasable: only approved products with stock on hand may enter a cart or an order.
func (p *Product) Purchasable() bool {
	return p.ReviewStatus == ReviewApproved && p.Stock > 0
}
