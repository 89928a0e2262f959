package cart

// Line is one (product, quantity) pair pending an order. Quantities are the
// only state a cart owns; price and availability are always re-read from the
// catalog when the line is displayed or checked out.
type Line struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// DisplayLine joins a cart line with live product data for rendering.
type DisplayLine struct {
	ProductID     string `json:"product_id"`
	Name          string `json:"name"`
	PriceCents    int    `json:"price_cents"`
	ImageURL      string `json:"image_url,omitempty"`
	Stock         int    `json:"stock"`
	Qty           int    `json:"qty"`
	SubtotalCents int    `json:"subtotal_cents"`
}

// Summary is the denormalized cart shape cached in Redis for fast display.
type Summary struct {
	Items      int `json:"items"`
	TotalCents int `json:"total_cents"`
}
