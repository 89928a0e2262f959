package redisx

import "time"

const (
	// Denormalized cart summary for display: cart_summary:{user_id} -> {"items": n, "total_cents": n}
	// Read cache only; the cart rows in Postgres stay authoritative.
	KeyCartSummary = "cart_summary:%s"

	// Cache order status: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLCartSummary = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
