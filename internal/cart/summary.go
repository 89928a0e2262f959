package cart

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-shop-orders.git/internal/redisx"
)

// SummaryCache is the session-visible cart mirror. It is repopulated after
// every cart-mutating command and never consulted on the write path.
type SummaryCache interface {
	Set(ctx context.Context, userID string, sum Summary) error
	Clear(ctx context.Context, userID string) error
}

type RedisSummary struct{ R *redis.Client }

func (c *RedisSummary) Set(ctx context.Context, userID string, sum Summary) error {
	key := fmt.Sprintf(redisx.KeyCartSummary, userID)
	b := fmt.Sprintf(`{"items":%d,"total_cents":%d}`, sum.Items, sum.TotalCents)
	return c.R.Set(ctx, key, b, redisx.TTLCartSummary).Err()
}

func (c *RedisSummary) Clear(ctx context.Context, userID string) error {
	key := fmt.Sprintf(redisx.KeyCartSummary, userID)
	return c.R.Del(ctx, key).Err()
}
