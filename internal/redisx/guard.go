package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"ucshop/internal/orders"
)

// Guard is the redis side of the idempotence machinery: a per-order
// fulfillment lock plus a cache of terminal statuses so settled replays never
// reach postgres. The database CAS stays the source of truth; the guard only
// narrows the window and absorbs replay traffic.
type Guard struct{ RDB *redis.Client }

// Acquire takes the per-order lock. False means another callback for the
// same order is already fulfilling it.
func (g *Guard) Acquire(ctx context.Context, orderID string) (bool, error) {
	key := fmt.Sprintf(KeyFulfillLock, orderID)
	return g.RDB.SetNX(ctx, key, "1", TTLFulfillLock).Result()
}

func (g *Guard) Release(ctx context.Context, orderID string) {
	_ = g.RDB.Del(ctx, fmt.Sprintf(KeyFulfillLock, orderID)).Err()
}

// TerminalStatus returns the cached terminal status for an order, if any.
func (g *Guard) TerminalStatus(ctx context.Context, orderID string) (orders.Status, bool) {
	s, err := g.RDB.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Result()
	if err != nil || s == "" {
		return "", false
	}
	st := orders.Status(s)
	if !st.Terminal() {
		return "", false
	}
	return st, true
}

func (g *Guard) SetTerminalStatus(ctx context.Context, orderID string, s orders.Status) {
	if !s.Terminal() {
		return
	}
	_ = g.RDB.Set(ctx, fmt.Sprintf(KeyOrderStatus, orderID), string(s), TTLStatusCache).Err()
}
