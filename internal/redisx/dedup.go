package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Dedup tracks consumed event ids per service so replayed bus messages are
// processed once.
type Dedup struct {
	RDB     *redis.Client
	Service string
}

func (d *Dedup) Seen(ctx context.Context, eventID string) (bool, error) {
	return Exists(ctx, d.RDB, fmt.Sprintf(KeyDedup, d.Service, eventID))
}

// Mark records the event as handled. Called after successful processing, so
// a crash in between re-processes rather than drops.
func (d *Dedup) Mark(ctx context.Context, eventID string) {
	_ = d.RDB.Set(ctx, fmt.Sprintf(KeyDedup, d.Service, eventID), "1", TTLDedup).Err()
}
