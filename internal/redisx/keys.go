package redisx

import "time"

const (
	// Per-order fulfillment lock: lock:fulfill:{order_id} -> "1"
	KeyFulfillLock = "lock:fulfill:%s"

	// Terminal status cache: order_status:{order_id} -> delivered|error
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	// Lock TTL bounds how long a crashed handler can block retries for one
	// order. Must exceed the worst-case redemption fan-out.
	TTLFulfillLock = 2 * time.Minute
	TTLStatusCache = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)
