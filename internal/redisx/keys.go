package redisx

import "time"

const (
	// Cached order detail (JSON as served by GET /orders/{id}): order:{tenant_id}:{order_id}
	KeyOrder = "order:%s:%s"

	// Event dedup per consumer: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderCache = 5 * time.Minute
	TTLDedup      = 48 * time.Hour
)
