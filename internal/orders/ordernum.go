package orders

import (
	"crypto/rand"
	"fmt"
	"time"
)

// newOrderNumber builds a human-facing order number: UTC timestamp plus a
// random suffix. Practically unique within a tenant; not an ordering key.
func newOrderNumber(now time.Time) string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("ORD-%s-%X", now.UTC().Format("20060102150405"), b[:])
}
