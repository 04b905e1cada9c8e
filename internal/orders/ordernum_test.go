package orders

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderNumberFormat(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	n := newOrderNumber(now)
	assert.True(t, strings.HasPrefix(n, "ORD-20260314092653-"), "got %s", n)
	assert.Len(t, n, len("ORD-20260314092653-")+8)
}

func TestOrderNumberCollisionResistance(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		n := newOrderNumber(now)
		assert.False(t, seen[n], "duplicate order number %s", n)
		seen[n] = true
	}
}
