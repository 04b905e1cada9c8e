// Package projector keeps the Redis order cache warm from the order.placed
// stream, so storefront reads stay off the primary database.
package projector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/veliqo/commerce/internal/kafka"
	"github.com/veliqo/commerce/internal/orders"
	"github.com/veliqo/commerce/internal/redisx"
)

type Service struct {
	Repo        *orders.Repo
	Redis       *redis.Client
	ServiceName string
}

// HandleOrderPlaced is the consumer handler. Events are deduped by event_id;
// a replayed event is a no-op, not an error.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	// re-read the committed order rather than trusting the payload
	o, err := s.Repo.GetOrder(ctx, p.OrganizationID, p.OrderID, "")
	if err != nil {
		var nf *orders.NotFoundError
		if errors.As(err, &nf) {
			// event outlived the order; nothing to cache
			return nil
		}
		return err
	}

	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(redisx.KeyOrder, p.OrganizationID, p.OrderID)
	if err := s.Redis.Set(ctx, key, b, redisx.TTLOrderCache).Err(); err != nil {
		return err
	}
	return s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
}
