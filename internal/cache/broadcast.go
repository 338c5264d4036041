package cache

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"unimerch_back_end/internal/models"
)

// StatusBroadcaster fans order events out on per-order Redis channels so
// every API instance can push them to connected websockets.
type StatusBroadcaster struct {
	rdb *redis.Client
}

func NewStatusBroadcaster(rdb *redis.Client) *StatusBroadcaster {
	return &StatusBroadcaster{rdb: rdb}
}

func orderChannel(id uuid.UUID) string { return "order:" + id.String() }

func (b *StatusBroadcaster) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, orderChannel(event.OrderID), data).Err()
}

// Subscribe streams the events of one order until ctx is done. The channel
// is closed afterwards.
func (b *StatusBroadcaster) Subscribe(ctx context.Context, orderID uuid.UUID) (<-chan models.OrderEvent, error) {
	sub := b.rdb.Subscribe(ctx, orderChannel(orderID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}

	out := make(chan models.OrderEvent, 8)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event models.OrderEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("⚠️ Dropping malformed event on %s: %v", msg.Channel, err)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
