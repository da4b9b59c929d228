package realtime

import (
	"context"
	"encoding/json"
	"errors"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/logger"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/redis"
)

// Bus fans order snapshots out to live subscribers over Redis pub/sub. Every
// write to an order publishes the full snapshot, not a delta, so a subscriber
// that misses a message recovers on the next one.
type Bus struct {
	client *redis.Client
	logg   *logger.Logger
}

func NewBus(client *redis.Client, logg *logger.Logger) *Bus {
	return &Bus{client: client, logg: logg}
}

// PublishOrderSnapshot marshals the snapshot and publishes it on the order's
// channel. Publish failures are logged and swallowed; the DB write already
// committed and live watchers catch up on the next update.
func (b *Bus) PublishOrderSnapshot(ctx context.Context, orderID string, snapshot any) {
	if b == nil || b.client == nil {
		return
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		if b.logg != nil {
			b.logg.Error(b.logg.WithOrderID(ctx, orderID), "marshal order snapshot", err)
		}
		return
	}
	if err := b.client.Publish(ctx, b.client.OrderChannel(orderID), payload); err != nil {
		if b.logg != nil {
			b.logg.Error(b.logg.WithOrderID(ctx, orderID), "publish order snapshot", err)
		}
	}
}

// SubscribeOrder opens a live feed of snapshot payloads for one order. The
// returned channel closes when ctx is cancelled or the connection drops.
func (b *Bus) SubscribeOrder(ctx context.Context, orderID string) (<-chan []byte, error) {
	if b == nil || b.client == nil {
		return nil, errors.New("realtime bus not initialized")
	}
	sub, err := b.client.Subscribe(ctx, b.client.OrderChannel(orderID))
	if err != nil {
		return nil, err
	}

	out := make(chan []byte, 8)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		ch := sub.Channel(redisv9.WithChannelSize(8))
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
