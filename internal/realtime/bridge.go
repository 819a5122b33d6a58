package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/clinicore/hospital-platform/pkg/logging"
)

// Bridge subscribes to the shared Redis channel and rebroadcasts events
// into the local hub. Every server instance runs one bridge, so a change
// handled by any instance reaches clients connected to all of them.
type Bridge struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
	logger  *logging.Logger
}

// NewBridge creates a bridge between the Redis channel and the hub.
func NewBridge(rdb *redis.Client, channel string, hub *Hub, logger *logging.Logger) *Bridge {
	if rdb == nil {
		panic("realtime: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Bridge{rdb: rdb, channel: channel, hub: hub, logger: logger}
}

// Run consumes the channel until the context is canceled.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed before reporting ready.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	b.logger.Info("realtime bridge started", "channel", b.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn("dropping malformed event", "error", err)
				continue
			}
			b.hub.Broadcast(event)
		}
	}
}
