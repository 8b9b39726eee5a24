package websocket

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RoomEventsChannel is the Redis Pub/Sub channel every instance listens on.
const RoomEventsChannel = "room_events"

// Relay carries hub messages between instances. Broadcast publishes on Redis
// and every started relay, this one included, hands the message to its own hub.
type Relay struct {
	Redis   redis.UniversalClient
	Hub     *Hub
	Channel string

	done chan struct{}
}

func NewRelay(rdb redis.UniversalClient, hub *Hub) *Relay {
	return &Relay{
		Redis:   rdb,
		Hub:     hub,
		Channel: RoomEventsChannel,
		done:    make(chan struct{}),
	}
}

// Broadcast sends msg to the subscribers of topic on every instance.
func (r *Relay) Broadcast(ctx context.Context, topic string, msg OutgoingMessage) error {
	msg.Topic = topic
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("relay: marshal message: %w", err)
	}
	if err := r.Redis.Publish(ctx, r.Channel, data).Err(); err != nil {
		return fmt.Errorf("relay: publish %s: %w", topic, err)
	}
	return nil
}

// Start subscribes before returning, so no broadcast sent afterwards is missed.
// Delivery stops when ctx is done.
func (r *Relay) Start(ctx context.Context) error {
	sub := r.Redis.Subscribe(ctx, r.Channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		close(r.done)
		return fmt.Errorf("relay: subscribe %s: %w", r.Channel, err)
	}

	go func() {
		defer close(r.done)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				r.deliver(m.Payload)
			}
		}
	}()

	log.Info().Str("channel", r.Channel).Msg("ws: relay subscribed")
	return nil
}

func (r *Relay) deliver(payload string) int {
	var msg OutgoingMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil || msg.Topic == "" {
		log.Warn().Err(err).Msg("ws: dropping malformed relay message")
		return 0
	}

	delivered := r.Hub.Publish(msg.Topic, msg)
	log.Debug().Str("topic", msg.Topic).Str("event", msg.Type).Int("delivered", delivered).Msg("ws: relay delivered")
	return delivered
}

// Wait blocks until the delivery loop has stopped.
func (r *Relay) Wait() {
	<-r.done
}
