package notifier

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-rooms/internal/queue"
	"github.com/xenn00/chat-rooms/internal/utils/types"
)

const (
	RoomListTopic = "room-list"

	EventRoomCreated = "roomCreated"
	EventRoomUpdate  = "roomUpdate"
)

const (
	broadcastPriority = 1
	broadcastMaxRetry = 3
	broadcastTTL      = time.Minute
)

// Notifier publishes room change events to topic subscribers. Publish never
// fails the caller; delivery is best effort.
type Notifier interface {
	Publish(ctx context.Context, topic, event string, payload any)
}

type QueueNotifier struct {
	Producer queue.Producer
	now      func() time.Time
}

func NewQueueNotifier(producer queue.Producer) *QueueNotifier {
	return &QueueNotifier{Producer: producer, now: time.Now}
}

func (n *QueueNotifier) Publish(ctx context.Context, topic, event string, payload any) {
	now := n.now()
	job := queue.Job{
		ID:   uuid.New().String(),
		Type: queue.JobBroadcastRoomEvent,
		Payload: queue.MustMarshal(types.RoomEventPayload{
			Topic:       topic,
			Event:       event,
			Data:        queue.MustMarshal(payload),
			PublishedAt: now,
		}),
		Priority:  broadcastPriority,
		MaxRetry:  broadcastMaxRetry,
		CreatedAt: now.Unix(),
		ExpireAt:  now.Add(broadcastTTL).Unix(),
	}

	if err := n.Producer.Enqueue(ctx, job); err != nil {
		log.Error().Err(err).Str("topic", topic).Str("event", event).Msg("notifier: failed to enqueue broadcast")
		return
	}

	log.Debug().Str("topic", topic).Str("event", event).Str("jobID", job.ID).Msg("notifier: broadcast enqueued")
}
