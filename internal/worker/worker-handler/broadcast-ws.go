package worker_handler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-rooms/internal/utils/types"
	"github.com/xenn00/chat-rooms/internal/websocket"
)

// HandleBroadcastRoomEvent fans a queued room event out to all instances.
// A failed publish is returned so the job is retried.
func (wh *WorkerHandler) HandleBroadcastRoomEvent(ctx context.Context, raw []byte) error {
	var payload types.RoomEventPayload

	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid broadcast payload: %w", err)
	}
	if payload.Topic == "" || payload.Event == "" {
		return fmt.Errorf("broadcast payload missing topic or event")
	}

	msg := websocket.NewEventMessage(payload.Topic, payload.Event, payload.Data)
	if !payload.PublishedAt.IsZero() {
		msg.Timestamp = payload.PublishedAt.Unix()
	}

	if err := wh.Broadcaster.Broadcast(ctx, payload.Topic, msg); err != nil {
		return err
	}
	log.Debug().Str("topic", payload.Topic).Str("event", payload.Event).Msg("worker: room event broadcast")

	return nil
}
