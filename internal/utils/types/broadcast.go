package types

import (
	"encoding/json"
	"time"
)

// RoomEventPayload is the queued form of a notifier publish.
type RoomEventPayload struct {
	Topic       string          `json:"topic"`
	Event       string          `json:"event"`
	Data        json.RawMessage `json:"data"`
	PublishedAt time.Time       `json:"published_at"`
}
