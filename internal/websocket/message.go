package websocket

import "time"

// OutgoingMessage is the envelope every subscriber receives.
type OutgoingMessage struct {
	Type      string `json:"type"`
	Topic     string `json:"topic"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func NewEventMessage(topic, event string, data any) OutgoingMessage {
	return OutgoingMessage{
		Type:      event,
		Topic:     topic,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}
