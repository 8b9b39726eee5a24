package worker_handler

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/xenn00/chat-rooms/internal/websocket"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Broadcaster delivers a message to the subscribers of a topic on every instance.
type Broadcaster interface {
	Broadcast(ctx context.Context, topic string, msg websocket.OutgoingMessage) error
}

type WorkerHandler struct {
	Broadcaster Broadcaster
}

func NewWorkerHandler(b Broadcaster) *WorkerHandler {
	return &WorkerHandler{Broadcaster: b}
}
