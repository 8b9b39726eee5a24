package worker

import (
	"context"
	"fmt"

	"github.com/xenn00/chat-rooms/internal/queue"
	worker_handler "github.com/xenn00/chat-rooms/internal/worker/worker-handler"
)

func HandleJob(ctx context.Context, job queue.Job, b worker_handler.Broadcaster) error {
	workerHandler := worker_handler.NewWorkerHandler(b)
	switch job.Type {
	case queue.JobBroadcastRoomEvent:
		return workerHandler.HandleBroadcastRoomEvent(ctx, job.Payload)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}
