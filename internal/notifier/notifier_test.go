package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xenn00/chat-rooms/internal/queue"
	"github.com/xenn00/chat-rooms/internal/utils/types"
)

type failingProducer struct{ calls int }

func (p *failingProducer) Enqueue(context.Context, queue.Job) error {
	p.calls++
	return errors.New("redis down")
}

func TestQueueNotifier_PublishEnqueuesBroadcastJob(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	n := NewQueueNotifier(queue.NewProducer(rdb))
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	n.Publish(context.Background(), RoomListTopic, EventRoomCreated, map[string]any{
		"_id":         "r1",
		"name":        "General",
		"hasPassword": true,
	})

	members, err := mr.ZMembers(queue.PriorityQueueKey)
	require.NoError(t, err)
	require.Len(t, members, 1)

	var job queue.Job
	require.NoError(t, json.Unmarshal([]byte(members[0]), &job))
	assert.Equal(t, queue.JobBroadcastRoomEvent, job.Type)
	assert.Equal(t, fixed.Unix(), job.CreatedAt)
	assert.Equal(t, fixed.Add(time.Minute).Unix(), job.ExpireAt)
	assert.NotEmpty(t, job.ID)

	var payload types.RoomEventPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, RoomListTopic, payload.Topic)
	assert.Equal(t, EventRoomCreated, payload.Event)
	assert.JSONEq(t, `{"_id":"r1","name":"General","hasPassword":true}`, string(payload.Data))
	assert.NotContains(t, string(payload.Data), `"password"`)
}

func TestQueueNotifier_EnqueueFailureIsSwallowed(t *testing.T) {
	p := &failingProducer{}
	n := NewQueueNotifier(p)

	assert.NotPanics(t, func() {
		n.Publish(context.Background(), "room-1", EventRoomUpdate, map[string]string{"_id": "room-1"})
	})
	assert.Equal(t, 1, p.calls)
}
