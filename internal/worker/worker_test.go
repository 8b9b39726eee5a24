package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xenn00/chat-rooms/internal/queue"
	"github.com/xenn00/chat-rooms/internal/utils/types"
	"github.com/xenn00/chat-rooms/internal/websocket"
)

type recordingBroadcaster struct {
	mu   sync.Mutex
	sent []websocket.OutgoingMessage
	err  error
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, topic string, msg websocket.OutgoingMessage) error {
	if b.err != nil {
		return b.err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	msg.Topic = topic
	b.sent = append(b.sent, msg)
	return nil
}

// newTestPool wires the pool to a hub through a started relay, as in production.
func newTestPool(t *testing.T) (*WorkerPool, *miniredis.Miniredis, *websocket.Hub) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hub := websocket.NewHub()
	t.Cleanup(hub.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	relay := websocket.NewRelay(rdb, hub)
	require.NoError(t, relay.Start(ctx))

	return NewWorkerPool(rdb, 1, relay), mr, hub
}

func broadcastJob(t *testing.T, topic, event string, data any, now time.Time) queue.Job {
	t.Helper()
	return queue.Job{
		ID:   "job-" + event,
		Type: queue.JobBroadcastRoomEvent,
		Payload: queue.MustMarshal(types.RoomEventPayload{
			Topic:       topic,
			Event:       event,
			Data:        queue.MustMarshal(data),
			PublishedAt: now,
		}),
		MaxRetry:  3,
		CreatedAt: now.Unix(),
		ExpireAt:  now.Add(time.Minute).Unix(),
	}
}

func TestHandleJob_BroadcastsRoomEvent(t *testing.T) {
	b := &recordingBroadcaster{}
	now := time.Now()

	job := broadcastJob(t, "room-1", "roomUpdate", map[string]any{"_id": "room-1", "participantsCount": 2}, now)
	require.NoError(t, HandleJob(context.Background(), job, b))

	require.Len(t, b.sent, 1)
	msg := b.sent[0]
	assert.Equal(t, "roomUpdate", msg.Type)
	assert.Equal(t, "room-1", msg.Topic)
	assert.Equal(t, now.Unix(), msg.Timestamp)

	raw, err := json.Marshal(msg.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"room-1","participantsCount":2}`, string(raw))
}

func TestHandleJob_UnknownType(t *testing.T) {
	err := HandleJob(context.Background(), queue.Job{Type: "unknown_job"}, &recordingBroadcaster{})
	assert.ErrorContains(t, err, "unknown job type")
}

func TestHandleJob_BroadcastFailureIsReturned(t *testing.T) {
	b := &recordingBroadcaster{err: errors.New("redis down")}

	job := broadcastJob(t, "room-1", "roomUpdate", map[string]string{"_id": "room-1"}, time.Now())
	assert.ErrorContains(t, HandleJob(context.Background(), job, b), "redis down")
}

func TestWorkerPool_BroadcastFailureIsRetried(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	wp := NewWorkerPool(rdb, 1, &recordingBroadcaster{err: errors.New("redis down")})
	now := time.Now()
	job := broadcastJob(t, "room-1", "roomUpdate", map[string]string{"_id": "room-1"}, now)
	wp.process(context.Background(), string(queue.MustMarshal(job)), now)

	members, err := mr.ZMembers(queue.PriorityQueueKey)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Contains(t, members[0], "redis down")
}

func TestWorkerPool_ClaimDueOwnsJobOnce(t *testing.T) {
	wp, mr, _ := newTestPool(t)
	ctx := context.Background()
	now := time.Now()

	job := broadcastJob(t, "room-list", "roomCreated", map[string]string{"_id": "r1"}, now)
	require.NoError(t, queue.NewProducer(wp.Redis).Enqueue(ctx, job))

	payload, ok := wp.claimDue(ctx, now)
	require.True(t, ok)
	assert.Contains(t, payload, "room-list")
	assert.False(t, mr.Exists(queue.PriorityQueueKey))

	_, ok = wp.claimDue(ctx, now)
	assert.False(t, ok)
}

func TestWorkerPool_ClaimDueSkipsFutureJobs(t *testing.T) {
	wp, _, _ := newTestPool(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, wp.Redis.ZAdd(ctx, queue.PriorityQueueKey, redis.Z{
		Score:  float64(now.Add(time.Hour).Unix()),
		Member: "later",
	}).Err())

	_, ok := wp.claimDue(ctx, now)
	assert.False(t, ok)
}

func TestWorkerPool_FailedJobIsRequeuedWithBackoff(t *testing.T) {
	wp, mr, _ := newTestPool(t)
	now := time.Now()

	job := queue.Job{ID: "bad", Type: "nope", MaxRetry: 3, CreatedAt: now.Unix(), ExpireAt: now.Add(time.Hour).Unix()}
	wp.process(context.Background(), string(queue.MustMarshal(job)), now)

	members, err := mr.ZMembers(queue.PriorityQueueKey)
	require.NoError(t, err)
	require.Len(t, members, 1)

	var requeued queue.Job
	require.NoError(t, json.Unmarshal([]byte(members[0]), &requeued))
	assert.Equal(t, 1, requeued.Retry)
	assert.Contains(t, requeued.ErrorMsg, "unknown job type")

	score, err := mr.ZScore(queue.PriorityQueueKey, members[0])
	require.NoError(t, err)
	assert.Equal(t, float64(now.Add(10*time.Second).Unix()), score)
}

func TestWorkerPool_ExhaustedJobGoesToDLQ(t *testing.T) {
	wp, mr, _ := newTestPool(t)
	now := time.Now()

	job := queue.Job{ID: "bad", Type: "nope", Retry: 2, MaxRetry: 3, CreatedAt: now.Unix(), ExpireAt: now.Add(time.Hour).Unix()}
	wp.process(context.Background(), string(queue.MustMarshal(job)), now)

	assert.False(t, mr.Exists(queue.PriorityQueueKey))
	dlq, err := mr.List(queue.DeadLetterKey)
	require.NoError(t, err)
	require.Len(t, dlq, 1)
	assert.Contains(t, dlq[0], `"retry":3`)
}

func TestWorkerPool_StartDeliversQueuedEvent(t *testing.T) {
	wp, _, hub := newTestPool(t)
	client := websocket.NewClient("u1", "room-list", nil)
	hub.Subscribe("room-list", client)

	ctx, cancel := context.WithCancel(context.Background())
	wp.Start(ctx)
	defer func() {
		cancel()
		wp.Wait()
	}()

	job := broadcastJob(t, "room-list", "roomCreated", map[string]string{"_id": "r1"}, time.Now())
	require.NoError(t, queue.NewProducer(wp.Redis).Enqueue(ctx, job))

	select {
	case raw := <-client.Send:
		assert.Contains(t, string(raw), `"roomCreated"`)
	case <-time.After(3 * time.Second):
		t.Fatal("queued event never delivered")
	}
}
