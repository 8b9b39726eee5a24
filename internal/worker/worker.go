package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-rooms/internal/queue"
	worker_handler "github.com/xenn00/chat-rooms/internal/worker/worker-handler"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	pollInterval = 500 * time.Millisecond
	baseBackoff  = 5 * time.Second
)

type WorkerPool struct {
	Redis       redis.UniversalClient
	WorkerNum   int
	JobChannel  chan string
	wg          sync.WaitGroup
	broadcaster worker_handler.Broadcaster
}

func NewWorkerPool(redis redis.UniversalClient, workerNum int, b worker_handler.Broadcaster) *WorkerPool {
	if workerNum <= 0 {
		workerNum = 1
	}
	return &WorkerPool{
		Redis:       redis,
		WorkerNum:   workerNum,
		JobChannel:  make(chan string, 100),
		broadcaster: b,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	log.Info().Msgf("Starting worker pool with %d workers", wp.WorkerNum)

	for i := 0; i < wp.WorkerNum; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}

	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()
		defer close(wp.JobChannel)
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Stopping worker pool")
				return
			default:
			}

			payload, ok := wp.claimDue(ctx, time.Now())
			if !ok {
				select {
				case <-ctx.Done():
				case <-time.After(pollInterval):
				}
				continue
			}

			select {
			case wp.JobChannel <- payload:
			case <-ctx.Done():
				return
			}
		}
	}()
}

// claimDue pops the earliest due job. Only the poller whose ZREM removed the
// member owns it, so several instances can share one queue.
func (wp *WorkerPool) claimDue(ctx context.Context, now time.Time) (string, bool) {
	result, err := wp.Redis.ZRangeByScore(ctx, queue.PriorityQueueKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%f", float64(now.Unix())+1),
		Count: 1,
	}).Result()
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Msg("Worker: failed to poll job")
		}
		return "", false
	}
	if len(result) == 0 {
		return "", false
	}

	removed, err := wp.Redis.ZRem(ctx, queue.PriorityQueueKey, result[0]).Result()
	if err != nil || removed == 0 {
		return "", false
	}
	return result[0], true
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	log.Info().Msgf("Worker %d started", id)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("Worker %d stopping", id)
			return
		case payload, ok := <-wp.JobChannel:
			if !ok {
				return
			}
			wp.process(ctx, payload, time.Now())
		}
	}
}

func (wp *WorkerPool) process(ctx context.Context, payload string, now time.Time) {
	var job queue.Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		log.Warn().Err(err).Msg("Worker: failed to unmarshal job payload")
		return
	}

	err := HandleJob(ctx, job, wp.broadcaster)
	if err == nil {
		return
	}

	job.Retry++
	job.ErrorMsg = err.Error()

	if job.Retry >= job.MaxRetry || now.Unix() > job.ExpireAt {
		log.Error().Str("job_id", job.ID).Msg("Job moved to DLQ")
		dlqBytes, _ := json.Marshal(job)
		if err := wp.Redis.RPush(ctx, queue.DeadLetterKey, dlqBytes).Err(); err != nil {
			log.Error().Err(err).Str("job_id", job.ID).Msg("Worker: failed to push job to DLQ")
		}

		sendDLA(job)
		return
	}

	// exponential backoff
	delay := baseBackoff * time.Duration(1<<job.Retry)
	retryAt := now.Add(delay).Unix()

	jobBytes, _ := json.Marshal(job)
	if err := wp.Redis.ZAdd(ctx, queue.PriorityQueueKey, redis.Z{
		Score:  float64(retryAt),
		Member: jobBytes,
	}).Err(); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("Worker: failed to requeue job")
		return
	}
	log.Warn().Str("job_id", job.ID).Msgf("Retrying in %v seconds (%d/%d)", delay.Seconds(), job.Retry, job.MaxRetry)
}

var dlaCache = make(map[string]time.Time)
var dlaMu sync.Mutex

// sendDLA logs a dead letter alert at most once per job type every ten minutes.
func sendDLA(job queue.Job) {
	dlaMu.Lock()
	defer dlaMu.Unlock()

	now := time.Now()
	lastAlert, ok := dlaCache[job.Type]
	if ok && now.Sub(lastAlert) < 10*time.Minute {
		return
	}

	log.Error().Str("job_id", job.ID).Str("type", job.Type).Str("error", job.ErrorMsg).Msg("Dead Letter Alert: job failed permanently")

	dlaCache[job.Type] = now
}

func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
	log.Info().Msg("All workers have stopped")
}
