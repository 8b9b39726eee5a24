package queue

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

// codec is named apart from encoding/json, which job.go needs for RawMessage.
var codec = jsoniter.ConfigCompatibleWithStandardLibrary

type Producer interface {
	Enqueue(ctx context.Context, job Job) error
}

type RedisProducer struct {
	Redis redis.UniversalClient
}

func NewProducer(redis redis.UniversalClient) Producer {
	return &RedisProducer{Redis: redis}
}

// Enqueue scores a job by its due time so the worker poll picks it up
// immediately; lower priority values are due first among equal times.
func (p *RedisProducer) Enqueue(ctx context.Context, job Job) error {
	jobBytes, err := codec.Marshal(job)
	if err != nil {
		return err
	}

	score := float64(job.CreatedAt) + float64(job.Priority)*1e-3
	return p.Redis.ZAdd(ctx, PriorityQueueKey, redis.Z{
		Score:  score,
		Member: jobBytes,
	}).Err()
}
