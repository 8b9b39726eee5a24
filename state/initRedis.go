package state

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// InitRedis connects the client used by the job queue, the event relay and the
// rate limiter. More than one address selects cluster mode.
func InitRedis(addrs []string, password string, db int) (redis.UniversalClient, error) {
	if len(addrs) == 0 {
		return nil, fmt.Errorf("redis addrs is empty")
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        addrs,
		Password:     password,
		DB:           db,
		PoolSize:     50,
		MaxIdleConns: 10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Strs("addrs", addrs).Msg("failed to connect to Redis")
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().Strs("addrs", addrs).Msg("Redis connection established successfully")
	return rdb, nil
}
