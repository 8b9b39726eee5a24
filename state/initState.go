package state

import (
	"context"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-rooms/config"
	"github.com/xenn00/chat-rooms/internal/cache"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/gorm"
)

type JwtSecret struct {
	Public *rsa.PublicKey
}

type AppState struct {
	Ctx           context.Context
	Cancel        context.CancelFunc
	DB            *gorm.DB
	Redis         redis.UniversalClient
	Cache         *cache.Client
	Mongo         *mongo.Client
	MongoDatabase string
	JwtSecret     *JwtSecret
}

func InitAppState(ctx context.Context, cancel context.CancelFunc) (*AppState, error) {
	conf := config.Conf
	addrs := conf.RedisAddrs()
	if len(addrs) == 0 {
		return nil, fmt.Errorf("redis addrs is empty")
	}

	db, _, err := InitPostgres(conf.DATABASE.Postgres.DSN)
	if err != nil {
		return nil, err
	}

	mongoClient, err := InitMongo(ctx)
	if err != nil {
		return nil, err
	}

	// the queue, relay and rate limiter connect eagerly; the cache connects lazily
	rdb, err := InitRedis(addrs, conf.DATABASE.Redis.Password, conf.DATABASE.Redis.DB)
	if err != nil {
		return nil, err
	}

	jwtSecret, err := InitSecret(conf.AUTH.PublicKeyPath)
	if err != nil {
		return nil, err
	}

	return &AppState{
		Ctx:    ctx,
		Cancel: cancel,
		DB:     db,
		Mongo:  mongoClient,
		Redis:  rdb,
		Cache: cache.NewClient(cache.Options{
			Addrs:    addrs,
			Password: conf.DATABASE.Redis.Password,
			DB:       conf.DATABASE.Redis.DB,
		}),
		MongoDatabase: conf.DATABASE.Mongo.Database,
		JwtSecret:     jwtSecret,
	}, nil
}

func (a *AppState) Close() {
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			log.Info().Msg("Closing PostgreSQL database connection...")
			sqlDB.Close()
		}
	}

	if a.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		log.Info().Msg("Closing MongoDB client...")
		defer cancel()
		if err := a.Mongo.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("failed to disconnect MongoDB client")
		}
	}

	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close cache client")
		}
	}

	if a.Redis != nil {
		log.Info().Msg("Closing Redis client...")
		if err := a.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Redis client")
		}
	}
}
