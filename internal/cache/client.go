package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ConnState is the lifecycle of the shared backend connection.
type ConnState int32

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

type Options struct {
	// Addrs with more than one entry selects cluster mode.
	Addrs        []string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Client wraps a redis node or cluster. It connects lazily and re-checks the
// connection before every operation once the state has dropped to Disconnected.
type Client struct {
	opts *redis.UniversalOptions

	mu  sync.Mutex
	rdb redis.UniversalClient

	state atomic.Int32
}

func NewClient(opts Options) *Client {
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 3 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 3 * time.Second
	}

	return &Client{
		opts: &redis.UniversalOptions{
			Addrs:        opts.Addrs,
			Password:     opts.Password,
			DB:           opts.DB,
			DialTimeout:  opts.DialTimeout,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
			PoolSize:     50,
			MaxIdleConns: 10,
		},
	}
}

func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

func (c *Client) setState(s ConnState) {
	prev := ConnState(c.state.Swap(int32(s)))
	if prev != s {
		log.Debug().Str("from", prev.String()).Str("to", s.String()).Msg("cache: connection state changed")
	}
}

// connect is the connect-if-needed guard run before every operation.
// Concurrent callers may each ping while reconnecting; that is harmless.
func (c *Client) connect(ctx context.Context) (redis.UniversalClient, error) {
	c.mu.Lock()
	if c.rdb == nil {
		c.rdb = redis.NewUniversalClient(c.opts)
		c.rdb.AddHook(stateHook{client: c})
	}
	rdb := c.rdb
	c.mu.Unlock()

	if c.State() == Connected {
		return rdb, nil
	}

	c.setState(Connecting)
	if err := rdb.Ping(ctx).Err(); err != nil {
		c.setState(Disconnected)
		log.Error().Err(err).Strs("addrs", c.opts.Addrs).Msg("cache: connect failed")
		return nil, fmt.Errorf("cache connect: %w", err)
	}
	c.setState(Connected)
	return rdb, nil
}

// Get returns the raw stored value, false on a miss.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	rdb, err := c.connect(ctx)
	if err != nil {
		return "", false, err
	}

	val, err := rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get %q: %w", key, err)
	}
	return val, true, nil
}

// Set stores strings verbatim and JSON-encodes anything else.
// A non-positive ttl stores the key without expiry.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	rdb, err := c.connect(ctx)
	if err != nil {
		return err
	}

	var payload string
	switch v := value.(type) {
	case string:
		payload = v
	case []byte:
		payload = string(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("cache encode %q: %w", key, err)
		}
		payload = string(b)
	}

	if ttl <= 0 {
		ttl = 0
	}
	if err := rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, keys ...string) error {
	rdb, err := c.connect(ctx)
	if err != nil {
		return err
	}
	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Expire resets the ttl of key; an absent key is not an error.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	rdb, err := c.connect(ctx)
	if err != nil {
		return err
	}
	if err := rdb.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("cache expire %q: %w", key, err)
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.connect(ctx)
	return err
}

func (c *Client) Close() error {
	c.mu.Lock()
	rdb := c.rdb
	c.rdb = nil
	c.mu.Unlock()

	c.setState(Disconnected)
	if rdb == nil {
		return nil
	}
	if err := rdb.Close(); err != nil {
		return fmt.Errorf("cache close: %w", err)
	}
	log.Info().Msg("cache: connection closed")
	return nil
}

// GetJSON decodes a cached JSON value into T. A miss returns nil, nil.
func GetJSON[T any](ctx context.Context, c *Client, key string) (*T, error) {
	val, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, err
	}

	var data T
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return nil, fmt.Errorf("cache decode %q: %w", key, err)
	}
	return &data, nil
}
