package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	app_error "github.com/xenn00/chat-rooms/internal/errors"
	"github.com/xenn00/chat-rooms/internal/metrics"
)

const rateLimitMessage = "Too many requests, please try again later."

type RateLimiterConfig struct {
	Requests  int
	Window    time.Duration
	Whitelist []string // IPs or CIDRs exempt from rate limiting
}

// RateLimiter is a per client IP fixed window limiter backed by one Redis
// sorted set per window. It fails open when Redis is unavailable.
type RateLimiter struct {
	client       redis.UniversalClient
	requests     int
	window       time.Duration
	whitelist    []*net.IPNet
	whitelistIPs map[string]bool
	now          func() time.Time
	seq          atomic.Int64
}

func NewRateLimiter(client redis.UniversalClient, cfg RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		client:       client,
		requests:     cfg.Requests,
		window:       cfg.Window,
		whitelistIPs: make(map[string]bool),
		now:          time.Now,
	}
	if rl.requests <= 0 {
		rl.requests = 60
	}
	if rl.window <= 0 {
		rl.window = time.Minute
	}

	for _, entry := range cfg.Whitelist {
		if strings.Contains(entry, "/") {
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil {
				log.Warn().Str("entry", entry).Err(err).Msg("invalid CIDR in rate limit whitelist")
				continue
			}
			rl.whitelist = append(rl.whitelist, ipNet)
		} else {
			rl.whitelistIPs[entry] = true
		}
	}

	return rl
}

func (rl *RateLimiter) isWhitelisted(ipStr string) bool {
	if rl.whitelistIPs[ipStr] {
		return true
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, ipNet := range rl.whitelist {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

// RealIP extracts the client IP from proxy headers or the connection.
func RealIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// CheckAndIncrement records a hit for key in the current fixed window and
// reports whether it is within the limit. Returns (allowed, remaining, resetAt, err).
func (rl *RateLimiter) CheckAndIncrement(ctx context.Context, key string) (bool, int, time.Time, error) {
	now := rl.now()
	bucket := now.UnixMilli() / rl.window.Milliseconds()
	resetAt := time.UnixMilli((bucket + 1) * rl.window.Milliseconds())

	// hits never outlive their bucket, so a client over the limit is admitted again next window
	windowKey := fmt.Sprintf("%s:%d", key, bucket)

	pipe := rl.client.TxPipeline()
	countCmd := pipe.ZCard(ctx, windowKey)
	pipe.ZAdd(ctx, windowKey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: fmt.Sprintf("%d-%d", now.UnixNano(), rl.seq.Add(1)),
	})
	pipe.Expire(ctx, windowKey, rl.window*2)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, rl.requests, resetAt, err
	}

	count := int(countCmd.Val())
	remaining := max(rl.requests-count-1, 0)
	return count < rl.requests, remaining, resetAt, nil
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := RealIP(r)
		if rl.isWhitelisted(ip) {
			next.ServeHTTP(w, r)
			return
		}

		key := "ratelimit:ip:" + ip
		allowed, remaining, resetAt, err := rl.CheckAndIncrement(r.Context(), key)
		if err != nil {
			log.Warn().Err(err).Str("ip", ip).Msg("rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		reset := int(math.Ceil(resetAt.Sub(rl.now()).Seconds()))
		w.Header().Set("RateLimit-Limit", strconv.Itoa(rl.requests))
		w.Header().Set("RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("RateLimit-Reset", strconv.Itoa(reset))

		if !allowed {
			metrics.RateLimitHits.WithLabelValues(r.URL.Path).Inc()
			log.Warn().
				Str("event", "rate_limit_exceeded").
				Str("ip", ip).
				Str("endpoint", r.URL.Path).
				Msg("rate limit exceeded")

			w.Header().Set("Retry-After", strconv.Itoa(reset))
			writeAppError(w, r, app_error.NewRateLimitError(rateLimitMessage))
			return
		}

		next.ServeHTTP(w, r)
	})
}
