package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// windowStart is aligned to a minute boundary.
var windowStart = time.Unix(1_700_000_040, 0)

func newLimiter(t *testing.T, cfg RateLimiterConfig) (*RateLimiter, http.Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rl := NewRateLimiter(rdb, cfg)
	rl.now = func() time.Time { return windowStart }

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return rl, WithRequestId(rl.Middleware(ok)), mr
}

func newLimitedHandler(t *testing.T, cfg RateLimiterConfig) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	_, h, mr := newLimiter(t, cfg)
	return h, mr
}

func hit(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms", nil)
	req.RemoteAddr = ip + ":40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	h, _ := newLimitedHandler(t, RateLimiterConfig{Requests: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		rec := hit(h, "10.0.0.1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "3", rec.Header().Get("RateLimit-Limit"))
	}
	assert.Equal(t, "2", hit(h, "10.0.0.2").Header().Get("RateLimit-Remaining"))

	rec := hit(h, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("RateLimit-Remaining"))
	assert.Equal(t, "60", rec.Header().Get("RateLimit-Reset"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "TOO_MANY_REQUESTS", errBody["code"])
	assert.NotEmpty(t, errBody["message"])
}

func TestRateLimiter_CountsPerClient(t *testing.T) {
	h, _ := newLimitedHandler(t, RateLimiterConfig{Requests: 1, Window: time.Minute})

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2").Code)
}

func TestRateLimiter_RecoversEachWindowUnderSustainedLoad(t *testing.T) {
	rl, h, _ := newLimiter(t, RateLimiterConfig{Requests: 3, Window: time.Minute})

	for window := 0; window < 4; window++ {
		allowed := 0
		// one request every 5s for the whole window, well above the limit
		for step := 0; step < 12; step++ {
			at := windowStart.Add(time.Duration(window)*time.Minute + time.Duration(step)*5*time.Second)
			rl.now = func() time.Time { return at }

			rec := hit(h, "10.0.0.1")
			if rec.Code == http.StatusOK {
				allowed++
			} else {
				require.Equal(t, http.StatusTooManyRequests, rec.Code)
			}
		}
		assert.Equal(t, 3, allowed, "window %d", window)
	}
}

func TestRateLimiter_ResetPointsAtWindowEnd(t *testing.T) {
	rl, h, _ := newLimiter(t, RateLimiterConfig{Requests: 1, Window: time.Minute})
	rl.now = func() time.Time { return windowStart.Add(45 * time.Second) }

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)
	rec := hit(h, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "15", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_Whitelist(t *testing.T) {
	h, _ := newLimitedHandler(t, RateLimiterConfig{Requests: 1, Window: time.Minute, Whitelist: []string{"192.168.0.0/16", "10.0.0.9"}})

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "192.168.4.4").Code)
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.9").Code)
	}
}

func TestRateLimiter_FailsOpenWhenRedisIsDown(t *testing.T) {
	h, mr := newLimitedHandler(t, RateLimiterConfig{Requests: 1, Window: time.Minute})
	mr.Close()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimiterConfig{})
	assert.Equal(t, 60, rl.requests)
	assert.Equal(t, time.Minute, rl.window)
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "172.16.0.1:5555"
	assert.Equal(t, "172.16.0.1", RealIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", RealIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	assert.Equal(t, "198.51.100.7", RealIP(req))
}
