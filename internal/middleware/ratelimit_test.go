package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/club-seat-reservation/internal/config"
	"github.com/iliyamo/club-seat-reservation/internal/observability"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func limitedServer(cfg config.RateLimitConfig, rdb *redis.Client) *echo.Echo {
	e := echo.New()
	e.POST("/games/:id/ticket-requests", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	}, NewTokenBucket(cfg, rdb, observability.NewNopLogger()))
	return e
}

func post(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/games/1/ticket-requests", nil)
	req.RemoteAddr = ip + ":40000"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTokenBucket(t *testing.T) {
	t.Parallel()

	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
	e := limitedServer(cfg, rdb)

	first := post(e, "192.0.2.10")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, post(e, "192.0.2.10").Code)

	blocked := post(e, "192.0.2.10")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
	assert.Contains(t, blocked.Body.String(), `"success":false`)

	// Buckets are per client address.
	assert.Equal(t, http.StatusOK, post(e, "192.0.2.11").Code)
}

func TestTokenBucket_PassThrough(t *testing.T) {
	t.Parallel()

	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Minute, TTL: time.Minute}
	e := limitedServer(cfg, nil)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, post(e, "192.0.2.10").Code)
	}

	// A broken Redis lets requests through rather than blocking ticket sales.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	e = limitedServer(cfg, rdb)
	require.Equal(t, http.StatusOK, post(e, "192.0.2.10").Code)
}
