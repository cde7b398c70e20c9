package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/club-seat-reservation/internal/config"
	"github.com/iliyamo/club-seat-reservation/internal/observability"
)

func cachedServer(rc *ResponseCache, calls *int32) *echo.Echo {
	e := echo.New()
	h := func(c echo.Context) error {
		n := atomic.AddInt32(calls, 1)
		return c.JSON(http.StatusOK, echo.Map{"path": c.Request().URL.Path, "call": n})
	}
	e.GET("/games", h, rc.Middleware())
	e.GET("/games/:id", h, rc.Middleware())
	e.GET("/missing", func(c echo.Context) error {
		atomic.AddInt32(calls, 1)
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Game not found"})
	}, rc.Middleware())
	return e
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
}

func TestResponseCache_HitAndMiss(t *testing.T) {
	t.Parallel()

	_, rdb := newRedis(t)
	rc := NewResponseCache(cacheConfig(), rdb, observability.NewNopLogger())
	var calls int32
	e := cachedServer(rc, &calls)

	miss := get(e, "/games/7")
	assert.Equal(t, "MISS", miss.Header().Get("X-Cache"))
	hit := get(e, "/games/7")
	assert.Equal(t, "HIT", hit.Header().Get("X-Cache"))
	assert.Equal(t, miss.Body.String(), hit.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, hit.Header().Get(echo.HeaderContentType))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	// Different query strings are cached separately.
	assert.Equal(t, "MISS", get(e, "/games/7?x=1").Header().Get("X-Cache"))

	// Errors are never cached.
	get(e, "/missing")
	assert.Equal(t, "MISS", get(e, "/missing").Header().Get("X-Cache"))
}

func TestResponseCache_Invalidation(t *testing.T) {
	t.Parallel()

	mr, rdb := newRedis(t)
	rc := NewResponseCache(cacheConfig(), rdb, observability.NewNopLogger())
	var calls int32
	e := cachedServer(rc, &calls)

	get(e, "/games")
	get(e, "/games/7")
	get(e, "/games/8")
	require.Len(t, mr.Keys(), 3)

	rc.InvalidateGame(context.Background(), 7)
	assert.Equal(t, "MISS", get(e, "/games/7").Header().Get("X-Cache"))
	assert.Equal(t, "MISS", get(e, "/games").Header().Get("X-Cache"))
	assert.Equal(t, "HIT", get(e, "/games/8").Header().Get("X-Cache"))

	rc.InvalidateGames(context.Background())
	assert.Empty(t, mr.Keys())
}

func TestResponseCache_KeysOnParsedGameID(t *testing.T) {
	t.Parallel()

	mr, rdb := newRedis(t)
	rc := NewResponseCache(cacheConfig(), rdb, observability.NewNopLogger())
	var calls int32
	e := cachedServer(rc, &calls)

	assert.Equal(t, "MISS", get(e, "/games/007").Header().Get("X-Cache"))
	assert.Equal(t, "HIT", get(e, "/games/7").Header().Get("X-Cache"))
	assert.Equal(t, "HIT", get(e, "/games/7abc").Header().Get("X-Cache"))
	require.Len(t, mr.Keys(), 1)

	rc.InvalidateGame(context.Background(), 7)
	assert.Empty(t, mr.Keys())
	assert.Equal(t, "MISS", get(e, "/games/12abc").Header().Get("X-Cache"))
	rc.InvalidateGame(context.Background(), 12)
	assert.Equal(t, "MISS", get(e, "/games/12").Header().Get("X-Cache"))

	// Not an id: served straight through, nothing stored.
	before := len(mr.Keys())
	rec := get(e, "/games/abc")
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.Len(t, mr.Keys(), before)
}

func TestResponseCache_Disabled(t *testing.T) {
	t.Parallel()

	var nilCache *ResponseCache
	nilCache.InvalidateGame(context.Background(), 1)
	nilCache.InvalidateGames(context.Background())

	rc := NewResponseCache(cacheConfig(), nil, observability.NewNopLogger())
	var calls int32
	e := cachedServer(rc, &calls)
	get(e, "/games")
	get(e, "/games")
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	require.NoError(t, err)
	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, gotHdr)
	assert.Equal(t, `{"ok":true}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0})
	assert.False(t, ok)
}
