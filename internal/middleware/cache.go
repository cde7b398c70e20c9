package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/club-seat-reservation/internal/config"
	"github.com/iliyamo/club-seat-reservation/internal/observability"
	"github.com/iliyamo/club-seat-reservation/internal/utils"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 {
		cw.buf.Write(b)
	} else if remain := cw.limit - cw.size; remain > 0 {
		if int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}

// ResponseCache stores successful public GET responses in Redis and drops
// them again when seat inventory changes.  A nil *ResponseCache, a nil
// Redis client or a disabled config all turn it into a pass-through.
type ResponseCache struct {
	cfg    config.CacheConfig
	rdb    *redis.Client
	logger observability.Logger
}

func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, logger observability.Logger) *ResponseCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Second
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "cache"
	}
	return &ResponseCache{cfg: cfg, rdb: rdb, logger: logger}
}

func (rc *ResponseCache) active() bool {
	return rc != nil && rc.cfg.Enabled && rc.rdb != nil
}

// key is "<prefix>:<path>|<sha1(query)>" so invalidation can match on path.
// The path is the matched route with every :param replaced by its parsed
// id, so /games/007 and /games/7abc share the entry of /games/7.  It
// reports false when a parameter is not an id.
func (rc *ResponseCache) key(c echo.Context) (string, bool) {
	path := c.Path()
	if path == "" {
		path = c.Request().URL.Path
	}
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		id, ok := utils.ParseID(c.Param(seg[1:]))
		if !ok {
			return "", false
		}
		segs[i] = strconv.FormatUint(id, 10)
	}
	sum := sha1.Sum([]byte(c.Request().URL.RawQuery))
	return fmt.Sprintf("%s:%s|%x", rc.cfg.Prefix, strings.Join(segs, "/"), sum[:]), true
}

// Middleware serves cached responses and stores 200 responses on a miss.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
	if !rc.active() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	maxBody := int64(rc.cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rc.cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			key, ok := rc.key(c)
			if !ok {
				return next(c)
			}
			ctx := c.Request().Context()

			if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						if strings.EqualFold(k, "Content-Length") {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					observability.CacheHits.WithLabelValues("hit").Inc()
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					if len(body) > 0 {
						_, _ = c.Response().Write(body)
					}
					return nil
				}
			} else if err != redis.Nil {
				rc.logger.WithError(err).WithField("key", key).Warn("cache: redis get failed")
			}

			observability.CacheHits.WithLabelValues("miss").Inc()
			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			// Truncated bodies are never stored.
			if cw.status != http.StatusOK || (maxBody > 0 && cw.size > maxBody) {
				return nil
			}
			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
			if err != nil {
				return nil
			}
			if err := rc.rdb.Set(context.Background(), key, payload, rc.cfg.TTL).Err(); err != nil {
				rc.logger.WithError(err).WithField("key", key).Warn("cache: redis set failed")
			}
			return nil
		}
	}
}

// InvalidateGame drops the cached detail of one game and the game list.
func (rc *ResponseCache) InvalidateGame(ctx context.Context, gameID uint64) {
	if !rc.active() {
		return
	}
	rc.deleteMatching(ctx, fmt.Sprintf("%s:/games/%d|*", rc.cfg.Prefix, gameID))
	rc.deleteMatching(ctx, rc.cfg.Prefix+":/games|*")
}

// InvalidateGames drops every cached response.
func (rc *ResponseCache) InvalidateGames(ctx context.Context) {
	if !rc.active() {
		return
	}
	rc.deleteMatching(ctx, rc.cfg.Prefix+":*")
}

func (rc *ResponseCache) deleteMatching(ctx context.Context, pattern string) {
	iter := rc.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		rc.logger.WithError(err).WithField("pattern", pattern).Warn("cache: scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := rc.rdb.Del(ctx, keys...).Err(); err != nil {
		rc.logger.WithError(err).WithField("pattern", pattern).Warn("cache: invalidation failed")
	}
}
