package middleware

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"github.com/iliyamo/club-seat-reservation/internal/observability"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	loggerKey       = "logger"
)

// RequestID reuses an incoming X-Request-ID or generates one and echoes it
// back on the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(requestIDKey, id)
			c.Response().Header().Set(requestIDHeader, id)
			return next(c)
		}
	}
}

// RequestLogger logs one line per request and records the request metrics.
// Handlers can pick up the request-scoped logger with LoggerFrom.
func RequestLogger(logger observability.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			entry := logger.WithField("request_id", c.Get(requestIDKey))
			c.Set(loggerKey, entry)

			err := next(c)
			if err != nil {
				// Let Echo write the error response so the status below is final.
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			elapsed := time.Since(start)
			observability.RequestsTotal.WithLabelValues(route, strconv.Itoa(status), c.Request().Method).Inc()
			observability.RequestDuration.WithLabelValues(route, c.Request().Method).Observe(elapsed.Seconds())

			line := entry.
				WithField("method", c.Request().Method).
				WithField("path", c.Request().URL.Path).
				WithField("status", status).
				WithField("latency_ms", elapsed.Milliseconds()).
				WithField("user", userID(c))
			switch {
			case status >= 500:
				line.WithError(err).Error("request failed")
			default:
				line.Info("request")
			}
			return nil
		}
	}
}

// LoggerFrom returns the request-scoped logger, or fallback outside a request.
func LoggerFrom(c echo.Context, fallback observability.Logger) observability.Logger {
	if l, ok := c.Get(loggerKey).(observability.Logger); ok {
		return l
	}
	return fallback
}

// Tracing starts a server span per request, continuing any trace context
// propagated by the caller.
func Tracing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := observability.Tracer().Start(ctx, r.Method+" "+c.Path())
			defer span.End()

			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", c.Path()),
				attribute.String("http.url", r.URL.String()),
			)
			c.SetRequest(r.WithContext(ctx))

			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
				span.RecordError(err)
			}
			span.SetAttributes(attribute.Int("http.status_code", status))
			if status >= 500 {
				span.SetStatus(codes.Error, "server error")
			}
			return err
		}
	}
}
