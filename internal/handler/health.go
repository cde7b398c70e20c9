package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

// Pinger is a dependency the readiness probe checks.  *sql.DB satisfies
// it directly; Redis is adapted with PingFunc.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Health is the liveness check for load balancers: the process is up.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready checks every named dependency in parallel and answers 503 when
// any of them fails.  Optional dependencies that are not configured are
// simply not passed in.
func Ready(deps map[string]Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		type outcome struct {
			name string
			err  error
		}
		out := make(chan outcome, len(deps))

		var g errgroup.Group
		for name, dep := range deps {
			name, dep := name, dep
			g.Go(func() error {
				out <- outcome{name: name, err: dep.PingContext(ctx)}
				return nil
			})
		}
		_ = g.Wait()
		close(out)

		checks := make(map[string]string, len(deps))
		healthy := true
		for o := range out {
			if o.err != nil {
				checks[o.name] = o.err.Error()
				healthy = false
				continue
			}
			checks[o.name] = "ok"
		}
		if !healthy {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "checks": checks})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "checks": checks})
	}
}
