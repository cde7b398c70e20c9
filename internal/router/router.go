package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/club-seat-reservation/internal/handler"
	"github.com/iliyamo/club-seat-reservation/internal/middleware"
)

// RegisterRoutes registers the operational endpoints: liveness and
// readiness probes and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, deps map[string]handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(deps))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the session endpoints.  None of them sit behind
// the admin gate: /auth/me checks the cookie itself so that it can clear
// a bad one.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/auth")
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me)
	// Bearer tokens for scripted clients that do not keep cookies.
	g.POST("/token", a.Token)
}

// RegisterPublic registers the unauthenticated fixture endpoints.  Game
// reads go through the response cache; ticket requests are rate limited.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache *middleware.ResponseCache, limiter echo.MiddlewareFunc) {
	cached := cache.Middleware()
	e.GET("/games", p.ListGames, cached)
	e.GET("/games/:id", p.GetGame, cached)
	e.POST("/games/:id/ticket-requests", p.RequestTickets, limiter)
}
