package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/club-seat-reservation/internal/handler"
	"github.com/iliyamo/club-seat-reservation/internal/middleware"
)

// RegisterAdmin registers inventory endpoints under /admin.  Every route
// requires a verified session (cookie or Bearer token) carrying the admin
// role; anything else gets 401 and a cleared cookie.
func RegisterAdmin(e *echo.Echo, t *handler.AdminTicketHandler, s *handler.AdminSetupHandler, sessions middleware.Sessions, role string) {
	g := e.Group(
		"/admin",
		middleware.RequireAdmin(sessions),
		middleware.RequireRole(role),
	)

	// Ticketing
	g.GET("/games", t.Games)
	g.GET("/games/:id/availability", t.Availability)
	g.GET("/games/:id/tickets", t.Tickets)
	g.POST("/tickets/:id/status", t.SetStatus)
	g.POST("/tickets/:id/assign", t.Assign)

	// Inventory setup
	g.GET("/venues", s.ListVenues)
	g.POST("/venues", s.CreateVenue)
	g.POST("/venues/:id/seats", s.AddSeats)
	g.POST("/games", s.CreateGame)
	g.GET("/audit", s.RecentAudit)
}
