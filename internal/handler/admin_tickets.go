package handler

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/club-seat-reservation/internal/middleware"
	"github.com/iliyamo/club-seat-reservation/internal/model"
	"github.com/iliyamo/club-seat-reservation/internal/observability"
	"github.com/iliyamo/club-seat-reservation/internal/service"
)

// AdminTicketHandler serves the authenticated ticketing endpoints.
type AdminTicketHandler struct {
	Service *service.AdminTicketService
	Logger  observability.Logger
}

func NewAdminTicketHandler(tickets *service.AdminTicketService, logger observability.Logger) *AdminTicketHandler {
	if tickets == nil {
		panic("nil service passed to NewAdminTicketHandler")
	}
	return &AdminTicketHandler{Service: tickets, Logger: logger}
}

// adminGame is a game as listed to administrators: stored columns plus
// the joined venue fields.
type adminGame struct {
	ID            uint64                      `json:"id"`
	VenueID       uint64                      `json:"venueId"`
	Opponent      string                      `json:"opponent"`
	StartsAt      time.Time                   `json:"startsAt"`
	Status        string                      `json:"status"`
	Description   *string                     `json:"description"`
	CreatedAt     time.Time                   `json:"createdAt"`
	UpdatedAt     time.Time                   `json:"updatedAt"`
	VenueName     string                      `json:"venueName"`
	VenueSlug     string                      `json:"venueSlug"`
	VenueLocation *string                     `json:"venueLocation"`
	Sections      []model.SectionAvailability `json:"sections,omitempty"`
}

func toAdminGame(g model.Game) adminGame {
	return adminGame{
		ID:            g.ID,
		VenueID:       g.VenueID,
		Opponent:      g.Opponent,
		StartsAt:      g.StartsAt,
		Status:        g.Status,
		Description:   g.Description,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
		VenueName:     g.VenueName,
		VenueSlug:     g.VenueSlug,
		VenueLocation: g.VenueLocation,
	}
}

func actor(c echo.Context) string {
	if u, ok := middleware.CurrentUser(c); ok {
		return u.Username
	}
	return ""
}

// Games lists every game with its section availability.
func (h *AdminTicketHandler) Games(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	games, err := h.Service.Games(ctx)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	out := make([]adminGame, 0, len(games))
	for _, gs := range games {
		ag := toAdminGame(gs.Game)
		ag.Sections = nonNilSections(gs.Sections)
		out = append(out, ag)
	}
	return c.JSON(http.StatusOK, echo.Map{"games": out})
}

// Availability returns the sections of one game.  An unknown game simply
// has no sections.
func (h *AdminTicketHandler) Availability(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid game id"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	sections, err := h.Service.Availability(ctx, id)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"sections": nonNilSections(sections)})
}

// Tickets lists the tickets of one game with seat and holder details.
func (h *AdminTicketHandler) Tickets(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid game id"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	tickets, err := h.Service.Tickets(ctx, id)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	if tickets == nil {
		tickets = []model.TicketView{}
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": tickets})
}

type statusReq struct {
	Status      *string  `json:"status"`
	PurchasedAt *float64 `json:"purchasedAt"` // epoch milliseconds
}

// SetStatus moves a ticket between available, reserved and sold.
func (h *AdminTicketHandler) SetStatus(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid ticket id"})
	}
	var req statusReq
	_ = json.NewDecoder(c.Request().Body).Decode(&req)
	if req.Status == nil || *req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Ticket status is required"})
	}
	var purchasedAt *time.Time
	if req.PurchasedAt != nil {
		t := time.UnixMilli(int64(*req.PurchasedAt)).UTC()
		purchasedAt = &t
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Service.SetStatus(ctx, actor(c), id, *req.Status, purchasedAt); err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

type assignReq struct {
	CustomerID *float64 `json:"customerId"`
}

// Assign sets the holder of a ticket; a null customerId clears it.
func (h *AdminTicketHandler) Assign(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid ticket id"})
	}
	var req assignReq
	_ = json.NewDecoder(c.Request().Body).Decode(&req)

	var customerID *uint64
	if req.CustomerID != nil {
		f := *req.CustomerID
		if f < 1 || f != math.Trunc(f) || f > 1<<53 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid customer id"})
		}
		v := uint64(f)
		customerID = &v
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Service.Assign(ctx, actor(c), id, customerID); err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
