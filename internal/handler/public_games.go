// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines the public fixture API: browsing games with their seat
// availability and submitting ticket requests.  No authentication is
// required; responses only carry supporter-facing fields.

package handler

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/club-seat-reservation/internal/clock"
	"github.com/iliyamo/club-seat-reservation/internal/middleware"
	"github.com/iliyamo/club-seat-reservation/internal/model"
	"github.com/iliyamo/club-seat-reservation/internal/observability"
	"github.com/iliyamo/club-seat-reservation/internal/repository"
	"github.com/iliyamo/club-seat-reservation/internal/service"
)

// PublicHandler serves the unauthenticated game endpoints.
type PublicHandler struct {
	Games        service.GameReader
	Availability *service.AvailabilityService
	Requests     *service.TicketRequestService
	Clock        clock.Clock
	Logger       observability.Logger
}

func NewPublicHandler(games service.GameReader, availability *service.AvailabilityService, requests *service.TicketRequestService, clk clock.Clock, logger observability.Logger) *PublicHandler {
	if games == nil || availability == nil || requests == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Games: games, Availability: availability, Requests: requests, Clock: clk, Logger: logger}
}

// ListGames returns every game decorated for supporters, each with its
// seat summary.
func (h *PublicHandler) ListGames(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	games, err := h.Games.List(ctx)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	ids := make([]uint64, len(games))
	for i, g := range games {
		ids[i] = g.ID
	}
	byGame, err := h.Availability.ForGames(ctx, ids)
	if err != nil {
		return writeError(c, h.Logger, err)
	}

	now := h.Clock.Now()
	out := make([]PublicGame, 0, len(games))
	for _, g := range games {
		pg := NewPublicGame(g, now)
		summary := service.Summarise(byGame[g.ID])
		pg.SeatSummary = &summary
		out = append(out, pg)
	}
	return c.JSON(http.StatusOK, echo.Map{"games": out})
}

// GetGame returns one game with its per-section availability.
func (h *PublicHandler) GetGame(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid game id"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	g, err := h.Games.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	sections, err := h.Availability.ForGame(ctx, id)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	pg := NewPublicGame(*g, h.Clock.Now())
	summary := service.Summarise(sections)
	pg.SeatSummary = &summary
	return c.JSON(http.StatusOK, echo.Map{"game": pg, "sections": nonNilSections(sections)})
}

type ticketRequestBody struct {
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Phone string          `json:"phone"`
	Seats json.RawMessage `json:"seats"`
}

// parseSeats accepts a JSON number or a numeric string.  Anything else,
// including a missing value, counts as one seat; clamping happens in the
// service.
func parseSeats(raw json.RawMessage) int {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 1
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f > math.MaxInt32 {
			return math.MaxInt32
		}
		return int(f)
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 1
	}
	str = strings.TrimSpace(str)
	end := 0
	if end < len(str) && (str[0] == '-' || str[0] == '+') {
		end++
	}
	for end < len(str) && str[end] >= '0' && str[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(str[:end])
	if err != nil {
		return 1
	}
	return n
}

// RequestTickets reserves seats for a supporter.  Outcomes the supporter
// can act on (missing details, sold out, partial allocation) are answered
// with success=false rather than an error status.
func (h *PublicHandler) RequestTickets(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid game id"})
	}

	var body ticketRequestBody
	// An unreadable body is treated as empty and fails validation below.
	_ = json.NewDecoder(c.Request().Body).Decode(&body)

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Requests.Submit(ctx, id, service.TicketRequest{
		Name:  body.Name,
		Email: body.Email,
		Phone: body.Phone,
		Seats: parseSeats(body.Seats),
	})
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusOK, echo.Map{"success": false, "error": errors.UnwrapAll(err).Error()})
	case errors.Is(err, repository.ErrGameNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "Game not found."})
	case err != nil:
		middleware.LoggerFrom(c, h.Logger).WithError(err).WithField("game_id", id).Error("ticket request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Unable to process ticket request."})
	}

	if res.SoldOut {
		return c.JSON(http.StatusOK, echo.Map{
			"success":     false,
			"error":       res.Message,
			"seatSummary": res.SeatSummary,
			"sections":    nonNilSections(res.Sections),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":     res.Success(),
		"reserved":    res.Reservation.Reserved,
		"requested":   res.Reservation.Requested,
		"message":     res.Message,
		"seatSummary": res.SeatSummary,
		"sections":    nonNilSections(res.Sections),
	})
}

func nonNilSections(s []model.SectionAvailability) []model.SectionAvailability {
	if s == nil {
		return []model.SectionAvailability{}
	}
	return s
}
