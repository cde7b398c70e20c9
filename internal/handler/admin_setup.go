package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/club-seat-reservation/internal/model"
	"github.com/iliyamo/club-seat-reservation/internal/observability"
	"github.com/iliyamo/club-seat-reservation/internal/repository"
	"github.com/iliyamo/club-seat-reservation/internal/service"
)

// AuditReader lists recent audit records.
type AuditReader interface {
	Recent(ctx context.Context, limit int64) ([]repository.AuditLog, error)
}

// AdminSetupHandler serves venue, seat plan and game creation.
type AdminSetupHandler struct {
	Setup  *service.SetupService
	Audit  AuditReader // nil when no audit store is configured
	Logger observability.Logger
}

func NewAdminSetupHandler(setup *service.SetupService, audit AuditReader, logger observability.Logger) *AdminSetupHandler {
	if setup == nil {
		panic("nil service passed to NewAdminSetupHandler")
	}
	return &AdminSetupHandler{Setup: setup, Audit: audit, Logger: logger}
}

// ----- DTOs -----

type venueReq struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Location    *string `json:"location"`
	Capacity    *uint32 `json:"capacity"`
	Description *string `json:"description"`
}

type venueResp struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Location    *string   `json:"location"`
	Capacity    *uint32   `json:"capacity"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toVenueResp(v model.Venue) venueResp {
	return venueResp{
		ID:          v.ID,
		Name:        v.Name,
		Slug:        v.Slug,
		Location:    v.Location,
		Capacity:    v.Capacity,
		Description: v.Description,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

type seatReq struct {
	Section  *string `json:"section"`
	Row      string  `json:"row"`
	Number   uint32  `json:"number"`
	SeatType string  `json:"seatType"`
}

type layoutReq struct {
	Section     *string `json:"section"`
	Rows        int     `json:"rows"`
	SeatsPerRow int     `json:"seatsPerRow"`
	SeatType    string  `json:"seatType"`
}

// seatsReq carries either explicit seats or a rectangular layout; both
// may be given and are combined.
type seatsReq struct {
	Seats  []seatReq  `json:"seats"`
	Layout *layoutReq `json:"layout"`
}

type seatResp struct {
	ID       uint64  `json:"id"`
	Section  *string `json:"section"`
	Row      string  `json:"row"`
	Number   uint32  `json:"number"`
	SeatType string  `json:"seatType"`
}

type gameReq struct {
	VenueID     uint64    `json:"venueId"`
	Opponent    string    `json:"opponent"`
	StartsAt    time.Time `json:"startsAt"`
	Status      string    `json:"status"`
	Description *string   `json:"description"`
	PriceCents  uint32    `json:"priceCents"`
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}

// CreateVenue creates a venue; the slug defaults to the slugified name.
func (h *AdminSetupHandler) CreateVenue(c echo.Context) error {
	var req venueReq
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	v, err := h.Setup.CreateVenue(ctx, actor(c), service.VenueInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Location:    req.Location,
		Capacity:    req.Capacity,
		Description: req.Description,
	})
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"venue": toVenueResp(*v)})
}

// ListVenues lists every venue by name.
func (h *AdminSetupHandler) ListVenues(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	venues, err := h.Setup.Venues(ctx)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	out := make([]venueResp, 0, len(venues))
	for _, v := range venues {
		out = append(out, toVenueResp(v))
	}
	return c.JSON(http.StatusOK, echo.Map{"venues": out})
}

// AddSeats adds seats to a venue and returns its full seat plan.
func (h *AdminSetupHandler) AddSeats(c echo.Context) error {
	venueID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid venue id"})
	}
	var req seatsReq
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return invalidBody(c)
	}

	in := make([]service.SeatInput, 0, len(req.Seats))
	for _, s := range req.Seats {
		in = append(in, service.SeatInput{Section: s.Section, Row: s.Row, Number: s.Number, SeatType: s.SeatType})
	}
	if req.Layout != nil {
		in = append(in, service.ExpandLayout(service.SeatLayout{
			Section:     req.Layout.Section,
			Rows:        req.Layout.Rows,
			SeatsPerRow: req.Layout.SeatsPerRow,
			SeatType:    req.Layout.SeatType,
		})...)
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	seats, err := h.Setup.AddSeats(ctx, actor(c), venueID, in)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	out := make([]seatResp, 0, len(seats))
	for _, s := range seats {
		out = append(out, seatResp{ID: s.ID, Section: s.Section, Row: s.RowLabel, Number: s.SeatNumber, SeatType: s.SeatType})
	}
	return c.JSON(http.StatusCreated, echo.Map{"seats": out, "added": len(in)})
}

// CreateGame creates a game and an available ticket for every seat of
// its venue.
func (h *AdminSetupHandler) CreateGame(c echo.Context) error {
	var req gameReq
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	g, n, err := h.Setup.CreateGame(ctx, actor(c), service.GameInput{
		VenueID:     req.VenueID,
		Opponent:    req.Opponent,
		StartsAt:    req.StartsAt,
		Status:      req.Status,
		Description: req.Description,
		PriceCents:  req.PriceCents,
	})
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"game": toAdminGame(*g), "tickets": n})
}

// RecentAudit returns the latest audit records (?limit=, default 50).
func (h *AdminSetupHandler) RecentAudit(c echo.Context) error {
	if h.Audit == nil {
		return c.JSON(http.StatusOK, echo.Map{"entries": []repository.AuditLog{}})
	}
	limit := int64(50)
	if v, err := strconv.ParseInt(c.QueryParam("limit"), 10, 64); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	entries, err := h.Audit.Recent(ctx, limit)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": entries})
}
