package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/club-seat-reservation/internal/clock"
	"github.com/iliyamo/club-seat-reservation/internal/model"
	"github.com/iliyamo/club-seat-reservation/internal/observability"
	"github.com/iliyamo/club-seat-reservation/internal/queue"
)

// SoldOutMessage is returned when a game has no available seat left.
const SoldOutMessage = "This fixture is currently sold out."

const defaultMaxSeats = 6

// TicketRequest is a public request for seats at a game.
type TicketRequest struct {
	Name  string
	Email string
	Phone string
	Seats int
}

// TicketRequestResult describes the outcome of a ticket request.  When
// SoldOut is set nothing was attempted and Reservation is zero.
type TicketRequestResult struct {
	SoldOut     bool
	Reservation model.ReservationResult
	Message     string
	SeatSummary model.SeatSummary
	Sections    []model.SectionAvailability
}

// Success reports whether every requested seat was reserved.
func (r TicketRequestResult) Success() bool {
	return !r.SoldOut && r.Reservation.Reserved >= r.Reservation.Requested
}

// TicketRequestService runs the public reservation flow: validate,
// resolve the customer, reserve and report availability afterwards.
type TicketRequestService struct {
	games        GameReader
	availability *AvailabilityService
	identity     *IdentityResolver
	engine       *ReservationEngine
	publisher    EventPublisher
	cache        CacheInvalidator
	clock        clock.Clock
	logger       observability.Logger
	maxSeats     int
}

type TicketRequestOption func(*TicketRequestService)

// WithMaxSeats sets the upper clamp for requested seats.
func WithMaxSeats(n int) TicketRequestOption {
	return func(s *TicketRequestService) {
		if n > 0 {
			s.maxSeats = n
		}
	}
}

// WithTicketEvents publishes a tickets.reserved event after each reservation.
func WithTicketEvents(p EventPublisher) TicketRequestOption {
	return func(s *TicketRequestService) { s.publisher = p }
}

// WithCacheInvalidation drops cached game responses after each reservation.
func WithCacheInvalidation(c CacheInvalidator) TicketRequestOption {
	return func(s *TicketRequestService) { s.cache = c }
}

func NewTicketRequestService(
	games GameReader,
	availability *AvailabilityService,
	identity *IdentityResolver,
	engine *ReservationEngine,
	clk clock.Clock,
	logger observability.Logger,
	opts ...TicketRequestOption,
) *TicketRequestService {
	s := &TicketRequestService{
		games:        games,
		availability: availability,
		identity:     identity,
		engine:       engine,
		clock:        clk,
		logger:       logger,
		maxSeats:     defaultMaxSeats,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClampSeats bounds a requested seat count to 1..limit.
func ClampSeats(n, limit int) int {
	if n < 1 {
		return 1
	}
	if n > limit {
		return limit
	}
	return n
}

// Submit processes a ticket request for a game.  Missing name or email
// yields ErrNameEmailRequired and an unknown game the repository's
// not-found error.  A sold-out game is reported through the result.
func (s *TicketRequestService) Submit(ctx context.Context, gameID uint64, req TicketRequest) (*TicketRequestResult, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" {
		return nil, ErrNameEmailRequired
	}
	seats := ClampSeats(req.Seats, s.maxSeats)

	if _, err := s.games.GetByID(ctx, gameID); err != nil {
		return nil, err
	}

	before, err := s.availability.ForGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if summary := Summarise(before); summary.AvailableSeats <= 0 {
		return &TicketRequestResult{
			SoldOut:     true,
			Message:     SoldOutMessage,
			SeatSummary: summary,
			Sections:    before,
		}, nil
	}

	first, last := SplitName(name)
	contact := ContactInput{FirstName: first, LastName: last, Email: email}
	if p := strings.TrimSpace(req.Phone); p != "" {
		contact.Phone = &p
	}
	customer, err := s.identity.Resolve(ctx, contact)
	if err != nil {
		return nil, err
	}

	reservation, err := s.engine.Reserve(ctx, gameID, customer.ID, seats)
	if reservation.Reserved > 0 {
		s.afterReservation(ctx, gameID, customer.ID, reservation)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reserve %d seats for game %d", seats, gameID)
	}

	after, err := s.availability.ForGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	summary := Summarise(after)
	return &TicketRequestResult{
		Reservation: reservation,
		Message:     reservationMessage(reservation, name, summary.AvailableSeats),
		SeatSummary: summary,
		Sections:    after,
	}, nil
}

func reservationMessage(r model.ReservationResult, name string, remaining int) string {
	switch {
	case r.Reserved >= r.Requested:
		return fmt.Sprintf("Reserved %d seats for %s.", r.Reserved, name)
	case r.Reserved > 0:
		return fmt.Sprintf("Reserved %d seats. %d remain available.", r.Reserved, remaining)
	default:
		return fmt.Sprintf("Unable to reserve seats at this time. %d remain available.", remaining)
	}
}

func (s *TicketRequestService) afterReservation(ctx context.Context, gameID, customerID uint64, r model.ReservationResult) {
	if s.cache != nil {
		s.cache.InvalidateGame(ctx, gameID)
	}
	if s.publisher == nil {
		return
	}
	ev := queue.NewTicketEvent(queue.TicketsReserved, s.clock.Now())
	ev.GameID = gameID
	ev.CustomerID = &customerID
	ev.Reserved = r.Reserved
	ev.Requested = r.Requested
	// Publish failures are logged by the publisher and never fail the request.
	_ = s.publisher.Publish(ctx, ev)
}
