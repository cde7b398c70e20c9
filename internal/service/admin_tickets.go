package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/club-seat-reservation/internal/clock"
	"github.com/iliyamo/club-seat-reservation/internal/model"
	"github.com/iliyamo/club-seat-reservation/internal/observability"
	"github.com/iliyamo/club-seat-reservation/internal/queue"
)

// GameSections is a game with its section availability, as listed to
// administrators.
type GameSections struct {
	Game     model.Game
	Sections []model.SectionAvailability
}

// AdminTicketService backs the authenticated ticketing endpoints.  Every
// mutation is audited and published on a best-effort basis: a failing
// audit store or broker is logged and never undoes the change.
type AdminTicketService struct {
	tickets      TicketStore
	games        GameReader
	availability *AvailabilityService
	publisher    EventPublisher
	audit        AuditLogger
	cache        CacheInvalidator
	clock        clock.Clock
	logger       observability.Logger
}

type AdminOption func(*AdminTicketService)

func WithAdminEvents(p EventPublisher) AdminOption {
	return func(s *AdminTicketService) { s.publisher = p }
}

func WithAdminAudit(a AuditLogger) AdminOption {
	return func(s *AdminTicketService) { s.audit = a }
}

func WithAdminCache(c CacheInvalidator) AdminOption {
	return func(s *AdminTicketService) { s.cache = c }
}

func NewAdminTicketService(tickets TicketStore, games GameReader, availability *AvailabilityService, clk clock.Clock, logger observability.Logger, opts ...AdminOption) *AdminTicketService {
	s := &AdminTicketService{
		tickets:      tickets,
		games:        games,
		availability: availability,
		clock:        clk,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetStatus moves a ticket to status.  A sold ticket records purchasedAt,
// defaulting to now; any other status clears it.
func (s *AdminTicketService) SetStatus(ctx context.Context, actor string, ticketID uint64, status string, purchasedAt *time.Time) error {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return ErrStatusRequired
	}
	if !model.ValidTicketStatus(status) {
		return ErrInvalidStatus
	}
	var at *time.Time
	if status == model.TicketSold {
		now := s.clock.Now()
		if purchasedAt != nil {
			now = purchasedAt.UTC()
		}
		at = &now
	}
	if err := s.tickets.SetStatus(ctx, ticketID, status, at); err != nil {
		return err
	}
	observability.TicketStatusChanges.WithLabelValues(status).Inc()

	data := map[string]interface{}{"ticket_id": ticketID, "status": status}
	if at != nil {
		data["purchased_at"] = at.Format(time.RFC3339)
	}
	s.record(ctx, "ticket.status_changed", actor, data)

	ev := queue.NewTicketEvent(queue.TicketsStatusChanged, s.clock.Now())
	ev.TicketID = ticketID
	ev.Status = status
	ev.Actor = actor
	s.publish(ctx, ev)
	return nil
}

// Assign sets or clears the customer of a ticket without changing its status.
func (s *AdminTicketService) Assign(ctx context.Context, actor string, ticketID uint64, customerID *uint64) error {
	if err := s.tickets.AssignCustomer(ctx, ticketID, customerID); err != nil {
		return err
	}
	data := map[string]interface{}{"ticket_id": ticketID, "customer_id": nil}
	if customerID != nil {
		data["customer_id"] = *customerID
	}
	s.record(ctx, "ticket.assigned", actor, data)

	ev := queue.NewTicketEvent(queue.TicketsAssigned, s.clock.Now())
	ev.TicketID = ticketID
	ev.CustomerID = customerID
	ev.Actor = actor
	s.publish(ctx, ev)
	return nil
}

// Games lists every game with its section availability.
func (s *AdminTicketService) Games(ctx context.Context) ([]GameSections, error) {
	games, err := s.games.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, len(games))
	for i, g := range games {
		ids[i] = g.ID
	}
	byGame, err := s.availability.ForGames(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]GameSections, len(games))
	for i, g := range games {
		out[i] = GameSections{Game: g, Sections: byGame[g.ID]}
	}
	return out, nil
}

// Availability returns the section availability of a game.
func (s *AdminTicketService) Availability(ctx context.Context, gameID uint64) ([]model.SectionAvailability, error) {
	return s.availability.ForGame(ctx, gameID)
}

// Tickets lists the tickets of a game.
func (s *AdminTicketService) Tickets(ctx context.Context, gameID uint64) ([]model.TicketView, error) {
	return s.tickets.ListForGame(ctx, gameID)
}

func (s *AdminTicketService) record(ctx context.Context, action, actor string, data map[string]interface{}) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogEvent(ctx, action, actor, data); err != nil {
		s.logger.WithError(err).WithField("action", action).Warn("audit log write failed")
	}
}

// publish sends ev and, since a ticket id alone does not name its game,
// drops every cached game response.
func (s *AdminTicketService) publish(ctx context.Context, ev queue.TicketEvent) {
	if s.cache != nil {
		s.cache.InvalidateGames(ctx)
	}
	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, ev)
	}
}
