package service

import (
	"context"
	"time"

	"github.com/iliyamo/club-seat-reservation/internal/model"
	"github.com/iliyamo/club-seat-reservation/internal/queue"
)

// TicketStore is the ticket half of the seat inventory store.
type TicketStore interface {
	ListForGame(ctx context.Context, gameID uint64) ([]model.TicketView, error)
	SetStatus(ctx context.Context, ticketID uint64, status string, purchasedAt *time.Time) error
	AssignCustomer(ctx context.Context, ticketID uint64, customerID *uint64) error
	AvailableIDs(ctx context.Context, gameID uint64, limit int) ([]uint64, error)
	ReserveIfAvailable(ctx context.Context, ticketID, customerID uint64) (bool, error)
}

// SeatStateReader yields every venue seat of a game with its ticket status.
type SeatStateReader interface {
	StatesForGame(ctx context.Context, gameID uint64) ([]model.SeatState, error)
}

// GameReader loads games together with their venue fields.
type GameReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Game, error)
	List(ctx context.Context) ([]model.Game, error)
}

// CustomerStore upserts customers keyed by normalised email.
type CustomerStore interface {
	Upsert(ctx context.Context, c model.Customer) (*model.Customer, error)
}

// VenueStore persists venues.
type VenueStore interface {
	Create(ctx context.Context, v *model.Venue) error
	GetByID(ctx context.Context, id uint64) (*model.Venue, error)
	List(ctx context.Context) ([]model.Venue, error)
}

// SeatStore persists venue seat plans.  CreateBulk also gives the new
// seats tickets for games at the venue that kick off at or after openFrom
// and returns how many it created.
type SeatStore interface {
	CreateBulk(ctx context.Context, venueID uint64, seats []model.Seat, openFrom time.Time) (int, error)
	ListByVenue(ctx context.Context, venueID uint64) ([]model.Seat, error)
}

// GameCreator inserts a game and materialises its tickets atomically.
type GameCreator interface {
	CreateWithTickets(ctx context.Context, g *model.Game, priceCents uint32) (int, error)
}

// EventPublisher sends ticket events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.TicketEvent) error
}

// AuditLogger records administrative actions.
type AuditLogger interface {
	LogEvent(ctx context.Context, action, actor string, data map[string]interface{}) error
}

// CacheInvalidator drops cached public game responses.
type CacheInvalidator interface {
	InvalidateGame(ctx context.Context, gameID uint64)
	InvalidateGames(ctx context.Context)
}
