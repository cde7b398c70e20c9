package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/club-seat-reservation/internal/clock"
	"github.com/iliyamo/club-seat-reservation/internal/model"
	"github.com/iliyamo/club-seat-reservation/internal/observability"
	"github.com/iliyamo/club-seat-reservation/internal/queue"
	"github.com/iliyamo/club-seat-reservation/internal/repository"
)

// VenueInput describes a venue to create.  Slug defaults to a slugified
// name.
type VenueInput struct {
	Name        string
	Slug        string
	Location    *string
	Capacity    *uint32
	Description *string
}

// SeatInput describes one seat of a venue.
type SeatInput struct {
	Section  *string
	Row      string
	Number   uint32
	SeatType string
}

// SeatLayout generates a rectangular block of seats: Rows rows labelled
// A, B, ... Z, AA, AB ... with SeatsPerRow seats each, numbered from 1.
type SeatLayout struct {
	Section     *string
	Rows        int
	SeatsPerRow int
	SeatType    string
}

// GameInput describes a game to create.  Every seat of the venue gets an
// available ticket at PriceCents.
type GameInput struct {
	VenueID     uint64
	Opponent    string
	StartsAt    time.Time
	Status      string
	Description *string
	PriceCents  uint32
}

// SetupService creates venues, seat plans and games with their tickets.
type SetupService struct {
	venues    VenueStore
	seats     SeatStore
	games     GameCreator
	publisher EventPublisher
	audit     AuditLogger
	cache     CacheInvalidator
	clock     clock.Clock
	logger    observability.Logger
}

type SetupOption func(*SetupService)

func WithSetupEvents(p EventPublisher) SetupOption {
	return func(s *SetupService) { s.publisher = p }
}

func WithSetupAudit(a AuditLogger) SetupOption {
	return func(s *SetupService) { s.audit = a }
}

func WithSetupCache(c CacheInvalidator) SetupOption {
	return func(s *SetupService) { s.cache = c }
}

func NewSetupService(venues VenueStore, seats SeatStore, games GameCreator, clk clock.Clock, logger observability.Logger, opts ...SetupOption) *SetupService {
	s := &SetupService{venues: venues, seats: seats, games: games, clock: clk, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// CreateVenue validates and inserts a venue.
func (s *SetupService) CreateVenue(ctx context.Context, actor string, in VenueInput) (*model.Venue, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrVenueNameRequired
	}
	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return nil, ErrVenueNameRequired
	}
	v := &model.Venue{
		Name:        name,
		Slug:        slug,
		Location:    trimmed(in.Location),
		Capacity:    in.Capacity,
		Description: trimmed(in.Description),
	}
	if err := s.venues.Create(ctx, v); err != nil {
		if errors.Is(err, repository.ErrIntegrity) {
			return nil, ErrVenueSlugTaken
		}
		return nil, err
	}
	s.record(ctx, "venue.created", actor, map[string]interface{}{"venue_id": v.ID, "slug": v.Slug})
	return v, nil
}

// Venues lists all venues.
func (s *SetupService) Venues(ctx context.Context) ([]model.Venue, error) {
	return s.venues.List(ctx)
}

// ExpandLayout turns a layout into individual seats.
func ExpandLayout(l SeatLayout) []SeatInput {
	if l.Rows <= 0 || l.SeatsPerRow <= 0 {
		return nil
	}
	out := make([]SeatInput, 0, l.Rows*l.SeatsPerRow)
	for r := 0; r < l.Rows; r++ {
		label := RowLabel(r)
		for n := 1; n <= l.SeatsPerRow; n++ {
			out = append(out, SeatInput{Section: l.Section, Row: label, Number: uint32(n), SeatType: l.SeatType})
		}
	}
	return out
}

// RowLabel converts a zero-based row index to a spreadsheet-style label:
// 0 -> A, 25 -> Z, 26 -> AA.
func RowLabel(i int) string {
	if i < 0 {
		return ""
	}
	var res []byte
	for {
		res = append(res, byte('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// AddSeats adds seats to a venue's plan.  Positions must be unique within
// the request and against the seats already stored; a collision rejects
// the whole batch.  Games at the venue that are not final yet get an
// available ticket for each new seat at their existing price.
func (s *SetupService) AddSeats(ctx context.Context, actor string, venueID uint64, in []SeatInput) ([]model.Seat, error) {
	if len(in) == 0 {
		return nil, ErrNoSeats
	}
	if _, err := s.venues.GetByID(ctx, venueID); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(in))
	seats := make([]model.Seat, 0, len(in))
	for _, si := range in {
		row := strings.ToUpper(strings.TrimSpace(si.Row))
		if row == "" || si.Number == 0 {
			return nil, ErrInvalidSeat
		}
		section := trimmed(si.Section)
		key := fmt.Sprintf("%v|%s|%d", deref(section), row, si.Number)
		if _, dup := seen[key]; dup {
			return nil, ErrDuplicateSeat
		}
		seen[key] = struct{}{}
		seatType := strings.ToLower(strings.TrimSpace(si.SeatType))
		if seatType == "" {
			seatType = "standard"
		}
		seats = append(seats, model.Seat{VenueID: venueID, Section: section, RowLabel: row, SeatNumber: si.Number, SeatType: seatType})
	}
	tickets, err := s.seats.CreateBulk(ctx, venueID, seats, s.clock.Now().Add(-model.FinalGrace))
	if err != nil {
		if errors.Is(err, repository.ErrIntegrity) {
			return nil, ErrDuplicateSeat
		}
		return nil, err
	}
	s.record(ctx, "venue.seats_added", actor, map[string]interface{}{"venue_id": venueID, "seats": len(seats), "tickets": tickets})
	if tickets > 0 && s.cache != nil {
		s.cache.InvalidateGames(ctx)
	}
	return s.seats.ListByVenue(ctx, venueID)
}

// CreateGame inserts a game and one available ticket per venue seat.  It
// returns the game and the number of tickets created.
func (s *SetupService) CreateGame(ctx context.Context, actor string, in GameInput) (*model.Game, int, error) {
	opponent := strings.TrimSpace(in.Opponent)
	if opponent == "" {
		return nil, 0, ErrOpponentRequired
	}
	if in.StartsAt.IsZero() {
		return nil, 0, ErrStartsAtRequired
	}
	if _, err := s.venues.GetByID(ctx, in.VenueID); err != nil {
		return nil, 0, err
	}
	g := &model.Game{
		VenueID:     in.VenueID,
		Opponent:    opponent,
		StartsAt:    in.StartsAt.UTC(),
		Status:      strings.TrimSpace(in.Status),
		Description: trimmed(in.Description),
	}
	n, err := s.games.CreateWithTickets(ctx, g, in.PriceCents)
	if err != nil {
		return nil, 0, err
	}
	s.record(ctx, "game.created", actor, map[string]interface{}{"game_id": g.ID, "venue_id": g.VenueID, "tickets": n})
	if s.cache != nil {
		s.cache.InvalidateGames(ctx)
	}
	if s.publisher != nil {
		ev := queue.NewTicketEvent(queue.GameCreated, s.clock.Now())
		ev.GameID = g.ID
		ev.Tickets = n
		ev.Actor = actor
		_ = s.publisher.Publish(ctx, ev)
	}
	return g, n, nil
}

func (s *SetupService) record(ctx context.Context, action, actor string, data map[string]interface{}) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogEvent(ctx, action, actor, data); err != nil {
		s.logger.WithError(err).WithField("action", action).Warn("audit log write failed")
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
