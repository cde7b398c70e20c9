// Package testutil provides in-memory stand-ins for the MySQL stores and
// the optional side channels, for service and handler tests.
package testutil

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/club-seat-reservation/internal/model"
	"github.com/iliyamo/club-seat-reservation/internal/queue"
	"github.com/iliyamo/club-seat-reservation/internal/repository"
)

// Store keeps venues, seats, games, tickets and customers in memory.  All
// access is serialised, and ticket reservation is a compare-and-set on
// the ticket status like the conditional UPDATE in MySQL.
type Store struct {
	mu        sync.Mutex
	nextID    uint64
	venues    map[uint64]*model.Venue
	seats     map[uint64]*model.Seat
	games     map[uint64]*model.Game
	tickets   map[uint64]*model.Ticket
	customers map[uint64]*model.Customer
}

func NewStore() *Store {
	return &Store{
		venues:    map[uint64]*model.Venue{},
		seats:     map[uint64]*model.Seat{},
		games:     map[uint64]*model.Game{},
		tickets:   map[uint64]*model.Ticket{},
		customers: map[uint64]*model.Customer{},
	}
}

func (s *Store) id() uint64 {
	s.nextID++
	return s.nextID
}

// SeedGame creates a venue with the given seats per section (an empty
// section name means no section), a game at that venue and one available
// ticket per seat.  It returns the game id.
func (s *Store) SeedGame(opponent string, startsAt time.Time, sections map[string]int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	venue := &model.Venue{ID: s.id(), Name: "Aurora Field", Slug: "aurora-field"}
	s.venues[venue.ID] = venue

	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	var seatIDs []uint64
	for _, name := range names {
		var section *string
		if name != "" {
			n := name
			section = &n
		}
		for i := 1; i <= sections[name]; i++ {
			seat := &model.Seat{ID: s.id(), VenueID: venue.ID, Section: section, RowLabel: "A", SeatNumber: uint32(i), SeatType: "standard"}
			s.seats[seat.ID] = seat
			seatIDs = append(seatIDs, seat.ID)
		}
	}

	game := &model.Game{ID: s.id(), VenueID: venue.ID, Opponent: opponent, StartsAt: startsAt, Status: "scheduled", VenueName: venue.Name, VenueSlug: venue.Slug}
	s.games[game.ID] = game
	for _, seatID := range seatIDs {
		t := &model.Ticket{ID: s.id(), GameID: game.ID, SeatID: seatID, PriceCents: 2500, Status: model.TicketAvailable}
		s.tickets[t.ID] = t
	}
	return game.ID
}

// TicketIDs returns the ticket ids of a game in ascending order.
func (s *Store) TicketIDs(gameID uint64) []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint64
	for _, t := range s.tickets {
		if t.GameID == gameID {
			ids = append(ids, t.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Ticket returns a copy of a ticket.
func (s *Store) Ticket(id uint64) (model.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return model.Ticket{}, false
	}
	return *t, true
}

// CustomerCount returns the number of stored customers.
func (s *Store) CustomerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.customers)
}

func (s *Store) Tickets() *TicketStore     { return &TicketStore{s} }
func (s *Store) Seats() *SeatStore         { return &SeatStore{s} }
func (s *Store) Games() *GameStore         { return &GameStore{s} }
func (s *Store) Venues() *VenueStore       { return &VenueStore{s} }
func (s *Store) Customers() *CustomerStore { return &CustomerStore{s} }

// TicketStore is the ticket view of a Store.
type TicketStore struct{ s *Store }

func (ts *TicketStore) ListForGame(_ context.Context, gameID uint64) ([]model.TicketView, error) {
	s := ts.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TicketView
	for _, t := range s.tickets {
		if t.GameID != gameID {
			continue
		}
		seat := s.seats[t.SeatID]
		v := model.TicketView{
			ID: t.ID, GameID: t.GameID, SeatID: t.SeatID, CustomerID: t.CustomerID,
			PriceCents: t.PriceCents, Status: t.Status, PurchasedAt: t.PurchasedAt,
			Section: seat.Section, Row: seat.RowLabel, Number: seat.SeatNumber, SeatType: seat.SeatType,
		}
		if t.CustomerID != nil {
			if c, ok := s.customers[*t.CustomerID]; ok && c.FirstName != nil {
				name := *c.FirstName
				if c.LastName != nil {
					name += " " + *c.LastName
				}
				v.CustomerName = &name
			}
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (ts *TicketStore) SetStatus(_ context.Context, ticketID uint64, status string, purchasedAt *time.Time) error {
	s := ts.s
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[ticketID]
	if !ok {
		return repository.ErrTicketNotFound
	}
	t.Status = status
	t.PurchasedAt = nil
	if status == model.TicketSold && purchasedAt != nil {
		at := *purchasedAt
		t.PurchasedAt = &at
	}
	return nil
}

func (ts *TicketStore) AssignCustomer(_ context.Context, ticketID uint64, customerID *uint64) error {
	s := ts.s
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[ticketID]
	if !ok {
		return repository.ErrTicketNotFound
	}
	if customerID != nil {
		if _, ok := s.customers[*customerID]; !ok {
			return repository.ErrCustomerNotFound
		}
		id := *customerID
		t.CustomerID = &id
		return nil
	}
	t.CustomerID = nil
	return nil
}

func (ts *TicketStore) AvailableIDs(_ context.Context, gameID uint64, limit int) ([]uint64, error) {
	s := ts.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint64
	for _, t := range s.tickets {
		if t.GameID == gameID && t.Status == model.TicketAvailable {
			ids = append(ids, t.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit >= 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (ts *TicketStore) ReserveIfAvailable(_ context.Context, ticketID, customerID uint64) (bool, error) {
	s := ts.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[customerID]; !ok {
		return false, repository.ErrCustomerNotFound
	}
	t, ok := s.tickets[ticketID]
	if !ok || t.Status != model.TicketAvailable {
		return false, nil
	}
	id := customerID
	t.Status = model.TicketReserved
	t.CustomerID = &id
	t.PurchasedAt = nil
	return true, nil
}

// SeatStore is the seat view of a Store.
type SeatStore struct{ s *Store }

func (ss *SeatStore) CreateBulk(_ context.Context, venueID uint64, seats []model.Seat, openFrom time.Time) (int, error) {
	s := ss.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.venues[venueID]; !ok {
		return 0, repository.ErrIntegrity
	}
	key := func(st *model.Seat) string {
		sec := ""
		if st.Section != nil {
			sec = *st.Section
		}
		return sec + "|" + st.RowLabel + "|" + strconv.FormatUint(uint64(st.SeatNumber), 10)
	}
	existing := map[string]bool{}
	for _, st := range s.seats {
		if st.VenueID == venueID {
			existing[key(st)] = true
		}
	}
	for i := range seats {
		if existing[key(&seats[i])] {
			return 0, repository.ErrIntegrity
		}
	}
	var added []uint64
	for i := range seats {
		st := seats[i]
		st.ID = s.id()
		st.VenueID = venueID
		s.seats[st.ID] = &st
		added = append(added, st.ID)
	}

	price := map[uint64]uint32{}
	for _, t := range s.tickets {
		if p, ok := price[t.GameID]; !ok || t.PriceCents < p {
			price[t.GameID] = t.PriceCents
		}
	}
	var gameIDs []uint64
	for _, g := range s.games {
		if _, priced := price[g.ID]; !priced || g.VenueID != venueID || g.StartsAt.Before(openFrom) {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(g.Status)) {
		case "final", "completed", "finished":
			continue
		}
		gameIDs = append(gameIDs, g.ID)
	}
	sort.Slice(gameIDs, func(i, j int) bool { return gameIDs[i] < gameIDs[j] })
	n := 0
	for _, gameID := range gameIDs {
		for _, seatID := range added {
			t := &model.Ticket{ID: s.id(), GameID: gameID, SeatID: seatID, PriceCents: price[gameID], Status: model.TicketAvailable}
			s.tickets[t.ID] = t
			n++
		}
	}
	return n, nil
}

func (ss *SeatStore) ListByVenue(_ context.Context, venueID uint64) ([]model.Seat, error) {
	s := ss.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Seat
	for _, st := range s.seats {
		if st.VenueID == venueID {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (ss *SeatStore) StatesForGame(_ context.Context, gameID uint64) ([]model.SeatState, error) {
	s := ss.s
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return nil, nil
	}
	bySeat := map[uint64]string{}
	for _, t := range s.tickets {
		if t.GameID == gameID {
			bySeat[t.SeatID] = t.Status
		}
	}
	var out []model.SeatState
	for _, st := range s.seats {
		if st.VenueID != g.VenueID {
			continue
		}
		state := model.SeatState{SeatID: st.ID, Section: st.Section}
		if status, ok := bySeat[st.ID]; ok {
			v := status
			state.TicketStatus = &v
		}
		out = append(out, state)
	}
	return out, nil
}

// GameStore is the game view of a Store.
type GameStore struct{ s *Store }

func (gs *GameStore) GetByID(_ context.Context, id uint64) (*model.Game, error) {
	s := gs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, repository.ErrGameNotFound
	}
	cp := *g
	return &cp, nil
}

func (gs *GameStore) List(_ context.Context) ([]model.Game, error) {
	s := gs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Game, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (gs *GameStore) CreateWithTickets(_ context.Context, g *model.Game, priceCents uint32) (int, error) {
	s := gs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.venues[g.VenueID]
	if !ok {
		return 0, repository.ErrVenueNotFound
	}
	g.ID = s.id()
	if g.Status == "" {
		g.Status = "scheduled"
	}
	g.VenueName, g.VenueSlug, g.VenueLocation = v.Name, v.Slug, v.Location
	cp := *g
	s.games[g.ID] = &cp

	var seatIDs []uint64
	for _, st := range s.seats {
		if st.VenueID == g.VenueID {
			seatIDs = append(seatIDs, st.ID)
		}
	}
	sort.Slice(seatIDs, func(i, j int) bool { return seatIDs[i] < seatIDs[j] })
	for _, seatID := range seatIDs {
		t := &model.Ticket{ID: s.id(), GameID: g.ID, SeatID: seatID, PriceCents: priceCents, Status: model.TicketAvailable}
		s.tickets[t.ID] = t
	}
	return len(seatIDs), nil
}

// VenueStore is the venue view of a Store.
type VenueStore struct{ s *Store }

func (vs *VenueStore) Create(_ context.Context, v *model.Venue) error {
	s := vs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.venues {
		if existing.Slug == v.Slug {
			return repository.ErrIntegrity
		}
	}
	v.ID = s.id()
	cp := *v
	s.venues[v.ID] = &cp
	return nil
}

func (vs *VenueStore) GetByID(_ context.Context, id uint64) (*model.Venue, error) {
	s := vs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.venues[id]
	if !ok {
		return nil, repository.ErrVenueNotFound
	}
	cp := *v
	return &cp, nil
}

func (vs *VenueStore) List(_ context.Context) ([]model.Venue, error) {
	s := vs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Venue, 0, len(s.venues))
	for _, v := range s.venues {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CustomerStore is the customer view of a Store.  Upsert merges non-nil
// fields into an existing customer with the same email.
type CustomerStore struct{ s *Store }

func (cs *CustomerStore) Upsert(_ context.Context, c model.Customer) (*model.Customer, error) {
	s := cs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(c.Email))
	for _, existing := range s.customers {
		if existing.Email == email {
			if c.FirstName != nil {
				existing.FirstName = c.FirstName
			}
			if c.LastName != nil {
				existing.LastName = c.LastName
			}
			if c.Phone != nil {
				existing.Phone = c.Phone
			}
			cp := *existing
			return &cp, nil
		}
	}
	c.ID = s.id()
	c.Email = email
	cp := c
	s.customers[c.ID] = &cp
	return &c, nil
}

// Publisher records published events.  Err, when set, is returned from
// every Publish call.
type Publisher struct {
	mu     sync.Mutex
	Events []queue.TicketEvent
	Err    error
}

func (p *Publisher) Publish(_ context.Context, ev queue.TicketEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, ev)
	return p.Err
}

// Types returns the types of the published events in order.
func (p *Publisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Events))
	for i, ev := range p.Events {
		out[i] = ev.Type
	}
	return out
}

// AuditEntry is one call to Audit.LogEvent.
type AuditEntry struct {
	Action string
	Actor  string
	Data   map[string]interface{}
}

// Audit records audit writes.
type Audit struct {
	mu      sync.Mutex
	Entries []AuditEntry
	Err     error
}

func (a *Audit) LogEvent(_ context.Context, action, actor string, data map[string]interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Entries = append(a.Entries, AuditEntry{Action: action, Actor: actor, Data: data})
	return a.Err
}

// Cache counts invalidations.
type Cache struct {
	mu    sync.Mutex
	Games []uint64
	All   int
}

func (c *Cache) InvalidateGame(_ context.Context, gameID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Games = append(c.Games, gameID)
}

func (c *Cache) InvalidateGames(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.All++
}
