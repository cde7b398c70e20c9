package model

import "time"

// Ticket statuses.  A ticket only moves between these three values.
const (
    TicketAvailable = "available"
    TicketReserved  = "reserved"
    TicketSold      = "sold"
)

// ValidTicketStatus reports whether s is one of the ticket statuses.
func ValidTicketStatus(s string) bool {
    switch s {
    case TicketAvailable, TicketReserved, TicketSold:
        return true
    }
    return false
}

// Ticket is the per-game materialisation of a seat's sale state.  There
// is at most one ticket per (game, seat) pair.
//
// Fields:
//  ID          – primary key identifier.
//  GameID      – game the ticket belongs to.
//  SeatID      – seat of the game's venue.
//  CustomerID  – weak reference to the holder, nil when unassigned.
//  PriceCents  – price in minor currency units.
//  Status      – available, reserved or sold.
//  PurchasedAt – set only while the status is sold.
type Ticket struct {
    ID          uint64     // tickets.id
    GameID      uint64     // tickets.game_id
    SeatID      uint64     // tickets.seat_id
    CustomerID  *uint64    // tickets.customer_id (nullable)
    PriceCents  uint32     // tickets.price_cents
    Status      string     // tickets.status
    PurchasedAt *time.Time // tickets.purchased_at (nullable)
    CreatedAt   time.Time  // tickets.created_at
    UpdatedAt   time.Time  // tickets.updated_at
}

// TicketView is a ticket joined with its seat position and the display
// name of the assigned customer, as listed to administrators.
type TicketView struct {
    ID           uint64     `json:"id"`
    GameID       uint64     `json:"gameId"`
    SeatID       uint64     `json:"seatId"`
    CustomerID   *uint64    `json:"customerId"`
    PriceCents   uint32     `json:"priceCents"`
    Status       string     `json:"status"`
    PurchasedAt  *time.Time `json:"purchasedAt"`
    Section      *string    `json:"section"`
    Row          string     `json:"row"`
    Number       uint32     `json:"number"`
    SeatType     string     `json:"seatType"`
    CustomerName *string    `json:"customerName"`
}
