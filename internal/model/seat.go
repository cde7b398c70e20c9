package model

// Seat describes a fixed physical location in a venue.  Seats are
// uniquely identified by their venue, section, row label and seat
// number and exist independently of any game.
//
// Fields:
//  ID         – primary key identifier.
//  VenueID    – venue to which this seat belongs.
//  Section    – optional section label; nil means General Admission.
//  RowLabel   – letter or string designating the row.
//  SeatNumber – number of the seat within the row.
//  SeatType   – free-text class (standard, vip, accessible ...).
type Seat struct {
    ID         uint64  // seats.id
    VenueID    uint64  // seats.venue_id
    Section    *string // seats.section (nullable)
    RowLabel   string  // seats.row_label
    SeatNumber uint32  // seats.seat_number
    SeatType   string  // seats.seat_type
}

// SeatState pairs one venue seat with the status of its ticket for a
// particular game.  TicketStatus is nil when no ticket row exists for
// the seat and game, which counts as available.
type SeatState struct {
    SeatID       uint64
    Section      *string
    TicketStatus *string
}
