package model

// ReservationResult reports how many tickets a reservation request
// obtained.  Reserved may be lower than Requested when inventory ran out;
// that is a normal outcome, not an error.
type ReservationResult struct {
    Reserved  int `json:"reserved"`
    Requested int `json:"requested"`
}
