package service

import "github.com/cockroachdb/errors"

// ErrValidation marks every input error.  Handlers answer 400 with the
// error text for anything that matches it.
var ErrValidation = errors.New("validation failed")

// ErrConflict marks setup requests that collide with existing rows.
var ErrConflict = errors.New("conflict")

func validation(msg string) error { return errors.Mark(errors.New(msg), ErrValidation) }

var (
	ErrInvalidQuantity   = validation("Quantity must be at least one.")
	ErrEmailRequired     = validation("Email is required.")
	ErrNameEmailRequired = validation("Name and email are required.")
	ErrStatusRequired    = validation("Ticket status is required")
	ErrInvalidStatus     = validation("Ticket status must be one of available, reserved or sold")
	ErrVenueNameRequired = validation("Venue name is required")
	ErrNoSeats           = validation("At least one seat is required")
	ErrInvalidSeat       = validation("Every seat needs a row and a seat number above zero")
	ErrOpponentRequired  = validation("Opponent is required")
	ErrStartsAtRequired  = validation("Kick-off time is required")
	ErrDuplicateSeat     = errors.Mark(errors.New("Seat already exists at this venue"), ErrConflict)
	ErrVenueSlugTaken    = errors.Mark(errors.New("Venue slug already exists"), ErrConflict)
)
