// Package queue defines the ticket events exchanged over RabbitMQ, the
// publisher used by the services and the log consumer.
package queue

import (
    "time"

    "github.com/google/uuid"
)

// Exchange is the topic exchange ticket events are published to.
const Exchange = "club.tickets"

// Routing keys.
const (
    TicketsReserved      = "tickets.reserved"
    TicketsStatusChanged = "tickets.status_changed"
    TicketsAssigned      = "tickets.assigned"
    GameCreated          = "games.created"
)

// TicketEvent is published after every change to ticket inventory.  It
// carries enough for downstream consumers to log or notify without
// querying the primary database; fields that do not apply to the event
// type are left empty.
type TicketEvent struct {
    ID         string    `json:"id"`
    Type       string    `json:"type"`
    GameID     uint64    `json:"game_id,omitempty"`
    TicketID   uint64    `json:"ticket_id,omitempty"`
    CustomerID *uint64   `json:"customer_id,omitempty"`
    Status     string    `json:"status,omitempty"`
    Reserved   int       `json:"reserved,omitempty"`
    Requested  int       `json:"requested,omitempty"`
    Tickets    int       `json:"tickets,omitempty"`
    Actor      string    `json:"actor,omitempty"`
    OccurredAt time.Time `json:"occurred_at"`
}

// NewTicketEvent stamps an event of the given type with a fresh id.
func NewTicketEvent(eventType string, at time.Time) TicketEvent {
    return TicketEvent{ID: uuid.NewString(), Type: eventType, OccurredAt: at.UTC()}
}
