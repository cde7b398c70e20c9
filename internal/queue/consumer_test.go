package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatLogLine(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("CET", 3600))
	customer := uint64(8)

	reserved := NewTicketEvent(TicketsReserved, at)
	reserved.ID = "ev-1"
	reserved.GameID = 3
	reserved.CustomerID = &customer
	reserved.Reserved = 2
	reserved.Requested = 4
	assert.Equal(t, "[2026-03-04T04:06:07Z] tickets.reserved | id=ev-1 | game_id=3 | customer_id=8 | reserved=2/4\n", FormatLogLine(reserved))

	status := TicketEvent{ID: "ev-2", Type: TicketsStatusChanged, TicketID: 11, Status: "sold", Actor: "admin", OccurredAt: at}
	assert.Equal(t, "[2026-03-04T04:06:07Z] tickets.status_changed | id=ev-2 | ticket_id=11 | status=sold | actor=\"admin\"\n", FormatLogLine(status))

	created := TicketEvent{ID: "ev-3", Type: GameCreated, GameID: 5, Tickets: 120, OccurredAt: at}
	assert.Equal(t, "[2026-03-04T04:06:07Z] games.created | id=ev-3 | game_id=5 | tickets=120\n", FormatLogLine(created))
}

func TestNewTicketEvent(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("CET", 3600))
	a := NewTicketEvent(TicketsAssigned, at)
	b := NewTicketEvent(TicketsAssigned, at)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, time.UTC, a.OccurredAt.Location())
	assert.True(t, at.Equal(a.OccurredAt))
}
