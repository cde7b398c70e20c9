package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/club-seat-reservation/internal/model"
)

var gameCols = []string{
	"id", "venue_id", "opponent", "starts_at", "status", "description",
	"created_at", "updated_at", "name", "slug", "location",
}

func TestCreateWithTickets(t *testing.T) {
	db, mock := newMock(t)
	kickoff := time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO games`).
		WithArgs(2, "Rivals FC", kickoff, "scheduled", nil).
		WillReturnResult(sqlmock.NewResult(30, 1))
	mock.ExpectQuery(`SELECT id FROM seats WHERE venue_id = \? ORDER BY id`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100).AddRow(101).AddRow(102))
	mock.ExpectExec(`INSERT INTO tickets`).
		WithArgs(30, 100, 3000, model.TicketAvailable, 30, 101, 3000, model.TicketAvailable, 30, 102, 3000, model.TicketAvailable).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM games g\s+JOIN venues v ON v.id = g.venue_id WHERE g.id = \?`).
		WithArgs(30).
		WillReturnRows(sqlmock.NewRows(gameCols).
			AddRow(30, 2, "Rivals FC", kickoff, "scheduled", nil, kickoff, kickoff, "Aurora Field", "aurora-field", "Stadli"))

	g := &model.Game{VenueID: 2, Opponent: "Rivals FC", StartsAt: kickoff}
	n, err := NewGameRepo(db).CreateWithTickets(context.Background(), g, 3000)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, uint64(30), g.ID)
	assert.Equal(t, "Aurora Field", g.VenueName)
	require.NotNil(t, g.VenueLocation)
	assert.Equal(t, "Stadli", *g.VenueLocation)
}

func TestCreateWithTicketsRollsBack(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO games`).WillReturnError(&mysql.MySQLError{Number: 1452})
	mock.ExpectRollback()

	_, err := NewGameRepo(db).CreateWithTickets(context.Background(), &model.Game{VenueID: 404, Opponent: "Nobody"}, 1000)
	assert.ErrorIs(t, err, ErrVenueNotFound)
}

func TestGetGameMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM games g`).WithArgs(7).WillReturnRows(sqlmock.NewRows(gameCols))

	_, err := NewGameRepo(db).GetByID(context.Background(), 7)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestStatesForGame(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`LEFT JOIN tickets t ON t.seat_id = s.id AND t.game_id = g.id`).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "section", "status"}).
			AddRow(1, "North", model.TicketSold).
			AddRow(2, nil, nil))

	states, err := NewSeatRepo(db).StatesForGame(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, model.TicketSold, *states[0].TicketStatus)
	assert.Nil(t, states[1].Section)
	assert.Nil(t, states[1].TicketStatus)
}
