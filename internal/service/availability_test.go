package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/club-seat-reservation/internal/model"
	"github.com/iliyamo/club-seat-reservation/internal/testutil"
)

func strp(s string) *string { return &s }

func TestAggregateSections(t *testing.T) {
	t.Parallel()

	states := []model.SeatState{
		{SeatID: 1, Section: strp("North"), TicketStatus: strp(model.TicketAvailable)},
		{SeatID: 2, Section: strp("North"), TicketStatus: strp(model.TicketReserved)},
		{SeatID: 3, Section: strp("North"), TicketStatus: strp(model.TicketSold)},
		{SeatID: 4, Section: strp("East"), TicketStatus: nil},
		{SeatID: 5, Section: nil, TicketStatus: strp(model.TicketSold)},
		{SeatID: 6, Section: strp("  "), TicketStatus: nil},
	}

	got := AggregateSections(states)

	require.Len(t, got, 3)
	assert.Equal(t, []model.SectionAvailability{
		{Section: "East", TotalSeats: 1, AvailableSeats: 1},
		{Section: model.GeneralAdmission, TotalSeats: 2, AvailableSeats: 1, SoldSeats: 1},
		{Section: "North", TotalSeats: 3, AvailableSeats: 1, ReservedSeats: 1, SoldSeats: 1},
	}, got)

	for _, s := range got {
		assert.Equal(t, s.TotalSeats, s.AvailableSeats+s.ReservedSeats+s.SoldSeats, s.Section)
	}
	sum := Summarise(got)
	assert.Equal(t, model.SeatSummary{TotalSeats: 6, AvailableSeats: 3, ReservedSeats: 1, SoldSeats: 2}, sum)
}

func TestAggregateSectionsEmpty(t *testing.T) {
	t.Parallel()

	got := AggregateSections(nil)
	assert.Empty(t, got)
	assert.Equal(t, model.SeatSummary{}, Summarise(got))
}

func TestAvailabilityService_ForGames(t *testing.T) {
	t.Parallel()

	store := testutil.NewStore()
	kickoff := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	g1 := store.SeedGame("Rivals FC", kickoff, map[string]int{"North": 3, "": 2})
	g2 := store.SeedGame("Harbour United", kickoff.Add(24*time.Hour), map[string]int{"South": 4})

	svc := NewAvailabilityService(store.Seats())
	byGame, err := svc.ForGames(context.Background(), []uint64{g1, g2, 999})
	require.NoError(t, err)

	require.Len(t, byGame, 3)
	assert.Equal(t, 5, Summarise(byGame[g1]).TotalSeats)
	assert.Equal(t, model.GeneralAdmission, byGame[g1][0].Section)
	assert.Equal(t, 4, Summarise(byGame[g2]).AvailableSeats)
	assert.Empty(t, byGame[999])
}
