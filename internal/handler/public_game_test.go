package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/club-seat-reservation/internal/model"
)

func TestNewPublicGame(t *testing.T) {
	t.Parallel()
	loc := "Stadli"
	kickoff := time.Date(2026, 2, 14, 19, 30, 0, 0, time.UTC)

	t.Run("upcoming", func(t *testing.T) {
		g := model.Game{ID: 5, Opponent: "Harbor City", StartsAt: kickoff, Status: "scheduled", VenueName: "Aurora Field", VenueSlug: "aurora-field", VenueLocation: &loc}
		pg := NewPublicGame(g, kickoff.Add(-24*time.Hour))

		assert.Equal(t, model.GameStatusUpcoming, pg.Status)
		assert.Equal(t, "Aurora Field (Stadli)", pg.Venue)
		assert.Equal(t, "2026-02-14T19:30:00.000Z", pg.Date)
		assert.True(t, pg.IsHome)
		assert.Empty(t, pg.Score)
		assert.Empty(t, pg.Recap)
		assert.Equal(t, heroImages[1], pg.HeroImage)
		assert.Contains(t, pg.Description, "Harbor City")
		assert.Len(t, pg.Highlights, 3)
	})

	t.Run("final after grace period", func(t *testing.T) {
		g := model.Game{ID: 4, Opponent: "Northbridge", StartsAt: kickoff, Status: "scheduled", VenueName: "Riverside Ground"}
		pg := NewPublicGame(g, kickoff.Add(3*time.Hour))

		assert.Equal(t, model.GameStatusFinal, pg.Status)
		assert.Equal(t, "Storm 3 - 1 Northbridge", pg.Score)
		assert.Equal(t, pg.Recap, pg.Description)
		assert.False(t, pg.IsHome)
	})

	t.Run("stored description wins", func(t *testing.T) {
		desc := "  Derby day.  "
		g := model.Game{ID: 9, Opponent: "Rivals", StartsAt: kickoff, Status: "Final", Description: &desc}
		pg := NewPublicGame(g, kickoff)

		assert.Equal(t, model.GameStatusFinal, pg.Status)
		assert.Equal(t, "Derby day.", pg.Description)
		assert.Equal(t, defaultVenueName, pg.Venue)
		assert.True(t, pg.IsHome)
	})
}
