package model

import (
    "strings"
    "time"
)

// Game public status values.
const (
    GameStatusUpcoming = "upcoming"
    GameStatusFinal    = "final"
)

// FinalGrace is how long after kick-off a game without an explicit
// final status is still considered upcoming.
const FinalGrace = 2 * time.Hour

// Game is a fixture played at a venue.  The venue columns are filled by
// queries that join venues and are empty otherwise.
//
// Fields:
//  ID            – primary key identifier.
//  VenueID       – venue where the game is played.
//  Opponent      – opposing team name.
//  StartsAt      – kick-off time (UTC).
//  Status        – free-text status as stored (scheduled, final ...).
//  Description   – optional free text.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
//  VenueName     – joined venues.name.
//  VenueSlug     – joined venues.slug.
//  VenueLocation – joined venues.location.
type Game struct {
    ID            uint64    // games.id
    VenueID       uint64    // games.venue_id
    Opponent      string    // games.opponent
    StartsAt      time.Time // games.starts_at
    Status        string    // games.status
    Description   *string   // games.description (nullable)
    CreatedAt     time.Time // games.created_at
    UpdatedAt     time.Time // games.updated_at
    VenueName     string    // venues.name
    VenueSlug     string    // venues.slug
    VenueLocation *string   // venues.location
}

// PublicStatus derives the status shown to supporters.  It is never
// stored: an explicit final/completed/finished status wins, otherwise a
// game that kicked off more than two hours before now is final.
func (g Game) PublicStatus(now time.Time) string {
    switch strings.ToLower(strings.TrimSpace(g.Status)) {
    case "final", "completed", "finished":
        return GameStatusFinal
    }
    if g.StartsAt.Before(now.Add(-FinalGrace)) {
        return GameStatusFinal
    }
    return GameStatusUpcoming
}
