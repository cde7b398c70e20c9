package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/club-seat-reservation/internal/model"
)

// PublicGame is a game as presented to supporters.  Everything beyond the
// stored columns is derived from the game id and status; none of it is
// persisted.
type PublicGame struct {
	ID          uint64             `json:"id"`
	Opponent    string             `json:"opponent"`
	Venue       string             `json:"venue"`
	Date        string             `json:"date"`
	Status      string             `json:"status"`
	Description string             `json:"description"`
	HeroImage   string             `json:"heroImage"`
	Highlights  []string           `json:"highlights"`
	Recap       string             `json:"recap,omitempty"`
	Score       string             `json:"score,omitempty"`
	IsHome      bool               `json:"isHome"`
	SeatSummary *model.SeatSummary `json:"seatSummary,omitempty"`
}

const defaultVenueName = "Aurora Field"

var heroImages = []string{
	"https://images.unsplash.com/photo-1521412644187-c49fa049e84d?auto=format&fit=crop&w=1400&q=80",
	"https://images.unsplash.com/photo-1502877338535-766e1452684a?auto=format&fit=crop&w=1400&q=80",
	"https://images.unsplash.com/photo-1517649763962-0c623066013b?auto=format&fit=crop&w=1400&q=80",
	"https://images.unsplash.com/photo-1471295253337-3ceaaedca402?auto=format&fit=crop&w=1400&q=80",
}

var upcomingHighlights = []func(opponent string) []string{
	func(o string) []string {
		return []string{
			fmt.Sprintf("Pressing choreography sharpened to disrupt %s's build-up.", o),
			"Set-piece unit drilling near-post overloads with precision reps.",
			"Supporter tifo reveal finalised for opening whistle energy.",
		}
	},
	func(o string) []string {
		return []string{
			fmt.Sprintf("Tempo emphasis on quick switches to stretch %s's back line.", o),
			"Goalkeeping crew rehearsing distribution under pressure drills.",
			"Matchday operations expanding safe-standing capacity.",
		}
	},
	func(o string) []string {
		return []string{
			fmt.Sprintf("Midfield rotations refined to counter %s's press traps.", o),
			"Analytics flagged transition triggers for wingback overloads.",
			"Fan services adding alpine cocoa bars throughout concourses.",
		}
	},
	func(o string) []string {
		return []string{
			fmt.Sprintf("Academy duo elevated to senior bench against %s.", o),
			"Wellness staff scheduling light recovery under altitude lamps.",
			"Club shop launching limited Tempest scarf on matchday.",
		}
	},
}

var recapTemplates = []string{
	"Storm handled %s with composure, capitalising on the second-half press to seize control down the stretch.",
	"A roaring Aurora Field witnessed the Storm outwork %s, with the back line absorbing late pressure to close it out.",
	"Clinical finishing and relentless width saw Stadli overwhelm %s as the supporters carried the momentum home.",
	"Storm answered every push from %s, leaning on squad depth to ice the result in stoppage time.",
}

var upcomingDescriptions = []string{
	"Intensity ramps up for a high-tempo clash with %s. Expect aggressive pressing windows and bold wingback overlaps.",
	"The Storm eye another statement at Aurora Field with training blocks centred on controlled build-up and rapid counters against %s.",
	"Focus shifts to game management as the staff emphasise rest defence and creative set pieces to unlock %s.",
	"Supporters can anticipate a charged atmosphere as the Storm rotate fresh legs and hunt early goals versus %s.",
}

var homeVenueSlugs = map[string]bool{"aurora-field": true, "stadli-arena": true}

func pick(id uint64, n int) int { return int(id % uint64(n)) }

func venueLabel(g model.Game) string {
	name := g.VenueName
	if name == "" {
		name = defaultVenueName
	}
	if g.VenueLocation != nil && *g.VenueLocation != "" {
		return fmt.Sprintf("%s (%s)", name, *g.VenueLocation)
	}
	return name
}

func isHome(g model.Game) bool {
	if homeVenueSlugs[g.VenueSlug] {
		return true
	}
	name := g.VenueName
	if name == "" {
		name = defaultVenueName
	}
	return strings.Contains(strings.ToLower(name), "aurora")
}

// NewPublicGame decorates g for the public API as of now.
func NewPublicGame(g model.Game, now time.Time) PublicGame {
	status := g.PublicStatus(now)
	recap := fmt.Sprintf(recapTemplates[pick(g.ID, len(recapTemplates))], g.Opponent)

	pg := PublicGame{
		ID:         g.ID,
		Opponent:   g.Opponent,
		Venue:      venueLabel(g),
		Date:       g.StartsAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		Status:     status,
		HeroImage:  heroImages[pick(g.ID, len(heroImages))],
		Highlights: upcomingHighlights[pick(g.ID, len(upcomingHighlights))](g.Opponent),
		IsHome:     isHome(g),
	}
	if status == model.GameStatusFinal {
		pg.Recap = recap
		pg.Score = fmt.Sprintf("Storm %d - %d %s", 2+g.ID%3, (g.ID+1)%2, g.Opponent)
	}

	switch {
	case g.Description != nil:
		pg.Description = strings.TrimSpace(*g.Description)
	case status == model.GameStatusFinal:
		pg.Description = recap
	default:
		pg.Description = fmt.Sprintf(upcomingDescriptions[pick(g.ID, len(upcomingDescriptions))], g.Opponent)
	}
	return pg
}
