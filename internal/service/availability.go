package service

import (
	"context"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/club-seat-reservation/internal/model"
)

// AggregateSections folds per-seat states into per-section counts.
// Seats without a section label are grouped under General Admission and
// seats without a ticket row count as available.  Sections are returned
// in lexicographic order of their label.
func AggregateSections(states []model.SeatState) []model.SectionAvailability {
	bySection := map[string]*model.SectionAvailability{}
	for _, st := range states {
		label := model.GeneralAdmission
		if st.Section != nil && strings.TrimSpace(*st.Section) != "" {
			label = *st.Section
		}
		sec, ok := bySection[label]
		if !ok {
			sec = &model.SectionAvailability{Section: label}
			bySection[label] = sec
		}
		sec.TotalSeats++
		status := model.TicketAvailable
		if st.TicketStatus != nil {
			status = *st.TicketStatus
		}
		switch status {
		case model.TicketReserved:
			sec.ReservedSeats++
		case model.TicketSold:
			sec.SoldSeats++
		default:
			sec.AvailableSeats++
		}
	}

	out := make([]model.SectionAvailability, 0, len(bySection))
	for _, sec := range bySection {
		out = append(out, *sec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Section < out[j].Section })
	return out
}

// Summarise sums section counts into a whole-game summary.
func Summarise(sections []model.SectionAvailability) model.SeatSummary {
	var sum model.SeatSummary
	for _, s := range sections {
		sum.TotalSeats += s.TotalSeats
		sum.AvailableSeats += s.AvailableSeats
		sum.ReservedSeats += s.ReservedSeats
		sum.SoldSeats += s.SoldSeats
	}
	return sum
}

// AvailabilityService reads seat states and aggregates them.
type AvailabilityService struct {
	seats       SeatStateReader
	concurrency int
}

func NewAvailabilityService(seats SeatStateReader) *AvailabilityService {
	return &AvailabilityService{seats: seats, concurrency: 8}
}

// ForGame returns the section availability of one game.  An unknown game
// has no seats and yields an empty slice.
func (s *AvailabilityService) ForGame(ctx context.Context, gameID uint64) ([]model.SectionAvailability, error) {
	states, err := s.seats.StatesForGame(ctx, gameID)
	if err != nil {
		return nil, errors.Wrapf(err, "seat states for game %d", gameID)
	}
	return AggregateSections(states), nil
}

// ForGames computes availability for several games concurrently.  The
// result is keyed by game id.
func (s *AvailabilityService) ForGames(ctx context.Context, gameIDs []uint64) (map[uint64][]model.SectionAvailability, error) {
	results := make([][]model.SectionAvailability, len(gameIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range gameIDs {
		i, id := i, id
		g.Go(func() error {
			sections, err := s.ForGame(gctx, id)
			if err != nil {
				return err
			}
			results[i] = sections
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[uint64][]model.SectionAvailability, len(gameIDs))
	for i, id := range gameIDs {
		out[id] = results[i]
	}
	return out, nil
}
