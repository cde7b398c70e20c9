package service

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/club-seat-reservation/internal/model"
	"github.com/iliyamo/club-seat-reservation/internal/observability"
)

const (
	defaultMaxRounds = 4
	// defaultWindow is how many candidates beyond the still-needed count a
	// round selects, so a lost ticket is replaced without a new query.
	defaultWindow = 16
)

// ReservationEngine turns available tickets of a game into reserved
// tickets held by one customer.  It never holds a lock: every ticket is
// taken with a conditional update.  Each round selects the needed count
// plus a window of spare candidates and walks them in id order; only
// when the whole selection was lost does it select again, up to
// maxRounds selections.
type ReservationEngine struct {
	tickets   TicketStore
	maxRounds int
	window    int
	logger    observability.Logger
}

type ReservationOption func(*ReservationEngine)

// WithMaxRounds overrides how many selection rounds a request may use.
func WithMaxRounds(n int) ReservationOption {
	return func(e *ReservationEngine) {
		if n > 0 {
			e.maxRounds = n
		}
	}
}

// WithCandidateWindow sets how many spare candidates a round selects.
// Zero selects exactly the needed count.
func WithCandidateWindow(n int) ReservationOption {
	return func(e *ReservationEngine) {
		if n >= 0 {
			e.window = n
		}
	}
}

// WithReservationLogger sets the engine logger.
func WithReservationLogger(l observability.Logger) ReservationOption {
	return func(e *ReservationEngine) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewReservationEngine(tickets TicketStore, opts ...ReservationOption) *ReservationEngine {
	e := &ReservationEngine{
		tickets:   tickets,
		maxRounds: defaultMaxRounds,
		window:    defaultWindow,
		logger:    observability.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reserve reserves up to quantity tickets of the game for the customer,
// lowest ticket id first.  Reserving fewer than requested is a normal
// result.  The call is not idempotent: repeating it reserves more seats.
// On a storage error the returned result still counts the tickets that
// were reserved before the failure.
func (e *ReservationEngine) Reserve(ctx context.Context, gameID, customerID uint64, quantity int) (res model.ReservationResult, err error) {
	if quantity < 1 {
		return model.ReservationResult{}, ErrInvalidQuantity
	}
	res.Requested = quantity

	ctx, span := observability.Tracer().Start(ctx, "ReservationEngine.Reserve", trace.WithAttributes(
		attribute.Int64("game.id", int64(gameID)),
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int("seats.requested", quantity),
	))
	lost := 0
	defer func() {
		span.SetAttributes(attribute.Int("seats.reserved", res.Reserved), attribute.Int("seats.lost_races", lost))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		observability.SeatsReserved.Add(float64(res.Reserved))
		observability.ReservationLostRaces.Add(float64(lost))
		if short := res.Requested - res.Reserved; short > 0 {
			observability.ReservationShortfall.Add(float64(short))
		}
	}()

	for round := 0; round < e.maxRounds && res.Reserved < quantity; round++ {
		ids, err := e.tickets.AvailableIDs(ctx, gameID, quantity-res.Reserved+e.window)
		if err != nil {
			return res, errors.Wrap(err, "select available tickets")
		}
		if len(ids) == 0 {
			break
		}
		lostThisRound := 0
		for _, id := range ids {
			if res.Reserved == quantity {
				break
			}
			ok, err := e.tickets.ReserveIfAvailable(ctx, id, customerID)
			if err != nil {
				return res, errors.Wrapf(err, "reserve ticket %d", id)
			}
			if ok {
				res.Reserved++
			} else {
				lostThisRound++
			}
		}
		lost += lostThisRound
		// Nothing was lost, so either the request is complete or the
		// selection already held every available ticket.
		if lostThisRound == 0 {
			break
		}
	}

	if lost > 0 {
		e.logger.WithField("game_id", gameID).WithField("lost_races", lost).
			WithField("reserved", res.Reserved).WithField("requested", quantity).
			Debug("reservation lost races to concurrent requests")
	}
	return res, nil
}
