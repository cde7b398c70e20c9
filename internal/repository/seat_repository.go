package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/club-seat-reservation/internal/model"
)

// SeatRepo provides methods to work with seats in the database.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// CreateBulk inserts seats of one venue and, in the same transaction,
// backfills tickets for the venue's open games (see backfillTickets).  It
// returns the number of tickets created.  A seat position that already
// exists is reported as ErrIntegrity and nothing is inserted.
func (r *SeatRepo) CreateBulk(ctx context.Context, venueID uint64, seats []model.Seat, openFrom time.Time) (n int, err error) {
	if len(seats) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin seats tx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for start := 0; start < len(seats); start += insertBatchRows {
		if err = insertSeats(ctx, tx, venueID, seats[start:min(start+insertBatchRows, len(seats))]); err != nil {
			return 0, err
		}
	}
	if n, err = backfillTickets(ctx, tx, venueID, openFrom); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit seats tx")
	}
	return n, nil
}

func insertSeats(ctx context.Context, tx *sql.Tx, venueID uint64, seats []model.Seat) error {
	var b strings.Builder
	b.WriteString(`INSERT INTO seats (venue_id, section, row_label, seat_number, seat_type) VALUES `)
	args := make([]interface{}, 0, len(seats)*5)
	for i, seat := range seats {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?, ?)")
		args = append(args, venueID, sectionValue(seat.Section), seat.RowLabel, seat.SeatNumber, seat.SeatType)
	}
	if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
		return integrity(err, "insert seats")
	}
	return nil
}

// General admission seats are stored with an empty section so that the
// position key stays unique; NULL never collides in a unique index.
func sectionValue(section *string) string {
	if section == nil {
		return ""
	}
	return *section
}

func sectionPtr(ns sql.NullString) *string {
	if ns.String == "" {
		return nil
	}
	return nullString(ns)
}

// ListByVenue retrieves all seats of a venue ordered by section, row and number.
func (r *SeatRepo) ListByVenue(ctx context.Context, venueID uint64) ([]model.Seat, error) {
	const q = `SELECT id, venue_id, section, row_label, seat_number, seat_type
	           FROM seats
	           WHERE venue_id = ?
	           ORDER BY section, row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q, venueID)
	if err != nil {
		return nil, errors.Wrap(err, "list seats")
	}
	defer rows.Close()

	result := []model.Seat{}
	for rows.Next() {
		var (
			s       model.Seat
			section sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.VenueID, &section, &s.RowLabel, &s.SeatNumber, &s.SeatType); err != nil {
			return nil, errors.Wrap(err, "scan seat")
		}
		s.Section = sectionPtr(section)
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate seats")
	}
	return result, nil
}

// StatesForGame returns one row per seat of the game's venue together
// with the status of the seat's ticket for that game.  Seats without a
// ticket row come back with a nil TicketStatus.  An unknown game yields
// an empty slice.
func (r *SeatRepo) StatesForGame(ctx context.Context, gameID uint64) ([]model.SeatState, error) {
	const q = `SELECT s.id, s.section, t.status
	           FROM seats s
	           JOIN games g ON g.venue_id = s.venue_id
	           LEFT JOIN tickets t ON t.seat_id = s.id AND t.game_id = g.id
	           WHERE g.id = ?`
	rows, err := r.db.QueryContext(ctx, q, gameID)
	if err != nil {
		return nil, errors.Wrap(err, "select seat states")
	}
	defer rows.Close()

	out := []model.SeatState{}
	for rows.Next() {
		var (
			st      model.SeatState
			section sql.NullString
			status  sql.NullString
		)
		if err := rows.Scan(&st.SeatID, &section, &status); err != nil {
			return nil, errors.Wrap(err, "scan seat state")
		}
		st.Section = sectionPtr(section)
		st.TicketStatus = nullString(status)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate seat states")
	}
	return out, nil
}
