package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/club-seat-reservation/internal/model"
)

// GameRepo manages persistence for games.  Reads join the venue so that
// callers get the venue name, slug and location alongside each game.
type GameRepo struct {
	db      *sql.DB
	tickets *TicketRepo
}

// NewGameRepo constructs a GameRepo.  Ticket materialisation on game
// creation goes through a TicketRepo bound to the same database.
func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db, tickets: NewTicketRepo(db)}
}

const gameSelect = `SELECT g.id, g.venue_id, g.opponent, g.starts_at, g.status, g.description,
                           g.created_at, g.updated_at, v.name, v.slug, v.location
                    FROM games g
                    JOIN venues v ON v.id = g.venue_id`

// GetByID returns a game with its venue fields or ErrGameNotFound.
func (r *GameRepo) GetByID(ctx context.Context, id uint64) (*model.Game, error) {
	g, err := scanGame(r.db.QueryRowContext(ctx, gameSelect+` WHERE g.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, errors.Wrap(err, "select game")
	}
	return g, nil
}

// List returns every game ordered by kick-off time.
func (r *GameRepo) List(ctx context.Context) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx, gameSelect+` ORDER BY g.starts_at ASC, g.id ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "list games")
	}
	defer rows.Close()

	out := []model.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan game")
		}
		out = append(out, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate games")
	}
	return out, nil
}

// CreateTx inserts a game using the provided transaction and sets its ID.
// The caller must commit or roll back the transaction.
func (r *GameRepo) CreateTx(ctx context.Context, tx *sql.Tx, g *model.Game) error {
	const q = `INSERT INTO games (venue_id, opponent, starts_at, status, description) VALUES (?, ?, ?, ?, ?)`
	status := g.Status
	if status == "" {
		status = "scheduled"
	}
	res, err := tx.ExecContext(ctx, q, g.VenueID, g.Opponent, g.StartsAt.UTC(), status, g.Description)
	if err != nil {
		if mysqlCode(err) == mysqlNoReferencedRow {
			return ErrVenueNotFound
		}
		return errors.Wrap(err, "insert game")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "game last insert id")
	}
	g.ID = uint64(id)
	g.Status = status
	return nil
}

// CreateWithTickets inserts a game and one available ticket per seat of
// its venue in a single transaction.  It returns the number of tickets
// created and reloads g with its venue fields.
func (r *GameRepo) CreateWithTickets(ctx context.Context, g *model.Game, priceCents uint32) (n int, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin game tx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.CreateTx(ctx, tx, g); err != nil {
		return 0, err
	}
	seatIDs, err := seatIDsTx(ctx, tx, g.VenueID)
	if err != nil {
		return 0, err
	}
	if err = r.tickets.CreateBulkTx(ctx, tx, g.ID, seatIDs, priceCents); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit game tx")
	}

	created, err := r.GetByID(ctx, g.ID)
	if err != nil {
		return len(seatIDs), err
	}
	*g = *created
	return len(seatIDs), nil
}

func seatIDsTx(ctx context.Context, tx *sql.Tx, venueID uint64) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM seats WHERE venue_id = ? ORDER BY id`, venueID)
	if err != nil {
		return nil, errors.Wrap(err, "select venue seats")
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan seat id")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "iterate seat ids")
}

func scanGame(s rowScanner) (*model.Game, error) {
	var (
		g        model.Game
		desc     sql.NullString
		location sql.NullString
	)
	if err := s.Scan(
		&g.ID, &g.VenueID, &g.Opponent, &g.StartsAt, &g.Status, &desc,
		&g.CreatedAt, &g.UpdatedAt, &g.VenueName, &g.VenueSlug, &location,
	); err != nil {
		return nil, err
	}
	g.StartsAt = g.StartsAt.UTC()
	g.Description = nullString(desc)
	g.VenueLocation = nullString(location)
	return &g, nil
}
