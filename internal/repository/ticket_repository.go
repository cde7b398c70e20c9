package repository // repository for ticket persistence

import (
    "context"      // context for managing deadlines
    "database/sql" // sql provides DB interfaces
    "strings"
    "time"

    "github.com/cockroachdb/errors"

    "github.com/iliyamo/club-seat-reservation/internal/model"
)

// TicketRepo encapsulates database operations for tickets.  All status
// writes touch a single row; the reservation path additionally guards on
// the current status so that concurrent requests never take the same
// ticket.
type TicketRepo struct {
    db *sql.DB
}

// NewTicketRepo constructs a TicketRepo given a DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo {
    return &TicketRepo{db: db}
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertBatchRows caps the rows of one multi-row INSERT.  MySQL rejects
// a prepared statement with more than 65535 placeholders.
const insertBatchRows = 1000

// CreateBulkTx materialises one available ticket per seat for a game
// inside the caller's transaction, in batches of insertBatchRows.  A
// ticket that already exists for a (game, seat) pair is reported as
// ErrIntegrity; the caller rolls back so nothing is kept.
func (r *TicketRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, gameID uint64, seatIDs []uint64, priceCents uint32) error {
    return createTickets(ctx, tx, gameID, seatIDs, priceCents)
}

func createTickets(ctx context.Context, db execer, gameID uint64, seatIDs []uint64, priceCents uint32) error {
    for start := 0; start < len(seatIDs); start += insertBatchRows {
        batch := seatIDs[start:min(start+insertBatchRows, len(seatIDs))]
        var b strings.Builder
        b.WriteString(`INSERT INTO tickets (game_id, seat_id, price_cents, status) VALUES `)
        args := make([]interface{}, 0, len(batch)*4)
        for i, seatID := range batch {
            if i > 0 {
                b.WriteString(",")
            }
            b.WriteString("(?, ?, ?, ?)")
            args = append(args, gameID, seatID, priceCents, model.TicketAvailable)
        }
        if _, err := db.ExecContext(ctx, b.String(), args...); err != nil {
            return integrity(err, "insert tickets")
        }
    }
    return nil
}

// backfillTickets gives every seat of a venue that lacks a ticket for an
// open game an available ticket priced like the game's existing tickets.
// Open means kick-off at or after openFrom and no final status.  Games
// without any ticket have no price to copy and are skipped.
func backfillTickets(ctx context.Context, db execer, venueID uint64, openFrom time.Time) (int, error) {
    const q = `INSERT INTO tickets (game_id, seat_id, price_cents, status)
               SELECT g.id, s.id, p.price_cents, ?
               FROM games g
               JOIN (SELECT game_id, MIN(price_cents) AS price_cents FROM tickets GROUP BY game_id) p ON p.game_id = g.id
               JOIN seats s ON s.venue_id = g.venue_id
               LEFT JOIN tickets t ON t.game_id = g.id AND t.seat_id = s.id
               WHERE g.venue_id = ? AND g.starts_at >= ? AND t.id IS NULL
                 AND LOWER(TRIM(g.status)) NOT IN ('final', 'completed', 'finished')`
    res, err := db.ExecContext(ctx, q, model.TicketAvailable, venueID, openFrom.UTC())
    if err != nil {
        return 0, integrity(err, "backfill tickets")
    }
    n, err := res.RowsAffected()
    if err != nil {
        return 0, errors.Wrap(err, "backfill rows affected")
    }
    return int(n), nil
}

// ListForGame returns the tickets of a game joined with their seat
// position and the assigned customer's display name, ordered by section,
// row and number (ticket id breaks ties).
func (r *TicketRepo) ListForGame(ctx context.Context, gameID uint64) ([]model.TicketView, error) {
    const q = `SELECT t.id, t.game_id, t.seat_id, t.customer_id, t.price_cents, t.status, t.purchased_at,
                      s.section, s.row_label, s.seat_number, s.seat_type,
                      TRIM(CONCAT_WS(' ', c.first_name, c.last_name))
               FROM tickets t
               JOIN seats s ON s.id = t.seat_id
               LEFT JOIN customers c ON c.id = t.customer_id
               WHERE t.game_id = ?
               ORDER BY s.section, s.row_label, s.seat_number, t.id`
    rows, err := r.db.QueryContext(ctx, q, gameID)
    if err != nil {
        return nil, errors.Wrap(err, "list tickets")
    }
    defer rows.Close()

    out := []model.TicketView{}
    for rows.Next() {
        var (
            tv          model.TicketView
            customerID  sql.NullInt64
            purchasedAt sql.NullTime
            section     sql.NullString
            name        sql.NullString
        )
        if err := rows.Scan(
            &tv.ID, &tv.GameID, &tv.SeatID, &customerID, &tv.PriceCents, &tv.Status, &purchasedAt,
            &section, &tv.Row, &tv.Number, &tv.SeatType, &name,
        ); err != nil {
            return nil, errors.Wrap(err, "scan ticket")
        }
        if customerID.Valid {
            id := uint64(customerID.Int64)
            tv.CustomerID = &id
        }
        if purchasedAt.Valid {
            at := purchasedAt.Time.UTC()
            tv.PurchasedAt = &at
        }
        tv.Section = sectionPtr(section)
        // CONCAT_WS over a missing customer yields "", which is reported as no name.
        if name.Valid && name.String != "" {
            n := name.String
            tv.CustomerName = &n
        }
        out = append(out, tv)
    }
    if err := rows.Err(); err != nil {
        return nil, errors.Wrap(err, "iterate tickets")
    }
    return out, nil
}

// SetStatus sets the status of one ticket.  purchasedAt is stored only
// for sold tickets; every other status clears it.  ErrTicketNotFound is
// returned when no row matches.
func (r *TicketRepo) SetStatus(ctx context.Context, ticketID uint64, status string, purchasedAt *time.Time) error {
    var at interface{}
    if status == model.TicketSold && purchasedAt != nil {
        at = purchasedAt.UTC()
    }
    const q = `UPDATE tickets SET status = ?, purchased_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, status, at, ticketID)
    if err != nil {
        return errors.Wrap(err, "update ticket status")
    }
    return expectRow(res, ErrTicketNotFound)
}

// AssignCustomer sets or clears the customer of one ticket without
// touching its status.  ErrTicketNotFound is returned for an unknown
// ticket and ErrCustomerNotFound for an unknown customer.
func (r *TicketRepo) AssignCustomer(ctx context.Context, ticketID uint64, customerID *uint64) error {
    const q = `UPDATE tickets SET customer_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, customerID, ticketID)
    if err != nil {
        if mysqlCode(err) == mysqlNoReferencedRow {
            return ErrCustomerNotFound
        }
        return errors.Wrap(err, "assign ticket customer")
    }
    return expectRow(res, ErrTicketNotFound)
}

// AvailableIDs returns up to limit ids of available tickets for a game in
// ascending id order.
func (r *TicketRepo) AvailableIDs(ctx context.Context, gameID uint64, limit int) ([]uint64, error) {
    if limit <= 0 {
        return []uint64{}, nil
    }
    const q = `SELECT id FROM tickets WHERE game_id = ? AND status = ? ORDER BY id LIMIT ?`
    rows, err := r.db.QueryContext(ctx, q, gameID, model.TicketAvailable, limit)
    if err != nil {
        return nil, errors.Wrap(err, "select available tickets")
    }
    defer rows.Close()

    ids := make([]uint64, 0, limit)
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, errors.Wrap(err, "scan ticket id")
        }
        ids = append(ids, id)
    }
    if err := rows.Err(); err != nil {
        return nil, errors.Wrap(err, "iterate ticket ids")
    }
    return ids, nil
}

// ReserveIfAvailable assigns the customer and moves the ticket to
// reserved in one statement, but only while the ticket is still
// available.  It reports false when another request got there first.
func (r *TicketRepo) ReserveIfAvailable(ctx context.Context, ticketID, customerID uint64) (bool, error) {
    const q = `UPDATE tickets
               SET status = ?, customer_id = ?, purchased_at = NULL, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND status = ?`
    res, err := r.db.ExecContext(ctx, q, model.TicketReserved, customerID, ticketID, model.TicketAvailable)
    if err != nil {
        if mysqlCode(err) == mysqlNoReferencedRow {
            return false, ErrCustomerNotFound
        }
        return false, errors.Wrap(err, "reserve ticket")
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, errors.Wrap(err, "rows affected")
    }
    return n == 1, nil
}

// expectRow turns a zero affected-row count into notFound.
func expectRow(res sql.Result, notFound error) error {
    n, err := res.RowsAffected()
    if err != nil {
        return errors.Wrap(err, "rows affected")
    }
    if n == 0 {
        return notFound
    }
    return nil
}
