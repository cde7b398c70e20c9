package repository

import (
    "context"
    "database/sql"

    "github.com/cockroachdb/errors"

    "github.com/iliyamo/club-seat-reservation/internal/model"
)

// VenueRepo encapsulates database operations for venues.
type VenueRepo struct {
    db *sql.DB
}

// NewVenueRepo constructs a VenueRepo given a DB handle.
func NewVenueRepo(db *sql.DB) *VenueRepo {
    return &VenueRepo{db: db}
}

const venueColumns = `id, name, slug, location, capacity, description, created_at, updated_at`

// Create inserts a venue and populates its ID and timestamps.  A
// duplicate slug is reported as ErrIntegrity.
func (r *VenueRepo) Create(ctx context.Context, v *model.Venue) error {
    const q = `INSERT INTO venues (name, slug, location, capacity, description) VALUES (?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, v.Name, v.Slug, v.Location, v.Capacity, v.Description)
    if err != nil {
        return integrity(err, "insert venue")
    }
    id, err := res.LastInsertId()
    if err != nil {
        return errors.Wrap(err, "venue last insert id")
    }
    created, err := r.GetByID(ctx, uint64(id))
    if err != nil {
        return err
    }
    *v = *created
    return nil
}

// GetByID returns a venue or ErrVenueNotFound.
func (r *VenueRepo) GetByID(ctx context.Context, id uint64) (*model.Venue, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = ?`, id)
    v, err := scanVenue(row)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrVenueNotFound
        }
        return nil, errors.Wrap(err, "select venue")
    }
    return v, nil
}

// List returns all venues ordered by name.
func (r *VenueRepo) List(ctx context.Context) ([]model.Venue, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT `+venueColumns+` FROM venues ORDER BY name`)
    if err != nil {
        return nil, errors.Wrap(err, "list venues")
    }
    defer rows.Close()

    out := []model.Venue{}
    for rows.Next() {
        v, err := scanVenue(rows)
        if err != nil {
            return nil, errors.Wrap(err, "scan venue")
        }
        out = append(out, *v)
    }
    return out, errors.Wrap(rows.Err(), "iterate venues")
}

type rowScanner interface {
    Scan(dest ...any) error
}

func scanVenue(s rowScanner) (*model.Venue, error) {
    var (
        v        model.Venue
        location sql.NullString
        capacity sql.NullInt64
        desc     sql.NullString
    )
    if err := s.Scan(&v.ID, &v.Name, &v.Slug, &location, &capacity, &desc, &v.CreatedAt, &v.UpdatedAt); err != nil {
        return nil, err
    }
    v.Location = nullString(location)
    v.Description = nullString(desc)
    if capacity.Valid {
        c := uint32(capacity.Int64)
        v.Capacity = &c
    }
    return &v, nil
}

func nullString(ns sql.NullString) *string {
    if !ns.Valid {
        return nil
    }
    s := ns.String
    return &s
}
