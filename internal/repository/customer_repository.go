package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/club-seat-reservation/internal/model"
)

// CustomerRepo mirrors the 'customers' table.
type CustomerRepo struct{ DB *sql.DB }

func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{DB: db} }

// Upsert inserts the customer or, when the normalised email already
// exists, merges the supplied non-nil fields into the existing row.  The
// unique email index makes the statement atomic, so concurrent upserts
// for the same email converge on one row.  The stored row is returned.
func (r *CustomerRepo) Upsert(ctx context.Context, c model.Customer) (*model.Customer, error) {
	email := strings.ToLower(strings.TrimSpace(c.Email))
	const q = `INSERT INTO customers (first_name, last_name, email, phone)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	               first_name = COALESCE(VALUES(first_name), first_name),
	               last_name  = COALESCE(VALUES(last_name), last_name),
	               phone      = COALESCE(VALUES(phone), phone)`
	if _, err := r.DB.ExecContext(ctx, q, c.FirstName, c.LastName, email, c.Phone); err != nil {
		return nil, integrity(err, "upsert customer")
	}
	return r.GetByEmail(ctx, email)
}

// GetByEmail fetches a customer by normalised email.
func (r *CustomerRepo) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.get(ctx, "email = ?", email)
}

// GetByID fetches a customer by id.
func (r *CustomerRepo) GetByID(ctx context.Context, id uint64) (*model.Customer, error) {
	return r.get(ctx, "id = ?", id)
}

func (r *CustomerRepo) get(ctx context.Context, where string, arg interface{}) (*model.Customer, error) {
	var (
		c           model.Customer
		first, last sql.NullString
		phone       sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,first_name,last_name,email,phone,created_at,updated_at FROM customers WHERE "+where+" LIMIT 1",
		arg).Scan(&c.ID, &first, &last, &c.Email, &phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, errors.Wrap(err, "select customer")
	}
	c.FirstName = nullString(first)
	c.LastName = nullString(last)
	c.Phone = nullString(phone)
	return &c, nil
}
