package service

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/club-seat-reservation/internal/model"
)

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SplitName splits a free-text full name on whitespace.  The first token
// becomes the first name and the remaining tokens, joined by a single
// space, the last name.  Missing parts are nil.
func SplitName(full string) (first, last *string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return nil, nil
	}
	f := parts[0]
	if len(parts) == 1 {
		return &f, nil
	}
	l := strings.Join(parts[1:], " ")
	return &f, &l
}

// ContactInput carries the contact details of a supporter.  Nil or blank
// optional fields never overwrite stored values.
type ContactInput struct {
	FirstName *string
	LastName  *string
	Email     string
	Phone     *string
}

// IdentityResolver maps contact details to a stable customer record.
type IdentityResolver struct {
	customers CustomerStore
}

func NewIdentityResolver(customers CustomerStore) *IdentityResolver {
	return &IdentityResolver{customers: customers}
}

// Resolve finds the customer by normalised email, creating it when absent
// and merging newly supplied details when present.
func (r *IdentityResolver) Resolve(ctx context.Context, in ContactInput) (*model.Customer, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	c, err := r.customers.Upsert(ctx, model.Customer{
		FirstName: trimmed(in.FirstName),
		LastName:  trimmed(in.LastName),
		Email:     email,
		Phone:     trimmed(in.Phone),
	})
	if err != nil {
		return nil, errors.Wrap(err, "upsert customer")
	}
	return c, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
