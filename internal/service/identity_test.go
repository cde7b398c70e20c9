package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/club-seat-reservation/internal/testutil"
)

func TestSplitName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in          string
		first, last *string
	}{
		{"", nil, nil},
		{"   ", nil, nil},
		{"Ada", strp("Ada"), nil},
		{"  Ada   Lovelace ", strp("Ada"), strp("Lovelace")},
		{"Ada King Lovelace", strp("Ada"), strp("King Lovelace")},
	}
	for _, tt := range tests {
		first, last := SplitName(tt.in)
		assert.Equal(t, tt.first, first, "first of %q", tt.in)
		assert.Equal(t, tt.last, last, "last of %q", tt.in)
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "fan@example.com", NormalizeEmail("  Fan@Example.COM "))
}

func TestIdentityResolver_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("same email resolves to one customer", func(t *testing.T) {
		store := testutil.NewStore()
		r := NewIdentityResolver(store.Customers())

		a, err := r.Resolve(context.Background(), ContactInput{FirstName: strp("Ada"), Email: "ada@example.com"})
		require.NoError(t, err)
		b, err := r.Resolve(context.Background(), ContactInput{Email: "  ADA@example.com"})
		require.NoError(t, err)

		assert.Equal(t, a.ID, b.ID)
		assert.Equal(t, "ada@example.com", b.Email)
		assert.Equal(t, 1, store.CustomerCount())
	})

	t.Run("missing fields never erase stored ones", func(t *testing.T) {
		store := testutil.NewStore()
		r := NewIdentityResolver(store.Customers())

		_, err := r.Resolve(context.Background(), ContactInput{FirstName: strp("Ada"), LastName: strp("Lovelace"), Email: "ada@example.com"})
		require.NoError(t, err)
		c, err := r.Resolve(context.Background(), ContactInput{FirstName: strp("  "), Phone: strp("+47 555 0100"), Email: "ada@example.com"})
		require.NoError(t, err)

		assert.Equal(t, strp("Ada"), c.FirstName)
		assert.Equal(t, strp("Lovelace"), c.LastName)
		assert.Equal(t, strp("+47 555 0100"), c.Phone)
	})

	t.Run("email required", func(t *testing.T) {
		store := testutil.NewStore()
		_, err := NewIdentityResolver(store.Customers()).Resolve(context.Background(), ContactInput{Email: "   "})
		assert.ErrorIs(t, err, ErrEmailRequired)
		assert.Equal(t, 0, store.CustomerCount())
	})
}
