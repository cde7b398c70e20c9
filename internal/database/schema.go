package database

import (
	"context"
	"database/sql"
	_ "embed"

	"github.com/cockroachdb/errors"
)

//go:embed schema.sql
var schemaDDL string

// Schema returns the DDL applied by EnsureSchema.
func Schema() string { return schemaDDL }

// EnsureSchema creates the ticketing tables when they do not exist yet.
// Every statement is idempotent, so it is safe to run on each start-up.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	return nil
}
