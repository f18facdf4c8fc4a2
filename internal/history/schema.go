package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
)

// schemaDDL holds the history schema definition.
//
//go:embed schema.sql
var schemaDDL string

// SchemaDDL returns the DDL applied by EnsureSchema.
func SchemaDDL() string {
	return schemaDDL
}

// EnsureSchema creates the history tables and views when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("history: db is nil")
	}
	_, err := db.ExecContext(ctx, schemaDDL)
	return err
}
