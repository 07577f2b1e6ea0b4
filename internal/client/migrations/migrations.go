// Package migrations embeds and applies the goose SQL migrations of the local
// database.
//
// Migrations are additive only: every version creates tables or indexes
// that do not exist yet and never drops an existing collection, so upgrading
// an old database keeps its data.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var Migrations embed.FS

// Up applies every pending migration. Running it on an up-to-date database
// is a no-op, which makes opening the store idempotent.
func Up(ctx context.Context, db *sql.DB) (int, error) {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, Migrations)
	if err != nil {
		return 0, fmt.Errorf("goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}
	return len(results), nil
}
