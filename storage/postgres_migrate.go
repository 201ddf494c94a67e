package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var postgresMigrations embed.FS

// MigrationResult reports one applied migration.
type MigrationResult struct {
	Version int64
	Path    string
}

// MigratePostgres applies all pending embedded migrations to dsn.
func MigratePostgres(ctx context.Context, dsn string) ([]MigrationResult, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	migrations, err := fs.Sub(postgresMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations)
	if err != nil {
		return nil, fmt.Errorf("goose new provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose up: %w", err)
	}

	applied := make([]MigrationResult, 0, len(results))
	for _, result := range results {
		applied = append(applied, MigrationResult{
			Version: result.Source.Version,
			Path:    result.Source.Path,
		})
	}
	return applied, nil
}
