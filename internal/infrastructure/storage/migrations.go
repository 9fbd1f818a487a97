package storage

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/pressly/goose/v3"
)

// Schema migrations live in migrations/ as goose SQL files and are embedded
// into the binary so a fresh database can be created from anywhere.
//
//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// runMigrations applies all pending migrations
func (s *Storage) runMigrations(ctx context.Context) error {
	fsys, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	for _, r := range results {
		log.Printf("Applied migration %d (%s) in %s", r.Source.Version, filepath.Base(r.Source.Path), r.Duration)
	}

	return nil
}
