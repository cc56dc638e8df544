package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"bookingcrm/internal/db/migrations"

	"github.com/pressly/goose/v3"
)

var gooseOnce sync.Once

func setupGoose() error {
	var err error
	gooseOnce.Do(func() {
		goose.SetBaseFS(migrations.FS)
		err = goose.SetDialect("mysql")
	})
	return err
}

// MigrateUp applies every pending migration.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return fmt.Errorf("goose setup: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// MigrateDown rolls back the latest migration.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return fmt.Errorf("goose setup: %w", err)
	}
	if err := goose.DownContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// MigrateStatus prints the state of every migration through goose's logger.
func MigrateStatus(ctx context.Context, db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return fmt.Errorf("goose setup: %w", err)
	}
	if err := goose.StatusContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate status: %w", err)
	}
	return nil
}
