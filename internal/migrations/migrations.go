package migrations

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var migrationsFS embed.FS

// goose keeps dialect and filesystem in package globals.
var gooseMu sync.Mutex

func dialectFor(driver string) (dialect, dir string, err error) {
	switch driver {
	case "pgx":
		return "postgres", "postgres", nil
	case "sqlite":
		return "sqlite3", "sqlite", nil
	default:
		return "", "", fmt.Errorf("no migrations for driver %q", driver)
	}
}

// Apply brings the schema up to the latest embedded version.
func Apply(ctx context.Context, db *sqlx.DB) error {
	dialect, dir, err := dialectFor(db.DriverName())
	if err != nil {
		return err
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB, dir); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Version reports the currently applied migration version.
func Version(ctx context.Context, db *sqlx.DB) (int64, error) {
	dialect, _, err := dialectFor(db.DriverName())
	if err != nil {
		return 0, err
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect(dialect); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, db.DB)
}
