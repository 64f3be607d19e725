package pgx

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"

	"polygraph/pkg/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate brings the snapshot schema up to date. The database URL may use
// the usual postgres:// scheme; it is rewritten for the migrate pgx driver.
func Migrate(databaseURL string) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	url := databaseURL
	if after, ok := strings.CutPrefix(url, "postgres://"); ok {
		url = "pgx5://" + after
	} else if after, ok := strings.CutPrefix(url, "postgresql://"); ok {
		url = "pgx5://" + after
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return err
	}
	logger.Info("[Store] Snapshot schema migrated")
	return nil
}
