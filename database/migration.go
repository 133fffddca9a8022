package database

import (
	"context"
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mbolis/quick-forms/log"
	"github.com/pkg/errors"
)

//go:embed migrations
var dbMigrations embed.FS

// migrateDB applies every pending migration. The migrator is never closed,
// since that would close db too.
func migrateDB(db *sql.DB) error {
	src, err := iofs.New(dbMigrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "source")
	}

	dst, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return errors.Wrap(err, "driver")
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "sqlite3", dst)
	if err != nil {
		return errors.Wrap(err, "init")
	}

	before, _, _ := migrator.Version()
	err = migrator.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Debugf("db.migrate: schema up to date (version %d)", before)
	case err != nil:
		return errors.Wrap(err, "up")
	default:
		after, _, _ := migrator.Version()
		log.WithFields(log.Fields{"from": before, "to": after}).Info("db.migrate: schema migrated")
	}
	return nil
}

// SchemaVersion reports the applied migration version and whether the last
// migration was left half-applied.
func SchemaVersion(ctx context.Context, q Querier) (version uint, dirty bool, err error) {
	err = q.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	err = errors.Wrap(err, "db.schema_version")
	return
}
