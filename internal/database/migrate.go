package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"hisaab/internal/logger"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// newMigrator builds a migrate instance for the manager's dialect. The
// returned release func must be called instead of Migrate.Close: for SQLite
// the migrator shares the manager's connection, which must stay open.
func (m *Manager) newMigrator() (*migrate.Migrate, func(), error) {
	dir := "migrations/sqlite"
	if m.cfg.Driver == DriverPostgres {
		dir = "migrations/postgres"
	}

	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create iofs source: %w", err)
	}

	if m.cfg.Driver == DriverPostgres {
		mig, err := migrate.NewWithSourceInstance("iofs", src, m.cfg.URL())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create migrate instance: %w", err)
		}
		return mig, func() {
			srcErr, dbErr := mig.Close()
			if srcErr != nil {
				logger.Get().Warnf("migrate source close error: %v", srcErr)
			}
			if dbErr != nil {
				logger.Get().Warnf("migrate database close error: %v", dbErr)
			}
		}, nil
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	driver, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	mig, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return mig, func() {
		if err := src.Close(); err != nil {
			logger.Get().Warnf("migrate source close error: %v", err)
		}
	}, nil
}

// Migrate applies all pending schema migrations. Every migration is written
// to be re-runnable, so a run interrupted before the version marker was
// committed (a dirty marker) is recovered by stepping the marker back and
// applying the step again. Any failure must abort startup.
func (m *Manager) Migrate() error {
	log := logger.Get()
	log.Info("Running database migrations...")

	mig, release, err := m.newMigrator()
	if err != nil {
		return err
	}
	defer release()

	if err := upWithRecovery(mig); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, _, err := mig.Version()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	log.Infow("Database migrations completed successfully", "version", version)
	return nil
}

func upWithRecovery(mig *migrate.Migrate) error {
	err := mig.Up()

	var dirty migrate.ErrDirty
	if errors.As(err, &dirty) {
		prev := dirty.Version - 1
		if prev < 1 {
			prev = migratedb.NilVersion
		}
		logger.Get().Warnw("schema marker is dirty, re-applying interrupted migration",
			"dirty_version", dirty.Version,
			"forced_version", prev,
		)
		if err := mig.Force(prev); err != nil {
			return fmt.Errorf("failed to reset dirty schema version: %w", err)
		}
		err = mig.Up()
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Version returns the current schema version and whether it is dirty.
func (m *Manager) Version() (uint, bool, error) {
	mig, release, err := m.newMigrator()
	if err != nil {
		return 0, false, err
	}
	defer release()

	version, dirty, err := mig.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Rollback reverts the given number of migrations.
func (m *Manager) Rollback(steps int) error {
	if steps < 1 {
		return fmt.Errorf("rollback steps must be positive, got %d", steps)
	}

	mig, release, err := m.newMigrator()
	if err != nil {
		return err
	}
	defer release()

	if err := mig.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}
