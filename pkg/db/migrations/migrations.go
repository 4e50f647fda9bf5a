package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Status describes the schema version of a database
type Status struct {
	Version uint
	Dirty   bool
	Applied bool // false when no migration has run yet
}

// RunMigrations applies all pending migrations to an open database.
// The caller keeps ownership of db.
func RunMigrations(db *sql.DB) error {
	m, source, err := getMigrate(db)
	if err != nil {
		return err
	}
	// Closing m would close db through the driver, so only the source is released
	defer source.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// MigrateUp opens the database at path and applies pending migrations
func MigrateUp(path string) (Status, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return Status{}, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		return Status{}, err
	}
	return version(db)
}

// MigrateDown rolls back the given number of migrations
func MigrateDown(path string, steps int) (Status, error) {
	if steps <= 0 {
		return Status{}, fmt.Errorf("steps must be positive, got %d", steps)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return Status{}, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	m, source, err := getMigrate(db)
	if err != nil {
		return Status{}, err
	}
	defer source.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return Status{}, fmt.Errorf("failed to rollback migrations: %w", err)
	}
	return version(db)
}

// MigrateStatus reports the current schema version of the database at path
func MigrateStatus(path string) (Status, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return Status{}, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return version(db)
}

func version(db *sql.DB) (Status, error) {
	m, source, err := getMigrate(db)
	if err != nil {
		return Status{}, err
	}
	defer source.Close()

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("failed to get migration version: %w", err)
	}
	return Status{Version: v, Dirty: dirty, Applied: true}, nil
}

type closer interface {
	Close() error
}

// getMigrate creates a migrate instance over the embedded sql files
func getMigrate(db *sql.DB) (*migrate.Migrate, closer, error) {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		sourceDriver.Close()
		return nil, nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, sourceDriver, nil
}
