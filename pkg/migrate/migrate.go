// Package migrate applies versioned SQL migrations to a SQLite database and
// records the applied version in a tracking table.
package migrate

import (
	"database/sql"
	"fmt"
	"sort"
)

// Migration is one numbered schema change
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// DB represents either a database connection or transaction
type DB interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Source supplies migrations
type Source interface {
	Migrations() ([]Migration, error)
}

// Migrator handles the execution of migrations
type Migrator struct {
	db     *sql.DB
	source Source
	table  string
}

// NewMigrator creates a migrator tracking versions in table, or in
// schema_migrations when table is empty
func NewMigrator(db *sql.DB, source Source, table string) *Migrator {
	if table == "" {
		table = "schema_migrations"
	}
	return &Migrator{db: db, source: source, table: table}
}

// MigrateUp applies every pending migration and returns the ones it ran
func (m *Migrator) MigrateUp() ([]Migration, error) {
	return m.MigrateTo(-1)
}

// MigrateTo moves the schema up or down to targetVersion. -1 means the latest
// migration.
func (m *Migrator) MigrateTo(targetVersion int) ([]Migration, error) {
	current, err := m.CurrentVersion()
	if err != nil {
		return nil, err
	}

	migrations, err := m.sorted()
	if err != nil {
		return nil, err
	}

	if targetVersion == -1 {
		targetVersion = 0
		if len(migrations) > 0 {
			targetVersion = migrations[len(migrations)-1].Version
		}
	}

	var applied []Migration
	if targetVersion >= current {
		for _, mg := range migrations {
			if mg.Version > current && mg.Version <= targetVersion {
				if err := m.execute(mg, true); err != nil {
					return applied, fmt.Errorf("failed to apply migration %d: %w", mg.Version, err)
				}
				applied = append(applied, mg)
			}
		}
		return applied, nil
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		mg := migrations[i]
		if mg.Version > targetVersion && mg.Version <= current {
			if err := m.execute(mg, false); err != nil {
				return applied, fmt.Errorf("failed to roll back migration %d: %w", mg.Version, err)
			}
			applied = append(applied, mg)
		}
	}
	return applied, nil
}

// CurrentVersion returns the highest applied version, creating the tracking
// table if needed
func (m *Migrator) CurrentVersion() (int, error) {
	_, err := m.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version    INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`, m.table))
	if err != nil {
		return 0, fmt.Errorf("failed to create migration table: %w", err)
	}

	var version int
	if err := m.db.QueryRow(fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", m.table)).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

// Pending returns the migrations above the current version
func (m *Migrator) Pending() ([]Migration, error) {
	current, err := m.CurrentVersion()
	if err != nil {
		return nil, err
	}
	migrations, err := m.sorted()
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, mg := range migrations {
		if mg.Version > current {
			pending = append(pending, mg)
		}
	}
	return pending, nil
}

func (m *Migrator) sorted() ([]Migration, error) {
	migrations, err := m.source.Migrations()
	if err != nil {
		return nil, fmt.Errorf("failed to get migrations: %w", err)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// execute runs one migration and its version bookkeeping in a transaction
func (m *Migrator) execute(mg Migration, up bool) error {
	stmt, direction := mg.Up, "up"
	if !up {
		stmt, direction = mg.Down, "down"
	}
	if stmt == "" {
		return fmt.Errorf("migration %d has no %s SQL", mg.Version, direction)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(stmt); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	if err := m.setVersion(tx, mg.Version, up); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration transaction: %w", err)
	}
	return nil
}

func (m *Migrator) setVersion(db DB, version int, up bool) error {
	var err error
	if up {
		_, err = db.Exec(fmt.Sprintf(`INSERT OR REPLACE INTO %s (version, applied_at) VALUES (?, CURRENT_TIMESTAMP)`, m.table), version)
	} else {
		_, err = db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE version >= ?`, m.table), version)
	}
	if err != nil {
		return fmt.Errorf("failed to set version: %w", err)
	}
	return nil
}
