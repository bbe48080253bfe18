package config

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
	_ "modernc.org/sqlite"

	"github.com/chrissnell/careforecast/pkg/migrate"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrUnknownTunable is returned for an override path that names no setting
var ErrUnknownTunable = errors.New("unknown tunable")

// Tunable is one stored override. Path is a dotted YAML key path such as
// forecast.watering.ewma_alpha and Value is a YAML document for that node.
type Tunable struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}

// TunableChange is one entry of a tunable's change history
type TunableChange struct {
	Path      string    `json:"path"`
	Value     *string   `json:"value"`
	ChangedAt time.Time `json:"changedAt"`
}

// SQLiteProvider implements ConfigProvider over a table of tunable overrides
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// InitSchema brings the database schema up to date
func (s *SQLiteProvider) InitSchema() error {
	m := migrate.NewMigrator(s.db, migrate.NewFSSource(migrations, "migrations"), "")
	if _, err := m.MigrateUp(); err != nil {
		return fmt.Errorf("failed to migrate config database: %w", err)
	}
	return nil
}

// LoadConfig applies every stored override to the defaults
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	return loadTunables(s.db)
}

// Tunables returns every stored override ordered by path
func (s *SQLiteProvider) Tunables() ([]Tunable, error) {
	return queryTunables(s.db)
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

func queryTunables(q querier) ([]Tunable, error) {
	rows, err := q.Query(`SELECT path, value FROM tunables ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tunables: %w", err)
	}
	defer rows.Close()

	tunables := []Tunable{}
	for rows.Next() {
		var t Tunable
		if err := rows.Scan(&t.Path, &t.Value); err != nil {
			return nil, fmt.Errorf("failed to scan tunable row: %w", err)
		}
		tunables = append(tunables, t)
	}
	return tunables, rows.Err()
}

func loadTunables(q querier) (*ConfigData, error) {
	tunables, err := queryTunables(q)
	if err != nil {
		return nil, err
	}

	overrides := map[interface{}]interface{}{}
	for _, t := range tunables {
		if err := checkPath(t.Path); err != nil {
			return nil, err
		}
		var v interface{}
		if err := yaml.Unmarshal([]byte(t.Value), &v); err != nil {
			return nil, fmt.Errorf("failed to parse tunable %s: %w", t.Path, err)
		}
		setPath(overrides, strings.Split(t.Path, "."), v)
	}

	data, err := yaml.Marshal(overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to merge tunables: %w", err)
	}
	return parseYAML(data)
}

// SetTunable stores an override after checking that path names a setting and
// that the result still validates
func (s *SQLiteProvider) SetTunable(path, value string) error {
	if err := checkPath(path); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO tunables (path, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, path, value)
	if err != nil {
		return fmt.Errorf("failed to store tunable %s: %w", path, err)
	}
	if err := recordHistory(tx, path, &value); err != nil {
		return err
	}

	// Load through the transaction so a bad value never gets committed
	if _, err := loadTunables(tx); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteTunable removes an override, restoring the default
func (s *SQLiteProvider) DeleteTunable(path string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM tunables WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("failed to delete tunable %s: %w", path, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s not set", ErrUnknownTunable, path)
	}
	if err := recordHistory(tx, path, nil); err != nil {
		return err
	}

	return tx.Commit()
}

// History returns the changes made to path, oldest first. A nil Value marks
// a deletion.
func (s *SQLiteProvider) History(path string) ([]TunableChange, error) {
	rows, err := s.db.Query(`SELECT value, changed_at FROM tunable_history WHERE path = ? ORDER BY id`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to query tunable history: %w", err)
	}
	defer rows.Close()

	changes := []TunableChange{}
	for rows.Next() {
		var value sql.NullString
		c := TunableChange{Path: path}
		if err := rows.Scan(&value, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tunable history row: %w", err)
		}
		if value.Valid {
			c.Value = &value.String
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

func recordHistory(tx *sql.Tx, path string, value *string) error {
	if _, err := tx.Exec(`INSERT INTO tunable_history (path, value) VALUES (?, ?)`, path, value); err != nil {
		return fmt.Errorf("failed to record tunable history: %w", err)
	}
	return nil
}

// IsReadOnly returns false since SQLite supports write operations
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// checkPath reports whether path resolves to a node of the default
// configuration
func checkPath(path string) error {
	defaults, err := yaml.Marshal(DefaultConfigData())
	if err != nil {
		return err
	}
	var node interface{}
	if err := yaml.Unmarshal(defaults, &node); err != nil {
		return err
	}

	for _, key := range strings.Split(path, ".") {
		m, ok := node.(map[interface{}]interface{})
		if !ok || key == "" {
			return fmt.Errorf("%w: %s", ErrUnknownTunable, path)
		}
		if node, ok = m[key]; !ok {
			return fmt.Errorf("%w: %s (want one of %s)", ErrUnknownTunable, path, strings.Join(keys(m), ", "))
		}
	}
	return nil
}

func setPath(m map[interface{}]interface{}, keys []string, v interface{}) {
	for _, key := range keys[:len(keys)-1] {
		next, ok := m[key].(map[interface{}]interface{})
		if !ok {
			next = map[interface{}]interface{}{}
			m[key] = next
		}
		m = next
	}
	m[keys[len(keys)-1]] = v
}

func keys(m map[interface{}]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, fmt.Sprint(k))
	}
	sort.Strings(out)
	return out
}
