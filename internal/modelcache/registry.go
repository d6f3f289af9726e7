package modelcache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current registry schema version.
const schemaVersion = 1

// RegistryFileName is the SQLite file stored at the cache root.
const RegistryFileName = "registry.db"

// ErrSchemaMismatch indicates the registry was written by an incompatible version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Entry describes one populated model.
type Entry struct {
	Name        string    `json:"name"`
	Source      string    `json:"source"`
	Dir         string    `json:"dir"`
	PopulatedAt time.Time `json:"populated_at"`
	LastUsedAt  time.Time `json:"last_used_at"`
	Uses        int       `json:"uses"`
}

// Registry persists cache bookkeeping in SQLite.
type Registry struct {
	db   *sql.DB
	path string
}

// OpenRegistry opens or creates the registry database at path.
func OpenRegistry(path string) (*Registry, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	registry := &Registry{db: db, path: path}
	if err := registry.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return registry, nil
}

// Path returns the database file location.
func (r *Registry) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}

// Close closes the underlying database connection.
func (r *Registry) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Registry) initSchema(ctx context.Context) error {
	var tableExists int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return r.createSchema(ctx)
	}

	var version int
	if err := r.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: registry has version %d, expected %d (run 'accentscope cache clear')",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (r *Registry) createSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Get returns the entry for name, or nil when the model has never been used.
func (r *Registry) Get(ctx context.Context, name string) (*Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT name, source, dir, populated_at, last_used_at, uses FROM models WHERE name = ?`, name)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get model %s: %w", name, err)
	}
	return entry, nil
}

// Touch records a use of name, inserting the row on first use.
func (r *Registry) Touch(ctx context.Context, name, source, dir string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO models (name, source, dir, populated_at, last_used_at, uses)
         VALUES (?, ?, ?, ?, ?, 1)
         ON CONFLICT(name) DO UPDATE SET
             source = excluded.source,
             dir = excluded.dir,
             last_used_at = excluded.last_used_at,
             uses = models.uses + 1`,
		name, source, dir, now, now,
	)
	if err != nil {
		return fmt.Errorf("touch model %s: %w", name, err)
	}
	return nil
}

// List returns every registered model ordered by name.
func (r *Registry) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, source, dir, populated_at, last_used_at, uses FROM models ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Reset deletes every registered model.
func (r *Registry) Reset(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM models"); err != nil {
		return fmt.Errorf("reset registry: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		entry       Entry
		populatedAt string
		lastUsedAt  string
	)
	if err := row.Scan(&entry.Name, &entry.Source, &entry.Dir, &populatedAt, &lastUsedAt, &entry.Uses); err != nil {
		return nil, err
	}
	entry.PopulatedAt = parseTime(populatedAt)
	entry.LastUsedAt = parseTime(lastUsedAt)
	return &entry, nil
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
