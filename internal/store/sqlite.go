package store

import (
	"context"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"

	"github.com/nhle/newsletter-manager/internal/catalog"
	"github.com/nhle/newsletter-manager/internal/logging"
	"github.com/nhle/newsletter-manager/internal/model"
)

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction("casefold", 1, casefold); err != nil {
		panic(fmt.Sprintf("registering casefold: %v", err))
	}
}

// casefold exposes catalog.FoldCase to SQL so stored searches fold case the
// same way in-memory searches do.
func casefold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return catalog.FoldCase(v), nil
	case []byte:
		return catalog.FoldCase(string(v)), nil
	default:
		return catalog.FoldCase(fmt.Sprint(v)), nil
	}
}

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db   *sqlx.DB
	lock *flock.Flock
}

var _ Store = (*SQLiteStore)(nil)

// Open takes the single-writer lock next to dbPath and opens the database.
// It returns ErrLocked when another process holds the lock.
func Open(dbPath string) (*SQLiteStore, error) {
	if dbPath == MemoryPath {
		return NewSQLiteStore(dbPath)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	lock := flock.New(dbPath + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring lock for %s: %w", dbPath, err)
	}
	if !ok {
		return nil, fmt.Errorf("opening %s: %w", dbPath, ErrLocked)
	}

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	s.lock = lock
	return s, nil
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Every pooled connection to :memory: would see its own empty database.
	if dbPath == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection and releases the lock.
func (s *SQLiteStore) Close() error {
	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = fmt.Errorf("releasing lock: %w", unlockErr)
		}
	}
	return err
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
		logging.Log.WithField("version", m.version).Debug("applied schema migration")
	}

	return nil
}

// Rows returns the stored collection in tabular form, the shape the record
// model normalizes.
func (s *SQLiteStore) Rows(ctx context.Context) ([]model.Row, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT number, title, subject, body FROM records ORDER BY number",
	)
	if err != nil {
		return nil, fmt.Errorf("querying rows: %w", err)
	}
	defer rows.Close()

	var out []model.Row
	for rows.Next() {
		var number int
		var title, subject, body string
		if err := rows.Scan(&number, &title, &subject, &body); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, model.Row{
			model.ColNumber:  strconv.Itoa(number),
			model.ColTitle:   title,
			model.ColSubject: subject,
			model.ColBody:    body,
		})
	}

	return out, rows.Err()
}

// LogActivity appends an entry to the activity log and drops entries
// beyond the newest model.MaxActivityEntries.
func (s *SQLiteStore) LogActivity(
	ctx context.Context,
	action, details string,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO activity (id, action, details, created_at) VALUES (?, ?, ?, ?)",
		uuid.New().String(), action, details, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("logging activity %q: %w", action, err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM activity WHERE rowid NOT IN (
			SELECT rowid FROM activity ORDER BY rowid DESC LIMIT ?
		)`,
		model.MaxActivityEntries,
	)
	if err != nil {
		return fmt.Errorf("trimming activity log: %w", err)
	}

	return tx.Commit()
}

// RecentActivity returns up to limit entries, newest first. A non-positive
// limit returns every retained entry.
func (s *SQLiteStore) RecentActivity(
	ctx context.Context,
	limit int,
) ([]model.Activity, error) {
	if limit <= 0 || limit > model.MaxActivityEntries {
		limit = model.MaxActivityEntries
	}

	var entries []model.Activity
	err := s.db.SelectContext(ctx, &entries,
		"SELECT id, action, details, created_at FROM activity ORDER BY rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	return entries, nil
}
