// Package sqlite provides a SQLite-backed carrier store. The UNIQUE
// constraint on the name column is what makes concurrent creates with the
// same name mutually exclusive.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/delivro/rateshop/pkg/carrier"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const timeFormat = time.RFC3339Nano

// Store implements carrier.Store on a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a SQLite store at the provided path and
// applies pending migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// A single connection serializes writers so racing inserts surface the
	// UNIQUE violation instead of SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// List returns all carriers ordered ascending by name.
func (s *Store) List(ctx context.Context) ([]carrier.Carrier, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, price_cents, created_at, updated_at FROM carriers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list carriers: %w", err)
	}
	defer rows.Close()

	var out []carrier.Carrier
	for rows.Next() {
		c, err := scanCarrier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Insert persists a new carrier. The UNIQUE(name) constraint surfaces
// concurrent duplicates as carrier.ErrDuplicateName.
func (s *Store) Insert(ctx context.Context, c carrier.Carrier) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO carriers (id, name, price_cents, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.PricePerParcel,
		c.CreatedAt.UTC().Format(timeFormat),
		c.UpdatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", carrier.ErrDuplicateName, c.Name)
		}
		return fmt.Errorf("insert carrier: %w", err)
	}
	return nil
}

// UpdatePrice updates the named carrier and returns the new row, or nil when
// no carrier matched.
func (s *Store) UpdatePrice(ctx context.Context, name string, price int64, updatedAt time.Time) (*carrier.Carrier, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE carriers SET price_cents = ?, updated_at = ? WHERE name = ?
		 RETURNING id, name, price_cents, created_at, updated_at`,
		price, updatedAt.UTC().Format(timeFormat), name,
	)
	c, err := scanCarrier(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update carrier: %w", err)
	}
	return &c, nil
}

// Delete removes the named carrier, reporting whether a row was deleted.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM carriers WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete carrier: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete carrier: %w", err)
	}
	return affected > 0, nil
}

// Count returns the number of stored carriers.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM carriers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count carriers: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCarrier(row rowScanner) (carrier.Carrier, error) {
	var c carrier.Carrier
	var createdAt, updatedAt string
	if err := row.Scan(&c.ID, &c.Name, &c.PricePerParcel, &createdAt, &updatedAt); err != nil {
		return carrier.Carrier{}, err
	}

	var err error
	if c.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return carrier.Carrier{}, fmt.Errorf("parse created_at: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return carrier.Carrier{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return c, nil
}

// isUniqueViolation signals that the error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	var serr *sqlitedrv.Error
	if !errors.As(err, &serr) {
		return false
	}
	code := serr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

var _ carrier.Store = (*Store)(nil)
