// Package sqlite stores the route in a single-file SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS vehicle_locations (
    seq         INTEGER PRIMARY KEY,
    latitude    REAL NOT NULL CHECK (latitude BETWEEN -90 AND 90),
    longitude   REAL NOT NULL CHECK (longitude BETWEEN -180 AND 180),
    recorded_at TEXT NOT NULL DEFAULT ''
)`

// Store implements ports.LocationRepository and ports.LocationWriter.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable wal: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) List(ctx context.Context) (domain.Route, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT latitude, longitude, recorded_at
		FROM vehicle_locations ORDER BY seq
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	route := domain.Route{}
	for rows.Next() {
		var rec domain.LocationRecord
		if err := rows.Scan(&rec.Latitude, &rec.Longitude, &rec.Timestamp); err != nil {
			return nil, err
		}
		route = append(route, rec)
	}
	return route, rows.Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ReplaceAll swaps the stored route in one transaction.
func (s *Store) ReplaceAll(ctx context.Context, route domain.Route) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vehicle_locations`); err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vehicle_locations (seq, latitude, longitude, recorded_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range route {
		if _, err := stmt.ExecContext(ctx, i, rec.Latitude, rec.Longitude, rec.Timestamp); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
