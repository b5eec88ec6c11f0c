package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
)

// LocationRepo implements ports.LocationRepository and ports.LocationWriter.
type LocationRepo struct {
	db *DB
}

func NewLocationRepo(db *DB) *LocationRepo {
	return &LocationRepo{db: db}
}

func (r *LocationRepo) List(ctx context.Context) (domain.Route, error) {
	rows, err := r.db.Pool.Query(ctx, `
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

func (r *LocationRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// ReplaceAll swaps the stored route in one transaction.
func (r *LocationRepo) ReplaceAll(ctx context.Context, route domain.Route) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM vehicle_locations`); err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	rows := make([][]any, len(route))
	for i, rec := range route {
		rows[i] = []any{int64(i), rec.Latitude, rec.Longitude, rec.Timestamp}
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"vehicle_locations"},
		[]string{"seq", "latitude", "longitude", "recorded_at"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("copy: %w", err)
	}

	return tx.Commit(ctx)
}
