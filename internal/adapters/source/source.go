// Package source opens the configured route store.
package source

import (
	"context"
	"fmt"

	"github.com/samirrijal/vehicle-tracker/internal/adapters/filestore"
	"github.com/samirrijal/vehicle-tracker/internal/adapters/postgres"
	"github.com/samirrijal/vehicle-tracker/internal/adapters/sqlite"
	"github.com/samirrijal/vehicle-tracker/internal/core/ports"
	"github.com/samirrijal/vehicle-tracker/internal/pkg/config"
)

// Store reads and replaces the stored route.
type Store interface {
	ports.LocationRepository
	ports.LocationWriter
}

// Open returns the store selected by cfg.Source.Kind and a function that
// releases it.
func Open(ctx context.Context, cfg *config.Config) (Store, func(), error) {
	switch cfg.Source.Kind {
	case config.SourceFile:
		return filestore.New(cfg.Source.DataFile), func() {}, nil

	case config.SourceSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite: %w", err)
		}
		return s, func() { _ = s.Close() }, nil

	case config.SourcePostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		return postgres.NewLocationRepo(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}
