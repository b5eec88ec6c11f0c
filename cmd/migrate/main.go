package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/vehicle-tracker/internal/adapters/filestore"
	"github.com/samirrijal/vehicle-tracker/internal/adapters/source"
	"github.com/samirrijal/vehicle-tracker/internal/adapters/valkey"
	"github.com/samirrijal/vehicle-tracker/internal/core/usecases"
	"github.com/samirrijal/vehicle-tracker/internal/pkg/config"
	"github.com/samirrijal/vehicle-tracker/internal/pkg/logging"
	"github.com/samirrijal/vehicle-tracker/internal/pkg/validation"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|seed [file]>")
	}

	cfg, err := config.Load("vehicle-tracker-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, "text")

	ctx := context.Background()

	switch os.Args[1] {
	case "up":
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer pool.Close()
		runMigrations(ctx, pool)
	case "seed":
		file := cfg.Source.DataFile
		if len(os.Args) > 2 {
			file = os.Args[2]
		}
		seed(ctx, cfg, file)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) {
	files, err := filepath.Glob("migrations/postgres/*.sql")
	if err != nil || len(files) == 0 {
		log.Fatalf("no migrations found in migrations/postgres")
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		_, err = pool.Exec(ctx, string(data))
		if err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	log.Println("all migrations applied")
}

// seed copies the route in file into the configured source and drops the
// cached copy so the API serves the new route immediately.
func seed(ctx context.Context, cfg *config.Config, file string) {
	route, err := filestore.New(file).List(ctx)
	if err != nil {
		log.Fatalf("read %s: %v", file, err)
	}
	if err := validation.Each(route); err != nil {
		log.Fatalf("invalid route in %s: %v", file, err)
	}

	if cfg.Source.Kind == config.SourceFile {
		abs, _ := filepath.Abs(file)
		target, _ := filepath.Abs(cfg.Source.DataFile)
		if abs == target {
			slog.Info("file source already points at the seed file, nothing to copy", "file", file)
			return
		}
	}

	store, closeStore, err := source.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("route source: %v", err)
	}
	defer closeStore()

	if err := store.ReplaceAll(ctx, route); err != nil {
		log.Fatalf("seed %s: %v", cfg.Source.Kind, err)
	}
	slog.Info("route seeded", "source", cfg.Source.Kind, "records", len(route), "file", file)

	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, cached route left to expire", "error", err)
		return
	}
	defer cache.Close()

	svc := usecases.NewLocationService(store, cache, cfg.Source.CacheTTL, cfg.Source.Kind)
	if err := svc.Invalidate(ctx); err != nil {
		slog.Warn("route cache invalidation failed", "error", err)
	}
}
