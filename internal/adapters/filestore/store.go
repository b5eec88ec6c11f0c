// Package filestore reads the route from a JSON file, the format served
// verbatim by GET /api/vehicle-location.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
)

// Store implements ports.LocationRepository and ports.LocationWriter.
// The file is re-read on every List so edits show up without a restart.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) List(ctx context.Context) (domain.Route, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	var route domain.Route
	if err := json.Unmarshal(data, &route); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if route == nil {
		route = domain.Route{}
	}
	return route, nil
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := os.Stat(s.path)
	return err
}

// ReplaceAll writes route to a temp file and renames it over the original.
func (s *Store) ReplaceAll(ctx context.Context, route domain.Route) error {
	if route == nil {
		route = domain.Route{}
	}
	data, err := json.MarshalIndent(route, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".locations-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }
