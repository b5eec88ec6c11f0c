package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
	"github.com/samirrijal/vehicle-tracker/internal/core/playback"
	"github.com/samirrijal/vehicle-tracker/internal/core/ports"
	"github.com/samirrijal/vehicle-tracker/internal/pkg/metrics"
	"github.com/samirrijal/vehicle-tracker/internal/pkg/telemetry"
	"github.com/samirrijal/vehicle-tracker/internal/pkg/validation"
)

// RouteCacheKey holds the encoded route in the cache.
const RouteCacheKey = "vehicle-location:route"

// LocationService serves the stored route. It implements ports.LocationProvider.
type LocationService struct {
	repo     ports.LocationRepository
	cache    ports.CacheService
	cacheTTL int
	source   string
}

// NewLocationService creates a LocationService. cache may be nil; a
// cacheTTL of 0 disables caching. source labels metrics and errors
// ("file", "sqlite", "postgres").
func NewLocationService(repo ports.LocationRepository, cache ports.CacheService, cacheTTL int, source string) *LocationService {
	if cacheTTL <= 0 {
		cache = nil
	}
	return &LocationService{repo: repo, cache: cache, cacheTTL: cacheTTL, source: source}
}

// FetchRoute returns the complete, validated route. Any failure to read or
// validate the source is a *domain.TransportError; nothing partial is returned.
func (s *LocationService) FetchRoute(ctx context.Context) (domain.Route, error) {
	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, telemetry.SpanFetchRoute)
	defer span.End()
	span.SetAttributes(attribute.String("route.source", s.source))

	start := time.Now()
	route, err := s.fetch(ctx)
	metrics.ObserveFetch(s.source, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("route.records", len(route)))
	return route, nil
}

func (s *LocationService) fetch(ctx context.Context) (domain.Route, error) {
	if route, ok := s.cached(ctx); ok {
		return route, nil
	}

	route, err := s.repo.List(ctx)
	if err != nil {
		return nil, &domain.TransportError{Op: "read", URL: s.source, Err: err}
	}
	if route == nil {
		route = domain.Route{}
	}
	if err := validation.Each(route); err != nil {
		return nil, &domain.TransportError{Op: "decode", URL: s.source, Err: fmt.Errorf("malformed record: %w", err)}
	}

	if s.cache != nil {
		if data, err := json.Marshal(route); err == nil {
			if err := s.cache.Set(ctx, RouteCacheKey, data, s.cacheTTL); err != nil {
				slog.WarnContext(ctx, "route cache write failed", "error", err)
			}
		}
	}
	return route, nil
}

func (s *LocationService) cached(ctx context.Context) (domain.Route, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, RouteCacheKey)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			slog.WarnContext(ctx, "route cache read failed", "error", err)
		}
		metrics.CacheMisses.WithLabelValues("route").Inc()
		return nil, false
	}
	var route domain.Route
	if err := json.Unmarshal(data, &route); err != nil || route == nil {
		metrics.CacheMisses.WithLabelValues("route").Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("route").Inc()
	return route, true
}

// Preview renders the route as a playback would show it right after load.
func (s *LocationService) Preview(ctx context.Context, p playback.Pattern) (domain.Frame, error) {
	route, err := s.FetchRoute(ctx)
	if err != nil {
		return domain.Frame{}, err
	}
	st := playback.NewState()
	st.Load(route)
	return st.Frame(p), nil
}

// Invalidate drops the cached route so the next fetch reads the source.
func (s *LocationService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, RouteCacheKey)
}

// Ping checks the backing repository.
func (s *LocationService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Source names the configured route source.
func (s *LocationService) Source() string { return s.source }
