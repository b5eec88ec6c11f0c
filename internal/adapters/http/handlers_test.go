package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/vehicle-tracker/internal/adapters/http"
	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
	"github.com/samirrijal/vehicle-tracker/internal/core/playback"
	"github.com/samirrijal/vehicle-tracker/internal/core/usecases"
)

// ---- Mock repository ----

type mockLocationRepo struct {
	listFn func(ctx context.Context) (domain.Route, error)
	pingFn func(ctx context.Context) error
}

func (m *mockLocationRepo) List(ctx context.Context) (domain.Route, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockLocationRepo) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

var hyderabad = domain.Route{
	{Latitude: 17.385044, Longitude: 78.486671, Timestamp: "2024-07-20T10:00:00Z"},
	{Latitude: 17.385200, Longitude: 78.486800, Timestamp: "2024-07-20T10:00:05Z"},
	{Latitude: 17.385350, Longitude: 78.486950, Timestamp: "2024-07-20T10:00:10Z"},
}

// ---- Helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func routeRepo(route domain.Route) *mockLocationRepo {
	return &mockLocationRepo{
		listFn: func(ctx context.Context) (domain.Route, error) { return route, nil },
	}
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Locations: usecases.NewLocationService(routeRepo(hyderabad), nil, 0, "file"),
		Pattern:   playback.DefaultPattern,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func withRepo(repo *mockLocationRepo) func(*handler.Dependencies) {
	return func(d *handler.Dependencies) {
		d.Locations = usecases.NewLocationService(repo, nil, 0, "file")
	}
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func decodeAPIError(t *testing.T, body io.Reader) handler.APIError {
	t.Helper()
	var apiErr handler.APIError
	if err := json.NewDecoder(body).Decode(&apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return apiErr
}

// ---- /api/vehicle-location ----

func TestVehicleLocation_Success(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/api/vehicle-location", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var got []domain.LocationRecord
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != len(hyderabad) {
		t.Fatalf("expected %d records, got %d", len(hyderabad), len(got))
	}
	for i := range got {
		if got[i] != hyderabad[i] {
			t.Errorf("record %d: expected %+v, got %+v", i, hyderabad[i], got[i])
		}
	}
}

func TestVehicleLocation_WireShape(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/vehicle-location", nil), -1)
	var raw []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"latitude", "longitude", "timestamp"} {
		if _, ok := raw[0][key]; !ok {
			t.Errorf("expected key %q in record", key)
		}
	}
	if len(raw[0]) != 3 {
		t.Errorf("expected exactly 3 keys, got %v", raw[0])
	}
}

func TestVehicleLocation_EmptyRoute(t *testing.T) {
	app := setupApp(makeDeps(withRepo(routeRepo(nil))))

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/vehicle-location", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body := strings.TrimSpace(string(readBody(t, resp.Body))); body != "[]" {
		t.Errorf("expected empty array, got %s", body)
	}
}

func TestVehicleLocation_SourceFailure(t *testing.T) {
	repo := &mockLocationRepo{
		listFn: func(ctx context.Context) (domain.Route, error) {
			return nil, errors.New("open data/locations.json: no such file or directory")
		},
	}
	app := setupApp(makeDeps(withRepo(repo)))

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/vehicle-location", nil), -1)
	if resp.StatusCode != 502 {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	apiErr := decodeAPIError(t, resp.Body)
	if apiErr.Code != "transport_error" {
		t.Errorf("expected code transport_error, got %q", apiErr.Code)
	}
	if apiErr.RequestID == "" {
		t.Error("expected a request ID on the error")
	}
	if strings.Contains(apiErr.Message, "no such file") {
		t.Errorf("source details leaked to client: %q", apiErr.Message)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected no-store on errors, got %q", cc)
	}
}

func TestVehicleLocation_MalformedRecord(t *testing.T) {
	bad := domain.Route{{Latitude: 123, Longitude: 78.48, Timestamp: "t0"}}
	app := setupApp(makeDeps(withRepo(routeRepo(bad))))

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/vehicle-location", nil), -1)
	if resp.StatusCode != 502 {
		t.Fatalf("expected 502 for malformed source, got %d", resp.StatusCode)
	}
}

// ---- /api/vehicle-location/geojson ----

func TestVehicleLocationGeoJSON(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/vehicle-location/geojson", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/geo+json") {
		t.Errorf("expected application/geo+json, got %q", ct)
	}

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		t.Fatal(err)
	}
	if fc.Type != "FeatureCollection" {
		t.Errorf("expected FeatureCollection, got %q", fc.Type)
	}
	kinds := map[string]int{}
	for _, f := range fc.Features {
		kinds[f.Geometry.Type]++
	}
	if kinds["LineString"] != 1 {
		t.Errorf("expected one LineString, got %d", kinds["LineString"])
	}
	// current + one arrow
	if kinds["Point"] != 2 {
		t.Errorf("expected 2 points, got %d", kinds["Point"])
	}
}

// ---- /api/vehicle-location/frame ----

func TestVehicleLocationFrame(t *testing.T) {
	app := setupApp(makeDeps())

	tests := []struct {
		query  string
		status int
		phase  domain.Phase
		cursor int
	}{
		{"", 200, domain.PhaseLoaded, 0},
		{"?cursor=1", 200, domain.PhaseAdvancing, 1},
		{"?cursor=2", 200, domain.PhaseCompleted, 2},
		{"?cursor=3", 400, "", 0},
		{"?cursor=-1", 400, "", 0},
	}

	for _, tt := range tests {
		t.Run("cursor"+tt.query, func(t *testing.T) {
			resp, _ := app.Test(httptest.NewRequest("GET", "/api/vehicle-location/frame"+tt.query, nil), -1)
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			if tt.status != 200 {
				if apiErr := decodeAPIError(t, resp.Body); apiErr.Code != "bad_request" {
					t.Errorf("expected bad_request, got %q", apiErr.Code)
				}
				return
			}

			var f domain.Frame
			if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
				t.Fatal(err)
			}
			if f.Phase != tt.phase {
				t.Errorf("expected phase %s, got %s", tt.phase, f.Phase)
			}
			if f.Cursor != tt.cursor {
				t.Errorf("expected cursor %d, got %d", tt.cursor, f.Cursor)
			}
			if len(f.FullPath) != 3 {
				t.Errorf("expected full path of 3, got %d", len(f.FullPath))
			}
			if f.Current == nil || *f.Current != hyderabad[tt.cursor] {
				t.Errorf("expected current %+v, got %+v", hyderabad[tt.cursor], f.Current)
			}
			if len(f.DirectionalMarkers) != 1 {
				t.Errorf("expected 1 directional marker, got %d", len(f.DirectionalMarkers))
			}
		})
	}
}

func TestVehicleLocationFrame_EmptyRoute(t *testing.T) {
	app := setupApp(makeDeps(withRepo(routeRepo(nil))))

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/vehicle-location/frame", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var f domain.Frame
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		t.Fatal(err)
	}
	if f.Current != nil {
		t.Errorf("empty route must not expose a current record, got %+v", f.Current)
	}
	if len(f.FullPath) != 0 || len(f.DirectionalMarkers) != 0 {
		t.Errorf("expected nothing to draw, got %+v", f)
	}
}

// ---- Health & readiness ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", body["status"])
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name   string
		deps   *handler.Dependencies
		status int
		source string
	}{
		{"source ok", makeDeps(), 200, "ok (file)"},
		{
			"source down",
			makeDeps(withRepo(&mockLocationRepo{
				pingFn: func(ctx context.Context) error { return errors.New("stat data/locations.json: no such file") },
			})),
			503, "error: stat data/locations.json: no such file",
		},
		{
			"no source",
			makeDeps(func(d *handler.Dependencies) { d.Locations = nil }),
			503, "not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(tt.deps)
			resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Checks["source"] != tt.source {
				t.Errorf("expected source check %q, got %q", tt.source, body.Checks["source"])
			}
			if body.Checks["nats"] != "not configured" || body.Checks["cache"] != "not configured" {
				t.Errorf("optional backends should be reported as not configured: %v", body.Checks)
			}
		})
	}
}

// ---- GraphQL ----

func postGraphQL(t *testing.T, app *fiber.App, query string) map[string]any {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"query": query})
	req := httptest.NewRequest("POST", "/graphql", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	return result
}

func TestGraphQL_Route(t *testing.T) {
	app := setupApp(makeDeps())

	result := postGraphQL(t, app, `{ route { latitude longitude timestamp } }`)
	if result["errors"] != nil {
		t.Fatalf("unexpected errors: %v", result["errors"])
	}
	route := result["data"].(map[string]any)["route"].([]any)
	if len(route) != 3 {
		t.Fatalf("expected 3 records, got %d", len(route))
	}
	first := route[0].(map[string]any)
	if first["timestamp"] != "2024-07-20T10:00:00Z" {
		t.Errorf("expected first timestamp, got %v", first["timestamp"])
	}
}

func TestGraphQL_Frame(t *testing.T) {
	app := setupApp(makeDeps())

	result := postGraphQL(t, app, `{ frame(cursor: 2) { phase cursor total current { latitude } full_path { lat lon } directional_markers { bearing segment } } }`)
	if result["errors"] != nil {
		t.Fatalf("unexpected errors: %v", result["errors"])
	}
	frame := result["data"].(map[string]any)["frame"].(map[string]any)
	if frame["phase"] != "completed" {
		t.Errorf("expected completed, got %v", frame["phase"])
	}
	if frame["cursor"].(float64) != 2 || frame["total"].(float64) != 3 {
		t.Errorf("unexpected cursor/total: %v/%v", frame["cursor"], frame["total"])
	}
	if len(frame["full_path"].([]any)) != 3 {
		t.Errorf("expected full path of 3")
	}
	if len(frame["directional_markers"].([]any)) != 1 {
		t.Errorf("expected 1 marker")
	}
}

func TestGraphQL_FrameOutOfRange(t *testing.T) {
	app := setupApp(makeDeps())

	result := postGraphQL(t, app, `{ frame(cursor: 9) { cursor } }`)
	if result["errors"] == nil {
		t.Fatal("expected an error for an out of range cursor")
	}
}

func TestGraphQL_InvalidBody(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/graphql", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Middleware ----

func TestSecurityHeaders(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.Header.Get("X-API-Version") != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", resp.Header.Get("X-API-Version"))
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected nosniff")
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected a request ID header")
	}
}

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/vehicle-location", nil), -1)
	etag := resp.Header.Get("ETag")
	if !strings.HasPrefix(etag, `W/"`) {
		t.Fatalf("expected weak ETag, got %q", etag)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=30" {
		t.Errorf("expected route cache header, got %q", cc)
	}

	req := httptest.NewRequest("GET", "/api/vehicle-location", nil)
	req.Header.Set("If-None-Match", `"other", `+etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Fatalf("expected 304, got %d", resp.StatusCode)
	}
	if len(readBody(t, resp.Body)) != 0 {
		t.Error("304 must not carry a body")
	}
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	app := setupApp(makeDeps())

	for _, path := range []string{"/ws", "/ws/playback"} {
		resp, _ := app.Test(httptest.NewRequest("GET", path, nil), -1)
		if resp.StatusCode != fiber.StatusUpgradeRequired {
			t.Errorf("%s: expected 426, got %d", path, resp.StatusCode)
		}
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	app := setupApp(makeDeps())
	app.Test(httptest.NewRequest("GET", "/api/vehicle-location", nil), -1)

	var entry map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var e map[string]any
		if json.Unmarshal(line, &e) == nil && e["msg"] == "http request" {
			entry = e
		}
	}
	if entry == nil {
		t.Fatalf("no access log line in %s", buf.String())
	}
	if entry["path"] != "/api/vehicle-location" {
		t.Errorf("expected path, got %v", entry["path"])
	}
	if entry["status"].(float64) != 200 {
		t.Errorf("expected status 200, got %v", entry["status"])
	}
	if entry["request_id"] == nil || entry["request_id"] == "" {
		t.Error("expected request_id in access log")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := setupApp(makeDeps())
	app.Test(httptest.NewRequest("GET", "/api/vehicle-location", nil), -1)

	resp, _ := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(readBody(t, resp.Body)), "vehicletrack_route_fetches_total") {
		t.Error("expected route fetch counter in scrape")
	}
}
