package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkordes/travel-diary/internal/domain"
	"github.com/pkordes/travel-diary/internal/handler"
	"github.com/pkordes/travel-diary/internal/service"
	"github.com/pkordes/travel-diary/internal/tilecache"
	"github.com/pkordes/travel-diary/internal/viewport"
)

// mockCoordinator is a test double for handler.Coordinator.
// Set only the method fields your test needs.
type mockCoordinator struct {
	online       func(ctx context.Context) bool
	loadMarkers  func(ctx context.Context) (service.MarkerList, error)
	getMarker    func(ctx context.Context, id string) (domain.Marker, error)
	saveMarker   func(ctx context.Context, m domain.Marker) (domain.Marker, error)
	deleteMarker func(ctx context.Context, id string) error
	createTrip   func(ctx context.Context, d service.TripDraft) (domain.Trip, error)
	loadTrips    func(ctx context.Context, o service.SortOrder) (service.TripList, error)
	getTrip      func(ctx context.Context, id string) (domain.Trip, error)
	tripMarkers  func(ctx context.Context, id string) ([]domain.Marker, error)
	tripImages   func(ctx context.Context, id string) ([]string, error)
	deleteTrip   func(ctx context.Context, id string) error
	export       func(ctx context.Context) ([]domain.ExportRow, error)
}

func (m *mockCoordinator) Online(ctx context.Context) bool { return m.online(ctx) }
func (m *mockCoordinator) LoadMarkersForUser(ctx context.Context) (service.MarkerList, error) {
	return m.loadMarkers(ctx)
}
func (m *mockCoordinator) GetMarker(ctx context.Context, id string) (domain.Marker, error) {
	return m.getMarker(ctx, id)
}
func (m *mockCoordinator) SaveMarker(ctx context.Context, d domain.Marker) (domain.Marker, error) {
	return m.saveMarker(ctx, d)
}
func (m *mockCoordinator) DeleteMarker(ctx context.Context, id string) error {
	return m.deleteMarker(ctx, id)
}
func (m *mockCoordinator) CreateTrip(ctx context.Context, d service.TripDraft) (domain.Trip, error) {
	return m.createTrip(ctx, d)
}
func (m *mockCoordinator) LoadTrips(ctx context.Context, o service.SortOrder) (service.TripList, error) {
	return m.loadTrips(ctx, o)
}
func (m *mockCoordinator) GetTrip(ctx context.Context, id string) (domain.Trip, error) {
	return m.getTrip(ctx, id)
}
func (m *mockCoordinator) TripMarkers(ctx context.Context, id string) ([]domain.Marker, error) {
	return m.tripMarkers(ctx, id)
}
func (m *mockCoordinator) TripImages(ctx context.Context, id string) ([]string, error) {
	return m.tripImages(ctx, id)
}
func (m *mockCoordinator) DeleteTrip(ctx context.Context, id string) error {
	return m.deleteTrip(ctx, id)
}
func (m *mockCoordinator) Export(ctx context.Context) ([]domain.ExportRow, error) {
	return m.export(ctx)
}

// mockTileCache is a test double for handler.TileCache.
type mockTileCache struct {
	cacheTile func(ctx context.Context, t domain.TileAddress) (bool, error)
	load      func() ([]tilecache.TileData, error)
	clear     func() (int, error)
	prefetch  func(ctx context.Context, r domain.Region, zoom int) (tilecache.PrefetchResult, error)
	stats     func() (tilecache.Stats, error)
}

func (m *mockTileCache) CacheTile(ctx context.Context, t domain.TileAddress) (bool, error) {
	return m.cacheTile(ctx, t)
}
func (m *mockTileCache) LoadCachedTiles() ([]tilecache.TileData, error) { return m.load() }
func (m *mockTileCache) ClearCache() (int, error)                       { return m.clear() }
func (m *mockTileCache) Prefetch(ctx context.Context, r domain.Region, zoom int) (tilecache.PrefetchResult, error) {
	return m.prefetch(ctx, r, zoom)
}
func (m *mockTileCache) Stats() (tilecache.Stats, error) { return m.stats() }

// compile-time checks: the mocks and the production types satisfy the
// handler interfaces.
var (
	_ handler.Coordinator = (*mockCoordinator)(nil)
	_ handler.Coordinator = (*service.Coordinator)(nil)
	_ handler.TileCache   = (*mockTileCache)(nil)
	_ handler.TileCache   = (*tilecache.Manager)(nil)
	_ handler.Viewport    = (*viewport.Controller)(nil)
	_ handler.Location    = (*viewport.LastKnownLocation)(nil)
	_ handler.CommandFeed = (*viewport.CommandLog)(nil)
)

// ---- helpers ---------------------------------------------------------------

// testEnv wires a Server the way main.go does, with mocks for the
// coordinator and tile cache and a real viewport controller.
type testEnv struct {
	handler  http.Handler
	view     *viewport.Controller
	commands *viewport.CommandLog
	location *viewport.LastKnownLocation
}

func newTestEnv(coord handler.Coordinator, tiles handler.TileCache) testEnv {
	commands := viewport.NewCommandLog()
	location := &viewport.LastKnownLocation{}
	view := viewport.New(commands, location, viewport.WithFitDelay(time.Hour))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := handler.NewServer(coord, tiles, view, location, commands, log)
	return testEnv{handler: srv.Handler(), view: view, commands: commands, location: location}
}

func markerFixture(id string, lat, lon float64) domain.Marker {
	return domain.Marker{
		ID:          id,
		Title:       "Marker " + id,
		Description: "notes",
		Location:    domain.GeoPoint{Latitude: lat, Longitude: lon},
		TripDate:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func tripFixture() domain.Trip {
	return domain.Trip{
		ID:          "5",
		Title:       "Summer Tour",
		Description: "lakes",
		Rating:      4,
		Visibility:  domain.VisibilityPrivate,
		StartDate:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeError(t *testing.T, body io.Reader) handler.ErrorDetail {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp.Error
}
