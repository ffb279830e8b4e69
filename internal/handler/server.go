// Package handler implements the HTTP API of the map daemon.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, marker.go, trip.go, tile.go, viewport.go, export.go) but share the
// same Server struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/travel-diary/internal/domain"
	"github.com/pkordes/travel-diary/internal/service"
	"github.com/pkordes/travel-diary/internal/tilecache"
	"github.com/pkordes/travel-diary/internal/viewport"
	"github.com/pkordes/travel-diary/spec"
)

// Coordinator defines the sync operations the marker and trip handlers
// depend on. Defining the interface here (in the consumer package) lets
// handler tests inject a mock without a backend or a database.
type Coordinator interface {
	Online(ctx context.Context) bool
	LoadMarkersForUser(ctx context.Context) (service.MarkerList, error)
	GetMarker(ctx context.Context, id string) (domain.Marker, error)
	SaveMarker(ctx context.Context, draft domain.Marker) (domain.Marker, error)
	DeleteMarker(ctx context.Context, id string) error
	CreateTrip(ctx context.Context, draft service.TripDraft) (domain.Trip, error)
	LoadTrips(ctx context.Context, order service.SortOrder) (service.TripList, error)
	GetTrip(ctx context.Context, id string) (domain.Trip, error)
	TripMarkers(ctx context.Context, id string) ([]domain.Marker, error)
	TripImages(ctx context.Context, id string) ([]string, error)
	DeleteTrip(ctx context.Context, id string) error
	Export(ctx context.Context) ([]domain.ExportRow, error)
}

// TileCache is the tile cache surface used by the tile handlers.
type TileCache interface {
	CacheTile(ctx context.Context, t domain.TileAddress) (bool, error)
	LoadCachedTiles() ([]tilecache.TileData, error)
	ClearCache() (int, error)
	Prefetch(ctx context.Context, r domain.Region, zoom int) (tilecache.PrefetchResult, error)
	Stats() (tilecache.Stats, error)
}

// Viewport is the map camera surface used by the viewport handlers.
type Viewport interface {
	Region() domain.Region
	SetRegion(r domain.Region)
	CenterOnUser(ctx context.Context) (domain.Region, error)
	FocusOnMarker(m domain.Marker) domain.Region
	FocusOnMarkers(ms []domain.Marker) (domain.Region, bool)
	SmoothZoom(dir viewport.Direction) domain.Region
}

// Location receives the device position reported by the UI.
type Location interface {
	Set(p domain.GeoPoint) error
}

// CommandFeed exposes recorded map commands for the renderer to poll.
type CommandFeed interface {
	Since(seq uint64) []viewport.Command
}

// Server holds the daemon's HTTP dependencies.
type Server struct {
	coord    Coordinator
	tiles    TileCache
	view     Viewport
	location Location
	commands CommandFeed
	log      *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(coord Coordinator, tiles TileCache, view Viewport, location Location, commands CommandFeed, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		coord:    coord,
		tiles:    tiles,
		view:     view,
		location: location,
		commands: commands,
		log:      log,
	}
}

// Handler returns a chi router serving every endpoint. main.go mounts it
// behind the middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", serveOpenAPI)
	r.Get("/export", s.GetExport)

	r.Route("/markers", func(r chi.Router) {
		r.Get("/", s.ListMarkers)
		r.Post("/", s.CreateMarker)
		r.Get("/{id}", s.GetMarker)
		r.Delete("/{id}", s.DeleteMarker)
	})

	r.Route("/trips", func(r chi.Router) {
		r.Get("/", s.ListTrips)
		r.Post("/", s.CreateTrip)
		r.Get("/{id}", s.GetTrip)
		r.Delete("/{id}", s.DeleteTrip)
		r.Get("/{id}/markers", s.ListTripMarkers)
		r.Get("/{id}/images", s.ListTripImages)
	})

	r.Route("/tiles", func(r chi.Router) {
		r.Get("/", s.ListTiles)
		r.Post("/", s.CacheTile)
		r.Delete("/", s.ClearTiles)
		r.Get("/stats", s.GetTileStats)
		r.Post("/prefetch", s.PrefetchTiles)
	})

	r.Route("/viewport", func(r chi.Router) {
		r.Get("/", s.GetViewport)
		r.Put("/", s.PutViewport)
		r.Post("/focus", s.FocusViewport)
		r.Post("/zoom", s.ZoomViewport)
		r.Post("/user", s.CenterViewportOnUser)
		r.Put("/location", s.PutLocation)
	})

	return r
}

func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(spec.OpenAPI)
}
