// Package service contains the sync logic of the travel diary map core.
// The Coordinator is the single entry point the UI calls to load and save
// markers and trips; it reads connectivity fresh on every call and routes to
// the backend or to the offline store. No HTTP or storage code lives here,
// only the repo-facing interfaces below.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/travel-diary/internal/connectivity"
	"github.com/pkordes/travel-diary/internal/domain"
)

// Remote is the backend API. *api.Client implements it.
type Remote interface {
	UserMarkers(ctx context.Context) ([]domain.Marker, error)
	Marker(ctx context.Context, id string) (domain.Marker, error)
	CreateMarker(ctx context.Context, m domain.Marker) (domain.Marker, error)
	DeleteMarker(ctx context.Context, id string) error

	CreateTrip(ctx context.Context, t domain.Trip, idempotencyKey string) (string, error)
	AddTripMarkers(ctx context.Context, tripID string, markerIDs []string) error
	UploadTripImages(ctx context.Context, tripID string, photos []string) error
	Trips(ctx context.Context) ([]domain.Trip, error)
	Trip(ctx context.Context, id string) (domain.Trip, error)
	TripImages(ctx context.Context, id string) ([]string, error)
	TripMarkers(ctx context.Context, tripID string) ([]domain.Marker, error)
	DeleteTrip(ctx context.Context, id string) error
}

// LocalStore is the on-device store. *repo.OfflineStore implements it.
type LocalStore interface {
	AddMarker(ctx context.Context, m domain.Marker) (domain.Marker, error)
	ListMarkers(ctx context.Context) ([]domain.Marker, error)
	GetMarkerByID(ctx context.Context, id string) (domain.Marker, error)
	DeleteMarker(ctx context.Context, id string) error

	AddTrip(ctx context.Context, t domain.Trip, markerIDs, images []string) (domain.Trip, error)
	ListTrips(ctx context.Context) ([]domain.Trip, error)
	GetTripByID(ctx context.Context, id string) (domain.Trip, error)
	TripMarkers(ctx context.Context, tripID string) ([]domain.Marker, error)
	TripImages(ctx context.Context, tripID string) ([]string, error)
	DeleteTrip(ctx context.Context, id string) error
}

// Source says which store served a read.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Coordinator routes marker and trip operations by connectivity.
type Coordinator struct {
	conn   connectivity.Provider
	remote Remote
	local  LocalStore
	now    func() time.Time
	newKey func() string
	log    *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock replaces time.Now, which drives provisional ids.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithIdempotencyKeys replaces the uuid generator for trip creation keys.
func WithIdempotencyKeys(gen func() string) Option {
	return func(c *Coordinator) { c.newKey = gen }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// NewCoordinator constructs a Coordinator.
func NewCoordinator(conn connectivity.Provider, remote Remote, local LocalStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		conn:   conn,
		remote: remote,
		local:  local,
		now:    time.Now,
		newKey: uuid.NewString,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Online reports the connectivity state used for routing.
func (c *Coordinator) Online(ctx context.Context) bool {
	return c.conn.Online(ctx)
}

// fallbackable reports whether a remote read failure should be retried
// against the local store: the backend was unreachable, or it does not know
// the id because the record was created offline.
func fallbackable(err error) bool {
	return errors.Is(err, domain.ErrOffline) || errors.Is(err, domain.ErrNotFound)
}

// provisionalID returns a millisecond timestamp id not yet used locally,
// bumping by one millisecond on collision.
func (c *Coordinator) provisionalID(ctx context.Context, exists func(ctx context.Context, id string) error) string {
	ms := c.now().UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		// Any lookup error means the id is free to use; a real storage
		// failure resurfaces on the write that follows.
		if err := exists(ctx, id); err != nil {
			return id
		}
		ms++
	}
}

// ---- markers ---------------------------------------------------------------

// MarkerList is the result of LoadMarkersForUser.
type MarkerList struct {
	Markers []domain.Marker
	Source  Source
}

// LoadMarkersForUser returns the user's markers. Online, the backend is
// asked first; any failure or an empty answer falls back to the offline
// markers. The log line tells an unreachable backend apart from other
// failures, the result's Source tells which store answered.
func (c *Coordinator) LoadMarkersForUser(ctx context.Context) (MarkerList, error) {
	if c.conn.Online(ctx) {
		ms, err := c.remote.UserMarkers(ctx)
		switch {
		case err == nil && len(ms) > 0:
			return MarkerList{Markers: ms, Source: SourceRemote}, nil
		case err == nil:
			c.log.InfoContext(ctx, "backend returned no markers, using offline markers")
		case errors.Is(err, domain.ErrOffline):
			c.log.WarnContext(ctx, "backend unreachable, using offline markers", "error", err)
		default:
			c.log.WarnContext(ctx, "loading markers from backend failed, using offline markers", "error", err)
		}
	}
	ms, err := c.local.ListMarkers(ctx)
	if err != nil {
		return MarkerList{}, fmt.Errorf("service.Coordinator.LoadMarkersForUser: %w", err)
	}
	return MarkerList{Markers: ms, Source: SourceLocal}, nil
}

// GetMarker returns one marker. Online lookups that fail because the backend
// is unreachable or does not know the id are retried offline.
func (c *Coordinator) GetMarker(ctx context.Context, id string) (domain.Marker, error) {
	m, err := withFallback(ctx, c,
		func(ctx context.Context) (domain.Marker, error) { return c.remote.Marker(ctx, id) },
		func(ctx context.Context) (domain.Marker, error) { return c.local.GetMarkerByID(ctx, id) })
	if err != nil {
		return domain.Marker{}, fmt.Errorf("service.Coordinator.GetMarker: %w", err)
	}
	return m, nil
}

// SaveMarker validates and stores a new marker. Online it is posted to the
// backend and comes back with the server id. Offline, or when the backend
// turns out to be unreachable, it is stored locally under a provisional id.
// Either way the caller gets the stored marker.
func (c *Coordinator) SaveMarker(ctx context.Context, draft domain.Marker) (domain.Marker, error) {
	if err := validateMarker(draft); err != nil {
		return domain.Marker{}, fmt.Errorf("service.Coordinator.SaveMarker: %w", err)
	}
	draft.Title = strings.TrimSpace(draft.Title)

	if c.conn.Online(ctx) {
		m, err := c.remote.CreateMarker(ctx, draft)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, domain.ErrOffline) {
			return domain.Marker{}, fmt.Errorf("service.Coordinator.SaveMarker: %w", err)
		}
		c.log.WarnContext(ctx, "backend unreachable, saving marker offline", "error", err)
	}

	draft.ID = c.provisionalID(ctx, func(ctx context.Context, id string) error {
		_, err := c.local.GetMarkerByID(ctx, id)
		return err
	})
	m, err := c.local.AddMarker(ctx, draft)
	if err != nil {
		return domain.Marker{}, fmt.Errorf("service.Coordinator.SaveMarker: %w", err)
	}
	return m, nil
}

// DeleteMarker removes a marker from exactly one store. Online, an id the
// backend does not know is looked up offline, since markers created offline
// are never uploaded. That backend ErrNotFound is the one case where both
// stores are consulted; it still deletes from only one.
func (c *Coordinator) DeleteMarker(ctx context.Context, id string) error {
	if c.conn.Online(ctx) {
		err := c.remote.DeleteMarker(ctx, id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("service.Coordinator.DeleteMarker: %w", err)
		}
	}
	if err := c.local.DeleteMarker(ctx, id); err != nil {
		return fmt.Errorf("service.Coordinator.DeleteMarker: %w", err)
	}
	return nil
}

func validateMarker(m domain.Marker) error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if !m.Location.Valid() {
		return fmt.Errorf("%w: location is outside -90..90 / -180..180", domain.ErrValidation)
	}
	if m.TripDate.IsZero() {
		return fmt.Errorf("%w: trip date is required", domain.ErrValidation)
	}
	return nil
}
