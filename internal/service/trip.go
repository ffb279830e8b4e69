package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pkordes/travel-diary/internal/domain"
)

// compensationTimeout bounds the rollback DELETE issued after a failed
// trip creation. It runs even if the caller's context is already done.
const compensationTimeout = 10 * time.Second

// TripDraft is what the user submits when creating a trip.
// Trip.ID, StartDate and EndDate are ignored: the id comes from the backend
// (or is provisional offline) and the dates derive from the markers.
type TripDraft struct {
	Trip      domain.Trip
	MarkerIDs []string
	Photos    []string
	// IdempotencyKey is sent with the backend create call. A fresh uuid is
	// used when empty; callers retrying a submission should reuse theirs.
	IdempotencyKey string
}

// Trip creation steps, reported in TripCreateError.
const (
	StepCreateTrip   = 1
	StepAddMarkers   = 2
	StepUploadPhotos = 3
)

// TripCreateError reports a failed online trip creation. When Step is 2 or 3
// the trip record already existed; Compensated says whether the rollback
// delete succeeded.
type TripCreateError struct {
	Step        int
	TripID      string
	Compensated bool
	Err         error
}

func (e *TripCreateError) Error() string {
	switch {
	case e.Step == StepCreateTrip:
		return fmt.Sprintf("create trip: step %d: %v", e.Step, e.Err)
	case e.Compensated:
		return fmt.Sprintf("create trip %s: step %d: %v (trip deleted)", e.TripID, e.Step, e.Err)
	default:
		return fmt.Sprintf("create trip %s: step %d: %v (rollback failed, trip left on server)", e.TripID, e.Step, e.Err)
	}
}

func (e *TripCreateError) Unwrap() error { return e.Err }

// SortOrder orders trips by start date.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder accepts "", "asc" or "desc". Empty means descending
// (newest first).
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return SortDesc, nil
	case SortAsc, SortDesc:
		return o, nil
	}
	return "", fmt.Errorf("%w: sort must be %q or %q", domain.ErrValidation, SortAsc, SortDesc)
}

// TripList is the result of LoadTrips.
type TripList struct {
	Trips  []domain.Trip
	Source Source
}

// CreateTrip validates draft and stores the trip.
//
// Offline the trip gets a provisional id and the three local writes happen
// in one transaction. Online the backend call runs as three steps: create
// the trip (with an idempotency key), link the markers, upload the photos.
// If step 2 or 3 fails the trip is deleted again and a *TripCreateError is
// returned. On success the returned trip carries the server-assigned id.
func (c *Coordinator) CreateTrip(ctx context.Context, draft TripDraft) (domain.Trip, error) {
	trip, err := normalizeTrip(draft)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.Coordinator.CreateTrip: %w", err)
	}

	if !c.conn.Online(ctx) {
		trip.ID = c.provisionalID(ctx, func(ctx context.Context, id string) error {
			_, err := c.local.GetTripByID(ctx, id)
			return err
		})
		stored, err := c.local.AddTrip(ctx, trip, draft.MarkerIDs, draft.Photos)
		if err != nil {
			return domain.Trip{}, fmt.Errorf("service.Coordinator.CreateTrip: %w", err)
		}
		return stored, nil
	}

	markers := make([]domain.Marker, 0, len(draft.MarkerIDs))
	for _, id := range draft.MarkerIDs {
		m, err := c.remote.Marker(ctx, id)
		if err != nil {
			return domain.Trip{}, fmt.Errorf("service.Coordinator.CreateTrip: marker %s: %w", id, err)
		}
		markers = append(markers, m)
	}
	trip.StartDate, trip.EndDate, err = domain.TripDateRange(markers)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.Coordinator.CreateTrip: %w", err)
	}

	key := draft.IdempotencyKey
	if key == "" {
		key = c.newKey()
	}
	tripID, err := c.remote.CreateTrip(ctx, trip, key)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.Coordinator.CreateTrip: %w",
			&TripCreateError{Step: StepCreateTrip, Err: err})
	}
	trip.ID = tripID

	if err := c.remote.AddTripMarkers(ctx, tripID, draft.MarkerIDs); err != nil {
		return domain.Trip{}, fmt.Errorf("service.Coordinator.CreateTrip: %w", c.compensate(ctx, StepAddMarkers, tripID, err))
	}
	if err := c.remote.UploadTripImages(ctx, tripID, draft.Photos); err != nil {
		return domain.Trip{}, fmt.Errorf("service.Coordinator.CreateTrip: %w", c.compensate(ctx, StepUploadPhotos, tripID, err))
	}

	c.log.InfoContext(ctx, "trip created", "trip_id", tripID, "markers", len(draft.MarkerIDs), "photos", len(draft.Photos))
	return trip, nil
}

// compensate deletes a half-created trip and wraps cause.
func (c *Coordinator) compensate(ctx context.Context, step int, tripID string, cause error) *TripCreateError {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	tce := &TripCreateError{Step: step, TripID: tripID, Err: cause}
	if err := c.remote.DeleteTrip(dctx, tripID); err != nil {
		c.log.ErrorContext(ctx, "rollback of half-created trip failed",
			"trip_id", tripID, "step", step, "cause", cause, "error", err)
		return tce
	}
	tce.Compensated = true
	c.log.WarnContext(ctx, "trip creation failed, trip deleted", "trip_id", tripID, "step", step, "error", cause)
	return tce
}

func normalizeTrip(d TripDraft) (domain.Trip, error) {
	t := d.Trip
	t.ID = ""
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return domain.Trip{}, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if t.Rating < 1 || t.Rating > 5 {
		return domain.Trip{}, fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrValidation)
	}
	if t.Visibility == "" {
		t.Visibility = domain.VisibilityPrivate
	}
	if !t.Visibility.Valid() {
		return domain.Trip{}, fmt.Errorf("%w: unknown visibility %q", domain.ErrValidation, t.Visibility)
	}
	if len(d.MarkerIDs) == 0 {
		return domain.Trip{}, fmt.Errorf("%w: a trip needs at least one marker", domain.ErrValidation)
	}
	return t, nil
}

// LoadTrips returns the user's trips ordered by start date. Online, a failed
// backend call falls back to the offline trips.
func (c *Coordinator) LoadTrips(ctx context.Context, order SortOrder) (TripList, error) {
	list, err := c.loadTrips(ctx)
	if err != nil {
		return TripList{}, fmt.Errorf("service.Coordinator.LoadTrips: %w", err)
	}
	slices.SortStableFunc(list.Trips, func(a, b domain.Trip) int {
		if order == SortAsc {
			return a.StartDate.Compare(b.StartDate)
		}
		return b.StartDate.Compare(a.StartDate)
	})
	return list, nil
}

func (c *Coordinator) loadTrips(ctx context.Context) (TripList, error) {
	if c.conn.Online(ctx) {
		ts, err := c.remote.Trips(ctx)
		if err == nil {
			return TripList{Trips: ts, Source: SourceRemote}, nil
		}
		c.log.WarnContext(ctx, "loading trips from backend failed, using offline trips",
			"unreachable", errors.Is(err, domain.ErrOffline), "error", err)
	}
	ts, err := c.local.ListTrips(ctx)
	if err != nil {
		return TripList{}, err
	}
	return TripList{Trips: ts, Source: SourceLocal}, nil
}

// GetTrip returns one trip, falling back to the offline store like GetMarker.
func (c *Coordinator) GetTrip(ctx context.Context, id string) (domain.Trip, error) {
	t, err := withFallback(ctx, c,
		func(ctx context.Context) (domain.Trip, error) { return c.remote.Trip(ctx, id) },
		func(ctx context.Context) (domain.Trip, error) { return c.local.GetTripByID(ctx, id) })
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.Coordinator.GetTrip: %w", err)
	}
	return t, nil
}

// TripMarkers returns the markers linked to a trip.
func (c *Coordinator) TripMarkers(ctx context.Context, id string) ([]domain.Marker, error) {
	ms, err := withFallback(ctx, c,
		func(ctx context.Context) ([]domain.Marker, error) { return c.remote.TripMarkers(ctx, id) },
		func(ctx context.Context) ([]domain.Marker, error) { return c.local.TripMarkers(ctx, id) })
	if err != nil {
		return nil, fmt.Errorf("service.Coordinator.TripMarkers: %w", err)
	}
	return ms, nil
}

// TripImages returns photo locations: backend URLs online, local URIs for
// trips created offline.
func (c *Coordinator) TripImages(ctx context.Context, id string) ([]string, error) {
	imgs, err := withFallback(ctx, c,
		func(ctx context.Context) ([]string, error) { return c.remote.TripImages(ctx, id) },
		func(ctx context.Context) ([]string, error) { return c.local.TripImages(ctx, id) })
	if err != nil {
		return nil, fmt.Errorf("service.Coordinator.TripImages: %w", err)
	}
	return imgs, nil
}

// DeleteTrip removes a trip from exactly one store, like DeleteMarker. A
// backend ErrNotFound falls through to the offline store so provisional ids
// can be deleted while online.
func (c *Coordinator) DeleteTrip(ctx context.Context, id string) error {
	if c.conn.Online(ctx) {
		err := c.remote.DeleteTrip(ctx, id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("service.Coordinator.DeleteTrip: %w", err)
		}
	}
	if err := c.local.DeleteTrip(ctx, id); err != nil {
		return fmt.Errorf("service.Coordinator.DeleteTrip: %w", err)
	}
	return nil
}

// withFallback runs remote when online and retries with local when the
// remote error is fallbackable. The remote error wins if local fails too.
func withFallback[T any](ctx context.Context, c *Coordinator, remote, local func(context.Context) (T, error)) (T, error) {
	if !c.conn.Online(ctx) {
		return local(ctx)
	}
	v, err := remote(ctx)
	if err == nil || !fallbackable(err) {
		return v, err
	}
	if lv, lerr := local(ctx); lerr == nil {
		return lv, nil
	}
	return v, err
}
