package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/pkordes/travel-diary/internal/domain"
)

// OfflineStore persists markers and trips created while the device has no
// connection. Trip writes touch three keys (tripInfo, tripMarkers,
// tripImages) inside one BlobStore.Update, so a trip is either fully stored
// or not at all.
type OfflineStore struct {
	blobs BlobStore
	log   *slog.Logger
}

// NewOfflineStore constructs an OfflineStore on top of blobs.
func NewOfflineStore(blobs BlobStore, log *slog.Logger) *OfflineStore {
	if log == nil {
		log = slog.Default()
	}
	return &OfflineStore{blobs: blobs, log: log}
}

type getter func(key string) ([]byte, bool, error)

func (s *OfflineStore) reader(ctx context.Context) getter {
	return func(key string) ([]byte, bool, error) { return s.blobs.Get(ctx, key) }
}

// readList decodes the JSON array stored under key. A missing key and a
// corrupt value both read as an empty list; corruption is logged.
func readList[T any](log *slog.Logger, get getter, key string) ([]T, error) {
	raw, ok, err := get(key)
	if err != nil {
		return nil, err
	}
	if !ok || len(raw) == 0 {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Warn("offline collection is corrupt, treating as empty", "key", key, "error", err)
		return []T{}, nil
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func writeList[T any](tx BlobTx, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return tx.Put(key, raw)
}

// markers decodes offlineMarkers, dropping records that fail validation.
func (s *OfflineStore) markers(get getter) ([]domain.Marker, error) {
	recs, err := readList[markerRecord](s.log, get, KeyOfflineMarkers)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Marker, 0, len(recs))
	for _, r := range recs {
		m, err := r.toDomain()
		if err != nil {
			s.log.Warn("dropping invalid offline marker", "marker_id", string(r.ID), "error", err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *OfflineStore) trips(get getter) ([]domain.Trip, error) {
	recs, err := readList[tripInfoRecord](s.log, get, KeyTripInfo)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Trip, 0, len(recs))
	for _, r := range recs {
		t, err := r.toDomain()
		if err != nil {
			s.log.Warn("dropping invalid offline trip", "trip_id", string(r.ID), "error", err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// ---- markers ---------------------------------------------------------------

// AddMarker appends m to offlineMarkers. m.ID must be set and unique.
func (s *OfflineStore) AddMarker(ctx context.Context, m domain.Marker) (domain.Marker, error) {
	if strings.TrimSpace(m.ID) == "" {
		return domain.Marker{}, fmt.Errorf("repo.OfflineStore.AddMarker: %w: id is required", domain.ErrValidation)
	}
	if !m.Location.Valid() {
		return domain.Marker{}, fmt.Errorf("repo.OfflineStore.AddMarker: %w: invalid location", domain.ErrValidation)
	}
	if m.TripDate.IsZero() {
		return domain.Marker{}, fmt.Errorf("repo.OfflineStore.AddMarker: %w: trip_date is required", domain.ErrValidation)
	}

	err := s.blobs.Update(ctx, func(tx BlobTx) error {
		recs, err := readList[markerRecord](s.log, tx.Get, KeyOfflineMarkers)
		if err != nil {
			return err
		}
		for _, r := range recs {
			if string(r.ID) == m.ID {
				return fmt.Errorf("%w: marker %s already exists", domain.ErrValidation, m.ID)
			}
		}
		return writeList(tx, KeyOfflineMarkers, append(recs, markerToRecord(m)))
	})
	if err != nil {
		return domain.Marker{}, fmt.Errorf("repo.OfflineStore.AddMarker: %w", err)
	}
	return m, nil
}

// ListMarkers returns every valid offline marker in insertion order.
func (s *OfflineStore) ListMarkers(ctx context.Context) ([]domain.Marker, error) {
	ms, err := s.markers(s.reader(ctx))
	if err != nil {
		return nil, fmt.Errorf("repo.OfflineStore.ListMarkers: %w", err)
	}
	return ms, nil
}

// GetMarkerByID returns domain.ErrNotFound when no marker has that id.
func (s *OfflineStore) GetMarkerByID(ctx context.Context, id string) (domain.Marker, error) {
	ms, err := s.markers(s.reader(ctx))
	if err != nil {
		return domain.Marker{}, fmt.Errorf("repo.OfflineStore.GetMarkerByID: %w", err)
	}
	for _, m := range ms {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.Marker{}, fmt.Errorf("repo.OfflineStore.GetMarkerByID: %w", domain.ErrNotFound)
}

// DeleteMarker removes the marker from offlineMarkers. Trip links that
// reference it are left in place; readers skip dangling ids.
func (s *OfflineStore) DeleteMarker(ctx context.Context, id string) error {
	err := s.blobs.Update(ctx, func(tx BlobTx) error {
		recs, err := readList[markerRecord](s.log, tx.Get, KeyOfflineMarkers)
		if err != nil {
			return err
		}
		kept := slices.DeleteFunc(recs, func(r markerRecord) bool { return string(r.ID) == id })
		if len(kept) == len(recs) {
			return domain.ErrNotFound
		}
		return writeList(tx, KeyOfflineMarkers, kept)
	})
	if err != nil {
		return fmt.Errorf("repo.OfflineStore.DeleteMarker: %w", err)
	}
	return nil
}

// ---- trips -----------------------------------------------------------------

// AddTrip stores trip together with its marker links and photo URIs.
// StartDate and EndDate are overwritten with the earliest and latest
// TripDate of the referenced markers, which must all exist offline.
func (s *OfflineStore) AddTrip(ctx context.Context, trip domain.Trip, markerIDs, images []string) (domain.Trip, error) {
	if strings.TrimSpace(trip.ID) == "" {
		return domain.Trip{}, fmt.Errorf("repo.OfflineStore.AddTrip: %w: id is required", domain.ErrValidation)
	}
	if len(markerIDs) == 0 {
		return domain.Trip{}, fmt.Errorf("repo.OfflineStore.AddTrip: %w: a trip needs at least one marker", domain.ErrValidation)
	}

	err := s.blobs.Update(ctx, func(tx BlobTx) error {
		all, err := s.markers(tx.Get)
		if err != nil {
			return err
		}
		picked := make([]domain.Marker, 0, len(markerIDs))
		for _, id := range markerIDs {
			i := slices.IndexFunc(all, func(m domain.Marker) bool { return m.ID == id })
			if i < 0 {
				return fmt.Errorf("%w: unknown marker %s", domain.ErrValidation, id)
			}
			picked = append(picked, all[i])
		}
		trip.StartDate, trip.EndDate, err = domain.TripDateRange(picked)
		if err != nil {
			return err
		}

		infos, err := readList[tripInfoRecord](s.log, tx.Get, KeyTripInfo)
		if err != nil {
			return err
		}
		for _, r := range infos {
			if string(r.ID) == trip.ID {
				return fmt.Errorf("%w: trip %s already exists", domain.ErrValidation, trip.ID)
			}
		}
		links, err := readList[tripMarkersRecord](s.log, tx.Get, KeyTripMarkers)
		if err != nil {
			return err
		}
		photos, err := readList[tripImagesRecord](s.log, tx.Get, KeyTripImages)
		if err != nil {
			return err
		}

		link := tripMarkersRecord{TripID: domain.WireID(trip.ID)}
		for _, id := range markerIDs {
			link.MarkerIDs = append(link.MarkerIDs, domain.WireID(id))
		}
		set := tripImagesRecord{TripID: domain.WireID(trip.ID), Photos: []photoRecord{}}
		for _, uri := range images {
			set.Photos = append(set.Photos, photoRecord{URI: uri})
		}

		if err := writeList(tx, KeyTripInfo, append(infos, tripToRecord(trip))); err != nil {
			return err
		}
		if err := writeList(tx, KeyTripMarkers, append(links, link)); err != nil {
			return err
		}
		return writeList(tx, KeyTripImages, append(photos, set))
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.OfflineStore.AddTrip: %w", err)
	}
	return trip, nil
}

// ListTrips returns every valid offline trip in insertion order.
func (s *OfflineStore) ListTrips(ctx context.Context) ([]domain.Trip, error) {
	ts, err := s.trips(s.reader(ctx))
	if err != nil {
		return nil, fmt.Errorf("repo.OfflineStore.ListTrips: %w", err)
	}
	return ts, nil
}

// GetTripByID returns domain.ErrNotFound when no trip has that id.
func (s *OfflineStore) GetTripByID(ctx context.Context, id string) (domain.Trip, error) {
	ts, err := s.trips(s.reader(ctx))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.OfflineStore.GetTripByID: %w", err)
	}
	for _, t := range ts {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Trip{}, fmt.Errorf("repo.OfflineStore.GetTripByID: %w", domain.ErrNotFound)
}

// TripMarkers resolves the trip's marker links against offlineMarkers.
// Ids that no longer resolve (the marker was deleted) are skipped.
func (s *OfflineStore) TripMarkers(ctx context.Context, tripID string) ([]domain.Marker, error) {
	if _, err := s.GetTripByID(ctx, tripID); err != nil {
		return nil, fmt.Errorf("repo.OfflineStore.TripMarkers: %w", err)
	}
	get := s.reader(ctx)
	links, err := readList[tripMarkersRecord](s.log, get, KeyTripMarkers)
	if err != nil {
		return nil, fmt.Errorf("repo.OfflineStore.TripMarkers: %w", err)
	}
	all, err := s.markers(get)
	if err != nil {
		return nil, fmt.Errorf("repo.OfflineStore.TripMarkers: %w", err)
	}

	out := []domain.Marker{}
	for _, l := range links {
		if string(l.TripID) != tripID {
			continue
		}
		for _, id := range l.MarkerIDs {
			i := slices.IndexFunc(all, func(m domain.Marker) bool { return m.ID == string(id) })
			if i < 0 {
				continue
			}
			out = append(out, all[i])
		}
	}
	return out, nil
}

// TripImages returns the photo URIs stored with the trip.
func (s *OfflineStore) TripImages(ctx context.Context, tripID string) ([]string, error) {
	if _, err := s.GetTripByID(ctx, tripID); err != nil {
		return nil, fmt.Errorf("repo.OfflineStore.TripImages: %w", err)
	}
	sets, err := readList[tripImagesRecord](s.log, s.reader(ctx), KeyTripImages)
	if err != nil {
		return nil, fmt.Errorf("repo.OfflineStore.TripImages: %w", err)
	}
	out := []string{}
	for _, set := range sets {
		if string(set.TripID) != tripID {
			continue
		}
		for _, p := range set.Photos {
			if p.URI != "" {
				out = append(out, p.URI)
			}
		}
	}
	return out, nil
}

// DeleteTrip removes the trip from tripInfo, tripMarkers and tripImages in
// one transaction. It returns domain.ErrNotFound only when none of the three
// collections mentioned the trip.
func (s *OfflineStore) DeleteTrip(ctx context.Context, id string) error {
	err := s.blobs.Update(ctx, func(tx BlobTx) error {
		infos, err := readList[tripInfoRecord](s.log, tx.Get, KeyTripInfo)
		if err != nil {
			return err
		}
		links, err := readList[tripMarkersRecord](s.log, tx.Get, KeyTripMarkers)
		if err != nil {
			return err
		}
		sets, err := readList[tripImagesRecord](s.log, tx.Get, KeyTripImages)
		if err != nil {
			return err
		}

		before := len(infos) + len(links) + len(sets)
		infos = slices.DeleteFunc(infos, func(r tripInfoRecord) bool { return string(r.ID) == id })
		links = slices.DeleteFunc(links, func(r tripMarkersRecord) bool { return string(r.TripID) == id })
		sets = slices.DeleteFunc(sets, func(r tripImagesRecord) bool { return string(r.TripID) == id })
		if len(infos)+len(links)+len(sets) == before {
			return domain.ErrNotFound
		}

		if err := writeList(tx, KeyTripInfo, infos); err != nil {
			return err
		}
		if err := writeList(tx, KeyTripMarkers, links); err != nil {
			return err
		}
		return writeList(tx, KeyTripImages, sets)
	})
	if err != nil {
		return fmt.Errorf("repo.OfflineStore.DeleteTrip: %w", err)
	}
	return nil
}
