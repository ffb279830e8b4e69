package repo_test

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/travel-diary/internal/domain"
	"github.com/pkordes/travel-diary/internal/repo"
	"github.com/pkordes/travel-diary/testutil"
)

// ---- helpers ---------------------------------------------------------------

func newStore(t *testing.T) (*repo.OfflineStore, repo.BlobStore) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	require.NoError(t, repo.Migrate(context.Background(), db))
	blobs := repo.NewSQLiteBlobStore(db)
	return repo.NewOfflineStore(blobs, testutil.DiscardLogger()), blobs
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func markerFixture(id string, day time.Time) domain.Marker {
	return domain.Marker{
		ID:          id,
		Title:       "Marker " + id,
		Description: "somewhere nice",
		Location:    domain.GeoPoint{Latitude: 48.1486, Longitude: 17.1077},
		TripDate:    day,
	}
}

func tripFixture(id string) domain.Trip {
	return domain.Trip{
		ID:          id,
		Title:       "Summer Tour",
		Description: "Danube by bike",
		Rating:      4,
		Visibility:  domain.VisibilityPrivate,
	}
}

func putRaw(t *testing.T, blobs repo.BlobStore, key, value string) {
	t.Helper()
	require.NoError(t, blobs.Update(context.Background(), func(tx repo.BlobTx) error {
		return tx.Put(key, []byte(value))
	}))
}

func keyLen(t *testing.T, blobs repo.BlobStore, key string) int {
	t.Helper()
	raw, ok, err := blobs.Get(context.Background(), key)
	require.NoError(t, err)
	if !ok {
		return 0
	}
	var items []json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &items))
	return len(items)
}

// ---- marker tests ----------------------------------------------------------

func TestOfflineStore_AddMarker_ListedWithTimestampID(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	id := strconv.FormatInt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).UnixMilli(), 10)

	_, err := s.AddMarker(ctx, markerFixture(id, date(2025, 6, 1)))
	require.NoError(t, err)

	got, err := s.ListMarkers(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	_, err = strconv.ParseInt(got[0].ID, 10, 64)
	assert.NoError(t, err, "provisional ids are numeric timestamps")
	assert.Equal(t, date(2025, 6, 1), got[0].TripDate)
	assert.InDelta(t, 48.1486, got[0].Location.Latitude, 1e-9)
}

func TestOfflineStore_AddMarker_RequiresTripDate(t *testing.T) {
	s, blobs := newStore(t)

	_, err := s.AddMarker(context.Background(), markerFixture("7", time.Time{}))
	require.ErrorIs(t, err, domain.ErrValidation)

	assert.Equal(t, 0, keyLen(t, blobs, repo.KeyOfflineMarkers))
}

func TestOfflineStore_AddMarker_StoresOriginalShape(t *testing.T) {
	s, blobs := newStore(t)

	_, err := s.AddMarker(context.Background(), markerFixture("7", date(2025, 6, 1)))
	require.NoError(t, err)

	raw, _, err := blobs.Get(context.Background(), repo.KeyOfflineMarkers)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"marker_id":"7","marker_title":"Marker 7","marker_description":"somewhere nice",
		"x_pos":48.1486,"y_pos":17.1077,"trip_date":"2025-06-01"}]`, string(raw))
}

func TestOfflineStore_AddMarker_Duplicate(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.AddMarker(ctx, markerFixture("1", date(2025, 6, 1)))
	require.NoError(t, err)
	_, err = s.AddMarker(ctx, markerFixture("1", date(2025, 6, 2)))

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestOfflineStore_AddMarker_Invalid(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.AddMarker(context.Background(), markerFixture("", date(2025, 6, 1)))
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad := markerFixture("2", date(2025, 6, 1))
	bad.Location.Latitude = 123
	_, err = s.AddMarker(context.Background(), bad)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestOfflineStore_GetMarkerByID(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	_, err := s.AddMarker(ctx, markerFixture("1", date(2025, 6, 1)))
	require.NoError(t, err)

	got, err := s.GetMarkerByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Marker 1", got.Title)

	_, err = s.GetMarkerByID(ctx, "2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOfflineStore_DeleteMarker_KeepsTripLinks(t *testing.T) {
	s, blobs := newStore(t)
	ctx := context.Background()
	for _, id := range []string{"1", "2"} {
		_, err := s.AddMarker(ctx, markerFixture(id, date(2025, 6, 1)))
		require.NoError(t, err)
	}
	_, err := s.AddTrip(ctx, tripFixture("5"), []string{"1", "2"}, nil)
	require.NoError(t, err)

	require.NoError(t, s.DeleteMarker(ctx, "1"))

	assert.Equal(t, 1, keyLen(t, blobs, repo.KeyTripMarkers))
	ms, err := s.TripMarkers(ctx, "5")
	require.NoError(t, err)
	require.Len(t, ms, 1, "dangling ids are skipped")
	assert.Equal(t, "2", ms[0].ID)

	assert.ErrorIs(t, s.DeleteMarker(ctx, "1"), domain.ErrNotFound)
}

func TestOfflineStore_CorruptCollectionReadsEmpty(t *testing.T) {
	s, blobs := newStore(t)
	putRaw(t, blobs, repo.KeyOfflineMarkers, `{not json`)

	got, err := s.ListMarkers(context.Background())

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOfflineStore_InvalidRecordsDropped(t *testing.T) {
	s, blobs := newStore(t)
	putRaw(t, blobs, repo.KeyOfflineMarkers, `[
		{"marker_id": 17, "marker_title":"numeric id","x_pos":1,"y_pos":2,"trip_date":"2025-06-01T10:00:00.000Z"},
		{"marker_id": "", "marker_title":"no id","x_pos":1,"y_pos":2,"trip_date":"2025-06-01"},
		{"marker_id": "9", "marker_title":"bad date","x_pos":1,"y_pos":2,"trip_date":"yesterday"}
	]`)

	got, err := s.ListMarkers(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "17", got[0].ID)
	assert.Equal(t, date(2025, 6, 1), got[0].TripDate)
}

// ---- trip tests ------------------------------------------------------------

func TestOfflineStore_AddTrip_DerivesDates(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	_, err := s.AddMarker(ctx, markerFixture("a", date(2025, 6, 3)))
	require.NoError(t, err)
	_, err = s.AddMarker(ctx, markerFixture("b", date(2025, 6, 1)))
	require.NoError(t, err)

	trip := tripFixture("5")
	trip.StartDate = date(1999, 1, 1) // ignored
	got, err := s.AddTrip(ctx, trip, []string{"a", "b"}, []string{"file:///img/1.jpg"})
	require.NoError(t, err)

	assert.Equal(t, date(2025, 6, 1), got.StartDate)
	assert.Equal(t, date(2025, 6, 3), got.EndDate)

	stored, err := s.GetTripByID(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, date(2025, 6, 1), stored.StartDate)
	assert.Equal(t, date(2025, 6, 3), stored.EndDate)
	assert.Equal(t, 4, stored.Rating)

	images, err := s.TripImages(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, []string{"file:///img/1.jpg"}, images)

	ms, err := s.TripMarkers(ctx, "5")
	require.NoError(t, err)
	assert.Len(t, ms, 2)
}

func TestOfflineStore_AddTrip_SingleMarker(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	_, err := s.AddMarker(ctx, markerFixture("a", date(2025, 6, 2)))
	require.NoError(t, err)

	got, err := s.AddTrip(ctx, tripFixture("1"), []string{"a"}, nil)

	require.NoError(t, err)
	assert.Equal(t, got.StartDate, got.EndDate)
}

func TestOfflineStore_AddTrip_Rejected(t *testing.T) {
	s, blobs := newStore(t)
	ctx := context.Background()

	_, err := s.AddTrip(ctx, tripFixture("1"), nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation, "no markers")

	_, err = s.AddTrip(ctx, tripFixture("1"), []string{"missing"}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation, "unknown marker")

	// Nothing was written by the failed attempts.
	for _, key := range []string{repo.KeyTripInfo, repo.KeyTripMarkers, repo.KeyTripImages} {
		assert.Zero(t, keyLen(t, blobs, key), key)
	}
}

func TestOfflineStore_DeleteTrip_PrunesAllCollections(t *testing.T) {
	s, blobs := newStore(t)
	ctx := context.Background()
	_, err := s.AddMarker(ctx, markerFixture("a", date(2025, 6, 1)))
	require.NoError(t, err)
	_, err = s.AddTrip(ctx, tripFixture("5"), []string{"a"}, []string{"file:///1.jpg", "file:///2.jpg"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTrip(ctx, "5"))

	for _, key := range []string{repo.KeyTripInfo, repo.KeyTripMarkers, repo.KeyTripImages} {
		assert.Zero(t, keyLen(t, blobs, key), key)
	}
	_, err = s.GetTripByID(ctx, "5")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTrip(ctx, "5"), domain.ErrNotFound)

	// Markers survive trip deletion.
	ms, err := s.ListMarkers(ctx)
	require.NoError(t, err)
	assert.Len(t, ms, 1)
}

func TestOfflineStore_DeleteTrip_NumericIDsFromOlderVersions(t *testing.T) {
	s, blobs := newStore(t)
	putRaw(t, blobs, repo.KeyTripInfo, `[{"trip_id":5,"tripData":{"trip_title":"Old","rating":"3","start_date":"2024-05-01"}}]`)
	putRaw(t, blobs, repo.KeyTripMarkers, `[{"trip_id":5,"markerIds":[1,2]}]`)
	putRaw(t, blobs, repo.KeyTripImages, `[{"trip_id":5,"photos":[{"uri":"file:///x.jpg"}]}]`)
	ctx := context.Background()

	trip, err := s.GetTripByID(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, 3, trip.Rating)
	assert.Equal(t, trip.StartDate, trip.EndDate)

	require.NoError(t, s.DeleteTrip(ctx, "5"))
	for _, key := range []string{repo.KeyTripInfo, repo.KeyTripMarkers, repo.KeyTripImages} {
		assert.Zero(t, keyLen(t, blobs, key), key)
	}
}

func TestOfflineStore_TripLookupsNotFound(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.TripMarkers(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.TripImages(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
