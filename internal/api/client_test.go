package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/travel-diary/internal/api"
	"github.com/pkordes/travel-diary/internal/domain"
)

// ---- helpers ---------------------------------------------------------------

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

// newBackend starts a fake backend with routes registered by setup and
// returns a client for it, logged in as user 42.
func newBackend(t *testing.T, setup func(r chi.Router)) *api.Client {
	t.Helper()
	r := chi.NewRouter()
	setup(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	tok := signedToken(t, jwt.MapClaims{"user_id": 42})
	return api.NewClient(srv.URL+"/", srv.Client(), api.StaticToken(tok))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ---- token tests -----------------------------------------------------------

func TestUserIDFromToken(t *testing.T) {
	cases := []struct {
		name   string
		claims jwt.MapClaims
		want   string
	}{
		{"numeric user_id", jwt.MapClaims{"user_id": 42}, "42"},
		{"string userId", jwt.MapClaims{"userId": "abc"}, "abc"},
		{"sub fallback", jwt.MapClaims{"sub": "7"}, "7"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := api.UserIDFromToken(signedToken(t, tc.claims))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUserIDFromToken_Invalid(t *testing.T) {
	_, err := api.UserIDFromToken("not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrPermission)

	_, err = api.UserIDFromToken(signedToken(t, jwt.MapClaims{"role": "x"}))
	assert.ErrorIs(t, err, domain.ErrPermission)
}

// ---- error mapping tests ---------------------------------------------------

func TestClient_StatusErrors(t *testing.T) {
	c := newBackend(t, func(r chi.Router) {
		r.Get("/markers/getMarkerByMarkerID/{id}", func(w http.ResponseWriter, r *http.Request) {
			switch chi.URLParam(r, "id") {
			case "missing":
				http.Error(w, "no such marker", http.StatusNotFound)
			case "forbidden":
				w.WriteHeader(http.StatusForbidden)
			default:
				w.WriteHeader(http.StatusInternalServerError)
			}
		})
	})
	ctx := context.Background()

	_, err := c.Marker(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "no such marker", se.Body)

	_, err = c.Marker(ctx, "forbidden")
	assert.ErrorIs(t, err, domain.ErrPermission)

	_, err = c.Marker(ctx, "boom")
	require.ErrorAs(t, err, &se)
	assert.NotErrorIs(t, err, domain.ErrOffline)
}

func TestClient_TransportErrorIsOffline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := api.NewClient(url, &http.Client{Timeout: time.Second}, api.StaticToken(signedToken(t, jwt.MapClaims{"user_id": 1})))

	_, err := c.UserMarkers(context.Background())

	assert.ErrorIs(t, err, domain.ErrOffline)
}

// ---- marker tests ----------------------------------------------------------

func TestClient_UserMarkers(t *testing.T) {
	var gotAuth string
	c := newBackend(t, func(r chi.Router) {
		r.Get("/markers/getUserMarkers/{uid}", func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			assert.Equal(t, "42", chi.URLParam(r, "uid"))
			writeJSON(w, http.StatusOK, []map[string]any{
				{"marker_id": 3, "marker_title": "Castle", "marker_description": "",
					"x_pos": 48.14, "y_pos": 17.1, "trip_date": "2025-06-01T00:00:00.000Z"},
			})
		})
	})

	got, err := c.UserMarkers(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)
	assert.Equal(t, domain.GeoPoint{Latitude: 48.14, Longitude: 17.1}, got[0].Location)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), got[0].TripDate)
	assert.Contains(t, gotAuth, "Bearer ")
}

func TestClient_CreateMarker(t *testing.T) {
	var body map[string]any
	c := newBackend(t, func(r chi.Router) {
		r.Post("/markers", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			writeJSON(w, http.StatusCreated, map[string]any{"marker_id": 99})
		})
	})
	m := domain.Marker{
		ID:       "1717000000000",
		Title:    "Lake",
		Location: domain.GeoPoint{Latitude: 1, Longitude: 2},
		TripDate: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}

	got, err := c.CreateMarker(context.Background(), m)

	require.NoError(t, err)
	assert.Equal(t, "99", got.ID)
	assert.Equal(t, "42", body["user_id"])
	assert.Equal(t, "2025-06-02", body["trip_date"])
	assert.NotContains(t, body, "marker_id", "client ids are never sent")
}

func TestClient_DeleteMarker(t *testing.T) {
	var deleted string
	c := newBackend(t, func(r chi.Router) {
		r.Delete("/markers/{id}", func(w http.ResponseWriter, r *http.Request) {
			deleted = chi.URLParam(r, "id")
			w.WriteHeader(http.StatusNoContent)
		})
	})

	require.NoError(t, c.DeleteMarker(context.Background(), "5"))
	assert.Equal(t, "5", deleted)
}

// ---- trip tests ------------------------------------------------------------

func TestClient_CreateTrip_SendsIdempotencyKey(t *testing.T) {
	var key string
	var body map[string]any
	c := newBackend(t, func(r chi.Router) {
		r.Post("/users/{uid}/trip", func(w http.ResponseWriter, r *http.Request) {
			key = r.Header.Get(api.IdempotencyHeader)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			writeJSON(w, http.StatusCreated, map[string]any{"trip_id": 12})
		})
	})
	trip := domain.Trip{
		Title:      "Alps",
		Rating:     5,
		Visibility: domain.VisibilityPublic,
		StartDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
	}

	id, err := c.CreateTrip(context.Background(), trip, "key-1")

	require.NoError(t, err)
	assert.Equal(t, "12", id)
	assert.Equal(t, "key-1", key)
	assert.Equal(t, "Alps", body["trip_title"])
	assert.Equal(t, "2025-06-03", body["end_date"])
}

func TestClient_AddTripMarkers(t *testing.T) {
	var body struct {
		MarkerIDs []string `json:"markerIds"`
	}
	c := newBackend(t, func(r chi.Router) {
		r.Post("/trips/{id}/markers", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "12", chi.URLParam(r, "id"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.WriteHeader(http.StatusCreated)
		})
	})

	require.NoError(t, c.AddTripMarkers(context.Background(), "12", []string{"1", "2"}))
	assert.Equal(t, []string{"1", "2"}, body.MarkerIDs)
}

func TestClient_Trip_UnwrapsEnvelope(t *testing.T) {
	c := newBackend(t, func(r chi.Router) {
		r.Get("/trip/{id}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"trip": map[string]any{
				"trip_title": "Alps", "rating": "4", "visibility": "friends", "start_date": "2025-06-01",
			}})
		})
	})

	got, err := c.Trip(context.Background(), "12")

	require.NoError(t, err)
	assert.Equal(t, "12", got.ID)
	assert.Equal(t, 4, got.Rating)
	assert.Equal(t, domain.VisibilityFriends, got.Visibility)
}

func TestClient_TripImages_AbsoluteURLs(t *testing.T) {
	var base string
	c := newBackend(t, func(r chi.Router) {
		r.Get("/trip/{id}/images", func(w http.ResponseWriter, r *http.Request) {
			base = "http://" + r.Host
			writeJSON(w, http.StatusOK, map[string]any{"images": []string{"/uploads/a.jpg", "uploads/b.jpg"}})
		})
	})

	got, err := c.TripImages(context.Background(), "12")

	require.NoError(t, err)
	assert.Equal(t, []string{base + "/uploads/a.jpg", base + "/uploads/b.jpg"}, got)
}

func TestClient_TripsAndDelete(t *testing.T) {
	var deletedPath string
	c := newBackend(t, func(r chi.Router) {
		r.Get("/users/{uid}/trip", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []map[string]any{
				{"trip_id": 1, "trip_title": "A", "start_date": "2025-01-01"},
				{"trip_id": "2", "trip_title": "B", "start_date": "2024-01-01"},
			})
		})
		r.Delete("/users/{uid}/trip/{id}", func(w http.ResponseWriter, r *http.Request) {
			deletedPath = r.URL.Path
		})
	})
	ctx := context.Background()

	trips, err := c.Trips(ctx)
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, "1", trips[0].ID)
	assert.Equal(t, "2", trips[1].ID)

	require.NoError(t, c.DeleteTrip(ctx, "2"))
	assert.Equal(t, "/users/42/trip/2", deletedPath)
}

func TestClient_UploadTripImages(t *testing.T) {
	dir := t.TempDir()
	photo := filepath.Join(dir, "beach.jpg")
	require.NoError(t, os.WriteFile(photo, []byte("jpeg-bytes"), 0o644))

	var names []string
	var contents []string
	var auth string
	c := newBackend(t, func(r chi.Router) {
		r.Post("/upload-images/{uid}/trip_images/{id}", func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			mr, err := r.MultipartReader()
			require.NoError(t, err)
			for {
				part, err := mr.NextPart()
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				assert.Equal(t, "images", part.FormName())
				b, _ := io.ReadAll(part)
				names = append(names, part.FileName())
				contents = append(contents, string(b))
			}
			w.WriteHeader(http.StatusOK)
		})
	})

	err := c.UploadTripImages(context.Background(), "12", []string{"file://" + photo, photo})

	require.NoError(t, err)
	assert.Equal(t, []string{"beach.jpg", "beach.jpg"}, names)
	assert.Equal(t, []string{"jpeg-bytes", "jpeg-bytes"}, contents)
	assert.Contains(t, auth, "Bearer ")
}

func TestClient_UploadTripImages_MissingFile(t *testing.T) {
	c := newBackend(t, func(r chi.Router) {})

	err := c.UploadTripImages(context.Background(), "12", []string{"/does/not/exist.jpg"})

	assert.ErrorIs(t, err, domain.ErrValidation)
}
