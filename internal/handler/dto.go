package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/travel-diary/internal/domain"
)

// Marker is the JSON shape of a marker in responses and create requests.
type Marker struct {
	ID          string             `json:"marker_id,omitempty"`
	Title       string             `json:"marker_title"`
	Description string             `json:"marker_description"`
	Location    domain.GeoPoint    `json:"location"`
	TripDate    openapi_types.Date `json:"trip_date"`
}

func markerToResponse(m domain.Marker) Marker {
	return Marker{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Location:    m.Location,
		TripDate:    openapi_types.Date{Time: m.TripDate},
	}
}

func markersToResponse(ms []domain.Marker) []Marker {
	out := make([]Marker, len(ms))
	for i, m := range ms {
		out[i] = markerToResponse(m)
	}
	return out
}

// Trip is the JSON shape of a trip. Start and end dates are derived from the
// trip's markers and are never accepted on input.
type Trip struct {
	ID          string             `json:"trip_id"`
	Title       string             `json:"trip_title"`
	Description string             `json:"trip_description"`
	Rating      int                `json:"rating"`
	Visibility  domain.Visibility  `json:"visibility"`
	StartDate   openapi_types.Date `json:"start_date"`
	EndDate     openapi_types.Date `json:"end_date"`
}

func tripToResponse(t domain.Trip) Trip {
	return Trip{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Rating:      t.Rating,
		Visibility:  t.Visibility,
		StartDate:   openapi_types.Date{Time: t.StartDate},
		EndDate:     openapi_types.Date{Time: t.EndDate},
	}
}

// Pagination is the paging envelope of list responses.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// paginationFromQuery reads ?page and ?limit. Missing values fall back to
// the defaults of domain.NewPaginationParams; non-numeric values are rejected.
func paginationFromQuery(r *http.Request) (domain.PaginationParams, error) {
	page, err := optionalInt(r, "page")
	if err != nil {
		return domain.PaginationParams{}, err
	}
	limit, err := optionalInt(r, "limit")
	if err != nil {
		return domain.PaginationParams{}, err
	}
	return domain.NewPaginationParams(page, limit), nil
}

func optionalInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, name)
	}
	return &v, nil
}

// parsePoint parses "lat,lon".
func parsePoint(s string) (domain.GeoPoint, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return domain.GeoPoint{}, fmt.Errorf("%w: expected \"lat,lon\", got %q", domain.ErrValidation, s)
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	p := domain.GeoPoint{Latitude: lat, Longitude: lon}
	if errLat != nil || errLon != nil || !p.Valid() {
		return domain.GeoPoint{}, fmt.Errorf("%w: invalid coordinate %q", domain.ErrValidation, s)
	}
	return p, nil
}
