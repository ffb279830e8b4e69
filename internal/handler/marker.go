package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/travel-diary/internal/domain"
	"github.com/pkordes/travel-diary/internal/geo"
	"github.com/pkordes/travel-diary/internal/service"
)

// MarkerListResponse is the body of GET /markers.
type MarkerListResponse struct {
	Data       []Marker       `json:"data"`
	Pagination Pagination     `json:"pagination"`
	Source     service.Source `json:"source"`
}

// CreateMarkerRequest is the body of POST /markers.
type CreateMarkerRequest struct {
	Title       string             `json:"marker_title"`
	Description string             `json:"marker_description"`
	Location    *domain.GeoPoint   `json:"location"`
	TripDate    openapi_types.Date `json:"trip_date"`
}

// ListMarkers handles GET /markers.
// With ?near=lat,lon the markers are ordered by distance from that point
// before paging.
func (s *Server) ListMarkers(w http.ResponseWriter, r *http.Request) {
	params, err := paginationFromQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var origin *domain.GeoPoint
	if near := r.URL.Query().Get("near"); near != "" {
		p, err := parsePoint(near)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		origin = &p
	}

	list, err := s.coord.LoadMarkersForUser(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if origin != nil {
		geo.SortByDistance(list.Markers, *origin)
	}

	writeJSON(w, http.StatusOK, MarkerListResponse{
		Data:       markersToResponse(domain.Paginate(list.Markers, params)),
		Pagination: Pagination{Page: params.Page, Limit: params.Limit, Total: len(list.Markers)},
		Source:     list.Source,
	})
}

// CreateMarker handles POST /markers. Offline the marker is stored locally
// under a provisional id; the response carries whichever id was assigned.
func (s *Server) CreateMarker(w http.ResponseWriter, r *http.Request) {
	var req CreateMarkerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Location == nil {
		s.writeError(w, r, fmt.Errorf("%w: location is required", domain.ErrValidation))
		return
	}

	m, err := s.coord.SaveMarker(r.Context(), domain.Marker{
		Title:       req.Title,
		Description: req.Description,
		Location:    *req.Location,
		TripDate:    req.TripDate.Time,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, markerToResponse(m))
}

// GetMarker handles GET /markers/{id}.
func (s *Server) GetMarker(w http.ResponseWriter, r *http.Request) {
	m, err := s.coord.GetMarker(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, markerToResponse(m))
}

// DeleteMarker handles DELETE /markers/{id}.
func (s *Server) DeleteMarker(w http.ResponseWriter, r *http.Request) {
	if err := s.coord.DeleteMarker(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
