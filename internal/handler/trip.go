package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/travel-diary/internal/domain"
	"github.com/pkordes/travel-diary/internal/service"
)

// IdempotencyKeyHeader lets a client retry POST /trips without creating the
// trip twice on the backend.
const IdempotencyKeyHeader = "Idempotency-Key"

// TripListResponse is the body of GET /trips.
type TripListResponse struct {
	Data       []Trip         `json:"data"`
	Pagination Pagination     `json:"pagination"`
	Source     service.Source `json:"source"`
}

// CreateTripRequest is the body of POST /trips.
type CreateTripRequest struct {
	Title       string            `json:"trip_title"`
	Description string            `json:"trip_description"`
	Rating      int               `json:"rating"`
	Visibility  domain.Visibility `json:"visibility"`
	MarkerIDs   []string          `json:"marker_ids"`
	Photos      []string          `json:"photos"`
}

// TripImagesResponse is the body of GET /trips/{id}/images.
type TripImagesResponse struct {
	TripID string   `json:"trip_id"`
	Images []string `json:"images"`
}

// ListTrips handles GET /trips?sort=asc|desc&page=&limit=.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	order, err := service.ParseSortOrder(r.URL.Query().Get("sort"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	params, err := paginationFromQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.coord.LoadTrips(r.Context(), order)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	page := domain.Paginate(list.Trips, params)
	data := make([]Trip, len(page))
	for i, t := range page {
		data[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, TripListResponse{
		Data:       data,
		Pagination: Pagination{Page: params.Page, Limit: params.Limit, Total: len(list.Trips)},
		Source:     list.Source,
	})
}

// CreateTrip handles POST /trips.
// A failed online creation answers with the step that failed and whether the
// half-created trip was rolled back (see writeError).
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req CreateTripRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := s.coord.CreateTrip(r.Context(), service.TripDraft{
		Trip: domain.Trip{
			Title:       req.Title,
			Description: req.Description,
			Rating:      req.Rating,
			Visibility:  req.Visibility,
		},
		MarkerIDs:      req.MarkerIDs,
		Photos:         req.Photos,
		IdempotencyKey: r.Header.Get(IdempotencyKeyHeader),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(t))
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	t, err := s.coord.GetTrip(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(t))
}

// ListTripMarkers handles GET /trips/{id}/markers.
func (s *Server) ListTripMarkers(w http.ResponseWriter, r *http.Request) {
	ms, err := s.coord.TripMarkers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, markersToResponse(ms))
}

// ListTripImages handles GET /trips/{id}/images.
func (s *Server) ListTripImages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	images, err := s.coord.TripImages(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if images == nil {
		images = []string{}
	}
	writeJSON(w, http.StatusOK, TripImagesResponse{TripID: id, Images: images})
}

// DeleteTrip handles DELETE /trips/{id}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	if err := s.coord.DeleteTrip(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
