package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/pkordes/travel-diary/internal/domain"
	"github.com/pkordes/travel-diary/internal/geo"
	"github.com/pkordes/travel-diary/internal/viewport"
)

// ViewportResponse is the body of GET /viewport and of every call that moves
// the camera. Commands holds the map view calls recorded after ?since.
type ViewportResponse struct {
	Region   domain.Region      `json:"region"`
	Zoom     int                `json:"zoom"`
	Commands []viewport.Command `json:"commands,omitempty"`
}

// FocusRequest is the body of POST /viewport/focus.
type FocusRequest struct {
	MarkerIDs []string `json:"marker_ids"`
}

// ZoomRequest is the body of POST /viewport/zoom.
type ZoomRequest struct {
	Direction string `json:"direction"`
}

func viewportResponse(r domain.Region) ViewportResponse {
	return ViewportResponse{Region: r, Zoom: geo.ZoomForRegion(r)}
}

// GetViewport handles GET /viewport?since=<seq>.
// The renderer polls it and replays the returned commands in order.
func (s *Server) GetViewport(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if raw := r.URL.Query().Get("since"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: since must be a non-negative integer", domain.ErrValidation))
			return
		}
		since = v
	}
	resp := viewportResponse(s.view.Region())
	resp.Commands = s.commands.Since(since)
	writeJSON(w, http.StatusOK, resp)
}

// PutViewport handles PUT /viewport: the user panned or pinched the map.
func (s *Server) PutViewport(w http.ResponseWriter, r *http.Request) {
	var region domain.Region
	if !decodeJSON(w, r, &region) {
		return
	}
	s.view.SetRegion(region)
	writeJSON(w, http.StatusOK, viewportResponse(region))
}

// FocusViewport handles POST /viewport/focus. Each id is resolved through
// the coordinator so provisional offline markers can be focused too.
func (s *Server) FocusViewport(w http.ResponseWriter, r *http.Request) {
	var req FocusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.MarkerIDs) == 0 {
		s.writeError(w, r, fmt.Errorf("%w: marker_ids must not be empty", domain.ErrValidation))
		return
	}

	markers := make([]domain.Marker, 0, len(req.MarkerIDs))
	for _, id := range req.MarkerIDs {
		m, err := s.coord.GetMarker(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		markers = append(markers, m)
	}

	region, _ := s.view.FocusOnMarkers(markers)
	writeJSON(w, http.StatusOK, viewportResponse(region))
}

// ZoomViewport handles POST /viewport/zoom.
func (s *Server) ZoomViewport(w http.ResponseWriter, r *http.Request) {
	var req ZoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	dir, err := viewport.ParseDirection(req.Direction)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewportResponse(s.view.SmoothZoom(dir)))
}

// CenterViewportOnUser handles POST /viewport/user.
func (s *Server) CenterViewportOnUser(w http.ResponseWriter, r *http.Request) {
	region, err := s.view.CenterOnUser(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewportResponse(region))
}

// PutLocation handles PUT /viewport/location: the UI reports the device
// position used by CenterViewportOnUser.
func (s *Server) PutLocation(w http.ResponseWriter, r *http.Request) {
	var p domain.GeoPoint
	if !decodeJSON(w, r, &p) {
		return
	}
	if err := s.location.Set(p); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
