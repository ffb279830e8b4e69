package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkordes/travel-diary/internal/domain"
	"github.com/pkordes/travel-diary/internal/geo"
	"github.com/pkordes/travel-diary/internal/tilecache"
)

// CacheTileResponse is the body of POST /tiles.
type CacheTileResponse struct {
	Tile       domain.TileAddress `json:"tile"`
	Downloaded bool               `json:"downloaded"`
}

// PrefetchRequest is the body of POST /tiles/prefetch. Both fields are
// optional: the region defaults to the current viewport and the zoom to the
// tile zoom that matches the region.
type PrefetchRequest struct {
	Region *domain.Region `json:"region"`
	Zoom   *int           `json:"zoom"`
}

// ClearTilesResponse is the body of DELETE /tiles.
type ClearTilesResponse struct {
	Removed int `json:"removed"`
}

// CacheTile handles POST /tiles. It answers 201 when the tile was fetched
// and 200 when it was already on disk.
func (s *Server) CacheTile(w http.ResponseWriter, r *http.Request) {
	var t domain.TileAddress
	if !decodeJSON(w, r, &t) {
		return
	}
	if !t.Valid() {
		s.writeError(w, r, fmt.Errorf("%w: tile %s is outside the grid", domain.ErrValidation, t))
		return
	}

	downloaded, err := s.tiles.CacheTile(r.Context(), t)
	if err != nil {
		// The tile server is not the backend; a failed download is reported
		// as a gateway error rather than as "offline".
		s.log.WarnContext(r.Context(), "tile download failed", "tile", t.String(), "error", err)
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: ErrorDetail{
			Code: "tile_unavailable", Message: "the tile could not be downloaded",
		}})
		return
	}
	status := http.StatusOK
	if downloaded {
		status = http.StatusCreated
	}
	writeJSON(w, status, CacheTileResponse{Tile: t, Downloaded: downloaded})
}

// PrefetchTiles handles POST /tiles/prefetch. An empty body is accepted.
func (s *Server) PrefetchTiles(w http.ResponseWriter, r *http.Request) {
	var req PrefetchRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	region := s.view.Region()
	if req.Region != nil {
		region = *req.Region
	}
	zoom := geo.TileZoomForRegion(region)
	if req.Zoom != nil {
		zoom = *req.Zoom
	}

	res, err := s.tiles.Prefetch(r.Context(), region, zoom)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListTiles handles GET /tiles. The cached tiles are returned as a GeoJSON
// FeatureCollection of tile outlines so the UI can draw offline coverage.
func (s *Server) ListTiles(w http.ResponseWriter, r *http.Request) {
	tiles, err := s.tiles.LoadCachedTiles()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(tilecache.FeatureCollection(tiles))
}

// GetTileStats handles GET /tiles/stats.
func (s *Server) GetTileStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.tiles.Stats()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ClearTiles handles DELETE /tiles.
func (s *Server) ClearTiles(w http.ResponseWriter, r *http.Request) {
	n, err := s.tiles.ClearCache()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ClearTilesResponse{Removed: n})
}
