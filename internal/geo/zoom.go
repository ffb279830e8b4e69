package geo

import (
	"math"

	"github.com/pkordes/travel-diary/internal/domain"
)

// ZoomForRegion derives the zoom level implied by a viewport:
// round(log2(360 / longitudeDelta)). It is the inverse of the tile-width
// formula, so a tile fetched at this zoom spans roughly the visible width.
// The result is not clamped; a non-positive delta yields MaxZoom.
func ZoomForRegion(r domain.Region) int {
	if r.LongitudeDelta <= 0 {
		return MaxZoom
	}
	return int(math.Round(math.Log2(360 / r.LongitudeDelta)))
}

// TileZoomForRegion is ZoomForRegion clamped to the zoom levels a tile server
// actually serves.
func TileZoomForRegion(r domain.Region) int {
	return clamp(ZoomForRegion(r), 0, MaxZoom)
}
