// Package geo holds the pure coordinate transforms of the map core:
// slippy-map tile addressing, tile bounding boxes, and zoom derivation.
// Every function here is stateless and safe for concurrent use.
package geo

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/paulmach/orb"

	"github.com/pkordes/travel-diary/internal/domain"
)

// MaxZoom is the deepest zoom level served by the OSM standard tile layer.
const MaxZoom = 19

// maxMercatorLat is the latitude at which Web Mercator's square world ends.
const maxMercatorLat = 85.05112878

// maxCoverTiles bounds TilesCoveringRegion so a careless prefetch at a deep
// zoom cannot queue thousands of downloads.
const maxCoverTiles = 512

// Bounds is the geographic box covered by one tile.
type Bounds struct {
	SouthWest domain.GeoPoint `json:"southwest"`
	NorthEast domain.GeoPoint `json:"northeast"`
}

// Center returns the arithmetic midpoint of the box.
func (b Bounds) Center() domain.GeoPoint {
	return domain.GeoPoint{
		Latitude:  (b.SouthWest.Latitude + b.NorthEast.Latitude) / 2,
		Longitude: (b.SouthWest.Longitude + b.NorthEast.Longitude) / 2,
	}
}

// Bound converts the box to an orb.Bound (points are lon/lat).
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.SouthWest.Longitude, b.SouthWest.Latitude},
		Max: orb.Point{b.NorthEast.Longitude, b.NorthEast.Latitude},
	}
}

// Polygon returns the closed ring SW, SE, NE, NW, SW that the external map
// view draws as the overlay for a cached tile.
func (b Bounds) Polygon() orb.Polygon {
	w, s := b.SouthWest.Longitude, b.SouthWest.Latitude
	e, n := b.NorthEast.Longitude, b.NorthEast.Latitude
	return orb.Polygon{orb.Ring{{w, s}, {e, s}, {e, n}, {w, n}, {w, s}}}
}

// TileToLatLngBounds returns the south-west and north-east corners of tile
// (x, y) at zoom z using the spherical-Mercator inverse.
func TileToLatLngBounds(x, y, z int) (southwest, northeast domain.GeoPoint) {
	n := math.Exp2(float64(z))
	west := float64(x)/n*360 - 180
	east := float64(x+1)/n*360 - 180
	north := tileLatitude(float64(y), n)
	south := tileLatitude(float64(y+1), n)
	return domain.GeoPoint{Latitude: south, Longitude: west},
		domain.GeoPoint{Latitude: north, Longitude: east}
}

// TileBounds is TileToLatLngBounds for a TileAddress.
func TileBounds(t domain.TileAddress) Bounds {
	sw, ne := TileToLatLngBounds(t.X, t.Y, t.Z)
	return Bounds{SouthWest: sw, NorthEast: ne}
}

func tileLatitude(y, n float64) float64 {
	return math.Atan(math.Sinh(math.Pi-2*math.Pi*y/n)) * 180 / math.Pi
}

// LatLonToTile projects a coordinate to the tile containing it at zoom z.
// Latitudes beyond the Mercator limit are clamped, and the result is clamped
// into the tile grid so that lon=180 or lat=-85.06 still map to a real tile.
func LatLonToTile(lat, lon float64, z int) (x, y int) {
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	n := math.Exp2(float64(z))
	latRad := lat * math.Pi / 180

	fx := (lon + 180) / 360 * n
	fy := (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n

	last := int(n) - 1
	return clamp(int(math.Floor(fx)), 0, last), clamp(int(math.Floor(fy)), 0, last)
}

// TileAt is LatLonToTile returning a TileAddress.
func TileAt(p domain.GeoPoint, z int) domain.TileAddress {
	x, y := LatLonToTile(p.Latitude, p.Longitude, z)
	return domain.TileAddress{Z: z, X: x, Y: y}
}

// TilesCoveringRegion lists every tile at zoom z that intersects the region,
// row by row from the north-west corner.
func TilesCoveringRegion(r domain.Region, z int) ([]domain.TileAddress, error) {
	if z < 0 || z > MaxZoom {
		return nil, fmt.Errorf("%w: zoom %d outside 0..%d", domain.ErrValidation, z, MaxZoom)
	}
	if r.LatitudeDelta <= 0 || r.LongitudeDelta <= 0 {
		return nil, fmt.Errorf("%w: region deltas must be positive", domain.ErrValidation)
	}

	north := r.Center.Latitude + r.LatitudeDelta/2
	south := r.Center.Latitude - r.LatitudeDelta/2
	west := math.Max(-180, r.Center.Longitude-r.LongitudeDelta/2)
	east := math.Min(180, r.Center.Longitude+r.LongitudeDelta/2)

	x0, y0 := LatLonToTile(north, west, z)
	x1, y1 := LatLonToTile(south, east, z)

	count := (x1 - x0 + 1) * (y1 - y0 + 1)
	if count > maxCoverTiles {
		return nil, fmt.Errorf("%w: region needs %d tiles at zoom %d (limit %d)",
			domain.ErrValidation, count, z, maxCoverTiles)
	}

	tiles := make([]domain.TileAddress, 0, count)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			tiles = append(tiles, domain.TileAddress{Z: z, X: x, Y: y})
		}
	}
	return tiles, nil
}

var tileFilename = regexp.MustCompile(`^(\d+)_(\d+)_(\d+)\.png$`)

// ParseTileFilename is the inverse of TileAddress.Filename. It reports false
// for names that do not match "{z}_{x}_{y}.png" or address an invalid tile.
func ParseTileFilename(name string) (domain.TileAddress, bool) {
	m := tileFilename.FindStringSubmatch(name)
	if m == nil {
		return domain.TileAddress{}, false
	}
	z, errZ := strconv.Atoi(m[1])
	x, errX := strconv.Atoi(m[2])
	y, errY := strconv.Atoi(m[3])
	if errZ != nil || errX != nil || errY != nil {
		return domain.TileAddress{}, false
	}
	t := domain.TileAddress{Z: z, X: x, Y: y}
	if !t.Valid() {
		return domain.TileAddress{}, false
	}
	return t, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
