package domain

import "fmt"

// GeoPoint is a WGS84 coordinate in degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point lies within -90..90 / -180..180.
func (p GeoPoint) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// Region is a map viewport: a center plus the angular span shown on screen.
// Both deltas are expected to be positive; nothing clamps them.
type Region struct {
	Center         GeoPoint `json:"center"`
	LatitudeDelta  float64  `json:"latitudeDelta"`
	LongitudeDelta float64  `json:"longitudeDelta"`
}

// TileAddress identifies a slippy-map tile. Valid tiles satisfy 0 <= X,Y < 2^Z.
type TileAddress struct {
	Z int `json:"z"`
	X int `json:"x"`
	Y int `json:"y"`
}

// Valid reports whether X and Y fall inside the tile grid for zoom Z.
func (t TileAddress) Valid() bool {
	if t.Z < 0 || t.Z > 30 {
		return false
	}
	n := 1 << t.Z
	return t.X >= 0 && t.X < n && t.Y >= 0 && t.Y < n
}

// Filename returns the cache file name for the tile: "{z}_{x}_{y}.png".
func (t TileAddress) Filename() string {
	return fmt.Sprintf("%d_%d_%d.png", t.Z, t.X, t.Y)
}

func (t TileAddress) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}
