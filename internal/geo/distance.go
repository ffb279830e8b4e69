package geo

import (
	"sort"

	"github.com/golang/geo/s2"

	"github.com/pkordes/travel-diary/internal/domain"
)

// EarthRadiusMeters is the mean Earth radius used for distances.
const EarthRadiusMeters = 6371000.0

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b domain.GeoPoint) float64 {
	p1 := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	p2 := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// SortByDistance orders markers nearest-first relative to origin.
// The sort is stable so equidistant markers keep their stored order.
func SortByDistance(markers []domain.Marker, origin domain.GeoPoint) {
	sort.SliceStable(markers, func(i, j int) bool {
		return Distance(origin, markers[i].Location) < Distance(origin, markers[j].Location)
	})
}
