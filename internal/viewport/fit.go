package viewport

import (
	"fmt"

	"github.com/golang/geo/s2"

	"github.com/pkordes/travel-diary/internal/domain"
)

// fitMargin is the fraction of the span added on each side when the
// controller computes a fit region itself.
const fitMargin = 0.1

// FitRegion returns the smallest region containing points, grown by margin
// (a fraction of the span) on every side. The bound is computed on the
// sphere, so point sets crossing the antimeridian get the short span. Spans
// never drop below FocusDelta.
func FitRegion(points []domain.GeoPoint, margin float64) (domain.Region, error) {
	if len(points) == 0 {
		return domain.Region{}, fmt.Errorf("viewport.FitRegion: %w: no points", domain.ErrValidation)
	}
	rect := s2.EmptyRect()
	for _, p := range points {
		if !p.Valid() {
			return domain.Region{}, fmt.Errorf("viewport.FitRegion: %w: invalid point %v", domain.ErrValidation, p)
		}
		rect = rect.AddPoint(s2.LatLngFromDegrees(p.Latitude, p.Longitude))
	}

	center := rect.Center()
	size := rect.Size()
	latDelta := max(size.Lat.Degrees()*(1+2*margin), FocusDelta)
	lonDelta := max(size.Lng.Degrees()*(1+2*margin), FocusDelta)

	return domain.Region{
		Center:         domain.GeoPoint{Latitude: center.Lat.Degrees(), Longitude: center.Lng.Degrees()},
		LatitudeDelta:  min(latDelta, 180),
		LongitudeDelta: min(lonDelta, 360),
	}, nil
}
