// Package viewport turns domain events (focus a marker, show a trip, zoom)
// into map regions and drives the external map view's transitions.
package viewport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pkordes/travel-diary/internal/domain"
)

const (
	// FocusDelta is the span, in degrees on both axes, used when focusing
	// on a marker.
	FocusDelta = 0.01
	// UserDelta is the span used when centering on the user's location.
	UserDelta = 0.05
	// FocusDuration is the animation length of a focus transition.
	FocusDuration = time.Second
	// DefaultFitDelay gives the view time to mount before a fit request.
	DefaultFitDelay = 500 * time.Millisecond

	ZoomStepCount    = 5
	ZoomInFactor     = 0.8
	ZoomOutFactor    = 1.25
	ZoomStepDuration = 40 * time.Millisecond
)

// EdgePadding is screen padding in pixels around a fitted point set.
type EdgePadding struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// DefaultPadding is applied to every fit-to-coordinates request.
var DefaultPadding = EdgePadding{Top: 50, Right: 50, Bottom: 50, Left: 50}

// MapView is the renderer that actually moves the map.
type MapView interface {
	AnimateToRegion(r domain.Region, d time.Duration)
	FitToCoordinates(points []domain.GeoPoint, padding EdgePadding, animated bool)
}

// LocationProvider reports the device position. It returns an error wrapping
// domain.ErrPermission when location access was denied.
type LocationProvider interface {
	CurrentLocation(ctx context.Context) (domain.GeoPoint, error)
}

// Direction of a smooth zoom.
type Direction string

const (
	ZoomIn  Direction = "in"
	ZoomOut Direction = "out"
)

// ParseDirection accepts "in" or "out" in any case.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case ZoomIn, ZoomOut:
		return d, nil
	}
	return "", fmt.Errorf("%w: zoom direction must be %q or %q", domain.ErrValidation, ZoomIn, ZoomOut)
}

func (d Direction) factor() float64 {
	if d == ZoomIn {
		return ZoomInFactor
	}
	return ZoomOutFactor
}

// DefaultRegion is the view before anything was focused: central Europe.
var DefaultRegion = domain.Region{
	Center:         domain.GeoPoint{Latitude: 48.1486, Longitude: 17.1077},
	LatitudeDelta:  5,
	LongitudeDelta: 5,
}

// Controller owns the current region. All methods are safe for concurrent use.
type Controller struct {
	view     MapView
	location LocationProvider
	fitDelay time.Duration
	log      *slog.Logger

	mu     sync.Mutex
	region domain.Region
	fit    *time.Timer
	fitGen uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithFitDelay overrides DefaultFitDelay.
func WithFitDelay(d time.Duration) Option {
	return func(c *Controller) { c.fitDelay = d }
}

// WithRegion sets the starting region.
func WithRegion(r domain.Region) Option {
	return func(c *Controller) { c.region = r }
}

// WithLogger sets the logger used for deferred fit requests.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// New constructs a Controller driving view.
func New(view MapView, location LocationProvider, opts ...Option) *Controller {
	c := &Controller{
		view:     view,
		location: location,
		fitDelay: DefaultFitDelay,
		log:      slog.Default(),
		region:   DefaultRegion,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Region returns the current region.
func (c *Controller) Region() domain.Region {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.region
}

// SetRegion records a region the user reached by panning or pinching.
// It cancels a pending fit so the user's gesture wins. Degenerate regions
// are stored as given.
func (c *Controller) SetRegion(r domain.Region) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelFitLocked()
	c.region = r
}

// CenterOnUser animates to the device location.
func (c *Controller) CenterOnUser(ctx context.Context) (domain.Region, error) {
	if c.location == nil {
		return domain.Region{}, fmt.Errorf("viewport.Controller.CenterOnUser: %w: no location provider", domain.ErrPermission)
	}
	p, err := c.location.CurrentLocation(ctx)
	if err != nil {
		return domain.Region{}, fmt.Errorf("viewport.Controller.CenterOnUser: %w", err)
	}
	r := domain.Region{Center: p, LatitudeDelta: UserDelta, LongitudeDelta: UserDelta}
	c.animate(r, FocusDuration)
	return r, nil
}

// FocusOnMarker animates to a tight region around m.
func (c *Controller) FocusOnMarker(m domain.Marker) domain.Region {
	r := domain.Region{Center: m.Location, LatitudeDelta: FocusDelta, LongitudeDelta: FocusDelta}
	c.animate(r, FocusDuration)
	return r
}

// FocusOnMarkers shows a set of markers. The map first jumps to the mean
// position with a tight span, then after the fit delay the view is asked
// to fit all points with DefaultPadding. An empty slice does nothing and
// reports false; a single marker behaves exactly like FocusOnMarker.
func (c *Controller) FocusOnMarkers(ms []domain.Marker) (domain.Region, bool) {
	switch len(ms) {
	case 0:
		return c.Region(), false
	case 1:
		return c.FocusOnMarker(ms[0]), true
	}

	points := make([]domain.GeoPoint, len(ms))
	var sumLat, sumLon float64
	for i, m := range ms {
		points[i] = m.Location
		sumLat += m.Location.Latitude
		sumLon += m.Location.Longitude
	}
	n := float64(len(ms))
	initial := domain.Region{
		Center:         domain.GeoPoint{Latitude: sumLat / n, Longitude: sumLon / n},
		LatitudeDelta:  FocusDelta,
		LongitudeDelta: FocusDelta,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelFitLocked()
	c.region = initial
	c.view.AnimateToRegion(initial, FocusDuration)

	c.fitGen++
	gen := c.fitGen
	c.fit = time.AfterFunc(c.fitDelay, func() { c.runFit(gen, points) })
	return initial, true
}

func (c *Controller) runFit(gen uint64, points []domain.GeoPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.fitGen {
		return
	}
	c.fit = nil
	if r, err := FitRegion(points, fitMargin); err == nil {
		c.region = r
	} else {
		c.log.Warn("could not compute fit region", "points", len(points), "error", err)
	}
	c.view.FitToCoordinates(points, DefaultPadding, true)
}

// SmoothZoom scales the current region by five compounded zoom steps and
// issues a single animation to the result, leaving the easing to the view.
func (c *Controller) SmoothZoom(dir Direction) domain.Region {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelFitLocked()
	steps := ZoomSteps(c.region, dir)
	target := steps[len(steps)-1]
	c.region = target
	c.view.AnimateToRegion(target, ZoomStepCount*ZoomStepDuration)
	return target
}

// ZoomSteps returns the ZoomStepCount intermediate regions of a zoom from r,
// each scaled from the previous one. Renderers without native easing can
// animate through them one by one.
func ZoomSteps(r domain.Region, dir Direction) []domain.Region {
	f := dir.factor()
	steps := make([]domain.Region, ZoomStepCount)
	for i := range steps {
		r.LatitudeDelta *= f
		r.LongitudeDelta *= f
		steps[i] = r
	}
	return steps
}

// Close stops a pending fit request.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelFitLocked()
}

func (c *Controller) animate(r domain.Region, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelFitLocked()
	c.region = r
	c.view.AnimateToRegion(r, d)
}

// cancelFitLocked invalidates any scheduled fit. c.mu must be held.
func (c *Controller) cancelFitLocked() {
	c.fitGen++
	if c.fit != nil {
		c.fit.Stop()
		c.fit = nil
	}
}
