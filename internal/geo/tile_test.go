package geo_test

import (
	"math"
	"testing"

	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/travel-diary/internal/domain"
	"github.com/pkordes/travel-diary/internal/geo"
)

// TestTileRoundTrip checks that projecting the centre of every tile's bounds
// back to a tile lands on the same tile, for every tile up to zoom 6 and a
// sample of deeper zooms.
func TestTileRoundTrip(t *testing.T) {
	check := func(x, y, z int) {
		b := geo.TileBounds(domain.TileAddress{Z: z, X: x, Y: y})
		c := b.Center()
		gx, gy := geo.LatLonToTile(c.Latitude, c.Longitude, z)
		if gx != x || gy != y {
			t.Fatalf("z=%d: tile (%d,%d) round-tripped to (%d,%d)", z, x, y, gx, gy)
		}
	}

	for z := 0; z <= 6; z++ {
		n := 1 << z
		for x := 0; x < n; x++ {
			for y := 0; y < n; y++ {
				check(x, y, z)
			}
		}
	}

	for _, z := range []int{10, 15, 19} {
		n := 1 << z
		for _, x := range []int{0, 1, n / 3, n / 2, n - 1} {
			for _, y := range []int{0, 1, n / 3, n / 2, n - 1} {
				check(x, y, z)
			}
		}
	}
}

func TestTileToLatLngBounds_WholeWorld(t *testing.T) {
	sw, ne := geo.TileToLatLngBounds(0, 0, 0)

	assert.InDelta(t, -180, sw.Longitude, 1e-9)
	assert.InDelta(t, 180, ne.Longitude, 1e-9)
	assert.InDelta(t, 85.0511287798, ne.Latitude, 1e-6)
	assert.InDelta(t, -85.0511287798, sw.Latitude, 1e-6)
}

// TestTileToLatLngBounds_MatchesOrb cross-checks the hand-written inverse
// projection against orb's maptile implementation.
func TestTileToLatLngBounds_MatchesOrb(t *testing.T) {
	for _, tc := range []struct{ x, y, z int }{
		{0, 0, 1}, {1, 1, 1}, {2200, 1343, 12}, {70406, 42987, 17},
	} {
		sw, ne := geo.TileToLatLngBounds(tc.x, tc.y, tc.z)
		want := maptile.New(uint32(tc.x), uint32(tc.y), maptile.Zoom(tc.z)).Bound()

		assert.InDelta(t, want.Min.Lon(), sw.Longitude, 1e-6)
		assert.InDelta(t, want.Min.Lat(), sw.Latitude, 1e-6)
		assert.InDelta(t, want.Max.Lon(), ne.Longitude, 1e-6)
		assert.InDelta(t, want.Max.Lat(), ne.Latitude, 1e-6)
	}
}

func TestLatLonToTile_KnownPoint(t *testing.T) {
	// Bratislava castle at zoom 12.
	x, y := geo.LatLonToTile(48.1423, 17.1000, 12)

	assert.Equal(t, 2242, x)
	assert.Equal(t, 1421, y)
}

func TestLatLonToTile_ClampsEdges(t *testing.T) {
	x, y := geo.LatLonToTile(-89.9, 180, 4)

	assert.Equal(t, 15, x)
	assert.Equal(t, 15, y)

	x, y = geo.LatLonToTile(89.9, -180, 4)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)
}

func TestZoomForRegion(t *testing.T) {
	assert.Equal(t, 0, geo.ZoomForRegion(domain.Region{LongitudeDelta: 360}))
	assert.Equal(t, 1, geo.ZoomForRegion(domain.Region{LongitudeDelta: 180}))
	assert.Equal(t, 15, geo.ZoomForRegion(domain.Region{LongitudeDelta: 0.01}))
}

// TestZoomForRegion_Monotonic verifies that widening the viewport never
// increases the implied zoom.
func TestZoomForRegion_Monotonic(t *testing.T) {
	prev := math.MaxInt
	for delta := 0.0005; delta <= 720; delta *= 1.07 {
		z := geo.ZoomForRegion(domain.Region{LongitudeDelta: delta})
		require.LessOrEqual(t, z, prev, "zoom increased at delta=%f", delta)
		prev = z
	}
}

func TestTileZoomForRegion_Clamped(t *testing.T) {
	assert.Equal(t, geo.MaxZoom, geo.TileZoomForRegion(domain.Region{LongitudeDelta: 1e-9}))
	assert.Equal(t, 0, geo.TileZoomForRegion(domain.Region{LongitudeDelta: 5000}))
}

func TestTilesCoveringRegion(t *testing.T) {
	r := domain.Region{
		Center:         domain.GeoPoint{Latitude: 48.1486, Longitude: 17.1077},
		LatitudeDelta:  0.05,
		LongitudeDelta: 0.05,
	}

	tiles, err := geo.TilesCoveringRegion(r, 12)

	require.NoError(t, err)
	require.NotEmpty(t, tiles)
	assert.Contains(t, tiles, geo.TileAt(r.Center, 12))
	for _, tile := range tiles {
		assert.True(t, tile.Valid())
		assert.Equal(t, 12, tile.Z)
	}
}

func TestTilesCoveringRegion_TooMany(t *testing.T) {
	r := domain.Region{
		Center:         domain.GeoPoint{Latitude: 0, Longitude: 0},
		LatitudeDelta:  60,
		LongitudeDelta: 60,
	}

	_, err := geo.TilesCoveringRegion(r, 12)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestParseTileFilename(t *testing.T) {
	tile, ok := geo.ParseTileFilename("12_2242_1421.png")
	require.True(t, ok)
	assert.Equal(t, domain.TileAddress{Z: 12, X: 2242, Y: 1421}, tile)

	for _, name := range []string{"12_2242.png", "a_b_c.png", "1_5_0.png", "12_1_1.jpg", ".tile-123"} {
		_, ok := geo.ParseTileFilename(name)
		assert.False(t, ok, name)
	}
}

func TestBoundsPolygon_Closed(t *testing.T) {
	poly := geo.TileBounds(domain.TileAddress{Z: 3, X: 4, Y: 2}).Polygon()

	require.Len(t, poly, 1)
	ring := poly[0]
	require.Len(t, ring, 5)
	assert.True(t, ring.Closed())
}
