package tilecache

import (
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection renders cached tiles as GeoJSON polygons, one feature per
// tile, with z/x/y as properties. This is what the external map view draws
// as the "available offline" overlay.
func FeatureCollection(tiles []TileData) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, t := range tiles {
		f := geojson.NewFeature(t.Bounds.Polygon())
		f.Properties["z"] = t.Tile.Z
		f.Properties["x"] = t.Tile.X
		f.Properties["y"] = t.Tile.Y
		fc.Append(f)
	}
	return fc
}
