package mission

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON renders the mission as a FeatureCollection: the flight path
// followed by one point per waypoint.
func (d *Document) GeoJSON() ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	if len(d.waypoints) > 1 {
		ls := make(orb.LineString, 0, len(d.waypoints))
		for _, wp := range d.waypoints {
			ls = append(ls, orb.Point{wp.Point.Lon, wp.Point.Lat})
		}
		f := geojson.NewFeature(ls)
		f.Properties["name"] = "path"
		if d.Generator != "" {
			f.Properties["generator"] = d.Generator
		}
		fc.Append(f)
	}
	for _, wp := range d.waypoints {
		f := geojson.NewFeature(orb.Point{wp.Point.Lon, wp.Point.Lat})
		f.Properties["no"] = wp.No
		f.Properties["alt"] = wp.Alt
		f.Properties["speed"] = wp.Speed
		f.Properties["terminal"] = wp.Terminal
		fc.Append(f)
	}
	return fc.MarshalJSON()
}
