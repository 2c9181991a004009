package geo

import (
	"math"

	"github.com/paulmach/orb"

	"etx2mission/pkg/types"
)

// Mean earth radius, metres
const EarthRadius = 6371000.0

// Sphere is a spherical earth model; a zero Radius means EarthRadius.
type Sphere struct {
	Radius float64
}

func (s Sphere) radius() float64 {
	if s.Radius > 0 {
		return s.Radius
	}
	return EarthRadius
}

func toRad(d float64) float64 {
	return d * math.Pi / 180.0
}

func toDeg(r float64) float64 {
	return r * 180.0 / math.Pi
}

// Distance returns the haversine great-circle distance in metres.
func (s Sphere) Distance(a, b types.GeoPoint) float64 {
	p1 := toRad(a.Lat)
	p2 := toRad(b.Lat)
	dp := p2 - p1
	dl := toRad(b.Lon - a.Lon)
	h := math.Sin(dp/2)*math.Sin(dp/2) + math.Cos(p1)*math.Cos(p2)*math.Sin(dl/2)*math.Sin(dl/2)
	if h > 1 {
		h = 1
	}
	return 2 * s.radius() * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Bearing returns the initial great-circle bearing from a to b, [0,360).
func (s Sphere) Bearing(a, b types.GeoPoint) float64 {
	p1 := toRad(a.Lat)
	p2 := toRad(b.Lat)
	dl := toRad(b.Lon - a.Lon)
	x := math.Sin(dl) * math.Cos(p2)
	y := math.Cos(p1)*math.Sin(p2) - math.Sin(p1)*math.Cos(p2)*math.Cos(dl)
	brg := math.Mod(toDeg(math.Atan2(x, y))+360.0, 360.0)
	if brg >= 360.0 {
		brg = 0
	}
	return brg
}

// Destination returns the point reached travelling dist metres from p on
// the initial bearing brg (degrees).
func (s Sphere) Destination(p types.GeoPoint, brg, dist float64) types.GeoPoint {
	d := dist / s.radius()
	p1 := toRad(p.Lat)
	l1 := toRad(p.Lon)
	b := toRad(brg)
	p2 := math.Asin(math.Sin(p1)*math.Cos(d) + math.Cos(p1)*math.Sin(d)*math.Cos(b))
	l2 := l1 + math.Atan2(math.Sin(b)*math.Sin(d)*math.Cos(p1), math.Cos(d)-math.Sin(p1)*math.Sin(p2))
	lon := math.Mod(toDeg(l2)+540.0, 360.0) - 180.0
	return types.GeoPoint{Lat: toDeg(p2), Lon: lon}
}

var defsphere Sphere

func Distance(a, b types.GeoPoint) float64 {
	return defsphere.Distance(a, b)
}

func Bearing(a, b types.GeoPoint) float64 {
	return defsphere.Bearing(a, b)
}

func Destination(p types.GeoPoint, brg, dist float64) types.GeoPoint {
	return defsphere.Destination(p, brg, dist)
}

// TurnAngle returns the absolute heading change between two bearings, [0,180].
func TurnAngle(b0, b1 float64) float64 {
	d := math.Mod(b1-b0+540.0, 360.0)
	if d < 0 {
		d += 360.0
	}
	return math.Abs(d - 180.0)
}

// Csedist returns course (degrees) and distance (metres) between two positions.
func Csedist(lat1, lon1, lat2, lon2 float64) (float64, float64) {
	a := types.GeoPoint{Lat: lat1, Lon: lon1}
	b := types.GeoPoint{Lat: lat2, Lon: lon2}
	return Bearing(a, b), Distance(a, b)
}

// ValidPoint rejects NaN, out of range and null island positions.
func ValidPoint(p types.GeoPoint) bool {
	switch {
	case math.IsNaN(p.Lat), math.IsNaN(p.Lon), math.IsInf(p.Lat, 0), math.IsInf(p.Lon, 0):
		return false
	case p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180:
		return false
	case p.Lat == 0 && p.Lon == 0:
		return false
	}
	return true
}

func ToOrb(p types.GeoPoint) orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

func OrbBound(b types.Bounds) orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// InBounds is inclusive of the box edges
func InBounds(b types.Bounds, p types.GeoPoint) bool {
	return OrbBound(b).Contains(ToOrb(p))
}

// Extent returns the bounding box of a set of points
func Extent(pts []types.GeoPoint) (types.Bounds, bool) {
	if len(pts) == 0 {
		return types.Bounds{}, false
	}
	bnd := orb.Bound{Min: ToOrb(pts[0]), Max: ToOrb(pts[0])}
	for _, p := range pts[1:] {
		bnd = bnd.Extend(ToOrb(p))
	}
	return types.Bounds{MinLat: bnd.Min.Lat(), MinLon: bnd.Min.Lon(), MaxLat: bnd.Max.Lat(), MaxLon: bnd.Max.Lon()}, true
}
