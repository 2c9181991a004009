package types

import (
	"fmt"
	"sort"
	"strings"
)

// GeoPoint is a WGS84 position in decimal degrees
type GeoPoint struct {
	Lat float64
	Lon float64
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%.7f %.7f", p.Lat, p.Lon)
}

// Sample is one validated telemetry row. Alt is metres, Speed (if known) cm/s.
type Sample struct {
	Point GeoPoint
	Alt   float64
	Speed *int
	Index int // source record index
}

// Waypoint is a decimated mission point, numbered from 1.
type Waypoint struct {
	No       int
	Point    GeoPoint
	Alt      int
	Speed    int
	Terminal bool
}

type Bounds struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Geofence describes the spatial acceptance rules. A zero OriginRadius
// disables the jump check, a nil Box disables the bounding box.
type Geofence struct {
	Name         string
	OriginRadius float64
	Box          *Bounds
}

var (
	GeofenceNone   = Geofence{Name: "none"}
	GeofenceGlobal = Geofence{Name: "global", OriginRadius: 500000}
	GeofenceConus  = Geofence{
		Name:         "conus",
		OriginRadius: 50000,
		Box:          &Bounds{MinLat: 24.396308, MinLon: -125.0, MaxLat: 49.384358, MaxLon: -66.93457},
	}
)

func GeofenceByName(name string) (Geofence, bool) {
	switch strings.ToLower(name) {
	case "", "global":
		return GeofenceGlobal, true
	case "conus", "us":
		return GeofenceConus, true
	case "none", "off":
		return GeofenceNone, true
	}
	return Geofence{}, false
}

// TurnPolicy returns the effective spacing for a candidate given the base
// spacing and the turn angle (degrees, 0-180) it would introduce.
type TurnPolicy func(spacing, turn float64) float64

const (
	DefSpacingStep    = 10.0
	DefSpacingCeiling = 5000.0
	DefMaxWP          = 100
	DefSpacing        = 100.0
	// MWXML parameter1 is an int16; iNav accepts at most 25500 cm/s
	MaxSpeed = 25500
)

type DecimationConfig struct {
	Spacing        float64  // base spacing, metres
	MaxWP          int      // waypoint budget
	ManualAlt      *float64 // metres, overrides the log altitude
	ManualSpeed    *int     // cm/s, overrides the log speed
	FallbackSpeed  int      // cm/s, used when neither log nor ManualSpeed supplies one
	Geofence       Geofence
	MarkTerminal   bool
	Radius         float64 // sphere radius, metres; 0 => mean earth radius
	SpacingStep    float64
	SpacingCeiling float64
	Turn           TurnPolicy // nil => angle shrink
}

func DefaultDecimation() DecimationConfig {
	return DecimationConfig{
		Spacing:        DefSpacing,
		MaxWP:          DefMaxWP,
		Geofence:       GeofenceGlobal,
		MarkTerminal:   true,
		SpacingStep:    DefSpacingStep,
		SpacingCeiling: DefSpacingCeiling,
	}
}

type MapRec map[string]string

// Keys returns the map keys in a stable order for display
func (m MapRec) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
