package log2mission

import (
	"math"

	"etx2mission/pkg/geo"
	"etx2mission/pkg/types"
)

type Result struct {
	Waypoints  []types.Waypoint
	Spacing    float64 // spacing of the returned pass, metres
	Passes     int
	OverBudget bool
}

// AngleShrink reduces the spacing in proportion to the turn, never below 30%.
func AngleShrink(spacing, turn float64) float64 {
	if turn > 10.0 {
		return spacing * math.Max(0.3, 1.0-turn/90.0)
	}
	return spacing
}

// NoTurn applies uniform spacing regardless of heading changes.
func NoTurn(spacing, _ float64) float64 {
	return spacing
}

func usable(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// withDefaults replaces zero, negative and non-finite spacing parameters
func withDefaults(cfg types.DecimationConfig) types.DecimationConfig {
	if !usable(cfg.Spacing) {
		cfg.Spacing = types.DefSpacing
	}
	if !usable(cfg.SpacingStep) {
		cfg.SpacingStep = types.DefSpacingStep
	}
	if !usable(cfg.SpacingCeiling) {
		cfg.SpacingCeiling = types.DefSpacingCeiling
	}
	if cfg.Turn == nil {
		cfg.Turn = AngleShrink
	}
	return cfg
}

func maxPasses(cfg types.DecimationConfig) int {
	if cfg.Spacing > cfg.SpacingCeiling {
		return 1
	}
	return int(math.Floor((cfg.SpacingCeiling-cfg.Spacing)/cfg.SpacingStep)) + 2
}

// Decimate widens the spacing from cfg.Spacing until the pass fits cfg.MaxWP.
// If the ceiling is passed first, the pass with the fewest waypoints is
// returned with OverBudget set.
func Decimate(samples []types.Sample, cfg types.DecimationConfig) Result {
	cfg = withDefaults(cfg)
	spacing := cfg.Spacing
	npass := maxPasses(cfg)

	var best Result
	passes := 0
	for passes < npass {
		passes++
		wps := decimatePass(samples, cfg, spacing)
		if len(wps) == 0 {
			return Result{Spacing: spacing, Passes: passes}
		}
		if len(wps) <= cfg.MaxWP {
			return Result{Waypoints: wps, Spacing: spacing, Passes: passes}
		}
		if best.Waypoints == nil || len(wps) < len(best.Waypoints) {
			best = Result{Waypoints: wps, Spacing: spacing}
		}
		if spacing > cfg.SpacingCeiling {
			break
		}
		spacing += cfg.SpacingStep
	}
	best.Passes = passes
	best.OverBudget = true
	return best
}

func decimatePass(samples []types.Sample, cfg types.DecimationConfig, spacing float64) []types.Waypoint {
	sphere := geo.Sphere{Radius: cfg.Radius}
	var wps []types.Waypoint
	var origin, last types.GeoPoint
	lbrg := -1.0

	for _, s := range samples {
		if !geo.ValidPoint(s.Point) {
			continue
		}
		if len(wps) == 0 {
			origin = s.Point
			last = s.Point
			wps = append(wps, makeWaypoint(1, s, cfg))
			continue
		}
		if cfg.Geofence.OriginRadius > 0 && sphere.Distance(origin, s.Point) > cfg.Geofence.OriginRadius {
			continue
		}
		dist := sphere.Distance(last, s.Point)
		brg := sphere.Bearing(last, s.Point)
		target := spacing
		if lbrg >= 0 {
			target = cfg.Turn(spacing, geo.TurnAngle(lbrg, brg))
		}
		if dist >= target {
			wps = append(wps, makeWaypoint(len(wps)+1, s, cfg))
			last = s.Point
			lbrg = brg
		}
	}
	if cfg.MarkTerminal && len(wps) > 0 {
		wps[len(wps)-1].Terminal = true
	}
	return wps
}

func makeWaypoint(no int, s types.Sample, cfg types.DecimationConfig) types.Waypoint {
	spd := cfg.FallbackSpeed
	switch {
	case s.Speed != nil:
		spd = *s.Speed
	case cfg.ManualSpeed != nil:
		spd = *cfg.ManualSpeed
	}
	return types.Waypoint{No: no, Point: s.Point, Alt: int(s.Alt), Speed: spd}
}
