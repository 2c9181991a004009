package log2mission

import (
	"fmt"
	"log/slog"

	"github.com/deet/simpleline"

	"etx2mission/pkg/geo"
	"etx2mission/pkg/types"
)

const DefEpsilon = 0.00025

// SimplifyRDP reduces the track with Ramer-Douglas-Peucker, widening epsilon
// (degrees) until the result fits cfg.MaxWP.
func SimplifyRDP(samples []types.Sample, cfg types.DecimationConfig, epsilon float64) (Result, error) {
	if epsilon <= 0 {
		epsilon = DefEpsilon
	}
	sphere := geo.Sphere{Radius: cfg.Radius}
	points := []simpleline.Point{}
	index := make(map[simpleline.Point]types.Sample)
	var origin *types.GeoPoint
	for _, s := range samples {
		if !geo.ValidPoint(s.Point) {
			continue
		}
		if origin == nil {
			o := s.Point
			origin = &o
		} else if cfg.Geofence.OriginRadius > 0 && sphere.Distance(*origin, s.Point) > cfg.Geofence.OriginRadius {
			continue
		}
		pt := &simpleline.Point3d{X: s.Point.Lon, Y: s.Point.Lat, Z: s.Alt}
		index[pt] = s
		points = append(points, pt)
	}
	if len(points) == 0 {
		return Result{}, nil
	}

	res := points
	var err error
	ntry := 0
	ep := epsilon
	over := false
	if len(points) > 2 {
		for {
			res, err = simpleline.RDP(points, ep, simpleline.Euclidean, true)
			if err != nil {
				return Result{}, fmt.Errorf("simplify: %w", err)
			}
			nmi := len(res)
			if nmi > cfg.MaxWP {
				ep += float64(nmi-cfg.MaxWP) * ep * 0.02
				ntry += 1
				if ntry > 42 {
					slog.Warn("failed to reach the waypoint budget", "iterations", ntry, "epsilon", ep)
					over = true
					break
				}
			} else if len(res) == 2 {
				ep = ep / 15.0
				ntry += 1
				if ntry > 5 {
					slog.Info("giving up with minimal mission")
					break
				}
			} else {
				break
			}
		}
	}

	wps := make([]types.Waypoint, 0, len(res))
	for _, p := range res {
		s, ok := index[p]
		if !ok {
			v := p.Vector()
			s = types.Sample{Point: types.GeoPoint{Lat: v[1], Lon: v[0]}, Alt: v[2]}
		}
		wps = append(wps, makeWaypoint(len(wps)+1, s, cfg))
	}
	if cfg.MarkTerminal && len(wps) > 0 {
		wps[len(wps)-1].Terminal = true
	}
	return Result{Waypoints: wps, Passes: ntry + 1, OverBudget: over}, nil
}
