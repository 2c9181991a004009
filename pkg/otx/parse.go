package otx

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"etx2mission/pkg/geo"
	"etx2mission/pkg/types"
)

// RequiredColumns lists the columns a log must carry for cfg
func RequiredColumns(cfg types.DecimationConfig) []string {
	req := []string{"GPS"}
	if cfg.ManualAlt == nil {
		req = append(req, "Alt")
	}
	return req
}

// ParsePosition parses a "lat lon" pair. Thousands separators are dropped
// when the text is whitespace separated; "lat,lon" is split on the comma.
func ParsePosition(s string) (types.GeoPoint, bool) {
	var p types.GeoPoint
	s = strings.TrimSpace(s)
	switch s {
	case "", "0", "0 0", "0.0 0.0":
		return p, false
	}
	var parts []string
	if strings.ContainsAny(s, " \t") {
		parts = strings.Fields(strings.ReplaceAll(s, ",", ""))
	} else {
		parts = strings.Split(s, ",")
	}
	if len(parts) < 2 {
		return p, false
	}
	var err error
	if p.Lat, err = strconv.ParseFloat(parts[0], 64); err != nil {
		return p, false
	}
	if p.Lon, err = strconv.ParseFloat(parts[1], 64); err != nil {
		return p, false
	}
	return p, true
}

func normalise_units(v float64, u string) float64 {
	switch u {
	case "kmh", "km/h":
		v /= 3.6
	case "mph":
		v *= 0.44704
	case "kts":
		v *= 0.51444444
	case "ft":
		v *= 0.3048
	}
	return v
}

// speedToCms converts a speed in the header unit to cm/s; no unit means km/h
func speedToCms(v float64, u string) int {
	switch u {
	case "", "kmh", "km/h":
		v = v * 100000 / 3600
	case "mph":
		v *= 44.704
	case "kts":
		v *= 51.444444
	default:
		v *= 100
	}
	return int(v)
}

// ParseRecord converts one raw record into a Sample; false means skip.
func ParseRecord(rec Record, cfg types.DecimationConfig) (types.Sample, bool) {
	var smp types.Sample
	s, _, ok := rec.Get("GPS")
	if !ok {
		return smp, false
	}
	pt, ok := ParsePosition(s)
	if !ok || !geo.ValidPoint(pt) {
		return smp, false
	}
	if cfg.Geofence.Box != nil && !geo.InBounds(*cfg.Geofence.Box, pt) {
		return smp, false
	}
	smp.Point = pt

	if cfg.ManualAlt != nil {
		smp.Alt = *cfg.ManualAlt
	} else {
		s, u, ok := rec.Get("Alt")
		if !ok {
			return smp, false
		}
		alt, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(alt) || math.IsInf(alt, 0) {
			return smp, false
		}
		smp.Alt = normalise_units(alt, u)
	}

	if cfg.ManualSpeed != nil {
		spd := *cfg.ManualSpeed
		smp.Speed = &spd
	} else if s, u, ok := rec.Get("GSpd"); ok && strings.TrimSpace(s) != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return smp, false
		}
		spd := speedToCms(v, u)
		if spd >= 0 && spd <= types.MaxSpeed {
			smp.Speed = &spd
		}
	}
	return smp, true
}

// ParseRecords returns the usable samples, in log order
func ParseRecords(recs []Record, cfg types.DecimationConfig) []types.Sample {
	samples := make([]types.Sample, 0, len(recs))
	for i, r := range recs {
		smp, ok := ParseRecord(r, cfg)
		if !ok {
			slog.Debug("skipping record", "index", i)
			continue
		}
		smp.Index = i
		samples = append(samples, smp)
	}
	return samples
}
