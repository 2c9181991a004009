package log2mission

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"etx2mission/pkg/geo"
	"etx2mission/pkg/mission"
	"etx2mission/pkg/otx"
	"etx2mission/pkg/types"
)

var ErrNoTelemetry = errors.New("no valid telemetry found")

type Strategy string

const (
	StrategySpacing Strategy = "spacing"
	StrategyRDP     Strategy = "rdp"
)

func ParseStrategy(s string) (Strategy, bool) {
	switch Strategy(strings.ToLower(s)) {
	case "", StrategySpacing:
		return StrategySpacing, true
	case StrategyRDP:
		return StrategyRDP, true
	}
	return "", false
}

// Options control the document produced by Convert
type Options struct {
	Strategy    Strategy
	Epsilon     float64 // RDP only, degrees
	Generator   string
	Version     string
	AbsoluteAlt bool
	SavedAt     time.Time
}

type Conversion struct {
	Records  int
	Samples  int
	Result   Result
	Document *mission.Document
	legs     []float64
	strategy Strategy
}

func (c *Conversion) Skipped() int {
	return c.Records - c.Samples
}

// Convert parses and decimates records into a mission document.
func Convert(recs []otx.Record, cfg types.DecimationConfig, opts Options) (*Conversion, error) {
	samples := otx.ParseRecords(recs, cfg)
	c := &Conversion{Records: len(recs), Samples: len(samples), strategy: opts.Strategy}
	if len(samples) == 0 {
		return c, ErrNoTelemetry
	}
	if c.Skipped() > 0 {
		slog.Debug("records skipped", "skipped", c.Skipped(), "records", c.Records)
	}

	switch opts.Strategy {
	case StrategyRDP:
		res, err := SimplifyRDP(samples, cfg, opts.Epsilon)
		if err != nil {
			return c, err
		}
		c.Result = res
	case StrategySpacing, "":
		c.Result = Decimate(samples, cfg)
	default:
		return c, fmt.Errorf("unknown strategy %q", opts.Strategy)
	}

	if len(c.Result.Waypoints) == 0 {
		return c, ErrNoTelemetry
	}
	if c.Result.OverBudget {
		slog.Warn("waypoint budget exceeded", "waypoints", len(c.Result.Waypoints), "max", cfg.MaxWP, "spacing", c.Result.Spacing)
	}

	sphere := geo.Sphere{Radius: cfg.Radius}
	wps := c.Result.Waypoints
	for i := 1; i < len(wps); i++ {
		c.legs = append(c.legs, sphere.Distance(wps[i-1].Point, wps[i].Point))
	}
	c.Document = mission.NewDocument(wps, opts.Generator, opts.Version, opts.SavedAt, opts.AbsoluteAlt)
	return c, nil
}

// Summary is displayed as "%-8.8s : %s" lines
func (c *Conversion) Summary() types.MapRec {
	m := make(types.MapRec)
	m["Records"] = fmt.Sprintf("%d (%d skipped)", c.Records, c.Skipped())
	n := len(c.Result.Waypoints)
	switch c.strategy {
	case StrategyRDP:
		m["Mission"] = fmt.Sprintf("%d points (rdp, %d iterations)", n, c.Result.Passes)
	default:
		m["Mission"] = fmt.Sprintf("%d points, spacing %.0f m (%d passes)", n, c.Result.Spacing, c.Result.Passes)
	}
	if len(c.legs) > 0 {
		mean, sd := stat.MeanStdDev(c.legs, nil)
		m["Legs"] = fmt.Sprintf("mean %.0f m, sd %.0f m, min %.0f m, max %.0f m",
			mean, sd, floats.Min(c.legs), floats.Max(c.legs))
		m["Distance"] = geo.FormatDistance(floats.Sum(c.legs))
	}
	pts := make([]types.GeoPoint, 0, n)
	for _, wp := range c.Result.Waypoints {
		pts = append(pts, wp.Point)
	}
	if b, ok := geo.Extent(pts); ok {
		m["Extent"] = fmt.Sprintf("%.5f %.5f to %.5f %.5f", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
	}
	if c.Result.OverBudget {
		m["Warning"] = "waypoint budget exceeded, returning the smallest mission found"
	}
	return m
}

// MissionName applies the .mission extension, defaulting to mission_YYMMDD_HHMM
func MissionName(name string, now time.Time) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "mission_" + now.Format("060102_1504")
	}
	if !strings.HasSuffix(strings.ToLower(name), ".mission") {
		name += ".mission"
	}
	return name
}

// OutputName derives a mission file name from the log name, unless an
// explicit name was given. Multiple logs are distinguished by index.
func OutputName(name, logname string, idx, nfiles int) string {
	if name == "" {
		outfn := filepath.Base(logname)
		ext := filepath.Ext(outfn)
		if len(ext) < len(outfn) {
			outfn = outfn[0 : len(outfn)-len(ext)]
		}
		return outfn + ".mission"
	}
	if nfiles > 1 {
		base := strings.TrimSuffix(MissionName(name, time.Time{}), ".mission")
		return fmt.Sprintf("%s.%d.mission", base, idx)
	}
	return MissionName(name, time.Time{})
}
