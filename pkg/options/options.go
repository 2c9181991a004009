package options

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"etx2mission/pkg/log2mission"
	"etx2mission/pkg/types"
)

var ErrConfig = errors.New("configuration error")

const (
	DefMissionVersion = "25.09.13"
	DefGenerator      = "etx2mission"
	FT2M              = 0.3048
)

type Opts struct {
	Units     string
	Spacing   float64
	MaxWP     int
	Altitude  string
	Speed     string
	Cruise    float64
	Geofence  string
	Radius    float64
	Step      float64
	Ceiling   float64
	Terminal  bool
	RelAlt    bool
	NoTurn    bool
	Strategy  string
	Epsilon   float64
	Mission   string
	Version   string
	Generator string
	Outdir    string
	Preview   bool
	Kml       bool
	GeoJSON   bool
	Dms       bool
	Gradient  string
	Sql       string
	History   string
	Broker    string
	Dump      bool
	LogLevel  string
	LogFormat string
	Listen    string
}

var Config Opts

func setDefaults(v *viper.Viper) {
	v.SetDefault("units", "metric")
	v.SetDefault("spacing", types.DefSpacing)
	v.SetDefault("max-wp", types.DefMaxWP)
	v.SetDefault("altitude", "")
	v.SetDefault("speed", "")
	v.SetDefault("cruise", 25.0)
	v.SetDefault("geofence", "global")
	v.SetDefault("origin-radius", -1.0)
	v.SetDefault("spacing-step", types.DefSpacingStep)
	v.SetDefault("spacing-ceiling", types.DefSpacingCeiling)
	v.SetDefault("terminal", true)
	v.SetDefault("relative-alt", false)
	v.SetDefault("no-turn", false)
	v.SetDefault("strategy", string(log2mission.StrategySpacing))
	v.SetDefault("epsilon", log2mission.DefEpsilon)
	v.SetDefault("mission-version", DefMissionVersion)
	v.SetDefault("generator", DefGenerator)
	v.SetDefault("gradient", "rdylgn")
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "text")
	v.SetDefault("listen", ":8080")
}

// NewViper reads defaults from etx2mission.yaml (or cfgfile) and
// ETX2MISSION_* environment variables.
func NewViper(cfgfile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	if cfgfile != "" {
		v.SetConfigFile(cfgfile)
	} else {
		v.SetConfigName("etx2mission")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(types.GetConfigDir())
	}
	v.SetEnvPrefix("ETX2MISSION")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if cfgfile != "" || !errors.As(err, &nf) {
			return v, fmt.Errorf("config file: %w", err)
		}
	}
	return v, nil
}

func FromViper(v *viper.Viper) Opts {
	return Opts{
		Units:     v.GetString("units"),
		Spacing:   v.GetFloat64("spacing"),
		MaxWP:     v.GetInt("max-wp"),
		Altitude:  v.GetString("altitude"),
		Speed:     v.GetString("speed"),
		Cruise:    v.GetFloat64("cruise"),
		Geofence:  v.GetString("geofence"),
		Radius:    v.GetFloat64("origin-radius"),
		Step:      v.GetFloat64("spacing-step"),
		Ceiling:   v.GetFloat64("spacing-ceiling"),
		Terminal:  v.GetBool("terminal"),
		RelAlt:    v.GetBool("relative-alt"),
		NoTurn:    v.GetBool("no-turn"),
		Strategy:  v.GetString("strategy"),
		Epsilon:   v.GetFloat64("epsilon"),
		Mission:   v.GetString("mission"),
		Version:   v.GetString("mission-version"),
		Generator: v.GetString("generator"),
		Outdir:    v.GetString("outdir"),
		Preview:   v.GetBool("preview"),
		Kml:       v.GetBool("kml"),
		GeoJSON:   v.GetBool("geojson"),
		Dms:       v.GetBool("dms"),
		Gradient:  v.GetString("gradient"),
		Sql:       v.GetString("sql"),
		Broker:    v.GetString("broker"),
		LogLevel:  v.GetString("log-level"),
		LogFormat: v.GetString("log-format"),
		Listen:    v.GetString("listen"),
	}
}

// Default returns the built in defaults, ignoring files and environment
func Default() Opts {
	v := viper.New()
	setDefaults(v)
	return FromViper(v)
}

func (o *Opts) Bind(fs *flag.FlagSet) {
	fs.StringVar(&o.Units, "units", o.Units, "Unit system for spacing, altitude and speed [metric,imperial]")
	fs.Float64Var(&o.Spacing, "spacing", o.Spacing, "Base waypoint spacing (m or ft)")
	fs.IntVar(&o.MaxWP, "max-wp", o.MaxWP, "Maximum number of waypoints")
	fs.StringVar(&o.Altitude, "altitude", o.Altitude, "Fixed mission altitude (m or ft), vice log altitude")
	fs.StringVar(&o.Speed, "speed", o.Speed, "Fixed cruise speed (km/h or mph), vice log speed")
	fs.Float64Var(&o.Cruise, "cruise", o.Cruise, "Cruise speed (km/h or mph) when the log has none")
	fs.StringVar(&o.Geofence, "geofence", o.Geofence, "Geofence preset [global,conus,none]")
	fs.Float64Var(&o.Radius, "origin-radius", o.Radius, "Jump rejection radius (m) from the first point, overrides the preset; 0 disables")
	fs.Float64Var(&o.Step, "spacing-step", o.Step, "Spacing increment (m) when over budget")
	fs.Float64Var(&o.Ceiling, "spacing-ceiling", o.Ceiling, "Maximum spacing (m) tried")
	fs.BoolVar(&o.Terminal, "terminal", o.Terminal, "Flag the last waypoint as mission end (flag=165); false writes flag=0 on every item")
	fs.BoolVar(&o.RelAlt, "relative-alt", o.RelAlt, "Mark altitudes as relative to home")
	fs.BoolVar(&o.NoTurn, "no-turn", o.NoTurn, "Uniform spacing, no tightening on turns")
	fs.StringVar(&o.Strategy, "strategy", o.Strategy, "Decimation strategy [spacing,rdp]")
	fs.Float64Var(&o.Epsilon, "epsilon", o.Epsilon, "Epsilon (degrees) for rdp simplification")
	fs.StringVar(&o.Mission, "mission", o.Mission, "Optional mission file name")
	fs.StringVar(&o.Version, "mission-version", o.Version, "Mission version attribute")
	fs.StringVar(&o.Outdir, "outdir", o.Outdir, "Output directory for generated files")
	fs.BoolVar(&o.Preview, "preview", o.Preview, "Generate a KMZ preview of the mission")
	fs.BoolVar(&o.Kml, "kml", o.Kml, "Generate KML (vice default KMZ)")
	fs.BoolVar(&o.GeoJSON, "geojson", o.GeoJSON, "Generate a GeoJSON preview of the mission")
	fs.BoolVar(&o.Dms, "dms", o.Dms, "Show positions as DD:MM:SS.s (vice decimal degrees)")
	fs.StringVar(&o.Gradient, "gradient", o.Gradient, "Altitude colour gradient [red,rdylgn,ylorrd]")
	fs.StringVar(&o.Sql, "sql", o.Sql, "Archive conversions to SQLite file")
	fs.StringVar(&o.History, "history", o.History, "List conversions in SQLite archive and exit")
	fs.StringVar(&o.Broker, "broker", o.Broker, "Mqtt URI (mqtt://[user[:pass]@]broker[:port]/topic[?cafile=file]")
	fs.BoolVar(&o.Dump, "dump", o.Dump, "Dump log headers and exit")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level [debug,info,warn,error]")
	fs.StringVar(&o.LogFormat, "log-format", o.LogFormat, "Log format [text,json]")
	fs.StringVar(&o.Listen, "listen", o.Listen, "Web service listen address")
}

func splitEnv(defs string) []string {
	var parts []string
	for _, p := range strings.Split(defs, " ") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// envDefaults applies the $ETX2MISSION_OPTS default flags
func (o *Opts) envDefaults(defs string) error {
	envflags := flag.NewFlagSet("$ETX2MISSION_OPTS", flag.ContinueOnError)
	envflags.BoolVar(&o.Kml, "kml", o.Kml, "kml")
	envflags.BoolVar(&o.Dms, "dms", o.Dms, "dms")
	envflags.BoolVar(&o.Preview, "preview", o.Preview, "preview")
	envflags.BoolVar(&o.GeoJSON, "geojson", o.GeoJSON, "geojson")
	envflags.StringVar(&o.Gradient, "gradient", o.Gradient, "gradient")
	envflags.StringVar(&o.Units, "units", o.Units, "units")
	envflags.StringVar(&o.LogLevel, "log-level", o.LogLevel, "log-level")
	return envflags.Parse(splitEnv(defs))
}

func Usage() {
	flag.Usage()
}

func ParseCLI(gv func() string) []string {
	app := filepath.Base(os.Args[0])

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s [options] file...\n", app)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintln(os.Stderr, gv())
	}

	v, err := NewViper(os.Getenv("ETX2MISSION_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", app, err)
	}
	Config = FromViper(v)
	if err := Config.envDefaults(os.Getenv("ETX2MISSION_OPTS")); err != nil {
		fmt.Fprintf(os.Stderr, "$ETX2MISSION_OPTS: %v\n", err)
	}
	Config.Bind(flag.CommandLine)
	flag.Parse()
	return flag.Args()
}

func (o *Opts) Imperial() bool {
	return strings.EqualFold(o.Units, "imperial")
}

// Validate reports every problem found
func (o *Opts) Validate() error {
	var errs []string
	switch strings.ToLower(o.Units) {
	case "metric", "imperial":
	default:
		errs = append(errs, fmt.Sprintf("units %q must be metric or imperial", o.Units))
	}
	if !positive(o.Spacing) {
		errs = append(errs, "spacing must be positive")
	}
	if o.MaxWP < 1 {
		errs = append(errs, "max-wp must be at least 1")
	}
	if !finite(o.Cruise) || o.Cruise < 0 {
		errs = append(errs, "cruise must be a non-negative number")
	} else if SpeedToCms(o.Cruise, o.Imperial()) > types.MaxSpeed {
		errs = append(errs, fmt.Sprintf("cruise exceeds %d cm/s", types.MaxSpeed))
	}
	if !finite(o.Radius) {
		errs = append(errs, "origin-radius must be a number")
	}
	if _, ok := types.GeofenceByName(o.Geofence); !ok {
		errs = append(errs, fmt.Sprintf("unknown geofence %q", o.Geofence))
	}
	if !positive(o.Step) {
		errs = append(errs, "spacing-step must be positive")
	}
	if !positive(o.Ceiling) {
		errs = append(errs, "spacing-ceiling must be positive")
	}
	if _, ok := log2mission.ParseStrategy(o.Strategy); !ok {
		errs = append(errs, fmt.Sprintf("unknown strategy %q", o.Strategy))
	}
	if !positive(o.Epsilon) {
		errs = append(errs, "epsilon must be positive")
	}
	if _, err := parseOptional(o.Altitude, "altitude"); err != nil {
		errs = append(errs, err.Error())
	}
	if spd, err := parseOptional(o.Speed, "speed"); err != nil {
		errs = append(errs, err.Error())
	} else if spd != nil && *spd < 0 {
		errs = append(errs, "speed must not be negative")
	} else if spd != nil && SpeedToCms(*spd, o.Imperial()) > types.MaxSpeed {
		errs = append(errs, fmt.Sprintf("speed exceeds %d cm/s", types.MaxSpeed))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrConfig, strings.Join(errs, "; "))
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positive(v float64) bool {
	return finite(v) && v > 0
}

func parseOptional(s, name string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) {
		return nil, fmt.Errorf("%s %q is not a number", name, s)
	}
	return &v, nil
}

// SpeedToCms converts km/h (or mph when imperial) to cm/s
func SpeedToCms(v float64, imperial bool) int {
	if imperial {
		return int(v * 44.704)
	}
	return int(v * 100000 / 3600)
}

// ToMetres converts a distance in user units to metres
func ToMetres(v float64, imperial bool) float64 {
	if imperial {
		return v * FT2M
	}
	return v
}

// Decimation converts the user options into a decimation configuration
func (o *Opts) Decimation() (types.DecimationConfig, error) {
	if err := o.Validate(); err != nil {
		return types.DecimationConfig{}, err
	}
	imp := o.Imperial()
	cfg := types.DefaultDecimation()
	cfg.Spacing = ToMetres(o.Spacing, imp)
	cfg.MaxWP = o.MaxWP
	cfg.SpacingStep = o.Step
	cfg.SpacingCeiling = o.Ceiling
	cfg.MarkTerminal = o.Terminal
	cfg.FallbackSpeed = SpeedToCms(o.Cruise, imp)
	cfg.Geofence, _ = types.GeofenceByName(o.Geofence)
	if o.Radius >= 0 {
		cfg.Geofence.OriginRadius = o.Radius
	}
	if alt, _ := parseOptional(o.Altitude, "altitude"); alt != nil {
		m := ToMetres(*alt, imp)
		cfg.ManualAlt = &m
	}
	if spd, _ := parseOptional(o.Speed, "speed"); spd != nil {
		cms := SpeedToCms(*spd, imp)
		cfg.ManualSpeed = &cms
	}
	if o.NoTurn {
		cfg.Turn = log2mission.NoTurn
	}
	return cfg, nil
}

// Conversion returns the document options for a conversion at now
func (o *Opts) Conversion(now time.Time) log2mission.Options {
	strategy, _ := log2mission.ParseStrategy(o.Strategy)
	return log2mission.Options{
		Strategy:    strategy,
		Epsilon:     o.Epsilon,
		Generator:   o.Generator,
		Version:     o.Version,
		AbsoluteAlt: !o.RelAlt,
		SavedAt:     now,
	}
}
