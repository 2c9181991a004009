package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/yookoala/realpath"

	"etx2mission/pkg/flsql"
	"etx2mission/pkg/kmlgen"
	"etx2mission/pkg/log2mission"
	"etx2mission/pkg/logging"
	"etx2mission/pkg/missionpub"
	"etx2mission/pkg/options"
	"etx2mission/pkg/otx"
	"etx2mission/pkg/types"
)

var GitCommit = "local"
var GitTag = "0.0.0"

func getVersion() string {
	return fmt.Sprintf("%s %s commit:%s", filepath.Base(os.Args[0]), GitTag, GitCommit)
}

type sinks struct {
	db *flsql.DBL
	mq *missionpub.MQTTClient
}

func main() {
	files := options.ParseCLI(getVersion)
	logging.Setup(options.Config.LogLevel, options.Config.LogFormat)

	if options.Config.History != "" {
		if err := listHistory(options.Config.History, files); err != nil {
			log.Fatalf("log2mission: %+v\n", err)
		}
		return
	}

	if len(files) == 0 {
		options.Usage()
		os.Exit(1)
	}

	cfg, err := options.Config.Decimation()
	if err != nil {
		log.Fatalf("log2mission: %v\n", err)
	}

	var s sinks
	if options.Config.Sql != "" {
		s.db, err = flsql.NewSQLliteDB(options.Config.Sql)
		if err != nil {
			log.Fatalf("log2mission: %+v\n", err)
		}
		defer s.db.Close()
	}
	if options.Config.Broker != "" {
		s.mq, err = missionpub.NewMQTTClient(options.Config.Broker)
		if err != nil {
			log.Fatalf("log2mission: %+v\n", err)
		}
		defer s.mq.Close()
		fmt.Printf("%-8.8s : %s\n", "Topic", s.mq.Topic())
	}

	for i, fn := range files {
		err := process(fn, i+1, len(files), cfg, s)
		switch {
		case errors.Is(err, log2mission.ErrNoTelemetry):
			fmt.Fprintf(os.Stderr, "*** skipping generation for log with no valid geospatial data\n")
		case err != nil:
			fmt.Fprintf(os.Stderr, "log2mission: %s: %v\n", fn, err)
		}
		fmt.Println()
	}
}

func process(fn string, idx, nfiles int, cfg types.DecimationConfig, s sinks) error {
	ftype, err := types.EvinceFileType(fn)
	if err != nil {
		return err
	}
	switch ftype {
	case types.IS_OTX:
	case types.IS_MWXML:
		return fmt.Errorf("already a mission file, see mission2kml")
	default:
		return fmt.Errorf("unknown log format")
	}

	r := otx.NewOTXReader(fn)
	if options.Config.Dump {
		return r.Dump()
	}
	lg, err := r.Read()
	if err != nil {
		return err
	}
	fmt.Printf("%-8.8s : %s\n", "Log", r.LogName())
	if err := lg.CheckColumns(otx.RequiredColumns(cfg)); err != nil {
		return err
	}

	now := time.Now()
	cv, err := log2mission.Convert(lg.Records, cfg, options.Config.Conversion(now))
	if err != nil {
		return err
	}
	m := cv.Summary()
	for _, k := range m.Keys() {
		fmt.Printf("%-8.8s : %s\n", k, m[k])
	}

	outfn := filepath.Join(options.Config.Outdir, log2mission.OutputName(options.Config.Mission, fn, idx, nfiles))
	if err := cv.Document.WriteFile(outfn); err != nil {
		return err
	}
	show_output(outfn)

	if options.Config.Preview {
		kfn := filepath.Join(options.Config.Outdir, kmlgen.GenKmlName(outfn, 0, options.Config.Kml))
		if err := writePreview(kfn, cv); err != nil {
			return err
		}
		show_output(kfn)
	}

	if options.Config.GeoJSON {
		gfn := outfn[:len(outfn)-len(filepath.Ext(outfn))] + ".geojson"
		data, err := cv.Document.GeoJSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(gfn, data, 0644); err != nil {
			return err
		}
		show_output(gfn)
	}

	if s.db != nil {
		rec := flsql.ConversionRecord{
			Stamp:      now,
			Source:     fn,
			Name:       filepath.Base(outfn),
			Spacing:    cv.Result.Spacing,
			Passes:     cv.Result.Passes,
			OverBudget: cv.Result.OverBudget,
			Records:    cv.Records,
			Samples:    cv.Samples,
		}
		id, err := s.db.WriteConversion(rec, cv.Result.Waypoints)
		if err != nil {
			return err
		}
		fmt.Printf("%-8.8s : %s\n", "Archive", id)
	}

	if s.mq != nil {
		data, err := cv.Document.Bytes()
		if err != nil {
			return err
		}
		if err := s.mq.Publish(data); err != nil {
			slog.Warn("mqtt publish failed", "error", err)
		}
	}
	return nil
}

func writePreview(kfn string, cv *log2mission.Conversion) error {
	f, err := os.Create(kfn)
	if err != nil {
		return err
	}
	defer f.Close()
	d := kmlgen.GenerateMissionKML(cv.Document, kmlgen.KMLOptions{
		Name:     filepath.Base(kfn),
		Dms:      options.Config.Dms,
		Gradient: options.Config.Gradient,
	})
	return kmlgen.WriteKML(f, d, !options.Config.Kml)
}

func listHistory(fn string, ids []string) error {
	a, err := flsql.OpenArchive(fn)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(ids) > 0 {
		for _, id := range ids {
			wps, err := a.Waypoints(id)
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", id)
			for _, wp := range wps {
				last := ""
				if wp.Terminal {
					last = " last"
				}
				fmt.Printf("%3d: %s %4d m %5d cm/s%s\n", wp.No, wp.Point, wp.Alt, wp.Speed, last)
			}
		}
		return nil
	}

	cs, err := a.Conversions()
	if err != nil {
		return err
	}
	for _, c := range cs {
		warn := ""
		if c.OverBudget != 0 {
			warn = " (over budget)"
		}
		fmt.Printf("%s %s %-24s %3d wps, %5.0f m, %3d passes, %s%s\n",
			c.ID, c.Time().Format("2006-01-02 15:04:05"), c.Name, c.Waypoints, c.Spacing, c.Passes, c.Source, warn)
	}
	return nil
}

func show_output(outfn string) {
	if outfn != "" {
		rp, err := realpath.Realpath(outfn)
		if err != nil || rp == "" {
			fmt.Printf("%-8.8s : <%s> <%s>\n", "RealPath", rp, err)
			rp = outfn
		}
		fmt.Printf("%-8.8s : %s\n", "Output", rp)
	}
}
