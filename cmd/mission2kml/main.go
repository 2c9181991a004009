package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"etx2mission/pkg/kmlgen"
	"etx2mission/pkg/mission"
)

var GitCommit = "local"
var GitTag = "0.0.0"

var (
	dms      bool
	kmz      bool
	geojson  bool
	gradient string
)

func getVersion() string {
	return fmt.Sprintf("%s %s commit:%s", filepath.Base(os.Args[0]), GitTag, GitCommit)
}

func main() {
	flag.Usage = func() {
		extra := `Without -kmz or -geojson, KML is written to standard output.
With -kmz, a KMZ file named after each mission is written to the current
directory.
`
		fmt.Fprintf(os.Stderr, "Usage of %s [options] mission_file...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, extra)
		fmt.Fprintln(os.Stderr, getVersion())
	}

	defs := os.Getenv("ETX2MISSION_OPTS")
	dms = strings.Contains(defs, "-dms")
	gradient = "rdylgn"

	flag.BoolVar(&dms, "dms", dms, "Show positions as DMS (vice decimal degrees)")
	flag.BoolVar(&kmz, "kmz", kmz, "Write KMZ files (vice KML to stdout)")
	flag.BoolVar(&geojson, "geojson", geojson, "Write GeoJSON to stdout (vice KML)")
	flag.StringVar(&gradient, "gradient", gradient, "Altitude colour gradient [red,rdylgn,ylorrd]")
	flag.Parse()
	files := flag.Args()
	if len(files) == 0 {
		flag.Usage()
		os.Exit(-1)
	}

	for _, fn := range files {
		if err := generate(fn); err != nil {
			log.Fatalf("mission2kml: %+v\n", err)
		}
	}
}

func generate(mfile string) error {
	m, err := mission.ReadMissionFile(mfile)
	if err != nil {
		return err
	}
	doc := m.Document()

	if geojson {
		data, err := doc.GeoJSON()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}

	d := kmlgen.GenerateMissionKML(doc, kmlgen.KMLOptions{
		Name:     filepath.Base(mfile),
		Dms:      dms,
		Gradient: gradient,
	})
	if !kmz {
		return kmlgen.WriteKML(os.Stdout, d, false)
	}

	outfn := kmlgen.GenKmlName(mfile, 0, false)
	f, err := os.Create(outfn)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := kmlgen.WriteKML(f, d, true); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%-8.8s : %s\n", "Output", outfn)
	return nil
}
