package kmlgen

import (
	"fmt"
	"io"
	"strings"

	"github.com/bmizerany/perks/quantile"
	kml "github.com/twpayne/go-kml"
	kmz "github.com/twpayne/go-kmz"

	"etx2mission/pkg/geo"
	"etx2mission/pkg/mission"
	"etx2mission/pkg/types"
)

type KMLOptions struct {
	Name     string
	Dms      bool
	Gradient string // red, rdylgn, ylorrd
}

// altitude range, ignoring the outer 5%
func altRange(wps []types.Waypoint) (float64, float64) {
	if len(wps) == 0 {
		return 0, 0
	}
	q := quantile.NewTargeted(0.05, 0.95)
	for _, w := range wps {
		q.Insert(float64(w.Alt))
	}
	return q.Query(0.05), q.Query(0.95)
}

func gradIndex(alt, qval0, qval1 float64) int {
	switch {
	case qval1 <= qval0:
		return NUM_GRAD / 2
	case alt >= qval1:
		return NUM_GRAD
	case alt <= qval0:
		return 0
	}
	return int(NUM_GRAD * (alt - qval0) / (qval1 - qval0))
}

func describe(wp types.Waypoint, prev *types.Waypoint, dms bool) string {
	var sb strings.Builder
	sb.WriteString(`<table style="border="1px" silver; border="1" silver; rules="all";;">`)
	row := func(k, v string) {
		sb.WriteString(fmt.Sprintf("<tr><td><b>%s</b></td><td>%s</td></tr>", k, v))
	}
	row("Position", geo.PositionFormat(wp.Point, dms))
	row("Altitude", fmt.Sprintf("%d m", wp.Alt))
	row("Speed", fmt.Sprintf("%.1f m/s", float64(wp.Speed)/100.0))
	if prev != nil {
		cse, dist := geo.Csedist(prev.Point.Lat, prev.Point.Lon, wp.Point.Lat, wp.Point.Lon)
		row("Leg", fmt.Sprintf("%.0f° %s", cse, geo.FormatDistance(dist)))
	}
	if wp.Terminal {
		row("Flag", "last")
	}
	sb.WriteString("</table>")
	return sb.String()
}

// GenerateMissionKML builds a KML document previewing the mission
func GenerateMissionKML(doc *mission.Document, opts KMLOptions) kml.Element {
	wps := doc.Waypoints()
	altmode := kml.AltitudeModeRelativeToGround
	if doc.AbsoluteAlt {
		altmode = kml.AltitudeModeAbsolute
	}

	var points []kml.Coordinate
	var placemarks []kml.Element
	qval0, qval1 := altRange(wps)
	for i, wp := range wps {
		var prev *types.Waypoint
		if i > 0 {
			prev = &wps[i-1]
		}
		style := "#" + gradStyleName(gradIndex(float64(wp.Alt), qval0, qval1))
		if wp.Terminal {
			style = "#styleTerminal"
		}
		coord := kml.Coordinate{Lon: wp.Point.Lon, Lat: wp.Point.Lat, Alt: float64(wp.Alt)}
		points = append(points, coord)
		placemarks = append(placemarks, kml.Placemark(
			kml.Name(fmt.Sprintf("WP %d", wp.No)),
			kml.Description(describe(wp, prev, opts.Dms)),
			kml.StyleURL(style),
			kml.Point(
				kml.AltitudeMode(altmode),
				kml.Coordinates(coord),
			),
		))
	}

	track := kml.Placemark(
		kml.Name("Path"),
		kml.Description("inav mission"),
		kml.StyleURL("#styleWPTrack"),
		kml.LineString(
			kml.AltitudeMode(altmode),
			kml.Extrude(true),
			kml.Tessellate(false),
			kml.Coordinates(points...),
		),
	)

	name := opts.Name
	if name == "" {
		name = "Mission"
	}
	desc := fmt.Sprintf("%d waypoints", len(wps))
	if doc.Generator != "" {
		desc = fmt.Sprintf("%s, generated by %s", desc, doc.Generator)
	}
	if !doc.SavedAt.IsZero() {
		desc = fmt.Sprintf("%s on %s", desc, doc.SavedAt.Format("2006-01-02 15:04:05"))
	}
	folder := kml.Folder(kml.Name("Waypoints")).Add(placemarks...)
	return kml.Document(kml.Name(name), kml.Description(desc), kml.Open(true)).
		Add(mission_styles(opts.Gradient)...).Add(track).Add(folder)
}

// WriteKML writes the element as KML or, if kmzout, zipped KMZ
func WriteKML(w io.Writer, d kml.Element, kmzout bool) error {
	if kmzout {
		z := kmz.NewKMZ(d)
		return z.WriteIndent(w, "", "  ")
	}
	k := kml.KML(d)
	return k.WriteIndent(w, "", "  ")
}
