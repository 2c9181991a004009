package mission

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/beevik/etree"

	"etx2mission/pkg/types"
)

const (
	TerminalFlag = 165
	ActWaypoint  = "WAYPOINT"
)

// Document is an immutable iNav MWXML mission
type Document struct {
	Generator   string
	Version     string
	SavedAt     time.Time
	AbsoluteAlt bool
	waypoints   []types.Waypoint
}

func NewDocument(wps []types.Waypoint, generator, version string, saved time.Time, absalt bool) *Document {
	w := make([]types.Waypoint, len(wps))
	copy(w, wps)
	return &Document{Generator: generator, Version: version, SavedAt: saved, AbsoluteAlt: absalt, waypoints: w}
}

// Waypoints returns a copy of the mission points
func (d *Document) Waypoints() []types.Waypoint {
	w := make([]types.Waypoint, len(d.waypoints))
	copy(w, d.waypoints)
	return w
}

func (d *Document) Len() int {
	return len(d.waypoints)
}

func (d *Document) build() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("mission")
	if d.Version != "" {
		root.CreateElement("version").CreateAttr("value", d.Version)
	}
	mwp := root.CreateElement("mwp")
	mwp.CreateAttr("save-date", d.SavedAt.Format(time.RFC3339))
	mwp.CreateAttr("generator", d.Generator)

	p3 := "0"
	if d.AbsoluteAlt {
		p3 = "1"
	}
	for _, wp := range d.waypoints {
		mi := root.CreateElement("missionitem")
		mi.CreateAttr("no", strconv.Itoa(wp.No))
		mi.CreateAttr("action", ActWaypoint)
		mi.CreateAttr("lat", fmt.Sprintf("%.7f", wp.Point.Lat))
		mi.CreateAttr("lon", fmt.Sprintf("%.7f", wp.Point.Lon))
		mi.CreateAttr("alt", strconv.Itoa(wp.Alt))
		mi.CreateAttr("parameter1", strconv.Itoa(wp.Speed))
		mi.CreateAttr("parameter2", "0")
		mi.CreateAttr("parameter3", p3)
		flag := 0
		if wp.Terminal {
			flag = TerminalFlag
		}
		mi.CreateAttr("flag", strconv.Itoa(flag))
	}
	doc.Indent(2)
	return doc
}

func (d *Document) Write(w io.Writer) error {
	_, err := d.build().WriteTo(w)
	return err
}

func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Document) WriteFile(fname string) error {
	w, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err = d.Write(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
