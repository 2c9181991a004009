package mission

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"etx2mission/pkg/types"
)

type MissionItem struct {
	No     int     `xml:"no,attr"`
	Action string  `xml:"action,attr"`
	Lat    float64 `xml:"lat,attr"`
	Lon    float64 `xml:"lon,attr"`
	Alt    int32   `xml:"alt,attr"`
	P1     int16   `xml:"parameter1,attr"`
	P2     int16   `xml:"parameter2,attr"`
	P3     int16   `xml:"parameter3,attr"`
	Flag   uint8   `xml:"flag,attr,omitempty"`
}

type MissionMWP struct {
	Stamp     string `xml:"save-date,attr"`
	Generator string `xml:"generator,attr"`
}

type Version struct {
	Value string `xml:"value,attr"`
}

type Mission struct {
	Version      Version
	Metadata     MissionMWP
	MissionItems []MissionItem
}

func (mi *MissionItem) Is_GeoPoint() bool {
	a := mi.Action
	return !(a == "RTH" || a == "SET_HEAD" || a == "JUMP")
}

// ParseMission reads an MWXML mission. Only the first mwp element is kept.
func ParseMission(dat []byte) (*Mission, error) {
	m := &Mission{}
	dec := xml.NewDecoder(bytes.NewReader(dat))
	seen := false
	nmwp := 0
	for {
		t, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mission: %w", err)
		}
		se, ok := t.(xml.StartElement)
		if !ok {
			continue
		}
		switch strings.ToLower(se.Name.Local) {
		case "mission":
			seen = true
		case "version":
			if err := dec.DecodeElement(&m.Version, &se); err != nil {
				return nil, fmt.Errorf("mission version: %w", err)
			}
		case "mwp", "meta":
			var mwp MissionMWP
			if err := dec.DecodeElement(&mwp, &se); err != nil {
				return nil, fmt.Errorf("mission metadata: %w", err)
			}
			if nmwp == 0 {
				m.Metadata = mwp
			}
			nmwp++
		case "missionitem":
			var mi MissionItem
			if err := dec.DecodeElement(&mi, &se); err != nil {
				return nil, fmt.Errorf("mission item: %w", err)
			}
			m.MissionItems = append(m.MissionItems, mi)
		default:
			slog.Debug("unknown MWXML tag", "tag", se.Name.Local)
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("mission: %w", err)
			}
		}
	}
	if !seen {
		return nil, fmt.Errorf("mission: no <mission> element")
	}
	return m, nil
}

func ReadMissionFile(path string) (*Mission, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseMission(dat)
}

// Document converts the geographic items back into a mission document
func (m *Mission) Document() *Document {
	var wps []types.Waypoint
	absalt := false
	for _, mi := range m.MissionItems {
		if !mi.Is_GeoPoint() {
			continue
		}
		if mi.P3&1 == 1 {
			absalt = true
		}
		wps = append(wps, types.Waypoint{
			No:       len(wps) + 1,
			Point:    types.GeoPoint{Lat: mi.Lat, Lon: mi.Lon},
			Alt:      int(mi.Alt),
			Speed:    int(mi.P1),
			Terminal: mi.Flag == TerminalFlag,
		})
	}
	saved, _ := time.Parse(time.RFC3339, m.Metadata.Stamp)
	return NewDocument(wps, m.Metadata.Generator, m.Version.Value, saved, absalt)
}
